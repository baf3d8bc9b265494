package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx/types"

	"github.com/noah-isme/tutoring-api/internal/timetable"
)

// AvailabilityKind distinguishes the two records each person may own.
type AvailabilityKind int

const (
	// KindFreeTime is the self-declared weekly free-period grid. It has
	// no expirations and defaults to nothing free.
	KindFreeTime AvailabilityKind = 0
	// KindCommitment tracks whether a slot is already taken by a
	// tutoring engagement. Slots default to free and busy slots always
	// carry an expiration date.
	KindCommitment AvailabilityKind = 1
)

// DateLayout is the wire format for slot expiration dates.
const DateLayout = "2006-01-02"

// SlotState is the stored state of one slot within a record. For
// KindCommitment, Free == false always pairs with a non-empty
// ExpiresOn; setting a slot free clears the date.
type SlotState struct {
	Free      bool   `json:"free"`
	ExpiresOn string `json:"expires_on,omitempty"`
}

// ExpiresOnDate parses the expiration date. An empty ExpiresOn yields
// ok == false; a malformed one yields an error so callers can skip the
// slot without aborting a whole sweep.
func (s SlotState) ExpiresOnDate() (time.Time, bool, error) {
	if s.ExpiresOn == "" {
		return time.Time{}, false, nil
	}
	d, err := time.Parse(DateLayout, s.ExpiresOn)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse expiration %q: %w", s.ExpiresOn, err)
	}
	return d, true, nil
}

// AvailabilityRecord stores per-slot state for one person and one kind.
// Slot states are kept as a JSON object keyed by slot id, so the schema
// follows the configured grid without migrations.
type AvailabilityRecord struct {
	ID        string           `db:"id" json:"id"`
	UserID    string           `db:"user_id" json:"user_id"`
	Kind      AvailabilityKind `db:"kind" json:"kind"`
	Slots     types.JSONText   `db:"slots" json:"slots"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt time.Time        `db:"updated_at" json:"updated_at"`
}

// DecodeSlots unmarshals the stored slot map.
func (r *AvailabilityRecord) DecodeSlots() (map[timetable.Slot]SlotState, error) {
	states := make(map[timetable.Slot]SlotState)
	if len(r.Slots) == 0 {
		return states, nil
	}
	if err := json.Unmarshal(r.Slots, &states); err != nil {
		return nil, fmt.Errorf("decode availability slots: %w", err)
	}
	return states, nil
}

// DecodeSlotsLoose unmarshals slot-by-slot so that one malformed entry
// does not hide the rest of the record. Malformed slots are returned
// separately.
func (r *AvailabilityRecord) DecodeSlotsLoose() (map[timetable.Slot]SlotState, map[timetable.Slot]error, error) {
	raw := make(map[timetable.Slot]json.RawMessage)
	if len(r.Slots) > 0 {
		if err := json.Unmarshal(r.Slots, &raw); err != nil {
			return nil, nil, fmt.Errorf("decode availability slots: %w", err)
		}
	}

	states := make(map[timetable.Slot]SlotState, len(raw))
	var malformed map[timetable.Slot]error
	for slot, payload := range raw {
		var state SlotState
		if err := json.Unmarshal(payload, &state); err != nil {
			if malformed == nil {
				malformed = make(map[timetable.Slot]error)
			}
			malformed[slot] = err
			continue
		}
		states[slot] = state
	}
	return states, malformed, nil
}

// EncodeSlots marshals and stores the slot map.
func (r *AvailabilityRecord) EncodeSlots(states map[timetable.Slot]SlotState) error {
	payload, err := json.Marshal(states)
	if err != nil {
		return fmt.Errorf("encode availability slots: %w", err)
	}
	r.Slots = types.JSONText(payload)
	return nil
}

// NewFreeTimeRecord builds a kind-0 record with every slot not free,
// mirroring a blank schedule form.
func NewFreeTimeRecord(userID string, slots []timetable.Slot) (*AvailabilityRecord, error) {
	states := make(map[timetable.Slot]SlotState, len(slots))
	for _, s := range slots {
		states[s] = SlotState{Free: false}
	}
	rec := &AvailabilityRecord{UserID: userID, Kind: KindFreeTime}
	if err := rec.EncodeSlots(states); err != nil {
		return nil, err
	}
	return rec, nil
}

// NewCommitmentRecord builds a kind-1 record with every slot free and
// no expirations, the state of a person with no engagements.
func NewCommitmentRecord(userID string, slots []timetable.Slot) (*AvailabilityRecord, error) {
	states := make(map[timetable.Slot]SlotState, len(slots))
	for _, s := range slots {
		states[s] = SlotState{Free: true}
	}
	rec := &AvailabilityRecord{UserID: userID, Kind: KindCommitment}
	if err := rec.EncodeSlots(states); err != nil {
		return nil, err
	}
	return rec, nil
}
