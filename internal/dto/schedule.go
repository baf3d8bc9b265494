package dto

import "github.com/noah-isme/tutoring-api/internal/timetable"

// ScheduleRequest replaces a person's weekly free-period grid. Keys are
// slot ids from the configured grid; missing slots stay not-free.
type ScheduleRequest struct {
	Free map[timetable.Slot]bool `json:"free" validate:"required"`
}

// ScheduleSlot is one slot of a schedule view, ordered as the grid
// enumerates slots.
type ScheduleSlot struct {
	Slot  timetable.Slot `json:"slot"`
	Label string         `json:"label"`
	Free  bool           `json:"free"`
}

// ScheduleResponse is the person's current free-period grid.
type ScheduleResponse struct {
	Slots []ScheduleSlot `json:"slots"`
	Set   bool           `json:"set"`
}

// EffectiveSlot is one slot of the combined availability view.
type EffectiveSlot struct {
	Slot      timetable.Slot `json:"slot"`
	Label     string         `json:"label"`
	Free      bool           `json:"free"`
	Busy      bool           `json:"busy"`
	Effective bool           `json:"effective"`
	ExpiresOn string         `json:"expires_on,omitempty"`
}
