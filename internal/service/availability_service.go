package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/tutoring-api/internal/dto"
	"github.com/noah-isme/tutoring-api/internal/models"
	"github.com/noah-isme/tutoring-api/internal/timetable"
	appErrors "github.com/noah-isme/tutoring-api/pkg/errors"
)

type availabilityRepository interface {
	GetByUserAndKind(ctx context.Context, userID string, kind models.AvailabilityKind) (*models.AvailabilityRecord, error)
	Create(ctx context.Context, rec *models.AvailabilityRecord) error
	UpdateSlots(ctx context.Context, rec *models.AvailabilityRecord) error
	Replace(ctx context.Context, rec *models.AvailabilityRecord) error
}

// AvailabilityService owns the two per-person availability records and
// the combined view over them.
type AvailabilityService struct {
	repo      availabilityRepository
	grid      *timetable.Grid
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAvailabilityService constructs an AvailabilityService instance.
func NewAvailabilityService(repo availabilityRepository, grid *timetable.Grid, validate *validator.Validate, logger *zap.Logger) *AvailabilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AvailabilityService{repo: repo, grid: grid, validator: validate, logger: logger}
}

// FreeTime returns the person's free-period record, or nil when the
// person never submitted a schedule.
func (s *AvailabilityService) FreeTime(ctx context.Context, userID string) (*models.AvailabilityRecord, error) {
	rec, err := s.repo.GetByUserAndKind(ctx, userID, models.KindFreeTime)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load free-period record")
	}
	return rec, nil
}

// EnsureCommitments returns the person's commitment record, creating
// and persisting an all-available one on first access.
func (s *AvailabilityService) EnsureCommitments(ctx context.Context, userID string) (*models.AvailabilityRecord, error) {
	rec, err := s.repo.GetByUserAndKind(ctx, userID, models.KindCommitment)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load commitment record")
	}

	rec, err = models.NewCommitmentRecord(userID, s.grid.Slots())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build commitment record")
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to provision commitment record")
	}
	s.logger.Info("provisioned commitment record", zap.String("user_id", userID))
	return rec, nil
}

// Effective combines both records into the per-slot matchable signal:
// a slot is effective only when declared free and not committed. A
// person who never submitted a schedule gets all-false.
func (s *AvailabilityService) Effective(ctx context.Context, userID string) (map[timetable.Slot]bool, error) {
	effective := make(map[timetable.Slot]bool, s.grid.Count())
	for _, slot := range s.grid.Slots() {
		effective[slot] = false
	}

	free, err := s.FreeTime(ctx, userID)
	if err != nil {
		return nil, err
	}
	if free == nil {
		return effective, nil
	}
	freeStates, err := free.DecodeSlots()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode free-period record")
	}

	commitments, err := s.EnsureCommitments(ctx, userID)
	if err != nil {
		return nil, err
	}
	busyStates, err := commitments.DecodeSlots()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode commitment record")
	}

	for _, slot := range s.grid.Slots() {
		// A commitment slot that was never stored counts as free.
		busy := false
		if state, ok := busyStates[slot]; ok {
			busy = !state.Free
		}
		effective[slot] = freeStates[slot].Free && !busy
	}
	return effective, nil
}

// SubmitSchedule replaces the person's free-period record wholesale.
// The first submission also provisions the commitment record, so the
// person becomes matchable in one step.
func (s *AvailabilityService) SubmitSchedule(ctx context.Context, userID string, req dto.ScheduleRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}
	for slot := range req.Free {
		if !s.grid.Contains(slot) {
			return appErrors.Clone(appErrors.ErrUnknownSlot, "unknown slot "+string(slot))
		}
	}

	rec, err := models.NewFreeTimeRecord(userID, s.grid.Slots())
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build free-period record")
	}
	states, err := rec.DecodeSlots()
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode free-period record")
	}
	for slot, free := range req.Free {
		states[slot] = models.SlotState{Free: free}
	}
	if err := rec.EncodeSlots(states); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode free-period record")
	}

	if err := s.repo.Replace(ctx, rec); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store free-period record")
	}

	if _, err := s.EnsureCommitments(ctx, userID); err != nil {
		return err
	}
	return nil
}

// Schedule returns the person's free-period grid in display order.
func (s *AvailabilityService) Schedule(ctx context.Context, userID string) (*dto.ScheduleResponse, error) {
	free, err := s.FreeTime(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := &dto.ScheduleResponse{Set: free != nil}
	states := map[timetable.Slot]models.SlotState{}
	if free != nil {
		if states, err = free.DecodeSlots(); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode free-period record")
		}
	}
	for _, slot := range s.grid.Slots() {
		resp.Slots = append(resp.Slots, dto.ScheduleSlot{
			Slot:  slot,
			Label: s.grid.DisplayLabel(slot),
			Free:  states[slot].Free,
		})
	}
	return resp, nil
}

// EffectiveView returns the combined availability in display order,
// including the expiration carried by each committed slot.
func (s *AvailabilityService) EffectiveView(ctx context.Context, userID string) ([]dto.EffectiveSlot, error) {
	effective, err := s.Effective(ctx, userID)
	if err != nil {
		return nil, err
	}

	free, err := s.FreeTime(ctx, userID)
	if err != nil {
		return nil, err
	}
	freeStates := map[timetable.Slot]models.SlotState{}
	if free != nil {
		if freeStates, err = free.DecodeSlots(); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode free-period record")
		}
	}

	commitments, err := s.EnsureCommitments(ctx, userID)
	if err != nil {
		return nil, err
	}
	busyStates, err := commitments.DecodeSlots()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode commitment record")
	}

	view := make([]dto.EffectiveSlot, 0, s.grid.Count())
	for _, slot := range s.grid.Slots() {
		busyState, ok := busyStates[slot]
		busy := ok && !busyState.Free
		view = append(view, dto.EffectiveSlot{
			Slot:      slot,
			Label:     s.grid.DisplayLabel(slot),
			Free:      freeStates[slot].Free,
			Busy:      busy,
			Effective: effective[slot],
			ExpiresOn: busyState.ExpiresOn,
		})
	}
	return view, nil
}
