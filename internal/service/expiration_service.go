package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/tutoring-api/internal/models"
	"github.com/noah-isme/tutoring-api/internal/timetable"
	appErrors "github.com/noah-isme/tutoring-api/pkg/errors"
)

type sweepRepository interface {
	ListByKind(ctx context.Context, kind models.AvailabilityKind) ([]models.AvailabilityRecord, error)
	UpdateSlots(ctx context.Context, rec *models.AvailabilityRecord) error
}

// SweepResult summarizes one pass over all commitment records.
type SweepResult struct {
	Records   int
	Freed     int
	Malformed int
}

// Reminder is a same-day commitment surfaced for notification.
type Reminder struct {
	UserID      string
	Slot        timetable.Slot
	PeriodLabel string
}

// ExpirationService drives the commitment slot lifecycle: commit with
// a calendar-anchored expiration, the daily sweep back to available,
// and the same-day reminder pass.
type ExpirationService struct {
	availability *AvailabilityService
	sweepRepo    sweepRepository
	grid         *timetable.Grid
	metrics      *MetricsService
	logger       *zap.Logger
	now          func() time.Time
}

// NewExpirationService constructs an ExpirationService instance.
func NewExpirationService(availability *AvailabilityService, sweepRepo sweepRepository, grid *timetable.Grid, metrics *MetricsService, logger *zap.Logger) *ExpirationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExpirationService{
		availability: availability,
		sweepRepo:    sweepRepo,
		grid:         grid,
		metrics:      metrics,
		logger:       logger,
		now:          time.Now,
	}
}

// Commit marks the slot busy on the person's commitment record. The
// expiration lands on the next real occurrence of the slot's weekday,
// pushed out by the requested number of weeks.
func (s *ExpirationService) Commit(ctx context.Context, userID string, slot timetable.Slot, weeks int) error {
	if !s.grid.Contains(slot) {
		return appErrors.Clone(appErrors.ErrUnknownSlot, "unknown slot "+string(slot))
	}
	if weeks < 1 {
		weeks = 1
	}

	rec, err := s.availability.EnsureCommitments(ctx, userID)
	if err != nil {
		return err
	}
	states, err := rec.DecodeSlots()
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode commitment record")
	}

	next, err := s.grid.NextOccurrence(slot, s.now())
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to anchor expiration")
	}
	expires := next.AddDate(0, 0, 7*weeks)

	states[slot] = models.SlotState{Free: false, ExpiresOn: expires.Format(models.DateLayout)}
	if err := rec.EncodeSlots(states); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode commitment record")
	}
	if err := s.sweepRepo.UpdateSlots(ctx, rec); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store commitment record")
	}

	s.logger.Info("committed slot",
		zap.String("user_id", userID),
		zap.String("slot", string(slot)),
		zap.String("expires_on", expires.Format(models.DateLayout)))
	return nil
}

// Release sets the slot back to available and clears its expiration.
func (s *ExpirationService) Release(ctx context.Context, userID string, slot timetable.Slot) error {
	if !s.grid.Contains(slot) {
		return appErrors.Clone(appErrors.ErrUnknownSlot, "unknown slot "+string(slot))
	}

	rec, err := s.availability.EnsureCommitments(ctx, userID)
	if err != nil {
		return err
	}
	states, err := rec.DecodeSlots()
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode commitment record")
	}

	states[slot] = models.SlotState{Free: true}
	if err := rec.EncodeSlots(states); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode commitment record")
	}
	if err := s.sweepRepo.UpdateSlots(ctx, rec); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store commitment record")
	}
	return nil
}

// Sweep reverts every committed slot whose expiration is strictly in
// the past. Running it twice on the same day changes nothing. One
// malformed expiration is logged and skipped, never fatal.
func (s *ExpirationService) Sweep(ctx context.Context) (SweepResult, error) {
	started := s.now()
	today := dateOnly(started)

	records, err := s.sweepRepo.ListByKind(ctx, models.KindCommitment)
	if err != nil {
		return SweepResult{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list commitment records")
	}

	result := SweepResult{Records: len(records)}
	for i := range records {
		rec := &records[i]
		states, malformed, err := rec.DecodeSlotsLoose()
		if err != nil {
			result.Malformed++
			s.logger.Warn("skipping unreadable commitment record",
				zap.String("record_id", rec.ID), zap.Error(err))
			continue
		}
		for slot, slotErr := range malformed {
			result.Malformed++
			s.logger.Warn("skipping malformed expiration",
				zap.String("record_id", rec.ID),
				zap.String("slot", string(slot)),
				zap.Error(slotErr))
		}

		freed := 0
		for slot, state := range states {
			expires, ok, err := state.ExpiresOnDate()
			if err != nil {
				result.Malformed++
				s.logger.Warn("skipping malformed expiration",
					zap.String("record_id", rec.ID),
					zap.String("slot", string(slot)),
					zap.Error(err))
				continue
			}
			if !ok {
				continue
			}
			if today.After(expires) {
				states[slot] = models.SlotState{Free: true}
				freed++
			}
		}
		if freed == 0 {
			continue
		}

		if err := rec.EncodeSlots(states); err != nil {
			s.logger.Error("failed to encode swept record",
				zap.String("record_id", rec.ID), zap.Error(err))
			continue
		}
		if err := s.sweepRepo.UpdateSlots(ctx, rec); err != nil {
			s.logger.Error("failed to store swept record",
				zap.String("record_id", rec.ID), zap.Error(err))
			continue
		}
		result.Freed += freed
	}

	s.metrics.ObserveSweep(s.now().Sub(started), result.Freed, result.Malformed)
	s.logger.Info("expiration sweep complete",
		zap.Int("records", result.Records),
		zap.Int("freed", result.Freed),
		zap.Int("malformed", result.Malformed))
	return result, nil
}

// RemindersToday returns every committed slot whose expiration falls on
// today's weekday, with the human period label used in reminder mail.
func (s *ExpirationService) RemindersToday(ctx context.Context) ([]Reminder, error) {
	todayWeekday := s.now().Weekday()

	records, err := s.sweepRepo.ListByKind(ctx, models.KindCommitment)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list commitment records")
	}

	var reminders []Reminder
	for i := range records {
		rec := &records[i]
		states, malformed, err := rec.DecodeSlotsLoose()
		if err != nil {
			s.logger.Warn("skipping unreadable commitment record",
				zap.String("record_id", rec.ID), zap.Error(err))
			continue
		}
		for slot, slotErr := range malformed {
			s.logger.Warn("skipping malformed expiration",
				zap.String("record_id", rec.ID),
				zap.String("slot", string(slot)),
				zap.Error(slotErr))
		}

		for _, slot := range s.grid.Slots() {
			state, found := states[slot]
			if !found {
				continue
			}
			expires, ok, err := state.ExpiresOnDate()
			if err != nil || !ok {
				continue
			}
			if expires.Weekday() == todayWeekday {
				reminders = append(reminders, Reminder{
					UserID:      rec.UserID,
					Slot:        slot,
					PeriodLabel: s.grid.PeriodLabel(slot),
				})
			}
		}
	}
	return reminders, nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
