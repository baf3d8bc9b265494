package service

import (
	"context"
	"database/sql"
	"errors"
	"math/rand"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/tutoring-api/internal/dto"
	"github.com/noah-isme/tutoring-api/internal/models"
	"github.com/noah-isme/tutoring-api/internal/timetable"
	"github.com/noah-isme/tutoring-api/pkg/config"
	appErrors "github.com/noah-isme/tutoring-api/pkg/errors"
)

type matchUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	ListWithMinRole(ctx context.Context, min models.Role) ([]models.User, error)
}

type matchCapabilityRepository interface {
	GetByUser(ctx context.Context, userID string) (*models.SubjectCapability, error)
}

type matchProposalStore interface {
	Save(ctx context.Context, userID string, proposals []dto.MatchProposal, ttl time.Duration) error
	Load(ctx context.Context, userID string) ([]dto.MatchProposal, bool, error)
	Clear(ctx context.Context, userID string) error
}

// MatchingService finds tutors for a student and holds the resulting
// proposals until one is selected or they expire.
type MatchingService struct {
	users        matchUserRepository
	capabilities matchCapabilityRepository
	proposals    matchProposalStore
	availability *AvailabilityService
	grid         *timetable.Grid
	subjects     config.SubjectsConfig
	cfg          config.MatchingConfig
	metrics      *MetricsService
	validator    *validator.Validate
	logger       *zap.Logger
	now          func() time.Time
	shuffle      func(n int, swap func(i, j int))
}

// NewMatchingService constructs a MatchingService instance.
func NewMatchingService(
	users matchUserRepository,
	capabilities matchCapabilityRepository,
	proposals matchProposalStore,
	availability *AvailabilityService,
	grid *timetable.Grid,
	subjects config.SubjectsConfig,
	cfg config.MatchingConfig,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
) *MatchingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &MatchingService{
		users:        users,
		capabilities: capabilities,
		proposals:    proposals,
		availability: availability,
		grid:         grid,
		subjects:     subjects,
		cfg:          cfg,
		metrics:      metrics,
		validator:    validate,
		logger:       logger,
		now:          time.Now,
		shuffle:      rand.Shuffle,
	}
}

// BusinessRatio is the tutor's load proxy: committed slots over declared
// free slots, the denominator seeded at one. Lower means less busy.
func (s *MatchingService) BusinessRatio(ctx context.Context, tutorID string) (float64, error) {
	busyCount := 0
	commitments, err := s.availability.EnsureCommitments(ctx, tutorID)
	if err != nil {
		return 0, err
	}
	busyStates, err := commitments.DecodeSlots()
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode commitment record")
	}
	for _, state := range busyStates {
		if !state.Free {
			busyCount++
		}
	}

	freeCount := 1
	free, err := s.availability.FreeTime(ctx, tutorID)
	if err != nil {
		return 0, err
	}
	if free != nil {
		freeStates, err := free.DecodeSlots()
		if err != nil {
			return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode free-period record")
		}
		for _, state := range freeStates {
			if state.Free {
				freeCount++
			}
		}
	}

	return float64(busyCount) / float64(freeCount), nil
}

type slotCandidate struct {
	tutor models.User
	ratio float64
}

// Match proposes at most one tutor per slot where both sides are
// effectively free. Slots on today's weekday are excluded so a match
// never lands on the current day. The proposals are stored for the
// student, replacing any prior set, and returned in grid order.
func (s *MatchingService) Match(ctx context.Context, studentID string, req dto.MatchRequest) (*dto.MatchResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid match payload")
	}
	if !s.subjects.Contains(req.Subject) {
		return nil, appErrors.Clone(appErrors.ErrUnknownSubject, "unknown subject "+req.Subject)
	}

	studentFree, err := s.availability.FreeTime(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if studentFree == nil {
		return nil, appErrors.Clone(appErrors.ErrScheduleNotSet, "submit your free periods before requesting a tutor")
	}
	studentEffective, err := s.availability.Effective(ctx, studentID)
	if err != nil {
		return nil, err
	}

	tutors, err := s.users.ListWithMinRole(ctx, models.RoleTutor)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list tutors")
	}

	todayWeekday := s.now().Weekday()
	bySlot := make(map[timetable.Slot][]slotCandidate)
	for _, tutor := range tutors {
		if tutor.ID == studentID {
			continue
		}

		capability, err := s.capabilities.GetByUser(ctx, tutor.ID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject capability")
		}
		teaches, err := capability.CanTeach(req.Subject)
		if err != nil {
			s.logger.Warn("skipping tutor with unreadable capability",
				zap.String("tutor_id", tutor.ID), zap.Error(err))
			continue
		}
		if !teaches {
			continue
		}

		tutorEffective, err := s.availability.Effective(ctx, tutor.ID)
		if err != nil {
			return nil, err
		}

		ratio := -1.0
		for _, slot := range s.grid.Slots() {
			if !studentEffective[slot] || !tutorEffective[slot] {
				continue
			}
			if day, ok := s.grid.DayOf(slot); ok && day.Weekday == todayWeekday {
				continue
			}
			if ratio < 0 {
				if ratio, err = s.BusinessRatio(ctx, tutor.ID); err != nil {
					return nil, err
				}
			}
			bySlot[slot] = append(bySlot[slot], slotCandidate{tutor: tutor, ratio: ratio})
		}
	}

	var proposals []dto.MatchProposal
	for _, slot := range s.grid.Slots() {
		candidates := bySlot[slot]
		if len(candidates) == 0 {
			continue
		}
		// Shuffle first so equal ratios do not always resolve to the
		// same tutor.
		s.shuffle(len(candidates), func(i, j int) {
			candidates[i], candidates[j] = candidates[j], candidates[i]
		})
		best := candidates[0]
		for _, c := range candidates[1:] {
			if c.ratio < best.ratio {
				best = c
			}
		}

		proposal := dto.MatchProposal{
			Slot:         slot,
			DisplayLabel: s.grid.DisplayLabel(slot),
			TutorID:      best.tutor.ID,
			Subject:      req.Subject,
		}
		if s.cfg.DisplayTutorName {
			proposal.TutorName = best.tutor.Username
			proposal.DisplayLabel = best.tutor.Username + ", " + proposal.DisplayLabel
		}
		proposals = append(proposals, proposal)
	}

	s.metrics.ObserveMatch(len(proposals))

	resp := &dto.MatchResponse{Proposals: proposals}
	if len(proposals) == 0 {
		resp.Message = "no tutor is currently available for " + req.Subject
		return resp, nil
	}

	if err := s.proposals.Save(ctx, studentID, proposals, s.cfg.ProposalTTL); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hold match proposals")
	}
	s.logger.Info("match proposals held",
		zap.String("student_id", studentID),
		zap.String("subject", req.Subject),
		zap.Int("proposals", len(proposals)))
	return resp, nil
}

// HeldProposals returns the student's unexpired proposals.
func (s *MatchingService) HeldProposals(ctx context.Context, studentID string) ([]dto.MatchProposal, error) {
	proposals, ok, err := s.proposals.Load(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load match proposals")
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrProposalExpired, "")
	}
	return proposals, nil
}
