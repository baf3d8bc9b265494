package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/tutoring-api/internal/dto"
	"github.com/noah-isme/tutoring-api/internal/models"
	"github.com/noah-isme/tutoring-api/pkg/config"
	appErrors "github.com/noah-isme/tutoring-api/pkg/errors"
)

type capabilityRepository interface {
	GetByUser(ctx context.Context, userID string) (*models.SubjectCapability, error)
	Replace(ctx context.Context, cap *models.SubjectCapability) error
}

// CapabilityService maintains each tutor's subject flags against the
// configured taxonomy.
type CapabilityService struct {
	repo      capabilityRepository
	subjects  config.SubjectsConfig
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCapabilityService constructs a CapabilityService instance.
func NewCapabilityService(repo capabilityRepository, subjects config.SubjectsConfig, validate *validator.Validate, logger *zap.Logger) *CapabilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &CapabilityService{repo: repo, subjects: subjects, validator: validate, logger: logger}
}

// Get returns the tutor's subject flags organized by taxonomy category.
// A tutor who never registered subjects gets all-false flags.
func (s *CapabilityService) Get(ctx context.Context, userID string) (*dto.CapabilityResponse, error) {
	flags := map[string]bool{}
	record, err := s.repo.GetByUser(ctx, userID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject capability")
		}
	} else if flags, err = record.DecodeSubjects(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode subject capability")
	}

	resp := &dto.CapabilityResponse{}
	for _, cat := range s.subjects.Categories {
		group := dto.CapabilityCategory{Name: cat.Name, Subjects: map[string]bool{}}
		for _, subject := range cat.Subjects {
			group.Subjects[subject] = flags[subject]
		}
		resp.Categories = append(resp.Categories, group)
	}
	return resp, nil
}

// Replace swaps the tutor's subject flags wholesale. Unknown subjects
// are rejected; subjects absent from the payload become false.
func (s *CapabilityService) Replace(ctx context.Context, userID string, req dto.CapabilityRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid capability payload")
	}
	for subject := range req.Subjects {
		if !s.subjects.Contains(subject) {
			return appErrors.Clone(appErrors.ErrUnknownSubject, "unknown subject "+subject)
		}
	}

	flags := make(map[string]bool, len(s.subjects.All()))
	for _, subject := range s.subjects.All() {
		flags[subject] = req.Subjects[subject]
	}

	record := &models.SubjectCapability{UserID: userID}
	if err := record.EncodeSubjects(flags); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode subject capability")
	}
	if err := s.repo.Replace(ctx, record); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store subject capability")
	}
	return nil
}

// TeachersOf returns the user ids of tutors among candidates whose
// capability marks any of the subjects true.
func (s *CapabilityService) TeachersOf(ctx context.Context, candidates []models.User, subjects []string) ([]models.User, error) {
	var out []models.User
	for _, candidate := range candidates {
		record, err := s.repo.GetByUser(ctx, candidate.ID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject capability")
		}
		flags, err := record.DecodeSubjects()
		if err != nil {
			s.logger.Warn("skipping tutor with unreadable capability",
				zap.String("tutor_id", candidate.ID), zap.Error(err))
			continue
		}
		for _, subject := range subjects {
			if flags[subject] {
				out = append(out, candidate)
				break
			}
		}
	}
	return out, nil
}
