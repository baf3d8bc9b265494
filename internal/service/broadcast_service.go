package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/tutoring-api/internal/dto"
	"github.com/noah-isme/tutoring-api/internal/models"
	"github.com/noah-isme/tutoring-api/pkg/config"
	appErrors "github.com/noah-isme/tutoring-api/pkg/errors"
	"github.com/noah-isme/tutoring-api/pkg/mail"
)

// BroadcastService sends one message to every tutor capable of any of
// the selected subjects.
type BroadcastService struct {
	users        matchUserRepository
	capabilities *CapabilityService
	subjects     config.SubjectsConfig
	mailer       mail.Mailer
	metrics      *MetricsService
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewBroadcastService constructs a BroadcastService instance.
func NewBroadcastService(users matchUserRepository, capabilities *CapabilityService, subjects config.SubjectsConfig, mailer mail.Mailer, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *BroadcastService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &BroadcastService{
		users:        users,
		capabilities: capabilities,
		subjects:     subjects,
		mailer:       mailer,
		metrics:      metrics,
		validator:    validate,
		logger:       logger,
	}
}

// Send delivers the message to every matching tutor. Individual send
// failures are warned about and do not stop the rest.
func (s *BroadcastService) Send(ctx context.Context, req dto.BroadcastRequest) (*dto.BroadcastResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid broadcast payload")
	}
	for _, subject := range req.Subjects {
		if !s.subjects.Contains(subject) {
			return nil, appErrors.Clone(appErrors.ErrUnknownSubject, "unknown subject "+subject)
		}
	}

	tutors, err := s.users.ListWithMinRole(ctx, models.RoleTutor)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list tutors")
	}

	recipients, err := s.capabilities.TeachersOf(ctx, tutors, req.Subjects)
	if err != nil {
		return nil, err
	}

	for _, tutor := range recipients {
		err := s.mailer.Send(ctx, mail.Message{
			To:      []string{tutor.Email},
			Subject: req.Subject,
			Body:    req.Body,
		})
		s.metrics.ObserveMail(err)
		if err != nil {
			s.logger.Warn("broadcast send failed",
				zap.String("tutor_id", tutor.ID), zap.Error(err))
		}
	}

	s.logger.Info("broadcast sent",
		zap.Strings("subjects", req.Subjects),
		zap.Int("recipients", len(recipients)))
	return &dto.BroadcastResponse{Recipients: len(recipients)}, nil
}
