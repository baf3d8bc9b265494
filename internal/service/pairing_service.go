package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/tutoring-api/internal/dto"
	"github.com/noah-isme/tutoring-api/internal/models"
	"github.com/noah-isme/tutoring-api/internal/timetable"
	"github.com/noah-isme/tutoring-api/pkg/config"
	appErrors "github.com/noah-isme/tutoring-api/pkg/errors"
	"github.com/noah-isme/tutoring-api/pkg/export"
	"github.com/noah-isme/tutoring-api/pkg/mail"
)

type pairingRepository interface {
	Create(ctx context.Context, pairing *models.Pairing) error
	FindByID(ctx context.Context, id string) (*models.Pairing, error)
	List(ctx context.Context) ([]models.Pairing, error)
	SetActive(ctx context.Context, id string, active bool) error
}

// UserLookup resolves a user id to the full account. Shared with the
// scheduler for reminder addressing.
type UserLookup interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// PairingService commits a selected match on both parties, keeps the
// append-only pairing log, and renders the master schedule exports.
type PairingService struct {
	pairings    pairingRepository
	users       UserLookup
	proposals   matchProposalStore
	expirations *ExpirationService
	grid        *timetable.Grid
	cfg         config.MatchingConfig
	mailer      mail.Mailer
	metrics     *MetricsService
	csv         *export.CSVExporter
	pdf         *export.PDFExporter
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewPairingService constructs a PairingService instance.
func NewPairingService(
	pairings pairingRepository,
	users UserLookup,
	proposals matchProposalStore,
	expirations *ExpirationService,
	grid *timetable.Grid,
	cfg config.MatchingConfig,
	mailer mail.Mailer,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
) *PairingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &PairingService{
		pairings:    pairings,
		users:       users,
		proposals:   proposals,
		expirations: expirations,
		grid:        grid,
		cfg:         cfg,
		mailer:      mailer,
		metrics:     metrics,
		csv:         export.NewCSVExporter(),
		pdf:         export.NewPDFExporter(),
		validator:   validate,
		logger:      logger,
		now:         time.Now,
	}
}

// Select commits one of the student's held proposals: the slot is
// marked busy on both parties' commitment records, a pairing is
// appended, and both parties plus the tutoring head are notified.
// Notification failures are warned about, never rolled back.
func (s *PairingService) Select(ctx context.Context, studentID string, req dto.SelectRequest) (*models.Pairing, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid selection payload")
	}

	proposals, ok, err := s.proposals.Load(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load match proposals")
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrProposalExpired, "")
	}

	var chosen *dto.MatchProposal
	for i := range proposals {
		if proposals[i].Slot == req.Slot {
			chosen = &proposals[i]
			break
		}
	}
	if chosen == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no proposal held for slot "+string(req.Slot))
	}

	if err := s.expirations.Commit(ctx, studentID, chosen.Slot, 1); err != nil {
		return nil, err
	}
	if err := s.expirations.Commit(ctx, chosen.TutorID, chosen.Slot, 1); err != nil {
		return nil, err
	}

	day, _ := s.grid.DayOf(chosen.Slot)
	position, _ := s.grid.Position(chosen.Slot)
	date, err := s.grid.NextOccurrence(chosen.Slot, s.now())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to date the pairing")
	}

	pairing := &models.Pairing{
		Student: studentID,
		Tutor:   chosen.TutorID,
		Subject: chosen.Subject,
		Date:    date,
		Day:     day.Name,
		Period:  position,
		Active:  true,
	}
	if err := s.pairings.Create(ctx, pairing); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record pairing")
	}

	if err := s.proposals.Clear(ctx, studentID); err != nil {
		s.logger.Warn("failed to clear held proposals", zap.String("student_id", studentID), zap.Error(err))
	}

	s.notifyParties(ctx, pairing, chosen.Slot)

	s.logger.Info("pairing committed",
		zap.String("pairing_id", pairing.ID),
		zap.String("student", pairing.Student),
		zap.String("tutor", pairing.Tutor),
		zap.String("slot", string(chosen.Slot)))
	return pairing, nil
}

func (s *PairingService) notifyParties(ctx context.Context, pairing *models.Pairing, slot timetable.Slot) {
	student, err := s.users.FindByID(ctx, pairing.Student)
	if err != nil {
		s.logger.Warn("failed to load student for notification", zap.Error(err))
		return
	}
	tutor, err := s.users.FindByID(ctx, pairing.Tutor)
	if err != nil {
		s.logger.Warn("failed to load tutor for notification", zap.Error(err))
		return
	}

	label := fmt.Sprintf("%s %s, %s",
		pairing.Day, pairing.Date.Format("Jan 2, 2006"), s.grid.PeriodLabel(slot))

	messages := []mail.Message{
		{
			To:      []string{tutor.Email},
			Subject: "New tutoring session",
			Body: fmt.Sprintf("You have been matched with %s for %s on %s.",
				student.Username, pairing.Subject, label),
		},
		{
			To:      []string{student.Email},
			Subject: "Your tutor is booked",
			Body: fmt.Sprintf("%s will tutor you in %s on %s.",
				tutor.Username, pairing.Subject, label),
		},
	}
	if len(s.cfg.TutoringHeadEmails) > 0 {
		messages = append(messages, mail.Message{
			To:      s.cfg.TutoringHeadEmails,
			Subject: "Tutoring pairing created",
			Body: fmt.Sprintf("%s is tutoring %s in %s on %s.",
				tutor.Username, student.Username, pairing.Subject, label),
		})
	}

	for _, msg := range messages {
		err := s.mailer.Send(ctx, msg)
		s.metrics.ObserveMail(err)
		if err != nil {
			s.logger.Warn("pairing notification failed",
				zap.Strings("to", msg.To), zap.Error(err))
		}
	}
}

// List returns the full pairing log, newest first.
func (s *PairingService) List(ctx context.Context) ([]models.Pairing, error) {
	pairings, err := s.pairings.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pairings")
	}
	return pairings, nil
}

// Deactivate flips a pairing to inactive. Only a pairing whose date has
// not yet passed can be deactivated.
func (s *PairingService) Deactivate(ctx context.Context, id string) error {
	pairing, err := s.pairings.FindByID(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "pairing not found")
	}
	if !pairing.Date.After(s.now()) {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "only upcoming pairings can be deactivated")
	}
	if err := s.pairings.SetActive(ctx, id, false); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate pairing")
	}
	return nil
}

func (s *PairingService) dataset(ctx context.Context) (export.Dataset, error) {
	pairings, err := s.pairings.List(ctx)
	if err != nil {
		return export.Dataset{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pairings")
	}

	data := export.Dataset{
		Headers: []string{"Student", "Tutor", "Subject", "Date", "Day", "Period", "Active"},
	}
	for _, p := range pairings {
		active := "no"
		if p.Active {
			active = "yes"
		}
		data.Rows = append(data.Rows, []string{
			p.Student, p.Tutor, p.Subject,
			p.Date.Format(models.DateLayout), p.Day,
			fmt.Sprintf("%d", p.Period), active,
		})
	}
	return data, nil
}

// ExportCSV renders the master schedule as CSV.
func (s *PairingService) ExportCSV(ctx context.Context) ([]byte, error) {
	data, err := s.dataset(ctx)
	if err != nil {
		return nil, err
	}
	return s.csv.Render(data)
}

// ExportPDF renders the master schedule as a PDF table.
func (s *PairingService) ExportPDF(ctx context.Context) ([]byte, error) {
	data, err := s.dataset(ctx)
	if err != nil {
		return nil, err
	}
	return s.pdf.Render(data, "Master Tutoring Schedule")
}
