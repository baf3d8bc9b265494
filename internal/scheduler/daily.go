package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/tutoring-api/internal/service"
	"github.com/noah-isme/tutoring-api/pkg/config"
	"github.com/noah-isme/tutoring-api/pkg/jobs"
	"github.com/noah-isme/tutoring-api/pkg/mail"
)

const jobTypeDaily = "daily-sweep"

// Daily runs the expiration sweep followed by the same-day reminder
// pass on a fixed interval. The sweep always runs before reminders so
// an expired commitment never produces a reminder.
type Daily struct {
	expirations *service.ExpirationService
	users       service.UserLookup
	mailer      mail.Mailer
	cfg         config.SweepConfig
	service     string
	queue       *jobs.Queue
	logger      *zap.Logger
}

// NewDaily constructs the daily scheduler.
func NewDaily(expirations *service.ExpirationService, users service.UserLookup, mailer mail.Mailer, cfg config.SweepConfig, serviceName string, logger *zap.Logger) *Daily {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Daily{
		expirations: expirations,
		users:       users,
		mailer:      mailer,
		cfg:         cfg,
		service:     serviceName,
		logger:      logger,
	}
	d.queue = jobs.NewQueue("daily", d.handle, jobs.QueueConfig{
		Workers: cfg.Workers,
		Logger:  logger,
	})
	return d
}

// Start launches the worker queue and the ticker loop. The first run
// fires immediately.
func (d *Daily) Start(ctx context.Context) {
	if !d.cfg.Enabled {
		d.logger.Info("daily sweep disabled")
		return
	}
	d.queue.Start(ctx)
	go d.loop(ctx)
}

// Stop drains the worker queue.
func (d *Daily) Stop() {
	d.queue.Stop()
}

func (d *Daily) loop(ctx context.Context) {
	d.enqueue()

	ticker := time.NewTicker(d.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.enqueue()
		}
	}
}

func (d *Daily) enqueue() {
	err := d.queue.Enqueue(jobs.Job{ID: uuid.NewString(), Type: jobTypeDaily})
	if err != nil {
		d.logger.Warn("failed to enqueue daily sweep", zap.Error(err))
	}
}

func (d *Daily) handle(ctx context.Context, _ jobs.Job) error {
	result, err := d.expirations.Sweep(ctx)
	if err != nil {
		return err
	}
	d.logger.Info("daily sweep ran",
		zap.Int("records", result.Records),
		zap.Int("freed", result.Freed),
		zap.Int("malformed", result.Malformed))

	reminders, err := d.expirations.RemindersToday(ctx)
	if err != nil {
		return err
	}
	d.sendReminders(ctx, reminders)
	return nil
}

// sendReminders groups the reminders per person and sends one message
// each. Send failures are logged and do not fail the job, so the queue
// never re-runs a sweep just to retry mail.
func (d *Daily) sendReminders(ctx context.Context, reminders []service.Reminder) {
	byUser := make(map[string][]string)
	for _, r := range reminders {
		byUser[r.UserID] = append(byUser[r.UserID], r.PeriodLabel)
	}

	for userID, periods := range byUser {
		user, err := d.users.FindByID(ctx, userID)
		if err != nil {
			d.logger.Warn("failed to load user for reminder",
				zap.String("user_id", userID), zap.Error(err))
			continue
		}

		body := fmt.Sprintf("Reminder from %s: you have tutoring today during %s.",
			d.service, joinPeriods(periods))
		err = d.mailer.Send(ctx, mail.Message{
			To:      []string{user.Email},
			Subject: "Tutoring today",
			Body:    body,
		})
		if err != nil {
			d.logger.Warn("reminder send failed",
				zap.String("user_id", userID), zap.Error(err))
		}
	}
}

func joinPeriods(periods []string) string {
	switch len(periods) {
	case 0:
		return ""
	case 1:
		return periods[0]
	}
	out := periods[0]
	for _, p := range periods[1 : len(periods)-1] {
		out += ", " + p
	}
	return out + " and " + periods[len(periods)-1]
}
