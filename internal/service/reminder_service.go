package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/signup-sheets-api/internal/models"
	"github.com/noah-isme/signup-sheets-api/pkg/jobs"
	"github.com/noah-isme/signup-sheets-api/pkg/mailer"
)

type reminderSignupRepository interface {
	ListDueReminders(ctx context.Context, round int, now time.Time) ([]models.SignupDetail, error)
	MarkReminderSent(ctx context.Context, id int64, round int) error
}

type reminderRecorder interface {
	RecordReminder(round int, sent int)
}

// reminderPayload is the job body carried through the queue.
type reminderPayload struct {
	Signup models.SignupDetail
	Round  int
}

// ReminderService finds validated signups entering a sheet's reminder
// window and dispatches the emails through the background queue so a slow
// mail provider cannot stall the scan loop.
type ReminderService struct {
	repo      reminderSignupRepository
	sheets    sheetReader
	tasks     taskReader
	templates templateResolver
	sender    mailer.Sender
	metrics   reminderRecorder
	logger    *zap.Logger
	queue     *jobs.Queue
	interval  time.Duration
}

// NewReminderService constructs a ReminderService with its delivery queue.
func NewReminderService(repo reminderSignupRepository, sheets sheetReader, tasks taskReader, templates templateResolver, sender mailer.Sender, metrics reminderRecorder, logger *zap.Logger, interval time.Duration, queueCfg jobs.QueueConfig) *ReminderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sender == nil {
		sender = mailer.NewNopSender(logger)
	}
	s := &ReminderService{
		repo:      repo,
		sheets:    sheets,
		tasks:     tasks,
		templates: templates,
		sender:    sender,
		metrics:   metrics,
		logger:    logger,
		interval:  interval,
	}
	queueCfg.Logger = logger
	s.queue = jobs.NewQueue("reminders", s.deliver, queueCfg)
	return s
}

// Start launches the queue workers and the periodic scan loop.
func (s *ReminderService) Start(ctx context.Context) {
	s.queue.Start(ctx)
	go s.loop(ctx)
}

// Stop drains the queue workers.
func (s *ReminderService) Stop() {
	s.queue.Stop()
}

// DispatchDue enqueues all reminders currently due for both rounds and
// returns how many were queued.
func (s *ReminderService) DispatchDue(ctx context.Context, now time.Time) (int, error) {
	queued := 0
	for _, round := range []int{1, 2} {
		due, err := s.repo.ListDueReminders(ctx, round, now)
		if err != nil {
			return queued, fmt.Errorf("list due reminders round %d: %w", round, err)
		}
		for _, signup := range due {
			job := jobs.Job{
				ID:      fmt.Sprintf("reminder-%d-%d", round, signup.ID),
				Type:    "reminder",
				Payload: reminderPayload{Signup: signup, Round: round},
			}
			if err := s.queue.Enqueue(job); err != nil {
				return queued, fmt.Errorf("enqueue reminder: %w", err)
			}
			queued++
		}
		if s.metrics != nil {
			s.metrics.RecordReminder(round, len(due))
		}
	}
	return queued, nil
}

func (s *ReminderService) loop(ctx context.Context) {
	interval := s.interval
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if queued, err := s.DispatchDue(ctx, time.Now().UTC()); err != nil {
				s.logger.Error("reminder scan failed", zap.Error(err))
			} else if queued > 0 {
				s.logger.Info("reminders queued", zap.Int("count", queued))
			}
		}
	}
}

// deliver is the queue handler: resolve the template, send, and set the
// idempotency flag so the next scan skips the row.
func (s *ReminderService) deliver(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(reminderPayload)
	if !ok {
		s.logger.Error("unexpected reminder payload", zap.String("job_id", job.ID))
		return nil
	}

	emailType := models.EmailTypeReminder1
	if payload.Round == 2 {
		emailType = models.EmailTypeReminder2
	}

	task, err := s.tasks.GetByID(ctx, payload.Signup.TaskID)
	if err != nil {
		return fmt.Errorf("load task for reminder: %w", err)
	}
	sheet, err := s.sheets.GetByID(ctx, payload.Signup.SheetID)
	if err != nil {
		return fmt.Errorf("load sheet for reminder: %w", err)
	}

	template, err := s.templates.Resolve(ctx, emailType, sheet, task)
	if err != nil {
		return fmt.Errorf("resolve reminder template: %w", err)
	}
	if template != nil {
		subject, body := s.templates.Render(template, EmailData(sheet, task, &payload.Signup.Signup))
		msg := mailer.Message{
			To:       payload.Signup.Email,
			FromName: template.FromName,
			From:     resolveFromEmail(template.FromEmail, sheet),
			Subject:  subject,
			HTML:     body,
		}
		if err := s.sender.Send(ctx, msg); err != nil {
			return fmt.Errorf("send reminder: %w", err)
		}
	}

	if err := s.repo.MarkReminderSent(ctx, payload.Signup.ID, payload.Round); err != nil {
		return fmt.Errorf("mark reminder sent: %w", err)
	}
	return nil
}
