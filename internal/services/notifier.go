package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"jobportal/backend/internal/events"
	"jobportal/backend/internal/models"
	"jobportal/backend/internal/queue"
)

// Notifier is told about every committed application. Its errors are logged
// by the caller and never undo the application.
type Notifier interface {
	NotifyApplicationSubmitted(ctx context.Context, app *models.Application, job *models.JobPost) error
}

type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) NotifyApplicationSubmitted(_ context.Context, app *models.Application, job *models.JobPost) error {
	n.logger.Info("application submitted",
		zap.Uint("application_id", app.ID),
		zap.Uint("job_post_id", job.ID),
		zap.Uint("candidate_id", app.CandidateID))
	return nil
}

// MultiNotifier calls every notifier, even after one fails.
type MultiNotifier []Notifier

func (m MultiNotifier) NotifyApplicationSubmitted(ctx context.Context, app *models.Application, job *models.JobPost) error {
	var errs []error
	for _, n := range m {
		if err := n.NotifyApplicationSubmitted(ctx, app, job); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// QueueNotifier schedules the candidate and employer emails on the task queue.
type QueueNotifier struct {
	client queue.Enqueuer
}

func NewQueueNotifier(client queue.Enqueuer) *QueueNotifier {
	return &QueueNotifier{client: client}
}

func (n *QueueNotifier) NotifyApplicationSubmitted(ctx context.Context, app *models.Application, job *models.JobPost) error {
	payload := queue.NotificationPayload{ApplicationID: app.ID, JobPostID: job.ID}
	var errs []error
	for _, task := range []string{queue.NotifyCandidateTask, queue.NotifyEmployerTask} {
		if err := queue.EnqueueNotification(ctx, n.client, task, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// EventNotifier publishes an application.submitted event.
type EventNotifier struct {
	publisher events.Publisher
}

func NewEventNotifier(publisher events.Publisher) *EventNotifier {
	return &EventNotifier{publisher: publisher}
}

func (n *EventNotifier) NotifyApplicationSubmitted(ctx context.Context, app *models.Application, job *models.JobPost) error {
	return n.publisher.PublishApplicationSubmitted(ctx, events.ApplicationSubmitted{
		ApplicationID: app.ID,
		JobPostID:     job.ID,
		JobTitle:      job.Title,
		EmployerID:    job.EmployerID,
		CandidateID:   app.CandidateID,
		AnswerCount:   len(app.Answers),
		SubmittedAt:   app.CreatedAt.UTC().Truncate(time.Second),
	})
}
