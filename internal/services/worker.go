package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"jobportal/backend/internal/mailer"
	"jobportal/backend/internal/models"
	"jobportal/backend/internal/queue"
	"jobportal/backend/internal/repositories"
)

// NotificationWorker turns notification tasks into emails.
type NotificationWorker struct {
	store  *repositories.Store
	mailer mailer.Mailer
	logger *zap.Logger
}

func NewNotificationWorker(store *repositories.Store, m mailer.Mailer, logger *zap.Logger) *NotificationWorker {
	return &NotificationWorker{store: store, mailer: m, logger: logger}
}

func (w *NotificationWorker) Handler() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.NotifyCandidateTask, w.HandleNotifyCandidate)
	mux.HandleFunc(queue.NotifyEmployerTask, w.HandleNotifyEmployer)
	return mux
}

func (w *NotificationWorker) HandleNotifyCandidate(ctx context.Context, t *asynq.Task) error {
	app, err := w.load(ctx, t)
	if err != nil {
		return err
	}
	msg := candidateMessage(app)
	if err := w.mailer.Send(ctx, msg); err != nil {
		return err
	}
	w.logger.Info("candidate notified", zap.Uint("application_id", app.ID), zap.String("to", msg.To))
	return nil
}

func (w *NotificationWorker) HandleNotifyEmployer(ctx context.Context, t *asynq.Task) error {
	app, err := w.load(ctx, t)
	if err != nil {
		return err
	}
	employer, err := w.store.Users().FindByID(ctx, app.JobPost.EmployerID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("employer %d: %w", app.JobPost.EmployerID, asynq.SkipRetry)
		}
		return err
	}
	msg := employerMessage(app, employer)
	if err := w.mailer.Send(ctx, msg); err != nil {
		return err
	}
	w.logger.Info("employer notified", zap.Uint("application_id", app.ID), zap.String("to", msg.To))
	return nil
}

func (w *NotificationWorker) load(ctx context.Context, t *asynq.Task) (*models.Application, error) {
	payload, err := queue.DecodeNotification(t)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	app, err := w.store.Applications().FindByID(ctx, payload.ApplicationID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("application %d: %w", payload.ApplicationID, asynq.SkipRetry)
		}
		return nil, err
	}
	if app.JobPost == nil {
		return nil, fmt.Errorf("application %d has no job post: %w", app.ID, asynq.SkipRetry)
	}
	return app, nil
}

func candidateMessage(app *models.Application) mailer.Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", app.FirstName)
	fmt.Fprintf(&b, "Thank you for applying for %q. ", app.JobPost.Title)
	b.WriteString("The employer has received your application and will be in touch.\n")
	return mailer.Message{
		To:      app.Email,
		Subject: "Your application was received",
		Body:    b.String(),
	}
}

func employerMessage(app *models.Application, employer *models.User) mailer.Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", employer.Name)
	fmt.Fprintf(&b, "%s %s applied for %q.\n", app.FirstName, app.LastName, app.JobPost.Title)
	fmt.Fprintf(&b, "Email: %s\nPhone: %s\n", app.Email, app.Phone)
	if n := len(app.Answers); n > 0 {
		fmt.Fprintf(&b, "Answered questions: %d\n", n)
	}
	return mailer.Message{
		To:      employer.Email,
		Subject: "New Job Application Received",
		Body:    b.String(),
	}
}

// LocalQueue runs notification tasks on an in-process worker pool. It stands
// in for Redis when no queue is configured, and tasks are lost on exit.
type LocalQueue struct {
	handler     asynq.Handler
	tasks       chan *asynq.Task
	concurrency int
	logger      *zap.Logger
	wg          sync.WaitGroup
	stopChan    chan struct{}
	stopOnce    sync.Once
}

func NewLocalQueue(handler asynq.Handler, concurrency int, logger *zap.Logger) *LocalQueue {
	if concurrency < 1 {
		concurrency = 1
	}
	return &LocalQueue{
		handler:     handler,
		tasks:       make(chan *asynq.Task, 100),
		concurrency: concurrency,
		logger:      logger,
		stopChan:    make(chan struct{}),
	}
}

func (q *LocalQueue) Start(ctx context.Context) {
	for i := 0; i < q.concurrency; i++ {
		q.wg.Add(1)
		go q.process(ctx, i+1)
	}
	q.logger.Info("local notification queue started", zap.Int("workers", q.concurrency))
}

// Stop waits for running tasks. Tasks still buffered are dropped.
func (q *LocalQueue) Stop() {
	q.stopOnce.Do(func() { close(q.stopChan) })
	q.wg.Wait()
	q.logger.Info("local notification queue stopped")
}

// EnqueueContext satisfies queue.Enqueuer. Options are ignored.
func (q *LocalQueue) EnqueueContext(ctx context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	select {
	case <-q.stopChan:
		return nil, errors.New("local queue stopped")
	default:
	}
	select {
	case q.tasks <- task:
		return &asynq.TaskInfo{Queue: "local", Type: task.Type(), Payload: task.Payload()}, nil
	case <-q.stopChan:
		return nil, errors.New("local queue stopped")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (q *LocalQueue) process(ctx context.Context, workerID int) {
	defer q.wg.Done()
	for {
		select {
		case <-q.stopChan:
			return
		case <-ctx.Done():
			return
		case task := <-q.tasks:
			if err := q.handler.ProcessTask(ctx, task); err != nil {
				q.logger.Warn("notification task failed",
					zap.Int("worker", workerID),
					zap.String("type", task.Type()),
					zap.Error(err))
			}
		}
	}
}
