package services

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"jobportal/backend/internal/apperrors"
	"jobportal/backend/internal/models"
	"jobportal/backend/internal/repositories"
	"jobportal/backend/internal/telemetry"
)

type ApplicationService struct {
	store     *repositories.Store
	validator *ApplicationValidator
	persister *AnswerPersister
	notifier  Notifier
	blobs     BlobStore
	logger    *zap.Logger
}

func NewApplicationService(
	store *repositories.Store,
	validator *ApplicationValidator,
	persister *AnswerPersister,
	notifier Notifier,
	blobs BlobStore,
	logger *zap.Logger,
) *ApplicationService {
	return &ApplicationService{
		store:     store,
		validator: validator,
		persister: persister,
		notifier:  notifier,
		blobs:     blobs,
		logger:    logger,
	}
}

func (s *ApplicationService) Apply(ctx context.Context, actor models.Actor, sub models.Submission) (*models.Application, error) {
	ctx, span := tracer.Start(ctx, "ApplicationService.Apply")
	defer span.End()
	span.SetAttributes(telemetry.ID("job_post.id", sub.JobPostID), telemetry.Int("answers", len(sub.Answers)))

	validated, err := s.validator.Validate(ctx, actor, sub)
	if err != nil {
		return nil, err
	}

	app, err := s.persister.Persist(ctx, validated)
	if err != nil {
		return nil, err
	}

	if err := s.notifier.NotifyApplicationSubmitted(ctx, app, validated.Job); err != nil {
		s.logger.Warn("application notification failed",
			zap.Uint("application_id", app.ID),
			zap.Error(err))
	}

	s.logger.Info("application received",
		zap.Uint("application_id", app.ID),
		zap.Uint("job_post_id", validated.Job.ID),
		zap.Int("answers", len(app.Answers)))

	s.resolveFiles(ctx, app)
	return app, nil
}

// Get is allowed for the applicant and for the employer who owns the job.
func (s *ApplicationService) Get(ctx context.Context, actor models.Actor, id uint) (*models.Application, error) {
	app, err := s.store.Applications().FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.NotFound("application not found", err)
		}
		return nil, apperrors.Internal("failed to load application", err)
	}

	switch {
	case actor.IsCandidate() && app.CandidateID == actor.UserID:
	case app.JobPost != nil && app.JobPost.OwnedBy(actor):
	default:
		return nil, apperrors.Forbidden("you cannot view this application")
	}

	s.resolveFiles(ctx, app)
	return app, nil
}

func (s *ApplicationService) ListByJob(ctx context.Context, actor models.Actor, jobPostID uint) ([]models.Application, error) {
	job, err := loadOwnedJob(ctx, s.store.JobPosts(), actor, jobPostID, "view applications")
	if err != nil {
		return nil, err
	}
	apps, err := s.store.Applications().ListByJobPost(ctx, job.ID)
	if err != nil {
		return nil, apperrors.Internal("failed to list applications", err)
	}
	for i := range apps {
		s.resolveFiles(ctx, &apps[i])
	}
	return apps, nil
}

func (s *ApplicationService) ListMine(ctx context.Context, actor models.Actor) ([]models.Application, error) {
	if !actor.IsCandidate() {
		return nil, apperrors.Forbidden("only candidates have applications")
	}
	apps, err := s.store.Applications().ListByCandidate(ctx, actor.UserID)
	if err != nil {
		return nil, apperrors.Internal("failed to list applications", err)
	}
	for i := range apps {
		s.resolveFiles(ctx, &apps[i])
	}
	return apps, nil
}

func (s *ApplicationService) resolveFiles(ctx context.Context, app *models.Application) {
	if url, err := s.blobs.Resolve(ctx, app.ResumePath); err == nil {
		app.ResumeURL = url
	} else {
		s.logger.Warn("failed to resolve resume", zap.Uint("application_id", app.ID), zap.Error(err))
	}

	for i := range app.Answers {
		a := &app.Answers[i]
		if a.Field == nil || a.Field.Type != models.FieldTypeFile || a.Value == nil {
			continue
		}
		if url, err := s.blobs.Resolve(ctx, *a.Value); err == nil {
			a.FileURL = url
		}
	}
}
