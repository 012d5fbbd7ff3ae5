package services

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"jobportal/backend/internal/apperrors"
	"jobportal/backend/internal/models"
	"jobportal/backend/internal/repositories"
	"jobportal/backend/internal/telemetry"
)

const maxTitleLength = 100

type JobPostService struct {
	store  *repositories.Store
	schema *SchemaService
	logger *zap.Logger
}

func NewJobPostService(store *repositories.Store, schema *SchemaService, logger *zap.Logger) *JobPostService {
	return &JobPostService{store: store, schema: schema, logger: logger}
}

func (s *JobPostService) Create(ctx context.Context, actor models.Actor, in models.JobPostInput) (*models.JobPost, error) {
	ctx, span := tracer.Start(ctx, "JobPostService.Create")
	defer span.End()

	if !actor.IsEmployer() {
		return nil, apperrors.Forbidden("only employers can post jobs")
	}

	job := &models.JobPost{
		EmployerID:     actor.UserID,
		Title:          strings.TrimSpace(in.Title),
		Description:    strings.TrimSpace(in.Description),
		CategoryID:     in.CategoryID,
		TypeID:         in.TypeID,
		LocationID:     in.LocationID,
		LocationTypeID: optionalID(in.LocationTypeID),
	}
	if in.Status != nil {
		job.Status = *in.Status
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to create job post", err)
	}
	defer tx.Rollback()

	violations, err := validateJobAttributes(ctx, tx.Meta(), job)
	if err != nil {
		return nil, err
	}
	plan, err := s.schema.plan(ctx, tx, 0, in.Fields)
	if err != nil {
		return nil, err
	}
	violations = append(violations, plan.violations...)
	if err := violations.Err("invalid job post"); err != nil {
		return nil, err
	}

	if err := tx.JobPosts().Create(ctx, job); err != nil {
		return nil, apperrors.Internal("failed to create job post", err)
	}
	if _, err := s.schema.apply(ctx, tx, job.ID, plan); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, apperrors.Internal("failed to create job post", err)
	}

	s.logger.Info("job post created", zap.Uint("job_post_id", job.ID), zap.Uint("employer_id", actor.UserID))
	return s.Get(ctx, job.ID)
}

// Update applies a partial update. When upd.Fields is set, the field set is
// reconciled in the same transaction.
func (s *JobPostService) Update(ctx context.Context, actor models.Actor, id uint, upd models.JobPostUpdate) (*models.JobPost, error) {
	ctx, span := tracer.Start(ctx, "JobPostService.Update")
	defer span.End()
	span.SetAttributes(telemetry.ID("job_post.id", id))

	job, err := loadOwnedJob(ctx, s.store.JobPosts(), actor, id, "update job posts")
	if err != nil {
		return nil, err
	}
	mergeJobUpdate(job, upd)

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to update job post", err)
	}
	defer tx.Rollback()

	violations, err := validateJobAttributes(ctx, tx.Meta(), job)
	if err != nil {
		return nil, err
	}
	var plan *fieldPlan
	if upd.Fields != nil {
		if plan, err = s.schema.plan(ctx, tx, job.ID, *upd.Fields); err != nil {
			return nil, err
		}
		violations = append(violations, plan.violations...)
	}
	if err := violations.Err("invalid job post"); err != nil {
		return nil, err
	}

	if err := tx.JobPosts().Update(ctx, job); err != nil {
		return nil, apperrors.Internal("failed to update job post", err)
	}
	if plan != nil {
		if _, err := s.schema.apply(ctx, tx, job.ID, plan); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, apperrors.Internal("failed to update job post", err)
	}
	return s.Get(ctx, job.ID)
}

func (s *JobPostService) UpdateStatus(ctx context.Context, actor models.Actor, id uint, status bool) (*models.JobPost, error) {
	job, err := loadOwnedJob(ctx, s.store.JobPosts(), actor, id, "update job posts")
	if err != nil {
		return nil, err
	}
	if err := s.store.JobPosts().UpdateStatus(ctx, job.ID, status); err != nil {
		return nil, apperrors.Internal("failed to update status", err)
	}
	return s.Get(ctx, job.ID)
}

func (s *JobPostService) Delete(ctx context.Context, actor models.Actor, id uint) error {
	job, err := loadOwnedJob(ctx, s.store.JobPosts(), actor, id, "delete job posts")
	if err != nil {
		return err
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return apperrors.Internal("failed to delete job post", err)
	}
	defer tx.Rollback()

	if err := tx.JobPosts().Delete(ctx, job.ID); err != nil {
		return apperrors.Internal("failed to delete job post", err)
	}
	if err := tx.Commit(); err != nil {
		return apperrors.Internal("failed to delete job post", err)
	}

	s.logger.Info("job post deleted", zap.Uint("job_post_id", job.ID))
	return nil
}

func (s *JobPostService) Get(ctx context.Context, id uint) (*models.JobPost, error) {
	job, err := s.store.JobPosts().FindDetailed(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.NotFound("job post not found", err)
		}
		return nil, apperrors.Internal("failed to load job post", err)
	}
	return job, nil
}

func (s *JobPostService) List(ctx context.Context) ([]models.JobPost, error) {
	jobs, err := s.store.JobPosts().List(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to list job posts", err)
	}
	return jobs, nil
}

func (s *JobPostService) ListMine(ctx context.Context, actor models.Actor) ([]models.JobPost, error) {
	if !actor.IsEmployer() {
		return nil, apperrors.Forbidden("only employers have job posts")
	}
	jobs, err := s.store.JobPosts().ListByEmployer(ctx, actor.UserID)
	if err != nil {
		return nil, apperrors.Internal("failed to list job posts", err)
	}
	return jobs, nil
}

func (s *JobPostService) Search(ctx context.Context, filter models.JobSearchFilter) ([]models.JobPost, error) {
	jobs, err := s.store.JobPosts().Search(ctx, filter)
	if err != nil {
		return nil, apperrors.Internal("failed to search job posts", err)
	}
	return jobs, nil
}

func mergeJobUpdate(job *models.JobPost, upd models.JobPostUpdate) {
	if upd.Title != nil {
		job.Title = strings.TrimSpace(*upd.Title)
	}
	if upd.Description != nil {
		job.Description = strings.TrimSpace(*upd.Description)
	}
	if upd.CategoryID != nil {
		job.CategoryID = *upd.CategoryID
	}
	if upd.TypeID != nil {
		job.TypeID = *upd.TypeID
	}
	if upd.LocationID != nil {
		job.LocationID = *upd.LocationID
	}
	if upd.LocationTypeID != nil {
		job.LocationTypeID = optionalID(upd.LocationTypeID)
	}
	if upd.Status != nil {
		job.Status = *upd.Status
	}
}

type metaRef struct {
	field    string
	kind     models.MetaKind
	id       uint
	optional bool
}

func validateJobAttributes(ctx context.Context, meta repositories.MetaRepository, job *models.JobPost) (apperrors.Violations, error) {
	var v apperrors.Violations

	if job.Title == "" {
		v.Add("title", "is required")
	} else if len(job.Title) > maxTitleLength {
		v.Add("title", "may not be greater than %d characters", maxTitleLength)
	}
	if job.Description == "" {
		v.Add("description", "is required")
	}

	refs := []metaRef{
		{"category_id", models.MetaCategory, job.CategoryID, false},
		{"type_id", models.MetaType, job.TypeID, false},
		{"location_id", models.MetaLocation, job.LocationID, false},
	}
	if job.LocationTypeID != nil {
		refs = append(refs, metaRef{"location_type_id", models.MetaLocationType, *job.LocationTypeID, true})
	}

	for _, ref := range refs {
		if ref.id == 0 {
			if !ref.optional {
				v.Add(ref.field, "is required")
			}
			continue
		}
		ok, err := meta.Exists(ctx, ref.kind, ref.id)
		if err != nil {
			return nil, apperrors.Internal("failed to check references", err)
		}
		if !ok {
			v.Add(ref.field, "the selected value is invalid")
		}
	}
	return v, nil
}

// optionalID treats an explicit zero as "no reference".
func optionalID(id *uint) *uint {
	if id == nil || *id == 0 {
		return nil
	}
	return id
}
