package services

import (
	"context"
	"errors"

	"jobportal/backend/internal/apperrors"
	"jobportal/backend/internal/models"
	"jobportal/backend/internal/repositories"
)

func findJob(ctx context.Context, repo repositories.JobPostRepository, id uint) (*models.JobPost, error) {
	job, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.NotFound("job post not found", err)
		}
		return nil, apperrors.Internal("failed to load job post", err)
	}
	return job, nil
}

// loadOwnedJob checks the role first, then existence, then ownership.
func loadOwnedJob(ctx context.Context, repo repositories.JobPostRepository, actor models.Actor, id uint, action string) (*models.JobPost, error) {
	if !actor.IsEmployer() {
		return nil, apperrors.Forbidden("only employers can " + action)
	}
	job, err := findJob(ctx, repo, id)
	if err != nil {
		return nil, err
	}
	if !job.OwnedBy(actor) {
		return nil, apperrors.Forbidden("you do not own this job post")
	}
	return job, nil
}
