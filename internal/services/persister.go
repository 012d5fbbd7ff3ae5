package services

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"jobportal/backend/internal/apperrors"
	"jobportal/backend/internal/models"
	"jobportal/backend/internal/repositories"
)

// AnswerPersister writes a validated submission. Blobs are stored before the
// database transaction opens and are left behind if it fails.
type AnswerPersister struct {
	store  *repositories.Store
	blobs  BlobStore
	logger *zap.Logger
}

func NewAnswerPersister(store *repositories.Store, blobs BlobStore, logger *zap.Logger) *AnswerPersister {
	return &AnswerPersister{store: store, blobs: blobs, logger: logger}
}

func (p *AnswerPersister) Persist(ctx context.Context, sub *ValidatedSubmission) (*models.Application, error) {
	ctx, span := tracer.Start(ctx, "AnswerPersister.Persist")
	defer span.End()

	var stored []string

	resumeRef, err := p.blobs.Store(ctx, sub.Resume, ResumePrefix)
	if err != nil {
		return nil, apperrors.Internal("failed to store resume", err)
	}
	stored = append(stored, resumeRef)

	records := make([]models.AnswerRecord, 0, len(sub.Answers))
	for _, a := range sub.Answers {
		value := a.Value
		if a.File != nil {
			ref, err := p.blobs.Store(ctx, a.File, AnswerFilePrefix)
			if err != nil {
				p.orphaned(stored, err)
				return nil, apperrors.Internal("failed to store uploaded file", err)
			}
			stored = append(stored, ref)
			value = &ref
		}
		records = append(records, models.AnswerRecord{FieldID: a.Field.ID, Value: value})
	}

	app := &models.Application{
		CandidateID: sub.Candidate.UserID,
		JobPostID:   sub.Job.ID,
		FirstName:   sub.Contact.FirstName,
		LastName:    sub.Contact.LastName,
		Email:       sub.Contact.Email,
		Phone:       sub.Contact.Phone,
		CoverLetter: sub.Contact.CoverLetter,
		ResumePath:  resumeRef,
	}

	if err := p.write(ctx, app, records); err != nil {
		p.orphaned(stored, err)
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, apperrors.Conflict("You have already applied to this job.", err)
		}
		return nil, apperrors.Internal("failed to save application", err)
	}

	saved, err := p.store.Applications().FindByID(ctx, app.ID)
	if err != nil {
		return nil, apperrors.Internal("failed to load application", err)
	}
	return saved, nil
}

func (p *AnswerPersister) write(ctx context.Context, app *models.Application, records []models.AnswerRecord) error {
	tx, err := p.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := tx.Applications().Create(ctx, app); err != nil {
		return err
	}
	for i := range records {
		records[i].ApplicationID = app.ID
	}
	if err := tx.Applications().CreateAnswers(ctx, records); err != nil {
		return err
	}
	return tx.Commit()
}

func (p *AnswerPersister) orphaned(refs []string, cause error) {
	if len(refs) == 0 {
		return
	}
	p.logger.Warn("stored files orphaned by failed application write",
		zap.Strings("refs", refs),
		zap.Error(cause))
}
