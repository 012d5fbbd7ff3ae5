package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"jobportal/backend/internal/apperrors"
	"jobportal/backend/internal/models"
	"jobportal/backend/internal/repositories"
	"jobportal/backend/internal/telemetry"
)

var tracer = telemetry.GetTracer("jobportal/services")

const maxFieldNameLength = 255

// SchemaService owns the custom application-form fields of job posts.
// Concurrent edits of the same job's field set are last-writer-wins.
type SchemaService struct {
	store  *repositories.Store
	logger *zap.Logger
}

func NewSchemaService(store *repositories.Store, logger *zap.Logger) *SchemaService {
	return &SchemaService{store: store, logger: logger}
}

// ListFields returns every field of the job, disabled ones included, in display order.
func (s *SchemaService) ListFields(ctx context.Context, jobPostID uint) ([]models.FieldDefinition, error) {
	if _, err := findJob(ctx, s.store.JobPosts(), jobPostID); err != nil {
		return nil, err
	}
	fields, err := s.store.Fields().ListByJobPost(ctx, jobPostID)
	if err != nil {
		return nil, apperrors.Internal("failed to load fields", err)
	}
	return fields, nil
}

func (s *SchemaService) GetField(ctx context.Context, fieldID uint) (*models.FieldDefinition, error) {
	field, err := s.store.Fields().FindByID(ctx, fieldID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.NotFound("field not found", err)
		}
		return nil, apperrors.Internal("failed to load field", err)
	}
	return field, nil
}

// ApplyFieldSet replaces the job's field set with desired in one transaction.
func (s *SchemaService) ApplyFieldSet(ctx context.Context, actor models.Actor, jobPostID uint, desired []models.FieldInput) ([]models.FieldDefinition, error) {
	ctx, span := tracer.Start(ctx, "SchemaService.ApplyFieldSet")
	defer span.End()
	span.SetAttributes(telemetry.ID("job_post.id", jobPostID), telemetry.Int("fields.desired", len(desired)))

	job, err := loadOwnedJob(ctx, s.store.JobPosts(), actor, jobPostID, "edit application fields")
	if err != nil {
		return nil, err
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to save fields", err)
	}
	defer tx.Rollback()

	plan, err := s.plan(ctx, tx, job.ID, desired)
	if err != nil {
		return nil, err
	}
	if err := plan.violations.Err("invalid application fields"); err != nil {
		return nil, err
	}

	fields, err := s.apply(ctx, tx, job.ID, plan)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, apperrors.Internal("failed to save fields", err)
	}
	return fields, nil
}

// fieldPlan is a validated reconciliation that has not been written yet.
type fieldPlan struct {
	desired    []models.FieldInput
	existing   []models.FieldDefinition
	violations apperrors.Violations
}

func (s *SchemaService) plan(ctx context.Context, tx *repositories.Tx, jobPostID uint, desired []models.FieldInput) (*fieldPlan, error) {
	var existing []models.FieldDefinition
	if jobPostID != 0 {
		var err error
		existing, err = tx.Fields().ListByJobPost(ctx, jobPostID)
		if err != nil {
			return nil, apperrors.Internal("failed to load fields", err)
		}
	}

	ids := make(map[uint]bool, len(existing))
	for _, f := range existing {
		ids[f.ID] = true
	}
	return &fieldPlan{
		desired:    desired,
		existing:   existing,
		violations: ValidateFieldSet(desired, ids),
	}, nil
}

func (s *SchemaService) apply(ctx context.Context, tx *repositories.Tx, jobPostID uint, plan *fieldPlan) ([]models.FieldDefinition, error) {
	kept := make(map[uint]bool, len(plan.desired))
	for i, in := range plan.desired {
		field := buildField(jobPostID, i, in)
		if in.ID != nil {
			field.ID = *in.ID
			if err := tx.Fields().Update(ctx, &field); err != nil {
				return nil, apperrors.Internal("failed to update field", err)
			}
			kept[field.ID] = true
			continue
		}
		if err := tx.Fields().Create(ctx, &field); err != nil {
			return nil, apperrors.Internal("failed to create field", err)
		}
	}

	var stale []uint
	for _, f := range plan.existing {
		if !kept[f.ID] {
			stale = append(stale, f.ID)
		}
	}
	removed, err := tx.Fields().DeleteByIDs(ctx, stale)
	if err != nil {
		return nil, apperrors.Internal("failed to delete fields", err)
	}
	if len(stale) > 0 {
		s.logger.Warn("deleted application fields",
			zap.Uint("job_post_id", jobPostID),
			zap.Uints("field_ids", stale),
			zap.Int64("answers_removed", removed))
	}

	fields, err := tx.Fields().ListByJobPost(ctx, jobPostID)
	if err != nil {
		return nil, apperrors.Internal("failed to load fields", err)
	}
	return fields, nil
}

func buildField(jobPostID uint, position int, in models.FieldInput) models.FieldDefinition {
	field := models.FieldDefinition{
		JobPostID:   jobPostID,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Type:        in.Type,
		Status:      true,
		Order:       position,
	}
	if in.IsRequired != nil {
		field.IsRequired = *in.IsRequired
	}
	if in.Status != nil {
		field.Status = *in.Status
	}
	if in.Order != nil {
		field.Order = *in.Order
	}
	if in.Type == models.FieldTypeSelect {
		field.Options = models.FieldOptions(in.Options)
	}
	return field
}

// ValidateFieldSet checks a desired field set without touching storage.
// existing holds the ids currently attached to the job post.
func ValidateFieldSet(desired []models.FieldInput, existing map[uint]bool) apperrors.Violations {
	var v apperrors.Violations
	seen := make(map[uint]bool, len(desired))

	for i, in := range desired {
		key := func(attr string) string { return fmt.Sprintf("fields.%d.%s", i, attr) }

		if in.ID != nil {
			switch {
			case !existing[*in.ID]:
				v.Add(key("id"), "field %d does not belong to this job post", *in.ID)
			case seen[*in.ID]:
				v.Add(key("id"), "field %d is listed more than once", *in.ID)
			}
			seen[*in.ID] = true
		}

		name := strings.TrimSpace(in.Name)
		if name == "" {
			v.Add(key("field_name"), "is required")
		} else if len(name) > maxFieldNameLength {
			v.Add(key("field_name"), "may not be greater than %d characters", maxFieldNameLength)
		}

		if !in.Type.Valid() {
			v.Add(key("field_type"), "must be one of: %s", joinFieldTypes())
			continue
		}
		if err := models.CheckOptions(in.Type, in.Options); err != nil {
			v.Add(key("options"), "%s", err.Error())
		}
	}
	return v
}

func joinFieldTypes() string {
	names := make([]string, len(models.FieldTypes))
	for i, t := range models.FieldTypes {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}
