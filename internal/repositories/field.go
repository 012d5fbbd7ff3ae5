package repositories

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"jobportal/backend/internal/models"
)

type FieldRepository interface {
	ListByJobPost(ctx context.Context, jobPostID uint) ([]models.FieldDefinition, error)
	FindByID(ctx context.Context, id uint) (*models.FieldDefinition, error)
	Create(ctx context.Context, field *models.FieldDefinition) error
	Update(ctx context.Context, field *models.FieldDefinition) error
	DeleteByIDs(ctx context.Context, ids []uint) (int64, error)
}

type fieldRepository struct {
	db *gorm.DB
}

func NewFieldRepository(db *gorm.DB) FieldRepository {
	return &fieldRepository{db: db}
}

func (r *fieldRepository) ListByJobPost(ctx context.Context, jobPostID uint) ([]models.FieldDefinition, error) {
	var fields []models.FieldDefinition
	err := orderedFields(r.db.WithContext(ctx)).
		Where("job_post_id = ?", jobPostID).
		Find(&fields).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list fields: %w", err)
	}
	return fields, nil
}

func (r *fieldRepository) FindByID(ctx context.Context, id uint) (*models.FieldDefinition, error) {
	var field models.FieldDefinition
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&field).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find field: %w", err)
	}
	return &field, nil
}

func (r *fieldRepository) Create(ctx context.Context, field *models.FieldDefinition) error {
	if err := r.db.WithContext(ctx).Create(field).Error; err != nil {
		return fmt.Errorf("failed to create field: %w", err)
	}
	return nil
}

// Update writes every mutable column, including zero values.
func (r *fieldRepository) Update(ctx context.Context, field *models.FieldDefinition) error {
	result := r.db.WithContext(ctx).
		Model(field).
		Select("field_name", "field_description", "field_type", "is_required", "status", "display_order", "options", "updated_at").
		Updates(field)
	if result.Error != nil {
		return fmt.Errorf("failed to update field: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteByIDs removes the fields and the answers recorded against them, and
// returns how many answers were removed.
func (r *fieldRepository) DeleteByIDs(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	db := r.db.WithContext(ctx)

	answers := db.Where("job_application_field_id IN ?", ids).Delete(&models.AnswerRecord{})
	if answers.Error != nil {
		return 0, fmt.Errorf("failed to delete field answers: %w", answers.Error)
	}
	if err := db.Where("id IN ?", ids).Delete(&models.FieldDefinition{}).Error; err != nil {
		return 0, fmt.Errorf("failed to delete fields: %w", err)
	}
	return answers.RowsAffected, nil
}
