package repositories

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"jobportal/backend/internal/models"
)

type ApplicationRepository interface {
	Exists(ctx context.Context, candidateID, jobPostID uint) (bool, error)
	Create(ctx context.Context, app *models.Application) error
	CreateAnswers(ctx context.Context, answers []models.AnswerRecord) error
	FindByID(ctx context.Context, id uint) (*models.Application, error)
	ListByJobPost(ctx context.Context, jobPostID uint) ([]models.Application, error)
	ListByCandidate(ctx context.Context, candidateID uint) ([]models.Application, error)
}

type applicationRepository struct {
	db *gorm.DB
}

func NewApplicationRepository(db *gorm.DB) ApplicationRepository {
	return &applicationRepository{db: db}
}

func answersWithFields(db *gorm.DB) *gorm.DB {
	return db.Preload("Answers", func(db *gorm.DB) *gorm.DB {
		return db.Order("id ASC")
	}).Preload("Answers.Field")
}

func (r *applicationRepository) Exists(ctx context.Context, candidateID, jobPostID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Application{}).
		Where("candidate_id = ? AND job_post_id = ?", candidateID, jobPostID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check existing application: %w", err)
	}
	return count > 0, nil
}

// Create inserts the application row only. A unique index violation on
// (candidate_id, job_post_id) is reported as ErrDuplicate.
func (r *applicationRepository) Create(ctx context.Context, app *models.Application) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(app).Error; err != nil {
		if IsUniqueViolation(err) {
			return fmt.Errorf("%w: %v", ErrDuplicate, err)
		}
		return fmt.Errorf("failed to create application: %w", err)
	}
	return nil
}

func (r *applicationRepository) CreateAnswers(ctx context.Context, answers []models.AnswerRecord) error {
	if len(answers) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(&answers).Error; err != nil {
		return fmt.Errorf("failed to create answers: %w", err)
	}
	return nil
}

func (r *applicationRepository) FindByID(ctx context.Context, id uint) (*models.Application, error) {
	var app models.Application
	err := answersWithFields(r.db.WithContext(ctx)).
		Preload("Candidate").
		Preload("JobPost").
		Where("id = ?", id).
		First(&app).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find application: %w", err)
	}
	return &app, nil
}

func (r *applicationRepository) ListByJobPost(ctx context.Context, jobPostID uint) ([]models.Application, error) {
	var apps []models.Application
	err := answersWithFields(r.db.WithContext(ctx)).
		Preload("Candidate").
		Where("job_post_id = ?", jobPostID).
		Order("created_at DESC, id DESC").
		Find(&apps).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	return apps, nil
}

func (r *applicationRepository) ListByCandidate(ctx context.Context, candidateID uint) ([]models.Application, error) {
	var apps []models.Application
	err := r.db.WithContext(ctx).
		Preload("JobPost").
		Preload("JobPost.Category").
		Preload("JobPost.Location").
		Where("candidate_id = ?", candidateID).
		Order("created_at DESC, id DESC").
		Find(&apps).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list candidate applications: %w", err)
	}
	return apps, nil
}
