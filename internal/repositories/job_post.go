package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"jobportal/backend/internal/models"
)

type JobPostRepository interface {
	Create(ctx context.Context, job *models.JobPost) error
	FindByID(ctx context.Context, id uint) (*models.JobPost, error)
	FindDetailed(ctx context.Context, id uint) (*models.JobPost, error)
	Update(ctx context.Context, job *models.JobPost) error
	UpdateStatus(ctx context.Context, id uint, status bool) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context) ([]models.JobPost, error)
	ListByEmployer(ctx context.Context, employerID uint) ([]models.JobPost, error)
	Search(ctx context.Context, filter models.JobSearchFilter) ([]models.JobPost, error)
}

type jobPostRepository struct {
	db *gorm.DB
}

func NewJobPostRepository(db *gorm.DB) JobPostRepository {
	return &jobPostRepository{db: db}
}

func orderedFields(db *gorm.DB) *gorm.DB {
	return db.Order("display_order ASC, id ASC")
}

func withMeta(db *gorm.DB) *gorm.DB {
	return db.Preload("Category").Preload("Type").Preload("Location").Preload("LocationType")
}

func (r *jobPostRepository) Create(ctx context.Context, job *models.JobPost) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(job).Error; err != nil {
		return fmt.Errorf("failed to create job post: %w", err)
	}
	return nil
}

func (r *jobPostRepository) FindByID(ctx context.Context, id uint) (*models.JobPost, error) {
	var job models.JobPost
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find job post: %w", err)
	}
	return &job, nil
}

func (r *jobPostRepository) FindDetailed(ctx context.Context, id uint) (*models.JobPost, error) {
	var job models.JobPost
	err := withMeta(r.db.WithContext(ctx)).
		Preload("Employer").
		Preload("Fields", orderedFields).
		Where("id = ?", id).
		First(&job).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find job post: %w", err)
	}
	return &job, nil
}

func (r *jobPostRepository) Update(ctx context.Context, job *models.JobPost) error {
	result := r.db.WithContext(ctx).
		Model(job).
		Select("title", "description", "category_id", "type_id", "location_id", "location_type_id", "status", "updated_at").
		Omit(clause.Associations).
		Updates(job)
	if result.Error != nil {
		return fmt.Errorf("failed to update job post: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *jobPostRepository) UpdateStatus(ctx context.Context, id uint, status bool) error {
	result := r.db.WithContext(ctx).
		Model(&models.JobPost{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("failed to update status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the job post together with its applications, answers and
// fields. Run it inside a transaction.
func (r *jobPostRepository) Delete(ctx context.Context, id uint) error {
	db := r.db.WithContext(ctx)

	appIDs := db.Model(&models.Application{}).Select("id").Where("job_post_id = ?", id)
	if err := db.Where("application_id IN (?)", appIDs).Delete(&models.AnswerRecord{}).Error; err != nil {
		return fmt.Errorf("failed to delete answers: %w", err)
	}
	if err := db.Where("job_post_id = ?", id).Delete(&models.Application{}).Error; err != nil {
		return fmt.Errorf("failed to delete applications: %w", err)
	}
	if err := db.Where("job_post_id = ?", id).Delete(&models.FieldDefinition{}).Error; err != nil {
		return fmt.Errorf("failed to delete fields: %w", err)
	}

	result := db.Delete(&models.JobPost{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete job post: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *jobPostRepository) List(ctx context.Context) ([]models.JobPost, error) {
	var jobs []models.JobPost
	err := withMeta(r.db.WithContext(ctx)).
		Preload("Employer").
		Order("created_at DESC, id DESC").
		Find(&jobs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list job posts: %w", err)
	}
	return jobs, nil
}

func (r *jobPostRepository) ListByEmployer(ctx context.Context, employerID uint) ([]models.JobPost, error) {
	var jobs []models.JobPost
	err := withMeta(r.db.WithContext(ctx)).
		Preload("Fields", orderedFields).
		Where("employer_id = ?", employerID).
		Order("created_at DESC, id DESC").
		Find(&jobs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list employer job posts: %w", err)
	}
	return jobs, nil
}

func (r *jobPostRepository) Search(ctx context.Context, filter models.JobSearchFilter) ([]models.JobPost, error) {
	query := withMeta(r.db.WithContext(ctx)).
		Preload("Employer").
		Where("status = ?", true)

	if kw := strings.TrimSpace(filter.Keyword); kw != "" {
		like := "%" + strings.ToLower(kw) + "%"
		query = query.Where("(LOWER(title) LIKE ? OR LOWER(description) LIKE ?)", like, like)
	}
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.TypeID != nil {
		query = query.Where("type_id = ?", *filter.TypeID)
	}
	if filter.LocationID != nil {
		query = query.Where("location_id = ?", *filter.LocationID)
	}
	if filter.LocationTypeID != nil {
		query = query.Where("location_type_id = ?", *filter.LocationTypeID)
	}

	var jobs []models.JobPost
	if err := query.Order("created_at DESC, id DESC").Find(&jobs).Error; err != nil {
		return nil, fmt.Errorf("failed to search job posts: %w", err)
	}
	return jobs, nil
}
