package repositories

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"jobportal/backend/internal/models"
)

type MetaRepository interface {
	List(ctx context.Context, kind models.MetaKind) ([]models.MetaItem, error)
	Exists(ctx context.Context, kind models.MetaKind, id uint) (bool, error)
	NameTaken(ctx context.Context, kind models.MetaKind, name string) (bool, error)
	Create(ctx context.Context, kind models.MetaKind, item *models.MetaItem) error
	FirstOrCreate(ctx context.Context, kind models.MetaKind, name string) (*models.MetaItem, error)
	Delete(ctx context.Context, kind models.MetaKind, id uint) error
	CountJobReferences(ctx context.Context, kind models.MetaKind, id uint) (int64, error)
}

type metaRepository struct {
	db *gorm.DB
}

func NewMetaRepository(db *gorm.DB) MetaRepository {
	return &metaRepository{db: db}
}

func (r *metaRepository) table(ctx context.Context, kind models.MetaKind) *gorm.DB {
	return r.db.WithContext(ctx).Table(kind.Table())
}

func (r *metaRepository) List(ctx context.Context, kind models.MetaKind) ([]models.MetaItem, error) {
	var items []models.MetaItem
	if err := r.table(ctx, kind).Order("name ASC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", kind, err)
	}
	return items, nil
}

func (r *metaRepository) Exists(ctx context.Context, kind models.MetaKind, id uint) (bool, error) {
	var count int64
	if err := r.table(ctx, kind).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check %s: %w", kind, err)
	}
	return count > 0, nil
}

func (r *metaRepository) NameTaken(ctx context.Context, kind models.MetaKind, name string) (bool, error) {
	var count int64
	if err := r.table(ctx, kind).Where("name = ?", name).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check %s name: %w", kind, err)
	}
	return count > 0, nil
}

func (r *metaRepository) Create(ctx context.Context, kind models.MetaKind, item *models.MetaItem) error {
	if err := r.table(ctx, kind).Create(item).Error; err != nil {
		if IsUniqueViolation(err) {
			return fmt.Errorf("%w: %v", ErrDuplicate, err)
		}
		return fmt.Errorf("failed to create %s: %w", kind, err)
	}
	return nil
}

func (r *metaRepository) FirstOrCreate(ctx context.Context, kind models.MetaKind, name string) (*models.MetaItem, error) {
	var item models.MetaItem
	err := r.table(ctx, kind).Where("name = ?", name).First(&item).Error
	if err == nil {
		return &item, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to find %s: %w", kind, err)
	}
	item = models.MetaItem{Name: name}
	if err := r.Create(ctx, kind, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *metaRepository) Delete(ctx context.Context, kind models.MetaKind, id uint) error {
	result := r.table(ctx, kind).Where("id = ?", id).Delete(&models.MetaItem{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete %s: %w", kind, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *metaRepository) CountJobReferences(ctx context.Context, kind models.MetaKind, id uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.JobPost{}).
		Where(kind.JobColumn()+" = ?", id).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count job references: %w", err)
	}
	return count, nil
}
