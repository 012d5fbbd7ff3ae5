package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"jobportal/backend/internal/apperrors"
	"jobportal/backend/internal/cache"
	"jobportal/backend/internal/models"
	"jobportal/backend/internal/repositories"
)

var seedMeta = map[models.MetaKind][]string{
	models.MetaCategory: {
		"IT", "Marketing", "Finance", "Human Resources", "Sales", "Customer Service",
		"Engineering", "Design", "Education", "Healthcare", "Legal", "Hospitality",
	},
	models.MetaType: {
		"Full-time", "Part-time", "Contract", "Internship", "Freelance", "Temporary", "Volunteer",
	},
	models.MetaLocation: {
		"Jakarta", "Bandung", "Surabaya", "Singapore", "Berlin", "London", "New York",
	},
	models.MetaLocationType: {
		"Remote", "On-site", "Hybrid",
	},
}

// MetaService manages the lookup lists jobs are classified by. Lists are
// read through the cache and every write invalidates its kind.
type MetaService struct {
	store  *repositories.Store
	cache  cache.Cache
	ttl    time.Duration
	logger *zap.Logger
}

func NewMetaService(store *repositories.Store, c cache.Cache, ttl time.Duration, logger *zap.Logger) *MetaService {
	return &MetaService{store: store, cache: c, ttl: ttl, logger: logger}
}

func metaCacheKey(kind models.MetaKind) string {
	return "meta:" + string(kind)
}

func parseKind(raw string) (models.MetaKind, error) {
	kind := models.MetaKind(raw)
	if !kind.Valid() {
		return "", apperrors.NotFound("unknown lookup list "+raw, nil)
	}
	return kind, nil
}

func (s *MetaService) List(ctx context.Context, rawKind string) ([]models.MetaItem, error) {
	kind, err := parseKind(rawKind)
	if err != nil {
		return nil, err
	}

	key := metaCacheKey(kind)
	if data, err := s.cache.Get(ctx, key); err == nil {
		var items []models.MetaItem
		if err := json.Unmarshal(data, &items); err == nil {
			return items, nil
		}
		s.logger.Warn("discarding unreadable cache entry", zap.String("key", key))
	} else if !errors.Is(err, cache.ErrNotFound) {
		s.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
	}

	items, err := s.store.Meta().List(ctx, kind)
	if err != nil {
		return nil, apperrors.Internal("failed to list "+string(kind), err)
	}
	if items == nil {
		items = []models.MetaItem{}
	}

	if data, err := json.Marshal(items); err == nil {
		if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
			s.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return items, nil
}

func (s *MetaService) Create(ctx context.Context, actor models.Actor, rawKind, name string) (*models.MetaItem, error) {
	if actor.UserID == 0 {
		return nil, apperrors.Unauthorized("authentication required")
	}
	kind, err := parseKind(rawKind)
	if err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	var violations apperrors.Violations
	switch {
	case name == "":
		violations.Add("name", "name is required")
	case utf8.RuneCountInString(name) > 100:
		violations.Add("name", "name must not exceed 100 characters")
	default:
		taken, err := s.store.Meta().NameTaken(ctx, kind, name)
		if err != nil {
			return nil, apperrors.Internal("failed to check name", err)
		}
		if taken {
			violations.Add("name", "name has already been taken")
		}
	}
	if err := violations.Err("invalid " + string(kind) + " entry"); err != nil {
		return nil, err
	}

	item := &models.MetaItem{Name: name}
	if err := s.store.Meta().Create(ctx, kind, item); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			var v apperrors.Violations
			v.Add("name", "name has already been taken")
			return nil, v.Err("invalid " + string(kind) + " entry")
		}
		return nil, apperrors.Internal("failed to create "+string(kind)+" entry", err)
	}
	s.invalidate(ctx, kind)
	return item, nil
}

// Delete refuses entries still referenced by a job post.
func (s *MetaService) Delete(ctx context.Context, actor models.Actor, rawKind string, id uint) error {
	if actor.UserID == 0 {
		return apperrors.Unauthorized("authentication required")
	}
	kind, err := parseKind(rawKind)
	if err != nil {
		return err
	}

	exists, err := s.store.Meta().Exists(ctx, kind, id)
	if err != nil {
		return apperrors.Internal("failed to load entry", err)
	}
	if !exists {
		return apperrors.NotFound(string(kind)+" entry not found", nil)
	}

	refs, err := s.store.Meta().CountJobReferences(ctx, kind, id)
	if err != nil {
		return apperrors.Internal("failed to check references", err)
	}
	if refs > 0 {
		return apperrors.Conflict("entry is still used by job posts", nil)
	}

	if err := s.store.Meta().Delete(ctx, kind, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperrors.NotFound(string(kind)+" entry not found", err)
		}
		return apperrors.Internal("failed to delete entry", err)
	}
	s.invalidate(ctx, kind)
	return nil
}

// Seed inserts the default lookup values. Existing names are kept.
func (s *MetaService) Seed(ctx context.Context) (int, error) {
	created := 0
	for _, kind := range models.MetaKinds {
		for _, name := range seedMeta[kind] {
			taken, err := s.store.Meta().NameTaken(ctx, kind, name)
			if err != nil {
				return created, err
			}
			if taken {
				continue
			}
			if _, err := s.store.Meta().FirstOrCreate(ctx, kind, name); err != nil {
				return created, err
			}
			created++
		}
		s.invalidate(ctx, kind)
	}
	s.logger.Info("lookup lists seeded", zap.Int("created", created))
	return created, nil
}

func (s *MetaService) invalidate(ctx context.Context, kind models.MetaKind) {
	if err := s.cache.Delete(ctx, metaCacheKey(kind)); err != nil && !errors.Is(err, cache.ErrNotFound) {
		s.logger.Warn("cache invalidation failed", zap.String("kind", string(kind)), zap.Error(err))
	}
}
