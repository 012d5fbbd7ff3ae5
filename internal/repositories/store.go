package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
	ErrTxDone    = errors.New("transaction already finished")
)

const pgUniqueViolation = "23505"

// IsUniqueViolation reports whether err came from a unique index rejecting a write.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || errors.Is(err, ErrDuplicate) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

// repoSet hands out repositories bound to one gorm handle, either the pool
// or an open transaction.
type repoSet struct {
	db *gorm.DB
}

func (r repoSet) JobPosts() JobPostRepository         { return NewJobPostRepository(r.db) }
func (r repoSet) Fields() FieldRepository             { return NewFieldRepository(r.db) }
func (r repoSet) Applications() ApplicationRepository { return NewApplicationRepository(r.db) }
func (r repoSet) Meta() MetaRepository                { return NewMetaRepository(r.db) }
func (r repoSet) Users() UserRepository               { return NewUserRepository(r.db) }

type Store struct {
	repoSet
}

func NewStore(db *gorm.DB) *Store {
	return &Store{repoSet{db: db}}
}

func (s *Store) DB() *gorm.DB {
	return s.db
}

// Begin opens a transaction scope. Callers defer Rollback, which is a no-op
// once Commit has run.
func (s *Store) Begin(ctx context.Context) (*Tx, error) {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}
	return &Tx{repoSet: repoSet{db: tx}}, nil
}

type Tx struct {
	repoSet
	done bool
}

func (t *Tx) Commit() error {
	if t.done {
		return ErrTxDone
	}
	t.done = true
	if err := t.db.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (t *Tx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	if err := t.db.Rollback().Error; err != nil {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}
	return nil
}
