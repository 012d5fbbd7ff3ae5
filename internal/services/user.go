package services

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"jobportal/backend/internal/apperrors"
	"jobportal/backend/internal/models"
	"jobportal/backend/internal/repositories"
)

type NewUser struct {
	Name        string  `validate:"required,max=100"`
	Email       string  `validate:"required,email,max=255"`
	Role        string  `validate:"required,oneof=employer candidate"`
	CompanyName *string `validate:"omitempty,max=255"`
}

type UserService struct {
	store    *repositories.Store
	validate *validator.Validate
}

func NewUserService(store *repositories.Store) *UserService {
	return &UserService{store: store, validate: validator.New()}
}

// Register creates a user. Only employers carry a company name.
func (s *UserService) Register(ctx context.Context, in NewUser) (*models.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Role = strings.ToLower(strings.TrimSpace(in.Role))

	if err := s.validate.Struct(in); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return nil, apperrors.Internal("failed to validate user", err)
		}
		var v apperrors.Violations
		for _, fe := range fieldErrs {
			v.Add(strings.ToLower(fe.Field()), "failed the %q check", fe.Tag())
		}
		return nil, v.Err("invalid user")
	}

	user := &models.User{Name: in.Name, Email: in.Email, Role: models.Role(in.Role)}
	if user.Role == models.RoleEmployer {
		user.CompanyName = in.CompanyName
	}
	if err := s.store.Users().Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, apperrors.Conflict("a user with this email already exists", err)
		}
		return nil, apperrors.Internal("failed to create user", err)
	}
	return user, nil
}
