// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/templates/account-api/internal/auth"
	"github.com/carterperez-dev/templates/account-api/internal/core"
)

var _ auth.UserProvider = (*Service)(nil)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetByID(
	ctx context.Context,
	id string,
) (*auth.UserInfo, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return user.toInfo(), nil
}

func (s *Service) GetByEmail(
	ctx context.Context,
	email string,
) (*auth.UserInfo, error) {
	user, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}

	return user.toInfo(), nil
}

func (s *Service) Create(
	ctx context.Context,
	account auth.NewAccount,
) (*auth.UserInfo, error) {
	role := account.Role
	if role == "" {
		role = RoleUser
	}

	user := &User{
		ID:           uuid.New().String(),
		FirstName:    account.FirstName,
		LastName:     account.LastName,
		Email:        normalizeEmail(account.Email),
		Phone:        account.Phone,
		PasswordHash: account.PasswordHash,
		Role:         role,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	return user.toInfo(), nil
}

func (s *Service) UpdatePassword(
	ctx context.Context,
	userID, passwordHash string,
) error {
	return s.repo.UpdatePassword(ctx, userID, passwordHash)
}

// FindAll returns every live user, oldest first. The result is never nil.
func (s *Service) FindAll(ctx context.Context) ([]User, error) {
	ctx, span := core.StartSpan(ctx, "user.FindAll")
	defer span.End()

	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	if users == nil {
		users = []User{}
	}

	span.SetAttributes(attribute.Int("user.count", len(users)))

	return users, nil
}

// FindOne returns nil without an error when no live user has this id.
// Ids that are not UUIDs can never match and are not sent to the store.
func (s *Service) FindOne(ctx context.Context, id string) (*User, error) {
	ctx, span := core.StartSpan(ctx, "user.FindOne")
	defer span.End()

	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return user, nil
}

// Update applies req to the user's own record. Role and id never change
// here. Setting a new password requires the current one.
func (s *Service) Update(
	ctx context.Context,
	id string,
	req UpdateUserRequest,
) (*User, error) {
	ctx, span := core.StartSpan(ctx, "user.Update",
		attribute.String("user.id", id),
	)
	defer span.End()

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, auth.ErrUserNotFound
		}
		return nil, err
	}

	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}

	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		if email != user.Email {
			if err := s.ensureEmailFree(ctx, email, user.ID); err != nil {
				return nil, err
			}
			user.Email = email
		}
	}

	if req.NewPassword != nil || req.OldPassword != nil {
		if err := s.applyPasswordChange(user, req); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Update(ctx, user); err != nil {
		switch {
		case errors.Is(err, core.ErrDuplicateKey):
			return nil, auth.ErrAccountExists
		case errors.Is(err, core.ErrNotFound):
			return nil, auth.ErrUserNotFound
		}
		return nil, err
	}

	return user, nil
}

// Remove soft deletes the user. Removing an absent id is not an error.
func (s *Service) Remove(ctx context.Context, id string) error {
	ctx, span := core.StartSpan(ctx, "user.Remove",
		attribute.String("user.id", id),
	)
	defer span.End()

	deleted, err := s.repo.SoftDelete(ctx, id)
	if err != nil {
		return err
	}

	span.SetAttributes(attribute.Bool("user.deleted", deleted))

	return nil
}

func (s *Service) CountByRole(ctx context.Context) ([]CountByRole, error) {
	return s.repo.CountByRole(ctx)
}

func (s *Service) ensureEmailFree(
	ctx context.Context,
	email, ownerID string,
) error {
	existing, err := s.repo.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, core.ErrNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("check email: %w", err)
	case existing.ID != ownerID:
		return auth.ErrAccountExists
	}
	return nil
}

func (s *Service) applyPasswordChange(user *User, req UpdateUserRequest) error {
	if req.NewPassword == nil || req.OldPassword == nil {
		return auth.ErrInvalidCredentials
	}

	valid, err := core.VerifyPassword(*req.OldPassword, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("verify password: %w", err)
	}
	if !valid {
		return auth.ErrInvalidCredentials
	}

	hash, err := core.HashPassword(*req.NewPassword)
	if err != nil {
		return err
	}

	user.PasswordHash = hash
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
