// Package users stores the profile of signed-in users.
package users

import (
	"context"
	"fmt"
	"strings"

	"jobassist-backend/internal/shared/apperr"
)

type Service struct {
	Repo Repo
}

func NewService(repo Repo) *Service {
	return &Service{Repo: repo}
}

// UpsertFromAuth records the identity returned by the OAuth provider.
func (s *Service) UpsertFromAuth(ctx context.Context, user User) error {
	if s == nil || s.Repo == nil {
		return apperr.ErrStoreUnavailable
	}
	if strings.TrimSpace(user.ID) == "" || strings.TrimSpace(user.Email) == "" {
		return fmt.Errorf("%w: user id and email are required", apperr.ErrInvalidInput)
	}
	return s.Repo.Upsert(ctx, user)
}

func (s *Service) GetByID(ctx context.Context, userID string) (User, error) {
	if strings.TrimSpace(userID) == "" {
		return User{}, apperr.ErrNotAuthenticated
	}
	if s == nil || s.Repo == nil {
		return User{}, apperr.ErrStoreUnavailable
	}
	return s.Repo.GetByID(ctx, userID)
}
