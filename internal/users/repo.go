package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"jobassist-backend/internal/shared/apperr"
	"jobassist-backend/internal/shared/storage/docstore"
)

var ErrNotFound = fmt.Errorf("%w: user not found", apperr.ErrNotFound)

type Repo interface {
	Upsert(ctx context.Context, user User) error
	GetByID(ctx context.Context, userID string) (User, error)
}

const usersCollection = "users"

// DocRepo keeps profile fields on users/{uid}, next to the résumé, plan
// and generated documents that other packages write there.
type DocRepo struct {
	Store docstore.Store
	now   func() time.Time
}

func NewDocRepo(store docstore.Store) *DocRepo {
	return &DocRepo{Store: store, now: time.Now}
}

func (r *DocRepo) Upsert(ctx context.Context, user User) error {
	now := r.now().UTC()
	fields := map[string]any{
		"email":       user.Email,
		"full_name":   user.FullName,
		"given_name":  user.GivenName,
		"family_name": user.FamilyName,
		"picture_url": user.PictureURL,
		"updated_at":  now.Format(time.RFC3339),
	}
	existing, err := r.Store.Get(ctx, usersCollection, user.ID)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		fields["created_at"] = now.Format(time.RFC3339)
	case err != nil:
		return fmt.Errorf("%w: %w", apperr.ErrStoreUnavailable, err)
	case docstore.String(existing["created_at"]) == "":
		fields["created_at"] = now.Format(time.RFC3339)
	}
	if err := r.Store.MergeSet(ctx, usersCollection, user.ID, fields); err != nil {
		return fmt.Errorf("%w: %w", apperr.ErrStoreUnavailable, err)
	}
	return nil
}

// GetByID returns ErrNotFound when the user document has no profile, even
// if other features already wrote to it.
func (r *DocRepo) GetByID(ctx context.Context, userID string) (User, error) {
	doc, err := r.Store.Get(ctx, usersCollection, userID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("%w: %w", apperr.ErrStoreUnavailable, err)
	}
	if docstore.String(doc["created_at"]) == "" {
		return User{}, ErrNotFound
	}
	user := User{
		ID:         userID,
		Email:      docstore.String(doc["email"]),
		FullName:   docstore.String(doc["full_name"]),
		GivenName:  docstore.String(doc["given_name"]),
		FamilyName: docstore.String(doc["family_name"]),
		PictureURL: docstore.String(doc["picture_url"]),
	}
	user.CreatedAt, _ = time.Parse(time.RFC3339, docstore.String(doc["created_at"]))
	user.UpdatedAt, _ = time.Parse(time.RFC3339, docstore.String(doc["updated_at"]))
	return user, nil
}
