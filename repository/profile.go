package repository

import (
	"context"
	"fmt"

	"storefront-core/dtos"
	"storefront-core/models"
	"storefront-core/postgrest"
)

type ProfileRepository struct {
	store    Store
	sessions Sessions
}

func NewProfileRepository(store Store, sessions Sessions) *ProfileRepository {
	return &ProfileRepository{store: store, sessions: sessions}
}

// Get returns the signed-in user's profile, or ErrNotFound.
func (r *ProfileRepository) Get(ctx context.Context) (models.Profile, error) {
	userID, err := r.sessions.UserID()
	if err != nil {
		return models.Profile{}, err
	}

	var profiles []models.Profile
	q := postgrest.Query{Limit: 1}.Where(postgrest.Eq("id", userID))
	if err := r.store.Select(ctx, tableProfiles, q, &profiles); err != nil {
		return models.Profile{}, fmt.Errorf("fetch profile: %w", err)
	}
	if len(profiles) == 0 {
		return models.Profile{}, ErrNotFound
	}
	return profiles[0], nil
}

// Update applies the non-nil fields of patch.
func (r *ProfileRepository) Update(ctx context.Context, patch dtos.ProfilePatch) error {
	userID, err := r.sessions.UserID()
	if err != nil {
		return err
	}
	if err := dtos.Validate(patch); err != nil {
		return fmt.Errorf("update profile: %w", err)
	}

	q := postgrest.Query{}.Where(postgrest.Eq("id", userID))
	if err := r.store.Update(ctx, tableProfiles, q, patch); err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}
