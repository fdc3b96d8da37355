package user

import "context"

// Service định nghĩa business logic layer contract
type Service interface {
	// Authentication
	Login(ctx context.Context, identity Identity) (*User, error)

	// Profile & preferences
	GetProfile(ctx context.Context, userID string) (*User, error)
	UpdatePreferences(ctx context.Context, userID string, update PreferencesUpdate) (*User, error)
	UpdateGenres(ctx context.Context, userID string, genres []string) (*User, error)
}
