package user

import "context"

// Repository định nghĩa contract cho data access layer
// Implementations: postgres (pgx + cache-aside), mongo, memory
type Repository interface {
	// FindByID
	// Returns: ErrUserNotFound
	FindByID(ctx context.Context, id string) (*User, error)

	// UpsertByGoogleID tạo user mới hoặc ghi đè email/name/picture của user đã có
	// Preferences và genres giữ nguyên khi login lại
	UpsertByGoogleID(ctx context.Context, identity Identity) (*User, error)

	// UpdatePreferences ghi locale / booksSorting, trả về bản ghi sau update
	// Returns: ErrUserNotFound
	UpdatePreferences(ctx context.Context, id string, update PreferencesUpdate) (*User, error)

	// UpdateGenres thay toàn bộ genres (đã normalize)
	// Returns: ErrUserNotFound
	UpdateGenres(ctx context.Context, id string, genres []string) (*User, error)
}
