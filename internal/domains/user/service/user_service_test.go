package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookshelf-backend/internal/domains/user"
	"bookshelf-backend/internal/domains/user/repository"
)

func TestLogin_NameFallback(t *testing.T) {
	ctx := context.Background()
	svc := NewUserService(repository.NewMemoryRepository())

	tests := []struct {
		name     string
		identity user.Identity
		want     string
	}{
		{"display name", user.Identity{GoogleID: "g-1", Name: "Ada", Email: "ada@example.com"}, "Ada"},
		{"email when no display name", user.Identity{GoogleID: "g-2", Email: "bob@example.com"}, "bob@example.com"},
		{"literal fallback", user.Identity{GoogleID: "g-3"}, "User"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := svc.Login(ctx, tt.identity)
			require.NoError(t, err)
			assert.Equal(t, tt.want, u.Name)
		})
	}
}

func TestLogin_RequiresGoogleID(t *testing.T) {
	svc := NewUserService(repository.NewMemoryRepository())

	_, err := svc.Login(context.Background(), user.Identity{Name: "Nobody"})
	assert.Error(t, err)
}

func TestUpdatePreferences_EmptyReturnsCurrent(t *testing.T) {
	ctx := context.Background()
	svc := NewUserService(repository.NewMemoryRepository())

	u, err := svc.Login(ctx, user.Identity{GoogleID: "g-1", Name: "Ada"})
	require.NoError(t, err)

	got, err := svc.UpdatePreferences(ctx, u.ID, user.PreferencesUpdate{})
	require.NoError(t, err)
	assert.Equal(t, u.PreferredLocale, got.PreferredLocale)
	assert.Equal(t, u.BooksSorting, got.BooksSorting)

	_, err = svc.UpdatePreferences(ctx, "ghost", user.PreferencesUpdate{})
	assert.ErrorIs(t, err, user.ErrUserNotFound)
}
