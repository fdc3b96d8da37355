package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"bookshelf-backend/internal/domains/user"
)

// memoryRepository giữ users trong map, dùng cho STORE_DRIVER=memory và tests
type memoryRepository struct {
	mu       sync.RWMutex
	users    map[string]user.User
	byGoogle map[string]string
}

func NewMemoryRepository() user.Repository {
	return &memoryRepository{
		users:    make(map[string]user.User),
		byGoogle: make(map[string]string),
	}
}

// clone tách slice để caller không sửa được state bên trong
func clone(u user.User) *user.User {
	u.Genres = append([]string{}, u.Genres...)
	u.BooksSorting = append([]user.SortClause{}, u.BooksSorting...)
	return &u
}

func (r *memoryRepository) FindByID(ctx context.Context, id string) (*user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return clone(u), nil
}

func (r *memoryRepository) UpsertByGoogleID(ctx context.Context, identity user.Identity) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()

	if id, ok := r.byGoogle[identity.GoogleID]; ok {
		u := r.users[id]
		u.Email = identity.Email
		u.Name = identity.Name
		u.Picture = identity.Picture
		u.UpdatedAt = now
		r.users[id] = u
		return clone(u), nil
	}

	u := user.NewUser(identity)
	u.ID = uuid.NewString()
	u.CreatedAt = now
	u.UpdatedAt = now
	r.users[u.ID] = *u
	r.byGoogle[identity.GoogleID] = u.ID
	return clone(*u), nil
}

func (r *memoryRepository) UpdatePreferences(ctx context.Context, id string, update user.PreferencesUpdate) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}

	update.Apply(&u)
	u.UpdatedAt = time.Now().UTC()
	r.users[id] = *clone(u)
	return clone(u), nil
}

func (r *memoryRepository) UpdateGenres(ctx context.Context, id string, genres []string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}

	u.Genres = genres
	u.UpdatedAt = time.Now().UTC()
	r.users[id] = *clone(u)
	return clone(u), nil
}
