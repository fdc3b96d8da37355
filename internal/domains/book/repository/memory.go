package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"bookshelf-backend/internal/domains/book"
)

// memoryRepository giữ books trong map, dùng cho STORE_DRIVER=memory và tests
type memoryRepository struct {
	mu    sync.RWMutex
	books map[string]book.Book
	now   func() time.Time
}

func NewMemoryRepository() book.Repository {
	return &memoryRepository{
		books: make(map[string]book.Book),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (r *memoryRepository) ListByUser(ctx context.Context, userID string) ([]book.Book, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]book.Book, 0)
	for _, b := range r.books {
		if b.UserID == userID {
			out = append(out, b)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *memoryRepository) MaxIndex(ctx context.Context, userID string) (float64, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var (
		max   float64
		found bool
	)
	for _, b := range r.books {
		if b.UserID != userID {
			continue
		}
		if !found || b.Index > max {
			max = b.Index
			found = true
		}
	}
	return max, found, nil
}

func (r *memoryRepository) Create(ctx context.Context, b *book.Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	// Đảm bảo createdAt tăng dần để thứ tự list ổn định
	for _, existing := range r.books {
		if existing.UserID == b.UserID && !now.After(existing.CreatedAt) {
			now = existing.CreatedAt.Add(time.Microsecond)
		}
	}

	b.ID = uuid.NewString()
	b.CreatedAt = now
	b.UpdatedAt = now
	r.books[b.ID] = *b
	return nil
}

func (r *memoryRepository) FindByID(ctx context.Context, id, userID string) (*book.Book, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.books[id]
	if !ok || b.UserID != userID {
		return nil, book.ErrBookNotFound
	}
	return &b, nil
}

func (r *memoryRepository) Update(ctx context.Context, id, userID string, patch book.Patch) (*book.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.books[id]
	if !ok || b.UserID != userID {
		return nil, book.ErrBookNotFound
	}

	patch.Apply(&b)
	b.UpdatedAt = r.now()
	r.books[id] = b
	return &b, nil
}

func (r *memoryRepository) Delete(ctx context.Context, id, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.books[id]
	if !ok || b.UserID != userID {
		return book.ErrBookNotFound
	}
	delete(r.books, id)
	return nil
}
