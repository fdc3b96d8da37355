package cache

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable được trả về khi backend cache không kết nối được
var ErrUnavailable = errors.New("cache unavailable")

// Cache interface định nghĩa contract cho cache layer
// Cho phép swap implementation (Redis, In-memory)
type Cache interface {
	// Get lấy data từ cache và unmarshal vào dest
	// Returns: (found bool, error)
	// - found = true: cache hit, data đã unmarshal vào dest
	// - found = false: cache miss, dest không bị thay đổi
	Get(ctx context.Context, key string, dest interface{}) (bool, error)

	// Set lưu data vào cache với TTL (ttl <= 0: không hết hạn)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// Delete xóa các keys khỏi cache
	Delete(ctx context.Context, keys ...string) error

	// Ping kiểm tra connection
	Ping(ctx context.Context) error
}
