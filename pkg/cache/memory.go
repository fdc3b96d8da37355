package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// MemoryCache là Cache chạy trong process, dùng khi không có Redis (dev, tests)
// Value được JSON-encode giống RedisCache để hai implementation cư xử như nhau.
// Entry hết hạn bị xóa chủ động bởi cleanup loop, kể cả key không bao giờ được đọc lại.
type MemoryCache struct {
	items *ttlcache.Cache[string, []byte]
}

func NewMemoryCache() *MemoryCache {
	// TTL cố định như Redis SET EX: Get không gia hạn entry
	items := ttlcache.New[string, []byte](
		ttlcache.WithDisableTouchOnHit[string, []byte](),
	)
	go items.Start()

	return &MemoryCache{items: items}
}

func (m *MemoryCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	item := m.items.Get(key)
	if item == nil {
		return false, nil
	}
	if err := json.Unmarshal(item.Value(), dest); err != nil {
		return false, fmt.Errorf("unmarshal cached %s: %w", key, err)
	}
	return true, nil
}

func (m *MemoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}

	if ttl <= 0 {
		ttl = ttlcache.NoTTL
	}
	m.items.Set(key, data, ttl)
	return nil
}

func (m *MemoryCache) Delete(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		m.items.Delete(k)
	}
	return nil
}

func (m *MemoryCache) Ping(ctx context.Context) error {
	return nil
}

// Close dừng cleanup loop
func (m *MemoryCache) Close() {
	m.items.Stop()
}
