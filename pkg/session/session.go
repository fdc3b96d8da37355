package session

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"

	"bookshelf-backend/pkg/cache"
)

var (
	// ErrNotFound: token không tồn tại hoặc đã hết hạn
	ErrNotFound  = errors.New("session not found")
	ErrEmptyUser = errors.New("session requires a user id")
)

// Data là nội dung một session lưu trong cache
type Data struct {
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store quản lý cookie sessions trên một cache.Cache (Redis hoặc memory)
//
// Cookie chỉ chứa token ngẫu nhiên. Key trong cache là BLAKE2b(secret, token),
// nên dump cache không đủ để dựng lại cookie hợp lệ.
type Store struct {
	cache  cache.Cache
	key    []byte
	ttl    time.Duration
	prefix string
}

func NewStore(c cache.Cache, secret string, ttl time.Duration) *Store {
	// blake2b keyed mode nhận tối đa 64 bytes key
	sum := blake2b.Sum256([]byte(secret))
	return &Store{
		cache:  c,
		key:    sum[:],
		ttl:    ttl,
		prefix: "session:",
	}
}

// TTL là thời gian sống của session, dùng làm cookie Max-Age
func (s *Store) TTL() time.Duration {
	return s.ttl
}

func (s *Store) digest(token string) (string, error) {
	h, err := blake2b.New256(s.key)
	if err != nil {
		return "", fmt.Errorf("init blake2b: %w", err)
	}
	h.Write([]byte(token))
	return s.prefix + hex.EncodeToString(h.Sum(nil)), nil
}

// Create tạo session mới cho user và trả về token để đặt vào cookie
func (s *Store) Create(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", ErrEmptyUser
	}

	token := uuid.NewString()
	key, err := s.digest(token)
	if err != nil {
		return "", err
	}

	data := Data{UserID: userID, CreatedAt: time.Now().UTC()}
	if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}
	return token, nil
}

// Lookup trả về session của token, ErrNotFound nếu không có
func (s *Store) Lookup(ctx context.Context, token string) (*Data, error) {
	if token == "" {
		return nil, ErrNotFound
	}

	key, err := s.digest(token)
	if err != nil {
		return nil, err
	}

	var data Data
	found, err := s.cache.Get(ctx, key, &data)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if !found || data.UserID == "" {
		return nil, ErrNotFound
	}
	return &data, nil
}

// Destroy xóa session. Token không tồn tại không phải lỗi
func (s *Store) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	key, err := s.digest(token)
	if err != nil {
		return err
	}
	if err := s.cache.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
