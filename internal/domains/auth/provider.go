package auth

import (
	"context"
	"errors"

	"bookshelf-backend/internal/domains/user"
)

var (
	// ErrInvalidState: state token sai chữ ký, hết hạn hoặc nonce không khớp cookie
	ErrInvalidState = errors.New("invalid oauth state")
	// ErrConsentDenied: provider trả về ?error=... hoặc thiếu code
	ErrConsentDenied = errors.New("oauth consent denied")
	// ErrIdentity: không đọc được profile từ provider
	ErrIdentity = errors.New("could not resolve identity")
)

// Provider là external identity provider (Google)
type Provider interface {
	// AuthCodeURL trả về URL consent, state được gửi nguyên vẹn
	AuthCodeURL(state string) string

	// Exchange đổi authorization code lấy identity của user
	Exchange(ctx context.Context, code string) (*user.Identity, error)
}
