package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const stateTokenType = "oauth_state"

// StateClaims là nội dung của OAuth `state` parameter
// Nonce được đặt song song vào cookie để callback đối chiếu
type StateClaims struct {
	Nonce string `json:"nonce"`
	Type  string `json:"type"`
	jwt.RegisteredClaims
}

// Manager handles JWT operations
type Manager struct {
	secret string
	ttl    time.Duration
	now    func() time.Time
}

// NewManager creates new JWT manager, ttl là thời gian sống của state token
func NewManager(secret string, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Manager{secret: secret, ttl: ttl, now: time.Now}
}

// GenerateStateToken tạo state token mới, trả về (token, nonce)
func (m *Manager) GenerateStateToken() (string, string, error) {
	nonce := uuid.NewString()
	now := m.now()

	claims := StateClaims{
		Nonce: nonce,
		Type:  stateTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(m.secret))
	if err != nil {
		return "", "", fmt.Errorf("sign state token: %w", err)
	}
	return signed, nonce, nil
}

// ValidateStateToken verify chữ ký, hạn dùng, type và nonce
func (m *Manager) ValidateStateToken(tokenString, nonce string) (*StateClaims, error) {
	claims := &StateClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Verify signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(m.secret), nil
	}, jwt.WithTimeFunc(m.now))

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	if claims.Type != stateTokenType {
		return nil, fmt.Errorf("invalid token type: expected %s, got %s", stateTokenType, claims.Type)
	}

	if nonce == "" || claims.Nonce != nonce {
		return nil, fmt.Errorf("state nonce mismatch")
	}

	return claims, nil
}
