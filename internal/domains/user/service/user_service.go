package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"bookshelf-backend/internal/domains/user"
	"bookshelf-backend/pkg/logger"
)

// fallbackName khi provider không trả về displayName lẫn email
const fallbackName = "User"

type userService struct {
	repo user.Repository
	log  zerolog.Logger
}

// NewUserService - Constructor with DI
func NewUserService(repo user.Repository) user.Service {
	return &userService{
		repo: repo,
		log:  logger.Component("user_service"),
	}
}

// Login upsert user theo GoogleID sau khi OAuth thành công
// name = displayName || email || "User"
func (s *userService) Login(ctx context.Context, identity user.Identity) (*user.User, error) {
	if strings.TrimSpace(identity.GoogleID) == "" {
		return nil, fmt.Errorf("login: empty google id")
	}

	if identity.Name == "" {
		identity.Name = identity.Email
	}
	if identity.Name == "" {
		identity.Name = fallbackName
	}

	u, err := s.repo.UpsertByGoogleID(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	s.log.Info().Str("user_id", u.ID).Msg("user logged in")
	return u, nil
}

func (s *userService) GetProfile(ctx context.Context, userID string) (*user.User, error) {
	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return u, nil
}

// UpdatePreferences - body rỗng trả về giá trị hiện tại, không ghi DB
func (s *userService) UpdatePreferences(ctx context.Context, userID string, update user.PreferencesUpdate) (*user.User, error) {
	if update.IsEmpty() {
		return s.GetProfile(ctx, userID)
	}

	u, err := s.repo.UpdatePreferences(ctx, userID, update)
	if err != nil {
		return nil, fmt.Errorf("update preferences: %w", err)
	}
	return u, nil
}

func (s *userService) UpdateGenres(ctx context.Context, userID string, genres []string) (*user.User, error) {
	u, err := s.repo.UpdateGenres(ctx, userID, genres)
	if err != nil {
		return nil, fmt.Errorf("update genres: %w", err)
	}
	return u, nil
}
