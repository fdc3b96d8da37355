package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"bookshelf-backend/internal/domains/user"
	"bookshelf-backend/internal/shared/utils"
	"bookshelf-backend/pkg/cache"
	"bookshelf-backend/pkg/logger"
)

// userCacheTTL - cân bằng giữa freshness và số lần query DB cho GET /api/me
const userCacheTTL = 15 * time.Minute

// postgresRepository: pgx pool + cache-aside cho FindByID
type postgresRepository struct {
	pool  *pgxpool.Pool
	cache cache.Cache
	log   zerolog.Logger
}

// NewPostgresRepository - Constructor with DI
func NewPostgresRepository(pool *pgxpool.Pool, cache cache.Cache) user.Repository {
	return &postgresRepository{
		pool:  pool,
		cache: cache,
		log:   logger.Component("user_repository"),
	}
}

// Cache key naming convention: "entity:id"
func cacheKey(id string) string {
	return fmt.Sprintf("user:%s", id)
}

const userColumns = `id::text, google_id, email, name, picture, preferred_locale,
	genres, books_sorting, created_at, updated_at`

func scanUser(row pgx.Row) (*user.User, error) {
	var (
		u       user.User
		locale  string
		sorting []byte
	)

	err := row.Scan(
		&u.ID, &u.GoogleID, &u.Email, &u.Name, &u.Picture, &locale,
		pq.Array(&u.Genres), &sorting, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrUserNotFound
		}
		return nil, err
	}

	u.PreferredLocale = user.Locale(locale)
	if u.Genres == nil {
		u.Genres = []string{}
	}
	if err := json.Unmarshal(sorting, &u.BooksSorting); err != nil {
		return nil, fmt.Errorf("decode books_sorting: %w", err)
	}
	return &u, nil
}

// FindByID - Cache-Aside Pattern
func (r *postgresRepository) FindByID(ctx context.Context, id string) (*user.User, error) {
	uid := utils.ParseStringToUUID(id)
	if uid == uuid.Nil {
		return nil, user.ErrUserNotFound
	}

	// STEP 1: CHECK CACHE FIRST
	var cached user.User
	found, err := r.cache.Get(ctx, cacheKey(id), &cached)
	if err == nil && found {
		return &cached, nil
	}
	if err != nil {
		r.log.Warn().Err(err).Str("user_id", id).Msg("cache get failed, falling back to database")
	}

	// STEP 2: CACHE MISS - QUERY DATABASE
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(r.pool.QueryRow(ctx, query, uid))
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}

	// STEP 3: SET CACHE FOR FUTURE REQUESTS
	// Lỗi cache không làm fail request
	_ = r.cache.Set(ctx, cacheKey(id), u, userCacheTTL)

	return u, nil
}

// UpsertByGoogleID: INSERT ... ON CONFLICT chỉ ghi đè email/name/picture
func (r *postgresRepository) UpsertByGoogleID(ctx context.Context, identity user.Identity) (*user.User, error) {
	fresh := user.NewUser(identity)
	sorting, err := json.Marshal(fresh.BooksSorting)
	if err != nil {
		return nil, fmt.Errorf("encode books_sorting: %w", err)
	}

	query := `
		INSERT INTO users (id, google_id, email, name, picture, preferred_locale, genres, books_sorting)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb)
		ON CONFLICT (google_id) DO UPDATE SET
			email      = EXCLUDED.email,
			name       = EXCLUDED.name,
			picture    = EXCLUDED.picture,
			updated_at = NOW()
		RETURNING ` + userColumns

	u, err := scanUser(r.pool.QueryRow(ctx, query,
		uuid.New(),
		fresh.GoogleID,
		fresh.Email,
		fresh.Name,
		fresh.Picture,
		string(fresh.PreferredLocale),
		pq.Array(fresh.Genres),
		string(sorting),
	))
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}

	// Invalidate cache: name/picture có thể đã đổi
	_ = r.cache.Delete(ctx, cacheKey(u.ID))
	return u, nil
}

func (r *postgresRepository) UpdatePreferences(ctx context.Context, id string, update user.PreferencesUpdate) (*user.User, error) {
	uid := utils.ParseStringToUUID(id)
	if uid == uuid.Nil {
		return nil, user.ErrUserNotFound
	}

	var locale *string
	if update.PreferredLocale != nil {
		s := string(*update.PreferredLocale)
		locale = &s
	}

	var sorting *string
	if update.SetBooksSorting {
		b, err := json.Marshal(update.BooksSorting)
		if err != nil {
			return nil, fmt.Errorf("encode books_sorting: %w", err)
		}
		s := string(b)
		sorting = &s
	}

	// COALESCE: NULL = giữ nguyên giá trị cũ
	query := `
		UPDATE users SET
			preferred_locale = COALESCE($2, preferred_locale),
			books_sorting    = COALESCE($3::jsonb, books_sorting),
			updated_at       = NOW()
		WHERE id = $1
		RETURNING ` + userColumns

	u, err := scanUser(r.pool.QueryRow(ctx, query, uid, locale, sorting))
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update preferences: %w", err)
	}

	_ = r.cache.Delete(ctx, cacheKey(id))
	return u, nil
}

func (r *postgresRepository) UpdateGenres(ctx context.Context, id string, genres []string) (*user.User, error) {
	uid := utils.ParseStringToUUID(id)
	if uid == uuid.Nil {
		return nil, user.ErrUserNotFound
	}

	query := `UPDATE users SET genres = $2, updated_at = NOW() WHERE id = $1 RETURNING ` + userColumns

	u, err := scanUser(r.pool.QueryRow(ctx, query, uid, pq.Array(genres)))
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update genres: %w", err)
	}

	_ = r.cache.Delete(ctx, cacheKey(id))
	return u, nil
}
