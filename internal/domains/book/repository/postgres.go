package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"bookshelf-backend/internal/domains/book"
	"bookshelf-backend/internal/shared/utils"
)

// postgresRepository - Raw SQL with pgxpool
type postgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository - Constructor
func NewPostgresRepository(pool *pgxpool.Pool) book.Repository {
	return &postgresRepository{pool: pool}
}

const bookColumns = `id::text, user_id::text, "index", title, author, cover_url, status, downloaded,
	rating, date, finished_date, genre, language, comment, created_at, updated_at`

// scanBook đọc một row theo thứ tự bookColumns
func scanBook(row pgx.Row) (*book.Book, error) {
	var (
		b      book.Book
		status string
		rating decimal.Decimal
	)

	err := row.Scan(
		&b.ID, &b.UserID, &b.Index, &b.Title, &b.Author, &b.CoverURL, &status, &b.Downloaded,
		&rating, &b.Date, &b.FinishedDate, &b.Genre, &b.Language, &b.Comment, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	b.Status = book.Status(status)
	b.Rating = utils.DecimalToFloat(rating)
	return &b, nil
}

// ========================= LIST =====================

func (r *postgresRepository) ListByUser(ctx context.Context, userID string) ([]book.Book, error) {
	uid := utils.ParseStringToUUID(userID)
	if uid == uuid.Nil {
		return []book.Book{}, nil
	}

	query := `SELECT ` + bookColumns + ` FROM books WHERE user_id = $1 ORDER BY created_at DESC, id DESC`

	rows, err := r.pool.Query(ctx, query, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	defer rows.Close()

	books := make([]book.Book, 0)
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan book: %w", err)
		}
		books = append(books, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate books: %w", err)
	}

	return books, nil
}

// MaxIndex - đọc index lớn nhất. Không khóa: hai lần create song song có thể ra cùng index
func (r *postgresRepository) MaxIndex(ctx context.Context, userID string) (float64, bool, error) {
	uid := utils.ParseStringToUUID(userID)
	if uid == uuid.Nil {
		return 0, false, nil
	}

	var max *float64
	err := r.pool.QueryRow(ctx, `SELECT MAX("index") FROM books WHERE user_id = $1`, uid).Scan(&max)
	if err != nil {
		return 0, false, fmt.Errorf("failed to read max index: %w", err)
	}
	if max == nil {
		return 0, false, nil
	}
	return *max, true, nil
}

// ========================= CREATE =====================

func (r *postgresRepository) Create(ctx context.Context, b *book.Book) error {
	uid := utils.ParseStringToUUID(b.UserID)
	if uid == uuid.Nil {
		return fmt.Errorf("failed to insert book: invalid user id %q", b.UserID)
	}

	id := uuid.New()
	now := time.Now().UTC()

	query := `
		INSERT INTO books (
			id, user_id, "index", title, author, cover_url, status, downloaded,
			rating, date, finished_date, genre, language, comment, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8,
			$9, $10, $11, $12, $13, $14, $15, $15
		)
		RETURNING created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		id, uid, b.Index, b.Title, b.Author, b.CoverURL, string(b.Status), b.Downloaded,
		utils.RatingToDecimal(b.Rating), b.Date, b.FinishedDate, b.Genre, b.Language, b.Comment, now,
	).Scan(&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert book: %w", err)
	}

	b.ID = id.String()
	b.Rating = utils.DecimalToFloat(utils.RatingToDecimal(b.Rating))
	return nil
}

// ========================= READ =====================

func (r *postgresRepository) FindByID(ctx context.Context, id, userID string) (*book.Book, error) {
	bid, uid := utils.ParseStringToUUID(id), utils.ParseStringToUUID(userID)
	if bid == uuid.Nil || uid == uuid.Nil {
		return nil, book.ErrBookNotFound
	}

	query := `SELECT ` + bookColumns + ` FROM books WHERE id = $1 AND user_id = $2`

	b, err := scanBook(r.pool.QueryRow(ctx, query, bid, uid))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, book.ErrBookNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get book: %w", err)
	}
	return b, nil
}

// ========================= UPDATE =====================

// buildSetClause chuyển patch thành "col = $n" và args, bắt đầu từ $3
// ($1, $2 dành cho id và user_id)
func buildSetClause(patch book.Patch) (string, []interface{}) {
	sets := []string{"updated_at = NOW()"}
	args := []interface{}{}

	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)+2))
	}

	if patch.Index != nil {
		add(`"index"`, *patch.Index)
	}
	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.Author != nil {
		add("author", *patch.Author)
	}
	if patch.CoverURL != nil {
		add("cover_url", *patch.CoverURL)
	}
	if patch.Status != nil {
		add("status", string(*patch.Status))
	}
	if patch.Downloaded != nil {
		add("downloaded", *patch.Downloaded)
	}
	if patch.Rating != nil {
		add("rating", utils.RatingToDecimal(*patch.Rating))
	}
	if patch.Date != nil {
		add("date", *patch.Date)
	}
	if patch.SetFinishedDate {
		add("finished_date", patch.FinishedDate)
	}
	if patch.Genre != nil {
		add("genre", *patch.Genre)
	}
	if patch.Language != nil {
		add("language", *patch.Language)
	}
	if patch.Comment != nil {
		add("comment", *patch.Comment)
	}

	return strings.Join(sets, ", "), args
}

// Update - một câu UPDATE ... WHERE id AND user_id ... RETURNING
func (r *postgresRepository) Update(ctx context.Context, id, userID string, patch book.Patch) (*book.Book, error) {
	bid, uid := utils.ParseStringToUUID(id), utils.ParseStringToUUID(userID)
	if bid == uuid.Nil || uid == uuid.Nil {
		return nil, book.ErrBookNotFound
	}

	setClause, args := buildSetClause(patch)
	query := `UPDATE books SET ` + setClause + ` WHERE id = $1 AND user_id = $2 RETURNING ` + bookColumns

	b, err := scanBook(r.pool.QueryRow(ctx, query, append([]interface{}{bid, uid}, args...)...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, book.ErrBookNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update book: %w", err)
	}
	return b, nil
}

// ========================= DELETE =====================

func (r *postgresRepository) Delete(ctx context.Context, id, userID string) error {
	bid, uid := utils.ParseStringToUUID(id), utils.ParseStringToUUID(userID)
	if bid == uuid.Nil || uid == uuid.Nil {
		return book.ErrBookNotFound
	}

	result, err := r.pool.Exec(ctx, `DELETE FROM books WHERE id = $1 AND user_id = $2`, bid, uid)
	if err != nil {
		return fmt.Errorf("failed to delete book: %w", err)
	}
	if result.RowsAffected() == 0 {
		return book.ErrBookNotFound
	}
	return nil
}
