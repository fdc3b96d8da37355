package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"bookshelf-backend/internal/domains/book"
	"bookshelf-backend/pkg/logger"
)

type bookService struct {
	repo book.Repository
	log  zerolog.Logger
}

// NewBookService - Constructor with DI
func NewBookService(repo book.Repository) book.Service {
	return &bookService{
		repo: repo,
		log:  logger.Component("book_service"),
	}
}

// List - toàn bộ books của user, mới nhất trước, không phân trang
func (s *bookService) List(ctx context.Context, userID string) ([]book.Book, error) {
	books, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return books, nil
}

// Create gán index = max + 1 rồi insert
// Đọc max và insert là hai bước riêng, không bọc transaction:
// hai request create đồng thời của cùng user có thể nhận cùng index
func (s *bookService) Create(ctx context.Context, userID string, in book.CreateInput) (*book.Book, error) {
	// STEP 1: Next index
	max, found, err := s.repo.MaxIndex(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("create book: %w", err)
	}

	// STEP 2: Insert
	b := in.NewBook(userID, book.NextIndex(max, found))
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("create book: %w", err)
	}

	s.log.Debug().Str("user_id", userID).Str("book_id", b.ID).Float64("index", b.Index).Msg("book created")
	return b, nil
}

// Patch - update theo filter (id AND userId), patch rỗng chỉ bump updatedAt
func (s *bookService) Patch(ctx context.Context, userID, id string, patch book.Patch) (*book.Book, error) {
	b, err := s.repo.Update(ctx, id, userID, patch)
	if err != nil {
		return nil, fmt.Errorf("patch book %s: %w", id, err)
	}
	return b, nil
}

// Delete - lookup theo owner trước, sau đó xóa
func (s *bookService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.repo.FindByID(ctx, id, userID); err != nil {
		return fmt.Errorf("delete book %s: %w", id, err)
	}

	if err := s.repo.Delete(ctx, id, userID); err != nil {
		return fmt.Errorf("delete book %s: %w", id, err)
	}

	s.log.Debug().Str("user_id", userID).Str("book_id", id).Msg("book deleted")
	return nil
}
