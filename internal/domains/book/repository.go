package book

import "context"

// Repository định nghĩa contract cho data access layer
// Implementations: postgres (pgx), mongo, memory
// Mọi query đều lọc theo (id AND userId): book của user khác coi như không tồn tại
type Repository interface {
	// ListByUser trả về toàn bộ books của user, mới tạo trước (createdAt DESC)
	ListByUser(ctx context.Context, userID string) ([]Book, error)

	// MaxIndex trả về index lớn nhất của user, found=false nếu user chưa có sách
	MaxIndex(ctx context.Context, userID string) (max float64, found bool, err error)

	// Create insert book, set ID, CreatedAt, UpdatedAt
	Create(ctx context.Context, b *Book) error

	// FindByID
	// Returns: ErrBookNotFound nếu không có hoặc không thuộc user
	FindByID(ctx context.Context, id, userID string) (*Book, error)

	// Update áp dụng patch trong một lệnh update duy nhất, trả về bản ghi sau update
	// Returns: ErrBookNotFound
	Update(ctx context.Context, id, userID string, patch Patch) (*Book, error)

	// Delete xóa cứng
	// Returns: ErrBookNotFound
	Delete(ctx context.Context, id, userID string) error
}
