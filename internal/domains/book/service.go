package book

import "context"

// Service định nghĩa business logic layer contract
type Service interface {
	List(ctx context.Context, userID string) ([]Book, error)
	Create(ctx context.Context, userID string, in CreateInput) (*Book, error)
	Patch(ctx context.Context, userID, id string, patch Patch) (*Book, error)
	Delete(ctx context.Context, userID, id string) error
}
