package user

import "errors"

// Repository-level errors
var (
	// Not Found (session trỏ tới user không còn tồn tại cũng dùng lỗi này)
	ErrUserNotFound = errors.New("user not found")
)

// Validation errors
var (
	ErrUnsupportedLocale = errors.New("locale must be en or fr")
	ErrNotAnArray        = errors.New("must be an array")
)

// Field names dùng trong FieldError / reason code
const (
	FieldPreferredLocale = "preferredLocale"
	FieldBooksSorting    = "booksSorting"
	FieldGenres          = "genres"
)
