package book

import "errors"

// Repository-level errors
var (
	// Not Found (bao gồm cả book của user khác)
	ErrBookNotFound = errors.New("book not found")
)

// Field names dùng trong FieldError / reason code
const (
	FieldTitle        = "title"
	FieldStatus       = "status"
	FieldFinishedDate = "finishedDate"
)
