package utils

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrValidation bọc mọi FieldError, handler dùng errors.Is để trả 400
	ErrValidation = errors.New("validation failed")
	// ErrInvalidBody: body không phải JSON object
	ErrInvalidBody = errors.New("request body must be a JSON object")
)

// FieldError mô tả field không hợp lệ. Code() là reason code trả về client
type FieldError struct {
	Field string
	Err   error
}

func NewFieldError(field string, err error) *FieldError {
	return &FieldError{Field: field, Err: err}
}

func (e *FieldError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("invalid %s", e.Field)
	}
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrValidation}
	}
	return []error{ErrValidation, e.Err}
}

// Code: "invalid_" + field, ví dụ invalid_finishedDate
func (e *FieldError) Code() string {
	return "invalid_" + e.Field
}

// DecodeObject parse body thành JSON object. Body rỗng được coi là {}
func DecodeObject(data []byte) (map[string]interface{}, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return map[string]interface{}{}, nil
	}

	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}

	obj, ok := v.(map[string]interface{})
	if !ok {
		return nil, ErrInvalidBody
	}
	return obj, nil
}
