package content

import "errors"

var (
	ErrNotFound    = errors.New("content: record not found")
	ErrInvalidType = errors.New("content: invalid content type")
)
