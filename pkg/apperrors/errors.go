package apperrors

import "errors"

var (
	ErrNotFound              = errors.New("not found")
	ErrMalformedInput        = errors.New("malformed analysis input")
	ErrSchemaVersionMismatch = errors.New("result was produced by a different schema version")
)
