package service

import (
	"fmt"
)

type ErrInvalidUpload struct {
	error
}

func NewErrInvalidUpload(format string, args ...any) *ErrInvalidUpload {
	return &ErrInvalidUpload{fmt.Errorf(format, args...)}
}

type ErrDocumentNotFound struct {
	error
}

func NewErrDocumentNotFound(id string) *ErrDocumentNotFound {
	return &ErrDocumentNotFound{fmt.Errorf("document %s not found", id)}
}

// ErrMetadataNotFound covers both "not extracted yet" and "extraction failed".
type ErrMetadataNotFound struct {
	error
}

func NewErrMetadataNotFound(id string) *ErrMetadataNotFound {
	return &ErrMetadataNotFound{fmt.Errorf("metadata for document %s not found", id)}
}

type ErrNoBlobReference struct {
	error
}

func NewErrNoBlobReference(id string) *ErrNoBlobReference {
	return &ErrNoBlobReference{fmt.Errorf("document %s has no file to download", id)}
}

type ErrBlobResolution struct {
	error
}

func NewErrBlobResolution(id string, cause error) *ErrBlobResolution {
	return &ErrBlobResolution{fmt.Errorf("failed to resolve a file for document %s: %w", id, cause)}
}

func (e *ErrBlobResolution) Unwrap() error {
	return e.error
}
