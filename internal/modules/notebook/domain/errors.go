package domain

import (
	"errors"
	"fmt"

	apperrors "notebook/internal/platform/errors"
)

// ErrCorruptDocument marks a backing document that exists but cannot be decoded.
var ErrCorruptDocument = errors.New("corrupt topic document")

// StorageError reports a failure reading or writing the backing store.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func (e *StorageError) Is(target error) bool {
	return target == apperrors.ErrStorage
}

func NewStorageError(op, path string, err error) error {
	if err == nil {
		return nil
	}
	var existing *StorageError
	if errors.As(err, &existing) {
		return err
	}
	return &StorageError{Op: op, Path: path, Err: err}
}
