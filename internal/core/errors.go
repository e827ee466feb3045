package core

import (
	"errors"
	"fmt"
)

var (
	ErrValidation      = errors.New("validation failed")
	ErrUnauthenticated = errors.New("authentication required")
	ErrSelfFollow      = errors.New("cannot follow yourself")
	ErrNotFound        = errors.New("not found")
	ErrStore           = errors.New("store failure")
	ErrPartialWrite    = errors.New("partial dual-document write")
)

// PartialWriteError reports a dual-document write where the first half
// committed and the second did not. The completed half is idempotent, so
// the caller should retry only the failed half, never the whole toggle.
type PartialWriteError struct {
	Completed string
	Failed    string
	Err       error
}

func (e *PartialWriteError) Error() string {
	return fmt.Sprintf("%s: %q committed, %q failed: %s", ErrPartialWrite, e.Completed, e.Failed, e.Err)
}

func (e *PartialWriteError) Unwrap() []error {
	return []error{ErrPartialWrite, e.Err}
}
