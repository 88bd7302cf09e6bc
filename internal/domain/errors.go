package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrConfirmationRequired is returned by the full wipe when the typed
// confirmation phrase does not match exactly. Nothing is deleted.
var ErrConfirmationRequired = errors.New("confirmation phrase mismatch, nothing deleted")

// ErrStoreUnavailable is returned when the backing store cannot be reached.
// The caller may retry; the core itself does not.
var ErrStoreUnavailable = errors.New("store unavailable")

// ValidationError reports which submission fields failed ingestion
// validation. No data is written when it is returned.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "required fields missing or invalid: " + strings.Join(e.Fields, ", ")
}

// PartialPurgeError reports a purge that failed after some batches were
// already committed. Deleted is the count removed before the failure;
// earlier batches stay deleted.
type PartialPurgeError struct {
	Deleted int64
	Err     error
}

func (e *PartialPurgeError) Error() string {
	return fmt.Sprintf("purge incomplete after deleting %d reports: %v", e.Deleted, e.Err)
}

func (e *PartialPurgeError) Unwrap() error {
	return e.Err
}
