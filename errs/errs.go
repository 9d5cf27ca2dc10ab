package errs

import (
	"errors"
	"fmt"
)

// Sentinel errors for the upload pipeline and metadata store. Handlers map
// these onto HTTP statuses; services wrap them with context via fmt.Errorf
// and %w so errors.Is keeps working across layers.
var (
	// ErrInvalidInput covers corrupt, oversized or otherwise unusable
	// submissions. Rejected before any side effect.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedFormat means the probe identified the audio but no
	// enabled (container, codec) mapping exists for it.
	ErrUnsupportedFormat = errors.New("unsupported audio format")

	// ErrProbeFailed means ffprobe itself failed or timed out, as opposed
	// to successfully identifying an unsupported format.
	ErrProbeFailed = errors.New("audio probe failed")

	ErrTranscodeFailed  = errors.New("transcode failed")
	ErrTranscodeTimeout = errors.New("transcode timed out")

	// ErrCapacity is returned when all transcode worker slots stay busy for
	// longer than the configured queue wait.
	ErrCapacity = errors.New("transcoder at capacity")

	ErrNotFound         = errors.New("not found")
	ErrTokenNotFound    = errors.New("token not found")
	ErrTokenNotYetValid = errors.New("token not yet valid")

	// ErrNameTaken is the unique-name constraint among non-deleted
	// recordings.
	ErrNameTaken = errors.New("name already exists")

	// ErrSelfParent rejects a recording referencing itself as parent.
	ErrSelfParent = errors.New("recording cannot be its own parent")

	// ErrConstraint covers the remaining schema constraint violations
	// (invalid category/age/gender/format references and the like).
	ErrConstraint = errors.New("constraint violation")
)

// StorageError wraps an object-store failure with enough detail for the
// caller to decide retry-ability. The core never retries on its own.
type StorageError struct {
	Op        string
	Key       string
	Transient bool
	Err       error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ClientFault reports whether the error is the caller's fault and retrying
// the same request unchanged would fail again.
func ClientFault(err error) bool {
	for _, target := range []error{
		ErrInvalidInput,
		ErrUnsupportedFormat,
		ErrTokenNotFound,
		ErrTokenNotYetValid,
		ErrNameTaken,
		ErrSelfParent,
		ErrConstraint,
		ErrNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
