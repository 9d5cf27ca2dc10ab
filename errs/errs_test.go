package errs

import (
	"errors"
	"fmt"
	"testing"
)

func TestClientFault(t *testing.T) {
	for _, tc := range []struct {
		err  error
		want bool
	}{
		{ErrInvalidInput, true},
		{ErrUnsupportedFormat, true},
		{ErrTokenNotFound, true},
		{ErrNameTaken, true},
		{fmt.Errorf("wrapped: %w", ErrSelfParent), true},
		{ErrProbeFailed, false},
		{ErrTranscodeFailed, false},
		{ErrCapacity, false},
		{errors.New("plain"), false},
	} {
		if got := ClientFault(tc.err); got != tc.want {
			t.Errorf("ClientFault(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}

func TestStorageErrorUnwrap(t *testing.T) {
	inner := fmt.Errorf("wrapped: %w", ErrTranscodeFailed)
	err := &StorageError{Op: "put", Key: "recordings/x.ogg", Err: inner}

	// Sentinels must stay matchable through the storage wrapper.
	if !errors.Is(err, ErrTranscodeFailed) {
		t.Error("errors.Is lost the wrapped sentinel")
	}

	var storageErr *StorageError
	if !errors.As(error(err), &storageErr) {
		t.Fatal("errors.As failed")
	}
	if storageErr.Key != "recordings/x.ogg" {
		t.Errorf("Key = %q", storageErr.Key)
	}
}
