package storage

import (
	"testing"

	"github.com/google/uuid"
)

func TestObjectKey(t *testing.T) {
	id := uuid.MustParse("5a2b7c10-9c1d-4e8f-a3b4-1234567890ab")

	key := ObjectKey("recordings", id, "ogg")
	want := "recordings/5a2b7c10-9c1d-4e8f-a3b4-1234567890ab.ogg"
	if key != want {
		t.Errorf("ObjectKey = %q, want %q", key, want)
	}

	// Prefix slashes do not double up.
	if got := ObjectKey("/recordings/", id, "ogg"); got != want {
		t.Errorf("ObjectKey with slashes = %q, want %q", got, want)
	}
}

func TestKeyFromURL(t *testing.T) {
	u := NewMinioUploader(nil, "bucket", "https://cdn.example.com/", "", "")

	key, err := u.KeyFromURL("https://cdn.example.com/recordings/abc.ogg")
	if err != nil {
		t.Fatalf("KeyFromURL: %v", err)
	}
	if key != "recordings/abc.ogg" {
		t.Errorf("key = %q", key)
	}
}

func TestKeyFromURLOldBase(t *testing.T) {
	u := NewMinioUploader(nil, "bucket", "https://cdn.example.com", "", "")

	// A URL recorded under a previous base still yields its path.
	key, err := u.KeyFromURL("https://old.example.com/recordings/abc.ogg")
	if err != nil {
		t.Fatalf("KeyFromURL: %v", err)
	}
	if key != "recordings/abc.ogg" {
		t.Errorf("key = %q", key)
	}
}

func TestKeyFromURLRejectsUnusable(t *testing.T) {
	u := NewMinioUploader(nil, "bucket", "https://cdn.example.com", "", "")

	if _, err := u.KeyFromURL("https://cdn.example.com"); err == nil {
		t.Error("expected error for URL without a path")
	}
}
