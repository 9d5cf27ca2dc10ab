package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"voicebank/entities"
	"voicebank/errs"
)

func TestIssueAndPeek(t *testing.T) {
	repo := newFakeRepo()
	tokens := NewTokenManager(repo)
	parentID := uuid.New()

	issued, err := tokens.Issue(context.Background(), parentID)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if issued.ParentID != parentID {
		t.Errorf("ParentID = %s, want %s", issued.ParentID, parentID)
	}

	peeked, err := tokens.Peek(context.Background(), issued.ID)
	if err != nil {
		t.Fatalf("Peek: %v", err)
	}
	if peeked.ID != issued.ID {
		t.Errorf("Peek returned %s, want %s", peeked.ID, issued.ID)
	}
}

func TestPeekUnknownToken(t *testing.T) {
	tokens := NewTokenManager(newFakeRepo())

	_, err := tokens.Peek(context.Background(), uuid.New())
	if !errors.Is(err, errs.ErrTokenNotFound) {
		t.Fatalf("err = %v, want ErrTokenNotFound", err)
	}
}

func TestTokenUsable(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	for _, tc := range []struct {
		name      string
		validFrom *time.Time
		want      bool
	}{
		{"no activation time", nil, true},
		{"activated in the past", &past, true},
		{"activates in the future", &future, false},
		{"activates exactly now", &now, true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			token := entities.RecordingToken{ID: uuid.New(), ValidFrom: tc.validFrom}
			if got := token.Usable(now); got != tc.want {
				t.Errorf("Usable = %v, want %v", got, tc.want)
			}
		})
	}
}
