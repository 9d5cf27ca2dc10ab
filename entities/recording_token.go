package entities

import (
	"time"

	"github.com/google/uuid"
)

// RecordingToken is a single-use credential authorizing exactly one upload
// against its parent recording. Existence equals validity; consumption
// deletes the row inside the same transaction that inserts the new
// recording. ValidFrom, when set, schedules future activation: the token
// exists but cannot be consumed before that time.
type RecordingToken struct {
	ID        uuid.UUID  `json:"id" gorm:"type:uuid;primary_key"`
	ParentID  uuid.UUID  `json:"parent_id" gorm:"type:uuid;not null"`
	ValidFrom *time.Time `json:"valid_from" gorm:"type:timestamptz"`
}

func (RecordingToken) TableName() string {
	return "recording_tokens"
}

func (t *RecordingToken) Usable(now time.Time) bool {
	return t.ValidFrom == nil || !t.ValidFrom.After(now)
}
