package entities

import (
	"time"

	"github.com/google/uuid"
)

// RecordingManagement links a secret management key to a recording, with an
// optional contact channel for moderation correspondence. One row per
// recording, created in the upload transaction.
type RecordingManagement struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	RecordingID uuid.UUID `json:"recording_id" gorm:"type:uuid;not null;uniqueIndex"`
	Email       *string   `json:"email" gorm:"type:text"`
	CreatedAt   time.Time `json:"created_at" gorm:"type:timestamptz;not null;default:CURRENT_TIMESTAMP"`
}

func (RecordingManagement) TableName() string {
	return "recording_management"
}
