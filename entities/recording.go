package entities

import (
	"time"

	"github.com/google/uuid"
)

// Recording is the persisted metadata row for one uploaded voice recording.
// Soft-deleted rows keep their id, parent and timestamps for analytics but
// have name and the other PII columns cleared.
type Recording struct {
	ID         uuid.UUID  `json:"id" gorm:"type:uuid;primary_key"`
	URL        *string    `json:"url" gorm:"type:text"`
	MimeTypeID *int16     `json:"mime_type_id" gorm:"type:smallint"`
	CategoryID int16      `json:"category_id" gorm:"type:smallint;not null"`
	ParentID   *uuid.UUID `json:"parent_id" gorm:"type:uuid"`
	Name       *string    `json:"name" gorm:"type:text"`
	AgeID      *int16     `json:"age_id" gorm:"type:smallint"`
	GenderID   *int16     `json:"gender_id" gorm:"type:smallint"`
	Location   *string    `json:"location" gorm:"type:text"`
	Occupation *string    `json:"occupation" gorm:"type:text"`
	CreatedAt  time.Time  `json:"created_at" gorm:"type:timestamptz;not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt  time.Time  `json:"updated_at" gorm:"type:timestamptz;not null;default:CURRENT_TIMESTAMP"`
	DeletedAt  *time.Time `json:"deleted_at" gorm:"type:timestamptz"`
}

func (Recording) TableName() string {
	return "recordings"
}

func (r *Recording) IsDeleted() bool {
	return r.DeletedAt != nil
}

// RecordingDetail is a Recording joined with its lookup labels, used when
// returning a single recording to clients.
type RecordingDetail struct {
	Recording
	MimeEssence   *string `json:"mime_type" gorm:"column:mime_essence"`
	CategoryLabel *string `json:"category" gorm:"column:category_label"`
	AgeLabel      *string `json:"age" gorm:"column:age_label"`
	GenderLabel   *string `json:"gender" gorm:"column:gender_label"`
}

// PartialRecording is the minimal public view used by random sampling:
// name and location only.
type PartialRecording struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Location *string   `json:"location"`
}

// ChildRecording is the view of a recording that follows another.
type ChildRecording struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// NewRecording carries everything needed to create a recording row inside
// the token-consuming transaction. ID may be left as uuid.Nil to have the
// repository generate one.
type NewRecording struct {
	ID         uuid.UUID
	TokenID    uuid.UUID
	Name       string
	CategoryID int16
	AgeID      *int16
	GenderID   *int16
	Location   *string
	Occupation *string
	URL        string
	MimeTypeID int16

	// Email, if present, is stored on the management row for moderation
	// correspondence.
	Email *string

	// ChildTokens is the number of follow-up tokens to issue against the
	// new recording in the same transaction.
	ChildTokens int
}

// CreatedRecording is the outcome of a successful creation transaction.
type CreatedRecording struct {
	ID            uuid.UUID
	ParentID      uuid.UUID
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Tokens        []uuid.UUID
	ManagementKey uuid.UUID
}
