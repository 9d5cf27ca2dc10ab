package dto

import (
	"time"

	"github.com/google/uuid"

	"voicebank/entities"
)

// UploadMetadata is the JSON metadata part of a multipart upload
// submission.
type UploadMetadata struct {
	Token      uuid.UUID `json:"token"`
	Name       string    `json:"name"`
	CategoryID int16     `json:"category_id"`
	AgeID      *int16    `json:"age_id"`
	GenderID   *int16    `json:"gender_id"`
	Location   *string   `json:"location"`
	Occupation *string   `json:"occupation"`
	Email      *string   `json:"email"`
}

type TokenResponse struct {
	ID       string `json:"id"`
	ParentID string `json:"parent_id"`
}

type UploadResponse struct {
	ID     string      `json:"id"`
	Tokens []uuid.UUID `json:"tokens"`
	Key    uuid.UUID   `json:"key"`
}

type RandomResponse struct {
	Recordings []entities.PartialRecording `json:"recordings"`
}

type ChildrenResponse struct {
	Parent   string                    `json:"parent"`
	Children []entities.ChildRecording `json:"children"`
}

type CountResponse struct {
	Count int64 `json:"count"`
}

// ActiveRecordingResponse is the public shape of a live recording.
type ActiveRecordingResponse struct {
	ID         uuid.UUID  `json:"id"`
	URL        string     `json:"url"`
	MimeType   string     `json:"mime_type"`
	Category   string     `json:"category"`
	ParentID   *uuid.UUID `json:"parent_id"`
	Name       string     `json:"name"`
	Age        *string    `json:"age"`
	Gender     *string    `json:"gender"`
	Location   *string    `json:"location"`
	Occupation *string    `json:"occupation"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// DeletedRecordingResponse is what remains visible of a soft-deleted
// recording: no name, no PII.
type DeletedRecordingResponse struct {
	ID        uuid.UUID  `json:"id"`
	ParentID  *uuid.UUID `json:"parent_id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func FromDetail(d *entities.RecordingDetail) any {
	if d.IsDeleted() {
		return DeletedRecordingResponse{
			ID:        d.ID,
			ParentID:  d.ParentID,
			CreatedAt: d.CreatedAt,
			UpdatedAt: d.UpdatedAt,
		}
	}

	resp := ActiveRecordingResponse{
		ID:         d.ID,
		ParentID:   d.ParentID,
		Location:   d.Location,
		Occupation: d.Occupation,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
		Age:        d.AgeLabel,
		Gender:     d.GenderLabel,
	}
	if d.Name != nil {
		resp.Name = *d.Name
	}
	if d.URL != nil {
		resp.URL = *d.URL
	}
	if d.MimeEssence != nil {
		resp.MimeType = *d.MimeEssence
	}
	if d.CategoryLabel != nil {
		resp.Category = *d.CategoryLabel
	}
	return resp
}

// ModerationEvent is published to the moderation exchange after a recording
// is created or soft-deleted. It deliberately carries no PII.
type ModerationEvent struct {
	RecordingID uuid.UUID  `json:"recordingId"`
	ParentID    *uuid.UUID `json:"parentId,omitempty"`
	Action      string     `json:"action"`
	OccurredAt  time.Time  `json:"occurredAt"`
}
