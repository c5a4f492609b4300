package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// VideoStatus is the lifecycle state of a feedback video.
type VideoStatus string

const (
	VideoStatusNotSubmitted VideoStatus = "NOT_SUBMITTED"
	VideoStatusProcessing   VideoStatus = "PROCESSING"
	VideoStatusRegenerating VideoStatus = "REGENERATING"
	VideoStatusCompleted    VideoStatus = "COMPLETED"
	VideoStatusFailed       VideoStatus = "FAILED"
)

// Video is the generation resource exposed to callers. At most one video
// exists per student deployment (unique index on student_deployment_id).
//
// Invariants: VideoURL is set only when status is COMPLETED; HeygenVideoID is
// set only after a submission attempt (PROCESSING, COMPLETED or FAILED).
type Video struct {
	ID                  uuid.UUID       `json:"id"`
	StudentDeploymentID int             `json:"student_deployment_id"`
	ScriptID            uuid.UUID       `json:"script_id"`
	HeygenVideoID       *string         `json:"heygen_video_id,omitempty"`
	VideoURL            *string         `json:"video_url,omitempty"`
	Status              VideoStatus     `json:"status"`
	CallbackID          *string         `json:"callback_id,omitempty"`
	HeygenResponse      json.RawMessage `json:"heygen_response,omitempty"` // raw provider response, JSONB
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}
