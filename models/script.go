package models

import (
	"time"

	"github.com/google/uuid"
)

// ScriptStatus is the lifecycle state of a generated narration script.
type ScriptStatus string

const (
	ScriptStatusPending  ScriptStatus = "PENDING"
	ScriptStatusComplete ScriptStatus = "COMPLETE"
	ScriptStatusFailed   ScriptStatus = "FAILED"
)

// SceneDialogue maps a scene id to its named text fields, e.g.
// {"scene_1": {"dialogue": "Hi Ada! ..."}}.
type SceneDialogue map[string]map[string]string

// Script is the generated narration for one deployment's feedback video.
// One active script per deployment: regeneration overwrites the row.
type Script struct {
	ID                  uuid.UUID     `json:"id"`
	StudentDeploymentID int           `json:"student_deployment_id"`
	PromptUsed          string        `json:"prompt_used"`
	SceneDialogue       SceneDialogue `json:"scene_dialogue"` // JSONB
	RawLLMResponse      *string       `json:"raw_llm_response,omitempty"`
	Status              ScriptStatus  `json:"status"`
	CreatedAt           time.Time     `json:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at"`
}

// ContextMap exposes the script to the mapping engine as a key-value tree so
// rules can address individual scene fields, e.g.
// "scene_dialogue.scene_1.dialogue".
func (s *Script) ContextMap() map[string]interface{} {
	scenes := make(map[string]interface{}, len(s.SceneDialogue))
	for sceneID, fields := range s.SceneDialogue {
		scene := make(map[string]interface{}, len(fields))
		for name, text := range fields {
			scene[name] = text
		}
		scenes[sceneID] = scene
	}
	return map[string]interface{}{
		"id":                    s.ID.String(),
		"student_deployment_id": s.StudentDeploymentID,
		"status":                string(s.Status),
		"scene_dialogue":        scenes,
	}
}
