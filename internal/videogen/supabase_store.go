package videogen

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/supabase-community/postgrest-go"
	supa "github.com/supabase-community/supabase-go"

	"gradereel/api-gateway/models"
)

// SupabaseStore implements Store over the Supabase PostgREST API. The videos
// table carries a unique index on student_deployment_id; a violated
// constraint surfaces as models.ErrAlreadyExists so the service can treat a
// lost create race as "already exists".
type SupabaseStore struct {
	client *supa.Client
}

// NewSupabaseStore wraps an initialized Supabase client.
func NewSupabaseStore(client *supa.Client) *SupabaseStore {
	return &SupabaseStore{client: client}
}

func (s *SupabaseStore) GetVideo(_ context.Context, id uuid.UUID) (*models.Video, error) {
	var video models.Video
	_, err := s.client.From("videos").
		Select("*", "", false).
		Eq("id", id.String()).
		Single().
		ExecuteTo(&video)
	if err != nil {
		return nil, translateErr(err, "fetching video")
	}
	return &video, nil
}

func (s *SupabaseStore) GetVideoByDeployment(_ context.Context, deploymentID int) (*models.Video, error) {
	var video models.Video
	_, err := s.client.From("videos").
		Select("*", "", false).
		Eq("student_deployment_id", strconv.Itoa(deploymentID)).
		Single().
		ExecuteTo(&video)
	if err != nil {
		return nil, translateErr(err, "fetching video by deployment")
	}
	return &video, nil
}

func (s *SupabaseStore) GetVideoByRemoteID(_ context.Context, remoteID string) (*models.Video, error) {
	var video models.Video
	_, err := s.client.From("videos").
		Select("*", "", false).
		Eq("heygen_video_id", remoteID).
		Single().
		ExecuteTo(&video)
	if err != nil {
		return nil, translateErr(err, "fetching video by remote id")
	}
	return &video, nil
}

func (s *SupabaseStore) InsertVideo(_ context.Context, video *models.Video) (*models.Video, error) {
	body, _, err := s.client.From("videos").
		Insert(insertVideoRow(video), false, "", "representation", "").
		Execute()
	if err != nil {
		return nil, translateErr(err, "inserting video")
	}
	return firstRow[models.Video](body, "video")
}

func (s *SupabaseStore) UpdateVideo(_ context.Context, id uuid.UUID, fields map[string]interface{}) (*models.Video, error) {
	body, count, err := s.client.From("videos").
		Update(fields, "representation", "exact").
		Eq("id", id.String()).
		Execute()
	if err != nil {
		return nil, translateErr(err, "updating video")
	}
	if count == 0 {
		return nil, models.ErrNotFound
	}
	return firstRow[models.Video](body, "video")
}

func (s *SupabaseStore) DeleteVideo(_ context.Context, id uuid.UUID) error {
	_, _, err := s.client.From("videos").
		Delete("", "").
		Eq("id", id.String()).
		Execute()
	if err != nil {
		return translateErr(err, "deleting video")
	}
	return nil
}

func (s *SupabaseStore) GetScriptByDeployment(_ context.Context, deploymentID int) (*models.Script, error) {
	var script models.Script
	_, err := s.client.From("scripts").
		Select("*", "", false).
		Eq("student_deployment_id", strconv.Itoa(deploymentID)).
		Single().
		ExecuteTo(&script)
	if err != nil {
		return nil, translateErr(err, "fetching script")
	}
	return &script, nil
}

func (s *SupabaseStore) UpsertScript(_ context.Context, script *models.Script) (*models.Script, error) {
	// One active script per deployment: conflicting inserts overwrite.
	body, _, err := s.client.From("scripts").
		Insert(insertScriptRow(script), true, "student_deployment_id", "representation", "").
		Execute()
	if err != nil {
		return nil, translateErr(err, "upserting script")
	}
	return firstRow[models.Script](body, "script")
}

func (s *SupabaseStore) DeleteScript(_ context.Context, id uuid.UUID) error {
	_, _, err := s.client.From("scripts").
		Delete("", "").
		Eq("id", id.String()).
		Execute()
	if err != nil {
		return translateErr(err, "deleting script")
	}
	return nil
}

func (s *SupabaseStore) GetTemplateByPackage(_ context.Context, packageID int) (*models.VideoTemplate, error) {
	var tmpl models.VideoTemplate
	_, err := s.client.From("video_templates").
		Select("*", "", false).
		Eq("deployment_package_id", strconv.Itoa(packageID)).
		Eq("is_active", "true").
		Single().
		ExecuteTo(&tmpl)
	if err != nil {
		return nil, translateErr(err, "fetching template")
	}
	return &tmpl, nil
}

func (s *SupabaseStore) GetMappingRules(_ context.Context, templateID uuid.UUID) ([]models.MappingRule, error) {
	// Stable order: when two rules name the same variable the later row wins,
	// so resolution order must match creation order.
	var rules []models.MappingRule
	_, err := s.client.From("template_mappings").
		Select("*", "", false).
		Eq("template_id", templateID.String()).
		Order("created_at", &postgrest.OrderOpts{Ascending: true}).
		ExecuteTo(&rules)
	if err != nil {
		return nil, translateErr(err, "fetching mapping rules")
	}
	return rules, nil
}

// insertVideoRow strips server-managed columns from an insert.
func insertVideoRow(v *models.Video) map[string]interface{} {
	row := map[string]interface{}{
		"id":                    v.ID.String(),
		"student_deployment_id": v.StudentDeploymentID,
		"script_id":             v.ScriptID.String(),
		"status":                v.Status,
	}
	if v.CallbackID != nil {
		row["callback_id"] = *v.CallbackID
	}
	return row
}

func insertScriptRow(sc *models.Script) map[string]interface{} {
	row := map[string]interface{}{
		"id":                    sc.ID.String(),
		"student_deployment_id": sc.StudentDeploymentID,
		"prompt_used":           sc.PromptUsed,
		"scene_dialogue":        sc.SceneDialogue,
		"status":                sc.Status,
	}
	if sc.RawLLMResponse != nil {
		row["raw_llm_response"] = *sc.RawLLMResponse
	}
	return row
}

func firstRow[T any](body []byte, kind string) (*T, error) {
	var rows []T
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decoding %s rows: %w", kind, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no %s row returned", kind)
	}
	return &rows[0], nil
}

// translateErr maps PostgREST error shapes onto the store's sentinels.
// PGRST116 is "zero rows from a single-object select"; 23505 is Postgres'
// unique violation.
func translateErr(err error, action string) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "PGRST116"):
		return models.ErrNotFound
	case strings.Contains(msg, "23505") || strings.Contains(msg, "duplicate key"):
		return models.ErrAlreadyExists
	default:
		return fmt.Errorf("%s: %w", action, err)
	}
}
