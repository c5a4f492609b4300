// Package videogen orchestrates the lifecycle of a feedback video: gathering
// grading data, generating the narration script, building the provider
// payload, submitting the generation request, and reconciling the provider's
// asynchronous webhook result.
package videogen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"gradereel/api-gateway/internal/heygen"
	"gradereel/api-gateway/internal/mapping"
	"gradereel/api-gateway/internal/stats"
	"gradereel/api-gateway/models"
)

// Store is the application database surface the orchestrator needs.
// Implementations must enforce uniqueness of student_deployment_id on videos
// and report a violated constraint as models.ErrAlreadyExists.
type Store interface {
	GetVideo(ctx context.Context, id uuid.UUID) (*models.Video, error)
	GetVideoByDeployment(ctx context.Context, deploymentID int) (*models.Video, error)
	GetVideoByRemoteID(ctx context.Context, remoteID string) (*models.Video, error)
	InsertVideo(ctx context.Context, video *models.Video) (*models.Video, error)
	UpdateVideo(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (*models.Video, error)
	DeleteVideo(ctx context.Context, id uuid.UUID) error

	GetScriptByDeployment(ctx context.Context, deploymentID int) (*models.Script, error)
	UpsertScript(ctx context.Context, script *models.Script) (*models.Script, error)
	DeleteScript(ctx context.Context, id uuid.UUID) error

	GetTemplateByPackage(ctx context.Context, packageID int) (*models.VideoTemplate, error)
	GetMappingRules(ctx context.Context, templateID uuid.UUID) ([]models.MappingRule, error)
}

// GradingSource reads grading data for a deployment.
type GradingSource interface {
	DeploymentDetails(ctx context.Context, deploymentID int) (*models.StudentDeploymentDetails, error)
	CohortScores(ctx context.Context, cohortID, packageID int) ([]float64, error)
}

// ScriptGenerator produces scene dialogue from a prompt template and grading
// data. Possibly slow; always called with a request-scoped context.
type ScriptGenerator interface {
	Generate(ctx context.Context, promptTemplate string, data *models.ScriptPromptData) (models.SceneDialogue, string, error)
}

// Provider is the remote submission protocol: template metadata, generation,
// and best-effort deletion.
type Provider interface {
	TemplateVariables(ctx context.Context, templateID string) ([]string, error)
	Generate(ctx context.Context, templateID string, payload heygen.GeneratePayload) (*heygen.GenerateResult, error)
	DeleteVideo(ctx context.Context, videoID string) error
}

// Options are the fixed submission settings threaded in from configuration.
type Options struct {
	Production    bool
	TestMode      bool
	Caption       bool
	EnableSharing bool
	IncludeGIF    bool
	FolderID      string
	BrandVoiceID  string
}

// Service drives a video from "no video exists" through submission. Each
// operation is one logical sequence of steps; the only concurrency is the
// provider's out-of-band webhook, which the Reconciler handles.
type Service struct {
	store    Store
	grading  GradingSource
	scripts  ScriptGenerator
	provider Provider
	engine   *mapping.Engine
	opts     Options
	log      *logrus.Logger
}

// NewService wires the orchestrator.
func NewService(store Store, grading GradingSource, scripts ScriptGenerator, provider Provider, engine *mapping.Engine, opts Options, log *logrus.Logger) *Service {
	return &Service{
		store:    store,
		grading:  grading,
		scripts:  scripts,
		provider: provider,
		engine:   engine,
		opts:     opts,
		log:      log,
	}
}

// Create generates a video for the deployment. Idempotent at the resource
// level: when a video already exists it is returned unchanged, with no new
// script generation and no new submission.
func (s *Service) Create(ctx context.Context, deploymentID int) (*models.Video, error) {
	existing, err := s.store.GetVideoByDeployment(ctx, deploymentID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	details, err := s.grading.DeploymentDetails(ctx, deploymentID)
	if err != nil {
		return nil, err
	}
	tmpl, err := s.store.GetTemplateByPackage(ctx, details.Package.ID)
	if err != nil {
		return nil, err
	}

	promptData := s.buildPromptData(ctx, details)
	script, err := s.generateScript(ctx, tmpl, promptData)
	if err != nil {
		return nil, err
	}

	callbackID := uuid.NewString()
	video := &models.Video{
		ID:                  uuid.New(),
		StudentDeploymentID: deploymentID,
		ScriptID:            script.ID,
		Status:              models.VideoStatusNotSubmitted,
		CallbackID:          &callbackID,
	}
	created, err := s.store.InsertVideo(ctx, video)
	if errors.Is(err, models.ErrAlreadyExists) {
		// Lost a create race; the winner's resource is the resource.
		return s.store.GetVideoByDeployment(ctx, deploymentID)
	}
	if err != nil {
		return nil, err
	}

	return s.submit(ctx, created, tmpl, script, promptData)
}

// Replace regenerates everything for an existing video: new script, new
// submission. The previous remote video is deleted best-effort.
func (s *Service) Replace(ctx context.Context, videoID uuid.UUID) (*models.Video, error) {
	video, err := s.store.GetVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}

	s.deleteRemote(ctx, video)

	video, err = s.store.UpdateVideo(ctx, video.ID, map[string]interface{}{
		"status":          models.VideoStatusRegenerating,
		"heygen_video_id": nil,
		"video_url":       nil,
		"heygen_response": nil,
	})
	if err != nil {
		return nil, err
	}

	details, err := s.grading.DeploymentDetails(ctx, video.StudentDeploymentID)
	if err != nil {
		return nil, err
	}
	tmpl, err := s.store.GetTemplateByPackage(ctx, details.Package.ID)
	if err != nil {
		return nil, err
	}

	promptData := s.buildPromptData(ctx, details)
	script, err := s.generateScript(ctx, tmpl, promptData)
	if err != nil {
		return nil, err
	}
	video, err = s.store.UpdateVideo(ctx, video.ID, map[string]interface{}{"script_id": script.ID})
	if err != nil {
		return nil, err
	}

	return s.submit(ctx, video, tmpl, script, promptData)
}

// Patch resubmits an existing video, optionally reusing its current script.
// When reuse is requested but the script row is gone, a new one is generated.
func (s *Service) Patch(ctx context.Context, videoID uuid.UUID, reuseScript bool) (*models.Video, error) {
	video, err := s.store.GetVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}

	s.deleteRemote(ctx, video)

	video, err = s.store.UpdateVideo(ctx, video.ID, map[string]interface{}{
		"status":          models.VideoStatusRegenerating,
		"heygen_video_id": nil,
		"video_url":       nil,
	})
	if err != nil {
		return nil, err
	}

	details, err := s.grading.DeploymentDetails(ctx, video.StudentDeploymentID)
	if err != nil {
		return nil, err
	}
	tmpl, err := s.store.GetTemplateByPackage(ctx, details.Package.ID)
	if err != nil {
		return nil, err
	}
	promptData := s.buildPromptData(ctx, details)

	var script *models.Script
	if reuseScript {
		script, err = s.store.GetScriptByDeployment(ctx, video.StudentDeploymentID)
		if err != nil && !errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
	}
	if script == nil {
		script, err = s.generateScript(ctx, tmpl, promptData)
		if err != nil {
			return nil, err
		}
		video, err = s.store.UpdateVideo(ctx, video.ID, map[string]interface{}{"script_id": script.ID})
		if err != nil {
			return nil, err
		}
	}

	return s.submit(ctx, video, tmpl, script, promptData)
}

// Delete removes the video and its script. The remote delete is best-effort;
// local cleanup is the contract's guarantee.
func (s *Service) Delete(ctx context.Context, videoID uuid.UUID) error {
	video, err := s.store.GetVideo(ctx, videoID)
	if err != nil {
		return err
	}

	s.deleteRemote(ctx, video)

	if err := s.store.DeleteScript(ctx, video.ScriptID); err != nil && !errors.Is(err, models.ErrNotFound) {
		return err
	}
	return s.store.DeleteVideo(ctx, video.ID)
}

// Get reads a video by id.
func (s *Service) Get(ctx context.Context, videoID uuid.UUID) (*models.Video, error) {
	return s.store.GetVideo(ctx, videoID)
}

// buildPromptData assembles the script prompt dataset, attaching the cohort
// comparison when the student has a graded accuracy score. A failed cohort
// lookup degrades to "no comparison" rather than blocking generation.
func (s *Service) buildPromptData(ctx context.Context, details *models.StudentDeploymentDetails) *models.ScriptPromptData {
	data := &models.ScriptPromptData{DeploymentDetails: *details}
	if details.Deployment.AccScore == nil {
		return data
	}

	scores, err := s.grading.CohortScores(ctx, details.Cohort.ID, details.Package.ID)
	if err != nil {
		s.log.WithField("deployment_id", details.Deployment.ID).Warnf("Cohort scores unavailable: %v", err)
		return data
	}
	data.CohortComparison = stats.CompareToCohort(*details.Deployment.AccScore, scores)
	return data
}

// generateScript runs the LLM and upserts the deployment's single script row.
// Generating twice for the same deployment overwrites, never accumulates.
func (s *Service) generateScript(ctx context.Context, tmpl *models.VideoTemplate, data *models.ScriptPromptData) (*models.Script, error) {
	dialogue, raw, err := s.scripts.Generate(ctx, tmpl.PromptTemplate, data)
	if err != nil {
		return nil, fmt.Errorf("generating script: %w", err)
	}

	script := &models.Script{
		ID:                  uuid.New(),
		StudentDeploymentID: data.DeploymentDetails.Deployment.ID,
		PromptUsed:          tmpl.PromptTemplate,
		SceneDialogue:       dialogue,
		RawLLMResponse:      &raw,
		Status:              models.ScriptStatusComplete,
	}
	return s.store.UpsertScript(ctx, script)
}

// submit builds and sends the provider payload, then records the outcome in
// a single state transition: PROCESSING with the remote id on success,
// FAILED with the raw error otherwise. Submission failure is recorded, not
// returned — callers read the outcome off the resource.
func (s *Service) submit(ctx context.Context, video *models.Video, tmpl *models.VideoTemplate, script *models.Script, data *models.ScriptPromptData) (*models.Video, error) {
	var callbackID string
	if video.CallbackID != nil {
		callbackID = *video.CallbackID
	}

	payload, err := s.buildPayload(ctx, tmpl, script, data, callbackID)
	if err != nil {
		return s.recordFailure(ctx, video, err)
	}

	result, err := s.provider.Generate(ctx, tmpl.HeygenTemplateID, payload)
	if err != nil {
		return s.recordFailure(ctx, video, err)
	}

	s.log.WithFields(logrus.Fields{
		"video_id":        video.ID,
		"heygen_video_id": result.VideoID,
	}).Info("Video submitted to HeyGen")

	return s.store.UpdateVideo(ctx, video.ID, map[string]interface{}{
		"status":          models.VideoStatusProcessing,
		"heygen_video_id": result.VideoID,
		"heygen_response": result.Raw,
	})
}

func (s *Service) recordFailure(ctx context.Context, video *models.Video, cause error) (*models.Video, error) {
	s.log.WithField("video_id", video.ID).Errorf("Video submission failed: %v", cause)

	raw, _ := json.Marshal(map[string]string{"error": cause.Error()})
	return s.store.UpdateVideo(ctx, video.ID, map[string]interface{}{
		"status":          models.VideoStatusFailed,
		"heygen_response": json.RawMessage(raw),
	})
}

// deleteRemote removes the provider-side video if one exists. Failures are
// logged and swallowed; replace, patch and delete proceed regardless.
func (s *Service) deleteRemote(ctx context.Context, video *models.Video) {
	if video.HeygenVideoID == nil || *video.HeygenVideoID == "" {
		return
	}
	if err := s.provider.DeleteVideo(ctx, *video.HeygenVideoID); err != nil {
		s.log.WithFields(logrus.Fields{
			"video_id":        video.ID,
			"heygen_video_id": *video.HeygenVideoID,
		}).Warnf("Best-effort remote delete failed: %v", err)
	}
}
