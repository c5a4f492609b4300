package videogen

import (
	"context"
	"encoding/json"
	"io"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"gradereel/api-gateway/internal/heygen"
	"gradereel/api-gateway/models"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// fakeStore is an in-memory Store that mimics the database constraints the
// orchestrator relies on: one video and one script per deployment.
type fakeStore struct {
	videos    map[uuid.UUID]*models.Video
	scripts   map[uuid.UUID]*models.Script
	templates map[int]*models.VideoTemplate
	rules     map[uuid.UUID][]models.MappingRule

	insertVideoCalls int
	upsertCalls      int
	deploymentMisses int // pending GetVideoByDeployment calls to answer ErrNotFound
	insertErr        error
	updateErr        error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		videos:    make(map[uuid.UUID]*models.Video),
		scripts:   make(map[uuid.UUID]*models.Script),
		templates: make(map[int]*models.VideoTemplate),
		rules:     make(map[uuid.UUID][]models.MappingRule),
	}
}

func (f *fakeStore) GetVideo(_ context.Context, id uuid.UUID) (*models.Video, error) {
	if v, ok := f.videos[id]; ok {
		copied := *v
		return &copied, nil
	}
	return nil, models.ErrNotFound
}

func (f *fakeStore) GetVideoByDeployment(_ context.Context, deploymentID int) (*models.Video, error) {
	if f.deploymentMisses > 0 {
		f.deploymentMisses--
		return nil, models.ErrNotFound
	}
	for _, v := range f.videos {
		if v.StudentDeploymentID == deploymentID {
			copied := *v
			return &copied, nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *fakeStore) GetVideoByRemoteID(_ context.Context, remoteID string) (*models.Video, error) {
	for _, v := range f.videos {
		if v.HeygenVideoID != nil && *v.HeygenVideoID == remoteID {
			copied := *v
			return &copied, nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *fakeStore) InsertVideo(_ context.Context, video *models.Video) (*models.Video, error) {
	f.insertVideoCalls++
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	for _, v := range f.videos {
		if v.StudentDeploymentID == video.StudentDeploymentID {
			return nil, models.ErrAlreadyExists
		}
	}
	copied := *video
	f.videos[video.ID] = &copied
	returned := copied
	return &returned, nil
}

func (f *fakeStore) UpdateVideo(_ context.Context, id uuid.UUID, fields map[string]interface{}) (*models.Video, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	v, ok := f.videos[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	for name, value := range fields {
		switch name {
		case "status":
			v.Status = value.(models.VideoStatus)
		case "heygen_video_id":
			v.HeygenVideoID = optString(value)
		case "video_url":
			v.VideoURL = optString(value)
		case "callback_id":
			v.CallbackID = optString(value)
		case "script_id":
			v.ScriptID = value.(uuid.UUID)
		case "heygen_response":
			if value == nil {
				v.HeygenResponse = nil
			} else {
				v.HeygenResponse = value.(json.RawMessage)
			}
		}
	}
	copied := *v
	return &copied, nil
}

func optString(value interface{}) *string {
	if value == nil {
		return nil
	}
	s := value.(string)
	return &s
}

func (f *fakeStore) DeleteVideo(_ context.Context, id uuid.UUID) error {
	if _, ok := f.videos[id]; !ok {
		return models.ErrNotFound
	}
	delete(f.videos, id)
	return nil
}

func (f *fakeStore) GetScriptByDeployment(_ context.Context, deploymentID int) (*models.Script, error) {
	for _, s := range f.scripts {
		if s.StudentDeploymentID == deploymentID {
			copied := *s
			return &copied, nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *fakeStore) UpsertScript(_ context.Context, script *models.Script) (*models.Script, error) {
	f.upsertCalls++
	for id, s := range f.scripts {
		if s.StudentDeploymentID == script.StudentDeploymentID {
			delete(f.scripts, id)
		}
	}
	copied := *script
	f.scripts[script.ID] = &copied
	returned := copied
	return &returned, nil
}

func (f *fakeStore) DeleteScript(_ context.Context, id uuid.UUID) error {
	if _, ok := f.scripts[id]; !ok {
		return models.ErrNotFound
	}
	delete(f.scripts, id)
	return nil
}

func (f *fakeStore) GetTemplateByPackage(_ context.Context, packageID int) (*models.VideoTemplate, error) {
	if t, ok := f.templates[packageID]; ok {
		copied := *t
		return &copied, nil
	}
	return nil, models.ErrNotFound
}

func (f *fakeStore) GetMappingRules(_ context.Context, templateID uuid.UUID) ([]models.MappingRule, error) {
	return f.rules[templateID], nil
}

type fakeGrading struct {
	details    *models.StudentDeploymentDetails
	detailsErr error
	scores     []float64
	scoresErr  error
}

func (f *fakeGrading) DeploymentDetails(_ context.Context, _ int) (*models.StudentDeploymentDetails, error) {
	if f.detailsErr != nil {
		return nil, f.detailsErr
	}
	copied := *f.details
	return &copied, nil
}

func (f *fakeGrading) CohortScores(_ context.Context, _, _ int) ([]float64, error) {
	return f.scores, f.scoresErr
}

type fakeScriptGen struct {
	dialogue models.SceneDialogue
	raw      string
	err      error
	calls    int
}

func (f *fakeScriptGen) Generate(_ context.Context, _ string, _ *models.ScriptPromptData) (models.SceneDialogue, string, error) {
	f.calls++
	if f.err != nil {
		return nil, "", f.err
	}
	return f.dialogue, f.raw, nil
}

type fakeProvider struct {
	declared []string
	varsErr  error

	result      *heygen.GenerateResult
	generateErr error

	deleteErr error

	generateCalls int
	deleteCalls   int
	lastTemplate  string
	lastPayload   heygen.GeneratePayload
	deletedIDs    []string
}

func (f *fakeProvider) TemplateVariables(_ context.Context, _ string) ([]string, error) {
	if f.varsErr != nil {
		return nil, f.varsErr
	}
	return f.declared, nil
}

func (f *fakeProvider) Generate(_ context.Context, templateID string, payload heygen.GeneratePayload) (*heygen.GenerateResult, error) {
	f.generateCalls++
	f.lastTemplate = templateID
	f.lastPayload = payload
	if f.generateErr != nil {
		return nil, f.generateErr
	}
	return f.result, nil
}

func (f *fakeProvider) DeleteVideo(_ context.Context, videoID string) error {
	f.deleteCalls++
	f.deletedIDs = append(f.deletedIDs, videoID)
	return f.deleteErr
}
