package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gradereel/api-gateway/internal/videogen"
	"gradereel/api-gateway/models"
)

type fakeVideoService struct {
	video *models.Video
	err   error

	createDeploymentID int
	patchReuse         bool
	patchCalled        bool
	deleteCalled       bool
}

func (f *fakeVideoService) Create(_ context.Context, deploymentID int) (*models.Video, error) {
	f.createDeploymentID = deploymentID
	return f.video, f.err
}

func (f *fakeVideoService) Get(_ context.Context, _ uuid.UUID) (*models.Video, error) {
	return f.video, f.err
}

func (f *fakeVideoService) Replace(_ context.Context, _ uuid.UUID) (*models.Video, error) {
	return f.video, f.err
}

func (f *fakeVideoService) Patch(_ context.Context, _ uuid.UUID, reuseScript bool) (*models.Video, error) {
	f.patchCalled = true
	f.patchReuse = reuseScript
	return f.video, f.err
}

func (f *fakeVideoService) Delete(_ context.Context, _ uuid.UUID) error {
	f.deleteCalled = true
	return f.err
}

type fakeReconciler struct {
	applied bool
	event   videogen.WebhookEvent
	called  bool
}

func (f *fakeReconciler) Apply(_ context.Context, event videogen.WebhookEvent) bool {
	f.called = true
	f.event = event
	return f.applied
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func testApp(videos VideoService, reconciler WebhookReconciler, secret string) *fiber.App {
	handler := NewApplicationHandler(videos, reconciler, quietLogger(), secret)

	app := fiber.New()
	app.Post("/api/v1/videos", handler.CreateVideo)
	app.Get("/api/v1/videos/:videoId", handler.GetVideo)
	app.Put("/api/v1/videos/:videoId", handler.ReplaceVideo)
	app.Patch("/api/v1/videos/:videoId", handler.PatchVideo)
	app.Delete("/api/v1/videos/:videoId", handler.DeleteVideo)
	app.Post("/api/v1/webhooks/heygen", handler.HandleHeyGenWebhook)
	return app
}

func jsonRequest(method, target string, body string) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeEnvelope(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	var envelope map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	return envelope
}

func sampleVideo() *models.Video {
	return &models.Video{
		ID:                  uuid.New(),
		StudentDeploymentID: 500,
		ScriptID:            uuid.New(),
		Status:              models.VideoStatusProcessing,
	}
}

func TestCreateVideoHandler(t *testing.T) {
	t.Run("creates and returns 201", func(t *testing.T) {
		service := &fakeVideoService{video: sampleVideo()}
		app := testApp(service, &fakeReconciler{}, "")

		resp, err := app.Test(jsonRequest(http.MethodPost, "/api/v1/videos", `{"student_deployment_id": 500}`))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
		assert.Equal(t, 500, service.createDeploymentID)

		envelope := decodeEnvelope(t, resp)
		assert.Equal(t, "success", envelope["status"])
		data := envelope["data"].(map[string]interface{})
		assert.Equal(t, "PROCESSING", data["status"])
	})

	t.Run("rejects a missing deployment id", func(t *testing.T) {
		app := testApp(&fakeVideoService{}, &fakeReconciler{}, "")

		resp, err := app.Test(jsonRequest(http.MethodPost, "/api/v1/videos", `{}`))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		app := testApp(&fakeVideoService{}, &fakeReconciler{}, "")

		resp, err := app.Test(jsonRequest(http.MethodPost, "/api/v1/videos", `{"student_deployment_id":`))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("unknown deployment is 404", func(t *testing.T) {
		app := testApp(&fakeVideoService{err: models.ErrNotFound}, &fakeReconciler{}, "")

		resp, err := app.Test(jsonRequest(http.MethodPost, "/api/v1/videos", `{"student_deployment_id": 999}`))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})

	t.Run("internal failure is 500", func(t *testing.T) {
		app := testApp(&fakeVideoService{err: assert.AnError}, &fakeReconciler{}, "")

		resp, err := app.Test(jsonRequest(http.MethodPost, "/api/v1/videos", `{"student_deployment_id": 500}`))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	})
}

func TestGetVideoHandler(t *testing.T) {
	t.Run("returns the video", func(t *testing.T) {
		video := sampleVideo()
		app := testApp(&fakeVideoService{video: video}, &fakeReconciler{}, "")

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/videos/"+video.ID.String(), nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		envelope := decodeEnvelope(t, resp)
		data := envelope["data"].(map[string]interface{})
		assert.Equal(t, video.ID.String(), data["id"])
	})

	t.Run("rejects a malformed id", func(t *testing.T) {
		app := testApp(&fakeVideoService{}, &fakeReconciler{}, "")

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/videos/not-a-uuid", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("unknown id is 404", func(t *testing.T) {
		app := testApp(&fakeVideoService{err: models.ErrNotFound}, &fakeReconciler{}, "")

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/videos/"+uuid.NewString(), nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})
}

func TestPatchVideoHandler(t *testing.T) {
	t.Run("forwards reuse_script", func(t *testing.T) {
		service := &fakeVideoService{video: sampleVideo()}
		app := testApp(service, &fakeReconciler{}, "")

		resp, err := app.Test(jsonRequest(http.MethodPatch, "/api/v1/videos/"+uuid.NewString(), `{"reuse_script": true}`))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.True(t, service.patchCalled)
		assert.True(t, service.patchReuse)
	})

	t.Run("reuse_script defaults to false", func(t *testing.T) {
		service := &fakeVideoService{video: sampleVideo()}
		app := testApp(service, &fakeReconciler{}, "")

		resp, err := app.Test(jsonRequest(http.MethodPatch, "/api/v1/videos/"+uuid.NewString(), `{}`))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.True(t, service.patchCalled)
		assert.False(t, service.patchReuse)
	})
}

func TestReplaceVideoHandler(t *testing.T) {
	t.Run("unknown id is 404", func(t *testing.T) {
		app := testApp(&fakeVideoService{err: models.ErrNotFound}, &fakeReconciler{}, "")

		resp, err := app.Test(httptest.NewRequest(http.MethodPut, "/api/v1/videos/"+uuid.NewString(), nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})

	t.Run("returns the resubmitted video", func(t *testing.T) {
		app := testApp(&fakeVideoService{video: sampleVideo()}, &fakeReconciler{}, "")

		resp, err := app.Test(httptest.NewRequest(http.MethodPut, "/api/v1/videos/"+uuid.NewString(), nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})
}

func TestDeleteVideoHandler(t *testing.T) {
	t.Run("deletes and confirms", func(t *testing.T) {
		service := &fakeVideoService{}
		app := testApp(service, &fakeReconciler{}, "")

		resp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/api/v1/videos/"+uuid.NewString(), nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.True(t, service.deleteCalled)

		envelope := decodeEnvelope(t, resp)
		data := envelope["data"].(map[string]interface{})
		assert.Equal(t, true, data["deleted"])
	})

	t.Run("unknown id is 404", func(t *testing.T) {
		app := testApp(&fakeVideoService{err: models.ErrNotFound}, &fakeReconciler{}, "")

		resp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/api/v1/videos/"+uuid.NewString(), nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})
}
