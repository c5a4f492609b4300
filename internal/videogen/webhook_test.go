package videogen

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gradereel/api-gateway/models"
)

func TestReconcilerApply(t *testing.T) {
	t.Run("success event completes the video", func(t *testing.T) {
		f := newFixture()
		seeded := f.seedVideo(models.VideoStatusProcessing, "remote-123")
		reconciler := NewReconciler(f.store, testLogger())

		applied := reconciler.Apply(context.Background(), WebhookEvent{
			EventType:  EventAvatarVideoSuccess,
			VideoID:    "remote-123",
			URL:        "https://resource.heygen.ai/video.mp4",
			CallbackID: "cb-99",
		})
		require.True(t, applied)

		video, err := f.store.GetVideo(context.Background(), seeded.ID)
		require.NoError(t, err)
		assert.Equal(t, models.VideoStatusCompleted, video.Status)
		require.NotNil(t, video.VideoURL)
		assert.Equal(t, "https://resource.heygen.ai/video.mp4", *video.VideoURL)
		require.NotNil(t, video.CallbackID)
		assert.Equal(t, "cb-99", *video.CallbackID)
	})

	t.Run("success event without callback keeps the stored one", func(t *testing.T) {
		f := newFixture()
		seeded := f.seedVideo(models.VideoStatusProcessing, "remote-123")
		original := *seeded.CallbackID
		reconciler := NewReconciler(f.store, testLogger())

		applied := reconciler.Apply(context.Background(), WebhookEvent{
			EventType: EventAvatarVideoSuccess,
			VideoID:   "remote-123",
			URL:       "https://resource.heygen.ai/video.mp4",
		})
		require.True(t, applied)

		video, err := f.store.GetVideo(context.Background(), seeded.ID)
		require.NoError(t, err)
		require.NotNil(t, video.CallbackID)
		assert.Equal(t, original, *video.CallbackID)
	})

	t.Run("fail event marks the video failed", func(t *testing.T) {
		f := newFixture()
		seeded := f.seedVideo(models.VideoStatusProcessing, "remote-123")
		reconciler := NewReconciler(f.store, testLogger())

		applied := reconciler.Apply(context.Background(), WebhookEvent{
			EventType: EventAvatarVideoFail,
			VideoID:   "remote-123",
		})
		require.True(t, applied)

		video, err := f.store.GetVideo(context.Background(), seeded.ID)
		require.NoError(t, err)
		assert.Equal(t, models.VideoStatusFailed, video.Status)
		assert.NotNil(t, video.VideoURL, "fail events never touch the stored URL")
	})

	t.Run("unknown remote id is reported, nothing changes", func(t *testing.T) {
		f := newFixture()
		seeded := f.seedVideo(models.VideoStatusProcessing, "remote-123")
		reconciler := NewReconciler(f.store, testLogger())

		applied := reconciler.Apply(context.Background(), WebhookEvent{
			EventType: EventAvatarVideoSuccess,
			VideoID:   "remote-someone-elses",
			URL:       "https://resource.heygen.ai/video.mp4",
		})
		assert.False(t, applied)

		video, err := f.store.GetVideo(context.Background(), seeded.ID)
		require.NoError(t, err)
		assert.Equal(t, models.VideoStatusProcessing, video.Status)
	})

	t.Run("unknown event type never transitions", func(t *testing.T) {
		f := newFixture()
		seeded := f.seedVideo(models.VideoStatusProcessing, "remote-123")
		reconciler := NewReconciler(f.store, testLogger())

		applied := reconciler.Apply(context.Background(), WebhookEvent{
			EventType: "avatar_video.rendering",
			VideoID:   "remote-123",
		})
		assert.False(t, applied)

		video, err := f.store.GetVideo(context.Background(), seeded.ID)
		require.NoError(t, err)
		assert.Equal(t, models.VideoStatusProcessing, video.Status)
	})

	t.Run("store update failure is reported unsuccessful", func(t *testing.T) {
		f := newFixture()
		f.seedVideo(models.VideoStatusProcessing, "remote-123")
		f.store.updateErr = assert.AnError
		reconciler := NewReconciler(f.store, testLogger())

		applied := reconciler.Apply(context.Background(), WebhookEvent{
			EventType: EventAvatarVideoSuccess,
			VideoID:   "remote-123",
			URL:       "https://resource.heygen.ai/video.mp4",
		})
		assert.False(t, applied)
	})
}
