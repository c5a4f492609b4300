package videogen

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"gradereel/api-gateway/models"
)

// Webhook event types the provider sends on generation completion.
const (
	EventAvatarVideoSuccess = "avatar_video.success"
	EventAvatarVideoFail    = "avatar_video.fail"
)

// WebhookEvent is an already-verified provider notification. Signature
// checking happens at the HTTP boundary; the reconciler never sees an
// unverified event.
type WebhookEvent struct {
	EventType  string
	VideoID    string // remote provider video id
	URL        string
	CallbackID string
}

// Reconciler applies provider notifications to persisted video state.
type Reconciler struct {
	store Store
	log   *logrus.Logger
}

// NewReconciler wires a reconciler over the application store.
func NewReconciler(store Store, log *logrus.Logger) *Reconciler {
	return &Reconciler{store: store, log: log}
}

// Apply processes one event and reports whether it was applied. Unknown
// remote ids and unrecognized event types are logged and reported as
// unsuccessful so the provider may redeliver; no exception-like failure
// escapes. Each applied transition is a single atomic update.
func (r *Reconciler) Apply(ctx context.Context, event WebhookEvent) bool {
	video, err := r.store.GetVideoByRemoteID(ctx, event.VideoID)
	if errors.Is(err, models.ErrNotFound) {
		// Stale, misrouted, or racing ahead of the submission commit.
		r.log.WithField("heygen_video_id", event.VideoID).Warn("Webhook for unknown video")
		return false
	}
	if err != nil {
		r.log.WithField("heygen_video_id", event.VideoID).Errorf("Webhook lookup failed: %v", err)
		return false
	}

	switch event.EventType {
	case EventAvatarVideoSuccess:
		fields := map[string]interface{}{
			"status":    models.VideoStatusCompleted,
			"video_url": event.URL,
		}
		if event.CallbackID != "" {
			fields["callback_id"] = event.CallbackID
		}
		if _, err := r.store.UpdateVideo(ctx, video.ID, fields); err != nil {
			r.log.WithField("video_id", video.ID).Errorf("Applying success webhook failed: %v", err)
			return false
		}
		r.log.WithFields(logrus.Fields{
			"video_id":        video.ID,
			"heygen_video_id": event.VideoID,
		}).Info("Video completed")
		return true

	case EventAvatarVideoFail:
		if _, err := r.store.UpdateVideo(ctx, video.ID, map[string]interface{}{
			"status": models.VideoStatusFailed,
		}); err != nil {
			r.log.WithField("video_id", video.ID).Errorf("Applying failure webhook failed: %v", err)
			return false
		}
		r.log.WithFields(logrus.Fields{
			"video_id":        video.ID,
			"heygen_video_id": event.VideoID,
		}).Warn("Video generation failed at provider")
		return true

	default:
		// Never transition on an event type we do not recognize.
		r.log.WithField("event_type", event.EventType).Warn("Unhandled webhook event type")
		return false
	}
}
