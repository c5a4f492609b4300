package handlers

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"gradereel/api-gateway/internal/videogen"
	"gradereel/api-gateway/models"
)

// VideoService defines the orchestration operations handlers expect.
// This allows for decoupling and easier testing.
type VideoService interface {
	Create(ctx context.Context, deploymentID int) (*models.Video, error)
	Get(ctx context.Context, videoID uuid.UUID) (*models.Video, error)
	Replace(ctx context.Context, videoID uuid.UUID) (*models.Video, error)
	Patch(ctx context.Context, videoID uuid.UUID, reuseScript bool) (*models.Video, error)
	Delete(ctx context.Context, videoID uuid.UUID) error
}

// WebhookReconciler applies an already-verified provider event.
type WebhookReconciler interface {
	Apply(ctx context.Context, event videogen.WebhookEvent) bool
}

// ApplicationHandler holds shared dependencies for handlers.
type ApplicationHandler struct {
	Videos        VideoService
	Reconciler    WebhookReconciler
	Logger        *logrus.Logger
	WebhookSecret string

	validate *validator.Validate
}

// NewApplicationHandler creates a new ApplicationHandler with the given
// dependencies.
func NewApplicationHandler(videos VideoService, reconciler WebhookReconciler, logger *logrus.Logger, webhookSecret string) *ApplicationHandler {
	return &ApplicationHandler{
		Videos:        videos,
		Reconciler:    reconciler,
		Logger:        logger,
		WebhookSecret: webhookSecret,
		validate:      validator.New(),
	}
}
