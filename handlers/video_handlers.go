package handlers

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"gradereel/api-gateway/models"
	"gradereel/api-gateway/utils"
)

// CreateVideoRequest defines the expected JSON body for requesting a video.
type CreateVideoRequest struct {
	StudentDeploymentID int `json:"student_deployment_id" validate:"required,gt=0"`
}

// PatchVideoRequest defines the body for a partial regeneration.
type PatchVideoRequest struct {
	ReuseScript bool `json:"reuse_script"`
}

// CreateVideo godoc
// @Summary Create a feedback video for a deployment
// @Description Generates the script, submits the video to HeyGen and returns the tracking resource. Idempotent: an existing video for the deployment is returned unchanged.
// @Tags videos
// @Accept json
// @Produce json
// @Param request body CreateVideoRequest true "Deployment to generate for"
// @Router /videos [post]
func (h *ApplicationHandler) CreateVideo(c *fiber.Ctx) error {
	payload := new(CreateVideoRequest)
	if err := c.BodyParser(payload); err != nil {
		h.Logger.Errorf("Error parsing create video payload: %v", err)
		return utils.RespondWithError(c, fiber.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
	}
	if err := h.validate.Struct(payload); err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest,
			fmt.Sprintf("Validation failed: %v", utils.FormatValidationErrors(err)))
	}

	h.Logger.Infof("Received video creation request for deployment %d", payload.StudentDeploymentID)

	video, err := h.Videos.Create(c.Context(), payload.StudentDeploymentID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return utils.RespondWithError(c, fiber.StatusNotFound, "Deployment not found")
		}
		h.Logger.Errorf("Video creation failed for deployment %d: %v", payload.StudentDeploymentID, err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Video creation failed")
	}
	return utils.RespondWithJSON(c, fiber.StatusCreated, video)
}

// GetVideo godoc
// @Summary Get a video's current state
// @Tags videos
// @Produce json
// @Param videoId path string true "Video ID"
// @Router /videos/{videoId} [get]
func (h *ApplicationHandler) GetVideo(c *fiber.Ctx) error {
	videoID, err := h.parseVideoID(c)
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Invalid video ID format")
	}

	video, err := h.Videos.Get(c.Context(), videoID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return utils.RespondWithError(c, fiber.StatusNotFound, "Video not found")
		}
		h.Logger.Errorf("Error fetching video %s: %v", videoID, err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Failed to fetch video")
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, video)
}

// ReplaceVideo godoc
// @Summary Fully regenerate a video
// @Description Deletes the remote video best-effort, generates a brand-new script and resubmits.
// @Tags videos
// @Produce json
// @Param videoId path string true "Video ID"
// @Router /videos/{videoId} [put]
func (h *ApplicationHandler) ReplaceVideo(c *fiber.Ctx) error {
	videoID, err := h.parseVideoID(c)
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Invalid video ID format")
	}

	video, err := h.Videos.Replace(c.Context(), videoID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return utils.RespondWithError(c, fiber.StatusNotFound, "Video not found")
		}
		h.Logger.Errorf("Video replacement failed for %s: %v", videoID, err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Video replacement failed")
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, video)
}

// PatchVideo godoc
// @Summary Partially regenerate a video
// @Description Resubmits the video, reusing the existing script when reuse_script is true.
// @Tags videos
// @Accept json
// @Produce json
// @Param videoId path string true "Video ID"
// @Param request body PatchVideoRequest true "Patch options"
// @Router /videos/{videoId} [patch]
func (h *ApplicationHandler) PatchVideo(c *fiber.Ctx) error {
	videoID, err := h.parseVideoID(c)
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Invalid video ID format")
	}

	payload := new(PatchVideoRequest)
	if err := c.BodyParser(payload); err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
	}

	video, err := h.Videos.Patch(c.Context(), videoID, payload.ReuseScript)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return utils.RespondWithError(c, fiber.StatusNotFound, "Video not found")
		}
		h.Logger.Errorf("Video patch failed for %s: %v", videoID, err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Video patch failed")
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, video)
}

// DeleteVideo godoc
// @Summary Delete a video
// @Description Deletes the remote video best-effort, then the local script and video rows.
// @Tags videos
// @Produce json
// @Param videoId path string true "Video ID"
// @Router /videos/{videoId} [delete]
func (h *ApplicationHandler) DeleteVideo(c *fiber.Ctx) error {
	videoID, err := h.parseVideoID(c)
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Invalid video ID format")
	}

	if err := h.Videos.Delete(c.Context(), videoID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return utils.RespondWithError(c, fiber.StatusNotFound, "Video not found")
		}
		h.Logger.Errorf("Video deletion failed for %s: %v", videoID, err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Video deletion failed")
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, fiber.Map{"deleted": true})
}

func (h *ApplicationHandler) parseVideoID(c *fiber.Ctx) (uuid.UUID, error) {
	return uuid.Parse(c.Params("videoId"))
}
