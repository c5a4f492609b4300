package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"gradereel/api-gateway/internal/videogen"
	"gradereel/api-gateway/utils"
)

// HeyGenWebhookRequest is the provider's callback body.
type HeyGenWebhookRequest struct {
	EventType string `json:"event_type" validate:"required"`
	EventData struct {
		VideoID    string `json:"video_id" validate:"required"`
		URL        string `json:"url"`
		CallbackID string `json:"callback_id"`
	} `json:"event_data"`
}

// HandleHeyGenWebhook godoc
// @Summary Receive HeyGen generation callbacks
// @Description Verifies the HMAC signature and applies the event to the video's state.
// @Tags webhooks
// @Accept json
// @Produce json
// @Param Signature header string false "HMAC-SHA256 of the request body"
// @Router /webhooks/heygen [post]
func (h *ApplicationHandler) HandleHeyGenWebhook(c *fiber.Ctx) error {
	body := c.Body()

	if h.WebhookSecret != "" {
		signature := c.Get("Signature")
		if !verifySignature(body, signature, h.WebhookSecret) {
			h.Logger.Warn("Webhook signature verification failed")
			return utils.RespondWithError(c, fiber.StatusUnauthorized, "Invalid signature")
		}
	}

	payload := new(HeyGenWebhookRequest)
	if err := json.Unmarshal(body, payload); err != nil {
		h.Logger.Errorf("Error parsing webhook payload: %v", err)
		return utils.RespondWithError(c, fiber.StatusBadRequest, fmt.Sprintf("Invalid webhook body: %v", err))
	}
	if err := h.validate.Struct(payload); err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest,
			fmt.Sprintf("Validation failed: %v", utils.FormatValidationErrors(err)))
	}

	h.Logger.WithField("event_type", payload.EventType).Info("Received HeyGen webhook")

	event := videogen.WebhookEvent{
		EventType:  payload.EventType,
		VideoID:    payload.EventData.VideoID,
		URL:        payload.EventData.URL,
		CallbackID: payload.EventData.CallbackID,
	}
	if !h.Reconciler.Apply(c.Context(), event) {
		// Unsuccessful so the provider retries delivery.
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Event not applied")
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, fiber.Map{"applied": true})
}

// verifySignature checks the provider's HMAC-SHA256 hex signature over the
// raw request body.
func verifySignature(body []byte, signature, secret string) bool {
	if signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
