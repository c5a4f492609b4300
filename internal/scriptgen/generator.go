// Package scriptgen produces the narrated scene dialogue for a feedback
// video via an OpenAI-compatible chat completion API.
package scriptgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"gradereel/api-gateway/models"
)

const systemPrompt = "You are a script generator for educational feedback videos. " +
	"Respond with a JSON object mapping scene ids to objects of named text fields, " +
	`for example {"scene_1": {"dialogue": "..."}}.`

// Generator calls the LLM to turn a package's prompt template plus grading
// data into scene dialogue.
type Generator struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	log        *logrus.Logger
}

// NewGenerator builds a Generator for an OpenAI-compatible endpoint.
func NewGenerator(baseURL, apiKey, model string, log *logrus.Logger) *Generator {
	return &Generator{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		log:        log,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Generate runs one chat completion and parses the scene dialogue out of it.
// The raw model output is returned alongside for auditing on the script row.
func (g *Generator) Generate(ctx context.Context, promptTemplate string, data *models.ScriptPromptData) (models.SceneDialogue, string, error) {
	gradingJSON, err := json.Marshal(data)
	if err != nil {
		return nil, "", fmt.Errorf("encoding grading data: %w", err)
	}

	req := chatRequest{
		Model: g.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: promptTemplate},
			{Role: "user", Content: string(gradingJSON)},
		},
	}
	req.ResponseFormat.Type = "json_object"

	encoded, err := json.Marshal(req)
	if err != nil {
		return nil, "", fmt.Errorf("encoding chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/chat/completions", bytes.NewReader(encoded))
	if err != nil {
		return nil, "", err
	}
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, "", fmt.Errorf("calling chat completion: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("reading chat response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("chat completion: status %d: %s", resp.StatusCode, string(body))
	}

	var chat chatResponse
	if err := json.Unmarshal(body, &chat); err != nil {
		return nil, "", fmt.Errorf("decoding chat response: %w", err)
	}
	if len(chat.Choices) == 0 {
		return nil, "", fmt.Errorf("chat completion returned no choices")
	}

	content := chat.Choices[0].Message.Content
	var dialogue models.SceneDialogue
	if err := json.Unmarshal([]byte(content), &dialogue); err != nil {
		g.log.WithField("content", content).Error("Model output is not valid scene dialogue")
		return nil, content, fmt.Errorf("parsing scene dialogue: %w", err)
	}
	if len(dialogue) == 0 {
		return nil, content, fmt.Errorf("model returned empty scene dialogue")
	}
	return dialogue, content, nil
}
