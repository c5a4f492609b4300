// Package heygen is a typed client for the HeyGen avatar-video API: template
// metadata, generation from a template, and best-effort video deletion.
package heygen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Dimension is the output resolution of a generated video.
type Dimension struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Dimension1080p and Dimension720p are the two resolutions the service
// submits; production uses 1080p, everything else 720p.
var (
	Dimension1080p = Dimension{Width: 1920, Height: 1080}
	Dimension720p  = Dimension{Width: 1280, Height: 720}
)

// GeneratePayload is the provider-facing request for one video. Variables is
// the flat name -> text set produced by the payload builder; the client wraps
// it into the provider's wire shape on submission.
type GeneratePayload struct {
	Test          bool
	Caption       bool
	Title         string
	EnableSharing bool
	IncludeGIF    bool
	CallbackID    string
	FolderID      string
	BrandVoiceID  string
	Dimension     Dimension
	Variables     map[string]string
}

// GenerateResult carries the provider's identifier for the submitted job plus
// the raw response body for auditing.
type GenerateResult struct {
	VideoID string
	Raw     json.RawMessage
}

// Client talks to the HeyGen HTTP API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        *logrus.Logger
}

// NewClient builds a client for the given API host.
func NewClient(baseURL, apiKey string, log *logrus.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        log,
	}
}

type templateDetailResponse struct {
	Data struct {
		Variables map[string]json.RawMessage `json:"variables"`
	} `json:"data"`
}

// TemplateVariables fetches the names of the variables the template declares.
// The payload builder drops any locally mapped variable not in this set.
func (c *Client) TemplateVariables(ctx context.Context, templateID string) ([]string, error) {
	body, err := c.do(ctx, http.MethodGet, "/v2/template/"+url.PathEscape(templateID), nil)
	if err != nil {
		return nil, fmt.Errorf("fetching template %s: %w", templateID, err)
	}

	var resp templateDetailResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding template %s: %w", templateID, err)
	}

	names := make([]string, 0, len(resp.Data.Variables))
	for name := range resp.Data.Variables {
		names = append(names, name)
	}
	return names, nil
}

type wireVariable struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Properties struct {
		Content string `json:"content"`
	} `json:"properties"`
}

type generateRequest struct {
	Test          bool                    `json:"test"`
	Caption       bool                    `json:"caption"`
	Title         string                  `json:"title"`
	EnableSharing bool                    `json:"enable_sharing"`
	IncludeGIF    bool                    `json:"include_gif"`
	CallbackID    string                  `json:"callback_id,omitempty"`
	FolderID      string                  `json:"folder_id,omitempty"`
	BrandVoiceID  string                  `json:"brand_voice_id,omitempty"`
	Dimension     Dimension               `json:"dimension"`
	Variables     map[string]wireVariable `json:"variables"`
}

type generateResponse struct {
	Data struct {
		VideoID string `json:"video_id"`
	} `json:"data"`
}

// Generate submits a generation request for the template.
func (c *Client) Generate(ctx context.Context, templateID string, payload GeneratePayload) (*GenerateResult, error) {
	req := generateRequest{
		Test:          payload.Test,
		Caption:       payload.Caption,
		Title:         payload.Title,
		EnableSharing: payload.EnableSharing,
		IncludeGIF:    payload.IncludeGIF,
		CallbackID:    payload.CallbackID,
		FolderID:      payload.FolderID,
		BrandVoiceID:  payload.BrandVoiceID,
		Dimension:     payload.Dimension,
		Variables:     make(map[string]wireVariable, len(payload.Variables)),
	}
	for name, content := range payload.Variables {
		v := wireVariable{Name: name, Type: "text"}
		v.Properties.Content = content
		req.Variables[name] = v
	}

	body, err := c.do(ctx, http.MethodPost, "/v2/template/"+url.PathEscape(templateID)+"/generate", req)
	if err != nil {
		return nil, fmt.Errorf("submitting generation for template %s: %w", templateID, err)
	}

	var resp generateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding generation response: %w", err)
	}
	if resp.Data.VideoID == "" {
		return nil, fmt.Errorf("generation response carries no video id: %s", string(body))
	}
	return &GenerateResult{VideoID: resp.Data.VideoID, Raw: json.RawMessage(body)}, nil
}

// DeleteVideo removes a previously generated video. Callers treat failures as
// best-effort: log and move on.
func (c *Client) DeleteVideo(ctx context.Context, videoID string) error {
	_, err := c.do(ctx, http.MethodDelete, "/v1/video.delete?video_id="+url.QueryEscape(videoID), nil)
	if err != nil {
		return fmt.Errorf("deleting video %s: %w", videoID, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, payload interface{}) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.WithFields(logrus.Fields{
			"method": method,
			"path":   path,
			"status": resp.StatusCode,
		}).Error("HeyGen request failed")
		return nil, fmt.Errorf("heygen %s %s: status %d: %s", method, path, resp.StatusCode, string(body))
	}
	return body, nil
}
