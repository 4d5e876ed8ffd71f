package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aberthier/conteur/pkg/chat"
)

const (
	veniceBaseURL = "https://api.venice.ai/api/v1"
	msgNoResponse = "(no response)"

	DefaultVeniceTemperature = 0.7
	DefaultVeniceMaxTokens   = 1024
)

// VeniceService implements GenerationService for Venice AI, which serves
// both chat completions with strict json_schema output and image
// generation through one API.
type VeniceService struct {
	apiKey         string
	modelName      string
	imageModelName string
	baseURL        string
	httpClient     *http.Client
}

var _ GenerationService = (*VeniceService)(nil)

type veniceResponseFormat struct {
	Type       string           `json:"type"`
	JSONSchema veniceJSONSchema `json:"json_schema"`
}

type veniceJSONSchema struct {
	Name   string                 `json:"name"`
	Strict bool                   `json:"strict"`
	Schema map[string]interface{} `json:"schema"`
}

type veniceParameters struct {
	IncludeVeniceSystemPrompt bool   `json:"include_venice_system_prompt"`
	EnableWebSearch           string `json:"enable_web_search"`
}

type veniceChatRequest struct {
	Model            string                `json:"model"`
	Messages         []chat.Message        `json:"messages"`
	Temperature      float64               `json:"temperature,omitempty"`
	MaxTokens        int                   `json:"max_tokens,omitempty"`
	Stream           bool                  `json:"stream"`
	ResponseFormat   *veniceResponseFormat `json:"response_format,omitempty"`
	VeniceParameters veniceParameters      `json:"venice_parameters"`
}

type veniceChatResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error,omitempty"`
}

type veniceImageRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
	Format string `json:"format,omitempty"`
}

type veniceImageResponse struct {
	Images []string `json:"images"`
	Error  *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewVeniceService creates a new Venice AI service.
func NewVeniceService(apiKey, modelName, imageModelName string) *VeniceService {
	return &VeniceService{
		apiKey:         apiKey,
		modelName:      modelName,
		imageModelName: imageModelName,
		baseURL:        veniceBaseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// WithBaseURL overrides the API endpoint. Used by tests.
func (v *VeniceService) WithBaseURL(baseURL string) *VeniceService {
	v.baseURL = baseURL
	return v
}

// InitModel is a no-op: Venice AI requires no explicit model warm-up.
func (v *VeniceService) InitModel(ctx context.Context, modelName string) error {
	return nil
}

// GenerateNarrative runs a chat completion with the request's declared
// response schema and returns the raw content.
func (v *VeniceService) GenerateNarrative(ctx context.Context, req *chat.TurnRequest) (string, error) {
	veniceReq := veniceChatRequest{
		Model:       v.modelName,
		Messages:    req.Messages,
		Temperature: DefaultVeniceTemperature,
		MaxTokens:   DefaultVeniceMaxTokens,
		Stream:      false,
		VeniceParameters: veniceParameters{
			IncludeVeniceSystemPrompt: false,
			EnableWebSearch:           "off",
		},
	}
	if req.Schema != nil {
		veniceReq.ResponseFormat = &veniceResponseFormat{
			Type: "json_schema",
			JSONSchema: veniceJSONSchema{
				Name:   "story_turn",
				Strict: true,
				Schema: req.Schema,
			},
		}
	}

	body, err := v.post(ctx, "/chat/completions", veniceReq)
	if err != nil {
		return "", err
	}

	var veniceResp veniceChatResponse
	if err := json.Unmarshal(body, &veniceResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if veniceResp.Error != nil {
		return "", fmt.Errorf("API error: %s", veniceResp.Error.Message)
	}
	if len(veniceResp.Choices) == 0 {
		return msgNoResponse, nil
	}
	return veniceResp.Choices[0].Message.Content, nil
}

// GenerateIllustration requests one image and returns it as a data URI.
func (v *VeniceService) GenerateIllustration(ctx context.Context, prompt string) (string, error) {
	imageReq := veniceImageRequest{
		Model:  v.imageModelName,
		Prompt: prompt,
		Width:  1024,
		Height: 1024,
		Format: "webp",
	}

	body, err := v.post(ctx, "/image/generate", imageReq)
	if err != nil {
		return "", err
	}

	var imageResp veniceImageResponse
	if err := json.Unmarshal(body, &imageResp); err != nil {
		return "", fmt.Errorf("failed to parse image response: %w", err)
	}
	if imageResp.Error != nil {
		return "", fmt.Errorf("API error: %s", imageResp.Error.Message)
	}
	if len(imageResp.Images) == 0 {
		return "", fmt.Errorf("image generation returned no images")
	}
	return "data:image/webp;base64," + imageResp.Images[0], nil
}

func (v *VeniceService) post(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", v.baseURL+path, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+v.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}
