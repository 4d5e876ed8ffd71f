package services

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/aberthier/conteur/pkg/chat"
)

// OpenAIService implements GenerationService on the OpenAI API: chat
// completions for narration and DALL-E for illustrations.
type OpenAIService struct {
	client         *openai.Client
	modelName      string
	imageModelName string
}

var _ GenerationService = (*OpenAIService)(nil)

// NewOpenAIService creates a new OpenAI-backed service.
func NewOpenAIService(apiKey, modelName, imageModelName string) *OpenAIService {
	if modelName == "" {
		modelName = openai.GPT4oMini
	}
	if imageModelName == "" {
		imageModelName = openai.CreateImageModelDallE3
	}
	return &OpenAIService{
		client:         openai.NewClient(apiKey),
		modelName:      modelName,
		imageModelName: imageModelName,
	}
}

// InitModel is a no-op: OpenAI models need no warm-up.
func (s *OpenAIService) InitModel(ctx context.Context, modelName string) error {
	return nil
}

// GenerateNarrative runs one chat completion in JSON mode and returns the
// raw content. The response schema rides in the prompt; OpenAI's JSON mode
// only guarantees syntactically valid JSON, so shape stays caller-checked.
func (s *OpenAIService) GenerateNarrative(ctx context.Context, req *chat.TurnRequest) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	completion, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     s.modelName,
		Messages:  messages,
		MaxTokens: DefaultVeniceMaxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", fmt.Errorf("create chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return msgNoResponse, nil
	}
	return completion.Choices[0].Message.Content, nil
}

// GenerateIllustration produces one image and returns its URL.
func (s *OpenAIService) GenerateIllustration(ctx context.Context, prompt string) (string, error) {
	resp, err := s.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         prompt,
		Model:          s.imageModelName,
		N:              1,
		Size:           openai.CreateImageSize1024x1024,
		ResponseFormat: openai.CreateImageResponseFormatURL,
	})
	if err != nil {
		return "", fmt.Errorf("create image: %w", err)
	}
	if len(resp.Data) == 0 {
		return "", fmt.Errorf("image generation returned no images")
	}
	return resp.Data[0].URL, nil
}
