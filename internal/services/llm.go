package services

import (
	"context"

	"github.com/aberthier/conteur/pkg/chat"
)

// GenerationService abstracts the external text and image generation
// capability. Implementations are fallible and latency-bearing, and may
// return content violating the declared output shape; callers validate,
// never trust.
type GenerationService interface {
	// InitModel prepares the backend model on startup.
	InitModel(ctx context.Context, modelName string) error

	// GenerateNarrative runs one turn request and returns the raw model
	// output text. Transport and backend failures are errors; shape
	// violations inside the returned text are the caller's problem.
	GenerateNarrative(ctx context.Context, req *chat.TurnRequest) (string, error)

	// GenerateIllustration produces an image for the given prompt and
	// returns an image reference (URL or data URI).
	GenerateIllustration(ctx context.Context, prompt string) (string, error)
}
