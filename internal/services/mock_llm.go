package services

import (
	"context"
	"sync"

	"github.com/aberthier/conteur/pkg/chat"
)

// MockGenerationService is a configurable test double for GenerationService.
// Behavior is injected through the Func fields; calls are recorded and can
// be inspected after the fact.
type MockGenerationService struct {
	mu sync.Mutex

	InitModelFunc            func(ctx context.Context, modelName string) error
	GenerateNarrativeFunc    func(ctx context.Context, req *chat.TurnRequest) (string, error)
	GenerateIllustrationFunc func(ctx context.Context, prompt string) (string, error)

	InitModelCalls            []string
	GenerateNarrativeCalls    []*chat.TurnRequest
	GenerateIllustrationCalls []string
}

var _ GenerationService = (*MockGenerationService)(nil)

func NewMockGenerationService() *MockGenerationService {
	return &MockGenerationService{}
}

func (m *MockGenerationService) InitModel(ctx context.Context, modelName string) error {
	m.mu.Lock()
	m.InitModelCalls = append(m.InitModelCalls, modelName)
	fn := m.InitModelFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, modelName)
	}
	return nil
}

func (m *MockGenerationService) GenerateNarrative(ctx context.Context, req *chat.TurnRequest) (string, error) {
	m.mu.Lock()
	m.GenerateNarrativeCalls = append(m.GenerateNarrativeCalls, req)
	fn := m.GenerateNarrativeFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	return `{"text": "Il ne se passe rien.", "choices": ["Continuer"], "updatedGameState": "{}"}`, nil
}

func (m *MockGenerationService) GenerateIllustration(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.GenerateIllustrationCalls = append(m.GenerateIllustrationCalls, prompt)
	fn := m.GenerateIllustrationFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, prompt)
	}
	return "https://example.com/illustration.png", nil
}

// SetNarrativeResponse makes every narrative call return the given raw text.
func (m *MockGenerationService) SetNarrativeResponse(raw string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GenerateNarrativeFunc = func(ctx context.Context, req *chat.TurnRequest) (string, error) {
		return raw, nil
	}
}

// SetNarrativeError makes every narrative call fail with err.
func (m *MockGenerationService) SetNarrativeError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GenerateNarrativeFunc = func(ctx context.Context, req *chat.TurnRequest) (string, error) {
		return "", err
	}
}

// NarrativeCallCount returns how many narrative generations were requested.
func (m *MockGenerationService) NarrativeCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.GenerateNarrativeCalls)
}
