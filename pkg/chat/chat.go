// Package chat defines the message and payload types exchanged with the
// generation backend, plus the tolerant decoder for its turn responses.
package chat

// Message is a single chat message in the conversation sent to the LLM.
type Message struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// TurnRequest is the self-contained payload the prompt assembler produces
// for one generation call: the instruction messages plus the declared
// output shape. Building it performs no network calls and no state
// mutation.
type TurnRequest struct {
	Messages []Message
	// Schema declares the required response shape (JSON Schema). Backends
	// that support structured output pass it through; others rely on the
	// in-prompt shape declaration alone.
	Schema map[string]interface{}
}

// Turn is a validated narrator response for one game turn.
type Turn struct {
	Text         string
	Choices      []string
	UpdatedState string
	// ImagePrompt is the optional illustration prompt. Empty means the
	// narrator declined an image for this segment.
	ImagePrompt string
}

// TurnResponseSchema declares the strict output shape for a turn, in the
// json_schema form structured-output backends accept.
func TurnResponseSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]interface{}{
			"text": map[string]interface{}{
				"type": "string",
			},
			"choices": map[string]interface{}{
				"type": "array",
				"items": map[string]interface{}{
					"type": "string",
				},
			},
			"updatedGameState": map[string]interface{}{
				"type": "string",
			},
			"illustrationPrompt": map[string]interface{}{
				"type": []string{"string", "null"},
			},
		},
		"required": []string{"text", "choices", "updatedGameState"},
	}
}
