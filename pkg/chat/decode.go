package chat

import (
	"encoding/json"
	"strings"
)

// DecodeTurn extracts a Turn from raw model output without ever failing.
// The second return value reports whether the response honored the declared
// shape: text must be a non-empty string, choices an array, and
// updatedGameState a string. The caller substitutes safe fallback content
// when it is false; a malformed response must never hard-stop a turn.
//
// Markdown fences and prose around the JSON object are tolerated, since
// models wrap structured output despite instructions not to.
func DecodeTurn(raw string) (*Turn, bool) {
	turn := &Turn{Choices: make([]string, 0)}

	payload := extractObject(raw)
	if payload == "" {
		return turn, false
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal([]byte(payload), &doc); err != nil {
		return turn, false
	}

	ok := true

	var text string
	if err := json.Unmarshal(doc["text"], &text); err != nil || strings.TrimSpace(text) == "" {
		ok = false
	} else {
		turn.Text = text
	}

	if rawChoices, present := doc["choices"]; present {
		choices, valid := decodeChoiceList(rawChoices)
		if valid {
			turn.Choices = choices
		} else {
			ok = false
		}
	} else {
		ok = false
	}

	var updated string
	if err := json.Unmarshal(doc["updatedGameState"], &updated); err != nil {
		// Some models inline the state as an object instead of the
		// declared string. Accept it re-serialized; the state codec
		// does its own validation either way.
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(doc["updatedGameState"], &obj); err != nil || obj == nil {
			ok = false
		} else {
			turn.UpdatedState = string(doc["updatedGameState"])
		}
	} else {
		turn.UpdatedState = updated
	}

	// Optional field: a wrong type is treated as absent, not a violation.
	var prompt string
	if raw, present := doc["illustrationPrompt"]; present {
		if err := json.Unmarshal(raw, &prompt); err == nil {
			turn.ImagePrompt = strings.TrimSpace(prompt)
		}
	}

	return turn, ok
}

// decodeChoiceList accepts an array of strings, skipping blank entries.
// A non-array is a shape violation.
func decodeChoiceList(raw json.RawMessage) ([]string, bool) {
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, false
	}
	choices := make([]string, 0, len(entries))
	for _, entry := range entries {
		var s string
		if err := json.Unmarshal(entry, &s); err != nil {
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			choices = append(choices, s)
		}
	}
	return choices, true
}

// extractObject returns the outermost JSON object embedded in s, or "".
func extractObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}
