package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

type GenerationParams struct {
	Temperature *float32 `json:"temperature"`
	TopK        *int     `json:"top_k"`
	TopP        *float32 `json:"top_p"`
	MaxTokens   *int     `json:"max_tokens"`
	Stop        []string `json:"stop"`
}

// LLMClient defines the standard interface for any LLM backend. The
// system prompt carries the coaching persona and schema instructions;
// the user prompt carries the turn context.
type LLMClient interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string, params GenerationParams) (string, error)
}

// NewFromEnv selects a backend from LLM_PROVIDER ("openai" or
// "ollama"). Defaults to openai.
func NewFromEnv() (LLMClient, error) {
	provider := os.Getenv("LLM_PROVIDER")
	switch provider {
	case "", "openai":
		return NewOpenAIClient()
	case "ollama":
		return NewOllamaClient()
	default:
		return nil, fmt.Errorf("unknown LLM_PROVIDER %q", provider)
	}
}

// ExtractJSON parses a model response expected to be a single JSON
// object. Code fences are stripped first; models wrap JSON in them no
// matter how firmly told not to. A response that still does not parse
// is an error the caller must treat as fatal to the turn.
func ExtractJSON(raw string) (map[string]any, error) {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
		trimmed = strings.TrimSpace(trimmed)
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(trimmed), &payload); err != nil {
		return nil, fmt.Errorf("response is not a JSON object: %w", err)
	}
	return payload, nil
}
