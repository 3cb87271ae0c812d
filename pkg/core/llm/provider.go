package llm

import (
	"context"
)

// Provider is the interface for all LLM providers.
type Provider interface {
	GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]interface{}) (string, error)
	// AdaptInstructions transforms raw instructions into model-specific formats
	AdaptInstructions(rawInstructions string) string
}

// modelOption returns options["model"] when set, else def.
func modelOption(options map[string]interface{}, def string) string {
	if val, ok := options["model"].(string); ok && val != "" {
		return val
	}
	return def
}

// wantsJSON reports whether the caller asked for a JSON response.
func wantsJSON(options map[string]interface{}) bool {
	if val, ok := options["response_format"].(map[string]interface{}); ok {
		return val["type"] == "json_object"
	}
	return false
}
