package utils

import (
	"encoding/json"
	"fmt"
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	hjson "github.com/hjson/hjson-go/v4"
)

// DecodeLenient decodes LLM output into v. It tries, in order: strict
// JSON, JSON after json-repair, and Hjson. Code fences and text around the
// outermost object are ignored.
func DecodeLenient(raw string, v interface{}) error {
	candidate := ExtractJSONObject(StripCodeFence(raw))
	if candidate == "" {
		return fmt.Errorf("JSON_NOT_FOUND: no object in %q", truncate(raw, 80))
	}

	if err := json.Unmarshal([]byte(candidate), v); err == nil {
		return nil
	}

	if repaired, err := jsonrepair.RepairJSON(candidate); err == nil {
		if err := json.Unmarshal([]byte(repaired), v); err == nil {
			return nil
		}
	}

	if err := hjson.Unmarshal([]byte(candidate), v); err != nil {
		return fmt.Errorf("JSON_DECODE_FAILED: %w", err)
	}
	return nil
}

// ExtractJSONObject returns the text from the first '{' to the last '}'.
// Without a closing brace the tail is returned so repair can close it.
func ExtractJSONObject(s string) string {
	start := strings.Index(s, "{")
	if start < 0 {
		return ""
	}
	end := strings.LastIndex(s, "}")
	if end < start {
		return strings.TrimSpace(s[start:])
	}
	return s[start : end+1]
}

// StripCodeFence removes one outer ``` block, with or without a language tag.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.Index(s, "\n"); nl >= 0 && !strings.ContainsAny(s[:nl], "{[") {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
