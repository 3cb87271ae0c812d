package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// ChatProvider speaks the OpenAI-compatible chat completions API used by
// DeepSeek and the DashScope compatible mode for Qwen.
type ChatProvider struct {
	Name      string
	URL       string
	Model     string
	APIKeyEnv string
	APIKey    string

	httpClient *http.Client
}

var _ Provider = (*ChatProvider)(nil)

func NewDeepSeekProvider() *ChatProvider {
	return &ChatProvider{
		Name:      "deepseek",
		URL:       "https://api.deepseek.com/chat/completions",
		Model:     "deepseek-chat",
		APIKeyEnv: "DEEPSEEK_API_KEY",
	}
}

func NewQwenProvider() *ChatProvider {
	return &ChatProvider{
		Name:      "qwen",
		URL:       "https://dashscope.aliyuncs.com/compatible-mode/v1/chat/completions",
		Model:     "qwen-max",
		APIKeyEnv: "DASHSCOPE_API_KEY",
	}
}

type ChatRequest struct {
	Messages       []Message       `json:"messages"`
	Model          string          `json:"model"`
	MaxTokens      int             `json:"max_tokens"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}

type Message struct {
	Content string `json:"content"`
	Role    string `json:"role"`
}

type ResponseFormat struct {
	Type string `json:"type"`
}

type ChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (p *ChatProvider) GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]interface{}) (string, error) {
	apiKey := p.APIKey
	if apiKey == "" && p.APIKeyEnv != "" {
		apiKey = os.Getenv(p.APIKeyEnv)
	}
	if val, ok := options["api_key"].(string); ok && val != "" {
		apiKey = val
	}
	if apiKey == "" {
		return "", fmt.Errorf("%s: API key missing, set %s", p.Name, p.APIKeyEnv)
	}

	reqBody := ChatRequest{
		Model:       modelOption(options, p.Model),
		MaxTokens:   2048,
		Temperature: 0.2,
	}
	if systemPrompt != "" {
		reqBody.Messages = append(reqBody.Messages, Message{Content: systemPrompt, Role: "system"})
	}
	reqBody.Messages = append(reqBody.Messages, Message{Content: prompt, Role: "user"})
	if wantsJSON(options) {
		reqBody.ResponseFormat = &ResponseFormat{Type: "json_object"}
	}

	jsonBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("%s: failed to marshal request: %w", p.Name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.URL, bytes.NewReader(jsonBytes))
	if err != nil {
		return "", fmt.Errorf("%s: failed to create request: %w", p.Name, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	client := p.httpClient
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	res, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s: api call failed: %w", p.Name, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("%s: failed to read body: %w", p.Name, err)
	}
	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s: api error status=%d body=%s", p.Name, res.StatusCode, string(body))
	}

	var response ChatResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("%s: failed to unmarshal response: %w", p.Name, err)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("%s: no choices in response", p.Name)
	}
	return response.Choices[0].Message.Content, nil
}

func (p *ChatProvider) AdaptInstructions(raw string) string {
	return raw
}
