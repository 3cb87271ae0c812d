package agent

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"reverse_dcf/pkg/core/llm"
)

type Config struct {
	ActiveProvider string                 `yaml:"active_provider"`
	Model          string                 `yaml:"model"`
	APIKey         string                 `yaml:"-"`
	Agents         map[string]AgentConfig `yaml:"agents"`
}

type AgentConfig struct {
	Provider    string `yaml:"provider"` // Optional override
	Description string `yaml:"description"`
}

// Manager picks the LLM provider for each agent type. The active provider
// can be switched at runtime.
type Manager struct {
	mu        sync.RWMutex
	config    Config
	providers map[string]llm.Provider
}

func NewManager(config Config) *Manager {
	return &Manager{
		config: config,
		providers: map[string]llm.Provider{
			"gemini":        &llm.GeminiProvider{Model: config.Model, APIKey: config.APIKey},
			"gemini-legacy": &llm.GeminiLegacyProvider{Model: config.Model, APIKey: config.APIKey},
			"deepseek":      llm.NewDeepSeekProvider(),
			"qwen":          llm.NewQwenProvider(),
		},
	}
}

// Register adds or replaces a provider.
func (m *Manager) Register(name string, p llm.Provider) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.providers[name] = p
}

func (m *Manager) GetProvider(agentType string) llm.Provider {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// 1. Agent-specific override
	if agentConfig, ok := m.config.Agents[agentType]; ok && agentConfig.Provider != "" {
		if p, ok := m.providers[agentConfig.Provider]; ok {
			return p
		}
	}

	// 2. Global active provider
	if p, ok := m.providers[m.config.ActiveProvider]; ok {
		return p
	}

	// 3. Fallback
	return m.providers["gemini"]
}

// ExecutePrompt adapts the system prompt for the agent's provider and runs it.
func (m *Manager) ExecutePrompt(ctx context.Context, agentType string, prompt string, systemPrompt string, options map[string]interface{}) (string, error) {
	provider := m.GetProvider(agentType)
	if provider == nil {
		return "", fmt.Errorf("no provider available for agent %s", agentType)
	}
	return provider.GenerateResponse(ctx, prompt, provider.AdaptInstructions(systemPrompt), options)
}

func (m *Manager) SetGlobalProvider(newProvider string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.providers[newProvider]; !ok {
		return fmt.Errorf("provider %s not found", newProvider)
	}
	m.config.ActiveProvider = newProvider
	fmt.Printf("[AGENT] Global provider set to: %s\n", newProvider)
	return nil
}

func (m *Manager) GetActiveProvider() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config.ActiveProvider
}

// Available lists the registered provider names, sorted.
func (m *Manager) Available() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.providers))
	for name := range m.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
