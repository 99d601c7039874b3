package reasoning

import (
	"context"
	"fmt"

	"github.com/JaimeStill/go-agents/pkg/agent"
	gaconfig "github.com/JaimeStill/go-agents/pkg/config"
)

// AgentBackend generates text through a go-agents chat agent. A fresh agent
// is built per call so each request carries its own system prompt.
type AgentBackend struct {
	cfg gaconfig.AgentConfig
}

// NewAgentBackend creates a Backend over the finalized agent configuration.
func NewAgentBackend(cfg gaconfig.AgentConfig) *AgentBackend {
	return &AgentBackend{cfg: cfg}
}

func (b *AgentBackend) Generate(ctx context.Context, directive, prompt string, temperature float64, structured bool) (string, error) {
	cfg := b.cfg
	cfg.SystemPrompt = directive

	a, err := agent.New(&cfg)
	if err != nil {
		return "", fmt.Errorf("create agent: %w", err)
	}

	opts := map[string]any{"temperature": temperature}
	if structured {
		opts["response_format"] = map[string]any{"type": "json_object"}
	}

	resp, err := a.Chat(ctx, prompt, opts)
	if err != nil {
		return "", fmt.Errorf("chat call: %w", err)
	}
	return resp.Content(), nil
}
