package config

import (
	"fmt"
	"os"

	gaconfig "github.com/JaimeStill/go-agents/pkg/config"
)

const (
	EnvAgentName         = "ASSENT_AGENT_NAME"
	EnvAgentProviderName = "ASSENT_AGENT_PROVIDER_NAME"
	EnvAgentBaseURL      = "ASSENT_AGENT_BASE_URL"
	EnvAgentToken        = "ASSENT_AGENT_TOKEN"
	EnvAgentDeployment   = "ASSENT_AGENT_DEPLOYMENT"
	EnvAgentAPIVersion   = "ASSENT_AGENT_API_VERSION"
	EnvAgentAuthType     = "ASSENT_AGENT_AUTH_TYPE"
	EnvAgentModelName    = "ASSENT_AGENT_MODEL_NAME"
)

// FinalizeAgent fills c from go-agents DefaultAgentConfig, applies ASSENT_AGENT_*
// overrides, and validates that the agent and provider are named.
func FinalizeAgent(c *gaconfig.AgentConfig) error {
	defaults := gaconfig.DefaultAgentConfig()
	defaults.Merge(c)
	*c = defaults

	loadAgentEnv(c)
	return validateAgent(c)
}

func loadAgentEnv(c *gaconfig.AgentConfig) {
	if c.Provider == nil {
		c.Provider = &gaconfig.ProviderConfig{}
	}
	if c.Provider.Options == nil {
		c.Provider.Options = make(map[string]any)
	}
	if c.Model == nil {
		c.Model = &gaconfig.ModelConfig{}
	}

	if v := os.Getenv(EnvAgentName); v != "" {
		c.Name = v
	}
	if v := os.Getenv(EnvAgentProviderName); v != "" {
		c.Provider.Name = v
	}
	if v := os.Getenv(EnvAgentBaseURL); v != "" {
		c.Provider.BaseURL = v
	}
	if v := os.Getenv(EnvAgentModelName); v != "" {
		c.Model.Name = v
	}

	options := map[string]string{
		EnvAgentToken:      "token",
		EnvAgentDeployment: "deployment",
		EnvAgentAPIVersion: "api_version",
		EnvAgentAuthType:   "auth_type",
	}
	for env, key := range options {
		if v := os.Getenv(env); v != "" {
			c.Provider.Options[key] = v
		}
	}
}

func validateAgent(c *gaconfig.AgentConfig) error {
	switch {
	case c.Name == "":
		return fmt.Errorf("name required")
	case c.Provider.Name == "":
		return fmt.Errorf("provider name required")
	}
	return nil
}
