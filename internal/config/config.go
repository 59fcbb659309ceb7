// Package config provides configuration loading and validation for the
// server and CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config holds the runtime settings. All fields are optional in the JSON
// file; missing values fall back to environment variables.
type Config struct {
	// LLM
	GeminiAPIKey string `json:"gemini_api_key,omitempty"`

	// Authorization provider (managed MCP deployments)
	MetorialBaseURL   string            `json:"metorial_base_url,omitempty"`
	MetorialAPIKey    string            `json:"metorial_api_key,omitempty"`
	DeploymentIDs     map[string]string `json:"deployment_ids,omitempty"` // service name -> deployment id
	AuthWaitSeconds   int               `json:"auth_wait_seconds,omitempty"`
	AuthPollSeconds   int               `json:"auth_poll_seconds,omitempty"`
}

// Load reads configuration from an optional JSON file and fills gaps from
// the environment.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv fills unset fields from environment variables.
func (c *Config) applyEnv() {
	if c.GeminiAPIKey == "" {
		c.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}
	if c.MetorialBaseURL == "" {
		c.MetorialBaseURL = os.Getenv("METORIAL_BASE_URL")
	}
	if c.MetorialAPIKey == "" {
		c.MetorialAPIKey = os.Getenv("METORIAL_API_KEY")
	}
	if c.DeploymentIDs == nil {
		c.DeploymentIDs = make(map[string]string)
	}
	if _, ok := c.DeploymentIDs["gcalendar"]; !ok {
		if id := os.Getenv("MCP_GCALENDAR_ID"); id != "" {
			c.DeploymentIDs["gcalendar"] = id
		}
	}
}

// Validate checks that the configuration can run an analysis.
func (c *Config) Validate() error {
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("config error: gemini_api_key (or GEMINI_API_KEY) is required")
	}
	if c.AuthWaitSeconds < 0 || c.AuthPollSeconds < 0 {
		return fmt.Errorf("config error: auth wait/poll seconds must be non-negative")
	}
	return nil
}

// BrokerConfigured reports whether the authorization provider is usable.
func (c *Config) BrokerConfigured() bool {
	return c.MetorialBaseURL != "" && c.MetorialAPIKey != "" && len(c.DeploymentIDs) > 0
}
