package config

import "fmt"

// DefaultModelID is the Bedrock model used when none is configured.
const DefaultModelID = "anthropic.claude-sonnet-4-20250514"

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

// Defaults returns a Config with sensible defaults applied.
func Defaults() Config {
	return Config{
		Logging: LoggingConfig{
			Level:        "info",
			ConsoleStyle: "pretty",
			MaxSizeMB:    50,
			MaxBackups:   5,
			MaxAgeDays:   14,
		},
		Investigator: InvestigatorConfig{
			MaxIterations: 10,
			Parallelism:   1,
		},
		Model: ModelConfig{
			Provider:  "bedrock",
			ID:        DefaultModelID,
			MaxTokens: 4096,
		},
		Gateway: GatewayConfig{
			Port: 18790,
			Bind: "loopback",
		},
	}
}
