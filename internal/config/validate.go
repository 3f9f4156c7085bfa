package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Validate checks a Config for issues. Returns nil if valid.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue
	add := func(path, format string, args ...any) {
		issues = append(issues, ValidationIssue{Path: path, Message: fmt.Sprintf(format, args...)})
	}

	validLogLevels := []string{"silent", "fatal", "error", "warn", "info", "debug", "trace"}
	if cfg.Logging.Level != "" && !slices.Contains(validLogLevels, cfg.Logging.Level) {
		add("logging.level", "must be one of %v, got %q", validLogLevels, cfg.Logging.Level)
	}
	validConsoleStyles := []string{"pretty", "json"}
	if cfg.Logging.ConsoleStyle != "" && !slices.Contains(validConsoleStyles, cfg.Logging.ConsoleStyle) {
		add("logging.consoleStyle", "must be one of %v, got %q", validConsoleStyles, cfg.Logging.ConsoleStyle)
	}

	if cfg.Investigator.MaxIterations < 1 {
		add("investigator.maxIterations", "must be at least 1, got %d", cfg.Investigator.MaxIterations)
	}
	if cfg.Investigator.Parallelism < 1 {
		add("investigator.parallelism", "must be at least 1, got %d", cfg.Investigator.Parallelism)
	}

	validProviders := []string{"bedrock", "anthropic"}
	if !slices.Contains(validProviders, cfg.Model.Provider) {
		add("model.provider", "must be one of %v, got %q", validProviders, cfg.Model.Provider)
	}
	if cfg.Model.ID == "" {
		add("model.id", "is required")
	}
	if cfg.Model.Provider == "anthropic" && cfg.Model.APIKey == "" {
		add("model.apiKey", "required when model.provider is anthropic")
	}
	if cfg.Model.MaxTokens < 0 {
		add("model.maxTokens", "must not be negative, got %d", cfg.Model.MaxTokens)
	}

	if cfg.Gateway.Port < 0 || cfg.Gateway.Port > 65535 {
		add("gateway.port", "port must be 0-65535, got %d", cfg.Gateway.Port)
	}
	validBinds := []string{"loopback", "lan", "custom"}
	if cfg.Gateway.Bind != "" && !slices.Contains(validBinds, cfg.Gateway.Bind) {
		add("gateway.bind", "must be one of %v, got %q", validBinds, cfg.Gateway.Bind)
	}

	if sns := cfg.Notify.SNS; sns != nil && !strings.HasPrefix(sns.TopicARN, "arn:") {
		add("notify.sns.topicArn", "must be an ARN, got %q", sns.TopicARN)
	}
	if gm := cfg.Notify.Gmail; gm != nil {
		if gm.CredentialsFile == "" {
			add("notify.gmail.credentialsFile", "is required")
		}
		if gm.TokenFile == "" {
			add("notify.gmail.tokenFile", "is required")
		}
		if len(gm.To) == 0 {
			add("notify.gmail.to", "at least one recipient is required")
		}
	}
	if irc := cfg.Notify.IRC; irc != nil {
		if irc.Server == "" {
			add("notify.irc.server", "server is required")
		}
		if irc.Nick == "" {
			add("notify.irc.nick", "nick is required")
		}
		if len(irc.Channels) == 0 {
			add("notify.irc.channels", "at least one channel is required")
		}
		if irc.Port < 0 || irc.Port > 65535 {
			add("notify.irc.port", "port must be 0-65535, got %d", irc.Port)
		}
		if irc.SASL && irc.Password == "" {
			add("notify.irc.sasl", "SASL requires a password to be set")
		}
	}

	return issues
}
