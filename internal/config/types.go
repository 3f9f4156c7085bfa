package config

// Config is the root configuration for alarmhound.
type Config struct {
	Logging      LoggingConfig      `yaml:"logging,omitempty"`
	Investigator InvestigatorConfig `yaml:"investigator,omitempty"`
	Model        ModelConfig        `yaml:"model,omitempty"`
	AWS          AWSConfig          `yaml:"aws,omitempty"`
	Capabilities CapabilitiesConfig `yaml:"capabilities,omitempty"`
	Gateway      GatewayConfig      `yaml:"gateway,omitempty"`
	Store        StoreConfig        `yaml:"store,omitempty"`
	Notify       NotifyConfig       `yaml:"notify,omitempty"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level        string `yaml:"level,omitempty"` // "silent" | "fatal" | "error" | "warn" | "info" | "debug" | "trace"
	ConsoleStyle string `yaml:"consoleStyle,omitempty"` // "pretty" | "json"
	File         string `yaml:"file,omitempty"`
	MaxSizeMB    int    `yaml:"maxSizeMB,omitempty"`
	MaxBackups   int    `yaml:"maxBackups,omitempty"`
	MaxAgeDays   int    `yaml:"maxAgeDays,omitempty"`
	Compress     bool   `yaml:"compress,omitempty"`
}

// InvestigatorConfig bounds the conversation loop.
type InvestigatorConfig struct {
	MaxIterations int    `yaml:"maxIterations,omitempty"`
	Parallelism   int    `yaml:"parallelism,omitempty"` // 1 runs tool calls strictly in order
	Task          string `yaml:"task,omitempty"`        // seed instruction; empty uses the built-in one
}

// ModelConfig selects the reasoning service.
type ModelConfig struct {
	Provider    string   `yaml:"provider,omitempty"` // "bedrock" | "anthropic"
	ID          string   `yaml:"id,omitempty"`
	Fallbacks   []string `yaml:"fallbacks,omitempty"`
	MaxTokens   int      `yaml:"maxTokens,omitempty"`
	Temperature *float64 `yaml:"temperature,omitempty"`
	APIKey      string   `yaml:"apiKey,omitempty"`   // anthropic only
	Endpoint    string   `yaml:"endpoint,omitempty"` // anthropic only; overrides the public API URL
}

// AWSConfig controls SDK client construction.
type AWSConfig struct {
	Region  string `yaml:"region,omitempty"`
	Profile string `yaml:"profile,omitempty"`
}

// CapabilitiesConfig selects which diagnostics are advertised.
type CapabilitiesConfig struct {
	Enabled           []string `yaml:"enabled,omitempty"` // empty enables all
	DigitalOceanToken string   `yaml:"digitalOceanToken,omitempty"`
}

// GatewayConfig controls the HTTP intake server.
type GatewayConfig struct {
	Port           int         `yaml:"port,omitempty"`
	Bind           string      `yaml:"bind,omitempty"` // "loopback" | "lan" | "custom"
	CustomBindHost string      `yaml:"customBindHost,omitempty"`
	Auth           GatewayAuth `yaml:"auth,omitempty"`
	AllowedOrigins []string    `yaml:"allowedOrigins,omitempty"`
}

// GatewayAuth configures bearer-token authentication.
type GatewayAuth struct {
	Token string `yaml:"token,omitempty"`
}

// StoreConfig locates the report database.
type StoreConfig struct {
	Path     string `yaml:"path,omitempty"`
	Disabled bool   `yaml:"disabled,omitempty"`
}

// NotifyConfig lists report delivery channels. Nil sections are disabled.
type NotifyConfig struct {
	SNS   *SNSConfig   `yaml:"sns,omitempty"`
	Gmail *GmailConfig `yaml:"gmail,omitempty"`
	IRC   *IRCConfig   `yaml:"irc,omitempty"`
}

// SNSConfig publishes the email rendering to an SNS topic.
type SNSConfig struct {
	TopicARN string `yaml:"topicArn"`
}

// GmailConfig sends the HTML report through the Gmail API.
type GmailConfig struct {
	CredentialsFile string   `yaml:"credentialsFile"`
	TokenFile       string   `yaml:"tokenFile"`
	From            string   `yaml:"from,omitempty"`
	To              []string `yaml:"to"`
}

// IRCConfig posts a one-line summary to IRC channels.
type IRCConfig struct {
	Server   string   `yaml:"server"`
	Port     int      `yaml:"port,omitempty"`
	Nick     string   `yaml:"nick"`
	Password string   `yaml:"password,omitempty"`
	Channels []string `yaml:"channels"`
	UseTLS   bool     `yaml:"useTLS,omitempty"`
	SASL     bool     `yaml:"sasl,omitempty"`
}
