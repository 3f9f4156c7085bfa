package llm

import (
	"fmt"

	"github.com/soyeahso/alarmhound/internal/config"
	"github.com/soyeahso/alarmhound/internal/logging"
)

// FromConfig builds the client chain described by the model section. The
// primary model comes first, followed by one client per fallback model id on
// the same provider. bedrock may be nil when the provider is anthropic.
func FromConfig(cfg config.ModelConfig, bedrock ConverseAPI, log *logging.Logger) (Client, error) {
	ids := append([]string{cfg.ID}, cfg.Fallbacks...)

	clients := make([]Client, 0, len(ids))
	for _, id := range ids {
		c, err := newProvider(cfg, id, bedrock)
		if err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}

	if len(clients) == 1 {
		return clients[0], nil
	}
	return NewFailoverClient(log, clients[0], clients[1:]...), nil
}

func newProvider(cfg config.ModelConfig, id string, bedrock ConverseAPI) (Client, error) {
	switch cfg.Provider {
	case "", "bedrock":
		if bedrock == nil {
			return nil, fmt.Errorf("bedrock provider requires a runtime client")
		}
		return NewBedrockClient(bedrock, id), nil
	case "anthropic":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("anthropic provider requires an api key")
		}
		return NewAnthropicClient(cfg.APIKey, id, cfg.Endpoint), nil
	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.Provider)
	}
}
