package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/lrstanley/girc"

	"github.com/soyeahso/alarmhound/internal/config"
	"github.com/soyeahso/alarmhound/internal/logging"
	"github.com/soyeahso/alarmhound/internal/report"
)

const (
	ircMaxLine        = 400
	ircSummaryLimit   = 600
	ircConnectTimeout = 30 * time.Second
)

// IRCSender writes one PRIVMSG line to a target.
type IRCSender interface {
	Message(target, line string) error
}

// IRCNotifier posts a short report summary to each configured channel.
// The connection is opened on first use and kept until Close.
type IRCNotifier struct {
	cfg config.IRCConfig
	log *logging.Logger

	mu     sync.Mutex
	client *girc.Client
	sender IRCSender
}

// NewIRCNotifier creates a notifier that connects lazily using cfg.
func NewIRCNotifier(cfg config.IRCConfig, log *logging.Logger) *IRCNotifier {
	return &IRCNotifier{cfg: cfg, log: log.Sub("irc")}
}

// NewIRCNotifierWithSender creates a notifier writing to an existing sender.
func NewIRCNotifierWithSender(channels []string, sender IRCSender, log *logging.Logger) *IRCNotifier {
	return &IRCNotifier{
		cfg:    config.IRCConfig{Channels: channels},
		log:    log.Sub("irc"),
		sender: sender,
	}
}

func (n *IRCNotifier) Name() string { return "irc" }

func (n *IRCNotifier) Notify(ctx context.Context, r report.Report) error {
	sender, err := n.connect(ctx)
	if err != nil {
		return err
	}
	lines := splitMessage(Summary(r), ircMaxLine)
	for _, ch := range n.cfg.Channels {
		for _, line := range lines {
			if line == "" {
				continue
			}
			if err := sender.Message(ch, line); err != nil {
				return fmt.Errorf("irc: send to %s: %w", ch, err)
			}
		}
		n.log.Debug().Str("channel", ch).Int("lines", len(lines)).Msg("posted report summary")
	}
	return nil
}

// Close quits the IRC connection if one was opened.
func (n *IRCNotifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.client != nil {
		if n.client.IsConnected() {
			n.client.Quit("alarmhound shutting down")
		}
		n.client.Close()
		n.client = nil
		n.sender = nil
	}
	return nil
}

func (n *IRCNotifier) connect(ctx context.Context) (IRCSender, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.sender != nil && (n.client == nil || n.client.IsConnected()) {
		return n.sender, nil
	}

	port := n.cfg.Port
	if port == 0 {
		if n.cfg.UseTLS {
			port = 6697
		} else {
			port = 6667
		}
	}
	gcfg := girc.Config{
		Server:  n.cfg.Server,
		Port:    port,
		Nick:    n.cfg.Nick,
		User:    n.cfg.Nick,
		Name:    "alarmhound",
		SSL:     n.cfg.UseTLS,
		Version: "alarmhound/1.0",
	}
	if n.cfg.UseTLS {
		gcfg.TLSConfig = &tls.Config{ServerName: n.cfg.Server}
	}
	if n.cfg.SASL && n.cfg.Password != "" {
		gcfg.SASL = &girc.SASLPlain{User: n.cfg.Nick, Pass: n.cfg.Password}
	} else if n.cfg.Password != "" {
		gcfg.ServerPass = n.cfg.Password
	}

	client := girc.New(gcfg)
	ready := make(chan struct{})
	var once sync.Once
	client.Handlers.Add(girc.CONNECTED, func(c *girc.Client, e girc.Event) {
		for _, ch := range n.cfg.Channels {
			c.Cmd.Join(ch)
		}
		once.Do(func() { close(ready) })
	})

	n.log.Info().Str("server", n.cfg.Server).Int("port", port).Str("nick", n.cfg.Nick).Msg("connecting to IRC")
	errCh := make(chan error, 1)
	go func() { errCh <- client.Connect() }()

	timer := time.NewTimer(ircConnectTimeout)
	defer timer.Stop()
	select {
	case <-ready:
	case err := <-errCh:
		if err == nil {
			err = fmt.Errorf("connection closed")
		}
		return nil, fmt.Errorf("irc connect: %w", err)
	case <-timer.C:
		client.Close()
		return nil, fmt.Errorf("irc connect: timed out after %s", ircConnectTimeout)
	case <-ctx.Done():
		client.Close()
		return nil, ctx.Err()
	}

	n.client = client
	n.sender = gircSender{client: client}
	return n.sender, nil
}

type gircSender struct {
	client *girc.Client
}

func (s gircSender) Message(target, line string) error {
	if !s.client.IsConnected() {
		return fmt.Errorf("not connected")
	}
	s.client.Cmd.Message(target, line)
	return nil
}

// Summary renders the short multi-line IRC form of a report.
func Summary(r report.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s in %s (account %s): %s -> %s\n",
		r.State, r.AlarmName, r.Region, r.AccountID, r.PreviousState, r.State)
	if r.Reason != "" {
		fmt.Fprintf(&b, "Reason: %s\n", r.Reason)
	}
	analysis := strings.Join(strings.Fields(r.Analysis), " ")
	if len(analysis) > ircSummaryLimit {
		analysis = analysis[:ircSummaryLimit] + "..."
	}
	fmt.Fprintf(&b, "Analysis (%s, %d tool calls): %s", r.Outcome, r.ToolCalls, analysis)
	return b.String()
}

// splitMessage splits text on newlines, then chunks lines longer than maxLen.
func splitMessage(text string, maxLen int) []string {
	var chunks []string
	for _, line := range strings.Split(text, "\n") {
		for len(line) > maxLen {
			chunks = append(chunks, line[:maxLen])
			line = line[maxLen:]
		}
		if line != "" {
			chunks = append(chunks, line)
		}
	}
	if len(chunks) == 0 {
		return []string{text}
	}
	return chunks
}
