package notify

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"mime"
	"os"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/soyeahso/alarmhound/internal/config"
	"github.com/soyeahso/alarmhound/internal/report"
)

// GmailSender sends one raw RFC 2822 message, base64url encoded.
type GmailSender interface {
	Send(ctx context.Context, raw string) error
}

// GmailNotifier emails the HTML rendering of a report through the Gmail API.
type GmailNotifier struct {
	sender GmailSender
	from   string
	to     []string
}

// NewGmailNotifier creates a notifier with an explicit sender.
func NewGmailNotifier(sender GmailSender, from string, to []string) *GmailNotifier {
	return &GmailNotifier{sender: sender, from: from, to: to}
}

// DialGmail authenticates with the OAuth client credentials and token file in
// cfg and returns a notifier backed by the Gmail API.
func DialGmail(ctx context.Context, cfg config.GmailConfig) (*GmailNotifier, error) {
	b, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}
	oc, err := google.ConfigFromJSON(b, gmail.GmailSendScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %w", err)
	}
	tok, err := tokenFromFile(cfg.TokenFile)
	if err != nil {
		return nil, fmt.Errorf("no auth token found at %s: %w", cfg.TokenFile, err)
	}

	svc, err := gmail.NewService(ctx, option.WithHTTPClient(oc.Client(ctx, tok)))
	if err != nil {
		return nil, fmt.Errorf("unable to create Gmail service: %w", err)
	}
	return NewGmailNotifier(&gmailAPISender{svc: svc}, cfg.From, cfg.To), nil
}

func (n *GmailNotifier) Name() string { return "gmail" }

func (n *GmailNotifier) Notify(ctx context.Context, r report.Report) error {
	email, err := report.RenderEmail(r)
	if err != nil {
		return err
	}
	raw := base64.URLEncoding.EncodeToString([]byte(buildMessage(n.from, n.to, email)))
	if err := n.sender.Send(ctx, raw); err != nil {
		return fmt.Errorf("gmail send: %w", err)
	}
	return nil
}

func buildMessage(from string, to []string, e report.Email) string {
	var b strings.Builder
	if from != "" {
		fmt.Fprintf(&b, "From: %s\r\n", from)
	}
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", e.Subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: %s; charset=UTF-8\r\n", e.ContentType)
	b.WriteString("\r\n")
	b.WriteString(e.Body)
	return b.String()
}

type gmailAPISender struct {
	svc *gmail.Service
}

func (s *gmailAPISender) Send(ctx context.Context, raw string) error {
	_, err := s.svc.Users.Messages.Send("me", &gmail.Message{Raw: raw}).Context(ctx).Do()
	return err
}

func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(tok)
	return tok, err
}
