package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"github.com/soyeahso/alarmhound/internal/report"
)

// maxSNSSubject is the SNS limit on email subject length.
const maxSNSSubject = 100

// SNSAPI is the subset of the SNS client used here.
type SNSAPI interface {
	Publish(ctx context.Context, in *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSNotifier publishes the HTML email rendering of a report to a topic.
type SNSNotifier struct {
	api      SNSAPI
	topicARN string
}

// NewSNSNotifier creates a notifier for the given topic.
func NewSNSNotifier(api SNSAPI, topicARN string) *SNSNotifier {
	return &SNSNotifier{api: api, topicARN: topicARN}
}

func (n *SNSNotifier) Name() string { return "sns" }

func (n *SNSNotifier) Notify(ctx context.Context, r report.Report) error {
	email, err := report.RenderEmail(r)
	if err != nil {
		return err
	}
	_, err = n.api.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(n.topicARN),
		Subject:  aws.String(snsSubject(email.Subject)),
		Message:  aws.String(email.Body),
	})
	if err != nil {
		return fmt.Errorf("sns publish: %w", err)
	}
	return nil
}

// snsSubject strips line breaks and truncates to the SNS subject limit
// without splitting a multi-byte character.
func snsSubject(s string) string {
	s = strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
	if len(s) <= maxSNSSubject {
		return s
	}
	cut := maxSNSSubject
	for cut > 0 && !utf8RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func utf8RuneStart(b byte) bool { return b&0xC0 != 0x80 }
