package contact

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/m-mizutani/goerr/v2"

	"github.com/nexgen-studio/growthkit/manifest"
)

var ErrUpstream = errors.New("upstream provider failed")

// UpstreamError carries the provider's response when it rejects a lead.
type UpstreamError struct {
	Provider string
	Status   int
	Body     string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s responded %d: %s", e.Provider, e.Status, e.Body)
}

func (e *UpstreamError) Is(target error) bool { return target == ErrUpstream }

// Metadata describes the request a lead arrived on.
type Metadata struct {
	IP        string `json:"ip"`
	UserAgent string `json:"userAgent"`
}

// Forwarder delivers a validated lead to its destination.
type Forwarder interface {
	Forward(ctx context.Context, lead Lead, meta Metadata) error
}

const webhookSource = "website-contact-form"

type webhookPayload struct {
	Source    string   `json:"source"`
	Timestamp string   `json:"timestamp"`
	Lead      Lead     `json:"lead"`
	Metadata  Metadata `json:"metadata"`
}

// WebhookForwarder posts leads as JSON to an automation webhook.
type WebhookForwarder struct {
	URL    string
	Secret string
	Client *http.Client
	Now    func() time.Time
}

// NewWebhookForwarder returns a forwarder with a 10 second client timeout.
func NewWebhookForwarder(url, secret string) *WebhookForwarder {
	return &WebhookForwarder{
		URL:    url,
		Secret: secret,
		Client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (w *WebhookForwarder) Forward(ctx context.Context, lead Lead, meta Metadata) error {
	now := time.Now
	if w.Now != nil {
		now = w.Now
	}
	body, err := json.Marshal(webhookPayload{
		Source:    webhookSource,
		Timestamp: now().UTC().Format(manifest.TimestampLayout),
		Lead:      lead,
		Metadata:  meta,
	})
	if err != nil {
		return goerr.Wrap(err, "failed to encode webhook payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		return goerr.Wrap(err, "failed to build webhook request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Cache-Control", "no-store")
	if w.Secret != "" {
		req.Header.Set("x-webhook-secret", w.Secret)
	}

	client := w.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return goerr.Wrap(err, "webhook request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return &UpstreamError{Provider: "webhook", Status: resp.StatusCode, Body: string(text)}
	}
	return nil
}

// EmailSender is the subset of the SESv2 client used by SESForwarder.
type EmailSender interface {
	SendEmail(ctx context.Context, in *sesv2.SendEmailInput, opts ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESForwarder emails leads through Amazon SES. Replies go to the lead.
type SESForwarder struct {
	Client EmailSender
	From   string
	To     []string
}

// NewSESForwarder builds a forwarder from an AWS config.
func NewSESForwarder(cfg aws.Config, from string, to ...string) *SESForwarder {
	return &SESForwarder{Client: sesv2.NewFromConfig(cfg), From: from, To: to}
}

func (s *SESForwarder) Forward(ctx context.Context, lead Lead, meta Metadata) error {
	_, err := s.Client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.From),
		Destination:      &types.Destination{ToAddresses: s.To},
		ReplyToAddresses: []string{lead.Email},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(leadSubject(lead)), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(leadBody(lead, meta)), Charset: aws.String("UTF-8")},
				},
			},
		},
	})
	if err == nil {
		return nil
	}
	var re *awshttp.ResponseError
	if errors.As(err, &re) {
		return &UpstreamError{Provider: "ses", Status: re.HTTPStatusCode(), Body: re.Error()}
	}
	return goerr.Wrap(err, "failed to send lead email")
}

func leadSubject(lead Lead) string {
	return fmt.Sprintf("New lead: %s (%s)", lead.Name, lead.Service)
}

func leadBody(lead Lead, meta Metadata) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Name: %s\n", lead.Name)
	fmt.Fprintf(&b, "Email: %s\n", lead.Email)
	fmt.Fprintf(&b, "Service: %s\n\n", lead.Service)
	b.WriteString(lead.Project)
	fmt.Fprintf(&b, "\n\n--\nSource: %s\nIP: %s\nUser-Agent: %s\n", webhookSource, meta.IP, meta.UserAgent)
	return b.String()
}
