package alerts

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
)

// WebhookNotifier sends messages to a generic HTTP webhook as query
// parameters id, title and content.
type WebhookNotifier struct {
	url    string
	id     string
	secret string
	client *http.Client
}

// NewWebhookNotifier creates a generic webhook notifier.
// If secret is non-empty, the content is signed with HMAC-SHA256.
func NewWebhookNotifier(rawURL, id, secret string) *WebhookNotifier {
	return &WebhookNotifier{
		url:    rawURL,
		id:     id,
		secret: secret,
		client: newHTTPClient(),
	}
}

func (w *WebhookNotifier) Name() string { return ChannelWebhook }

func (w *WebhookNotifier) Send(ctx context.Context, msg Message) error {
	u, err := url.Parse(w.url)
	if err != nil {
		return fmt.Errorf("parse webhook url: %w", err)
	}
	q := u.Query()
	q.Set("id", w.id)
	q.Set("title", msg.Title)
	q.Set("content", msg.Body)
	u.RawQuery = q.Encode()

	var header http.Header
	if w.secret != "" {
		header = http.Header{}
		header.Set("X-Signature-256", "sha256="+computeHMAC([]byte(msg.Body), []byte(w.secret)))
	}

	if err := get(ctx, w.client, u.String(), header); err != nil {
		return fmt.Errorf("webhook: %w", err)
	}
	return nil
}

func computeHMAC(message, key []byte) string {
	mac := hmac.New(sha256.New, key)
	mac.Write(message)
	return hex.EncodeToString(mac.Sum(nil))
}
