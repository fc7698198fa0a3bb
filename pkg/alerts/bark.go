package alerts

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// barkGroup is the fixed push title segment.
const barkGroup = "流量告警"

// BarkNotifier pushes messages to a Bark device URL.
type BarkNotifier struct {
	baseURL string
	client  *http.Client
}

// NewBarkNotifier creates a Bark notifier. baseURL is the per-device push
// URL, e.g. https://api.day.app/<key>.
func NewBarkNotifier(baseURL string) *BarkNotifier {
	return &BarkNotifier{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  newHTTPClient(),
	}
}

func (b *BarkNotifier) Name() string { return ChannelBark }

func (b *BarkNotifier) Send(ctx context.Context, msg Message) error {
	target := b.baseURL + "/" + url.PathEscape(barkGroup) + "/" + url.PathEscape(msg.Body)
	if err := get(ctx, b.client, target, nil); err != nil {
		return fmt.Errorf("bark: %w", err)
	}
	return nil
}
