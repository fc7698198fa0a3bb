package alerts

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// DefaultTelegramAPI is the public Bot API endpoint.
const DefaultTelegramAPI = "https://api.telegram.org"

// TelegramNotifier sends messages through the Telegram Bot API.
type TelegramNotifier struct {
	apiBase string
	token   string
	chatID  string
	client  *http.Client
}

// NewTelegramNotifier creates a Telegram notifier. An empty apiBase uses
// DefaultTelegramAPI.
func NewTelegramNotifier(apiBase, token, chatID string) *TelegramNotifier {
	if apiBase == "" {
		apiBase = DefaultTelegramAPI
	}
	return &TelegramNotifier{
		apiBase: strings.TrimRight(apiBase, "/"),
		token:   token,
		chatID:  chatID,
		client:  newHTTPClient(),
	}
}

func (t *TelegramNotifier) Name() string { return ChannelTelegram }

func (t *TelegramNotifier) Send(ctx context.Context, msg Message) error {
	q := url.Values{}
	q.Set("chat_id", t.chatID)
	q.Set("text", msg.Body)
	target := fmt.Sprintf("%s/bot%s/sendMessage?%s", t.apiBase, t.token, q.Encode())

	if err := get(ctx, t.client, target, nil); err != nil {
		return fmt.Errorf("telegram: %w", err)
	}
	return nil
}
