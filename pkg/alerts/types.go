package alerts

import "context"

// Channel names, used as keys in Outcome and as metric labels.
const (
	ChannelEmail    = "email"
	ChannelBark     = "bark"
	ChannelTelegram = "telegram"
	ChannelWebhook  = "webhook"
	ChannelWeCom    = "wecom"
)

// Message is a notification ready to be sent. Body is plain text with
// newline-separated lines.
type Message struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Notifier sends messages to external systems.
type Notifier interface {
	// Name returns the channel identifier.
	Name() string

	// Send delivers a message with a single attempt.
	Send(ctx context.Context, msg Message) error
}
