package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
)

// SuccessLabel is the Outcome string when every channel delivered.
const SuccessLabel = "成功"

// Result is one channel's delivery result. A nil Err means success.
type Result struct {
	Channel string
	Err     error
}

// Outcome collects per-channel results in dispatch order.
type Outcome struct {
	Results []Result
}

// OK reports whether every attempted channel succeeded. An outcome with no
// channels is OK.
func (o Outcome) OK() bool {
	for _, r := range o.Results {
		if r.Err != nil {
			return false
		}
	}
	return true
}

// String renders the outcome for the run log: SuccessLabel, or
// 发送失败: {"channel": true|"error", ...}.
func (o Outcome) String() string {
	if o.OK() {
		return SuccessLabel
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	buf.WriteString("发送失败: {")
	for i, r := range o.Results {
		if i > 0 {
			buf.WriteByte(',')
		}
		_ = enc.Encode(r.Channel)
		buf.Truncate(buf.Len() - 1)
		buf.WriteByte(':')
		if r.Err == nil {
			buf.WriteString("true")
			continue
		}
		_ = enc.Encode(r.Err.Error())
		buf.Truncate(buf.Len() - 1)
	}
	buf.WriteByte('}')
	return buf.String()
}

// Dispatcher fans a message out to every configured notifier.
type Dispatcher struct {
	notifiers []Notifier
	logger    *slog.Logger
}

// NewDispatcher creates a dispatcher over notifiers.
func NewDispatcher(notifiers []Notifier, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{notifiers: notifiers, logger: logger}
}

// Channels returns the names of the configured notifiers.
func (d *Dispatcher) Channels() []string {
	names := make([]string, 0, len(d.notifiers))
	for _, n := range d.notifiers {
		names = append(names, n.Name())
	}
	return names
}

// Dispatch attempts every notifier once. A failing channel never stops the
// others.
func (d *Dispatcher) Dispatch(ctx context.Context, msg Message) Outcome {
	out := Outcome{Results: make([]Result, 0, len(d.notifiers))}
	for _, n := range d.notifiers {
		err := n.Send(ctx, msg)
		if err != nil {
			d.logger.Error("send notification failed",
				"notifier", n.Name(),
				"error", err,
			)
		}
		out.Results = append(out.Results, Result{Channel: n.Name(), Err: err})
	}
	return out
}
