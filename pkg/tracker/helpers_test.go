package tracker_test

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/ogulcanaydogan/cdt-guardian/pkg/alerts"
	"github.com/ogulcanaydogan/cdt-guardian/pkg/cloud/cloudtest"
	"github.com/ogulcanaydogan/cdt-guardian/pkg/model"
	"github.com/ogulcanaydogan/cdt-guardian/pkg/tracker"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordingNotifier struct {
	mu       sync.Mutex
	name     string
	err      error
	messages []alerts.Message
}

func (r *recordingNotifier) Name() string { return r.name }

func (r *recordingNotifier) Send(_ context.Context, msg alerts.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
	return r.err
}

type recorder struct {
	checked       map[string]bool
	usage         map[string]float64
	transitions   []tracker.Action
	notifications map[string]int
}

func newRecorder() *recorder {
	return &recorder{
		checked:       map[string]bool{},
		usage:         map[string]float64{},
		notifications: map[string]int{},
	}
}

func (r *recorder) AccountChecked(account string, failed bool) { r.checked[account] = failed }
func (r *recorder) Usage(account string, pct float64)          { r.usage[account] = pct }
func (r *recorder) RuleTransition(_ string, a tracker.Action)  { r.transitions = append(r.transitions, a) }

func (r *recorder) Notification(channel string, ok bool) {
	if ok {
		r.notifications[channel]++
	}
}

func account(name, instanceID string, capGB float64) model.Account {
	return model.Account{
		Name:            name,
		AccessKeyID:     "LTAI5tAbCdEf",
		AccessKeySecret: "secret",
		Region:          "cn-hongkong",
		InstanceID:      instanceID,
		MaxTrafficGB:    capGB,
	}
}

func opener(gws map[string]*cloudtest.Gateway) *cloudtest.Opener {
	return &cloudtest.Opener{Gateways: gws}
}
