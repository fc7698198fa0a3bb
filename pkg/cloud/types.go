package cloud

import (
	"context"

	"github.com/ogulcanaydogan/cdt-guardian/pkg/model"
)

// BytesPerGB converts vendor byte counters to gigabytes.
const BytesPerGB = 1024 * 1024 * 1024

// Instance power states reported by InstanceStatus.
const (
	StatusRunning = "Running"
	StatusStopped = "Stopped"
)

// Gateway is an authenticated session against one account's cloud API.
// Every method is a single remote call attempt; implementations never retry.
type Gateway interface {
	// Validate checks the credentials and that the configured instance exists.
	Validate(ctx context.Context) error

	// TrafficBytes returns the cumulative internet traffic for the billing scope.
	TrafficBytes(ctx context.Context) (float64, error)

	// Instance describes the monitored instance.
	Instance(ctx context.Context) (*model.Instance, error)

	// RuleState reports whether the allow-all ingress rule is present on the
	// security group.
	RuleState(ctx context.Context, securityGroupID string) (model.RuleState, error)

	// EnableRule authorizes the allow-all ingress rule.
	EnableRule(ctx context.Context, securityGroupID string) error

	// DisableRule revokes the allow-all ingress rule.
	DisableRule(ctx context.Context, securityGroupID string) error

	// InstanceStatus returns the power state of the instance.
	InstanceStatus(ctx context.Context) (string, error)

	// StartInstance powers the instance on.
	StartInstance(ctx context.Context) error

	// StopInstance powers the instance off.
	StopInstance(ctx context.Context) error
}

// Factory opens a Gateway for an account.
type Factory func(ctx context.Context, account model.Account) (Gateway, error)

// Opener opens gateways for accounts. Registry implements it.
type Opener interface {
	Open(ctx context.Context, account model.Account) (Gateway, error)
}
