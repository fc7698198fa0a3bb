// Package cloudtest provides an in-memory cloud.Gateway for tests.
package cloudtest

import (
	"context"
	"sync"

	"github.com/ogulcanaydogan/cdt-guardian/pkg/cloud"
	"github.com/ogulcanaydogan/cdt-guardian/pkg/model"
)

// Gateway is a fake cloud.Gateway whose rule state flips on Enable/Disable.
type Gateway struct {
	mu sync.Mutex

	Bytes    float64
	Rule     model.RuleState
	Details  model.Instance
	Status   string
	Calls    []string
	Enables  int
	Disables int
	Starts   int
	Stops    int

	ValidateErr error
	TrafficErr  error
	InstanceErr error
	RuleErr     error
	MutateErr   error
	PowerErr    error
}

// New returns a fake with the given traffic (GB) and rule state.
func New(trafficGB float64, rule model.RuleState) *Gateway {
	return &Gateway{
		Bytes: trafficGB * cloud.BytesPerGB,
		Rule:  rule,
		Details: model.Instance{
			ID:               "i-test",
			ExpiredTime:      "2099-12-31T15:59Z",
			PublicIP:         "47.0.0.1",
			Status:           cloud.StatusRunning,
			SecurityGroupIDs: []string{"sg-test"},
		},
		Status: cloud.StatusRunning,
	}
}

func (g *Gateway) record(call string) {
	g.Calls = append(g.Calls, call)
}

func (g *Gateway) Validate(context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record("Validate")
	return g.ValidateErr
}

func (g *Gateway) TrafficBytes(context.Context) (float64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record("TrafficBytes")
	if g.TrafficErr != nil {
		return 0, g.TrafficErr
	}
	return g.Bytes, nil
}

func (g *Gateway) Instance(context.Context) (*model.Instance, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record("Instance")
	if g.InstanceErr != nil {
		return nil, g.InstanceErr
	}
	inst := g.Details
	return &inst, nil
}

func (g *Gateway) RuleState(context.Context, string) (model.RuleState, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record("RuleState")
	if g.RuleErr != nil {
		return model.RuleDisabled, g.RuleErr
	}
	return g.Rule, nil
}

func (g *Gateway) EnableRule(context.Context, string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record("EnableRule")
	g.Enables++
	if g.MutateErr != nil {
		return g.MutateErr
	}
	g.Rule = model.RuleEnabled
	return nil
}

func (g *Gateway) DisableRule(context.Context, string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record("DisableRule")
	g.Disables++
	if g.MutateErr != nil {
		return g.MutateErr
	}
	g.Rule = model.RuleDisabled
	return nil
}

func (g *Gateway) InstanceStatus(context.Context) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record("InstanceStatus")
	if g.PowerErr != nil {
		return "", g.PowerErr
	}
	return g.Status, nil
}

func (g *Gateway) StartInstance(context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record("StartInstance")
	g.Starts++
	if g.PowerErr != nil {
		return g.PowerErr
	}
	g.Status = cloud.StatusRunning
	return nil
}

func (g *Gateway) StopInstance(context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record("StopInstance")
	g.Stops++
	if g.PowerErr != nil {
		return g.PowerErr
	}
	g.Status = cloud.StatusStopped
	return nil
}

// Mutations returns the number of rule mutations issued.
func (g *Gateway) Mutations() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.Enables + g.Disables
}

// Opener hands out fixed gateways keyed by instance id.
type Opener struct {
	Gateways map[string]*Gateway
	OpenErr  error
}

// Open implements cloud.Opener.
func (o *Opener) Open(_ context.Context, account model.Account) (cloud.Gateway, error) {
	if o.OpenErr != nil {
		return nil, o.OpenErr
	}
	gw, ok := o.Gateways[account.InstanceID]
	if !ok {
		return nil, cloud.NotFound(account.InstanceID)
	}
	return gw, nil
}
