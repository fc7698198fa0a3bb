// Package aliyun implements cloud.Gateway on Alibaba Cloud ECS and CDT.
package aliyun

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ogulcanaydogan/cdt-guardian/pkg/cloud"
	"github.com/ogulcanaydogan/cdt-guardian/pkg/model"
)

const (
	ecsVersion = "2014-05-26"
	cdtVersion = "2021-08-13"
	cdtDomain  = "cdt.aliyuncs.com"

	anyCIDR      = "0.0.0.0/0"
	allProtocols = "all"
	allPorts     = "-1/-1"
	policyAccept = "accept"
	nicIntranet  = "intranet"
	directionIn  = "ingress"
)

// Request is one RPC-style API call.
type Request struct {
	Domain  string
	Version string
	Action  string
	Query   map[string]string
}

// Caller executes RPC requests and returns the raw JSON response body.
type Caller interface {
	Call(ctx context.Context, req Request) ([]byte, error)
}

// Gateway is the Alibaba Cloud implementation of cloud.Gateway.
type Gateway struct {
	account model.Account
	caller  Caller
}

// NewGateway creates a gateway for account that issues requests through c.
func NewGateway(account model.Account, c Caller) *Gateway {
	return &Gateway{account: account, caller: c}
}

// Open is the cloud.Factory for Alibaba Cloud accounts.
func Open(_ context.Context, account model.Account) (cloud.Gateway, error) {
	c, err := NewSDKCaller(account)
	if err != nil {
		return nil, err
	}
	return NewGateway(account, c), nil
}

func (g *Gateway) ecsDomain() string {
	return fmt.Sprintf("ecs.%s.aliyuncs.com", g.account.Region)
}

func (g *Gateway) ecs(ctx context.Context, action string, query map[string]string, out any) error {
	if query == nil {
		query = map[string]string{}
	}
	query["RegionId"] = g.account.Region
	return g.do(ctx, Request{Domain: g.ecsDomain(), Version: ecsVersion, Action: action, Query: query}, out)
}

func (g *Gateway) do(ctx context.Context, req Request, out any) error {
	body, err := g.caller.Call(ctx, req)
	if err != nil {
		return fmt.Errorf("%s: %w", req.Action, err)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s response: %w", req.Action, err)
	}
	return nil
}

type describeInstancesResponse struct {
	Instances struct {
		Instance []instanceAttributes `json:"Instance"`
	} `json:"Instances"`
}

type instanceAttributes struct {
	InstanceID  string `json:"InstanceId"`
	Status      string `json:"Status"`
	ExpiredTime string `json:"ExpiredTime"`
	EipAddress  struct {
		IPAddress string `json:"IpAddress"`
	} `json:"EipAddress"`
	PublicIPAddress struct {
		IPAddress []string `json:"IpAddress"`
	} `json:"PublicIpAddress"`
	SecurityGroupIDs struct {
		SecurityGroupID []string `json:"SecurityGroupId"`
	} `json:"SecurityGroupIds"`
}

func (g *Gateway) describeInstance(ctx context.Context) (*instanceAttributes, error) {
	ids, _ := json.Marshal([]string{g.account.InstanceID})
	var resp describeInstancesResponse
	if err := g.ecs(ctx, "DescribeInstances", map[string]string{"InstanceIds": string(ids)}, &resp); err != nil {
		return nil, err
	}
	for i := range resp.Instances.Instance {
		if resp.Instances.Instance[i].InstanceID == g.account.InstanceID {
			return &resp.Instances.Instance[i], nil
		}
	}
	return nil, cloud.NotFound(g.account.InstanceID)
}

func (g *Gateway) Validate(ctx context.Context) error {
	_, err := g.describeInstance(ctx)
	return err
}

type listTrafficResponse struct {
	TrafficDetails []struct {
		Traffic float64 `json:"Traffic"`
	} `json:"TrafficDetails"`
}

func (g *Gateway) TrafficBytes(ctx context.Context) (float64, error) {
	var resp listTrafficResponse
	req := Request{Domain: cdtDomain, Version: cdtVersion, Action: "ListCdtInternetTraffic"}
	if err := g.do(ctx, req, &resp); err != nil {
		return 0, err
	}

	var total float64
	for _, d := range resp.TrafficDetails {
		total += d.Traffic
	}
	return total, nil
}

func (g *Gateway) Instance(ctx context.Context) (*model.Instance, error) {
	attrs, err := g.describeInstance(ctx)
	if err != nil {
		return nil, err
	}

	inst := &model.Instance{
		ID:               attrs.InstanceID,
		Status:           attrs.Status,
		ExpiredTime:      attrs.ExpiredTime,
		PublicIP:         attrs.EipAddress.IPAddress,
		SecurityGroupIDs: attrs.SecurityGroupIDs.SecurityGroupID,
	}
	if inst.ExpiredTime == "" {
		inst.ExpiredTime = model.NoExpiry
	}
	if inst.PublicIP == "" && len(attrs.PublicIPAddress.IPAddress) > 0 {
		inst.PublicIP = attrs.PublicIPAddress.IPAddress[0]
	}
	if inst.PublicIP == "" {
		inst.PublicIP = model.NoPublicIP
	}
	return inst, nil
}

type securityGroupAttributeResponse struct {
	Permissions struct {
		Permission []permission `json:"Permission"`
	} `json:"Permissions"`
}

type permission struct {
	IPProtocol   string `json:"IpProtocol"`
	SourceCidrIP string `json:"SourceCidrIp"`
	Policy       string `json:"Policy"`
	NicType      string `json:"NicType"`
	Direction    string `json:"Direction"`
}

// matches reports whether p is the allow-all intranet ingress rule.
func (p permission) matches() bool {
	return strings.EqualFold(p.IPProtocol, allProtocols) &&
		p.SourceCidrIP == anyCIDR &&
		strings.EqualFold(p.Policy, policyAccept) &&
		p.NicType == nicIntranet &&
		p.Direction == directionIn
}

func (g *Gateway) RuleState(ctx context.Context, securityGroupID string) (model.RuleState, error) {
	var resp securityGroupAttributeResponse
	err := g.ecs(ctx, "DescribeSecurityGroupAttribute", map[string]string{
		"SecurityGroupId": securityGroupID,
		"Direction":       directionIn,
	}, &resp)
	if err != nil {
		return model.RuleDisabled, err
	}

	for _, p := range resp.Permissions.Permission {
		if p.matches() {
			return model.RuleEnabled, nil
		}
	}
	return model.RuleDisabled, nil
}

func ruleQuery(securityGroupID string) map[string]string {
	return map[string]string{
		"SecurityGroupId": securityGroupID,
		"IpProtocol":      allProtocols,
		"PortRange":       allPorts,
		"SourceCidrIp":    anyCIDR,
		"Policy":          policyAccept,
		"NicType":         nicIntranet,
	}
}

func (g *Gateway) EnableRule(ctx context.Context, securityGroupID string) error {
	return g.ecs(ctx, "AuthorizeSecurityGroup", ruleQuery(securityGroupID), nil)
}

func (g *Gateway) DisableRule(ctx context.Context, securityGroupID string) error {
	return g.ecs(ctx, "RevokeSecurityGroup", ruleQuery(securityGroupID), nil)
}

type instanceStatusResponse struct {
	InstanceStatuses struct {
		InstanceStatus []struct {
			InstanceID string `json:"InstanceId"`
			Status     string `json:"Status"`
		} `json:"InstanceStatus"`
	} `json:"InstanceStatuses"`
}

func (g *Gateway) InstanceStatus(ctx context.Context) (string, error) {
	var resp instanceStatusResponse
	err := g.ecs(ctx, "DescribeInstanceStatus", map[string]string{"InstanceId.1": g.account.InstanceID}, &resp)
	if err != nil {
		return "", err
	}
	for _, s := range resp.InstanceStatuses.InstanceStatus {
		if s.InstanceID == g.account.InstanceID {
			return s.Status, nil
		}
	}
	return "", cloud.NotFound(g.account.InstanceID)
}

func (g *Gateway) StartInstance(ctx context.Context) error {
	return g.ecs(ctx, "StartInstance", map[string]string{"InstanceId": g.account.InstanceID}, nil)
}

func (g *Gateway) StopInstance(ctx context.Context) error {
	return g.ecs(ctx, "StopInstance", map[string]string{"InstanceId": g.account.InstanceID}, nil)
}
