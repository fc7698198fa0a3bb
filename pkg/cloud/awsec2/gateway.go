// Package awsec2 implements cloud.Gateway on Amazon EC2, using CloudWatch
// NetworkOut as the traffic source.
package awsec2

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/aws/smithy-go"

	"github.com/ogulcanaydogan/cdt-guardian/pkg/cloud"
	"github.com/ogulcanaydogan/cdt-guardian/pkg/model"
)

const (
	anyCIDR      = "0.0.0.0/0"
	allProtocols = "-1"
	dayPeriod    = 86400
)

// Gateway is the EC2 implementation of cloud.Gateway.
type Gateway struct {
	account model.Account
	clients *Clients
	now     func() time.Time
}

// NewGateway creates a gateway for account backed by clients.
func NewGateway(account model.Account, clients *Clients) *Gateway {
	return &Gateway{account: account, clients: clients, now: time.Now}
}

// WithClock overrides the clock used to compute the billing window.
func (g *Gateway) WithClock(now func() time.Time) *Gateway {
	g.now = now
	return g
}

// Open is the cloud.Factory for AWS accounts. Retries are disabled so that
// every gateway method is a single attempt.
func Open(ctx context.Context, account model.Account) (cloud.Gateway, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(account.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			account.AccessKeyID, account.AccessKeySecret, "")),
		awsconfig.WithRetryer(func() aws.Retryer { return aws.NopRetryer{} }),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewGateway(account, NewClients(cfg)), nil
}

func (g *Gateway) Validate(ctx context.Context) error {
	if _, err := g.clients.STS.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{}); err != nil {
		return classify("GetCallerIdentity", err)
	}
	_, err := g.describeInstance(ctx)
	return err
}

// TrafficBytes sums NetworkOut since the start of the current month (UTC).
func (g *Gateway) TrafficBytes(ctx context.Context) (float64, error) {
	end := g.now().UTC()
	start := model.BillingPeriodStart(end, time.UTC)
	if !start.Before(end) {
		return 0, nil
	}

	out, err := g.clients.Metrics.GetMetricStatistics(ctx, &cloudwatch.GetMetricStatisticsInput{
		Namespace:  aws.String("AWS/EC2"),
		MetricName: aws.String("NetworkOut"),
		Dimensions: []cwtypes.Dimension{
			{
				Name:  aws.String("InstanceId"),
				Value: aws.String(g.account.InstanceID),
			},
		},
		StartTime:  aws.Time(start),
		EndTime:    aws.Time(end),
		Period:     aws.Int32(dayPeriod),
		Statistics: []cwtypes.Statistic{cwtypes.StatisticSum},
	})
	if err != nil {
		return 0, classify("GetMetricStatistics", err)
	}

	var total float64
	for _, dp := range out.Datapoints {
		if dp.Sum != nil {
			total += *dp.Sum
		}
	}
	return total, nil
}

func (g *Gateway) describeInstance(ctx context.Context) (*ec2types.Instance, error) {
	out, err := g.clients.EC2.DescribeInstances(ctx, &ec2.DescribeInstancesInput{
		InstanceIds: []string{g.account.InstanceID},
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "InvalidInstanceID.NotFound" {
			return nil, cloud.NotFound(g.account.InstanceID)
		}
		return nil, classify("DescribeInstances", err)
	}
	for _, r := range out.Reservations {
		for i := range r.Instances {
			if aws.ToString(r.Instances[i].InstanceId) == g.account.InstanceID {
				return &r.Instances[i], nil
			}
		}
	}
	return nil, cloud.NotFound(g.account.InstanceID)
}

func (g *Gateway) Instance(ctx context.Context) (*model.Instance, error) {
	inst, err := g.describeInstance(ctx)
	if err != nil {
		return nil, err
	}

	out := &model.Instance{
		ID:          aws.ToString(inst.InstanceId),
		ExpiredTime: model.NoExpiry,
		PublicIP:    aws.ToString(inst.PublicIpAddress),
		Status:      powerStatus(inst.State),
	}
	if out.PublicIP == "" {
		out.PublicIP = model.NoPublicIP
	}
	for _, sg := range inst.SecurityGroups {
		out.SecurityGroupIDs = append(out.SecurityGroupIDs, aws.ToString(sg.GroupId))
	}
	return out, nil
}

// matches reports whether p is the allow-all rule for 0.0.0.0/0.
func matches(p ec2types.IpPermission) bool {
	if aws.ToString(p.IpProtocol) != allProtocols {
		return false
	}
	for _, r := range p.IpRanges {
		if aws.ToString(r.CidrIp) == anyCIDR {
			return true
		}
	}
	return false
}

func (g *Gateway) RuleState(ctx context.Context, securityGroupID string) (model.RuleState, error) {
	out, err := g.clients.EC2.DescribeSecurityGroups(ctx, &ec2.DescribeSecurityGroupsInput{
		GroupIds: []string{securityGroupID},
	})
	if err != nil {
		return model.RuleDisabled, classify("DescribeSecurityGroups", err)
	}
	for _, sg := range out.SecurityGroups {
		for _, p := range sg.IpPermissions {
			if matches(p) {
				return model.RuleEnabled, nil
			}
		}
	}
	return model.RuleDisabled, nil
}

func allowAll() []ec2types.IpPermission {
	return []ec2types.IpPermission{
		{
			IpProtocol: aws.String(allProtocols),
			IpRanges:   []ec2types.IpRange{{CidrIp: aws.String(anyCIDR)}},
		},
	}
}

func (g *Gateway) EnableRule(ctx context.Context, securityGroupID string) error {
	_, err := g.clients.EC2.AuthorizeSecurityGroupIngress(ctx, &ec2.AuthorizeSecurityGroupIngressInput{
		GroupId:       aws.String(securityGroupID),
		IpPermissions: allowAll(),
	})
	if err != nil {
		return classify("AuthorizeSecurityGroupIngress", err)
	}
	return nil
}

func (g *Gateway) DisableRule(ctx context.Context, securityGroupID string) error {
	_, err := g.clients.EC2.RevokeSecurityGroupIngress(ctx, &ec2.RevokeSecurityGroupIngressInput{
		GroupId:       aws.String(securityGroupID),
		IpPermissions: allowAll(),
	})
	if err != nil {
		return classify("RevokeSecurityGroupIngress", err)
	}
	return nil
}

func (g *Gateway) InstanceStatus(ctx context.Context) (string, error) {
	inst, err := g.describeInstance(ctx)
	if err != nil {
		return "", err
	}
	return powerStatus(inst.State), nil
}

func (g *Gateway) StartInstance(ctx context.Context) error {
	_, err := g.clients.EC2.StartInstances(ctx, &ec2.StartInstancesInput{
		InstanceIds: []string{g.account.InstanceID},
	})
	if err != nil {
		return classify("StartInstances", err)
	}
	return nil
}

func (g *Gateway) StopInstance(ctx context.Context) error {
	_, err := g.clients.EC2.StopInstances(ctx, &ec2.StopInstancesInput{
		InstanceIds: []string{g.account.InstanceID},
	})
	if err != nil {
		return classify("StopInstances", err)
	}
	return nil
}

// powerStatus maps EC2 state names onto the shared power states.
func powerStatus(state *ec2types.InstanceState) string {
	if state == nil {
		return ""
	}
	switch state.Name {
	case ec2types.InstanceStateNameRunning:
		return cloud.StatusRunning
	case ec2types.InstanceStateNameStopped:
		return cloud.StatusStopped
	case ec2types.InstanceStateNamePending:
		return "Starting"
	case ec2types.InstanceStateNameStopping:
		return "Stopping"
	default:
		return string(state.Name)
	}
}

// classify maps smithy API errors onto cloud.Error by fault.
func classify(op string, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		kind := cloud.KindUnknown
		switch apiErr.ErrorFault() {
		case smithy.FaultClient:
			kind = cloud.KindClient
		case smithy.FaultServer:
			kind = cloud.KindServer
		}
		return &cloud.Error{Kind: kind, Code: apiErr.ErrorCode(), Message: apiErr.ErrorMessage(), Err: err}
	}
	return &cloud.Error{Kind: cloud.KindUnknown, Message: fmt.Sprintf("%s: %v", op, err), Err: err}
}
