package aliyun

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aliyun/alibaba-cloud-sdk-go/sdk"
	"github.com/aliyun/alibaba-cloud-sdk-go/sdk/auth/credentials"
	sdkerrors "github.com/aliyun/alibaba-cloud-sdk-go/sdk/errors"
	"github.com/aliyun/alibaba-cloud-sdk-go/sdk/requests"

	"github.com/ogulcanaydogan/cdt-guardian/pkg/cloud"
	"github.com/ogulcanaydogan/cdt-guardian/pkg/model"
)

const requestTimeout = 10 * time.Second

// SDKCaller sends requests with the Alibaba Cloud SDK common request API.
type SDKCaller struct {
	client *sdk.Client
}

// NewSDKCaller builds an SDK client for the account's region with automatic
// retries disabled.
func NewSDKCaller(account model.Account) (*SDKCaller, error) {
	cfg := sdk.NewConfig().
		WithAutoRetry(false).
		WithTimeout(requestTimeout)
	client, err := sdk.NewClientWithOptions(account.Region, cfg,
		credentials.NewAccessKeyCredential(account.AccessKeyID, account.AccessKeySecret))
	if err != nil {
		return nil, fmt.Errorf("create aliyun client: %w", err)
	}
	return &SDKCaller{client: client}, nil
}

// Call implements Caller. The SDK has no context support, so ctx is only
// checked before the request is sent.
func (c *SDKCaller) Call(ctx context.Context, req Request) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r := requests.NewCommonRequest()
	r.Method = requests.POST
	r.Scheme = requests.HTTPS
	r.Domain = req.Domain
	r.Version = req.Version
	r.ApiName = req.Action
	for k, v := range req.Query {
		r.QueryParams[k] = v
	}

	resp, err := c.client.ProcessCommonRequest(r)
	if err != nil {
		return nil, Classify(err)
	}
	return resp.GetHttpContentBytes(), nil
}

// Classify maps SDK errors onto cloud.Error so callers can tell client
// failures from server failures.
func Classify(err error) error {
	var serverErr *sdkerrors.ServerError
	if errors.As(err, &serverErr) {
		return &cloud.Error{
			Kind:    cloud.KindServer,
			Code:    serverErr.ErrorCode(),
			Message: serverErr.Message(),
			Err:     err,
		}
	}
	var clientErr *sdkerrors.ClientError
	if errors.As(err, &clientErr) {
		return &cloud.Error{
			Kind:    cloud.KindClient,
			Code:    clientErr.ErrorCode(),
			Message: clientErr.Message(),
			Err:     err,
		}
	}
	return &cloud.Error{Kind: cloud.KindUnknown, Message: err.Error(), Err: err}
}
