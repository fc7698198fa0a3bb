package cloud

import (
	"errors"
	"fmt"
)

// ErrorKind distinguishes where a cloud call failed.
type ErrorKind string

const (
	KindClient  ErrorKind = "client"  // Bad credentials, malformed request
	KindServer  ErrorKind = "server"  // Invalid instance id, throttling
	KindUnknown ErrorKind = "unknown" // Anything else
)

// Label returns the message prefix used in logs and notifications.
func (k ErrorKind) Label() string {
	switch k {
	case KindClient:
		return "客户端异常"
	case KindServer:
		return "服务器异常"
	default:
		return "未知错误"
	}
}

// ErrInstanceNotFound is returned by Validate when the instance id is not
// visible to the credentials.
var ErrInstanceNotFound = errors.New("instance not found")

// Error is a classified cloud API failure.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Kind.Label(), e.Message, e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Kind.Label(), e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// NotFound builds the error returned for a missing instance.
func NotFound(instanceID string) *Error {
	return &Error{
		Kind:    KindUnknown,
		Message: "指定的实例ID不存在: " + instanceID,
		Err:     ErrInstanceNotFound,
	}
}

// KindOf classifies err. Errors that are not *Error are KindUnknown.
func KindOf(err error) ErrorKind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindUnknown
}

// Describe renders err for an error notification: the kind label followed by
// the vendor message.
func Describe(err error) string {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Error()
	}
	return KindUnknown.Label() + ": " + err.Error()
}
