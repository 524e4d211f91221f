package util

import (
	"errors"
	"net/http"

	"lms_client/internal/apiclient"
)

// 错误出现的场景，同一状态码在不同场景下文案不同
type MessageContext int

const (
	ContextLoad MessageContext = iota
	ContextLogin
	ContextMutation
)

const (
	MsgCannotConnect = "cannot connect to server"
	MsgInvalidCreds  = "invalid credentials"
	MsgAuthRequired  = "authentication required"
	MsgAccessDenied  = "access denied"
	MsgNotFound      = "not found"
	MsgRateLimited   = "rate limited, retry later"
	MsgTooMany       = "too many requests, please wait a moment and try again"
	MsgGeneric       = "something went wrong, please try again"
)

// UserMessage 根据错误分类选择给用户看的文案
func UserMessage(err error, mc MessageContext) string {
	if err == nil {
		return ""
	}

	var apiErr *apiclient.Error
	if !errors.As(err, &apiErr) {
		return MsgGeneric
	}

	switch apiErr.Kind {
	case apiclient.KindNetwork:
		return MsgCannotConnect
	case apiclient.KindUnauthorized:
		if mc == ContextLogin {
			return MsgInvalidCreds
		}
		return MsgAuthRequired
	case apiclient.KindForbidden:
		return MsgAccessDenied
	case apiclient.KindNotFound:
		return MsgNotFound
	case apiclient.KindRateLimited:
		if mc == ContextMutation {
			return MsgTooMany
		}
		return MsgRateLimited
	case apiclient.KindInvalid:
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return MsgGeneric
	default:
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return MsgGeneric
	}
}

// RecoveryActions 错误态下至少给出一个可操作项
func RecoveryActions(err error) []string {
	switch apiclient.KindOf(err) {
	case apiclient.KindUnauthorized:
		return []string{ActionLogin}
	case apiclient.KindNotFound:
		return []string{ActionBrowse, ActionBack}
	case apiclient.KindForbidden:
		return []string{ActionBack}
	default:
		return []string{ActionRetry, ActionBack}
	}
}

func statusOf(err error) int {
	var apiErr *apiclient.Error
	if errors.As(err, &apiErr) {
		if apiErr.Kind == apiclient.KindInvalid && apiErr.Status == 0 {
			return http.StatusUnprocessableEntity
		}
		return apiErr.Status
	}
	return 0
}
