package apiclient

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind 错误分类，调用方据此选择提示文案
type Kind uint8

const (
	KindOther Kind = iota
	KindNetwork
	KindInvalid
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindRateLimited
	KindServer
	KindDecode
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindInvalid:
		return "invalid"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindRateLimited:
		return "rate_limited"
	case KindServer:
		return "server"
	case KindDecode:
		return "decode"
	default:
		return "other"
	}
}

// Error 是所有后端调用失败的统一形态
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Method  string
	URL     string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Status != 0:
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.URL, e.Status, e.Message)
	case e.Err != nil && e.Method != "":
		return fmt.Sprintf("%s %s: %s: %v", e.Method, e.URL, e.Kind, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is 按 Kind 比较，便于 errors.Is(err, ErrNotFound)
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Status == 0 && t.Message == "" && t.Err == nil && t.Kind == e.Kind
}

var (
	ErrNetwork      = &Error{Kind: KindNetwork}
	ErrInvalid      = &Error{Kind: KindInvalid}
	ErrUnauthorized = &Error{Kind: KindUnauthorized}
	ErrForbidden    = &Error{Kind: KindForbidden}
	ErrNotFound     = &Error{Kind: KindNotFound}
	ErrRateLimited  = &Error{Kind: KindRateLimited}
	ErrServer       = &Error{Kind: KindServer}
)

// Invalid 客户端校验失败，请求不会发出
func Invalid(message string, fields map[string]string) error {
	return &Error{Kind: KindInvalid, Message: message, Fields: fields}
}

// KindOf 返回 err 链中第一个 *Error 的分类
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindOther
}

// StatusOf 返回 HTTP 状态码，没有响应时为 0
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return 0
}

// ServerMessage 返回后端给出的 message，可能为空
func ServerMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Status != 0 {
		return e.Message
	}
	return ""
}

func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized:
		return KindUnauthorized
	case status == http.StatusForbidden:
		return KindForbidden
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusTooManyRequests:
		return KindRateLimited
	default:
		return KindServer
	}
}
