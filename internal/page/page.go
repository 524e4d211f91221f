// Package page 页面级编排：并发拉取、合并进页面状态、守护重复加载。
// 每个页面实例对应一次页面生命周期，Close 之后迟到的结果一律丢弃。
package page

import (
	"context"
	"errors"
	"sync"

	"lms_client/internal/apiclient"
	"lms_client/internal/loader"
	"lms_client/internal/util"
	"lms_client/pkg/logger"

	"go.uber.org/zap"
)

// ViewError 页面内错误态，至少带一个可操作项
type ViewError struct {
	Message string   `json:"message"`
	Status  int      `json:"status,omitempty"`
	Actions []string `json:"actions"`
}

func newViewError(err error, mc util.MessageContext) *ViewError {
	if err == nil || errors.Is(err, loader.ErrDiscarded) {
		return nil
	}
	return &ViewError{
		Message: util.UserMessage(err, mc),
		Status:  apiclient.StatusOf(err),
		Actions: util.RecoveryActions(err),
	}
}

// Alert 用户操作失败时的提示
type Alert struct {
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
	Err     error             `json:"-"`
}

func (a *Alert) Error() string { return a.Message }

func (a *Alert) Unwrap() error { return a.Err }

func newAlert(err error) *Alert {
	a := &Alert{Message: util.UserMessage(err, util.ContextMutation), Err: err}
	var apiErr *apiclient.Error
	if errors.As(err, &apiErr) && len(apiErr.Fields) > 0 {
		a.Fields = apiErr.Fields
	}
	return a
}

// localAlert 本地拦截的操作，不会发请求
func localAlert(msg string, err error) *Alert {
	return &Alert{Message: msg, Err: err}
}

// AlertMessage 从操作返回的错误里取出提示文案
func AlertMessage(err error) string {
	if err == nil {
		return ""
	}
	var a *Alert
	if errors.As(err, &a) {
		return a.Message
	}
	return util.UserMessage(err, util.ContextMutation)
}

// base 所有页面共享的生命周期与错误态
type base struct {
	name  string
	scope *loader.Scope

	mu    sync.Mutex
	err   *ViewError
	alert *Alert
}

func newBase(parent context.Context, name string) base {
	return base{name: name, scope: loader.NewScope(parent)}
}

// Close 页面销毁，取消在途请求
func (b *base) Close() {
	b.scope.Close()
}

// fail 记录第一个失败，之后的失败不覆盖
func (b *base) fail(err error, mc util.MessageContext) {
	ve := newViewError(err, mc)
	if ve == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err == nil {
		b.err = ve
		logger.Log.Warn("page load failed", zap.String("page", b.name), zap.Error(err))
	}
}

func (b *base) viewError() *ViewError {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err == nil {
		return nil
	}
	ve := *b.err
	ve.Actions = append([]string(nil), b.err.Actions...)
	return &ve
}

// mutationFailed 记住最近一次失败提示并返回
func (b *base) mutationFailed(err error) error {
	if errors.Is(err, loader.ErrDiscarded) {
		return err
	}
	var a *Alert
	if !errors.As(err, &a) {
		a = newAlert(err)
	}
	b.mu.Lock()
	b.alert = a
	b.mu.Unlock()
	logger.Log.Info("page action rejected", zap.String("page", b.name), zap.String("alert", a.Message))
	return a
}

func (b *base) clearAlert() {
	b.mu.Lock()
	b.alert = nil
	b.mu.Unlock()
}

func (b *base) alertMessage() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.alert == nil {
		return ""
	}
	return b.alert.Message
}

// apply 写入页面状态前确认页面还活着
func (b *base) apply(fn func()) error {
	if !b.scope.Apply(fn) {
		return loader.ErrDiscarded
	}
	return nil
}

func statusLabel(err *ViewError, states ...loader.State) string {
	if err != nil {
		return loader.Failed.String()
	}
	for _, s := range states {
		if !s.Settled() {
			if s == loader.NotRequested {
				return loader.NotRequested.String()
			}
			return loader.Loading.String()
		}
	}
	return loader.Loaded.String()
}

func emptySlice[T any]() func() []T {
	return func() []T { return []T{} }
}

func isNilSlice[T any](v []T) bool { return v == nil }
