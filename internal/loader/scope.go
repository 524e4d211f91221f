package loader

import (
	"context"
	"sync"
	"sync/atomic"
)

// Scope 页面生命周期。Close 之后在途请求被取消，迟到的结果被丢弃。
type Scope struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed atomic.Bool
}

func NewScope(parent context.Context) *Scope {
	ctx, cancel := context.WithCancel(parent)
	return &Scope{ctx: ctx, cancel: cancel}
}

// Context 合并调用方 ctx 与页面 ctx，任一取消即取消
func (s *Scope) Context(ctx context.Context) context.Context {
	if ctx == nil || ctx == s.ctx {
		return s.ctx
	}
	merged, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(s.ctx, cancel)
	context.AfterFunc(merged, func() { stop() })
	return merged
}

func (s *Scope) Close() {
	s.mu.Lock()
	s.closed.Store(true)
	s.mu.Unlock()
	s.cancel()
}

// Closed 不加锁，资源在持有自身锁时也可以调用
func (s *Scope) Closed() bool {
	return s.closed.Load()
}

// Apply 页面仍然存活时才执行写入
func (s *Scope) Apply(fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed.Load() {
		return false
	}
	fn()
	return true
}
