// Package loader 为页面上的每个资源维护加载状态，保证每个页面生命周期内最多发起一次加载。
package loader

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

type State int

const (
	NotRequested State = iota
	Loading
	Loaded
	Failed
)

func (s State) String() string {
	switch s {
	case NotRequested:
		return "not-requested"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Settled 已经是终态
func (s State) Settled() bool {
	return s == Loaded || s == Failed
}

var (
	ErrInvalidTransition = errors.New("invalid loader state transition")
	// ErrDiscarded 页面已关闭，结果被丢弃
	ErrDiscarded = errors.New("result discarded: scope closed")
)

func validTransition(from, to State) bool {
	switch from {
	case NotRequested:
		return to == Loading
	case Loading:
		return to == Loaded || to == Failed
	}
	return false
}

type Fetch[T any] func(ctx context.Context) (T, error)

// Resource 单个资源的状态机
type Resource[T any] struct {
	name   string
	defval func() T
	isZero func(T) bool

	mu     sync.Mutex
	state  State
	value  T
	err    error
	starts int
	done   chan struct{}
}

type Option[T any] func(*Resource[T])

// WithDefault 载荷缺失时替换成默认值，例如空列表
func WithDefault[T any](def func() T, missing func(T) bool) Option[T] {
	return func(r *Resource[T]) {
		r.defval = def
		r.isZero = missing
	}
}

func NewResource[T any](name string, opts ...Option[T]) *Resource[T] {
	r := &Resource[T]{name: name, done: make(chan struct{})}
	for _, o := range opts {
		o(r)
	}
	return r
}

func (r *Resource[T]) Name() string { return r.name }

func (r *Resource[T]) transition(to State) error {
	if !validTransition(r.state, to) {
		return fmt.Errorf("%w: %s %s -> %s", ErrInvalidTransition, r.name, r.state, to)
	}
	r.state = to
	return nil
}

// Load 只有第一次调用会真正执行 fetch，之后的调用等待并返回同一结果
func (r *Resource[T]) Load(ctx context.Context, scope *Scope, fetch Fetch[T]) (T, error) {
	r.mu.Lock()
	if r.state != NotRequested {
		done := r.done
		r.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
		return r.Result()
	}
	_ = r.transition(Loading)
	r.starts++
	r.mu.Unlock()

	fctx := ctx
	if scope != nil {
		fctx = scope.Context(ctx)
	}
	value, err := fetch(fctx)

	r.mu.Lock()
	defer func() {
		close(r.done)
		r.mu.Unlock()
	}()

	if scope != nil && scope.Closed() {
		// 页面已销毁，不写入迟到的结果
		_ = r.transition(Failed)
		r.err = ErrDiscarded
		var zero T
		return zero, ErrDiscarded
	}

	if err != nil {
		_ = r.transition(Failed)
		r.err = err
		var zero T
		return zero, err
	}

	if r.defval != nil && r.isZero != nil && r.isZero(value) {
		value = r.defval()
	}
	_ = r.transition(Loaded)
	r.value = value
	return value, nil
}

func (r *Resource[T]) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Resource[T]) Result() (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.value, r.err
}

// Value 未加载时返回默认值
func (r *Resource[T]) Value() T {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != Loaded && r.defval != nil {
		return r.defval()
	}
	return r.value
}

// Update 已加载资源的本地修改(如插入新评价)，不重新请求
func (r *Resource[T]) Update(fn func(T) T) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != Loaded {
		return fmt.Errorf("%w: %s is %s, cannot update", ErrInvalidTransition, r.name, r.state)
	}
	r.value = fn(r.value)
	return nil
}

func (r *Resource[T]) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Starts 实际发起加载的次数，不会超过 1
func (r *Resource[T]) Starts() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.starts
}
