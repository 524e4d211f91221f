// Package theme 管理 light/dark/system 主题偏好。
package theme

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"lms_client/internal/util"
	"lms_client/pkg/logger"

	"go.uber.org/zap"
)

type Preference string

const (
	Light  Preference = "light"
	Dark   Preference = "dark"
	System Preference = "system"
)

func ParsePreference(s string) (Preference, error) {
	switch p := Preference(strings.ToLower(strings.TrimSpace(s))); p {
	case Light, Dark, System:
		return p, nil
	}
	return "", util.ErrInvalidTheme
}

// SystemSource 提供操作系统层面的明暗偏好
type SystemSource interface {
	Current() Preference
	Watch(fn func(Preference)) (stop func(), err error)
}

type Listener func(pref, resolved Preference)

type Provider struct {
	path   string
	source SystemSource
	stop   func()

	mu        sync.RWMutex
	pref      Preference
	system    Preference
	listeners map[int]Listener
	nextID    int
}

// NewProvider 读取已保存的偏好。未知值回落为 system。
func NewProvider(path string, source SystemSource) *Provider {
	p := &Provider{
		path:      path,
		source:    source,
		pref:      System,
		system:    source.Current(),
		listeners: map[int]Listener{},
	}

	if data, err := os.ReadFile(path); err == nil {
		if pref, err := ParsePreference(string(data)); err == nil {
			p.pref = pref
		}
	}

	stop, err := source.Watch(p.onSystemChange)
	if err != nil {
		logger.Log.Warn("system theme watch unavailable", zap.Error(err))
		stop = func() {}
	}
	p.stop = stop
	return p
}

func (p *Provider) Preference() Preference {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.pref
}

// Resolved 总是 light 或 dark
func (p *Provider) Resolved() Preference {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.resolvedLocked()
}

func (p *Provider) resolvedLocked() Preference {
	if p.pref != System {
		return p.pref
	}
	if p.system == Dark {
		return Dark
	}
	return Light
}

func (p *Provider) Set(pref Preference) error {
	if _, err := ParsePreference(string(pref)); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p.path), 0o700); err != nil {
		return err
	}
	if err := os.WriteFile(p.path, []byte(pref), 0o600); err != nil {
		return err
	}

	p.mu.Lock()
	changed := p.pref != pref
	p.pref = pref
	p.mu.Unlock()

	if changed {
		p.notify()
	}
	return nil
}

func (p *Provider) Subscribe(fn Listener) (unsubscribe func()) {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.listeners, id)
		p.mu.Unlock()
	}
}

// Close 停止监听系统偏好
func (p *Provider) Close() {
	p.stop()
}

func (p *Provider) onSystemChange(sys Preference) {
	p.mu.Lock()
	changed := p.system != sys
	p.system = sys
	follows := p.pref == System
	p.mu.Unlock()

	if changed && follows {
		p.notify()
	}
}

func (p *Provider) notify() {
	p.mu.RLock()
	pref, resolved := p.pref, p.resolvedLocked()
	fns := make([]Listener, 0, len(p.listeners))
	for _, fn := range p.listeners {
		fns = append(fns, fn)
	}
	p.mu.RUnlock()

	for _, fn := range fns {
		fn(pref, resolved)
	}
}

// StaticSystemSource 固定值，可手动触发变化
type StaticSystemSource struct {
	mu    sync.Mutex
	value Preference
	fns   []func(Preference)
}

func NewStaticSystemSource(v Preference) *StaticSystemSource {
	return &StaticSystemSource{value: v}
}

func (s *StaticSystemSource) Current() Preference {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

func (s *StaticSystemSource) Watch(fn func(Preference)) (func(), error) {
	s.mu.Lock()
	s.fns = append(s.fns, fn)
	s.mu.Unlock()
	return func() {}, nil
}

func (s *StaticSystemSource) Change(v Preference) {
	s.mu.Lock()
	s.value = v
	fns := append([]func(Preference){}, s.fns...)
	s.mu.Unlock()
	for _, fn := range fns {
		fn(v)
	}
}

var errNoSignal = errors.New("no system theme signal")
