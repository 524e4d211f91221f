// Package session 保存当前用户与 token，启动时从持久化存储加载。
package session

import (
	"context"
	"sync"
	"time"

	"lms_client/internal/model"
	"lms_client/pkg/logger"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

type Listener func(user *model.User, authenticated bool)

type Manager struct {
	store Store

	mu        sync.RWMutex
	state     State
	listeners map[int]Listener
	nextID    int
}

func NewManager(store Store) *Manager {
	return &Manager{store: store, listeners: map[int]Listener{}}
}

// Init 从存储中恢复会话，存储损坏时按未登录处理
func (m *Manager) Init(ctx context.Context) error {
	st, err := m.store.Load(ctx)
	if err != nil {
		logger.Log.Warn("failed to load session, starting signed out", zap.Error(err))
		return err
	}
	if st.Empty() {
		logger.Log.Debug("No stored session")
	}
	m.mu.Lock()
	m.state = st
	m.mu.Unlock()
	return nil
}

func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.Token
}

// User 返回副本
func (m *Manager) User() *model.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state.User == nil {
		return nil
	}
	u := *m.state.User
	return &u
}

func (m *Manager) IsAuthenticated() bool {
	return m.Token() != ""
}

func (m *Manager) Role() model.UserRole {
	if u := m.User(); u != nil {
		return u.Role
	}
	return ""
}

// SetSession 同时写入 user 和 token
func (m *Manager) SetSession(ctx context.Context, user *model.User, token string) error {
	st := State{Token: token, User: user}
	if err := m.store.Save(ctx, st); err != nil {
		return err
	}
	m.mu.Lock()
	m.state = st
	m.mu.Unlock()
	m.notify()
	return nil
}

// UpdateUser 只刷新用户信息，token 不变
func (m *Manager) UpdateUser(ctx context.Context, user *model.User) error {
	return m.SetSession(ctx, user, m.Token())
}

// Clear 内存状态总是清空，存储删除失败时返回错误
func (m *Manager) Clear(ctx context.Context) error {
	m.mu.Lock()
	m.state = State{}
	m.mu.Unlock()
	m.notify()
	return m.store.Clear(ctx)
}

func (m *Manager) Subscribe(fn Listener) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.listeners, id)
		m.mu.Unlock()
	}
}

func (m *Manager) notify() {
	m.mu.RLock()
	user := m.state.User
	authed := m.state.Token != ""
	fns := make([]Listener, 0, len(m.listeners))
	for _, fn := range m.listeners {
		fns = append(fns, fn)
	}
	m.mu.RUnlock()

	for _, fn := range fns {
		fn(user, authed)
	}
}

// TokenExpiry 读取 JWT exp，不校验签名。非 JWT 或无 exp 时 ok 为 false。
func (m *Manager) TokenExpiry() (exp time.Time, ok bool) {
	token := m.Token()
	if token == "" {
		return time.Time{}, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	date, err := claims.GetExpirationTime()
	if err != nil || date == nil {
		return time.Time{}, false
	}
	return date.Time, true
}

// TokenExpired 仅用于提示，不会清除会话
func (m *Manager) TokenExpired(now time.Time) bool {
	exp, ok := m.TokenExpiry()
	return ok && now.After(exp)
}
