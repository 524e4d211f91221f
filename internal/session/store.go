package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"lms_client/internal/model"

	"github.com/go-redis/redis/v8"
)

// State 持久化的全部内容：token 与 user 两个键
type State struct {
	Token string      `json:"token,omitempty"`
	User  *model.User `json:"user,omitempty"`
}

func (s State) Empty() bool {
	return s.Token == "" && s.User == nil
}

type Store interface {
	Load(ctx context.Context) (State, error)
	Save(ctx context.Context, st State) error
	Clear(ctx context.Context) error
}

// FileStore 本地 JSON 文件
type FileStore struct {
	Path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

func (s *FileStore) Load(ctx context.Context) (State, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return State{}, nil
	}
	if err != nil {
		return State{}, err
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return State{}, fmt.Errorf("corrupt session file %s: %w", s.Path, err)
	}
	return st, nil
}

// Save 先写临时文件再 rename
func (s *FileStore) Save(ctx context.Context, st State) error {
	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.Path)
}

func (s *FileStore) Clear(ctx context.Context) error {
	err := os.Remove(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// RedisStore 多个进程(如 CLI 与视图服务)共用同一 profile 的会话
type RedisStore struct {
	Client  *redis.Client
	Profile string
}

func NewRedisStore(client *redis.Client, profile string) *RedisStore {
	return &RedisStore{Client: client, Profile: profile}
}

func (s *RedisStore) tokenKey() string { return "lms:" + s.Profile + ":token" }
func (s *RedisStore) userKey() string  { return "lms:" + s.Profile + ":user" }

func (s *RedisStore) Load(ctx context.Context) (State, error) {
	vals, err := s.Client.MGet(ctx, s.tokenKey(), s.userKey()).Result()
	if err != nil {
		return State{}, err
	}

	var st State
	if token, ok := vals[0].(string); ok {
		st.Token = token
	}
	if raw, ok := vals[1].(string); ok && raw != "" {
		var u model.User
		if err := json.Unmarshal([]byte(raw), &u); err != nil {
			return State{}, fmt.Errorf("corrupt session user: %w", err)
		}
		st.User = &u
	}
	return st, nil
}

func (s *RedisStore) Save(ctx context.Context, st State) error {
	user := ""
	if st.User != nil {
		data, err := json.Marshal(st.User)
		if err != nil {
			return err
		}
		user = string(data)
	}

	_, err := s.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.tokenKey(), st.Token, 0)
		pipe.Set(ctx, s.userKey(), user, 0)
		return nil
	})
	return err
}

func (s *RedisStore) Clear(ctx context.Context) error {
	return s.Client.Del(ctx, s.tokenKey(), s.userKey()).Err()
}

// MemoryStore 测试与临时会话使用
type MemoryStore struct {
	State State
	Saves int
}

func (s *MemoryStore) Load(ctx context.Context) (State, error) { return s.State, nil }

func (s *MemoryStore) Save(ctx context.Context, st State) error {
	s.State = st
	s.Saves++
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context) error {
	s.State = State{}
	return nil
}
