package service

import (
	"context"
	"errors"

	"lms_client/internal/apiclient"
	"lms_client/internal/model"
	"lms_client/internal/session"
	"lms_client/internal/util"
	"lms_client/pkg/logger"

	"go.uber.org/zap"
)

type AuthService struct {
	API     *apiclient.Client
	Session *session.Manager
}

func NewAuthService(api *apiclient.Client, sess *session.Manager) *AuthService {
	return &AuthService{API: api, Session: sess}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Name            string         `json:"name"`
	Email           string         `json:"email"`
	Password        string         `json:"password"`
	ConfirmPassword string         `json:"-"`
	Role            model.UserRole `json:"role,omitempty"`
}

func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*model.User, error) {
	if !util.ValidEmail(req.Email) || req.Password == "" {
		return nil, apiclient.Invalid("email and password are required", nil)
	}

	var res model.AuthResult
	if err := s.API.Post(ctx, "/auth/login", req, &res); err != nil {
		return nil, err
	}
	return s.persist(ctx, &res)
}

// Register 本地校验全部通过后才会发请求
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*model.User, error) {
	if errs := util.ValidateRegistration(req.Name, req.Email, req.Password, req.ConfirmPassword); len(errs) > 0 {
		return nil, apiclient.Invalid("please fix the highlighted fields", util.FieldMessages(errs))
	}
	if req.Role == "" {
		req.Role = model.Student
	}
	if req.Role == model.Admin {
		return nil, apiclient.Invalid("admin accounts cannot self-register", map[string]string{"role": "invalid role"})
	}

	var res model.AuthResult
	if err := s.API.Post(ctx, "/auth/register", req, &res); err != nil {
		return nil, err
	}
	return s.persist(ctx, &res)
}

func (s *AuthService) persist(ctx context.Context, res *model.AuthResult) (*model.User, error) {
	if res.Token == "" || res.User == nil {
		return nil, &apiclient.Error{Kind: apiclient.KindDecode, Message: "auth response missing user or token"}
	}
	res.User.Normalize()
	if err := s.Session.SetSession(ctx, res.User, res.Token); err != nil {
		return nil, err
	}
	logger.Log.Info("signed in", zap.String("user", res.User.ID), zap.String("role", string(res.User.Role)))
	return res.User, nil
}

// Logout 清除本地会话。通知后端失败不影响本地登出。
func (s *AuthService) Logout(ctx context.Context) error {
	if s.Session.IsAuthenticated() {
		if err := s.API.Post(ctx, "/auth/logout", nil, nil); err != nil {
			logger.Log.Warn("backend logout failed", zap.Error(err))
		}
	}
	return s.Session.Clear(ctx)
}

// Me 刷新当前用户，401 时保留本地会话由用户决定是否重新登录
func (s *AuthService) Me(ctx context.Context) (*model.User, error) {
	if !s.Session.IsAuthenticated() {
		return nil, util.ErrNotLoggedIn
	}
	var user model.User
	if err := getKeyed(ctx, s.API, "/auth/me", "user", &user); err != nil {
		return nil, err
	}
	if user.ID == "" {
		// 不能用空用户覆盖本地会话
		return nil, &apiclient.Error{Kind: apiclient.KindDecode, Message: "auth response missing user"}
	}
	user.Normalize()
	if err := s.Session.UpdateUser(ctx, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func IsValidation(err error) bool {
	return errors.Is(err, apiclient.ErrInvalid)
}
