package app

import (
	"context"
	"testing"

	"lms_client/internal/middleware"
	"lms_client/internal/model"
	"lms_client/internal/session"
	"lms_client/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func signedIn(t *testing.T, role model.UserRole) *session.Manager {
	t.Helper()
	m := session.NewManager(&session.MemoryStore{})
	user := &model.User{BaseModel: model.BaseModel{ID: "u1"}, Name: "Ann", Role: role}
	require.NoError(t, m.SetSession(context.Background(), user, "tok"))
	return m
}

func TestRequireRoleSignedOut(t *testing.T) {
	m := session.NewManager(&session.MemoryStore{})

	d, err := requireRole(m, model.Admin)
	require.Error(t, err)
	assert.Equal(t, middleware.RedirectLogin, d.Outcome)

	var exit cli.ExitCoder
	require.ErrorAs(t, err, &exit)
	assert.Equal(t, 1, exit.ExitCode())
	assert.Contains(t, err.Error(), util.MsgAuthRequired)
}

func TestRequireRoleWrongRole(t *testing.T) {
	d, err := requireRole(signedIn(t, model.Student), model.Admin)
	require.Error(t, err)
	assert.Equal(t, middleware.RedirectHome, d.Outcome)
	assert.Contains(t, err.Error(), util.MsgAccessDenied)
	assert.Contains(t, err.Error(), "/dashboard/student")
}

func TestRequireRoleAllowed(t *testing.T) {
	d, err := requireRole(signedIn(t, model.Admin), model.Admin)
	require.NoError(t, err)
	assert.Equal(t, middleware.Allow, d.Outcome)
	assert.Equal(t, model.Admin, d.Role)

	d, err = requireRole(signedIn(t, model.Teacher), model.Student, model.Teacher, model.Admin)
	require.NoError(t, err)
	assert.Equal(t, model.Teacher, d.Role)

	// 不限角色时只要求登录
	_, err = requireRole(signedIn(t, model.Student))
	assert.NoError(t, err)
}
