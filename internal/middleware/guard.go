package middleware

import (
	"net/http"

	"lms_client/internal/model"
	"lms_client/internal/session"
	"lms_client/internal/util"

	"github.com/gin-gonic/gin"
)

type Outcome int

const (
	Allow Outcome = iota
	RedirectLogin
	RedirectHome
)

func (o Outcome) String() string {
	switch o {
	case Allow:
		return "allow"
	case RedirectLogin:
		return "redirect-login"
	case RedirectHome:
		return "redirect-home"
	}
	return "unknown"
}

// Decision 路由守卫的结果，RedirectHome 时 Location 为该角色的首页
type Decision struct {
	Outcome  Outcome
	Role     model.UserRole
	Location string
}

const LoginPath = "/login"

// HomeFor 角色对应的首页
func HomeFor(role model.UserRole) string {
	switch role {
	case model.Teacher:
		return "/dashboard/teacher"
	case model.Admin:
		return "/dashboard/admin"
	default:
		return "/dashboard/student"
	}
}

// Identity 守卫只需要知道是否登录及当前用户
type Identity interface {
	IsAuthenticated() bool
	User() *model.User
}

// Guard 无 token 去登录页；指定了角色且不匹配时回到该角色首页
func Guard(id Identity, roles ...model.UserRole) Decision {
	if id == nil || !id.IsAuthenticated() {
		return Decision{Outcome: RedirectLogin, Location: LoginPath}
	}
	if len(roles) == 0 {
		return Decision{Outcome: Allow}
	}

	role := model.Student
	if u := id.User(); u != nil {
		role = u.Role
	}
	for _, r := range roles {
		if role == r {
			return Decision{Outcome: Allow, Role: role}
		}
	}
	return Decision{Outcome: RedirectHome, Role: role, Location: HomeFor(role)}
}

// RequireAuth 视图服务的守卫中间件，拒绝时返回 401/403 和重定向目标
func RequireAuth(sess *session.Manager, roles ...model.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		d := Guard(sess, roles...)
		switch d.Outcome {
		case RedirectLogin:
			util.ErrorWithData(c, http.StatusUnauthorized, util.MsgAuthRequired, gin.H{
				"redirect": d.Location,
				"actions":  []string{util.ActionLogin},
			})
			c.Abort()
			return
		case RedirectHome:
			util.ErrorWithData(c, http.StatusForbidden, util.MsgAccessDenied, gin.H{
				"redirect": d.Location,
				"actions":  []string{util.ActionBack},
			})
			c.Abort()
			return
		}
		if u := sess.User(); u != nil {
			c.Set("user", u)
		}
		c.Next()
	}
}

// CurrentUser 取出 RequireAuth 放入的用户
func CurrentUser(c *gin.Context) *model.User {
	if v, ok := c.Get("user"); ok {
		if u, ok := v.(*model.User); ok {
			return u
		}
	}
	return nil
}
