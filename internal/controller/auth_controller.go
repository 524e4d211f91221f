package controller

import (
	"net/http"

	"lms_client/internal/model"
	"lms_client/internal/service"
	"lms_client/internal/util"

	"github.com/gin-gonic/gin"
)

type AuthController struct {
	AuthService *service.AuthService
}

func NewAuthController(authService *service.AuthService) *AuthController {
	return &AuthController{AuthService: authService}
}

type registerBody struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	Role            string `json:"role"`
}

// @Summary 登录
// @Router /view/auth/login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req service.LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	user, err := c.AuthService.Login(ctx.Request.Context(), req)
	if err != nil {
		util.APIError(ctx, err, util.ContextLogin)
		return
	}
	util.Success(ctx, gin.H{"user": user, "redirect": homeFor(user.Role)})
}

// @Summary 注册
// @Router /view/auth/register [post]
func (c *AuthController) Register(ctx *gin.Context) {
	var body registerBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	user, err := c.AuthService.Register(ctx.Request.Context(), service.RegisterRequest{
		Name:            body.Name,
		Email:           body.Email,
		Password:        body.Password,
		ConfirmPassword: body.ConfirmPassword,
		Role:            model.UserRole(body.Role),
	})
	if err != nil {
		if service.IsValidation(err) {
			renderAlert(ctx, err)
			return
		}
		util.APIError(ctx, err, util.ContextMutation)
		return
	}
	util.Created(ctx, gin.H{"user": user, "redirect": homeFor(user.Role)})
}

// @Summary 登出，始终清空本地会话
// @Router /view/auth/logout [post]
func (c *AuthController) Logout(ctx *gin.Context) {
	if err := c.AuthService.Logout(ctx.Request.Context()); err != nil {
		util.Error(ctx, http.StatusInternalServerError, err.Error())
		return
	}
	util.Success(ctx, gin.H{"redirect": "/"})
}

// @Summary 当前用户
// @Router /view/auth/me [get]
func (c *AuthController) Me(ctx *gin.Context) {
	user, err := c.AuthService.Me(ctx.Request.Context())
	if err != nil {
		if err == util.ErrNotLoggedIn {
			util.Unauthorized(ctx)
			return
		}
		util.APIError(ctx, err, util.ContextLoad)
		return
	}
	util.Success(ctx, user)
}
