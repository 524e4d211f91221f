package controller

import (
	"lms_client/internal/theme"
	"lms_client/internal/util"

	"github.com/gin-gonic/gin"
)

type ThemeController struct {
	Provider *theme.Provider
}

func NewThemeController(p *theme.Provider) *ThemeController {
	return &ThemeController{Provider: p}
}

// @Summary 当前主题偏好与实际生效的主题
// @Router /view/theme [get]
func (c *ThemeController) Get(ctx *gin.Context) {
	util.Success(ctx, gin.H{
		"preference": c.Provider.Preference(),
		"resolved":   c.Provider.Resolved(),
	})
}

type themeBody struct {
	Preference string `json:"preference" binding:"required"`
}

// @Summary 设置主题
// @Router /view/theme [put]
func (c *ThemeController) Set(ctx *gin.Context) {
	var body themeBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	pref, err := theme.ParsePreference(body.Preference)
	if err != nil {
		util.BadRequest(ctx, util.ErrInvalidTheme.Error())
		return
	}
	if err := c.Provider.Set(pref); err != nil {
		util.Error(ctx, 500, err.Error())
		return
	}
	c.Get(ctx)
}
