package controller

import (
	"lms_client/internal/apiclient"
	"lms_client/internal/session"
	"lms_client/internal/util"

	"github.com/gin-gonic/gin"
)

type HealthController struct {
	API     *apiclient.Client
	Session *session.Manager
}

func NewHealthController(api *apiclient.Client, sess *session.Manager) *HealthController {
	return &HealthController{API: api, Session: sess}
}

// @Summary 健康检查
// @Router /view/health [get]
func (c *HealthController) HealthCheck(ctx *gin.Context) {
	expired := c.Session.TokenExpired(timeNow())
	util.Success(ctx, gin.H{
		"status": "ok",
		"components": gin.H{
			"api":           c.API.BaseURL(),
			"authenticated": c.Session.IsAuthenticated(),
			"tokenExpired":  expired,
		},
	})
}
