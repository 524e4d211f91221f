package controller

import (
	"errors"
	"net/http"

	"lms_client/internal/apiclient"
	"lms_client/internal/page"
	"lms_client/internal/util"

	"github.com/gin-gonic/gin"
)

// renderView 页面错误态用对应状态码返回，data 里仍然带完整视图
func renderView(ctx *gin.Context, view interface{}, ve *page.ViewError) {
	if ve == nil {
		util.Success(ctx, view)
		return
	}
	status := ve.Status
	if status == 0 {
		status = http.StatusBadGateway
	}
	util.ErrorWithData(ctx, status, ve.Message, view)
}

// renderAlert 操作失败
func renderAlert(ctx *gin.Context, err error) {
	a := &page.Alert{Message: page.AlertMessage(err)}
	var pa *page.Alert
	if errors.As(err, &pa) {
		a = pa
	}
	util.ErrorWithData(ctx, alertStatus(err), a.Message, gin.H{
		"fields":  a.Fields,
		"actions": util.RecoveryActions(err),
	})
}

func alertStatus(err error) int {
	var apiErr *apiclient.Error
	if errors.As(err, &apiErr) {
		return util.StatusFor(err)
	}
	switch {
	case errors.Is(err, util.ErrNotLoggedIn):
		return http.StatusUnauthorized
	case errors.Is(err, util.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, util.ErrAlreadyEnrolled):
		return http.StatusConflict
	}
	return http.StatusBadRequest
}
