package controller

import (
	"strconv"
	"time"

	"lms_client/internal/middleware"
	"lms_client/internal/model"

	"github.com/gin-gonic/gin"
)

var timeNow = time.Now

func homeFor(role model.UserRole) string {
	return middleware.HomeFor(role)
}

func queryInt(ctx *gin.Context, key string) int {
	n, err := strconv.Atoi(ctx.Query(key))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
