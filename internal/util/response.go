package util

import (
	"net/http"

	"lms_client/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Message: "success",
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    http.StatusCreated,
		Message: "created",
		Data:    data,
	})
}

func Error(c *gin.Context, code int, message string) {
	c.JSON(code, Response{
		Code:    code,
		Message: message,
	})
}

func ErrorWithData(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, Response{
		Code:    code,
		Message: message,
		Data:    data,
	})
}

func Unauthorized(c *gin.Context) {
	Error(c, http.StatusUnauthorized, MsgAuthRequired)
}

func Forbidden(c *gin.Context) {
	Error(c, http.StatusForbidden, MsgAccessDenied)
}

func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

// StatusFor 把后端错误映射回视图服务的状态码
func StatusFor(err error) int {
	if s := statusOf(err); s != 0 {
		return s
	}
	return http.StatusBadGateway
}

// APIError 把后端调用失败转成统一响应
func APIError(c *gin.Context, err error, mc MessageContext) {
	status := StatusFor(err)
	if status >= 500 {
		logger.Log.Error("backend call failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	ErrorWithData(c, status, UserMessage(err, mc), gin.H{"actions": RecoveryActions(err)})
}
