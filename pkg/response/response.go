package response

import (
	"net/http"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appErrors "github.com/d60-Lab/zingg/pkg/errors"
	"github.com/d60-Lab/zingg/pkg/logger"
)

// Response 统一响应体
type Response struct {
	Code   string      `json:"code"`
	Reason string      `json:"reason,omitempty"`
	Data   interface{} `json:"data,omitempty"`
}

const codeOK = "OK"

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Code: codeOK, Data: data})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{Code: codeOK, Data: data})
}

func BadRequest(c *gin.Context, reason string) {
	abort(c, appErrors.Validation(reason))
}

func Unauthorized(c *gin.Context, reason string) {
	abort(c, appErrors.Unauthorized(reason))
}

func NotFound(c *gin.Context, reason string) {
	abort(c, appErrors.NotFound(reason))
}

// InternalError 记录原始错误并上报 Sentry，响应体不暴露细节
func InternalError(c *gin.Context, err error) {
	abort(c, appErrors.Internal(err))
}

// Error 按错误分类输出状态码
func Error(c *gin.Context, err error) {
	abort(c, appErrors.From(err))
}

func abort(c *gin.Context, e *appErrors.AppError) {
	status := e.Code.HTTPStatus()
	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(e),
		)
		if hub := sentrygin.GetHubFromContext(c); hub != nil {
			hub.CaptureException(e)
		}
	}
	c.AbortWithStatusJSON(status, Response{Code: string(e.Code), Reason: e.Reason})
}
