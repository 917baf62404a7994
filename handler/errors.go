package handler

import (
	"errors"
	"net/http"

	"github.com/TIANLI0/MoldeKit/model"
	"github.com/TIANLI0/MoldeKit/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// statusFor 把错误类别映射为 HTTP 状态码
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrValidation), errors.Is(err, model.ErrDecode):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrResourceLoad):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, message string, err error) {
	status := statusFor(err)
	fields := []zap.Field{
		zap.String("path", c.Request.URL.Path),
		zap.Int("status", status),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		utils.Logger.Error("request failed", fields...)
	} else {
		utils.Logger.Warn("request rejected", fields...)
	}
	c.AbortWithStatusJSON(status, model.ErrorResponse{
		Success: false,
		Message: message,
		Error:   err.Error(),
	})
}
