package handler

import (
	"fmt"
	"net/http"

	"github.com/TIANLI0/MoldeKit/model"
	"github.com/TIANLI0/MoldeKit/service"
	"github.com/TIANLI0/MoldeKit/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ComposeHandler struct {
	compositor *service.Compositor
	exporter   *service.Exporter
}

func NewComposeHandler(compositor *service.Compositor, exporter *service.Exporter) *ComposeHandler {
	return &ComposeHandler{
		compositor: compositor,
		exporter:   exporter,
	}
}

// Compose 生成遮罩合成结果，filename 非空且配置了导出目录时同时保存
func (h *ComposeHandler) Compose(c *gin.Context) {
	var req model.ComposeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, "请求参数错误", fmt.Errorf("%w: %v", model.ErrValidation, err))
		return
	}

	result, err := h.compositor.Compose(c.Request.Context(), &req)
	if err != nil {
		abortWithError(c, "合成失败", err)
		return
	}

	resp := model.ComposeResponse{
		Success: true,
		Message: "合成成功",
		Width:   result.Width,
		Height:  result.Height,
		DataURL: result.DataURL,
	}
	if req.Filename != "" && h.exporter.Enabled() {
		saved, err := h.exporter.Save(req.Filename, result.PNG)
		if err != nil {
			abortWithError(c, "保存导出文件失败", err)
			return
		}
		resp.Saved = saved
	}

	c.JSON(http.StatusOK, resp)
}

// Preview 编辑器预览，不做遮罩
func (h *ComposeHandler) Preview(c *gin.Context) {
	var req model.ComposeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, "请求参数错误", fmt.Errorf("%w: %v", model.ErrValidation, err))
		return
	}

	result, err := h.compositor.Preview(c.Request.Context(), &req)
	if err != nil {
		abortWithError(c, "预览失败", err)
		return
	}

	c.JSON(http.StatusOK, model.ComposeResponse{
		Success: true,
		Message: "预览成功",
		Width:   result.Width,
		Height:  result.Height,
		DataURL: result.DataURL,
	})
}

// Download 直接返回 PNG 附件
func (h *ComposeHandler) Download(c *gin.Context) {
	var req model.ComposeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, "请求参数错误", fmt.Errorf("%w: %v", model.ErrValidation, err))
		return
	}

	result, err := h.compositor.Compose(c.Request.Context(), &req)
	if err != nil {
		abortWithError(c, "合成失败", err)
		return
	}

	filename := h.exporter.Filename(req.Filename)
	if c.Query("save") == "true" && h.exporter.Enabled() {
		saved, err := h.exporter.Save(filename, result.PNG)
		if err != nil {
			utils.Logger.Warn("failed to save export", zap.Error(err))
		} else {
			c.Header("X-Export-Path", saved)
		}
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "image/png", result.PNG)
}
