package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/TIANLI0/MoldeKit/config"
	"github.com/TIANLI0/MoldeKit/model"
	"github.com/TIANLI0/MoldeKit/service"
	"github.com/TIANLI0/MoldeKit/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ExtractHandler struct {
	cfg          *config.Config
	redisService *service.RedisService
	worker       *service.ExtractWorker
}

func NewExtractHandler(cfg *config.Config, redis *service.RedisService, worker *service.ExtractWorker) *ExtractHandler {
	return &ExtractHandler{
		cfg:          cfg,
		redisService: redis,
		worker:       worker,
	}
}

// Extract 上传纸样图片并切分版片
func (h *ExtractHandler) Extract(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		utils.Logger.Error("failed to get uploaded file", zap.Error(err))
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Success: false,
			Message: "请上传图片文件",
			Error:   err.Error(),
		})
		return
	}

	// 验证文件大小
	if file.Size > h.cfg.Upload.MaxSize {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Success: false,
			Message: fmt.Sprintf("文件大小超过限制 (%d MB)", h.cfg.Upload.MaxSize/(1024*1024)),
		})
		return
	}

	// 验证文件类型
	contentType := file.Header.Get("Content-Type")
	if !isAllowedType(h.cfg.Upload.AllowedTypes, contentType) {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Success: false,
			Message: "不支持的文件类型，仅支持 JPEG/PNG",
		})
		return
	}

	f, err := file.Open()
	if err != nil {
		abortWithError(c, "读取文件失败", err)
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		abortWithError(c, "读取文件失败", err)
		return
	}

	md5 := utils.BytesMD5(data)
	utils.Logger.Info("file uploaded",
		zap.String("filename", file.Filename),
		zap.String("md5", md5),
		zap.Int64("size", file.Size))

	ctx := c.Request.Context()
	cached, err := h.redisService.GetExtractResult(ctx, md5)
	if err != nil {
		utils.Logger.Warn("failed to get cache", zap.Error(err))
	}
	if cached != nil {
		utils.Logger.Info("cache hit", zap.String("md5", md5))
		c.JSON(http.StatusOK, model.ExtractAPIResponse{
			Success: true,
			Message: "处理成功（来自缓存）",
			MD5:     md5,
			Data:    cached,
		})
		return
	}

	resp, err := h.worker.Run(ctx, model.ExtractRequest{JobID: utils.GenerateID(), Buffer: data})
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, model.ErrorResponse{
			Success: false,
			Message: "请求已取消",
			Error:   err.Error(),
		})
		return
	}
	if !resp.Success {
		c.JSON(http.StatusUnprocessableEntity, model.ErrorResponse{
			Success: false,
			Message: "图片处理失败",
			Error:   resp.Error,
		})
		return
	}

	// 保存到缓存，请求结束后仍写入
	if err := h.redisService.SetExtractResult(context.WithoutCancel(ctx), md5, &resp); err != nil {
		utils.Logger.Warn("failed to set cache", zap.Error(err))
	}

	c.JSON(http.StatusOK, model.ExtractAPIResponse{
		Success: true,
		Message: fmt.Sprintf("处理成功，共 %d 个版片", len(resp.Pieces)),
		MD5:     md5,
		Data:    &resp,
	})
}

// GetByMD5 根据MD5获取提取结果
func (h *ExtractHandler) GetByMD5(c *gin.Context) {
	md5 := c.Param("md5")
	if md5 == "" {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Success: false,
			Message: "MD5参数缺失",
		})
		return
	}

	result, err := h.redisService.GetExtractResult(c.Request.Context(), md5)
	if err != nil {
		abortWithError(c, "查询失败", err)
		return
	}

	if result == nil {
		c.JSON(http.StatusNotFound, model.ErrorResponse{
			Success: false,
			Message: "未找到该图片的提取结果",
		})
		return
	}

	c.JSON(http.StatusOK, model.ExtractAPIResponse{
		Success: true,
		Message: "查询成功",
		MD5:     md5,
		Data:    result,
	})
}

func isAllowedType(allowed []string, contentType string) bool {
	for _, a := range allowed {
		if strings.EqualFold(contentType, a) {
			return true
		}
	}
	return false
}
