package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/TIANLI0/MoldeKit/config"
	"github.com/TIANLI0/MoldeKit/model"
	"github.com/TIANLI0/MoldeKit/repository"
	"github.com/TIANLI0/MoldeKit/service"
	"github.com/TIANLI0/MoldeKit/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const defaultFontName = "custom-font"

type FontHandler struct {
	cfg   *config.Config
	store repository.Store
	fonts *service.FontRegistry
}

func NewFontHandler(cfg *config.Config, store repository.Store, fonts *service.FontRegistry) *FontHandler {
	return &FontHandler{cfg: cfg, store: store, fonts: fonts}
}

// Restore 启动时把已保存的字体重新注册，无法解析的跳过
func (h *FontHandler) Restore(ctx context.Context) (int, error) {
	stored, err := h.store.ListFonts(ctx)
	if err != nil {
		return 0, err
	}
	loaded := 0
	for _, f := range stored {
		if err := h.fonts.Register(f.Name, f.Data); err != nil {
			utils.Logger.Warn("skip stored font", zap.String("name", f.Name), zap.Error(err))
			continue
		}
		loaded++
	}
	return loaded, nil
}

// Register 上传字体文件：先注册，成功后再持久化
func (h *FontHandler) Register(c *gin.Context) {
	file, err := c.FormFile("font")
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Success: false,
			Message: "请上传字体文件",
			Error:   err.Error(),
		})
		return
	}
	if file.Size > h.cfg.Upload.MaxSize {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Success: false,
			Message: fmt.Sprintf("文件大小超过限制 (%d MB)", h.cfg.Upload.MaxSize/(1024*1024)),
		})
		return
	}
	if ct := file.Header.Get("Content-Type"); ct != "" && !isAllowedType(h.cfg.Upload.FontTypes, ct) {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Success: false,
			Message: "不支持的字体类型，仅支持 TTF/OTF",
		})
		return
	}

	name := strings.TrimSpace(c.DefaultPostForm("name", defaultFontName))

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

	if err := h.fonts.Register(name, data); err != nil {
		abortWithError(c, "字体加载失败", err)
		return
	}
	if err := h.store.PutFont(c.Request.Context(), name, data); err != nil {
		abortWithError(c, "保存字体失败", err)
		return
	}

	c.JSON(http.StatusCreated, model.SuccessResponse{
		Success: true,
		Message: "字体注册成功",
	})
}

func (h *FontHandler) List(c *gin.Context) {
	names := h.fonts.Names()
	sort.Strings(names)
	c.JSON(http.StatusOK, model.FontListResponse{
		Success: true,
		Message: "查询成功",
		Names:   names,
	})
}

// Get 返回已保存的字体文件
func (h *FontHandler) Get(c *gin.Context) {
	name := c.Param("name")
	f, err := h.store.GetFont(c.Request.Context(), name)
	if err != nil {
		abortWithError(c, "查询失败", err)
		return
	}
	if f == nil {
		abortWithError(c, "字体不存在", fmt.Errorf("%w: font %q", model.ErrNotFound, name))
		return
	}
	c.Data(http.StatusOK, "application/octet-stream", f.Data)
}
