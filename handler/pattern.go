package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/TIANLI0/MoldeKit/model"
	"github.com/TIANLI0/MoldeKit/repository"
	"github.com/TIANLI0/MoldeKit/service"
	"github.com/TIANLI0/MoldeKit/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PatternHandler 模板（Molde）的增删查
type PatternHandler struct {
	store repository.Store
	fonts *service.FontRegistry
}

func NewPatternHandler(store repository.Store, fonts *service.FontRegistry) *PatternHandler {
	return &PatternHandler{store: store, fonts: fonts}
}

// Create 保存新模板
func (h *PatternHandler) Create(c *gin.Context) {
	var ps model.PatternSet
	if err := c.ShouldBindJSON(&ps); err != nil {
		abortWithError(c, "请求参数错误", fmt.Errorf("%w: %v", model.ErrValidation, err))
		return
	}
	ps.ID = 0

	id, err := h.store.Put(c.Request.Context(), &ps)
	if err != nil {
		abortWithError(c, "保存模板失败", err)
		return
	}

	utils.Logger.Info("pattern set saved",
		zap.Int64("id", id),
		zap.String("name", ps.Name),
		zap.Int("pieces", len(ps.Pieces)))

	c.JSON(http.StatusCreated, model.SuccessResponse{
		Success: true,
		Message: "保存成功",
		ID:      id,
	})
}

// Update 整体替换已有模板
func (h *PatternHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	existing, err := h.store.Get(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, "查询失败", err)
		return
	}
	if existing == nil {
		abortWithError(c, "模板不存在", fmt.Errorf("%w: pattern set %d", model.ErrNotFound, id))
		return
	}

	var ps model.PatternSet
	if err := c.ShouldBindJSON(&ps); err != nil {
		abortWithError(c, "请求参数错误", fmt.Errorf("%w: %v", model.ErrValidation, err))
		return
	}
	ps.ID = id
	if ps.CreatedAt.IsZero() {
		ps.CreatedAt = existing.CreatedAt
	}

	if _, err := h.store.Put(c.Request.Context(), &ps); err != nil {
		abortWithError(c, "保存模板失败", err)
		return
	}

	c.JSON(http.StatusOK, model.SuccessResponse{
		Success: true,
		Message: "更新成功",
		ID:      id,
	})
}

func (h *PatternHandler) List(c *gin.Context) {
	sets, err := h.store.GetAll(c.Request.Context())
	if err != nil {
		abortWithError(c, "查询失败", err)
		return
	}

	c.JSON(http.StatusOK, model.PatternSetResponse{
		Success: true,
		Message: "查询成功",
		List:    sets,
	})
}

// Get 读取模板，附带的字体会重新注册
func (h *PatternHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	ps, err := h.store.Get(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, "查询失败", err)
		return
	}
	if ps == nil {
		abortWithError(c, "模板不存在", fmt.Errorf("%w: pattern set %d", model.ErrNotFound, id))
		return
	}

	if ps.Font != nil {
		if err := h.fonts.Register(ps.Font.Name, ps.Font.Data); err != nil {
			utils.Logger.Warn("failed to restore pattern set font",
				zap.Int64("id", id),
				zap.String("font", ps.Font.Name),
				zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, model.PatternSetResponse{
		Success: true,
		Message: "查询成功",
		Data:    ps,
	})
}

func (h *PatternHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.store.Delete(c.Request.Context(), id); err != nil {
		abortWithError(c, "删除失败", err)
		return
	}

	c.JSON(http.StatusOK, model.SuccessResponse{
		Success: true,
		Message: "删除成功",
		ID:      id,
	})
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Success: false,
			Message: "ID参数错误",
		})
		return 0, false
	}
	return id, true
}
