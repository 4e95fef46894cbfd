package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/zahias/pillars/internal/dto"
	"github.com/zahias/pillars/internal/service"
	"github.com/zahias/pillars/pkg/response"
)

// IndicatorHandler 指标模块 HTTP 处理器
type IndicatorHandler struct {
	indicatorSvc service.IndicatorService
}

// NewIndicatorHandler 创建 IndicatorHandler
func NewIndicatorHandler(indicatorSvc service.IndicatorService) *IndicatorHandler {
	return &IndicatorHandler{indicatorSvc: indicatorSvc}
}

// ListIndicators 获取指标列表，可按支柱筛选
// GET /api/v1/indicators?pillar_id=
func (h *IndicatorHandler) ListIndicators(c *gin.Context) {
	var req dto.IndicatorListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	indicators, err := h.indicatorSvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": indicators})
}

// GetIndicator 获取指标详情
// GET /api/v1/indicators/:id
func (h *IndicatorHandler) GetIndicator(c *gin.Context) {
	id, ok := MustGetIDParam(c, "id")
	if !ok {
		return
	}

	indicator, err := h.indicatorSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleIndicatorError(c, err)
		return
	}

	response.OK(c, indicator)
}

// CreateIndicator 创建指标
// POST /api/v1/indicators
func (h *IndicatorHandler) CreateIndicator(c *gin.Context) {
	var req dto.CreateIndicatorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	indicator, err := h.indicatorSvc.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleIndicatorError(c, err)
		return
	}

	response.Created(c, indicator)
}

// UpdateIndicator 更新指标
// PUT /api/v1/indicators/:id
func (h *IndicatorHandler) UpdateIndicator(c *gin.Context) {
	id, ok := MustGetIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateIndicatorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	indicator, err := h.indicatorSvc.Update(c.Request.Context(), id, &req)
	if err != nil {
		h.handleIndicatorError(c, err)
		return
	}

	response.OK(c, indicator)
}

// DeleteIndicator 删除指标
// DELETE /api/v1/indicators/:id
func (h *IndicatorHandler) DeleteIndicator(c *gin.Context) {
	id, ok := MustGetIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.indicatorSvc.Delete(c.Request.Context(), id); err != nil {
		h.handleIndicatorError(c, err)
		return
	}

	response.OK(c, nil)
}

func (h *IndicatorHandler) handleIndicatorError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNameRequired):
		response.BadRequest(c, 22001, err.Error())
	case errors.Is(err, service.ErrInvalidGoal):
		response.BadRequest(c, 22002, "目标值不能为负数")
	case errors.Is(err, service.ErrIndicatorNotFound):
		response.NotFound(c, 22101, "指标不存在")
	case errors.Is(err, service.ErrPillarNotFound):
		response.NotFound(c, 22102, "所属支柱不存在")
	default:
		response.InternalError(c)
	}
}
