package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/zahias/pillars/internal/dto"
	"github.com/zahias/pillars/internal/service"
	"github.com/zahias/pillars/pkg/response"
)

// DetailHandler 明细字段与明细记录 HTTP 处理器
type DetailHandler struct {
	detailSvc service.DetailService
}

// NewDetailHandler 创建 DetailHandler
func NewDetailHandler(detailSvc service.DetailService) *DetailHandler {
	return &DetailHandler{detailSvc: detailSvc}
}

// ════════════════════════ 字段 ════════════════════════

// ListFields 获取活动的字段定义（按 order_index 排序）
// GET /api/v1/activities/:id/fields
func (h *DetailHandler) ListFields(c *gin.Context) {
	activityID, ok := MustGetIDParam(c, "id")
	if !ok {
		return
	}

	fields, err := h.detailSvc.ListFields(c.Request.Context(), activityID)
	if err != nil {
		h.handleDetailError(c, err)
		return
	}

	response.OK(c, gin.H{"list": fields})
}

// CreateField 为活动定义字段
// POST /api/v1/activities/:id/fields
func (h *DetailHandler) CreateField(c *gin.Context) {
	activityID, ok := MustGetIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.CreateFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	field, err := h.detailSvc.CreateField(c.Request.Context(), activityID, &req)
	if err != nil {
		h.handleDetailError(c, err)
		return
	}

	response.Created(c, field)
}

// UpdateField 编辑字段
// PUT /api/v1/fields/:id
func (h *DetailHandler) UpdateField(c *gin.Context) {
	fieldID, ok := MustGetIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	field, err := h.detailSvc.UpdateField(c.Request.Context(), fieldID, &req)
	if err != nil {
		h.handleDetailError(c, err)
		return
	}

	response.OK(c, field)
}

// DeleteField DELETE /api/v1/fields/:id
func (h *DetailHandler) DeleteField(c *gin.Context) {
	fieldID, ok := MustGetIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.detailSvc.DeleteField(c.Request.Context(), fieldID); err != nil {
		h.handleDetailError(c, err)
		return
	}

	response.OK(c, nil)
}

// Form 活动的动态表单描述
// GET /api/v1/activities/:id/form
func (h *DetailHandler) Form(c *gin.Context) {
	activityID, ok := MustGetIDParam(c, "id")
	if !ok {
		return
	}

	form, err := h.detailSvc.Form(c.Request.Context(), activityID)
	if err != nil {
		h.handleDetailError(c, err)
		return
	}

	response.OK(c, form)
}

// ════════════════════════ 记录 ════════════════════════

// ListEntries 分页获取活动的明细记录（新记录在前）
// GET /api/v1/activities/:id/entries
func (h *DetailHandler) ListEntries(c *gin.Context) {
	activityID, ok := MustGetIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.EntryListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	entries, total, err := h.detailSvc.ListEntries(c.Request.Context(), activityID, &req)
	if err != nil {
		h.handleDetailError(c, err)
		return
	}

	response.OKPage(c, entries, total, req.GetPage(), req.GetPageSize())
}

// SubmitEntry 提交一条明细记录
// POST /api/v1/activities/:id/entries
func (h *DetailHandler) SubmitEntry(c *gin.Context) {
	activityID, ok := MustGetIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.SubmitEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	entry, err := h.detailSvc.SubmitEntry(c.Request.Context(), activityID, &req)
	if err != nil {
		h.handleDetailError(c, err)
		return
	}

	response.Created(c, entry)
}

// GetEntry GET /api/v1/entries/:id
func (h *DetailHandler) GetEntry(c *gin.Context) {
	entryID, ok := MustGetIDParam(c, "id")
	if !ok {
		return
	}

	entry, err := h.detailSvc.GetEntry(c.Request.Context(), entryID)
	if err != nil {
		h.handleDetailError(c, err)
		return
	}

	response.OK(c, entry)
}

// DeleteEntry DELETE /api/v1/entries/:id
func (h *DetailHandler) DeleteEntry(c *gin.Context) {
	entryID, ok := MustGetIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.detailSvc.DeleteEntry(c.Request.Context(), entryID); err != nil {
		h.handleDetailError(c, err)
		return
	}

	response.OK(c, nil)
}

func (h *DetailHandler) handleDetailError(c *gin.Context, err error) {
	switch {
	// 400
	case errors.Is(err, service.ErrNameRequired):
		response.BadRequest(c, 24001, err.Error())
	case errors.Is(err, service.ErrInvalidFieldType):
		response.BadRequest(c, 24002, "字段类型只能是 Text 或 Number")
	case errors.Is(err, service.ErrFieldNotInActivity):
		response.BadRequest(c, 24003, "字段不属于该活动")
	case errors.Is(err, service.ErrDuplicateFieldValue):
		response.BadRequest(c, 24004, "同一字段重复提交")
	case errors.Is(err, service.ErrInvalidFieldValue):
		response.BadRequest(c, 24005, "字段值与字段类型不符")
	case errors.Is(err, service.ErrStatusNotAllowed):
		response.BadRequest(c, 24006, "状态不在指标允许的范围内")
	// 404
	case errors.Is(err, service.ErrActivityNotFound):
		response.NotFound(c, 24101, "活动不存在")
	case errors.Is(err, service.ErrFieldNotFound):
		response.NotFound(c, 24102, "字段不存在")
	case errors.Is(err, service.ErrEntryNotFound):
		response.NotFound(c, 24103, "明细记录不存在")
	case errors.Is(err, service.ErrProgramNotFound):
		response.NotFound(c, 24104, "项目不存在")
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/detail_handler.go
