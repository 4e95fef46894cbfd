package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/zahias/pillars/pkg/response"
)

// MustGetIDParam 从路径参数中解析正整数 ID。
// 解析失败时写入 400 响应并返回 false，调用方应直接 return。
func MustGetIDParam(c *gin.Context, name string) (int64, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, 10001, "无效的ID: "+raw)
		return 0, false
	}
	return id, true
}

// bindFailed 参数校验失败统一响应
func bindFailed(c *gin.Context, err error) {
	response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "参数校验失败", err.Error())
}
