package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zahias/pillars/internal/api/middleware"
	"github.com/zahias/pillars/internal/service"
	"github.com/zahias/pillars/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// TransferHandler 工作簿导入导出 HTTP 处理器
type TransferHandler struct {
	transferSvc service.TransferService
}

// NewTransferHandler 创建 TransferHandler
func NewTransferHandler(transferSvc service.TransferService) *TransferHandler {
	return &TransferHandler{transferSvc: transferSvc}
}

// Import 上传工作簿批量导入配置
// POST /api/v1/transfer/import (multipart, 字段名 file)
func (h *TransferHandler) Import(c *gin.Context) {
	file, _, err := c.Request.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
			return
		}
		response.BadRequest(c, 25001, "请上传 file 字段的 Excel 文件")
		return
	}
	defer file.Close()

	resp, err := h.transferSvc.Import(c.Request.Context(), file)
	if err != nil {
		h.handleTransferError(c, err)
		return
	}

	c.Set(middleware.ImportResultKey, resp)
	response.OK(c, resp)
}

// Export 导出全部配置实体
// GET /api/v1/transfer/export
func (h *TransferHandler) Export(c *gin.Context) {
	buf, err := h.transferSvc.Export(c.Request.Context())
	if err != nil {
		h.handleTransferError(c, err)
		return
	}

	response.Attachment(c, "pillars_export.xlsx", xlsxContentType, buf.Bytes())
}

// Template 下载空白导入模板
// GET /api/v1/transfer/template
func (h *TransferHandler) Template(c *gin.Context) {
	buf, err := h.transferSvc.Template()
	if err != nil {
		h.handleTransferError(c, err)
		return
	}

	response.Attachment(c, "pillars_template.xlsx", xlsxContentType, buf.Bytes())
}

func (h *TransferHandler) handleTransferError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrImportUnreadable):
		response.BadRequest(c, 25002, "无法读取上传的工作簿")
	case errors.Is(err, service.ErrImportTooManyRows):
		response.BadRequest(c, 25003, err.Error())
	case errors.Is(err, service.ErrExportGenerateFail):
		response.InternalError(c)
	default:
		response.InternalError(c)
	}
}
