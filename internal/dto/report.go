package dto

// ── 报表模块 DTO ──

// ReportFilterRequest 报表筛选参数
type ReportFilterRequest struct {
	ProgramID   *int64 `form:"program_id"   binding:"omitempty,min=1"`
	PillarID    *int64 `form:"pillar_id"    binding:"omitempty,min=1"`
	IndicatorID *int64 `form:"indicator_id" binding:"omitempty,min=1"`
	ActivityID  *int64 `form:"activity_id"  binding:"omitempty,min=1"`
	Year        int    `form:"year"         binding:"omitempty,min=1900,max=9999"`
	From        string `form:"from"         binding:"omitempty,datetime=2006-01-02"`
	To          string `form:"to"           binding:"omitempty,datetime=2006-01-02"`
}

// EntryReportRequest 明细表格查询参数
type EntryReportRequest struct {
	ReportFilterRequest
	PaginationRequest
}

// ReportExportRequest 报表导出参数
type ReportExportRequest struct {
	ReportFilterRequest
	Format string `form:"format" binding:"omitempty,oneof=csv xlsx"`
}

// FieldTotalsRequest 字段汇总查询参数
type FieldTotalsRequest struct {
	ReportFilterRequest
}

// EntryTable 明细透视表：固定列 + 每个字段名一列
type EntryTable struct {
	Columns []string                 `json:"columns"`
	Rows    []map[string]interface{} `json:"rows"`
	Total   int64                    `json:"total"`
}

// ProgressResponse 指标完成情况（KPI 卡片）
type ProgressResponse struct {
	IndicatorID   int64   `json:"indicator_id"`
	IndicatorName string  `json:"indicator_name"`
	PillarName    string  `json:"pillar_name"`
	Goal          int64   `json:"goal"`
	Actual        int64   `json:"actual"`
	Percent       float64 `json:"percent"`
}

// CountPoint 图表数据点
type CountPoint struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
}

// Series 一条图表序列
type Series struct {
	Name   string       `json:"name"`
	Points []CountPoint `json:"points"`
}

// FieldTotalResponse Number 字段汇总
type FieldTotalResponse struct {
	FieldID   int64   `json:"field_id"`
	FieldName string  `json:"field_name"`
	Count     int64   `json:"count"`
	Sum       float64 `json:"sum"`
	Avg       float64 `json:"avg"`
}
