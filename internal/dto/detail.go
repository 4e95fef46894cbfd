package dto

// ── 动态明细（EAV）DTO ──

// CreateFieldRequest 定义明细字段请求
type CreateFieldRequest struct {
	Name       string `json:"name"        binding:"required,max=200"`
	FieldType  string `json:"field_type"  binding:"required"`
	OrderIndex int    `json:"order_index"`
}

// UpdateFieldRequest 编辑明细字段请求，已有值不迁移
type UpdateFieldRequest struct {
	Name       *string `json:"name"        binding:"omitempty,min=1,max=200"`
	FieldType  *string `json:"field_type"`
	OrderIndex *int    `json:"order_index"`
}

// FieldResponse 明细字段响应
type FieldResponse struct {
	ID         int64  `json:"id"`
	ActivityID int64  `json:"activity_id"`
	Name       string `json:"name"`
	FieldType  string `json:"field_type"`
	OrderIndex int    `json:"order_index"`
}

// FormFieldResponse 表单控件描述
type FormFieldResponse struct {
	FieldID   int64  `json:"field_id"`
	Label     string `json:"label"`
	FieldType string `json:"field_type"`
	Widget    string `json:"widget"` // number / text
}

// FormResponse 活动的动态表单描述
type FormResponse struct {
	ActivityID   int64               `json:"activity_id"`
	ActivityName string              `json:"activity_name"`
	Statuses     []string            `json:"statuses"`
	Fields       []FormFieldResponse `json:"fields"`
}

// FieldValueInput 单个字段的提交值
// Value 为 JSON 原始类型：number / string / bool / null
type FieldValueInput struct {
	FieldID int64       `json:"field_id" binding:"required,min=1"`
	Value   interface{} `json:"value"`
}

// SubmitEntryRequest 提交明细记录请求
type SubmitEntryRequest struct {
	ProgramID *int64            `json:"program_id" binding:"omitempty,min=1"`
	Status    *string           `json:"status"     binding:"omitempty,max=50"`
	Values    []FieldValueInput `json:"values"     binding:"dive"`
}

// EntryListRequest 活动记录列表查询参数
type EntryListRequest struct {
	PaginationRequest
}

// EntryValueResponse 明细值响应，Value 为 float64 或 string
type EntryValueResponse struct {
	FieldID   int64       `json:"field_id"`
	FieldName string      `json:"field_name"`
	FieldType string      `json:"field_type"`
	Value     interface{} `json:"value"`
}

// EntryResponse 明细记录响应
type EntryResponse struct {
	ID          int64                `json:"id"`
	ActivityID  int64                `json:"activity_id"`
	ProgramID   *int64               `json:"program_id,omitempty"`
	ProgramName string               `json:"program_name,omitempty"`
	Status      *string              `json:"status,omitempty"`
	CreatedAt   string               `json:"created_at"`
	Values      []EntryValueResponse `json:"values"`
}
