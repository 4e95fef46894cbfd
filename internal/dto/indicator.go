package dto

// ── 指标 / 活动模块 DTO ──

// CreateIndicatorRequest 创建指标请求
type CreateIndicatorRequest struct {
	PillarID int64    `json:"pillar_id" binding:"required,min=1"`
	Name     string   `json:"name"      binding:"required,max=200"`
	Goal     int64    `json:"goal"      binding:"min=0"`
	Statuses []string `json:"statuses"  binding:"omitempty,dive,required,max=50"`
}

// UpdateIndicatorRequest 更新指标请求，Statuses 传空数组表示清空
type UpdateIndicatorRequest struct {
	PillarID *int64   `json:"pillar_id" binding:"omitempty,min=1"`
	Name     *string  `json:"name"      binding:"omitempty,min=1,max=200"`
	Goal     *int64   `json:"goal"      binding:"omitempty,min=0"`
	Statuses []string `json:"statuses"  binding:"omitempty,dive,required,max=50"`
}

// IndicatorListRequest 指标列表查询参数
type IndicatorListRequest struct {
	PillarID *int64 `form:"pillar_id" binding:"omitempty,min=1"`
}

// IndicatorResponse 指标响应
type IndicatorResponse struct {
	ID         int64    `json:"id"`
	PillarID   int64    `json:"pillar_id"`
	PillarName string   `json:"pillar_name,omitempty"`
	Name       string   `json:"name"`
	Goal       int64    `json:"goal"`
	Statuses   []string `json:"statuses"`
	CreatedAt  string   `json:"created_at"`
	UpdatedAt  string   `json:"updated_at"`
}

// CreateActivityRequest 创建活动请求
type CreateActivityRequest struct {
	IndicatorID int64  `json:"indicator_id" binding:"required,min=1"`
	Name        string `json:"name"         binding:"required,max=200"`
}

// UpdateActivityRequest 重命名活动请求
type UpdateActivityRequest struct {
	Name string `json:"name" binding:"required,max=200"`
}

// ActivityListRequest 活动列表查询参数
type ActivityListRequest struct {
	IndicatorID *int64 `form:"indicator_id" binding:"omitempty,min=1"`
}

// ActivityResponse 活动响应
type ActivityResponse struct {
	ID            int64  `json:"id"`
	IndicatorID   int64  `json:"indicator_id"`
	IndicatorName string `json:"indicator_name,omitempty"`
	PillarName    string `json:"pillar_name,omitempty"`
	Name          string `json:"name"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}
