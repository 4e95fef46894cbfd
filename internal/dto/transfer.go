package dto

// ── 导入导出 DTO ──

// SheetResult 单个工作表的导入统计
type SheetResult struct {
	Sheet   string `json:"sheet"`
	Added   int    `json:"added"`
	Updated int    `json:"updated"`
	Skipped int    `json:"skipped"`
}

// ImportWarning 导入告警（行被跳过或工作表被忽略），Row 为 0 表示整表
type ImportWarning struct {
	Sheet  string `json:"sheet"`
	Row    int    `json:"row,omitempty"`
	Reason string `json:"reason"`
}

// ImportResponse 导入结果
type ImportResponse struct {
	Sheets   []SheetResult   `json:"sheets"`
	Warnings []ImportWarning `json:"warnings"`
}
