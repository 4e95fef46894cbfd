package dto

// ── 项目 / 支柱模块 DTO ──

// CreateProgramRequest 创建项目请求
type CreateProgramRequest struct {
	Name        string `json:"name"        binding:"required,max=200"`
	Description string `json:"description" binding:"omitempty,max=2000"`
}

// UpdateProgramRequest 更新项目请求
type UpdateProgramRequest struct {
	Name        *string `json:"name"        binding:"omitempty,min=1,max=200"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
}

// ProgramResponse 项目响应
type ProgramResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// CreatePillarRequest 创建支柱请求
type CreatePillarRequest struct {
	Name        string `json:"name"        binding:"required,max=200"`
	Description string `json:"description" binding:"omitempty,max=2000"`
}

// UpdatePillarRequest 更新支柱请求
type UpdatePillarRequest struct {
	Name        *string `json:"name"        binding:"omitempty,min=1,max=200"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
}

// PillarResponse 支柱响应
type PillarResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}
