package model

// Program 项目表 对应 programs
type Program struct {
	ProgramID   int64  `gorm:"primaryKey;autoIncrement" json:"program_id"`
	Name        string `gorm:"type:text;not null;uniqueIndex" json:"name"`
	Description string `gorm:"type:text;not null;default:''" json:"description,omitempty"`
	BaseModel
}

// TableName 指定表名
func (Program) TableName() string { return "programs" }
