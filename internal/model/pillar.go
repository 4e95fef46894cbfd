package model

// Pillar 支柱表 对应 pillars
type Pillar struct {
	PillarID    int64  `gorm:"primaryKey;autoIncrement" json:"pillar_id"`
	Name        string `gorm:"type:text;not null;uniqueIndex" json:"name"`
	Description string `gorm:"type:text;not null;default:''" json:"description,omitempty"`
	BaseModel

	// 关联
	Indicators []Indicator `gorm:"foreignKey:PillarID" json:"indicators,omitempty"`
}

// TableName 指定表名
func (Pillar) TableName() string { return "pillars" }

// Indicator 指标表 对应 indicators
type Indicator struct {
	IndicatorID int64      `gorm:"primaryKey;autoIncrement" json:"indicator_id"`
	PillarID    int64      `gorm:"not null;index"           json:"pillar_id"`
	Name        string     `gorm:"type:text;not null"       json:"name"`
	Goal        int64      `gorm:"not null;default:0"       json:"goal"` // 年度目标
	Statuses    StringList `gorm:"type:text"                json:"statuses,omitempty"`
	BaseModel

	// 关联
	Pillar *Pillar `gorm:"foreignKey:PillarID;references:PillarID" json:"pillar,omitempty"`
}

// TableName 指定表名
func (Indicator) TableName() string { return "indicators" }

// AllowsStatus 未配置状态集合时接受任意状态
func (i *Indicator) AllowsStatus(status string) bool {
	if status == "" || len(i.Statuses) == 0 {
		return true
	}
	return i.Statuses.Contains(status)
}
