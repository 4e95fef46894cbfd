package model

import "time"

// Activity 活动表 对应 activities
type Activity struct {
	ActivityID  int64  `gorm:"primaryKey;autoIncrement" json:"activity_id"`
	IndicatorID int64  `gorm:"not null;index"           json:"indicator_id"`
	Name        string `gorm:"type:text;not null"       json:"name"`
	BaseModel

	// 关联
	Indicator *Indicator `gorm:"foreignKey:IndicatorID;references:IndicatorID" json:"indicator,omitempty"`
}

// TableName 指定表名
func (Activity) TableName() string { return "activities" }

// ── 动态明细（EAV）──

// FieldType 明细字段类型标签
type FieldType string

const (
	FieldTypeText   FieldType = "Text"
	FieldTypeNumber FieldType = "Number"
)

// Valid 是否为已知类型
func (t FieldType) Valid() bool {
	return t == FieldTypeText || t == FieldTypeNumber
}

// DetailField 明细字段定义 对应 detail_fields
// 同一活动下允许重名
type DetailField struct {
	FieldID    int64     `gorm:"primaryKey;autoIncrement" json:"field_id"`
	ActivityID int64     `gorm:"not null;index"           json:"activity_id"`
	Name       string    `gorm:"type:text;not null"       json:"name"`
	FieldType  FieldType `gorm:"type:text;not null"       json:"field_type"`
	OrderIndex int       `gorm:"not null;default:0"       json:"order_index"`
	BaseModel

	// 关联
	Activity *Activity `gorm:"foreignKey:ActivityID;references:ActivityID" json:"activity,omitempty"`
}

// TableName 指定表名
func (DetailField) TableName() string { return "detail_fields" }

// DetailEntry 明细记录 对应 detail_entries
type DetailEntry struct {
	EntryID    int64     `gorm:"primaryKey;autoIncrement" json:"entry_id"`
	ActivityID int64     `gorm:"not null;index"           json:"activity_id"`
	ProgramID  *int64    `gorm:"index"                    json:"program_id,omitempty"`
	Status     *string   `gorm:"type:text"                json:"status,omitempty"`
	CreatedAt  time.Time `gorm:"not null"                 json:"created_at"`

	// 关联
	Program *Program      `gorm:"foreignKey:ProgramID;references:ProgramID" json:"program,omitempty"`
	Values  []DetailValue `gorm:"foreignKey:EntryID"                        json:"values,omitempty"`
}

// TableName 指定表名
func (DetailEntry) TableName() string { return "detail_entries" }

// DetailValue 明细值 对应 detail_values
// ValueText / ValueNumber 二选一，由提交时字段的声明类型决定
type DetailValue struct {
	ValueID     int64    `gorm:"primaryKey;autoIncrement" json:"value_id"`
	EntryID     int64    `gorm:"not null;index"           json:"entry_id"`
	FieldID     int64    `gorm:"not null;index"           json:"field_id"`
	ValueText   *string  `gorm:"type:text"                json:"value_text,omitempty"`
	ValueNumber *float64 `                                json:"value_number,omitempty"`

	// 关联
	Field *DetailField `gorm:"foreignKey:FieldID;references:FieldID" json:"field,omitempty"`
}

// TableName 指定表名
func (DetailValue) TableName() string { return "detail_values" }

// IsNumber 以实际存储列判断，字段类型后续修改不影响历史记录的解读
func (v *DetailValue) IsNumber() bool {
	return v.ValueNumber != nil
}
