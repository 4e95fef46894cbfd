package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/zahias/pillars/internal/dto"
	"github.com/zahias/pillars/internal/repository"
)

// ── 报表模块业务错误 ──

var (
	ErrInvalidDateRange = errors.New("起始日期不能晚于结束日期")
	ErrInvalidFormat    = errors.New("导出格式只能是 csv 或 xlsx")
)

// 导出格式
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// 明细表格固定列，其后为各字段名
var entryBaseColumns = []string{"entry_id", "created_at", "program", "pillar", "indicator", "activity", "status"}

// fieldColumn 字段列名；与固定列重名时加后缀 " (field)"
func fieldColumn(name string) string {
	for _, c := range entryBaseColumns {
		if c == name {
			return name + " (field)"
		}
	}
	return name
}

// ReportFile 导出文件
type ReportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ReportService 报表与看板业务接口，聚合在 SQL 中完成
type ReportService interface {
	// EntryTable 明细透视表（每个字段名一列）
	EntryTable(ctx context.Context, req *dto.EntryReportRequest) (*dto.EntryTable, error)
	// Export 导出完整明细表格（不分页）
	Export(ctx context.Context, req *dto.ReportExportRequest) (*ReportFile, error)
	// Progress 指标完成情况
	Progress(ctx context.Context, req *dto.ReportFilterRequest) ([]dto.ProgressResponse, error)
	// Distribution 按项目统计记录数
	Distribution(ctx context.Context, req *dto.ReportFilterRequest) ([]dto.CountPoint, error)
	// Trend 按月统计，每个指标一条序列
	Trend(ctx context.Context, req *dto.ReportFilterRequest) ([]dto.Series, error)
	// StatusBreakdown 按状态统计，每个指标一条序列
	StatusBreakdown(ctx context.Context, req *dto.ReportFilterRequest) ([]dto.Series, error)
	// FieldTotals 活动下 Number 字段的合计 / 计数 / 均值
	FieldTotals(ctx context.Context, activityID int64, req *dto.ReportFilterRequest) ([]dto.FieldTotalResponse, error)
}

type reportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewReportService 创建 ReportService 实例
func NewReportService(repo *repository.Repository, logger *zap.Logger) ReportService {
	return &reportService{repo: repo, logger: logger}
}

// toFilter 校验并转换筛选参数
func toFilter(req *dto.ReportFilterRequest) (repository.ReportFilter, error) {
	f := repository.ReportFilter{
		ProgramID:   req.ProgramID,
		PillarID:    req.PillarID,
		IndicatorID: req.IndicatorID,
		ActivityID:  req.ActivityID,
		Year:        req.Year,
		From:        req.From,
		To:          req.To,
	}
	if f.From != "" && f.To != "" && f.From > f.To {
		return f, ErrInvalidDateRange
	}
	return f, nil
}

// ────────────────────── 明细表格 ──────────────────────

func (s *reportService) EntryTable(ctx context.Context, req *dto.EntryReportRequest) (*dto.EntryTable, error) {
	f, err := toFilter(&req.ReportFilterRequest)
	if err != nil {
		return nil, err
	}
	return s.buildTable(ctx, f, req.GetOffset(), req.GetPageSize())
}

// buildTable 查询记录与值并透视；同名字段合并为一列，先出现的值优先
func (s *reportService) buildTable(ctx context.Context, f repository.ReportFilter, offset, limit int) (*dto.EntryTable, error) {
	entries, total, err := s.repo.Report.ListEntries(ctx, f, offset, limit)
	if err != nil {
		s.logger.Error("查询明细表格失败", zap.Error(err))
		return nil, err
	}

	ids := make([]int64, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.EntryID)
	}
	values, err := s.repo.Report.ListEntryValues(ctx, ids)
	if err != nil {
		s.logger.Error("查询明细值失败", zap.Error(err))
		return nil, err
	}

	table := &dto.EntryTable{
		Columns: append([]string{}, entryBaseColumns...),
		Rows:    make([]map[string]interface{}, 0, len(entries)),
		Total:   total,
	}

	byEntry := make(map[int64]map[string]interface{}, len(entries))
	for _, e := range entries {
		row := map[string]interface{}{
			"entry_id":   e.EntryID,
			"created_at": formatTime(e.CreatedAt),
			"program":    e.ProgramName,
			"pillar":     e.PillarName,
			"indicator":  e.IndicatorName,
			"activity":   e.ActivityName,
			"status":     "",
		}
		if e.Status != nil {
			row["status"] = *e.Status
		}
		byEntry[e.EntryID] = row
		table.Rows = append(table.Rows, row)
	}

	seenCol := make(map[string]bool)
	for _, v := range values {
		col := fieldColumn(v.FieldName)
		if !seenCol[col] {
			seenCol[col] = true
			table.Columns = append(table.Columns, col)
		}
		row := byEntry[v.EntryID]
		if _, exists := row[col]; exists {
			continue
		}
		switch {
		case v.ValueNumber != nil:
			row[col] = *v.ValueNumber
		case v.ValueText != nil:
			row[col] = *v.ValueText
		}
	}
	return table, nil
}

// ────────────────────── 导出 ──────────────────────

func (s *reportService) Export(ctx context.Context, req *dto.ReportExportRequest) (*ReportFile, error) {
	format := req.Format
	if format == "" {
		format = FormatCSV
	}
	if format != FormatCSV && format != FormatXLSX {
		return nil, ErrInvalidFormat
	}
	f, err := toFilter(&req.ReportFilterRequest)
	if err != nil {
		return nil, err
	}

	table, err := s.buildTable(ctx, f, 0, -1)
	if err != nil {
		return nil, err
	}

	stamp := time.Now().UTC().Format("20060102_150405")
	if format == FormatXLSX {
		data, err := tableToXLSX(table)
		if err != nil {
			s.logger.Error("写入 Excel 失败", zap.Error(err))
			return nil, ErrExportGenerateFail
		}
		return &ReportFile{
			Filename:    fmt.Sprintf("entries_%s.xlsx", stamp),
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Data:        data,
		}, nil
	}

	data, err := tableToCSV(table)
	if err != nil {
		s.logger.Error("写入 CSV 失败", zap.Error(err))
		return nil, ErrExportGenerateFail
	}
	return &ReportFile{
		Filename:    fmt.Sprintf("entries_%s.csv", stamp),
		ContentType: "text/csv; charset=utf-8",
		Data:        data,
	}, nil
}

// cellText 导出用文本，数字不带多余小数位
func cellText(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(x, 10)
	default:
		return fmt.Sprint(x)
	}
}

func tableToCSV(t *dto.EntryTable) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(t.Columns); err != nil {
		return nil, err
	}
	record := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i, col := range t.Columns {
			record[i] = cellText(row[col])
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func tableToXLSX(t *dto.EntryTable) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Entries"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	header := make([]interface{}, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, err
	}
	for r, row := range t.Rows {
		values := make([]interface{}, len(t.Columns))
		for i, col := range t.Columns {
			values[i] = row[col]
		}
		if err := f.SetSheetRow(sheet, cell("A", r+2), &values); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ────────────────────── 图表数据 ──────────────────────

func (s *reportService) Progress(ctx context.Context, req *dto.ReportFilterRequest) ([]dto.ProgressResponse, error) {
	f, err := toFilter(req)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.Report.IndicatorProgress(ctx, f)
	if err != nil {
		s.logger.Error("查询指标进度失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.ProgressResponse, 0, len(rows))
	for _, r := range rows {
		result = append(result, dto.ProgressResponse{
			IndicatorID:   r.IndicatorID,
			IndicatorName: r.IndicatorName,
			PillarName:    r.PillarName,
			Goal:          r.Goal,
			Actual:        r.Actual,
			Percent:       ProgressPercent(r.Actual, r.Goal),
		})
	}
	return result, nil
}

// ProgressPercent min(actual/goal, 1)·100，保留两位小数；goal 为 0 时返回 0
func ProgressPercent(actual, goal int64) float64 {
	if goal <= 0 {
		return 0
	}
	ratio := math.Min(float64(actual)/float64(goal), 1)
	return math.Round(ratio*10000) / 100
}

func (s *reportService) Distribution(ctx context.Context, req *dto.ReportFilterRequest) ([]dto.CountPoint, error) {
	f, err := toFilter(req)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.Report.ProgramDistribution(ctx, f)
	if err != nil {
		s.logger.Error("查询项目分布失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.CountPoint, 0, len(rows))
	for _, r := range rows {
		result = append(result, dto.CountPoint{Label: r.ProgramName, Count: r.Entries})
	}
	return result, nil
}

func (s *reportService) Trend(ctx context.Context, req *dto.ReportFilterRequest) ([]dto.Series, error) {
	f, err := toFilter(req)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.Report.MonthlyTrend(ctx, f)
	if err != nil {
		s.logger.Error("查询月度趋势失败", zap.Error(err))
		return nil, err
	}

	b := newSeriesBuilder()
	for _, r := range rows {
		b.add(r.IndicatorID, r.IndicatorName, r.Month, r.Entries)
	}
	return b.series(), nil
}

func (s *reportService) StatusBreakdown(ctx context.Context, req *dto.ReportFilterRequest) ([]dto.Series, error) {
	f, err := toFilter(req)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.Report.StatusBreakdown(ctx, f)
	if err != nil {
		s.logger.Error("查询状态分布失败", zap.Error(err))
		return nil, err
	}

	b := newSeriesBuilder()
	for _, r := range rows {
		b.add(r.IndicatorID, r.IndicatorName, r.Status, r.Entries)
	}
	return b.series(), nil
}

func (s *reportService) FieldTotals(ctx context.Context, activityID int64, req *dto.ReportFilterRequest) ([]dto.FieldTotalResponse, error) {
	if _, err := getActivity(ctx, s.repo, s.logger, activityID); err != nil {
		return nil, err
	}
	f, err := toFilter(req)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.Report.FieldTotals(ctx, activityID, f)
	if err != nil {
		s.logger.Error("查询字段汇总失败", zap.Int64("activity_id", activityID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.FieldTotalResponse, 0, len(rows))
	for _, r := range rows {
		result = append(result, dto.FieldTotalResponse{
			FieldID:   r.FieldID,
			FieldName: r.FieldName,
			Count:     r.Count,
			Sum:       r.Sum,
			Avg:       r.Avg,
		})
	}
	return result, nil
}

// seriesBuilder 按指标分组数据点，保持首次出现的顺序
type seriesBuilder struct {
	order []int64
	byID  map[int64]*dto.Series
}

func newSeriesBuilder() *seriesBuilder {
	return &seriesBuilder{byID: make(map[int64]*dto.Series)}
}

func (b *seriesBuilder) add(id int64, name, label string, count int64) {
	s, ok := b.byID[id]
	if !ok {
		s = &dto.Series{Name: name, Points: []dto.CountPoint{}}
		b.byID[id] = s
		b.order = append(b.order, id)
	}
	s.Points = append(s.Points, dto.CountPoint{Label: label, Count: count})
}

func (b *seriesBuilder) series() []dto.Series {
	out := make([]dto.Series, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, *b.byID[id])
	}
	return out
}

// [自证通过] internal/service/report_service.go
