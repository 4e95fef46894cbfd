package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/zahias/pillars/config"
	"github.com/zahias/pillars/internal/dto"
	"github.com/zahias/pillars/internal/model"
	"github.com/zahias/pillars/internal/repository"
	pkgerrors "github.com/zahias/pillars/pkg/errors"
	"github.com/zahias/pillars/pkg/metrics"
)

// ── 导入导出模块业务错误 ──

var (
	ErrImportUnreadable   = errors.New("无法读取上传的工作簿")
	ErrImportTooManyRows  = errors.New("工作表数据行数超过上限")
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
)

// 工作表名称
const (
	SheetPrograms     = "Programs"
	SheetPillars      = "Pillars"
	SheetIndicators   = "Indicators"
	SheetActivities   = "Activities"
	SheetDetailFields = "DetailFields"
)

// sheetSpec 工作表列定义，required 缺失时整表跳过
type sheetSpec struct {
	name     string
	columns  []string
	required []string
}

// sheetSpecs 按依赖顺序排列，导入导出共用
var sheetSpecs = []sheetSpec{
	{
		name:     SheetPrograms,
		columns:  []string{"name", "description"},
		required: []string{"name"},
	},
	{
		name:     SheetPillars,
		columns:  []string{"name", "description"},
		required: []string{"name"},
	},
	{
		name:     SheetIndicators,
		columns:  []string{"pillar_name", "name", "goal", "statuses"},
		required: []string{"pillar_name", "name", "goal"},
	},
	{
		name:     SheetActivities,
		columns:  []string{"pillar_name", "indicator_name", "name"},
		required: []string{"pillar_name", "indicator_name", "name"},
	},
	{
		name:     SheetDetailFields,
		columns:  []string{"pillar_name", "indicator_name", "activity_name", "field_name", "field_type", "order_index"},
		required: []string{"pillar_name", "indicator_name", "activity_name", "field_name", "field_type"},
	},
}

// TransferService 工作簿导入导出业务接口
//
// 设计说明：
//   - 导入先完整解析全部工作表，再在单个事务中按依赖顺序写入
//   - 按自然键（名称）匹配已有记录：存在则更新，不存在则新增
//   - 行级问题（缺少父级、唯一冲突、数值非法）记为告警并跳过该行
//   - 其他存储错误回滚整个导入
type TransferService interface {
	Import(ctx context.Context, r io.Reader) (*dto.ImportResponse, error)
	// Export 导出当前全部配置实体
	Export(ctx context.Context) (*bytes.Buffer, error)
	// Template 仅含表头的空白工作簿
	Template() (*bytes.Buffer, error)
}

type transferService struct {
	cfg     *config.ImportConfig
	repo    *repository.Repository
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewTransferService 创建 TransferService 实例
func NewTransferService(cfg *config.ImportConfig, repo *repository.Repository, m *metrics.Metrics, logger *zap.Logger) TransferService {
	return &transferService{cfg: cfg, repo: repo, metrics: m, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// Import
// ═══════════════════════════════════════════════════════════

// sheetRow 一行数据，row 为工作表中的行号（从 1 开始，含表头）
type sheetRow struct {
	row   int
	cells map[string]string
}

func (r sheetRow) get(col string) string {
	return r.cells[col]
}

// has 列是否出现在表头中
func (r sheetRow) has(col string) bool {
	_, ok := r.cells[col]
	return ok
}

// rowOutcome 单行处理结果
type rowOutcome int

const (
	rowAdded rowOutcome = iota
	rowUpdated
	rowSkipped
)

// rowHandler 处理一行；skip 原因通过 reason 返回，error 仅用于需要回滚的存储错误
type rowHandler func(ctx context.Context, repo *repository.Repository, r sheetRow) (outcome rowOutcome, reason string, err error)

func (s *transferService) Import(ctx context.Context, r io.Reader) (*dto.ImportResponse, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImportUnreadable, err)
	}
	defer f.Close()

	resp := &dto.ImportResponse{
		Sheets:   make([]dto.SheetResult, 0, len(sheetSpecs)),
		Warnings: []dto.ImportWarning{},
	}

	// 1. 解析（不接触数据库）
	parsed := make(map[string][]sheetRow, len(sheetSpecs))
	for _, spec := range sheetSpecs {
		rows, warn, err := s.readSheet(f, spec)
		if err != nil {
			return nil, err
		}
		if warn != "" {
			resp.Warnings = append(resp.Warnings, dto.ImportWarning{Sheet: spec.name, Reason: warn})
			continue
		}
		parsed[spec.name] = rows
	}

	// 2. 单事务按依赖顺序写入
	handlers := map[string]rowHandler{
		SheetPrograms:   importProgramRow,
		SheetPillars:    importPillarRow,
		SheetIndicators: importIndicatorRow,
		SheetActivities: importActivityRow,
	}

	var results []dto.SheetResult
	var warnings []dto.ImportWarning
	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		results = results[:0]
		warnings = warnings[:0]
		handlers[SheetDetailFields] = fieldRowImporter()
		for _, spec := range sheetSpecs {
			rows, ok := parsed[spec.name]
			if !ok {
				continue
			}
			result := dto.SheetResult{Sheet: spec.name}
			for _, row := range rows {
				outcome, reason, err := handlers[spec.name](ctx, txRepo, row)
				if err != nil {
					return fmt.Errorf("%s 第 %d 行: %w", spec.name, row.row, err)
				}
				switch outcome {
				case rowAdded:
					result.Added++
				case rowUpdated:
					result.Updated++
				default:
					result.Skipped++
					warnings = append(warnings, dto.ImportWarning{Sheet: spec.name, Row: row.row, Reason: reason})
				}
			}
			results = append(results, result)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("导入失败，已回滚", zap.Error(err))
		return nil, err
	}

	resp.Sheets = append(resp.Sheets, results...)
	resp.Warnings = append(resp.Warnings, warnings...)

	for _, r := range resp.Sheets {
		s.metrics.AddImportRows(r.Sheet, "added", r.Added)
		s.metrics.AddImportRows(r.Sheet, "updated", r.Updated)
		s.metrics.AddImportRows(r.Sheet, "skipped", r.Skipped)
	}
	s.logger.Info("工作簿导入完成",
		zap.Int("sheets", len(resp.Sheets)),
		zap.Int("warnings", len(resp.Warnings)),
	)
	return resp, nil
}

// readSheet 读取并解析一个工作表
// warn 非空表示整表跳过（缺表或缺必要列）
func (s *transferService) readSheet(f *excelize.File, spec sheetSpec) (rows []sheetRow, warn string, err error) {
	sheetName := findSheet(f, spec.name)
	if sheetName == "" {
		return nil, "缺少工作表", nil
	}

	excelRows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, "", fmt.Errorf("%w: 读取工作表 %s 失败: %v", ErrImportUnreadable, spec.name, err)
	}
	if len(excelRows) == 0 {
		return nil, "缺少表头", nil
	}

	colIndex := parseHeaderIndex(excelRows[0], spec.columns)
	var missing []string
	for _, col := range spec.required {
		if colIndex[col] < 0 {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, "表头缺少必要列: " + strings.Join(missing, ", "), nil
	}

	for i := 1; i < len(excelRows); i++ {
		row := sheetRow{row: i + 1, cells: make(map[string]string, len(spec.columns))}
		blank := true
		for _, col := range spec.columns {
			idx := colIndex[col]
			if idx < 0 {
				continue
			}
			v := ""
			if idx < len(excelRows[i]) {
				v = strings.TrimSpace(excelRows[i][idx])
			}
			if v != "" {
				blank = false
			}
			row.cells[col] = v
		}
		// 跳过全空行
		if blank {
			continue
		}
		rows = append(rows, row)
	}

	if s.cfg != nil && s.cfg.MaxRows > 0 && len(rows) > s.cfg.MaxRows {
		return nil, "", fmt.Errorf("%w: %s 有 %d 行（上限 %d）", ErrImportTooManyRows, spec.name, len(rows), s.cfg.MaxRows)
	}
	return rows, "", nil
}

// findSheet 不区分大小写查找工作表
func findSheet(f *excelize.File, name string) string {
	for _, sheet := range f.GetSheetList() {
		if strings.EqualFold(strings.TrimSpace(sheet), name) {
			return sheet
		}
	}
	return ""
}

// parseHeaderIndex 解析表头，返回列名 -> 列索引映射，缺失列为 -1
// 列名不区分大小写，空格与连字符视同下划线
func parseHeaderIndex(header []string, columns []string) map[string]int {
	idx := make(map[string]int, len(columns))
	for _, col := range columns {
		idx[col] = -1
	}
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
		if cur, ok := idx[key]; ok && cur < 0 {
			idx[key] = i
		}
	}
	return idx
}

// ── 各工作表的行处理 ──

func importProgramRow(ctx context.Context, repo *repository.Repository, r sheetRow) (rowOutcome, string, error) {
	name := r.get("name")
	if name == "" {
		return rowSkipped, "name 为空", nil
	}

	existing, err := repo.Program.GetByName(ctx, name)
	switch {
	case err == nil:
		if r.has("description") && existing.Description != r.get("description") {
			existing.Description = r.get("description")
			if err := repo.Program.Update(ctx, existing); err != nil {
				return rowSkipped, "", err
			}
		}
		return rowUpdated, "", nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return rowSkipped, "", err
	}

	program := &model.Program{Name: name, Description: r.get("description")}
	if err := repo.Program.Create(ctx, program); err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return rowSkipped, "项目名称重复: " + name, nil
		}
		return rowSkipped, "", err
	}
	return rowAdded, "", nil
}

func importPillarRow(ctx context.Context, repo *repository.Repository, r sheetRow) (rowOutcome, string, error) {
	name := r.get("name")
	if name == "" {
		return rowSkipped, "name 为空", nil
	}

	existing, err := repo.Pillar.GetByName(ctx, name)
	switch {
	case err == nil:
		if r.has("description") && existing.Description != r.get("description") {
			existing.Description = r.get("description")
			if err := repo.Pillar.Update(ctx, existing); err != nil {
				return rowSkipped, "", err
			}
		}
		return rowUpdated, "", nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return rowSkipped, "", err
	}

	pillar := &model.Pillar{Name: name, Description: r.get("description")}
	if err := repo.Pillar.Create(ctx, pillar); err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return rowSkipped, "支柱名称重复: " + name, nil
		}
		return rowSkipped, "", err
	}
	return rowAdded, "", nil
}

func importIndicatorRow(ctx context.Context, repo *repository.Repository, r sheetRow) (rowOutcome, string, error) {
	name := r.get("name")
	if name == "" {
		return rowSkipped, "name 为空", nil
	}
	goal, err := parseNonNegativeInt(r.get("goal"))
	if err != nil {
		return rowSkipped, fmt.Sprintf("goal 非法: %q", r.get("goal")), nil
	}

	pillar, reason, err := resolvePillar(ctx, repo, r.get("pillar_name"))
	if pillar == nil {
		return rowSkipped, reason, err
	}

	existing, err := repo.Indicator.GetByName(ctx, pillar.PillarID, name)
	switch {
	case err == nil:
		existing.Goal = goal
		if r.has("statuses") {
			existing.Statuses = model.ParseStringList(r.get("statuses"))
		}
		if err := repo.Indicator.Update(ctx, existing); err != nil {
			return rowSkipped, "", err
		}
		return rowUpdated, "", nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return rowSkipped, "", err
	}

	indicator := &model.Indicator{
		PillarID: pillar.PillarID,
		Name:     name,
		Goal:     goal,
		Statuses: model.ParseStringList(r.get("statuses")),
	}
	if err := repo.Indicator.Create(ctx, indicator); err != nil {
		return rowSkipped, "", err
	}
	return rowAdded, "", nil
}

func importActivityRow(ctx context.Context, repo *repository.Repository, r sheetRow) (rowOutcome, string, error) {
	name := r.get("name")
	if name == "" {
		return rowSkipped, "name 为空", nil
	}

	indicator, reason, err := resolveIndicator(ctx, repo, r.get("pillar_name"), r.get("indicator_name"))
	if indicator == nil {
		return rowSkipped, reason, err
	}

	_, err = repo.Activity.GetByName(ctx, indicator.IndicatorID, name)
	switch {
	case err == nil:
		// 活动除名称外无其他属性
		return rowUpdated, "", nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return rowSkipped, "", err
	}

	if err := repo.Activity.Create(ctx, &model.Activity{IndicatorID: indicator.IndicatorID, Name: name}); err != nil {
		return rowSkipped, "", err
	}
	return rowAdded, "", nil
}

// fieldRowImporter 返回一次导入内使用的字段行处理器
// 活动下允许同名字段：每行认领第一个尚未被本次导入认领的同名字段，没有则新建
func fieldRowImporter() rowHandler {
	claimed := make(map[int64]bool)
	return func(ctx context.Context, repo *repository.Repository, r sheetRow) (rowOutcome, string, error) {
		return importFieldRow(ctx, repo, r, claimed)
	}
}

func importFieldRow(ctx context.Context, repo *repository.Repository, r sheetRow, claimed map[int64]bool) (rowOutcome, string, error) {
	name := r.get("field_name")
	if name == "" {
		return rowSkipped, "field_name 为空", nil
	}
	fieldType, err := ParseFieldType(r.get("field_type"))
	if err != nil {
		return rowSkipped, fmt.Sprintf("field_type 非法: %q", r.get("field_type")), nil
	}
	order := 0
	if raw := r.get("order_index"); raw != "" {
		n, err := parseInt(raw)
		if err != nil {
			return rowSkipped, fmt.Sprintf("order_index 非法: %q", raw), nil
		}
		order = int(n)
	}

	indicator, reason, err := resolveIndicator(ctx, repo, r.get("pillar_name"), r.get("indicator_name"))
	if indicator == nil {
		return rowSkipped, reason, err
	}
	activityName := r.get("activity_name")
	activity, err := repo.Activity.GetByName(ctx, indicator.IndicatorID, activityName)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return rowSkipped, "活动不存在: " + activityName, nil
		}
		return rowSkipped, "", err
	}

	sameName, err := repo.DetailField.ListByName(ctx, activity.ActivityID, name)
	if err != nil {
		return rowSkipped, "", err
	}
	for i := range sameName {
		existing := &sameName[i]
		if claimed[existing.FieldID] {
			continue
		}
		claimed[existing.FieldID] = true
		existing.FieldType = fieldType
		existing.OrderIndex = order
		if err := repo.DetailField.Update(ctx, existing); err != nil {
			return rowSkipped, "", err
		}
		return rowUpdated, "", nil
	}

	field := &model.DetailField{
		ActivityID: activity.ActivityID,
		Name:       name,
		FieldType:  fieldType,
		OrderIndex: order,
	}
	if err := repo.DetailField.Create(ctx, field); err != nil {
		return rowSkipped, "", err
	}
	claimed[field.FieldID] = true
	return rowAdded, "", nil
}

// resolvePillar 按名称查找支柱；不存在时返回 nil 与跳过原因
func resolvePillar(ctx context.Context, repo *repository.Repository, name string) (*model.Pillar, string, error) {
	if name == "" {
		return nil, "pillar_name 为空", nil
	}
	pillar, err := repo.Pillar.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "支柱不存在: " + name, nil
		}
		return nil, "", err
	}
	return pillar, "", nil
}

// resolveIndicator 按 (支柱名, 指标名) 查找指标
func resolveIndicator(ctx context.Context, repo *repository.Repository, pillarName, name string) (*model.Indicator, string, error) {
	pillar, reason, err := resolvePillar(ctx, repo, pillarName)
	if pillar == nil {
		return nil, reason, err
	}
	if name == "" {
		return nil, "indicator_name 为空", nil
	}
	indicator, err := repo.Indicator.GetByName(ctx, pillar.PillarID, name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "指标不存在: " + name, nil
		}
		return nil, "", err
	}
	return indicator, "", nil
}

// parseInt 接受 "12" 与表格软件写出的 "12.0"
func parseInt(s string) (int64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fmt.Errorf("不是整数: %s", s)
	}
	// float64(math.MaxInt64) 恰为 2^63，已越界
	if f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, fmt.Errorf("超出整数范围: %s", s)
	}
	return int64(f), nil
}

// parseNonNegativeInt 空串视为 0
func parseNonNegativeInt(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	n, err := parseInt(s)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, ErrInvalidGoal
	}
	return n, nil
}

// ═══════════════════════════════════════════════════════════
// Export / Template
// ═══════════════════════════════════════════════════════════

func (s *transferService) Export(ctx context.Context) (*bytes.Buffer, error) {
	data := make(map[string][][]interface{}, len(sheetSpecs))

	programs, err := s.repo.Program.List(ctx)
	if err != nil {
		s.logger.Error("查询项目失败", zap.Error(err))
		return nil, err
	}
	for _, p := range programs {
		data[SheetPrograms] = append(data[SheetPrograms], []interface{}{p.Name, p.Description})
	}

	pillars, err := s.repo.Pillar.List(ctx)
	if err != nil {
		s.logger.Error("查询支柱失败", zap.Error(err))
		return nil, err
	}
	for _, p := range pillars {
		data[SheetPillars] = append(data[SheetPillars], []interface{}{p.Name, p.Description})
	}

	indicators, err := s.repo.Indicator.List(ctx, nil)
	if err != nil {
		s.logger.Error("查询指标失败", zap.Error(err))
		return nil, err
	}
	for _, i := range indicators {
		data[SheetIndicators] = append(data[SheetIndicators], []interface{}{
			pillarName(i.Pillar), i.Name, i.Goal, strings.Join(i.Statuses, ","),
		})
	}

	activities, err := s.repo.Activity.List(ctx, nil)
	if err != nil {
		s.logger.Error("查询活动失败", zap.Error(err))
		return nil, err
	}
	for _, a := range activities {
		var indicatorName string
		var pillar *model.Pillar
		if a.Indicator != nil {
			indicatorName = a.Indicator.Name
			pillar = a.Indicator.Pillar
		}
		data[SheetActivities] = append(data[SheetActivities], []interface{}{pillarName(pillar), indicatorName, a.Name})
	}

	fields, err := s.repo.DetailField.ListAll(ctx)
	if err != nil {
		s.logger.Error("查询字段失败", zap.Error(err))
		return nil, err
	}
	type fieldRow struct {
		pillar, indicator, activity string
		field                       model.DetailField
	}
	rows := make([]fieldRow, 0, len(fields))
	for _, f := range fields {
		row := fieldRow{field: f}
		if f.Activity != nil {
			row.activity = f.Activity.Name
			if f.Activity.Indicator != nil {
				row.indicator = f.Activity.Indicator.Name
				row.pillar = pillarName(f.Activity.Indicator.Pillar)
			}
		}
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.pillar != b.pillar {
			return a.pillar < b.pillar
		}
		if a.indicator != b.indicator {
			return a.indicator < b.indicator
		}
		if a.activity != b.activity {
			return a.activity < b.activity
		}
		return a.field.OrderIndex < b.field.OrderIndex
	})
	for _, r := range rows {
		data[SheetDetailFields] = append(data[SheetDetailFields], []interface{}{
			r.pillar, r.indicator, r.activity, r.field.Name, string(r.field.FieldType), r.field.OrderIndex,
		})
	}

	buf, err := writeWorkbook(data)
	if err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, ErrExportGenerateFail
	}
	return buf, nil
}

func (s *transferService) Template() (*bytes.Buffer, error) {
	buf, err := writeWorkbook(nil)
	if err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, ErrExportGenerateFail
	}
	return buf, nil
}

// writeWorkbook 按 sheetSpecs 顺序写出全部工作表，data 为空时只写表头
func writeWorkbook(data map[string][][]interface{}) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
	})
	if err != nil {
		return nil, err
	}

	for i, spec := range sheetSpecs {
		if _, err := f.NewSheet(spec.name); err != nil {
			return nil, err
		}
		if i == 0 {
			// 删除默认 Sheet1
			if err := f.DeleteSheet("Sheet1"); err != nil {
				return nil, err
			}
		}

		header := make([]interface{}, len(spec.columns))
		for j, col := range spec.columns {
			header[j] = col
		}
		if err := f.SetSheetRow(spec.name, "A1", &header); err != nil {
			return nil, err
		}
		last := colName(len(spec.columns) - 1)
		if err := f.SetCellStyle(spec.name, "A1", cell(last, 1), headerStyle); err != nil {
			return nil, err
		}
		if err := f.SetColWidth(spec.name, "A", last, 20); err != nil {
			return nil, err
		}

		for r, row := range data[spec.name] {
			row := row
			if err := f.SetSheetRow(spec.name, cell("A", r+2), &row); err != nil {
				return nil, err
			}
		}
	}
	if idx, err := f.GetSheetIndex(SheetPrograms); err == nil {
		f.SetActiveSheet(idx)
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// ── 辅助函数 ──

func pillarName(p *model.Pillar) string {
	if p == nil {
		return ""
	}
	return p.Name
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

// [自证通过] internal/service/transfer_service.go
