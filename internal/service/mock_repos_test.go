package service

import (
	"context"
	"sort"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/zahias/pillars/internal/model"
	"github.com/zahias/pillars/internal/repository"
)

// ── Mock ProgramRepository ──

type mockProgramRepo struct {
	programs map[int64]*model.Program
	nextID   int64
	deleted  []int64
}

func newMockProgramRepo() *mockProgramRepo {
	m := &mockProgramRepo{programs: make(map[int64]*model.Program), nextID: 1}
	_ = m.Create(context.Background(), &model.Program{Name: "Outreach", Description: "社区外展"})
	return m
}

func (m *mockProgramRepo) Create(_ context.Context, p *model.Program) error {
	if p.ProgramID == 0 {
		p.ProgramID = m.nextID
		m.nextID++
	}
	m.programs[p.ProgramID] = p
	return nil
}

func (m *mockProgramRepo) GetByID(_ context.Context, id int64) (*model.Program, error) {
	if p, ok := m.programs[id]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockProgramRepo) GetByName(_ context.Context, name string) (*model.Program, error) {
	for _, p := range m.programs {
		if p.Name == name {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockProgramRepo) List(_ context.Context) ([]model.Program, error) {
	var result []model.Program
	for _, p := range m.programs {
		result = append(result, *p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m *mockProgramRepo) Update(_ context.Context, p *model.Program) error {
	m.programs[p.ProgramID] = p
	return nil
}

func (m *mockProgramRepo) Delete(_ context.Context, id int64) error {
	delete(m.programs, id)
	m.deleted = append(m.deleted, id)
	return nil
}

// ── Mock PillarRepository ──

type mockPillarRepo struct {
	pillars map[int64]*model.Pillar
	nextID  int64
}

func newMockPillarRepo() *mockPillarRepo {
	m := &mockPillarRepo{pillars: make(map[int64]*model.Pillar), nextID: 1}
	_ = m.Create(context.Background(), &model.Pillar{Name: "Health"})
	return m
}

func (m *mockPillarRepo) Create(_ context.Context, p *model.Pillar) error {
	if p.PillarID == 0 {
		p.PillarID = m.nextID
		m.nextID++
	}
	m.pillars[p.PillarID] = p
	return nil
}

func (m *mockPillarRepo) GetByID(_ context.Context, id int64) (*model.Pillar, error) {
	if p, ok := m.pillars[id]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPillarRepo) GetByName(_ context.Context, name string) (*model.Pillar, error) {
	for _, p := range m.pillars {
		if p.Name == name {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPillarRepo) List(_ context.Context) ([]model.Pillar, error) {
	var result []model.Pillar
	for _, p := range m.pillars {
		result = append(result, *p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m *mockPillarRepo) Update(_ context.Context, p *model.Pillar) error {
	m.pillars[p.PillarID] = p
	return nil
}

func (m *mockPillarRepo) Delete(_ context.Context, id int64) error {
	delete(m.pillars, id)
	return nil
}

// ── Mock IndicatorRepository ──

type mockIndicatorRepo struct {
	indicators map[int64]*model.Indicator
	nextID     int64
}

func newMockIndicatorRepo() *mockIndicatorRepo {
	return &mockIndicatorRepo{indicators: make(map[int64]*model.Indicator), nextID: 1}
}

func (m *mockIndicatorRepo) Create(_ context.Context, i *model.Indicator) error {
	if i.IndicatorID == 0 {
		i.IndicatorID = m.nextID
		m.nextID++
	}
	m.indicators[i.IndicatorID] = i
	return nil
}

func (m *mockIndicatorRepo) GetByID(_ context.Context, id int64) (*model.Indicator, error) {
	if i, ok := m.indicators[id]; ok {
		return i, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockIndicatorRepo) GetByName(_ context.Context, pillarID int64, name string) (*model.Indicator, error) {
	for _, i := range m.indicators {
		if i.PillarID == pillarID && i.Name == name {
			return i, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockIndicatorRepo) List(_ context.Context, pillarID *int64) ([]model.Indicator, error) {
	var result []model.Indicator
	for _, i := range m.indicators {
		if pillarID != nil && i.PillarID != *pillarID {
			continue
		}
		result = append(result, *i)
	}
	sort.Slice(result, func(a, b int) bool { return result[a].Name < result[b].Name })
	return result, nil
}

func (m *mockIndicatorRepo) Update(_ context.Context, i *model.Indicator) error {
	m.indicators[i.IndicatorID] = i
	return nil
}

func (m *mockIndicatorRepo) Delete(_ context.Context, id int64) error {
	delete(m.indicators, id)
	return nil
}

// ── Mock ActivityRepository ──

type mockActivityRepo struct {
	activities map[int64]*model.Activity
	indicators *mockIndicatorRepo
	nextID     int64
}

func newMockActivityRepo(indicators *mockIndicatorRepo) *mockActivityRepo {
	return &mockActivityRepo{activities: make(map[int64]*model.Activity), indicators: indicators, nextID: 1}
}

func (m *mockActivityRepo) Create(_ context.Context, a *model.Activity) error {
	if a.ActivityID == 0 {
		a.ActivityID = m.nextID
		m.nextID++
	}
	m.activities[a.ActivityID] = a
	return nil
}

// GetByID 模拟预加载 Indicator
func (m *mockActivityRepo) GetByID(ctx context.Context, id int64) (*model.Activity, error) {
	a, ok := m.activities[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if ind, err := m.indicators.GetByID(ctx, a.IndicatorID); err == nil {
		a.Indicator = ind
	}
	return a, nil
}

func (m *mockActivityRepo) GetByName(_ context.Context, indicatorID int64, name string) (*model.Activity, error) {
	for _, a := range m.activities {
		if a.IndicatorID == indicatorID && a.Name == name {
			return a, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockActivityRepo) List(_ context.Context, indicatorID *int64) ([]model.Activity, error) {
	var result []model.Activity
	for _, a := range m.activities {
		if indicatorID != nil && a.IndicatorID != *indicatorID {
			continue
		}
		result = append(result, *a)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m *mockActivityRepo) Update(_ context.Context, a *model.Activity) error {
	m.activities[a.ActivityID] = a
	return nil
}

func (m *mockActivityRepo) Delete(_ context.Context, id int64) error {
	delete(m.activities, id)
	return nil
}

// ── Mock DetailFieldRepository ──

type mockDetailFieldRepo struct {
	fields map[int64]*model.DetailField
	nextID int64
}

func newMockDetailFieldRepo() *mockDetailFieldRepo {
	return &mockDetailFieldRepo{fields: make(map[int64]*model.DetailField), nextID: 1}
}

func (m *mockDetailFieldRepo) Create(_ context.Context, f *model.DetailField) error {
	if f.FieldID == 0 {
		f.FieldID = m.nextID
		m.nextID++
	}
	m.fields[f.FieldID] = f
	return nil
}

func (m *mockDetailFieldRepo) GetByID(_ context.Context, id int64) (*model.DetailField, error) {
	if f, ok := m.fields[id]; ok {
		return f, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDetailFieldRepo) ListByName(ctx context.Context, activityID int64, name string) ([]model.DetailField, error) {
	fields, _ := m.ListByActivity(ctx, activityID)
	var result []model.DetailField
	for _, f := range fields {
		if f.Name == name {
			result = append(result, f)
		}
	}
	return result, nil
}

func (m *mockDetailFieldRepo) ListByActivity(_ context.Context, activityID int64) ([]model.DetailField, error) {
	var result []model.DetailField
	for _, f := range m.fields {
		if f.ActivityID == activityID {
			result = append(result, *f)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].OrderIndex != result[j].OrderIndex {
			return result[i].OrderIndex < result[j].OrderIndex
		}
		return result[i].FieldID < result[j].FieldID
	})
	return result, nil
}

func (m *mockDetailFieldRepo) ListAll(_ context.Context) ([]model.DetailField, error) {
	var result []model.DetailField
	for _, f := range m.fields {
		result = append(result, *f)
	}
	return result, nil
}

func (m *mockDetailFieldRepo) Update(_ context.Context, f *model.DetailField) error {
	m.fields[f.FieldID] = f
	return nil
}

func (m *mockDetailFieldRepo) Delete(_ context.Context, id int64) error {
	delete(m.fields, id)
	return nil
}

// ── Mock DetailEntryRepository ──

type mockDetailEntryRepo struct {
	entries map[int64]*model.DetailEntry
	nextID  int64
}

func newMockDetailEntryRepo() *mockDetailEntryRepo {
	return &mockDetailEntryRepo{entries: make(map[int64]*model.DetailEntry), nextID: 1}
}

func (m *mockDetailEntryRepo) Create(_ context.Context, e *model.DetailEntry) error {
	e.EntryID = m.nextID
	m.nextID++
	for i := range e.Values {
		e.Values[i].EntryID = e.EntryID
		e.Values[i].ValueID = int64(i + 1)
	}
	m.entries[e.EntryID] = e
	return nil
}

func (m *mockDetailEntryRepo) GetByID(_ context.Context, id int64) (*model.DetailEntry, error) {
	if e, ok := m.entries[id]; ok {
		return e, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDetailEntryRepo) ListByActivity(_ context.Context, activityID int64, offset, limit int) ([]model.DetailEntry, int64, error) {
	var all []model.DetailEntry
	for _, e := range m.entries {
		if e.ActivityID == activityID {
			all = append(all, *e)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].EntryID > all[j].EntryID })
	total := int64(len(all))
	if offset > len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockDetailEntryRepo) Delete(_ context.Context, id int64) error {
	delete(m.entries, id)
	return nil
}

// ── 测试辅助 ──

type mockRepos struct {
	program   *mockProgramRepo
	pillar    *mockPillarRepo
	indicator *mockIndicatorRepo
	activity  *mockActivityRepo
	field     *mockDetailFieldRepo
	entry     *mockDetailEntryRepo
}

// newMockRepository 组装不带 *gorm.DB 的 Repository，Transaction 直接调用回调
func newMockRepository() (*repository.Repository, *mockRepos) {
	indicators := newMockIndicatorRepo()
	m := &mockRepos{
		program:   newMockProgramRepo(),
		pillar:    newMockPillarRepo(),
		indicator: indicators,
		activity:  newMockActivityRepo(indicators),
		field:     newMockDetailFieldRepo(),
		entry:     newMockDetailEntryRepo(),
	}
	repo := &repository.Repository{
		Program:     m.program,
		Pillar:      m.pillar,
		Indicator:   m.indicator,
		Activity:    m.activity,
		DetailField: m.field,
		DetailEntry: m.entry,
	}
	return repo, m
}

func newTestLogger() *zap.Logger {
	return zap.NewNop()
}
