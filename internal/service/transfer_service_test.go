package service

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/zahias/pillars/internal/dto"
	"github.com/zahias/pillars/internal/testutil"
)

// buildWorkbook 按 sheet → 行（首行为表头）生成工作簿
func buildWorkbook(t *testing.T, sheets map[string][][]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	first := true
	for name, rows := range sheets {
		if first {
			require.NoError(t, f.SetSheetName("Sheet1", name))
			first = false
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for i, row := range rows {
			row := row
			require.NoError(t, f.SetSheetRow(name, cell("A", i+1), &row))
		}
	}
	buf := new(bytes.Buffer)
	require.NoError(t, f.Write(buf))
	return buf
}

func sheetResult(resp *dto.ImportResponse, sheet string) dto.SheetResult {
	for _, r := range resp.Sheets {
		if r.Sheet == sheet {
			return r
		}
	}
	return dto.SheetResult{Sheet: sheet}
}

func TestTransfer_ImportUnreadable(t *testing.T) {
	svc, db := newStoreService(t)

	_, err := svc.Transfer.Import(context.Background(), strings.NewReader("definitely not a workbook"))
	require.ErrorIs(t, err, ErrImportUnreadable)
	assert.EqualValues(t, 0, testutil.CountRows(t, db, "programs"))
}

func TestTransfer_ImportSkipsMissingPillar(t *testing.T) {
	svc, db := newStoreService(t)

	wb := buildWorkbook(t, map[string][][]interface{}{
		SheetPillars: {
			{"Name", "Description"},
			{"Health", "健康"},
		},
		SheetIndicators: {
			{"pillar_name", "name", "goal"},
			{"Health", "Checkups", 100},
			{"Ghost", "Orphan", 5},
			{"", "", ""},
			{"Health", "Vaccinations", "12.0"},
		},
	})

	resp, err := svc.Transfer.Import(context.Background(), wb)
	require.NoError(t, err)

	ind := sheetResult(resp, SheetIndicators)
	assert.Equal(t, 2, ind.Added)
	assert.Equal(t, 1, ind.Skipped)
	assert.EqualValues(t, 2, testutil.CountRows(t, db, "indicators"))

	var rowWarn *dto.ImportWarning
	for i := range resp.Warnings {
		if resp.Warnings[i].Sheet == SheetIndicators {
			rowWarn = &resp.Warnings[i]
		}
	}
	require.NotNil(t, rowWarn)
	assert.Equal(t, 3, rowWarn.Row)
	assert.Contains(t, rowWarn.Reason, "Ghost")

	// 缺失的工作表记为告警
	var missing int
	for _, w := range resp.Warnings {
		if w.Row == 0 {
			missing++
		}
	}
	assert.Equal(t, 3, missing)
}

func TestTransfer_ImportUpdatesExisting(t *testing.T) {
	svc, _ := newStoreService(t)
	ctx := context.Background()
	seedHealth(t, svc)

	wb := buildWorkbook(t, map[string][][]interface{}{
		SheetIndicators: {
			{"pillar_name", "name", "goal", "statuses"},
			{"Health", "Checkups", 250, "planned, done"},
		},
		SheetDetailFields: {
			{"pillar_name", "indicator_name", "activity_name", "field_name", "field_type", "order_index"},
			{"Health", "Checkups", "Clinic Visit", "Visits", "Text", 4},
			{"Health", "Checkups", "Clinic Visit", "Cost", "Currency", 5},
		},
	})

	resp, err := svc.Transfer.Import(ctx, wb)
	require.NoError(t, err)
	assert.Equal(t, 1, sheetResult(resp, SheetIndicators).Updated)
	assert.Equal(t, 1, sheetResult(resp, SheetDetailFields).Updated)
	assert.Equal(t, 1, sheetResult(resp, SheetDetailFields).Skipped)

	indicators, err := svc.Indicator.List(ctx, &dto.IndicatorListRequest{})
	require.NoError(t, err)
	require.Len(t, indicators, 1)
	assert.EqualValues(t, 250, indicators[0].Goal)
	assert.Equal(t, []string{"planned", "done"}, indicators[0].Statuses)

	activities, err := svc.Activity.List(ctx, &dto.ActivityListRequest{})
	require.NoError(t, err)
	fields, err := svc.Detail.ListFields(ctx, activities[0].ID)
	require.NoError(t, err)
	require.Len(t, fields, 1)
	assert.Equal(t, "Text", fields[0].FieldType)
	assert.Equal(t, 4, fields[0].OrderIndex)
}

func TestTransfer_ImportDuplicateProgramRows(t *testing.T) {
	svc, db := newStoreService(t)

	wb := buildWorkbook(t, map[string][][]interface{}{
		SheetPrograms: {
			{"name", "description"},
			{"Outreach", "first"},
			{"Outreach", "second"},
		},
	})

	resp, err := svc.Transfer.Import(context.Background(), wb)
	require.NoError(t, err)
	res := sheetResult(resp, SheetPrograms)
	assert.Equal(t, 1, res.Added)
	assert.Equal(t, 1, res.Updated)
	assert.EqualValues(t, 1, testutil.CountRows(t, db, "programs"))
}

func TestTransfer_ImportBadHeaderSkipsSheet(t *testing.T) {
	svc, db := newStoreService(t)

	wb := buildWorkbook(t, map[string][][]interface{}{
		SheetPillars: {
			{"title", "description"},
			{"Health", ""},
		},
	})

	resp, err := svc.Transfer.Import(context.Background(), wb)
	require.NoError(t, err)
	assert.EqualValues(t, 0, testutil.CountRows(t, db, "pillars"))

	var found bool
	for _, w := range resp.Warnings {
		if w.Sheet == SheetPillars && strings.Contains(w.Reason, "name") {
			found = true
		}
	}
	assert.True(t, found, "应记录缺少 name 列的告警: %+v", resp.Warnings)
}

func TestTransfer_ImportTooManyRows(t *testing.T) {
	svc, db := newStoreService(t)

	rows := [][]interface{}{{"name"}}
	for i := 0; i < 101; i++ {
		rows = append(rows, []interface{}{"P" + strings.Repeat("x", i)})
	}
	wb := buildWorkbook(t, map[string][][]interface{}{SheetPrograms: rows})

	_, err := svc.Transfer.Import(context.Background(), wb)
	require.ErrorIs(t, err, ErrImportTooManyRows)
	assert.EqualValues(t, 0, testutil.CountRows(t, db, "programs"))
}

func TestTransfer_ExportImportRoundTrip(t *testing.T) {
	src, _ := newStoreService(t)
	ctx := context.Background()
	activityID, _ := seedHealth(t, src)

	_, err := src.Program.Create(ctx, &dto.CreateProgramRequest{Name: "Outreach", Description: "社区外展"})
	require.NoError(t, err)
	_, err = src.Detail.CreateField(ctx, activityID, &dto.CreateFieldRequest{Name: "Notes", FieldType: "Text", OrderIndex: 2})
	require.NoError(t, err)
	pillars, _ := src.Pillar.List(ctx)
	desc := "健康支柱"
	_, err = src.Pillar.Update(ctx, pillars[0].ID, &dto.UpdatePillarRequest{Description: &desc})
	require.NoError(t, err)

	buf, err := src.Transfer.Export(ctx)
	require.NoError(t, err)

	dst, _ := newStoreService(t)
	resp, err := dst.Transfer.Import(ctx, bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	for _, w := range resp.Warnings {
		t.Errorf("往返导入不应产生告警: %+v", w)
	}

	programs, _ := dst.Program.List(ctx)
	require.Len(t, programs, 1)
	assert.Equal(t, "社区外展", programs[0].Description)

	gotPillars, _ := dst.Pillar.List(ctx)
	require.Len(t, gotPillars, 1)
	assert.Equal(t, "健康支柱", gotPillars[0].Description)

	indicators, _ := dst.Indicator.List(ctx, &dto.IndicatorListRequest{})
	require.Len(t, indicators, 1)
	assert.Equal(t, "Checkups", indicators[0].Name)
	assert.EqualValues(t, 100, indicators[0].Goal)

	activities, _ := dst.Activity.List(ctx, &dto.ActivityListRequest{})
	require.Len(t, activities, 1)
	assert.Equal(t, "Clinic Visit", activities[0].Name)

	fields, _ := dst.Detail.ListFields(ctx, activities[0].ID)
	require.Len(t, fields, 2)
	assert.Equal(t, "Visits", fields[0].Name)
	assert.Equal(t, "Number", fields[0].FieldType)
	assert.Equal(t, "Notes", fields[1].Name)
}

func TestTransfer_RoundTripKeepsDuplicateFieldNames(t *testing.T) {
	src, _ := newStoreService(t)
	ctx := context.Background()
	activityID, _ := seedHealth(t, src)

	_, err := src.Detail.CreateField(ctx, activityID, &dto.CreateFieldRequest{Name: "Visits", FieldType: "Text", OrderIndex: 5})
	require.NoError(t, err)

	buf, err := src.Transfer.Export(ctx)
	require.NoError(t, err)

	dst, db := newStoreService(t)
	resp, err := dst.Transfer.Import(ctx, bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Empty(t, resp.Warnings)
	assert.Equal(t, dto.SheetResult{Sheet: SheetDetailFields, Added: 2}, sheetResult(resp, SheetDetailFields))
	assert.EqualValues(t, 2, testutil.CountRows(t, db, "detail_fields"))

	activities, _ := dst.Activity.List(ctx, &dto.ActivityListRequest{})
	require.Len(t, activities, 1)
	fields, _ := dst.Detail.ListFields(ctx, activities[0].ID)
	require.Len(t, fields, 2)
	assert.Equal(t, "Visits", fields[0].Name)
	assert.Equal(t, "Number", fields[0].FieldType)
	assert.Equal(t, "Visits", fields[1].Name)
	assert.Equal(t, "Text", fields[1].FieldType)
	assert.Equal(t, 5, fields[1].OrderIndex)

	// 再次导入同一工作簿：两个同名字段各自更新，不新增
	resp, err = dst.Transfer.Import(ctx, bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, dto.SheetResult{Sheet: SheetDetailFields, Updated: 2}, sheetResult(resp, SheetDetailFields))
	assert.EqualValues(t, 2, testutil.CountRows(t, db, "detail_fields"))

	fields, _ = dst.Detail.ListFields(ctx, activities[0].ID)
	require.Len(t, fields, 2)
	assert.Equal(t, "Number", fields[0].FieldType)
	assert.Equal(t, "Text", fields[1].FieldType)
}

func TestTransfer_Template(t *testing.T) {
	svc, _ := newStoreService(t)

	buf, err := svc.Transfer.Template()
	require.NoError(t, err)

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetPrograms, SheetPillars, SheetIndicators, SheetActivities, SheetDetailFields}, f.GetSheetList())
	rows, err := f.GetRows(SheetDetailFields)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "field_type", rows[0][4])
}

func TestTransfer_ImportSkipsOutOfRangeGoal(t *testing.T) {
	svc, db := newStoreService(t)

	wb := buildWorkbook(t, map[string][][]interface{}{
		SheetPillars: {
			{"name"},
			{"Health"},
		},
		SheetIndicators: {
			{"pillar_name", "name", "goal"},
			{"Health", "Huge", "1e30"},
			{"Health", "Checkups", 4},
		},
	})

	resp, err := svc.Transfer.Import(context.Background(), wb)
	require.NoError(t, err)

	assert.Equal(t, dto.SheetResult{Sheet: SheetIndicators, Added: 1, Skipped: 1}, sheetResult(resp, SheetIndicators))
	assert.EqualValues(t, 1, testutil.CountRows(t, db, "indicators"))
	var rowWarns []dto.ImportWarning
	for _, w := range resp.Warnings {
		if w.Sheet == SheetIndicators {
			rowWarns = append(rowWarns, w)
		}
	}
	require.Len(t, rowWarns, 1)
	assert.Equal(t, 2, rowWarns[0].Row)
	assert.Contains(t, rowWarns[0].Reason, "goal")
}

func TestParseInt(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"12", 12, false},
		{" 12.0 ", 12, false},
		{"-3", -3, false},
		{"1.5", 0, true},
		{"abc", 0, true},
		{"NaN", 0, true},
		{"Inf", 0, true},
		{"1e30", 0, true},
		{"-1e30", 0, true},
		{"9223372036854775808", 0, true},
	}
	for _, tt := range tests {
		got, err := parseInt(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseHeaderIndex(t *testing.T) {
	idx := parseHeaderIndex([]string{" Pillar Name ", "NAME", "goal", "name"}, []string{"pillar_name", "name", "goal", "statuses"})
	assert.Equal(t, 0, idx["pillar_name"])
	assert.Equal(t, 1, idx["name"], "重复列取第一列")
	assert.Equal(t, 2, idx["goal"])
	assert.Equal(t, -1, idx["statuses"])
}
