package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/zahias/pillars/internal/dto"
)

// seedReport 两条记录：一条带项目与状态，一条不带
func seedReport(t *testing.T, svc *Service) (activityID int64) {
	t.Helper()
	ctx := context.Background()
	activityID, visits := seedHealth(t, svc)

	notes, err := svc.Detail.CreateField(ctx, activityID, &dto.CreateFieldRequest{Name: "Notes", FieldType: "Text", OrderIndex: 1})
	require.NoError(t, err)
	program, err := svc.Program.Create(ctx, &dto.CreateProgramRequest{Name: "Outreach"})
	require.NoError(t, err)

	status := "done"
	_, err = svc.Detail.SubmitEntry(ctx, activityID, &dto.SubmitEntryRequest{
		ProgramID: &program.ID,
		Status:    &status,
		Values: []dto.FieldValueInput{
			{FieldID: visits, Value: 5.0},
			{FieldID: notes.ID, Value: "morning"},
		},
	})
	require.NoError(t, err)
	_, err = svc.Detail.SubmitEntry(ctx, activityID, &dto.SubmitEntryRequest{
		Values: []dto.FieldValueInput{{FieldID: visits, Value: 3.0}},
	})
	require.NoError(t, err)
	return activityID
}

func TestReport_EntryTablePivot(t *testing.T) {
	svc, _ := newStoreService(t)
	seedReport(t, svc)

	table, err := svc.Report.EntryTable(context.Background(), &dto.EntryReportRequest{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, table.Total)
	assert.Equal(t, append(append([]string{}, entryBaseColumns...), "Visits", "Notes"), table.Columns)
	require.Len(t, table.Rows, 2)

	// 新记录在前
	assert.Equal(t, 3.0, table.Rows[0]["Visits"])
	_, hasNotes := table.Rows[0]["Notes"]
	assert.False(t, hasNotes)
	assert.Equal(t, 5.0, table.Rows[1]["Visits"])
	assert.Equal(t, "morning", table.Rows[1]["Notes"])
	assert.Equal(t, "Outreach", table.Rows[1]["program"])
	assert.Equal(t, "done", table.Rows[1]["status"])
}

func TestReport_FieldNamedLikeFixedColumn(t *testing.T) {
	svc, _ := newStoreService(t)
	ctx := context.Background()
	activityID, visits := seedHealth(t, svc)

	statusField, err := svc.Detail.CreateField(ctx, activityID, &dto.CreateFieldRequest{Name: "status", FieldType: "Text", OrderIndex: 1})
	require.NoError(t, err)
	_, err = svc.Detail.SubmitEntry(ctx, activityID, &dto.SubmitEntryRequest{
		Values: []dto.FieldValueInput{
			{FieldID: visits, Value: 2.0},
			{FieldID: statusField.ID, Value: "referred"},
		},
	})
	require.NoError(t, err)

	table, err := svc.Report.EntryTable(ctx, &dto.EntryReportRequest{})
	require.NoError(t, err)
	assert.Equal(t, append(append([]string{}, entryBaseColumns...), "Visits", "status (field)"), table.Columns)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "", table.Rows[0]["status"])
	assert.Equal(t, "referred", table.Rows[0]["status (field)"])

	file, err := svc.Report.Export(ctx, &dto.ReportExportRequest{Format: FormatCSV})
	require.NoError(t, err)
	records, err := csv.NewReader(bytes.NewReader(file.Data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "status (field)", records[0][len(entryBaseColumns)+1])
	assert.Equal(t, "referred", records[1][len(entryBaseColumns)+1])
}

func TestReport_InvalidDateRange(t *testing.T) {
	svc, _ := newStoreService(t)

	_, err := svc.Report.Progress(context.Background(), &dto.ReportFilterRequest{From: "2024-05-01", To: "2024-01-01"})
	assert.ErrorIs(t, err, ErrInvalidDateRange)
}

func TestReport_Progress(t *testing.T) {
	svc, _ := newStoreService(t)
	seedReport(t, svc)

	rows, err := svc.Report.Progress(context.Background(), &dto.ReportFilterRequest{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.EqualValues(t, 2, rows[0].Actual)
	assert.EqualValues(t, 100, rows[0].Goal)
	assert.InDelta(t, 2.0, rows[0].Percent, 1e-9)
}

func TestProgressPercent(t *testing.T) {
	assert.Equal(t, 0.0, ProgressPercent(5, 0))
	assert.Equal(t, 50.0, ProgressPercent(5, 10))
	assert.Equal(t, 100.0, ProgressPercent(15, 10))
	assert.Equal(t, 33.33, ProgressPercent(1, 3))
}

func TestReport_Charts(t *testing.T) {
	svc, _ := newStoreService(t)
	activityID := seedReport(t, svc)
	ctx := context.Background()

	dist, err := svc.Report.Distribution(ctx, &dto.ReportFilterRequest{})
	require.NoError(t, err)
	assert.Equal(t, []dto.CountPoint{{Label: "", Count: 1}, {Label: "Outreach", Count: 1}}, dist)

	trend, err := svc.Report.Trend(ctx, &dto.ReportFilterRequest{})
	require.NoError(t, err)
	require.Len(t, trend, 1)
	assert.Equal(t, "Checkups", trend[0].Name)
	assert.Equal(t, []dto.CountPoint{{Label: time.Now().UTC().Format("2006-01"), Count: 2}}, trend[0].Points)

	status, err := svc.Report.StatusBreakdown(ctx, &dto.ReportFilterRequest{})
	require.NoError(t, err)
	require.Len(t, status, 1)
	assert.Len(t, status[0].Points, 2)

	totals, err := svc.Report.FieldTotals(ctx, activityID, &dto.ReportFilterRequest{})
	require.NoError(t, err)
	require.Len(t, totals, 1)
	assert.EqualValues(t, 2, totals[0].Count)
	assert.InDelta(t, 8.0, totals[0].Sum, 1e-9)
	assert.InDelta(t, 4.0, totals[0].Avg, 1e-9)

	_, err = svc.Report.FieldTotals(ctx, 999, &dto.ReportFilterRequest{})
	assert.ErrorIs(t, err, ErrActivityNotFound)
}

func TestReport_ExportCSV(t *testing.T) {
	svc, _ := newStoreService(t)
	seedReport(t, svc)

	file, err := svc.Report.Export(context.Background(), &dto.ReportExportRequest{Format: FormatCSV})
	require.NoError(t, err)
	assert.Contains(t, file.Filename, ".csv")

	records, err := csv.NewReader(bytes.NewReader(file.Data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "Visits", records[0][len(entryBaseColumns)])
	assert.Equal(t, "3", records[1][len(entryBaseColumns)])
	assert.Equal(t, "", records[1][len(entryBaseColumns)+1])
}

func TestReport_ExportXLSX(t *testing.T) {
	svc, _ := newStoreService(t)
	seedReport(t, svc)

	file, err := svc.Report.Export(context.Background(), &dto.ReportExportRequest{Format: FormatXLSX})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(file.Data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Entries")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "pillar", rows[0][3])
	assert.Equal(t, "Health", rows[1][3])
}

func TestReport_ExportInvalidFormat(t *testing.T) {
	svc, _ := newStoreService(t)

	_, err := svc.Report.Export(context.Background(), &dto.ReportExportRequest{Format: "pdf"})
	assert.ErrorIs(t, err, ErrInvalidFormat)
}
