package repository

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TriB-P/mediabox-sub008/internal/audit"
	"github.com/TriB-P/mediabox-sub008/internal/breakdown/domain"
)

// stubRow feeds fixed column values to scanBreakdown.
type stubRow struct {
	values []any
	err    error
}

func (r stubRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *string:
			*p = r.values[i].(string)
		case *bool:
			*p = r.values[i].(bool)
		case *[]byte:
			*p = r.values[i].([]byte)
		case *time.Time:
			*p = r.values[i].(time.Time)
		case *sql.NullTime:
			*p = r.values[i].(sql.NullTime)
		case *sql.NullString:
			*p = r.values[i].(sql.NullString)
		case *pq.NullTime:
			*p = r.values[i].(pq.NullTime)
		}
	}
	return nil
}

func TestScanBreakdown(t *testing.T) {
	created := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	row := stubRow{values: []any{
		"bd-c", "Phases", "Custom",
		sql.NullTime{}, sql.NullTime{},
		false,
		[]byte(`[{"id":"cp1","name":"Teasing","order":0,"date":"2024-02-01"}]`),
		"planner", created,
		sql.NullString{}, pq.NullTime{},
	}}

	b, err := scanBreakdown(row)
	require.NoError(t, err)

	want := &domain.Breakdown{
		ID:            "bd-c",
		Name:          "Phases",
		Type:          domain.CustomBreakdown,
		CustomPeriods: []domain.CustomPeriod{{ID: "cp1", Name: "Teasing", Order: 0, Date: "2024-02-01"}},
		AuditInfo:     &audit.AuditInfo{CreatedBy: "planner", CreatedAt: created},
	}
	if diff := cmp.Diff(want, b); diff != "" {
		t.Errorf("scanBreakdown mismatch (-want +got):\n%s", diff)
	}
}

func TestScanBreakdownDates(t *testing.T) {
	row := stubRow{values: []any{
		"bd-w", "Hebdo", "Hebdomadaire",
		sql.NullTime{Time: time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), Valid: true},
		sql.NullTime{Time: time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), Valid: true},
		true,
		[]byte(`[]`),
		"system", time.Now().UTC(),
		sql.NullString{String: "editor", Valid: true},
		pq.NullTime{Time: time.Now().UTC(), Valid: true},
	}}

	b, err := scanBreakdown(row)
	require.NoError(t, err)

	assert.Equal(t, "2024-03-04", b.StartDate)
	assert.Equal(t, "2024-03-31", b.EndDate)
	assert.True(t, b.IsDefault)
	assert.Nil(t, b.CustomPeriods)
	assert.Equal(t, "editor", b.AuditInfo.UpdatedBy)
}

func TestScanBreakdownNoRows(t *testing.T) {
	_, err := scanBreakdown(stubRow{err: sql.ErrNoRows})

	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestBreakdownArgs(t *testing.T) {
	b := domain.Breakdown{ID: "bd-m", Name: "Mensuel", Type: domain.MonthlyBreakdown, StartDate: "2024-01-15"}

	args, err := breakdownArgs("camp-7", b)
	require.NoError(t, err)
	require.Len(t, args, 12)

	assert.Equal(t, "camp-7", args[1])
	assert.Equal(t, "Mensuel", args[3])
	assert.Equal(t, sql.NullTime{Time: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), Valid: true}, args[4])
	assert.Equal(t, sql.NullTime{}, args[5])
	assert.Equal(t, []byte(`[]`), args[7])
	assert.Equal(t, "system", args[8])
	assert.Equal(t, sql.NullString{}, args[10])
}
