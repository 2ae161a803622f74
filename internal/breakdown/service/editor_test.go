package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TriB-P/mediabox-sub008/internal/breakdown/domain"
)

func calendarBreakdown() domain.Breakdown {
	return domain.Breakdown{ID: "bd-cal", Name: "Calendrier", Type: domain.WeeklyBreakdown, IsDefault: true}
}

func pebsBreakdown() domain.Breakdown {
	return domain.Breakdown{ID: "bd-peb", Name: "PEBs", Type: domain.PEBsBreakdown, StartDate: "2024-01-01", EndDate: "2024-01-31"}
}

func newTestEditor(persisted domain.Breakdowns, opts ...EditorOption) *Editor {
	opts = append([]EditorOption{WithGenerateOptions(domain.WithIDSource(seqIDs("p")))}, opts...)
	return NewEditor(persisted, opts...)
}

func periodAt(t *testing.T, e *Editor, breakdownID, start string) domain.GeneratedPeriod {
	t.Helper()
	for _, p := range e.Periods() {
		if p.BreakdownID == breakdownID && domain.FormatISODate(p.StartDate) == start {
			return p
		}
	}
	t.Fatalf("no period of %s starting %s", breakdownID, start)
	return domain.GeneratedPeriod{}
}

func TestEditorSeedsDefaultBoundariesOnOpen(t *testing.T) {
	e := newTestEditor(nil)
	e.SetBreakdowns([]domain.Breakdown{calendarBreakdown()})
	e.SetTacticDates("2024-01-01", "2024-01-31")

	periods := e.Periods()
	require.Len(t, periods, 5)
	state := e.State()
	assert.Equal(t, "01 janv", state[periods[0].ID].Value)
	assert.Equal(t, "", state[periods[2].ID].Value)
	assert.Equal(t, "31 janv", state[periods[4].ID].Value)
}

func TestEditorKeepsStoredBoundaryValuesOnOpen(t *testing.T) {
	on := true
	persisted := domain.Breakdowns{
		"bd-cal": {Name: "Calendrier", Type: domain.WeeklyBreakdown, Periods: map[string]domain.PeriodEntry{
			"old-1": {Value: "kick-off", IsToggled: &on, Date: "2024-01-01"},
		}},
	}

	e := newTestEditor(persisted)
	e.SetBreakdowns([]domain.Breakdown{calendarBreakdown()})
	e.SetTacticDates("2024-01-01", "2024-01-31")

	first := periodAt(t, e, "bd-cal", "2024-01-01")
	s, err := e.PeriodState(first.ID)
	require.NoError(t, err)
	assert.Equal(t, "kick-off", s.Value)
}

func datedCalendarBreakdown() domain.Breakdown {
	b := calendarBreakdown()
	b.StartDate, b.EndDate = "2024-01-01", "2024-01-14"
	return b
}

func TestEditorOpensDatedDefaultOverWiderStoredRange(t *testing.T) {
	on := true
	persisted := domain.Breakdowns{
		"bd-cal": {Name: "Calendrier", Type: domain.WeeklyBreakdown, Periods: map[string]domain.PeriodEntry{
			"old-jan": {Value: "jan-budget", IsToggled: &on, Date: "2024-01-08"},
			"old-feb": {Value: "feb-budget", IsToggled: &on, Date: "2024-02-05"},
		}},
	}

	e := newTestEditor(persisted)
	e.SetBreakdowns([]domain.Breakdown{datedCalendarBreakdown()})
	require.Len(t, e.Periods(), 2, "own dates until the tactic dates are known")
	e.SetTacticDates("2024-01-01", "2024-02-29")

	require.Len(t, e.Periods(), 9)
	values := make(map[string]string)
	for _, p := range e.Periods() {
		s, err := e.PeriodState(p.ID)
		require.NoError(t, err)
		values[domain.FormatISODate(p.StartDate)] = s.Value
	}
	assert.Equal(t, "01 janv", values["2024-01-01"])
	assert.Equal(t, "jan-budget", values["2024-01-08"])
	assert.Equal(t, "feb-budget", values["2024-02-05"])
	assert.Equal(t, "29 févr", values["2024-02-26"])

	ev, ok := e.Commit()
	require.True(t, ok)
	stored := make(map[string]string)
	for _, entry := range ev.Value["bd-cal"].Periods {
		stored[entry.Date] = entry.Value
	}
	assert.Equal(t, "feb-budget", stored["2024-02-05"])
}

func TestEditorHeldEditsSurviveRepeatedRegeneration(t *testing.T) {
	on := true
	persisted := domain.Breakdowns{
		"bd-cal": {Name: "Calendrier", Type: domain.WeeklyBreakdown, Periods: map[string]domain.PeriodEntry{
			"old-15": {Value: "stored", IsToggled: &on, Date: "2024-01-15"},
			"old-22": {Value: "cleared", IsToggled: &on, Date: "2024-01-22"},
			"old-29": {Value: "kept", IsToggled: &on, Date: "2024-01-29"},
		}},
	}

	e := newTestEditor(persisted)
	e.SetBreakdowns([]domain.Breakdown{calendarBreakdown()})
	e.SetTacticDates("2024-01-01", "2024-01-31")

	require.NoError(t, e.ApplyEdit(periodAt(t, e, "bd-cal", "2024-01-15").ID, domain.FieldValue, "x"))
	require.NoError(t, e.ApplyEdit(periodAt(t, e, "bd-cal", "2024-01-22").ID, domain.FieldValue, ""))

	e.SetTacticDates("2024-01-08", "2024-02-14")
	e.SetBreakdowns([]domain.Breakdown{calendarBreakdown(), pebsBreakdown()})

	valueAt := func(start string) string {
		s, err := e.PeriodState(periodAt(t, e, "bd-cal", start).ID)
		require.NoError(t, err)
		return s.Value
	}
	assert.Equal(t, "x", valueAt("2024-01-15"))
	assert.Equal(t, "", valueAt("2024-01-22"), "a cleared value does not come back")
	assert.Equal(t, "kept", valueAt("2024-01-29"))
	assert.Equal(t, "08 janv", valueAt("2024-01-08"))
}

func TestEditorMovingDatesReseedsAndKeepsEdits(t *testing.T) {
	e := newTestEditor(nil)
	e.SetBreakdowns([]domain.Breakdown{calendarBreakdown()})
	e.SetTacticDates("2024-01-01", "2024-01-31")

	mid := periodAt(t, e, "bd-cal", "2024-01-15")
	require.NoError(t, e.ApplyEdit(mid.ID, domain.FieldValue, "x"))

	e.SetTacticDates("2024-01-08", "2024-02-14")

	periods := e.Periods()
	require.Len(t, periods, 6)
	state := e.State()
	assert.Equal(t, "08 janv", state[periods[0].ID].Value)
	assert.Equal(t, "14 févr", state[periods[5].ID].Value)

	moved := periodAt(t, e, "bd-cal", "2024-01-15")
	assert.NotEqual(t, mid.ID, moved.ID)
	assert.Equal(t, "x", state[moved.ID].Value, "uncommitted edit follows its date")
}

func TestEditorSameDatesIsNoop(t *testing.T) {
	e := newTestEditor(nil)
	e.SetBreakdowns([]domain.Breakdown{calendarBreakdown()})
	e.SetTacticDates("2024-01-01", "2024-01-31")
	before := e.Periods()

	e.SetTacticDates("2024-01-01", "2024-01-31")
	e.SetBreakdowns([]domain.Breakdown{calendarBreakdown()})

	assert.Equal(t, domain.PeriodIDs(before), domain.PeriodIDs(e.Periods()))
}

func TestEditorApplyEditComputesPEBsTotal(t *testing.T) {
	e := newTestEditor(nil)
	e.SetBreakdowns([]domain.Breakdown{pebsBreakdown()})
	e.SetTacticDates("2024-01-01", "2024-01-31")

	p := periodAt(t, e, "bd-peb", "2024-01-08")
	require.NoError(t, e.ApplyEdit(p.ID, domain.FieldUnitCost, "10"))
	require.NoError(t, e.ApplyEdit(p.ID, domain.FieldValue, "5"))

	s, err := e.PeriodState(p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PeriodState{Value: "5", IsToggled: true, UnitCost: "10", Total: "50"}, s)
}

func TestEditorUnknownPeriod(t *testing.T) {
	e := newTestEditor(nil)
	e.SetBreakdowns([]domain.Breakdown{pebsBreakdown()})

	assert.ErrorIs(t, e.ApplyEdit("nope", domain.FieldValue, "1"), ErrUnknownPeriod)
	assert.ErrorIs(t, e.Toggle("nope"), ErrUnknownPeriod)
	_, err := e.PeriodState("nope")
	assert.ErrorIs(t, err, ErrUnknownPeriod)
}

func TestEditorCommit(t *testing.T) {
	e := newTestEditor(nil)
	e.SetBreakdowns([]domain.Breakdown{calendarBreakdown(), pebsBreakdown()})
	e.SetTacticDates("2024-01-01", "2024-01-31")

	ev, ok := e.Commit()
	require.True(t, ok)
	assert.Equal(t, domain.ChangeEventName, ev.Name)
	assert.Len(t, ev.Value, 2)
	assert.Len(t, ev.Value["bd-cal"].Periods, 5)

	_, ok = e.Commit()
	assert.False(t, ok, "nothing changed since the last commit")

	first := periodAt(t, e, "bd-cal", "2024-01-01")
	require.NoError(t, e.Toggle(first.ID))

	ev, ok = e.Commit()
	require.True(t, ok)
	assert.False(t, ev.Value["bd-cal"].Periods[first.ID].Toggled())
}

func TestEditorCommitMatchingRecordEmitsNothing(t *testing.T) {
	bs := []domain.Breakdown{calendarBreakdown()}

	first := newTestEditor(nil)
	first.SetBreakdowns(bs)
	first.SetTacticDates("2024-01-01", "2024-01-31")
	stored := first.Snapshot()

	// same identifier sequence, so every period matches by identifier
	second := newTestEditor(stored)
	second.SetBreakdowns(bs)
	second.SetTacticDates("2024-01-01", "2024-01-31")

	_, ok := second.Commit()
	assert.False(t, ok)
}

func TestEditorSetPersistedReconciles(t *testing.T) {
	e := newTestEditor(nil)
	e.SetBreakdowns([]domain.Breakdown{pebsBreakdown()})
	e.SetTacticDates("2024-01-01", "2024-01-31")

	e.SetPersisted(domain.Breakdowns{
		"bd-peb": {Type: domain.PEBsBreakdown, Periods: map[string]domain.PeriodEntry{
			"stored": {Value: "3", UnitCost: "2", Total: "6", Date: "2024-01-15"},
		}},
	})

	p := periodAt(t, e, "bd-peb", "2024-01-15")
	s, err := e.PeriodState(p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PeriodState{Value: "3", IsToggled: true, UnitCost: "2", Total: "6"}, s)
}

func TestEditorDistribute(t *testing.T) {
	e := newTestEditor(nil)
	e.SetBreakdowns([]domain.Breakdown{calendarBreakdown(), pebsBreakdown()})
	e.SetTacticDates("2024-01-01", "2024-01-31")

	off := periodAt(t, e, "bd-cal", "2024-01-08")
	require.NoError(t, e.Toggle(off.ID))

	parts, err := e.Distribute("bd-peb", "100", "2024-01-01", "2024-01-31")
	require.NoError(t, err)
	require.Len(t, parts, 4)

	skipped := periodAt(t, e, "bd-peb", "2024-01-08")
	assert.NotContains(t, parts, skipped.ID)

	last := periodAt(t, e, "bd-peb", "2024-01-29")
	s, err := e.PeriodState(last.ID)
	require.NoError(t, err)
	assert.Equal(t, "25", s.Value)
	assert.Equal(t, "0", s.Total, "no unit cost yet")

	_, err = e.Distribute("missing", "100", "2024-01-01", "2024-01-31")
	assert.ErrorIs(t, err, ErrUnknownBreakdown)

	_, err = e.Distribute("bd-peb", "beaucoup", "2024-01-01", "2024-01-31")
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestEditorMigratesCustomByName(t *testing.T) {
	custom := domain.Breakdown{
		ID:   "bd-c",
		Name: "Phases",
		Type: domain.CustomBreakdown,
		CustomPeriods: []domain.CustomPeriod{
			{ID: "cp1", Name: "Teasing", Order: 0},
			{ID: "cp2", Name: "Lancement", Order: 1},
		},
	}
	persisted := domain.Breakdowns{
		"bd-c": {Name: "Phases", Type: domain.CustomBreakdown, Periods: map[string]domain.PeriodEntry{
			"old": {Value: "60%", Name: "Lancement", Order: 1},
		}},
	}

	e := newTestEditor(persisted)
	e.SetBreakdowns([]domain.Breakdown{custom})

	periods := e.Periods()
	require.Len(t, periods, 2)
	assert.Equal(t, "60%", e.State()[periods[1].ID].Value)
}

func TestEditorAutoCommit(t *testing.T) {
	events := make(chan domain.ChangeEvent, 4)
	e := newTestEditor(nil, WithAutoCommit(10*time.Millisecond, func(ev domain.ChangeEvent) {
		events <- ev
	}))
	defer e.Close()

	e.SetBreakdowns([]domain.Breakdown{pebsBreakdown()})
	e.SetTacticDates("2024-01-01", "2024-01-31")
	p := periodAt(t, e, "bd-peb", "2024-01-01")
	require.NoError(t, e.ApplyEdit(p.ID, domain.FieldValue, "7"))

	timeout := time.After(time.Second)
	for {
		select {
		case ev := <-events:
			// an earlier commit may fire between the setup calls
			if ev.Value["bd-peb"].Periods[p.ID].Value == "7" {
				return
			}
		case <-timeout:
			t.Fatal("auto commit with the edit never fired")
		}
	}
}

func TestEditorFlushCommitsImmediately(t *testing.T) {
	var got []domain.ChangeEvent
	e := newTestEditor(nil, WithAutoCommit(time.Hour, func(ev domain.ChangeEvent) {
		got = append(got, ev)
	}))

	e.SetBreakdowns([]domain.Breakdown{pebsBreakdown()})
	e.Flush()
	e.Close()

	require.Len(t, got, 1)
	assert.Contains(t, got[0].Value, "bd-peb")
}
