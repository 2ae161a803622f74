package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TriB-P/mediabox-sub008/internal/breakdown/domain"
)

func TestMemoryBreakdownRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryBreakdownRepository()

	bs := []domain.Breakdown{
		{ID: "bd-m", Name: "Mensuel", Type: domain.MonthlyBreakdown, StartDate: "2024-01-01", EndDate: "2024-06-30"},
		{ID: "bd-cal", Name: "Calendrier", Type: domain.WeeklyBreakdown, IsDefault: true},
	}
	require.NoError(t, repo.ReplaceForCampaign(ctx, "camp-7", bs))

	list, err := repo.ListByCampaign(ctx, "camp-7")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "bd-cal", list[0].ID, "default breakdown comes first")

	list[0].Name = "mutated"
	found, err := repo.FindByID(ctx, "bd-cal")
	require.NoError(t, err)
	assert.Equal(t, "Calendrier", found.Name)

	_, err = repo.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	empty, err := repo.ListByCampaign(ctx, "other")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMemoryBreakdownRepositoryRejectsInvalid(t *testing.T) {
	repo := NewMemoryBreakdownRepository()

	err := repo.ReplaceForCampaign(context.Background(), "camp-7", []domain.Breakdown{
		{ID: "bd-c", Name: "Phases", Type: domain.CustomBreakdown},
	})

	assert.Error(t, err)
}

func TestMemoryTacticStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryTacticStore()

	_, err := store.Load(ctx, "camp-7", "tac-42")
	assert.ErrorIs(t, err, ErrNotFound)

	doc := sampleDocument()
	require.NoError(t, store.Save(ctx, doc))

	loaded, err := store.Load(ctx, "camp-7", "tac-42")
	require.NoError(t, err)
	assert.True(t, doc.Breakdowns.Equal(loaded.Breakdowns))

	loaded.Breakdowns["bd-cal"].Periods["p1"] = domain.PeriodEntry{Value: "changed"}
	again, err := store.Load(ctx, "camp-7", "tac-42")
	require.NoError(t, err)
	assert.Equal(t, "01 janv", again.Breakdowns["bd-cal"].Periods["p1"].Value)
}
