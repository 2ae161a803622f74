package repository

import (
	"context"
	"errors"

	"github.com/TriB-P/mediabox-sub008/internal/breakdown/domain"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// BreakdownRepository stores the breakdown definitions of a campaign.
type BreakdownRepository interface {
	// ListByCampaign returns the breakdowns of a campaign, default first, then
	// by name. An unknown campaign yields an empty list.
	ListByCampaign(ctx context.Context, campaignID string) ([]domain.Breakdown, error)

	// FindByID returns ErrNotFound when no breakdown has the given ID.
	FindByID(ctx context.Context, id string) (*domain.Breakdown, error)

	// ReplaceForCampaign makes breakdowns the complete list of the campaign:
	// new ones are inserted, known ones updated, the rest deleted.
	ReplaceForCampaign(ctx context.Context, campaignID string, breakdowns []domain.Breakdown) error
}

// TacticDocument is what the tactic keeps about its breakdowns: its own dates
// and the nested per-period values.
type TacticDocument struct {
	Tactic     domain.Tactic     `json:"tactic" yaml:"tactic"`
	Breakdowns domain.Breakdowns `json:"breakdowns" yaml:"breakdowns"`
}

// TacticStore loads and saves tactic documents.
type TacticStore interface {
	// Load returns ErrNotFound when the tactic has never been saved.
	Load(ctx context.Context, campaignID, tacticID string) (*TacticDocument, error)
	Save(ctx context.Context, doc *TacticDocument) error
}
