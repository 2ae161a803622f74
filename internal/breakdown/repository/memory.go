package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/TriB-P/mediabox-sub008/internal/breakdown/domain"
)

// MemoryBreakdownRepository is a BreakdownRepository held in memory. Used by
// tests and by offline CLI runs.
type MemoryBreakdownRepository struct {
	mu         sync.RWMutex
	byCampaign map[string][]domain.Breakdown
}

func NewMemoryBreakdownRepository() *MemoryBreakdownRepository {
	return &MemoryBreakdownRepository{byCampaign: make(map[string][]domain.Breakdown)}
}

func (m *MemoryBreakdownRepository) ListByCampaign(_ context.Context, campaignID string) ([]domain.Breakdown, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := copyBreakdowns(m.byCampaign[campaignID])
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].IsDefault != out[j].IsDefault {
			return out[i].IsDefault
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *MemoryBreakdownRepository) FindByID(_ context.Context, id string) (*domain.Breakdown, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, list := range m.byCampaign {
		for _, b := range list {
			if b.ID == id {
				found := copyBreakdowns([]domain.Breakdown{b})[0]
				return &found, nil
			}
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryBreakdownRepository) ReplaceForCampaign(_ context.Context, campaignID string, breakdowns []domain.Breakdown) error {
	for i := range breakdowns {
		if err := breakdowns[i].Validate(); err != nil {
			return fmt.Errorf("breakdown validation failed: %w", err)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.byCampaign[campaignID] = copyBreakdowns(breakdowns)
	return nil
}

func copyBreakdowns(in []domain.Breakdown) []domain.Breakdown {
	out := make([]domain.Breakdown, len(in))
	for i, b := range in {
		out[i] = b
		if b.CustomPeriods != nil {
			out[i].CustomPeriods = append([]domain.CustomPeriod(nil), b.CustomPeriods...)
		}
		if b.AuditInfo != nil {
			info := *b.AuditInfo
			out[i].AuditInfo = &info
		}
	}
	return out
}

// MemoryTacticStore is a TacticStore held in memory. Documents are stored as
// JSON so callers never share maps with the store.
type MemoryTacticStore struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

func NewMemoryTacticStore() *MemoryTacticStore {
	return &MemoryTacticStore{docs: make(map[string][]byte)}
}

func (m *MemoryTacticStore) Load(_ context.Context, campaignID, tacticID string) (*TacticDocument, error) {
	m.mu.RLock()
	raw, ok := m.docs[memoryKey(campaignID, tacticID)]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}

	var doc TacticDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode tactic document: %w", err)
	}
	return &doc, nil
}

func (m *MemoryTacticStore) Save(_ context.Context, doc *TacticDocument) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode tactic document: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[memoryKey(doc.Tactic.CampaignID, doc.Tactic.ID)] = raw
	return nil
}

func memoryKey(campaignID, tacticID string) string {
	return campaignID + "/" + tacticID
}
