package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/TriB-P/mediabox-sub008/internal/audit"
	"github.com/TriB-P/mediabox-sub008/internal/breakdown/domain"
	"github.com/TriB-P/mediabox-sub008/internal/breakdown/repository"
)

// BreakdownService loads breakdown definitions and tactic documents, hands out
// editors over them and writes the results back.
type BreakdownService struct {
	breakdowns repository.BreakdownRepository
	tactics    repository.TacticStore
	logger     *zap.Logger
	translator domain.Translator
	debounce   time.Duration
}

// ServiceOption configures a BreakdownService.
type ServiceOption func(*BreakdownService)

func WithServiceLogger(logger *zap.Logger) ServiceOption {
	return func(s *BreakdownService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithTranslator sets where month names are resolved from.
func WithTranslator(t domain.Translator) ServiceOption {
	return func(s *BreakdownService) { s.translator = t }
}

// WithDebounce sets the auto-commit window of editors opened with OpenEditor.
func WithDebounce(window time.Duration) ServiceOption {
	return func(s *BreakdownService) { s.debounce = window }
}

func NewBreakdownService(breakdowns repository.BreakdownRepository, tactics repository.TacticStore, opts ...ServiceOption) *BreakdownService {
	s := &BreakdownService{
		breakdowns: breakdowns,
		tactics:    tactics,
		logger:     zap.NewNop(),
		debounce:   DefaultDebounceWindow,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SaveBreakdowns replaces the breakdown list of a campaign.
//
// Audit info is carried over from the stored copy of each breakdown and
// touched by user; breakdowns seen for the first time are stamped as created
// by user.
//
// Example:
//
//	err := svc.SaveBreakdowns(ctx, "camp-7", []domain.Breakdown{
//	    {ID: "bd-cal", Name: "Calendrier", Type: domain.WeeklyBreakdown, IsDefault: true},
//	}, "jdoe")
func (s *BreakdownService) SaveBreakdowns(ctx context.Context, campaignID string, breakdowns []domain.Breakdown, user string) error {
	if err := checkSingleDefault(breakdowns); err != nil {
		return fmt.Errorf("campaign %s: %w", campaignID, err)
	}

	existing, err := s.breakdowns.ListByCampaign(ctx, campaignID)
	if err != nil {
		return fmt.Errorf("failed to load breakdowns of campaign %s: %w", campaignID, err)
	}

	stamped := make([]domain.Breakdown, len(breakdowns))
	for i, b := range breakdowns {
		if prev := domain.FindBreakdown(existing, b.ID); prev != nil && prev.AuditInfo != nil {
			info := *prev.AuditInfo
			info.Touch(user)
			b.AuditInfo = &info
		} else {
			b.AuditInfo = audit.NewAuditInfo(user)
		}
		stamped[i] = b
	}

	if err := s.breakdowns.ReplaceForCampaign(ctx, campaignID, stamped); err != nil {
		return fmt.Errorf("failed to save breakdowns of campaign %s: %w", campaignID, err)
	}

	s.logger.Info("saved breakdowns",
		zap.String("campaignID", campaignID),
		zap.Int("count", len(stamped)),
	)
	return nil
}

func checkSingleDefault(breakdowns []domain.Breakdown) error {
	n := 0
	for _, b := range breakdowns {
		if b.IsDefault {
			n++
		}
	}
	if n > 1 {
		return fmt.Errorf("%d breakdowns are flagged default, at most one is allowed", n)
	}
	return nil
}

// Session is an editor opened over a stored tactic document.
type Session struct {
	Editor *Editor

	mu  sync.Mutex
	doc *repository.TacticDocument
}

// Document returns the tactic document as last saved by the session.
func (s *Session) Document() repository.TacticDocument {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.doc
}

// OpenEditor loads a campaign's breakdowns and a tactic's document and returns
// an editor reconciled against them. Committed changes are saved back to the
// tactic store automatically, after the debounce window; call
// Session.Close to flush and stop.
func (s *BreakdownService) OpenEditor(ctx context.Context, campaignID, tacticID string) (*Session, error) {
	breakdowns, err := s.breakdowns.ListByCampaign(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to load breakdowns of campaign %s: %w", campaignID, err)
	}

	doc, err := s.tactics.Load(ctx, campaignID, tacticID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tactic %s: %w", tacticID, err)
	}

	session := &Session{doc: doc}
	logger := s.logger.With(zap.String("campaignID", campaignID), zap.String("tacticID", tacticID))

	onChange := func(ev domain.ChangeEvent) {
		session.mu.Lock()
		defer session.mu.Unlock()

		saved := *session.doc
		saved.Breakdowns = ev.Value
		// detached from ctx: the commit can outlive the request that opened the editor
		if err := s.tactics.Save(context.Background(), &saved); err != nil {
			logger.Error("failed to save tactic document", zap.Error(err))
			return
		}
		session.doc = &saved
		logger.Debug("saved tactic document")
	}

	editor := NewEditor(doc.Breakdowns,
		WithLogger(logger),
		WithLabeler(domain.NewLabeler(s.translator)),
		WithAutoCommit(s.debounce, onChange),
	)
	editor.SetBreakdowns(breakdowns)
	editor.SetTacticDates(doc.Tactic.StartDate, doc.Tactic.EndDate)

	session.Editor = editor
	return session, nil
}

// Close flushes a pending commit and stops the editor.
func (s *Session) Close() {
	s.Editor.Flush()
	s.Editor.Close()
}

// SyncRequest asks for a tactic document to be brought in line with the
// current breakdowns. StartDate and EndDate, when both set, move the tactic.
type SyncRequest struct {
	CampaignID string
	TacticID   string
	StartDate  string
	EndDate    string
}

// SyncResult reports what Sync wrote.
type SyncResult struct {
	Changed    bool
	Breakdowns domain.Breakdowns
}

// Sync regenerates a tactic's periods, reconciles the stored values onto them
// and saves the document when the serialized record changed.
//
// A tactic that was never saved is an error wrapping repository.ErrNotFound.
func (s *BreakdownService) Sync(ctx context.Context, req SyncRequest) (*SyncResult, error) {
	breakdowns, err := s.breakdowns.ListByCampaign(ctx, req.CampaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to load breakdowns of campaign %s: %w", req.CampaignID, err)
	}

	doc, err := s.tactics.Load(ctx, req.CampaignID, req.TacticID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("tactic %s of campaign %s: %w", req.TacticID, req.CampaignID, err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load tactic %s: %w", req.TacticID, err)
	}

	editor := NewEditor(doc.Breakdowns,
		WithLogger(s.logger),
		WithLabeler(domain.NewLabeler(s.translator)),
	)
	editor.SetBreakdowns(breakdowns)
	editor.SetTacticDates(doc.Tactic.StartDate, doc.Tactic.EndDate)

	if req.StartDate != "" && req.EndDate != "" {
		editor.SetTacticDates(req.StartDate, req.EndDate)
		doc.Tactic.StartDate, doc.Tactic.EndDate = req.StartDate, req.EndDate
	}

	ev, changed := editor.Commit()
	if !changed {
		return &SyncResult{Breakdowns: doc.Breakdowns}, nil
	}

	doc.Breakdowns = ev.Value
	if err := s.tactics.Save(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to save tactic %s: %w", req.TacticID, err)
	}

	s.logger.Info("synced tactic breakdowns",
		zap.String("campaignID", req.CampaignID),
		zap.String("tacticID", req.TacticID),
		zap.Int("breakdowns", len(ev.Value)),
	)
	return &SyncResult{Changed: true, Breakdowns: ev.Value}, nil
}
