package service

import (
	"fmt"
	"reflect"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/TriB-P/mediabox-sub008/internal/breakdown/domain"
)

// Editor owns the live editing buffer of one tactic's breakdowns.
//
// Inputs (the breakdown list, the tactic dates, the persisted record) are set
// through the Set* methods; each change regenerates the periods and reconciles
// the buffer. Edits go through ApplyEdit, Toggle and Distribute. Nothing is
// emitted until Commit, which serializes the buffer and reports a ChangeEvent
// only when the record actually changed.
//
// An Editor is safe for concurrent use. With WithAutoCommit, edits schedule a
// debounced Commit whose event is passed to the callback.
type Editor struct {
	mu sync.Mutex

	logger     *zap.Logger
	labeler    domain.Labeler
	genOptions []domain.GenerateOption

	breakdowns  []domain.Breakdown
	tacticStart string
	tacticEnd   string
	datesSet    bool
	persisted   domain.Breakdowns

	periods []domain.GeneratedPeriod
	local   domain.LocalState

	// held are the periods whose buffer state differs from what reconciling
	// produced: edits and reseeded boundaries not committed yet.
	held map[string]struct{}

	auto *Debouncer
}

// EditorOption configures an Editor.
type EditorOption func(*Editor)

func WithLogger(logger *zap.Logger) EditorOption {
	return func(e *Editor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLabeler sets the month names used for labels and boundary seeding.
func WithLabeler(l domain.Labeler) EditorOption {
	return func(e *Editor) { e.labeler = l }
}

// WithGenerateOptions forwards options to period generation, e.g. a
// deterministic ID source in tests.
func WithGenerateOptions(opts ...domain.GenerateOption) EditorOption {
	return func(e *Editor) { e.genOptions = append(e.genOptions, opts...) }
}

// WithAutoCommit commits window after the last edit and hands a resulting
// event to onChange. Call Close to drop a commit still waiting.
func WithAutoCommit(window time.Duration, onChange func(domain.ChangeEvent)) EditorOption {
	return func(e *Editor) {
		e.auto = NewDebouncer(window, func() {
			if ev, ok := e.Commit(); ok && onChange != nil {
				onChange(ev)
			}
		})
	}
}

// NewEditor starts an editor from the record currently stored on the tactic.
func NewEditor(persisted domain.Breakdowns, opts ...EditorOption) *Editor {
	e := &Editor{
		logger:    zap.NewNop(),
		labeler:   domain.NewLabeler(nil),
		persisted: persisted,
		local:     make(domain.LocalState),
		held:      make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetBreakdowns replaces the breakdown list. An identical list is a no-op.
func (e *Editor) SetBreakdowns(breakdowns []domain.Breakdown) {
	e.mu.Lock()
	if e.breakdowns != nil && reflect.DeepEqual(e.breakdowns, breakdowns) {
		e.mu.Unlock()
		return
	}
	e.breakdowns = append([]domain.Breakdown{}, breakdowns...)
	e.regenerate()
	e.mu.Unlock()

	e.scheduleCommit()
}

// SetTacticDates moves the tactic range. The default breakdown follows it.
// From the second call on, a change also reseeds the first and last periods
// of the default breakdown with the new boundary labels; the first call only
// seeds periods that had nothing to reconcile with.
func (e *Editor) SetTacticDates(start, end string) {
	e.mu.Lock()

	if e.datesSet && e.tacticStart == start && e.tacticEnd == end {
		e.mu.Unlock()
		return
	}
	moved := e.datesSet
	e.tacticStart, e.tacticEnd = start, end
	e.datesSet = true
	e.regenerate()

	changed := false
	if moved {
		before := e.local
		e.local, changed = domain.ReseedDefaultBoundaries(e.breakdowns, e.periods, before, start, end, e.labeler)
		for id, s := range e.local {
			if prev, ok := before[id]; !ok || prev != s {
				e.held[id] = struct{}{}
			}
		}
	}
	e.mu.Unlock()

	if changed {
		e.logger.Debug("reseeded default breakdown boundaries",
			zap.String("tacticStart", start),
			zap.String("tacticEnd", end),
		)
	}
	e.scheduleCommit()
}

// SetPersisted replaces the stored record the buffer is reconciled against,
// e.g. after the tactic was reloaded.
func (e *Editor) SetPersisted(persisted domain.Breakdowns) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.persisted = persisted
	e.local = e.reconcileWith(persisted, e.periods)
	e.held = make(map[string]struct{})
}

// regenerate rebuilds the periods and reconciles the buffer. When the
// regenerated identifiers are the ones already in use, the buffer is kept as
// is. Held entries are carried over: each one shadows the stored entry of the
// same breakdown and date (or name), every other stored entry stays visible.
// Callers hold e.mu.
func (e *Editor) regenerate() {
	periods := domain.GenerateAll(e.breakdowns, e.tacticStart, e.tacticEnd, e.generateOptions()...)

	if len(e.periods) > 0 && domain.SameIDSet(domain.PeriodIDs(e.periods), domain.PeriodIDs(periods)) {
		e.periods = periods
		return
	}

	source := e.persisted
	if len(e.held) > 0 {
		live := domain.CreateBreakdownsObject(e.breakdowns, e.periods, e.local, e.tacticStart, e.tacticEnd)
		source = domain.MergeEntries(e.persisted, live, e.held)
	}

	e.local = e.reconcileWith(source, periods)
	e.held = e.carryHeld(periods)
	e.periods = periods

	e.logger.Debug("regenerated periods",
		zap.Int("breakdowns", len(e.breakdowns)),
		zap.Int("periods", len(periods)),
	)
}

func (e *Editor) reconcileWith(source domain.Breakdowns, periods []domain.GeneratedPeriod) domain.LocalState {
	return domain.Reconcile(domain.ReconcileInput{
		Breakdowns:  e.breakdowns,
		Periods:     periods,
		Persisted:   source,
		Pending:     e.local,
		TacticStart: e.tacticStart,
		TacticEnd:   e.tacticEnd,
		Labeler:     e.labeler,
	})
}

// carryHeld maps the held periods of the current generation onto next by
// breakdown and content key.
func (e *Editor) carryHeld(next []domain.GeneratedPeriod) map[string]struct{} {
	out := make(map[string]struct{})
	if len(e.held) == 0 {
		return out
	}

	keys := make(map[[2]string]struct{}, len(e.held))
	for _, p := range e.periods {
		if _, ok := e.held[p.ID]; ok {
			if k := e.heldKey(p); k[1] != "" {
				keys[k] = struct{}{}
			}
		}
	}
	for _, p := range next {
		if _, ok := keys[e.heldKey(p)]; ok {
			out[p.ID] = struct{}{}
		}
	}
	return out
}

func (e *Editor) heldKey(p domain.GeneratedPeriod) [2]string {
	var t domain.BreakdownType
	if b := domain.FindBreakdown(e.breakdowns, p.BreakdownID); b != nil {
		t = b.Type
	}
	return [2]string{p.BreakdownID, domain.ContentKey(t, p)}
}

func (e *Editor) generateOptions() []domain.GenerateOption {
	return append([]domain.GenerateOption{domain.WithLabeler(e.labeler)}, e.genOptions...)
}

// Periods returns a copy of the current generation.
func (e *Editor) Periods() []domain.GeneratedPeriod {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]domain.GeneratedPeriod(nil), e.periods...)
}

// State returns a copy of the live buffer.
func (e *Editor) State() domain.LocalState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.local.Clone()
}

// PeriodState returns the live state of one period.
func (e *Editor) PeriodState(periodID string) (domain.PeriodState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.local[periodID]
	if !ok {
		return domain.PeriodState{}, fmt.Errorf("period %s: %w", periodID, ErrUnknownPeriod)
	}
	return s, nil
}

// ApplyEdit sets one field of a period. Editing the value or unit cost of a
// PEBs period recomputes its total.
func (e *Editor) ApplyEdit(periodID string, field domain.Field, value string) error {
	e.mu.Lock()
	err := e.applyLocked(periodID, field, value)
	e.mu.Unlock()

	if err != nil {
		return err
	}
	e.scheduleCommit()
	return nil
}

// Toggle flips whether a period is active.
func (e *Editor) Toggle(periodID string) error {
	e.mu.Lock()
	s, ok := e.local[periodID]
	if !ok {
		e.mu.Unlock()
		return fmt.Errorf("period %s: %w", periodID, ErrUnknownPeriod)
	}
	s.IsToggled = !s.IsToggled
	e.local[periodID] = s
	e.held[periodID] = struct{}{}
	e.mu.Unlock()

	e.scheduleCommit()
	return nil
}

func (e *Editor) applyLocked(periodID string, field domain.Field, value string) error {
	p, ok := e.findPeriod(periodID)
	if !ok {
		return fmt.Errorf("period %s: %w", periodID, ErrUnknownPeriod)
	}

	var t domain.BreakdownType
	if b := domain.FindBreakdown(e.breakdowns, p.BreakdownID); b != nil {
		t = b.Type
	}

	s, ok := e.local[periodID]
	if !ok {
		s = domain.FreshState()
	}
	next, err := domain.ApplyFieldEdit(s, t, field, value)
	if err != nil {
		return fmt.Errorf("period %s: %w", periodID, err)
	}
	e.local[periodID] = next
	e.held[periodID] = struct{}{}
	return nil
}

func (e *Editor) findPeriod(periodID string) (domain.GeneratedPeriod, bool) {
	for _, p := range e.periods {
		if p.ID == periodID {
			return p, true
		}
	}
	return domain.GeneratedPeriod{}, false
}

// Distribute spreads total over the periods of a breakdown that overlap
// [start, end] and writes the parts as period values. It returns the parts
// keyed by period ID.
func (e *Editor) Distribute(breakdownID, total, start, end string) (map[string]string, error) {
	e.mu.Lock()

	b := domain.FindBreakdown(e.breakdowns, breakdownID)
	if b == nil {
		e.mu.Unlock()
		return nil, fmt.Errorf("breakdown %s: %w", breakdownID, ErrUnknownBreakdown)
	}

	targets := domain.DistributionTargets(domain.DistributionRequest{
		Breakdown:  *b,
		Breakdowns: e.breakdowns,
		Periods:    e.periods,
		State:      e.local,
		StartDate:  start,
		EndDate:    end,
	})
	parts, err := domain.DistributeAmount(total, targets)
	if err != nil {
		e.mu.Unlock()
		return nil, fmt.Errorf("breakdown %s: %w", breakdownID, err)
	}

	for _, p := range targets {
		if err := e.applyLocked(p.ID, domain.FieldValue, parts[p.ID]); err != nil {
			e.mu.Unlock()
			return nil, err
		}
	}
	e.mu.Unlock()

	e.logger.Debug("distributed amount",
		zap.String("breakdownID", breakdownID),
		zap.String("total", total),
		zap.Int("periods", len(targets)),
	)
	e.scheduleCommit()
	return parts, nil
}

// Snapshot serializes the live buffer without committing it.
func (e *Editor) Snapshot() domain.Breakdowns {
	e.mu.Lock()
	defer e.mu.Unlock()
	return domain.CreateBreakdownsObject(e.breakdowns, e.periods, e.local, e.tacticStart, e.tacticEnd)
}

// Commit serializes the buffer. When the result differs from the persisted
// record it becomes the new persisted record and is returned as an event;
// otherwise ok is false.
//
// Example:
//
//	if ev, ok := editor.Commit(); ok {
//	    form.SetValue(ev.Name, ev.Value) // "breakdowns"
//	}
func (e *Editor) Commit() (domain.ChangeEvent, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := domain.CreateBreakdownsObject(e.breakdowns, e.periods, e.local, e.tacticStart, e.tacticEnd)
	if out.Equal(e.persisted) {
		return domain.ChangeEvent{}, false
	}

	e.persisted = out
	e.held = make(map[string]struct{})
	e.logger.Debug("committed breakdowns", zap.Int("breakdowns", len(out)))
	return domain.ChangeEvent{Name: domain.ChangeEventName, Value: out}, true
}

// Flush runs a pending automatic commit now.
func (e *Editor) Flush() {
	if e.auto != nil {
		e.auto.Flush()
	}
}

// Close drops a pending automatic commit.
func (e *Editor) Close() {
	if e.auto != nil {
		e.auto.Stop()
	}
}

func (e *Editor) scheduleCommit() {
	if e.auto != nil {
		e.auto.Trigger()
	}
}
