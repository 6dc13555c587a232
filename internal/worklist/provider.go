// Package worklist composes every derivation into one view per patient and
// memoizes the result on input identity.
package worklist

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pitabwire/worklist/internal/actions"
	"github.com/pitabwire/worklist/internal/agents"
	"github.com/pitabwire/worklist/internal/chips"
	"github.com/pitabwire/worklist/internal/config"
	"github.com/pitabwire/worklist/internal/deadline"
	"github.com/pitabwire/worklist/internal/disposition"
	"github.com/pitabwire/worklist/internal/evidence"
	"github.com/pitabwire/worklist/internal/fixture"
	"github.com/pitabwire/worklist/internal/journey"
	"github.com/pitabwire/worklist/internal/observability"
	"github.com/pitabwire/worklist/internal/timeline"
	"github.com/pitabwire/worklist/model"
)

// Component labels used for derivation metrics.
const (
	ComponentView            = "view"
	ComponentDisposition     = "disposition"
	ComponentDeadline        = "deadline"
	ComponentChips           = "chips"
	ComponentBlockers        = "blockers"
	ComponentTimeline        = "timeline"
	ComponentCompactTimeline = "compact_timeline"
	ComponentJourney         = "journey"
	ComponentAgents          = "agents"
)

// Provider derives worklist views from the fixture registry. It is safe for
// concurrent use.
type Provider struct {
	registry *fixture.Registry
	logger   *zap.Logger
	metrics  *observability.Metrics
	now      func() time.Time

	location       *time.Location
	defaultStateID string
	recencyWindow  time.Duration
	sortMode       timeline.SortMode
	fallback       bool
	compactLimit   int

	cache *viewCache
}

// Option configures a Provider.
type Option func(*Provider)

// WithNow replaces the wall clock used when a record carries no reference
// time of its own, and for cache expiry.
func WithNow(now func() time.Time) Option {
	return func(p *Provider) {
		if now != nil {
			p.now = now
		}
	}
}

// NewProvider creates a Provider. A nil logger or metrics disables that
// output.
func NewProvider(
	registry *fixture.Registry,
	cfg *config.Config,
	logger *zap.Logger,
	metrics *observability.Metrics,
	opts ...Option,
) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Provider{
		registry:       registry,
		logger:         logger,
		metrics:        metrics,
		now:            time.Now,
		location:       cfg.Location(),
		defaultStateID: cfg.Clock.DefaultStateID,
		recencyWindow:  cfg.Journey.RecencyWindow,
		sortMode:       timeline.SortMode(cfg.Timeline.SortMode),
		fallback:       cfg.Timeline.FallbackToEncounters,
		compactLimit:   cfg.Timeline.CompactLimit,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.cache = newViewCache(cfg.Cache.TTL, cfg.Cache.MaxEntries, p.now)
	return p
}

// Patients returns the ids of every loaded patient in lexical order.
func (p *Provider) Patients() []string {
	return p.registry.IDs()
}

// Derive returns the view for patientID under req. The selected snapshot's
// override tables sit under req.Overrides. An unknown patient is NOT_FOUND;
// an explicitly requested snapshot the patient lacks is INVALID_STATE.
func (p *Provider) Derive(ctx context.Context, patientID string, req Request) (view View, err error) {
	ctx, span := observability.StartSpan(ctx, "worklist.derive",
		observability.AttrPatientID.String(patientID),
		observability.AttrStateID.String(req.StateID),
	)
	start := time.Now()
	defer func() {
		status := observability.StatusSuccess
		if err != nil {
			status = observability.StatusError
		}
		p.metrics.RecordDerivation(ComponentView, status, time.Since(start))
		observability.EndSpanWithError(span, err)
	}()

	logger := observability.DerivationLogger(ctx, p.logger, patientID, req.StateID)

	rec, ok := p.registry.Get(patientID)
	if !ok {
		logger.Warn("patient not found")
		return View{}, withTrace(ctx, model.NewNotFoundError(fmt.Sprintf("patient %q not found", patientID)))
	}

	stateID, ok := p.resolveState(rec, req.StateID)
	if !ok {
		logger.Warn("unknown demo state")
		return View{}, withTrace(ctx, invalidState(patientID, req.StateID))
	}

	overrides := rec.SnapshotOverrides(stateID).Layer(req.Overrides)
	clock := rec.ClockForState(stateID, model.NewReferenceClock(p.now().In(p.location)))

	checksum := p.registry.Checksum()
	if p.cache.sync(checksum) {
		logger.Info("fixture registry changed, view cache cleared", zap.String("checksum", checksum))
	}

	key, err := cacheKey(checksum, patientID, stateID, clock.NowMs, overrides)
	if err != nil {
		logger.Error("building cache key", zap.Error(err))
		return View{}, withTrace(ctx, model.NewInternalError())
	}

	if cached, hit := p.cache.get(key); hit {
		span.SetAttributes(observability.AttrCacheHit.Bool(true))
		p.metrics.RecordViewCacheHit()
		logger.Debug("view cache hit")
		return cached, nil
	}
	span.SetAttributes(observability.AttrCacheHit.Bool(false))
	p.metrics.RecordViewCacheMiss()

	view = p.build(ctx, rec, stateID, overrides, clock)
	p.cache.put(key, view)
	p.metrics.SetActiveBlockers(patientID, view.Journey.ActiveBlockers)

	logger.Debug("derived worklist view",
		zap.Any("record", observability.RedactFields(recordSummary(rec), nil)),
		zap.Int("blockers", len(view.Blockers)),
		zap.Int("agents", len(view.Agents)),
		zap.Duration("duration", time.Since(start)),
	)
	return view, nil
}

// Advance returns the snapshot id that follows stateID for the patient, or
// "" when the patient has no snapshots. Stepping never moves backward.
func (p *Provider) Advance(patientID, stateID string) (string, error) {
	rec, ok := p.registry.Get(patientID)
	if !ok {
		return "", model.NewNotFoundError(fmt.Sprintf("patient %q not found", patientID))
	}
	if stateID != "" {
		if _, ok := rec.Snapshot(stateID); !ok {
			return "", invalidState(patientID, stateID)
		}
	}
	return rec.NextState(stateID), nil
}

// CacheLen returns the number of cached views. For testing.
func (p *Provider) CacheLen() int {
	return p.cache.size()
}

// resolveState validates an explicit state id. With none requested the
// configured default applies only when the patient defines it.
func (p *Provider) resolveState(rec *model.PatientRecord, requested string) (string, bool) {
	if requested != "" {
		_, ok := rec.Snapshot(requested)
		return requested, ok
	}
	if _, ok := rec.Snapshot(p.defaultStateID); ok {
		return p.defaultStateID, true
	}
	return "", true
}

func (p *Provider) build(ctx context.Context, rec *model.PatientRecord, stateID string, overrides *model.Overrides, clock model.ReferenceClock) View {
	view := View{
		PatientID:          rec.PatientID,
		StateID:            stateID,
		NextStateID:        rec.NextState(stateID),
		ReferenceTimeLocal: model.FormatLocal(clock.NowMs, clock.Loc()),
		Profile:            rec.Profile,
		Owner:              rec.WorklistView.Owner,
	}

	p.measure(ctx, ComponentDisposition, func() {
		view.Disposition = disposition.Parse(rec.WorklistView.Disposition)
	})
	p.measure(ctx, ComponentDeadline, func() {
		if info, ok := deadline.MostUrgent(rec, overrides, clock); ok {
			view.Deadline = &info
		}
	})
	p.measure(ctx, ComponentChips, func() {
		view.Chips = chips.Group(rec.WorklistView.StatusChips, rec.WorklistView.SubTags)
	})
	p.measure(ctx, ComponentBlockers, func() {
		view.Blockers = blockerCards(rec, overrides, clock)
	})

	topts := timeline.Options{
		SortMode:             p.sortMode,
		FallbackToEncounters: p.fallback,
		Overrides:            overrides,
		Location:             clock.Loc(),
	}
	p.measure(ctx, ComponentTimeline, func() {
		view.Timeline = timeline.Build(rec, topts)
	})
	p.measure(ctx, ComponentCompactTimeline, func() {
		view.CompactTimeline = timeline.BuildCompact(rec, topts, p.compactLimit)
	})
	p.measure(ctx, ComponentJourney, func() {
		view.Journey = journey.Build(rec, journey.Options{
			StateID:       stateID,
			RecencyWindow: p.recencyWindow,
			Overrides:     overrides,
			Clock:         clock,
		})
	})
	p.measure(ctx, ComponentAgents, func() {
		view.Agents = agents.Build(rec, overrides, clock.Loc())
	})
	return view
}

// measure runs one derivation under a child span and records its duration.
func (p *Provider) measure(ctx context.Context, component string, fn func()) {
	_, span := observability.StartSpan(ctx, "worklist."+component,
		observability.AttrComponent.String(component),
	)
	start := time.Now()
	fn()
	p.metrics.RecordDerivation(component, observability.StatusSuccess, time.Since(start))
	span.End()
}

// blockerCards pairs each blocker with its effective status, its own due
// time when active, its evidence and the actions selected for it.
func blockerCards(rec *model.PatientRecord, overrides *model.Overrides, clock model.ReferenceClock) []BlockerCard {
	acts := effectiveActions(rec, overrides)
	cards := make([]BlockerCard, 0, len(rec.Blockers))
	for _, b := range rec.Blockers {
		card := BlockerCard{
			BlockerID:   b.BlockerID,
			Description: b.Description,
			SummaryLine: b.SummaryLine,
			Severity:    b.Severity,
			Status:      overrides.EffectiveBlockerStatus(b),
			Selection:   actions.Select(b, acts),
			Evidence:    evidence.ForBlockers(rec, b.BlockerID),
		}
		if card.Status == model.BlockerActive {
			if ms, ok := model.ParseTimestamp(b.DueByLocal, clock.Loc()); ok {
				info := deadline.Format(ms, deadline.SourceLabel(b.Description), clock)
				info.BlockerID = b.BlockerID
				card.Due = &info
			}
		}
		cards = append(cards, card)
	}
	return cards
}

// effectiveActions copies the proposed actions with override statuses
// applied. The record is not modified.
func effectiveActions(rec *model.PatientRecord, overrides *model.Overrides) []model.ProposedAction {
	out := make([]model.ProposedAction, len(rec.ProposedActions))
	for i, a := range rec.ProposedActions {
		a.Status = overrides.EffectiveActionStatus(a)
		out[i] = a
	}
	return out
}

// cacheKey identifies a view by every input that shapes it. Overrides are
// digested through JSON, which emits map keys in sorted order.
func cacheKey(checksum, patientID, stateID string, nowMs int64, overrides *model.Overrides) (string, error) {
	data, err := json.Marshal(overrides)
	if err != nil {
		return "", fmt.Errorf("digest overrides: %w", err)
	}
	return fmt.Sprintf("view:%s:%s:%s:%d:%x", checksum, patientID, stateID, nowMs, sha256.Sum256(data)), nil
}

func recordSummary(rec *model.PatientRecord) map[string]any {
	return map[string]any{
		"patient_id": rec.PatientID,
		"name":       rec.Profile.Name,
		"mrn":        rec.Profile.MRN,
		"unit":       rec.Profile.Unit,
		"blockers":   len(rec.Blockers),
		"actions":    len(rec.ProposedActions),
		"source":     rec.SourceFile,
	}
}

func invalidState(patientID, stateID string) *model.ErrorEnvelope {
	return model.NewInvalidStateError(fmt.Sprintf("patient %q has no demo state %q", patientID, stateID))
}

func withTrace(ctx context.Context, env *model.ErrorEnvelope) *model.ErrorEnvelope {
	env.TraceID = observability.TraceIDFromContext(ctx)
	return env
}
