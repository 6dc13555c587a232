// Package journey builds the milestone journey: an ordered rail of scaffold
// milestones with conditional milestones and blockers hung off the nearest
// scaffold, ending in a Discharge endpoint.
package journey

import (
	"cmp"
	"slices"
	"time"

	"github.com/pitabwire/worklist/internal/evidence"
	"github.com/pitabwire/worklist/model"
)

// DefaultRecencyWindow is used when Options.RecencyWindow is not positive.
const DefaultRecencyWindow = 24 * time.Hour

// EndpointID is the node id of the terminal Discharge node.
const EndpointID = "discharge-endpoint"

// NodeType distinguishes rail nodes.
type NodeType string

const (
	NodeMilestone NodeType = "MILESTONE"
	NodeBlocker   NodeType = "BLOCKER"
	NodeEndpoint  NodeType = "ENDPOINT"
)

// Tone drives the visual treatment of a node or rail segment.
type Tone string

const (
	ToneComplete Tone = "COMPLETE"
	TonePending  Tone = "PENDING"
	ToneBlocked  Tone = "BLOCKED"
	ToneFuture   Tone = "FUTURE"
	// ToneNone is only used for the outer segments of the rail.
	ToneNone Tone = "NONE"
)

// Node is one stop on the journey rail.
type Node struct {
	ID             string         `json:"id"`
	Type           NodeType       `json:"type"`
	Label          string         `json:"label"`
	Detail         string         `json:"detail,omitempty"`
	Status         string         `json:"status,omitempty"`
	Tone           Tone           `json:"tone"`
	TimestampLocal string         `json:"timestamp_local,omitempty"`
	AnchorID       string         `json:"anchor_id,omitempty"`
	Conditional    bool           `json:"conditional,omitempty"`
	Severity       model.Severity `json:"severity,omitempty"`
	Emphasis       string         `json:"emphasis,omitempty"`
	Evidence       []evidence.Ref `json:"evidence"`
	SegmentIn      Tone           `json:"segment_in"`
	SegmentOut     Tone           `json:"segment_out"`
}

// Journey is the built rail plus its summary counts.
type Journey struct {
	Nodes               []Node `json:"nodes"`
	CompletedMilestones int    `json:"completed_milestones"`
	ActiveBlockers      int    `json:"active_blockers"`
	DischargeReached    bool   `json:"discharge_reached"`
	ReferenceTimeLocal  string `json:"reference_time_local"`
}

// Options controls Build. Clock is the fallback reference time when StateID
// names no snapshot and the record has no as_of_local.
type Options struct {
	StateID       string
	RecencyWindow time.Duration
	Overrides     *model.Overrides
	Clock         model.ReferenceClock
}

type satellite struct {
	node Node
	at   int64
}

// Build runs the two passes: order the scaffold backbone, then anchor each
// included conditional milestone and every blocker onto it.
func Build(p *model.PatientRecord, opts Options) Journey {
	clock := p.ClockForState(opts.StateID, opts.Clock)
	loc := clock.Loc()
	window := opts.RecencyWindow
	if window <= 0 {
		window = DefaultRecencyWindow
	}

	scaffold, conditional := partition(p)
	sortBackbone(scaffold, loc)

	backbone := make([]int64, len(scaffold))
	position := make(map[string]int, len(scaffold))
	for i, m := range scaffold {
		backbone[i] = model.TimestampOrUnknown(m.LastUpdatedLocal, loc)
		if _, ok := position[m.MilestoneID]; !ok {
			position[m.MilestoneID] = i
		}
	}

	activeLinked := activeMilestoneLinks(p, opts.Overrides)
	condByAnchor := make(map[int][]satellite)
	var unanchoredConds []satellite
	for _, m := range conditional {
		at := model.TimestampOrUnknown(m.LastUpdatedLocal, loc)
		if !activeLinked[m.MilestoneID] && !isRecent(at, clock.NowMs, window) {
			continue
		}
		node := milestoneNode(p, m, true)
		idx := Anchor(backbone, at, -1)
		if idx < 0 {
			unanchoredConds = append(unanchoredConds, satellite{node, at})
			continue
		}
		node.AnchorID = scaffold[idx].MilestoneID
		condByAnchor[idx] = append(condByAnchor[idx], satellite{node, at})
	}

	blockersByAnchor := make(map[int][]satellite)
	var unanchoredBlockers []satellite
	activeBlockers := 0
	for _, b := range p.Blockers {
		if opts.Overrides.IsBlockerActive(b) {
			activeBlockers++
		}
		at := model.TimestampOrUnknown(b.SurfacedAtLocal, loc)
		if at == model.UnknownTime {
			at = model.TimestampOrUnknown(b.ResolvedAtLocal, loc)
		}
		node := blockerNode(p, b, opts.Overrides)
		idx := Anchor(backbone, at, preferredAnchor(b, position))
		if idx < 0 {
			unanchoredBlockers = append(unanchoredBlockers, satellite{node, at})
			continue
		}
		node.AnchorID = scaffold[idx].MilestoneID
		blockersByAnchor[idx] = append(blockersByAnchor[idx], satellite{node, at})
	}

	var nodes []Node
	for i, m := range scaffold {
		nodes = append(nodes, milestoneNode(p, m, false))
		nodes = appendSatellites(nodes, condByAnchor[i])
		nodes = appendSatellites(nodes, blockersByAnchor[i])
	}
	nodes = appendSatellites(nodes, unanchoredConds)
	nodes = appendSatellites(nodes, unanchoredBlockers)

	reached := DischargeReached(p)
	nodes = append(nodes, endpointNode(reached))
	nodes = dedup(nodes)
	applySegments(nodes)

	completed := 0
	for _, n := range nodes {
		if n.Type == NodeMilestone && n.Tone == ToneComplete {
			completed++
		}
	}
	return Journey{
		Nodes:               nodes,
		CompletedMilestones: completed,
		ActiveBlockers:      activeBlockers,
		DischargeReached:    reached,
		ReferenceTimeLocal:  model.FormatLocal(clock.NowMs, loc),
	}
}

// Anchor picks the backbone position a satellite hangs from. A valid
// preferred index wins. Otherwise the scaffold whose timestamp is nearest to
// ts wins, earlier positions winning ties. With an unknown ts or no known
// backbone timestamp the first scaffold is used. It returns -1 for an empty
// backbone.
func Anchor(backbone []int64, ts int64, preferred int) int {
	if len(backbone) == 0 {
		return -1
	}
	if preferred >= 0 && preferred < len(backbone) {
		return preferred
	}
	if ts == model.UnknownTime {
		return 0
	}
	best, bestDist := 0, int64(-1)
	for i, b := range backbone {
		if b == model.UnknownTime {
			continue
		}
		d := ts - b
		if d < 0 {
			d = -d
		}
		if bestDist < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// SegmentTone combines the tones of two adjacent nodes.
func SegmentTone(a, b Tone) Tone {
	switch {
	case a == ToneComplete && b == ToneComplete:
		return ToneComplete
	case a == ToneBlocked || b == ToneBlocked:
		return ToneBlocked
	case a == TonePending || b == TonePending:
		return TonePending
	}
	return ToneFuture
}

// DischargeReached reports whether a scaffold milestone at the departure
// stage is DONE.
func DischargeReached(p *model.PatientRecord) bool {
	for _, m := range p.Milestones {
		if m.Tier == model.TierScaffold && m.Status == model.MilestoneDone && StageRank(m.Label) == StageDeparture {
			return true
		}
	}
	return false
}

// partition splits milestones into the visible scaffold and everything else.
// Scaffold items surfaced only when blocked count as conditional.
func partition(p *model.PatientRecord) (scaffold, conditional []model.MilestoneItem) {
	for _, m := range p.Milestones {
		if m.Tier == model.TierScaffold && m.Visibility != model.VisibilitySurfaceWhenBlocked {
			scaffold = append(scaffold, m)
			continue
		}
		conditional = append(conditional, m)
	}
	return scaffold, conditional
}

func sortBackbone(scaffold []model.MilestoneItem, loc *time.Location) {
	slices.SortStableFunc(scaffold, func(a, b model.MilestoneItem) int {
		if c := cmp.Compare(StageRank(a.Label), StageRank(b.Label)); c != 0 {
			return c
		}
		return cmp.Compare(
			model.TimestampOrUnknown(a.LastUpdatedLocal, loc),
			model.TimestampOrUnknown(b.LastUpdatedLocal, loc),
		)
	})
}

func activeMilestoneLinks(p *model.PatientRecord, overrides *model.Overrides) map[string]bool {
	linked := make(map[string]bool)
	for _, b := range p.Blockers {
		if !overrides.IsBlockerActive(b) {
			continue
		}
		for _, id := range b.RelatedMilestones {
			linked[id] = true
		}
	}
	return linked
}

// isRecent reports whether at lies within window before now. Future and
// unknown timestamps are not recent.
func isRecent(at, now int64, window time.Duration) bool {
	if at == model.UnknownTime {
		return false
	}
	age := now - at
	return age >= 0 && age <= window.Milliseconds()
}

func preferredAnchor(b model.Blocker, position map[string]int) int {
	for _, id := range b.RelatedMilestones {
		if i, ok := position[id]; ok {
			return i
		}
	}
	return -1
}

func appendSatellites(nodes []Node, sats []satellite) []Node {
	slices.SortStableFunc(sats, func(a, b satellite) int { return cmp.Compare(a.at, b.at) })
	for _, s := range sats {
		nodes = append(nodes, s.node)
	}
	return nodes
}

func milestoneNode(p *model.PatientRecord, m model.MilestoneItem, conditional bool) Node {
	return Node{
		ID:             m.MilestoneID,
		Type:           NodeMilestone,
		Label:          m.Label,
		Detail:         m.StatusReason,
		Status:         string(m.Status),
		Tone:           milestoneTone(m.Status),
		TimestampLocal: m.LastUpdatedLocal,
		Conditional:    conditional,
		Emphasis:       m.DisplayEmphasis,
		Evidence:       evidence.ForMilestone(p, m),
	}
}

func blockerNode(p *model.PatientRecord, b model.Blocker, overrides *model.Overrides) Node {
	status := overrides.EffectiveBlockerStatus(b)
	tone := ToneComplete
	if status == model.BlockerActive {
		tone = ToneBlocked
	}
	ts := b.SurfacedAtLocal
	if ts == "" {
		ts = b.ResolvedAtLocal
	}
	return Node{
		ID:             b.BlockerID,
		Type:           NodeBlocker,
		Label:          b.Description,
		Detail:         b.SummaryLine,
		Status:         string(status),
		Tone:           tone,
		TimestampLocal: ts,
		Severity:       b.Severity,
		Evidence:       evidence.Dedup(evidence.ForBlockers(p, b.BlockerID)),
	}
}

func endpointNode(reached bool) Node {
	n := Node{
		ID:       EndpointID,
		Type:     NodeEndpoint,
		Label:    "Discharge",
		Status:   string(model.MilestoneNotStarted),
		Tone:     ToneFuture,
		Evidence: []evidence.Ref{},
	}
	if reached {
		n.Status = string(model.MilestoneDone)
		n.Tone = ToneComplete
	}
	return n
}

func milestoneTone(s model.MilestoneStatus) Tone {
	switch s {
	case model.MilestoneDone:
		return ToneComplete
	case model.MilestonePending:
		return TonePending
	}
	return ToneFuture
}

func dedup(nodes []Node) []Node {
	seen := make(map[string]struct{}, len(nodes))
	out := make([]Node, 0, len(nodes))
	for _, n := range nodes {
		if _, dup := seen[n.ID]; dup {
			continue
		}
		seen[n.ID] = struct{}{}
		out = append(out, n)
	}
	return out
}

func applySegments(nodes []Node) {
	for i := range nodes {
		nodes[i].SegmentIn = ToneNone
		nodes[i].SegmentOut = ToneNone
	}
	for i := 0; i+1 < len(nodes); i++ {
		tone := SegmentTone(nodes[i].Tone, nodes[i+1].Tone)
		nodes[i].SegmentOut = tone
		nodes[i+1].SegmentIn = tone
	}
}
