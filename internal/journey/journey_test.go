package journey

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitabwire/worklist/model"
)

func journeyRecord() *model.PatientRecord {
	return &model.PatientRecord{
		PatientID: "P1",
		AsOfLocal: "2025-03-04T09:00:00",
		Milestones: []model.MilestoneItem{
			{MilestoneID: "S_DEP", Tier: model.TierScaffold, Status: model.MilestoneNotStarted, Label: "Patient departs hospital"},
			{MilestoneID: "S_ED", Tier: model.TierScaffold, Status: model.MilestoneDone, Label: "ED arrival", LastUpdatedLocal: "2025-03-01T08:00:00"},
			{MilestoneID: "S_BED", Tier: model.TierScaffold, Status: model.MilestoneDone, Label: "Inpatient bed arrival", LastUpdatedLocal: "2025-03-01T14:00:00"},
			{MilestoneID: "S_MED", Tier: model.TierScaffold, Status: model.MilestonePending, Label: "Medically ready for discharge", LastUpdatedLocal: "2025-03-04T06:00:00"},
			{MilestoneID: "S_HIDDEN", Tier: model.TierScaffold, Visibility: model.VisibilitySurfaceWhenBlocked, Status: model.MilestonePending, Label: "Peer to peer review", LastUpdatedLocal: "2025-03-03T10:00:00"},
			{MilestoneID: "C_OLD", Tier: model.TierCMCritical, Status: model.MilestoneDone, Label: "Family meeting", LastUpdatedLocal: "2025-03-01T15:00:00"},
			{MilestoneID: "C_RECENT", Tier: model.TierCMCritical, Status: model.MilestonePending, Label: "SNF referral sent", LastUpdatedLocal: "2025-03-04T07:00:00"},
			{MilestoneID: "C_FUTURE", Tier: model.TierCMCritical, Status: model.MilestonePending, Label: "Bed offer expected", LastUpdatedLocal: "2025-03-04T12:00:00"},
		},
		Blockers: []model.Blocker{
			{BlockerID: "B1", Severity: model.SeverityRed, Status: model.BlockerActive, Description: "Auth pending", SurfacedAtLocal: "2025-03-03T09:00:00", RelatedMilestones: []string{"S_HIDDEN"}},
			{BlockerID: "B2", Severity: model.SeverityYellow, Status: model.BlockerResolved, Description: "PT eval", SurfacedAtLocal: "2025-03-01T13:00:00", RelatedMilestones: []string{"S_ED"}},
			{BlockerID: "B3", Severity: model.SeverityOrange, Status: model.BlockerActive, Description: "Transport"},
		},
		DemoStates: []model.DemoSnapshot{
			{StateID: "S1", TimestampLocal: "2025-03-04T09:00:00"},
			{StateID: "S2", TimestampLocal: "2025-03-05T12:00:00"},
		},
	}
}

func utcClock() model.ReferenceClock {
	return model.NewReferenceClock(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC))
}

func nodeIDs(nodes []Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}

func nodeByID(nodes []Node, id string) Node {
	for _, n := range nodes {
		if n.ID == id {
			return n
		}
	}
	return Node{}
}

func TestBuild_fullRail(t *testing.T) {
	j := Build(journeyRecord(), Options{Clock: utcClock()})

	assert.Equal(t, []string{
		"S_ED", "B3", "B2",
		"S_BED",
		"S_MED", "S_HIDDEN", "C_RECENT", "B1",
		"S_DEP",
		EndpointID,
	}, nodeIDs(j.Nodes))

	tones := make([]Tone, len(j.Nodes))
	for i, n := range j.Nodes {
		tones[i] = n.Tone
	}
	assert.Equal(t, []Tone{
		ToneComplete, ToneBlocked, ToneComplete,
		ToneComplete,
		TonePending, TonePending, TonePending, ToneBlocked,
		ToneFuture,
		ToneFuture,
	}, tones)

	segments := make([]Tone, 0, len(j.Nodes)-1)
	for _, n := range j.Nodes[:len(j.Nodes)-1] {
		segments = append(segments, n.SegmentOut)
	}
	assert.Equal(t, []Tone{
		ToneBlocked, ToneBlocked, ToneComplete, TonePending,
		TonePending, TonePending, ToneBlocked, ToneBlocked, ToneFuture,
	}, segments)
	assert.Equal(t, ToneNone, j.Nodes[0].SegmentIn)
	assert.Equal(t, ToneNone, j.Nodes[len(j.Nodes)-1].SegmentOut)

	assert.Equal(t, 2, j.CompletedMilestones)
	assert.Equal(t, 2, j.ActiveBlockers)
	assert.False(t, j.DischargeReached)
	assert.Equal(t, "2025-03-04T09:00:00", j.ReferenceTimeLocal)

	assert.Equal(t, "S_ED", nodeByID(j.Nodes, "B2").AnchorID, "explicit related scaffold wins over distance")
	assert.Equal(t, "S_ED", nodeByID(j.Nodes, "B3").AnchorID, "unknown time anchors to first scaffold")
	assert.Equal(t, "S_MED", nodeByID(j.Nodes, "B1").AnchorID)
	assert.Equal(t, "S_MED", nodeByID(j.Nodes, "S_HIDDEN").AnchorID)
	assert.True(t, nodeByID(j.Nodes, "S_HIDDEN").Conditional)
	assert.False(t, nodeByID(j.Nodes, "S_ED").Conditional)
}

func TestBuild_everyBlockerAnchorsToOneScaffold(t *testing.T) {
	p := journeyRecord()
	j := Build(p, Options{Clock: utcClock()})
	scaffold := map[string]bool{"S_ED": true, "S_BED": true, "S_MED": true, "S_DEP": true}
	blockers := 0
	for _, n := range j.Nodes {
		if n.Type != NodeBlocker {
			continue
		}
		blockers++
		assert.True(t, scaffold[n.AnchorID], "blocker %s anchored to %q", n.ID, n.AnchorID)
	}
	assert.Equal(t, len(p.Blockers), blockers)
}

func TestBuild_snapshotMovesRecencyWindow(t *testing.T) {
	j := Build(journeyRecord(), Options{StateID: "S2", Clock: utcClock()})
	ids := nodeIDs(j.Nodes)
	assert.NotContains(t, ids, "C_RECENT")
	assert.Contains(t, ids, "C_FUTURE", "exactly one window old is still recent")
	assert.Contains(t, ids, "S_HIDDEN", "linked to an active blocker")
	assert.Equal(t, "2025-03-05T12:00:00", j.ReferenceTimeLocal)
}

func TestBuild_customWindow(t *testing.T) {
	j := Build(journeyRecord(), Options{RecencyWindow: time.Hour, Clock: utcClock()})
	assert.NotContains(t, nodeIDs(j.Nodes), "C_RECENT")

	j = Build(journeyRecord(), Options{RecencyWindow: -time.Hour, Clock: utcClock()})
	assert.Contains(t, nodeIDs(j.Nodes), "C_RECENT", "non-positive window falls back to 24h")
}

func TestBuild_overridesResolveBlocker(t *testing.T) {
	overrides := &model.Overrides{BlockerStatus: map[string]model.BlockerStatus{"B1": model.BlockerResolved}}
	j := Build(journeyRecord(), Options{Overrides: overrides, Clock: utcClock()})
	b1 := nodeByID(j.Nodes, "B1")
	assert.Equal(t, ToneComplete, b1.Tone)
	assert.Equal(t, string(model.BlockerResolved), b1.Status)
	assert.Equal(t, 1, j.ActiveBlockers)
}

func TestBuild_dischargeReached(t *testing.T) {
	p := journeyRecord()
	p.Milestones[0].Status = model.MilestoneDone
	j := Build(p, Options{Clock: utcClock()})
	end := j.Nodes[len(j.Nodes)-1]
	assert.Equal(t, NodeEndpoint, end.Type)
	assert.Equal(t, ToneComplete, end.Tone)
	assert.True(t, j.DischargeReached)
	assert.Equal(t, 3, j.CompletedMilestones)
}

func TestBuild_plannedDischargeIsNotDeparture(t *testing.T) {
	p := &model.PatientRecord{
		AsOfLocal: "2025-03-04T09:00:00",
		Milestones: []model.MilestoneItem{
			{MilestoneID: "M1", Tier: model.TierScaffold, Status: model.MilestoneDone, Label: "ED arrival", LastUpdatedLocal: "2025-03-01T08:00:00"},
			{MilestoneID: "M2", Tier: model.TierScaffold, Status: model.MilestoneDone, Label: "Expected discharge date set", LastUpdatedLocal: "2025-03-02T08:00:00"},
			{MilestoneID: "M3", Tier: model.TierScaffold, Status: model.MilestoneNotStarted, Label: "Departed hospital"},
		},
	}
	j := Build(p, Options{Clock: utcClock()})

	assert.Equal(t, []string{"M1", "M2", "M3", EndpointID}, nodeIDs(j.Nodes))
	assert.False(t, j.DischargeReached)
	end := j.Nodes[len(j.Nodes)-1]
	assert.Equal(t, NodeEndpoint, end.Type)
	assert.NotEqual(t, ToneComplete, end.Tone)
}

func TestBuild_noScaffold(t *testing.T) {
	p := &model.PatientRecord{
		AsOfLocal: "2025-03-04T09:00:00",
		Milestones: []model.MilestoneItem{
			{MilestoneID: "C1", Tier: model.TierCMCritical, Status: model.MilestonePending, Label: "Auth decision", LastUpdatedLocal: "2025-03-04T08:00:00"},
		},
		Blockers: []model.Blocker{
			{BlockerID: "B1", Status: model.BlockerActive, Description: "Auth", SurfacedAtLocal: "2025-03-04T07:00:00"},
		},
	}
	j := Build(p, Options{Clock: utcClock()})
	assert.Equal(t, []string{"C1", "B1", EndpointID}, nodeIDs(j.Nodes))
	assert.Empty(t, j.Nodes[0].AnchorID)
}

func TestBuild_emptyRecord(t *testing.T) {
	j := Build(&model.PatientRecord{}, Options{Clock: utcClock()})
	require.Len(t, j.Nodes, 1)
	assert.Equal(t, NodeEndpoint, j.Nodes[0].Type)
	assert.Equal(t, ToneNone, j.Nodes[0].SegmentIn)
	assert.Equal(t, ToneNone, j.Nodes[0].SegmentOut)
}

func TestBuild_dedupFirstWins(t *testing.T) {
	p := journeyRecord()
	p.Blockers = append(p.Blockers, model.Blocker{BlockerID: "S_ED", Status: model.BlockerActive, Description: "Clash"})
	j := Build(p, Options{Clock: utcClock()})
	count := 0
	for _, n := range j.Nodes {
		if n.ID == "S_ED" {
			count++
			assert.Equal(t, NodeMilestone, n.Type)
		}
	}
	assert.Equal(t, 1, count)
}

func TestBuild_idempotent(t *testing.T) {
	p := journeyRecord()
	opts := Options{StateID: "S1", Clock: utcClock()}
	assert.Equal(t, Build(p, opts), Build(p, opts))
}

func TestApplySegments_blockedInTheMiddle(t *testing.T) {
	nodes := []Node{{Tone: ToneComplete}, {Tone: ToneBlocked}, {Tone: ToneComplete}}
	applySegments(nodes)
	assert.Equal(t, ToneBlocked, nodes[0].SegmentOut)
	assert.Equal(t, ToneBlocked, nodes[2].SegmentIn)
	assert.Equal(t, ToneNone, nodes[0].SegmentIn)
	assert.Equal(t, ToneNone, nodes[2].SegmentOut)
}

func TestSegmentTone(t *testing.T) {
	tests := []struct {
		a, b, want Tone
	}{
		{ToneComplete, ToneComplete, ToneComplete},
		{ToneComplete, ToneBlocked, ToneBlocked},
		{ToneBlocked, TonePending, ToneBlocked},
		{TonePending, ToneComplete, TonePending},
		{ToneFuture, TonePending, TonePending},
		{ToneComplete, ToneFuture, ToneFuture},
		{ToneFuture, ToneFuture, ToneFuture},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SegmentTone(tt.a, tt.b), "%s-%s", tt.a, tt.b)
	}
}

func TestAnchor(t *testing.T) {
	unknown := model.UnknownTime
	assert.Equal(t, -1, Anchor(nil, 10, -1))
	assert.Equal(t, 2, Anchor([]int64{0, 100, 200}, 5, 2))
	assert.Equal(t, 0, Anchor([]int64{0, 100}, 5, 7), "out-of-range preference is ignored")
	assert.Equal(t, 0, Anchor([]int64{50, 100}, unknown, -1))
	assert.Equal(t, 0, Anchor([]int64{unknown, unknown}, 42, -1))
	assert.Equal(t, 1, Anchor([]int64{0, 100, 200}, 120, -1))
	assert.Equal(t, 0, Anchor([]int64{0, 100}, 50, -1), "ties go to the earlier scaffold")
	assert.Equal(t, 1, Anchor([]int64{unknown, 100}, 10, -1))
}

func TestStageRank(t *testing.T) {
	tests := []struct {
		label string
		want  int
	}{
		{"ED arrival", StageEDArrival},
		{"Emergency department triage", StageEDArrival},
		{"Inpatient bed arrival", StageInpatientBed},
		{"First attending visit", StageFirstAttending},
		{"Disposition target set", StageDispositionSet},
		{"Medically ready for discharge", StageMedicallyReady},
		{"Discharge order signed", StageDischargeOrder},
		{"Patient departs hospital", StageDeparture},
		{"Discharged", StageDeparture},
		{"Discharge", StageDeparture},
		{"Expected discharge date set", StageDispositionSet},
		{"Anticipated discharge date", StageDispositionSet},
		{"Estimated discharge date (EDD)", StageDispositionSet},
		{"Planned discharge destination", StageDispositionSet},
		{"EDD confirmed", StageDispositionSet},
		{"Discharge planning started", StageDispositionSet},
		{"Something else", StageUnrecognized},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StageRank(tt.label), tt.label)
	}
}
