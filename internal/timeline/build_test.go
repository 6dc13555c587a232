package timeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitabwire/worklist/internal/evidence"
	"github.com/pitabwire/worklist/model"
)

func timelineRecord() *model.PatientRecord {
	return &model.PatientRecord{
		PatientID: "P1",
		Blockers: []model.Blocker{
			{BlockerID: "B1", Severity: model.SeverityRed, Status: model.BlockerActive, Description: "Auth pending", SummaryLine: "Payer reviewing clinicals", SurfacedAtLocal: "2025-03-04T08:00:00"},
			{BlockerID: "B2", Severity: model.SeverityYellow, Status: model.BlockerResolved, Description: "PT eval", SurfacedAtLocal: "2025-03-03T12:00:00", ResolvedAtLocal: "2025-03-04T07:00:00"},
		},
		Milestones: []model.MilestoneItem{
			{MilestoneID: "M1", Tier: model.TierScaffold, Status: model.MilestoneDone, Label: "Medically ready", LastUpdatedLocal: "2025-03-04T06:00:00", SourceRefs: []string{"EV9"}},
			{MilestoneID: "M2", Tier: model.TierCMCritical, Status: model.MilestonePending, Label: "Family decision on SNF", LastUpdatedLocal: "2025-03-04T05:00:00"},
			{MilestoneID: "M3", Tier: model.TierScaffold, Status: model.MilestoneNotNeeded, Label: "Skipped"},
			{MilestoneID: "M4", Tier: "INFO", Status: model.MilestoneDone, Label: "Other tier"},
			{MilestoneID: "B1", Tier: model.TierScaffold, Status: model.MilestoneDone, Label: "Duplicate id"},
		},
		ExecutionLog: []model.ExecutionLogEntry{
			{LogID: "L1", Actor: "agent", Event: "Fax clinicals", Result: "Fax failed - busy", TimestampLocal: "2025-03-04T09:00:00"},
			{LogID: "L2", Actor: "agent", Event: "Portal check", Result: "Auth approved", TimestampLocal: "2025-03-04T10:00:00", RelatedActionID: "A1"},
			{LogID: "L3", Actor: "cm", Event: "Call family", TimestampLocal: "bad"},
		},
		Evidence: []model.EvidenceItem{
			{EvidenceID: "E1", SourceType: "NOTE", SourceLabel: "CM note", LinkedTo: model.EvidenceLinks{BlockerIDs: []string{"B1"}, ActionIDs: []string{"A1"}}},
		},
	}
}

func entryIDs(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

func TestBuild_blockerFirst(t *testing.T) {
	got := Build(timelineRecord(), Options{})
	assert.Equal(t, []string{"B1", "B2", "M2", "M1", "L2", "L1", "L3"}, entryIDs(got))

	states := make(map[string]State)
	kinds := make(map[string]Kind)
	for _, e := range got {
		states[e.ID] = e.State
		kinds[e.ID] = e.Kind
	}
	assert.Equal(t, map[string]State{
		"B1": StateBlocked, "B2": StateComplete, "M2": StatePending, "M1": StateComplete,
		"L2": StateComplete, "L1": StateBlocked, "L3": StateNeutral,
	}, states)
	assert.Equal(t, KindDecision, kinds["M2"])
	assert.Equal(t, KindMilestone, kinds["M1"])
}

func TestBuild_dedupKeepsFirst(t *testing.T) {
	got := Build(timelineRecord(), Options{})
	count := 0
	for _, e := range got {
		if e.ID == "B1" {
			count++
			assert.Equal(t, KindBlocker, e.Kind)
		}
	}
	assert.Equal(t, 1, count)
}

func TestBuild_nonIncreasingWithinKind(t *testing.T) {
	got := Build(timelineRecord(), Options{SortMode: SortBlockerFirst})
	for i := 1; i < len(got); i++ {
		if got[i].Kind == got[i-1].Kind {
			assert.LessOrEqual(t, got[i].At, got[i-1].At, "%s after %s", got[i].ID, got[i-1].ID)
		}
	}
}

func TestBuild_chronological(t *testing.T) {
	got := Build(timelineRecord(), Options{SortMode: SortChronological})
	assert.Equal(t, []string{"L2", "L1", "B1", "B2", "M1", "M2", "L3"}, entryIDs(got))
}

func TestBuild_overridesResolveBlocker(t *testing.T) {
	overrides := &model.Overrides{BlockerStatus: map[string]model.BlockerStatus{"B1": model.BlockerResolved}}
	got := Build(timelineRecord(), Options{Overrides: overrides})
	require.NotEmpty(t, got)
	assert.Equal(t, "B1", got[0].ID)
	assert.Equal(t, StateComplete, got[0].State)
	assert.Equal(t, "2025-03-04T08:00:00", got[0].TimestampLocal)
}

func TestBuild_evidence(t *testing.T) {
	got := Build(timelineRecord(), Options{})
	byID := make(map[string]Entry)
	for _, e := range got {
		byID[e.ID] = e
	}
	require.Len(t, byID["B1"].Evidence, 1)
	assert.Equal(t, "E1", byID["B1"].Evidence[0].ID)

	require.Len(t, byID["M1"].Evidence, 1)
	assert.Equal(t, evidence.ClinicalSourceLabel, byID["M1"].Evidence[0].SourceLabel)
	assert.True(t, byID["M1"].Evidence[0].Synthetic)

	require.Len(t, byID["L2"].Evidence, 1)
	assert.NotNil(t, byID["B2"].Evidence)
	assert.Empty(t, byID["B2"].Evidence)
}

func TestBuild_encounterFallback(t *testing.T) {
	p := &model.PatientRecord{
		EncounterTimeline: []model.EncounterEvent{
			{EventID: "EV1", TimestampLocal: "2025-03-01T08:00:00", Label: "ED arrival"},
			{EventID: "EV2", TimestampLocal: "2025-03-01T14:00:00", Label: "Admitted"},
		},
	}
	got := Build(p, Options{FallbackToEncounters: true})
	require.Len(t, got, 2)
	assert.Equal(t, []string{"EV2", "EV1"}, entryIDs(got))
	for _, e := range got {
		assert.Equal(t, KindEncounter, e.Kind)
		assert.Equal(t, StateNeutral, e.State)
		assert.True(t, e.Major)
	}

	none := Build(p, Options{})
	require.NotNil(t, none)
	assert.Empty(t, none)
}

func TestBuild_idempotent(t *testing.T) {
	p := timelineRecord()
	assert.Equal(t, Build(p, Options{}), Build(p, Options{}))
}

func TestExecutionState(t *testing.T) {
	tests := []struct {
		event, result string
		want          State
	}{
		{"Fax sent", "Delivered", StateComplete},
		{"Call", "No answer", StateBlocked},
		{"Portal check", "Timed out", StateBlocked},
		{"Auth request", "Submitted", StatePending},
		{"Note", "", StateNeutral},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExecutionState(tt.event, tt.result), "%s / %s", tt.event, tt.result)
	}
}

func TestIsDecision(t *testing.T) {
	assert.True(t, IsDecision(model.MilestoneItem{Tier: model.TierCMCritical, Label: "Anything"}))
	assert.True(t, IsDecision(model.MilestoneItem{Tier: model.TierScaffold, ChangesNextAction: true}))
	assert.True(t, IsDecision(model.MilestoneItem{Tier: model.TierScaffold, Label: "Family meeting held"}))
	assert.False(t, IsDecision(model.MilestoneItem{Tier: model.TierScaffold, Label: "Bed arrival"}))
}
