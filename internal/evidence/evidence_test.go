package evidence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitabwire/worklist/model"
)

func sampleRecord() *model.PatientRecord {
	return &model.PatientRecord{
		Blockers: []model.Blocker{
			{BlockerID: "B1", RelatedMilestones: []string{"M1"}},
			{BlockerID: "B2", RelatedMilestones: []string{"M1", "M2"}},
		},
		Evidence: []model.EvidenceItem{
			{EvidenceID: "E1", SourceType: "NOTE", SourceLabel: "CM note", LinkedTo: model.EvidenceLinks{BlockerIDs: []string{"B1"}}},
			{EvidenceID: "E2", SourceType: "PORTAL", SourceLabel: "Payer portal", LinkedTo: model.EvidenceLinks{BlockerIDs: []string{"B1", "B2"}, ActionIDs: []string{"A1"}}},
			{EvidenceID: "E3", SourceType: "EMAIL", SourceLabel: "Email", LinkedTo: model.EvidenceLinks{BlockerIDs: []string{"GHOST"}}},
		},
		EncounterTimeline: []model.EncounterEvent{
			{EventID: "EV1", TimestampLocal: "2025-03-04T08:00:00", Label: "PT eval", Detail: "Ambulated 50ft"},
		},
	}
}

func evidenceIDs(refs []Ref) []string {
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = r.ID
	}
	return out
}

func TestForBlockers(t *testing.T) {
	p := sampleRecord()
	assert.Equal(t, []string{"E1", "E2"}, evidenceIDs(ForBlockers(p, "B1")))
	assert.Equal(t, []string{"E2"}, evidenceIDs(ForBlockers(p, "B2")))
	assert.Empty(t, ForBlockers(p, "NOPE"))
	assert.Empty(t, ForBlockers(p))
}

func TestForAction(t *testing.T) {
	p := sampleRecord()
	assert.Equal(t, []string{"E2"}, evidenceIDs(ForAction(p, "A1")))
	assert.Empty(t, ForAction(p, "A9"))
}

func TestForSourceRefs_syntheticFallback(t *testing.T) {
	p := sampleRecord()
	refs := ForSourceRefs(p, []string{"EV1", "", "EV404"})
	require.Len(t, refs, 2)
	assert.Equal(t, Ref{ID: "EV1", SourceType: SourceEncounter, SourceLabel: "PT eval", TimestampLocal: "2025-03-04T08:00:00", Snippet: "Ambulated 50ft"}, refs[0])
	assert.Equal(t, Ref{ID: "EV404", SourceType: SourceClinical, SourceLabel: ClinicalSourceLabel, Synthetic: true}, refs[1])
}

func TestForMilestone_dedupsAcrossBlockers(t *testing.T) {
	p := sampleRecord()
	m := model.MilestoneItem{MilestoneID: "M1", SourceRefs: []string{"EV1", "EV1"}}
	assert.Equal(t, []string{"E1", "E2", "EV1"}, evidenceIDs(ForMilestone(p, m)))
}

func TestDedup_neverNil(t *testing.T) {
	got := Dedup()
	require.NotNil(t, got)
	assert.Empty(t, got)
}
