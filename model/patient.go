package model

// Severity ranks how strongly a blocker holds up discharge.
type Severity string

const (
	SeverityRed    Severity = "RED"
	SeverityOrange Severity = "ORANGE"
	SeverityYellow Severity = "YELLOW"
)

// Valid reports whether s is a known severity.
func (s Severity) Valid() bool {
	switch s {
	case SeverityRed, SeverityOrange, SeverityYellow:
		return true
	}
	return false
}

// BlockerStatus is the stored or overridden state of a blocker.
type BlockerStatus string

const (
	BlockerActive   BlockerStatus = "ACTIVE"
	BlockerResolved BlockerStatus = "RESOLVED"
)

// Valid reports whether s is a known blocker status.
func (s BlockerStatus) Valid() bool {
	return s == BlockerActive || s == BlockerResolved
}

// ActionStatus is the stored or overridden state of a proposed action.
type ActionStatus string

const (
	ActionProposed  ActionStatus = "PROPOSED"
	ActionApproved  ActionStatus = "APPROVED"
	ActionDismissed ActionStatus = "DISMISSED"
	ActionSnoozed   ActionStatus = "SNOOZED"
	ActionExecuted  ActionStatus = "EXECUTED"
	ActionFailed    ActionStatus = "FAILED"
)

// Valid reports whether s is a known action status.
func (s ActionStatus) Valid() bool {
	switch s {
	case ActionProposed, ActionApproved, ActionDismissed, ActionSnoozed, ActionExecuted, ActionFailed:
		return true
	}
	return false
}

// Priority of a proposed action.
type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	return p == PriorityHigh || p == PriorityMedium || p == PriorityLow
}

// ExecutionMode says whether an action runs once or on a cadence.
type ExecutionMode string

const (
	ModeOneTime    ExecutionMode = "ONE_TIME"
	ModeBackground ExecutionMode = "BACKGROUND"
)

// Valid reports whether m is a known execution mode.
func (m ExecutionMode) Valid() bool {
	return m == ModeOneTime || m == ModeBackground
}

// MilestoneTier groups milestones into the fixed backbone and everything else.
// Tiers other than the two constants below are allowed.
type MilestoneTier string

const (
	TierScaffold   MilestoneTier = "SCAFFOLD"
	TierCMCritical MilestoneTier = "CM_CRITICAL"
)

// MilestoneStatus is the completion state of a milestone.
type MilestoneStatus string

const (
	MilestoneDone       MilestoneStatus = "DONE"
	MilestonePending    MilestoneStatus = "PENDING"
	MilestoneNotStarted MilestoneStatus = "NOT_STARTED"
	MilestoneNotNeeded  MilestoneStatus = "NOT_NEEDED"
)

// Valid reports whether s is a known milestone status.
func (s MilestoneStatus) Valid() bool {
	switch s {
	case MilestoneDone, MilestonePending, MilestoneNotStarted, MilestoneNotNeeded:
		return true
	}
	return false
}

// VisibilitySurfaceWhenBlocked marks a scaffold milestone that is only shown
// when something blocks it.
const VisibilitySurfaceWhenBlocked = "SURFACE_WHEN_BLOCKED"

// PatientRecord is one static patient fixture. It is loaded once and never
// mutated; per-session edits travel separately as Overrides.
type PatientRecord struct {
	PatientID         string              `json:"patient_id" yaml:"patient_id"`
	AsOfLocal         string              `json:"as_of_local,omitempty" yaml:"as_of_local"`
	Profile           PatientProfile      `json:"profile" yaml:"profile"`
	Insurance         Insurance           `json:"insurance" yaml:"insurance"`
	WorklistView      WorklistViewState   `json:"worklist_view_state" yaml:"worklist_view_state"`
	Blockers          []Blocker           `json:"blockers" yaml:"blockers"`
	ParsedInsights    []ParsedInsight     `json:"parsed_insights,omitempty" yaml:"parsed_insights"`
	ProposedActions   []ProposedAction    `json:"proposed_actions" yaml:"proposed_actions"`
	Evidence          []EvidenceItem      `json:"evidence,omitempty" yaml:"evidence"`
	Milestones        []MilestoneItem     `json:"milestones,omitempty" yaml:"milestones"`
	EncounterTimeline []EncounterEvent    `json:"encounter_timeline,omitempty" yaml:"encounter_timeline"`
	ExecutionLog      []ExecutionLogEntry `json:"execution_log,omitempty" yaml:"execution_log"`
	DemoStates        []DemoSnapshot      `json:"demo_states,omitempty" yaml:"demo_states"`

	// Set by the fixture loader.
	Checksum   string `json:"-" yaml:"-"`
	SourceFile string `json:"-" yaml:"-"`
}

// PatientProfile holds identity and admission details.
type PatientProfile struct {
	Name          string `json:"name" yaml:"name"`
	MRN           string `json:"mrn,omitempty" yaml:"mrn"`
	Age           int    `json:"age,omitempty" yaml:"age"`
	Sex           string `json:"sex,omitempty" yaml:"sex"`
	Unit          string `json:"unit,omitempty" yaml:"unit"`
	Room          string `json:"room,omitempty" yaml:"room"`
	AdmitDate     string `json:"admit_date_local,omitempty" yaml:"admit_date_local"`
	PrimaryDx     string `json:"primary_dx,omitempty" yaml:"primary_dx"`
	AttendingName string `json:"attending,omitempty" yaml:"attending"`
}

// Insurance describes the payer and any authorization deadline.
type Insurance struct {
	Payer             string `json:"payer,omitempty" yaml:"payer"`
	PlanName          string `json:"plan_name,omitempty" yaml:"plan_name"`
	AuthStatus        string `json:"auth_status,omitempty" yaml:"auth_status"`
	AuthDeadlineLocal string `json:"auth_deadline_local,omitempty" yaml:"auth_deadline_local"`
}

// WorklistViewState is the worklist row snapshot carried by the fixture.
type WorklistViewState struct {
	Disposition      string   `json:"disposition,omitempty" yaml:"disposition"`
	StatusChips      []string `json:"status_chips,omitempty" yaml:"status_chips"`
	SubTags          []string `json:"sub_tags,omitempty" yaml:"sub_tags"`
	Owner            string   `json:"owner,omitempty" yaml:"owner"`
	ExpectedLOSDays  float64  `json:"expected_los_days,omitempty" yaml:"expected_los_days"`
	LastTouchedLocal string   `json:"last_touched_local,omitempty" yaml:"last_touched_local"`
}

// Blocker is a discrete obstacle to discharge.
type Blocker struct {
	BlockerID         string          `json:"blocker_id" yaml:"blocker_id"`
	Type              string          `json:"type,omitempty" yaml:"type"`
	Severity          Severity        `json:"severity" yaml:"severity"`
	Status            BlockerStatus   `json:"status" yaml:"status"`
	Description       string          `json:"description" yaml:"description"`
	SummaryLine       string          `json:"summary_line,omitempty" yaml:"summary_line"`
	DueByLocal        string          `json:"due_by_local,omitempty" yaml:"due_by_local"`
	RelatedMilestones []string        `json:"related_milestones,omitempty" yaml:"related_milestones"`
	SurfacedAtLocal   string          `json:"surfaced_at_local,omitempty" yaml:"surfaced_at_local"`
	ResolvedAtLocal   string          `json:"resolved_at_local,omitempty" yaml:"resolved_at_local"`
	EvidenceSummary   EvidenceSummary `json:"evidence_summary" yaml:"evidence_summary"`
	NestedSteps       []NestedStep    `json:"nested_steps,omitempty" yaml:"nested_steps"`
}

// EvidenceSummary counts the evidence behind a blocker.
type EvidenceSummary struct {
	Count            int    `json:"count" yaml:"count"`
	LastUpdatedLocal string `json:"last_updated_local,omitempty" yaml:"last_updated_local"`
}

// NestedStep is a sub-state of a blocker (e.g. "fax sent", "portal check").
type NestedStep struct {
	StepID string `json:"step_id,omitempty" yaml:"step_id"`
	Kind   string `json:"kind" yaml:"kind"`
	Status string `json:"status" yaml:"status"`
	Label  string `json:"label,omitempty" yaml:"label"`
}

// ParsedInsight is a fact extracted from clinical documentation.
type ParsedInsight struct {
	InsightID  string  `json:"insight_id" yaml:"insight_id"`
	Category   string  `json:"category,omitempty" yaml:"category"`
	Text       string  `json:"text" yaml:"text"`
	Confidence float64 `json:"confidence,omitempty" yaml:"confidence"`
}

// ProposedAction is a candidate, often automatable, task.
type ProposedAction struct {
	ActionID             string            `json:"action_id" yaml:"action_id"`
	Title                string            `json:"title" yaml:"title"`
	Reason               string            `json:"reason,omitempty" yaml:"reason"`
	Status               ActionStatus      `json:"status" yaml:"status"`
	Priority             Priority          `json:"priority" yaml:"priority"`
	ExecutionModeDefault ExecutionMode     `json:"execution_mode_default" yaml:"execution_mode_default"`
	BackgroundPolicy     *BackgroundPolicy `json:"background_policy,omitempty" yaml:"background_policy"`
	Dependencies         []string          `json:"dependencies,omitempty" yaml:"dependencies"`
	TargetEntities       []string          `json:"target_entities,omitempty" yaml:"target_entities"`
}

// BackgroundPolicy controls how a BACKGROUND action repeats.
type BackgroundPolicy struct {
	CadenceHours     float64  `json:"cadence_hours" yaml:"cadence_hours"`
	MaxDurationHours float64  `json:"max_duration_hours,omitempty" yaml:"max_duration_hours"`
	StopConditions   []string `json:"stop_conditions,omitempty" yaml:"stop_conditions"`
}

// MilestoneItem is a scaffold or conditional checkpoint.
type MilestoneItem struct {
	MilestoneID       string          `json:"milestone_id" yaml:"milestone_id"`
	Tier              MilestoneTier   `json:"tier" yaml:"tier"`
	Status            MilestoneStatus `json:"status" yaml:"status"`
	Label             string          `json:"label" yaml:"label"`
	StatusReason      string          `json:"status_reason,omitempty" yaml:"status_reason"`
	LastUpdatedLocal  string          `json:"last_updated_local,omitempty" yaml:"last_updated_local"`
	SourceRefs        []string        `json:"source_refs,omitempty" yaml:"source_refs"`
	Visibility        string          `json:"visibility,omitempty" yaml:"visibility"`
	DisplayEmphasis   string          `json:"display_emphasis,omitempty" yaml:"display_emphasis"`
	ChangesNextAction bool            `json:"changes_next_action,omitempty" yaml:"changes_next_action"`
}

// EvidenceItem is a piece of source data; LinkedTo is the join table between
// evidence and blockers, actions and insights.
type EvidenceItem struct {
	EvidenceID     string        `json:"evidence_id" yaml:"evidence_id"`
	SourceType     string        `json:"source_type" yaml:"source_type"`
	SourceLabel    string        `json:"source_label" yaml:"source_label"`
	TimestampLocal string        `json:"timestamp_local,omitempty" yaml:"timestamp_local"`
	Snippet        string        `json:"snippet,omitempty" yaml:"snippet"`
	LinkedTo       EvidenceLinks `json:"linked_to" yaml:"linked_to"`
}

// EvidenceLinks lists the ids an evidence item supports. Ids may dangle.
type EvidenceLinks struct {
	BlockerIDs []string `json:"blocker_ids,omitempty" yaml:"blocker_ids"`
	ActionIDs  []string `json:"action_ids,omitempty" yaml:"action_ids"`
	InsightIDs []string `json:"insight_ids,omitempty" yaml:"insight_ids"`
}

// EncounterEvent is a raw event on the encounter timeline.
type EncounterEvent struct {
	EventID        string `json:"event_id" yaml:"event_id"`
	TimestampLocal string `json:"timestamp_local" yaml:"timestamp_local"`
	Type           string `json:"type,omitempty" yaml:"type"`
	Label          string `json:"label" yaml:"label"`
	Detail         string `json:"detail,omitempty" yaml:"detail"`
	Source         string `json:"source,omitempty" yaml:"source"`
}

// ExecutionLogEntry records one automation or human action attempt.
type ExecutionLogEntry struct {
	LogID           string `json:"log_id" yaml:"log_id"`
	Actor           string `json:"actor" yaml:"actor"`
	Event           string `json:"event" yaml:"event"`
	Result          string `json:"result,omitempty" yaml:"result"`
	TimestampLocal  string `json:"timestamp_local" yaml:"timestamp_local"`
	RelatedActionID string `json:"related_action_id,omitempty" yaml:"related_action_id"`
}

// DemoSnapshot is one tick of the virtual clock. Its override tables simulate
// the statuses the fixture would have at that moment.
type DemoSnapshot struct {
	StateID                string                   `json:"state_id" yaml:"state_id"`
	Label                  string                   `json:"label,omitempty" yaml:"label"`
	TimestampLocal         string                   `json:"timestamp_local" yaml:"timestamp_local"`
	BlockerStatusOverrides map[string]BlockerStatus `json:"blocker_status_overrides,omitempty" yaml:"blocker_status_overrides"`
	ActionStatusOverrides  map[string]ActionStatus  `json:"action_status_overrides,omitempty" yaml:"action_status_overrides"`
}
