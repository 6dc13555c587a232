package model

// Overrides is the per-session overlay of local edits on top of the immutable
// fixture. A nil *Overrides and nil maps are both valid and mean "no edits".
type Overrides struct {
	BlockerStatus map[string]BlockerStatus `json:"blocker_status,omitempty" yaml:"blocker_status"`
	ActionStatus  map[string]ActionStatus  `json:"action_status,omitempty" yaml:"action_status"`
	ExecutionMode map[string]ExecutionMode `json:"execution_mode,omitempty" yaml:"execution_mode"`
}

// EffectiveBlockerStatus returns override[id] ?? b.Status.
func (o *Overrides) EffectiveBlockerStatus(b Blocker) BlockerStatus {
	if o != nil {
		if s, ok := o.BlockerStatus[b.BlockerID]; ok && s != "" {
			return s
		}
	}
	return b.Status
}

// EffectiveActionStatus returns override[id] ?? a.Status.
func (o *Overrides) EffectiveActionStatus(a ProposedAction) ActionStatus {
	if o != nil {
		if s, ok := o.ActionStatus[a.ActionID]; ok && s != "" {
			return s
		}
	}
	return a.Status
}

// EffectiveMode returns override[id] ?? a.ExecutionModeDefault.
func (o *Overrides) EffectiveMode(a ProposedAction) ExecutionMode {
	if o != nil {
		if m, ok := o.ExecutionMode[a.ActionID]; ok && m != "" {
			return m
		}
	}
	return a.ExecutionModeDefault
}

// IsBlockerActive reports whether b is ACTIVE after overrides.
func (o *Overrides) IsBlockerActive(b Blocker) bool {
	return o.EffectiveBlockerStatus(b) == BlockerActive
}

// Layer returns a new overlay where entries of top win over entries of o.
// Neither receiver nor argument is modified.
func (o *Overrides) Layer(top *Overrides) *Overrides {
	out := &Overrides{}
	var base Overrides
	if o != nil {
		base = *o
	}
	var over Overrides
	if top != nil {
		over = *top
	}
	out.BlockerStatus = mergeMaps(base.BlockerStatus, over.BlockerStatus)
	out.ActionStatus = mergeMaps(base.ActionStatus, over.ActionStatus)
	out.ExecutionMode = mergeMaps(base.ExecutionMode, over.ExecutionMode)
	return out
}

func mergeMaps[V any](base, top map[string]V) map[string]V {
	if len(base) == 0 && len(top) == 0 {
		return nil
	}
	out := make(map[string]V, len(base)+len(top))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range top {
		out[k] = v
	}
	return out
}
