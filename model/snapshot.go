package model

// Snapshot returns the demo snapshot with the given id.
func (p *PatientRecord) Snapshot(stateID string) (DemoSnapshot, bool) {
	if stateID == "" {
		return DemoSnapshot{}, false
	}
	for _, s := range p.DemoStates {
		if s.StateID == stateID {
			return s, true
		}
	}
	return DemoSnapshot{}, false
}

// ClockForState resolves the virtual "now" for a snapshot: the snapshot
// timestamp when stateID names a snapshot with a parseable timestamp, else
// the record's as_of_local, else fallback.
func (p *PatientRecord) ClockForState(stateID string, fallback ReferenceClock) ReferenceClock {
	loc := fallback.Loc()
	if s, ok := p.Snapshot(stateID); ok {
		if ms, ok := ParseTimestamp(s.TimestampLocal, loc); ok {
			return fallback.At(ms)
		}
	}
	if ms, ok := ParseTimestamp(p.AsOfLocal, loc); ok {
		return fallback.At(ms)
	}
	return fallback
}

// SnapshotOverrides returns the override tables carried by a snapshot, or nil
// when stateID does not name one.
func (p *PatientRecord) SnapshotOverrides(stateID string) *Overrides {
	s, ok := p.Snapshot(stateID)
	if !ok {
		return nil
	}
	return &Overrides{
		BlockerStatus: s.BlockerStatusOverrides,
		ActionStatus:  s.ActionStatusOverrides,
	}
}

// NextState returns the snapshot id following currentID. Stepping never moves
// backward: the last snapshot returns itself. An empty or unknown currentID
// starts at the first snapshot. It returns "" when there are no snapshots.
func (p *PatientRecord) NextState(currentID string) string {
	if len(p.DemoStates) == 0 {
		return ""
	}
	for i, s := range p.DemoStates {
		if s.StateID != currentID {
			continue
		}
		if i+1 < len(p.DemoStates) {
			return p.DemoStates[i+1].StateID
		}
		return s.StateID
	}
	return p.DemoStates[0].StateID
}
