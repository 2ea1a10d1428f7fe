package domain

import (
	"reflect"
)

// StateDiff represents the changes between two states.
// It is designed to be serialized to JSON so clients only receive what a
// turn produced.
type StateDiff struct {
	// CurrentStep is set when the step changed.
	CurrentStep *string `json:"current_step,omitempty"`

	// Metadata contains only changed, added or deleted keys.
	// For deletions, the key is present with a nil value.
	Metadata map[string]any `json:"metadata,omitempty"`

	// Appended holds the messages added after the old transcript.
	Appended []Message `json:"appended,omitempty"`

	// Rewritten is true when the new transcript does not extend the old one.
	// In that case Appended holds the whole new transcript.
	Rewritten bool `json:"rewritten,omitempty"`
}

// Diff calculates the difference between oldState and newState.
// If oldState is nil, it returns a diff representing the entire newState.
// It returns nil when nothing changed.
func Diff(oldState *State, newState State) *StateDiff {
	diff := &StateDiff{}

	if oldState == nil || oldState.currentStep != newState.currentStep {
		step := newState.currentStep
		diff.CurrentStep = &step
	}

	diff.Metadata = diffMetadata(oldState, newState)
	diff.Appended, diff.Rewritten = diffTranscript(oldState, newState)

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func diffMetadata(old *State, new State) map[string]any {
	delta := make(map[string]any)

	if old == nil {
		for k, v := range new.metadata {
			delta[k] = v
		}
		if len(delta) == 0 {
			return nil
		}
		return delta
	}

	for k, newVal := range new.metadata {
		oldVal, exists := old.metadata[k]
		if !exists || !reflect.DeepEqual(oldVal, newVal) {
			delta[k] = newVal
		}
	}

	for k := range old.metadata {
		if _, exists := new.metadata[k]; !exists {
			delta[k] = nil
		}
	}

	if len(delta) == 0 {
		return nil
	}
	return delta
}

// diffTranscript assumes append-only behavior and flags anything else.
func diffTranscript(old *State, new State) ([]Message, bool) {
	if old == nil {
		if len(new.transcript) == 0 {
			return nil, false
		}
		return new.Transcript(), false
	}

	if !new.HasPrefix(*old) {
		return new.Transcript(), true
	}

	if len(new.transcript) > len(old.transcript) {
		appended := make([]Message, len(new.transcript)-len(old.transcript))
		copy(appended, new.transcript[len(old.transcript):])
		return appended, false
	}

	return nil, false
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *StateDiff) IsEmpty() bool {
	return d.CurrentStep == nil &&
		len(d.Metadata) == 0 &&
		len(d.Appended) == 0 &&
		!d.Rewritten
}
