package domain

import (
	"encoding/json"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"
)

// Terminal is the step name that ends a walk.
// It never has a node registered under it.
const Terminal = "__end__"

// Common metadata keys written by the conversation graph.
const (
	KeyTimestamp = "timestamp"
	KeyTurns     = "turns"
)

// State is the snapshot a node receives and returns.
//
// State is copy-on-transition: every method that changes something returns
// a new State and leaves the receiver untouched, so a State can be shared
// freely between the executor, hooks and callers.
type State struct {
	transcript  []Message
	currentStep string
	metadata    map[string]any
}

// NewState creates the initial State of a walk starting at entry.
// The transcript must be non-nil (an empty slice is fine); it is copied.
func NewState(entry string, transcript []Message) (State, error) {
	if transcript == nil {
		return State{}, ErrNilTranscript
	}
	if entry == "" {
		return State{}, fmt.Errorf("state: entry step is required")
	}
	return State{
		transcript:  slices.Clone(transcript),
		currentStep: entry,
	}, nil
}

// Valid reports whether the state was built through NewState (or decoded
// from a snapshot) rather than being the zero value.
func (s State) Valid() bool {
	return s.transcript != nil
}

// CurrentStep returns the name of the node the state is positioned at.
func (s State) CurrentStep() string {
	return s.currentStep
}

// Terminated reports whether the state is positioned at the terminal marker.
func (s State) Terminated() bool {
	return s.currentStep == Terminal
}

// Transcript returns a copy of the conversation transcript.
func (s State) Transcript() []Message {
	if s.transcript == nil {
		return []Message{}
	}
	return slices.Clone(s.transcript)
}

// Len returns the number of messages in the transcript.
func (s State) Len() int {
	return len(s.transcript)
}

// Last returns the most recent message, if any.
func (s State) Last() (Message, bool) {
	if len(s.transcript) == 0 {
		return Message{}, false
	}
	return s.transcript[len(s.transcript)-1], true
}

// Value returns a single metadata value.
func (s State) Value(key string) (any, bool) {
	v, ok := s.metadata[key]
	return v, ok
}

// Metadata returns a shallow copy of the metadata map.
func (s State) Metadata() map[string]any {
	if s.metadata == nil {
		return map[string]any{}
	}
	return maps.Clone(s.metadata)
}

// Append returns a new State with msgs added to the end of the transcript.
func (s State) Append(msgs ...Message) State {
	next := s.clone()
	transcript := make([]Message, 0, len(s.transcript)+len(msgs))
	transcript = append(transcript, s.transcript...)
	next.transcript = append(transcript, msgs...)
	return next
}

// WithStep returns a new State positioned at step.
func (s State) WithStep(step string) State {
	next := s.clone()
	next.currentStep = step
	return next
}

// WithMetadata returns a new State with key set to value.
func (s State) WithMetadata(key string, value any) State {
	next := s.clone()
	next.metadata = s.Metadata()
	next.metadata[key] = value
	return next
}

// HasPrefix reports whether the transcript of s starts with the transcript
// of prefix, message for message.
func (s State) HasPrefix(prefix State) bool {
	if len(prefix.transcript) > len(s.transcript) {
		return false
	}
	return slices.Equal(s.transcript[:len(prefix.transcript)], prefix.transcript)
}

// Equal compares two states by value.
func (s State) Equal(other State) bool {
	if s.currentStep != other.currentStep {
		return false
	}
	if !slices.Equal(s.transcript, other.transcript) {
		return false
	}
	if len(s.metadata) == 0 && len(other.metadata) == 0 {
		return true
	}
	return reflect.DeepEqual(s.metadata, other.metadata)
}

func (s State) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "State{step=%s, messages=%d", s.currentStep, len(s.transcript))
	if len(s.metadata) > 0 {
		keys := slices.Sorted(maps.Keys(s.metadata))
		fmt.Fprintf(&sb, ", metadata=%v", keys)
	}
	sb.WriteString("}")
	return sb.String()
}

// clone copies the header of the state. Slices and maps are replaced by the
// caller before being modified, never written through.
func (s State) clone() State {
	return State{
		transcript:  s.transcript,
		currentStep: s.currentStep,
		metadata:    s.metadata,
	}
}

// snapshot is the wire form of State used by stores and transports.
type snapshot struct {
	Transcript  []Message      `json:"transcript"`
	CurrentStep string         `json:"current_step"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(snapshot{
		Transcript:  s.Transcript(),
		CurrentStep: s.currentStep,
		Metadata:    s.metadata,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *State) UnmarshalJSON(data []byte) error {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return err
	}
	if snap.Transcript == nil {
		snap.Transcript = []Message{}
	}
	for i, msg := range snap.Transcript {
		if !msg.Role.Valid() {
			return fmt.Errorf("state: message %d has unknown role %q", i, msg.Role)
		}
	}
	*s = State{
		transcript:  snap.Transcript,
		currentStep: snap.CurrentStep,
		metadata:    snap.Metadata,
	}
	return nil
}
