package session

import (
	"encoding/json"
	"time"

	"github.com/aretw0/chatflow/pkg/domain"
)

// Record is the downloadable form of a conversation.
type Record struct {
	SessionID string           `json:"session_id"`
	Timestamp string           `json:"timestamp"`
	Messages  []domain.Message `json:"messages"`
}

// NewRecord builds the export record of a session. The timestamp is the one
// stamped by the last turn, or now when the state carries none.
func NewRecord(sessionID string, state domain.State, now time.Time) Record {
	ts, _ := state.Value(domain.KeyTimestamp)
	stamp, ok := ts.(string)
	if !ok || stamp == "" {
		stamp = now.UTC().Format(time.RFC3339)
	}
	return Record{
		SessionID: sessionID,
		Timestamp: stamp,
		Messages:  state.Transcript(),
	}
}

// Export renders the session as indented JSON.
func Export(sessionID string, state domain.State) ([]byte, error) {
	return json.MarshalIndent(NewRecord(sessionID, state, time.Now()), "", "  ")
}
