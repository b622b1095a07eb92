package transcript

import (
	"time"

	"travelbot/internal/chat"
)

// Export is the JSON document written at the end of a session
type Export struct {
	SessionID     string                `json:"session_id"`
	StartedAt     time.Time             `json:"started_at"`
	EndedAt       time.Time             `json:"ended_at"`
	Location      *chat.Location        `json:"location"`
	LastKnownCity *string               `json:"last_known_city"`
	Turns         []chat.Turn           `json:"turns"`       // what the backend saw
	Display       []chat.DisplayMessage `json:"display_log"` // what the user saw
}

// FromState builds an export from a session snapshot
func FromState(state chat.State, endedAt time.Time) Export {
	return Export{
		SessionID:     state.SessionID,
		StartedAt:     state.StartedAt,
		EndedAt:       endedAt,
		Location:      state.Location,
		LastKnownCity: state.LastKnownCity,
		Turns:         state.Turns,
		Display:       state.Display,
	}
}
