package render

import (
	"fmt"

	"travelbot/internal/chat"
)

// Location summarises the location part of state for humans
func Location(state chat.State) string {
	switch {
	case !state.LocationResolved:
		return "locating…"
	case state.Location == nil:
		return "unavailable"
	default:
		return fmt.Sprintf("%.4f, %.4f", state.Location.Latitude, state.Location.Longitude)
	}
}

// City returns the last known city or a dash
func City(state chat.State) string {
	if state.LastKnownCity == nil {
		return "—"
	}
	return *state.LastKnownCity
}
