// Package transcript exports a finished chat session to disk. Exports are
// write-only; nothing is ever loaded back into a session.
package transcript

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"travelbot/internal/chat"
)

// Write saves the session state to path as indented JSON
func Write(path string, state chat.State) error {
	return writeExport(path, FromState(state, time.Now()))
}

func writeExport(path string, export Export) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create transcript directory: %w", err)
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal transcript: %w", err)
	}

	// Write to temp file
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	// Atomic rename
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}
