package reports

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aristath/commodities/internal/pipeline"
)

// FileName returns <mode>_<YYYYMMDD_HHMMSS>.json for the envelope
func FileName(env pipeline.Envelope) string {
	return fmt.Sprintf("%s_%s.json", env.Mode, env.CreatedAt.Format("20060102_150405"))
}

// WriteJSON writes the envelope as indented JSON into dir and returns the file path
func WriteJSON(dir string, env pipeline.Envelope) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}

	path := filepath.Join(dir, FileName(env))
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}
