package transcript

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// LoadFile reads a persisted BatchTranscript from path.
func LoadFile(path string) (*BatchTranscript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("transcript: failed to read %s: %w", path, err)
	}
	bt := &BatchTranscript{}
	if err := json.Unmarshal(data, bt); err != nil {
		return nil, fmt.Errorf("transcript: failed to parse %s: %w", path, err)
	}
	return bt, nil
}

// SaveFile persists the transcript to path by writing a sidecar file in the
// same directory and renaming it over the destination, so a reader (or a
// crash mid-write) never observes a partially written transcript.
func (bt *BatchTranscript) SaveFile(path string) error {
	data, err := json.Marshal(bt)
	if err != nil {
		return fmt.Errorf("transcript: failed to encode: %w", err)
	}

	dir := filepath.Dir(path)
	sidecar, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("transcript: failed to create sidecar: %w", err)
	}
	sidecarPath := sidecar.Name()

	if _, err := sidecar.Write(data); err != nil {
		sidecar.Close()
		os.Remove(sidecarPath)
		return fmt.Errorf("transcript: failed to write sidecar: %w", err)
	}
	if err := sidecar.Sync(); err != nil {
		sidecar.Close()
		os.Remove(sidecarPath)
		return fmt.Errorf("transcript: failed to sync sidecar: %w", err)
	}
	if err := sidecar.Close(); err != nil {
		os.Remove(sidecarPath)
		return fmt.Errorf("transcript: failed to close sidecar: %w", err)
	}

	if err := os.Rename(sidecarPath, path); err != nil {
		os.Remove(sidecarPath)
		return fmt.Errorf("transcript: failed to rename sidecar over %s: %w", path, err)
	}
	return nil
}
