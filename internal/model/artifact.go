package model

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ArtifactVersion is bumped when the serialized layout changes.
const ArtifactVersion = 1

// Artifact is the serialized model produced by the offline trainer and
// consumed by the live pipeline.
type Artifact struct {
	Version             int           `json:"version"`
	TrainedAt           time.Time     `json:"trained_at"`
	StandardWaterHeight float64       `json:"standard_water_height"`
	Samples             int           `json:"samples"`
	Accuracy            float64       `json:"accuracy"`
	Tree                *DecisionTree `json:"tree"`
}

// SaveArtifact writes the artifact atomically: a temp file in the target
// directory, then a rename. Readers never observe a half-written
// artifact.
func SaveArtifact(path string, a *Artifact) error {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal artifact: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp artifact: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close artifact: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to publish artifact: %w", err)
	}
	return nil
}

// LoadArtifact reads and validates a serialized artifact.
func LoadArtifact(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}

	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("failed to unmarshal artifact: %w", err)
	}

	if a.Version != ArtifactVersion {
		return nil, fmt.Errorf("unsupported artifact version %d", a.Version)
	}
	if a.Tree == nil || a.Tree.Root == nil {
		return nil, fmt.Errorf("artifact has no tree")
	}

	return &a, nil
}
