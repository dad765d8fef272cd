package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	domsvc "StockStats/internal/domain/service"
)

var ErrArtifactNotFound = errors.New("model artifact not found")

const (
	KindLinear       = "linear"
	KindRandomForest = "random_forest"
)

// Metrics are the hold-out scores recorded at training time.
type Metrics struct {
	MSE float64 `json:"mse"`
	R2  float64 `json:"r2"`
}

// Artifact pairs an estimator with the ordered feature names it was trained on.
type Artifact struct {
	Kind      string
	Features  []string
	Metrics   Metrics
	TrainedAt time.Time
	Estimator domsvc.Estimator
}

type artifactFile struct {
	Kind      string       `json:"kind"`
	Features  []string     `json:"features"`
	Metrics   Metrics      `json:"metrics"`
	TrainedAt time.Time    `json:"trained_at"`
	Linear    *LinearModel `json:"linear,omitempty"`
	Forest    *ForestModel `json:"forest,omitempty"`
}

// LoadArtifact reads a JSON artifact. A missing file yields ErrArtifactNotFound.
func LoadArtifact(path string) (*Artifact, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrArtifactNotFound, path)
		}
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	return DecodeArtifact(b)
}

// DecodeArtifact parses and validates artifact bytes.
func DecodeArtifact(b []byte) (*Artifact, error) {
	var f artifactFile
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse artifact: %w", err)
	}
	if len(f.Features) == 0 {
		return nil, fmt.Errorf("artifact has no feature list")
	}

	a := &Artifact{Kind: f.Kind, Features: f.Features, Metrics: f.Metrics, TrainedAt: f.TrainedAt}
	switch f.Kind {
	case KindLinear:
		if f.Linear == nil {
			return nil, fmt.Errorf("artifact kind %q has no linear section", f.Kind)
		}
		if err := f.Linear.validate(len(f.Features)); err != nil {
			return nil, err
		}
		a.Estimator = f.Linear
	case KindRandomForest:
		if f.Forest == nil {
			return nil, fmt.Errorf("artifact kind %q has no forest section", f.Kind)
		}
		if err := f.Forest.validate(len(f.Features)); err != nil {
			return nil, err
		}
		a.Estimator = f.Forest
	default:
		return nil, fmt.Errorf("unsupported artifact kind %q", f.Kind)
	}
	return a, nil
}

// SaveArtifact writes a as JSON, creating parent directories.
func SaveArtifact(path string, a *Artifact) error {
	f := artifactFile{Kind: a.Kind, Features: a.Features, Metrics: a.Metrics, TrainedAt: a.TrainedAt}
	switch est := a.Estimator.(type) {
	case *LinearModel:
		f.Linear = est
	case *ForestModel:
		f.Forest = est
	default:
		return fmt.Errorf("cannot serialise estimator %T", a.Estimator)
	}

	b, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("encode artifact: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}
	return nil
}
