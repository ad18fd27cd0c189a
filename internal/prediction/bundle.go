package prediction

import (
	"encoding/json"
	"fmt"
	"os"
)

// encoderArtifact pins the exact feature ordering the model was trained with.
type encoderArtifact struct {
	FeatureNames   []string `json:"feature_names"`
	FeatureVersion string   `json:"feature_version"`
}

// modelArtifact holds logistic-regression parameters aligned with the
// encoder's feature ordering.
type modelArtifact struct {
	Bias    float64   `json:"bias"`
	Weights []float64 `json:"weights"`
	Version string    `json:"version"`
}

// Bundle is an immutable loaded model. It is constructed once at process
// start and shared by reference; nothing mutates it afterwards.
type Bundle struct {
	FeatureNames []string
	Bias         float64
	Weights      []float64
	Version      string
}

// LoadBundle reads model and encoder artifacts. A missing artifact returns
// (nil, nil) so the caller can run in explicit degraded mode; a present but
// malformed artifact is an error.
func LoadBundle(modelPath, encoderPath string) (*Bundle, error) {
	if !fileExists(modelPath) || !fileExists(encoderPath) {
		return nil, nil
	}

	encRaw, err := os.ReadFile(encoderPath)
	if err != nil {
		return nil, fmt.Errorf("read encoder artifact: %w", err)
	}
	var enc encoderArtifact
	if err := json.Unmarshal(encRaw, &enc); err != nil {
		return nil, fmt.Errorf("parse encoder artifact: %w", err)
	}
	if len(enc.FeatureNames) == 0 {
		return nil, fmt.Errorf("encoder artifact %s has no feature names", encoderPath)
	}

	modelRaw, err := os.ReadFile(modelPath)
	if err != nil {
		return nil, fmt.Errorf("read model artifact: %w", err)
	}
	var model modelArtifact
	if err := json.Unmarshal(modelRaw, &model); err != nil {
		return nil, fmt.Errorf("parse model artifact: %w", err)
	}
	if len(model.Weights) != len(enc.FeatureNames) {
		return nil, fmt.Errorf("model artifact %s has %d weights for %d features",
			modelPath, len(model.Weights), len(enc.FeatureNames))
	}

	return &Bundle{
		FeatureNames: append([]string(nil), enc.FeatureNames...),
		Bias:         model.Bias,
		Weights:      append([]float64(nil), model.Weights...),
		Version:      model.Version,
	}, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
