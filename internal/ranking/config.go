package ranking

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
)

// CalibrationConfig represents the JSON structure of the calibration file.
type CalibrationConfig struct {
	Version string  `json:"version"` // Config version for future compatibility
	Weights Weights `json:"weights"` // Weight overrides
}

// LoadCalibration loads ranking weights from a JSON calibration file.
// If the file doesn't exist or can't be read, returns default weights with
// an error so callers degrade gracefully. Partial configurations are merged
// with defaults: only non-zero overrides are applied.
func LoadCalibration(filePath string) (*Weights, error) {
	if filePath == "" {
		return DefaultWeights(), nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		slog.Warn("failed to read calibration file, using defaults",
			"path", filePath,
			"error", err)
		return DefaultWeights(), fmt.Errorf("failed to read calibration file: %w", err)
	}

	var config CalibrationConfig
	if err := json.Unmarshal(data, &config); err != nil {
		slog.Warn("failed to parse calibration file, using defaults",
			"path", filePath,
			"error", err)
		return DefaultWeights(), fmt.Errorf("failed to parse calibration file: %w", err)
	}

	defaults := DefaultWeights()
	merged := MergeCalibration(defaults, &config.Weights)
	logCalibrationOverrides(defaults, merged)

	return merged, nil
}

// MergeCalibration merges override weights with base weights.
// Only non-zero values from the override are applied, which allows
// partial overrides in the calibration file.
func MergeCalibration(base *Weights, override *Weights) *Weights {
	if base == nil {
		return DefaultWeights()
	}
	if override == nil {
		result := *base
		return &result
	}

	result := *base

	if override.Personalization != 0 {
		result.Personalization = override.Personalization
	}
	if override.Freshness != 0 {
		result.Freshness = override.Freshness
	}
	if override.Popularity != 0 {
		result.Popularity = override.Popularity
	}
	if override.Serendipity != 0 {
		result.Serendipity = override.Serendipity
	}

	return &result
}

// logCalibrationOverrides logs which weights were overridden from defaults.
func logCalibrationOverrides(defaults *Weights, loaded *Weights) {
	var overrides []string

	if loaded.Personalization != defaults.Personalization {
		overrides = append(overrides, fmt.Sprintf("personalization: %.2f -> %.2f",
			defaults.Personalization, loaded.Personalization))
	}
	if loaded.Freshness != defaults.Freshness {
		overrides = append(overrides, fmt.Sprintf("freshness: %.2f -> %.2f",
			defaults.Freshness, loaded.Freshness))
	}
	if loaded.Popularity != defaults.Popularity {
		overrides = append(overrides, fmt.Sprintf("popularity: %.2f -> %.2f",
			defaults.Popularity, loaded.Popularity))
	}
	if loaded.Serendipity != defaults.Serendipity {
		overrides = append(overrides, fmt.Sprintf("serendipity: %.2f -> %.2f",
			defaults.Serendipity, loaded.Serendipity))
	}

	if len(overrides) > 0 {
		slog.Info("loaded ranking calibration with overrides",
			"overrides", overrides)
	} else {
		slog.Info("loaded ranking calibration (using all defaults)")
	}
}
