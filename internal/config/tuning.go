// Package config holds the editor's tuning parameters: snap tolerance,
// tier thresholds, fallbacks for invalid input, and interaction knobs.
// Values load from a JSON file with every field optional; the Get*
// accessors supply the documented defaults for missing fields.
package config

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/abhipalit3/configur-mep/internal/fsutil"
)

// Tuning represents the editor tuning parameters. The schema matches
// the /api/mep/params endpoint so the same JSON serves startup
// configuration and runtime updates.
type Tuning struct {
	// Snap resolution
	SnapToleranceM *float64 `json:"snap_tolerance_m,omitempty"`

	// Tier layout
	MinTierHeightM         *float64 `json:"min_tier_height_m,omitempty"`
	TierToleranceFallbackM *float64 `json:"tier_tolerance_fallback_m,omitempty"`

	// Interaction
	CopyOffsetM              *float64 `json:"copy_offset_m,omitempty"`
	MeasurementRefreshStride *int     `json:"measurement_refresh_stride,omitempty"`

	// Fallbacks for invalid numeric input
	FallbackDiameterIn   *float64 `json:"fallback_diameter_in,omitempty"`
	FallbackRackLengthFt *float64 `json:"fallback_rack_length_ft,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyTuning returns a Tuning with all fields unset, so every accessor
// reports its default.
func EmptyTuning() *Tuning {
	return &Tuning{}
}

// LoadTuning loads a Tuning from a JSON file. The file must have a
// .json extension and stay under the max file size. Fields omitted from
// the JSON retain their defaults, so partial configs are safe.
func LoadTuning(fsys fsutil.FileSystem, path string) (*Tuning, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := fsys.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := fsys.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuning()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that set fields carry usable values.
func (c *Tuning) Validate() error {
	if c.SnapToleranceM != nil && *c.SnapToleranceM <= 0 {
		return fmt.Errorf("snap_tolerance_m must be positive, got %f", *c.SnapToleranceM)
	}
	if c.MinTierHeightM != nil && *c.MinTierHeightM <= 0 {
		return fmt.Errorf("min_tier_height_m must be positive, got %f", *c.MinTierHeightM)
	}
	if c.TierToleranceFallbackM != nil && *c.TierToleranceFallbackM <= 0 {
		return fmt.Errorf("tier_tolerance_fallback_m must be positive, got %f", *c.TierToleranceFallbackM)
	}
	if c.CopyOffsetM != nil && *c.CopyOffsetM == 0 {
		return fmt.Errorf("copy_offset_m must be nonzero")
	}
	if c.MeasurementRefreshStride != nil && *c.MeasurementRefreshStride < 1 {
		return fmt.Errorf("measurement_refresh_stride must be at least 1, got %d", *c.MeasurementRefreshStride)
	}
	if c.FallbackDiameterIn != nil && *c.FallbackDiameterIn <= 0 {
		return fmt.Errorf("fallback_diameter_in must be positive, got %f", *c.FallbackDiameterIn)
	}
	if c.FallbackRackLengthFt != nil && *c.FallbackRackLengthFt <= 0 {
		return fmt.Errorf("fallback_rack_length_ft must be positive, got %f", *c.FallbackRackLengthFt)
	}
	return nil
}

// GetSnapToleranceM returns the snap tolerance in metres.
func (c *Tuning) GetSnapToleranceM() float64 {
	if c.SnapToleranceM == nil {
		return 0.03 // default
	}
	return *c.SnapToleranceM
}

// GetMinTierHeightM returns the minimum beam gap forming a tier, in metres.
func (c *Tuning) GetMinTierHeightM() float64 {
	if c.MinTierHeightM == nil {
		return 0.30 // default
	}
	return *c.MinTierHeightM
}

// GetTierToleranceFallbackM returns the classifier tolerance used when
// an item's governing dimension is missing, in metres.
func (c *Tuning) GetTierToleranceFallbackM() float64 {
	if c.TierToleranceFallbackM == nil {
		return 0.05 // default
	}
	return *c.TierToleranceFallbackM
}

// GetCopyOffsetM returns the Z offset applied to copies, in metres.
func (c *Tuning) GetCopyOffsetM() float64 {
	if c.CopyOffsetM == nil {
		return 0.30 // default
	}
	return *c.CopyOffsetM
}

// GetMeasurementRefreshStride returns how many drag frames elapse
// between measurement redraws. 1 redraws every frame.
func (c *Tuning) GetMeasurementRefreshStride() int {
	if c.MeasurementRefreshStride == nil {
		return 1 // default: every frame
	}
	return *c.MeasurementRefreshStride
}

// GetFallbackDiameterIn returns the diameter substituted for invalid
// dimension input, in inches.
func (c *Tuning) GetFallbackDiameterIn() float64 {
	if c.FallbackDiameterIn == nil {
		return 2.0 // default
	}
	return *c.FallbackDiameterIn
}

// GetFallbackRackLengthFt returns the rack length substituted for
// invalid input, in feet.
func (c *Tuning) GetFallbackRackLengthFt() float64 {
	if c.FallbackRackLengthFt == nil {
		return 12.0 // default
	}
	return *c.FallbackRackLengthFt
}
