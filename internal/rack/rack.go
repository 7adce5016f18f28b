// Package rack models the structural trade rack that hosts MEP items:
// its beams and posts, the snap lines derived from them, and the tier
// spaces between beams.
//
// All coordinates are world-space metres. Y is up, Z runs across the
// rack (post to post), X runs along the rack length.
package rack

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/abhipalit3/configur-mep/internal/fsutil"
)

// Face identifies which planar face of a beam contributes a horizontal
// snap line.
type Face string

const (
	// FaceBeamTop is the upper face of a beam. Item bottoms rest on it.
	FaceBeamTop Face = "beam_top"
	// FaceBeamBottom is the lower face of a beam. Item tops hang from it.
	FaceBeamBottom Face = "beam_bottom"
)

// Side identifies which side of the rack a post stands on, looking down
// the rack length.
type Side string

const (
	// SideLeft posts attract an item's max-Z edge when snapping.
	SideLeft Side = "left"
	// SideRight posts attract an item's min-Z edge when snapping.
	SideRight Side = "right"
)

// FallbackRackLengthFt substitutes for a missing or invalid rack length.
const FallbackRackLengthFt = 12.0

// Beam is one horizontal structural member face.
type Beam struct {
	Y    float64 `json:"y"`
	Face Face    `json:"face"`
}

// Post is one vertical structural member.
type Post struct {
	Z    float64 `json:"z"`
	Side Side    `json:"side"`
}

// Geometry is the rack description the editor consumes. It is external,
// read-only input; the editor never mutates it.
type Geometry struct {
	Beams    []Beam  `json:"beams"`
	Posts    []Post  `json:"posts"`
	LengthFt float64 `json:"length_ft"`
}

// maxGeometryFileSize bounds rack geometry files to catch accidental
// loads of unrelated large files.
const maxGeometryFileSize = 4 * 1024 * 1024

// LoadGeometry reads a rack geometry JSON file.
func LoadGeometry(fsys fsutil.FileSystem, path string) (Geometry, error) {
	var g Geometry

	if ext := strings.ToLower(filepath.Ext(path)); ext != ".json" {
		return g, fmt.Errorf("rack geometry file must have .json extension, got %q", ext)
	}

	info, err := fsys.Stat(path)
	if err != nil {
		return g, fmt.Errorf("stat rack geometry file: %w", err)
	}
	if info.Size() > maxGeometryFileSize {
		return g, fmt.Errorf("rack geometry file too large: %d bytes (max %d)", info.Size(), maxGeometryFileSize)
	}

	data, err := fsys.ReadFile(path)
	if err != nil {
		return g, fmt.Errorf("read rack geometry file: %w", err)
	}

	if err := json.Unmarshal(data, &g); err != nil {
		return g, fmt.Errorf("parse rack geometry file: %w", err)
	}

	return g, nil
}
