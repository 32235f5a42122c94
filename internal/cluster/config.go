// Package cluster implements clustered light culling.
//
// The view volume is cut into a DimX x DimY x DimZ grid. Every cluster gets a
// view-space AABB, every point light is tested against every cluster, and the
// per-cluster hits are compacted into one dense index list with a
// (start, count) table the shading stage can walk.
//
// View space follows pkg/math: right-handed, camera looking down -Z. Cluster
// bounds and light spheres store depth as a positive Z (Z = -z_view), so slice
// k spans [k*CellDepth, (k+1)*CellDepth).
package cluster

import (
	"fmt"
	"strings"

	"github.com/Faultbox/midgard-clusters/internal/engine/lighting"
)

// Defaults match the values the shading shaders were tuned for.
const (
	DefaultCellSize            = 64
	DefaultSliceDepth          = 5
	DefaultHorizon             = 100
	DefaultMaxLightsPerCluster = 10
	DefaultMaxLights           = lighting.DefaultMaxLights
)

// Layout selects how per-cluster light indices are published.
type Layout int

const (
	// LayoutCompact packs all indices into one dense list.
	LayoutCompact Layout = iota
	// LayoutFixedStride publishes the per-cluster regions as-is:
	// cluster idx owns [idx*MaxLightsPerCluster, idx*MaxLightsPerCluster+count).
	LayoutFixedStride
)

// String returns the config-file name of the layout.
func (l Layout) String() string {
	switch l {
	case LayoutCompact:
		return "compact"
	case LayoutFixedStride:
		return "fixed"
	default:
		return fmt.Sprintf("layout(%d)", int(l))
	}
}

// ParseLayout converts a config-file name to a Layout.
func ParseLayout(s string) (Layout, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "compact":
		return LayoutCompact, nil
	case "fixed", "fixed_stride", "stride":
		return LayoutFixedStride, nil
	default:
		return 0, fmt.Errorf("unknown cluster layout %q", s)
	}
}

// GridConfig holds the culling settings. Changing any field forces the grid
// and bounds to be regenerated.
type GridConfig struct {
	CellSizeX  int     // Tile width in pixels
	CellSizeY  int     // Tile height in pixels
	SliceDepth float32 // Depth slice thickness in view units
	// Horizon caps the clustered depth range regardless of the camera far
	// plane. Values below 1 are clamped to 1.
	Horizon             float32
	MaxLightsPerCluster int
	MaxLights           int
	Layout              Layout
}

// DefaultGridConfig returns the standard culling settings.
func DefaultGridConfig() GridConfig {
	return GridConfig{
		CellSizeX:           DefaultCellSize,
		CellSizeY:           DefaultCellSize,
		SliceDepth:          DefaultSliceDepth,
		Horizon:             DefaultHorizon,
		MaxLightsPerCluster: DefaultMaxLightsPerCluster,
		MaxLights:           DefaultMaxLights,
		Layout:              LayoutCompact,
	}
}

// Normalized returns a copy with every size clamped to at least 1.
func (c GridConfig) Normalized() GridConfig {
	c.CellSizeX = max(c.CellSizeX, 1)
	c.CellSizeY = max(c.CellSizeY, 1)
	if c.SliceDepth <= 0 {
		c.SliceDepth = 1
	}
	if c.Horizon < 1 {
		c.Horizon = 1
	}
	c.MaxLightsPerCluster = max(c.MaxLightsPerCluster, 1)
	c.MaxLights = max(c.MaxLights, 1)
	if c.Layout != LayoutFixedStride {
		c.Layout = LayoutCompact
	}
	return c
}
