package cluster

import (
	gomath "math"

	"github.com/Faultbox/midgard-clusters/pkg/math"
)

// FrustumState is the camera/viewport input the grid and bounds derive from.
type FrustumState struct {
	Width, Height     int
	Near, Far         float32 // Far is already capped by the horizon
	InverseProjection math.Mat4
	View              math.Mat4
}

// NewFrustumState clamps the viewport and applies the horizon cap.
func NewFrustumState(cfg GridConfig, width, height int, near, cameraFar float32, invProj, view math.Mat4) FrustumState {
	return FrustumState{
		Width:             max(width, 1),
		Height:            max(height, 1),
		Near:              near,
		Far:               cappedFar(cfg, cameraFar),
		InverseProjection: invProj,
		View:              view,
	}
}

// SameProjection reports whether two states produce the same grid and bounds.
// The view matrix is not part of it: camera motion never rebuilds the grid.
func (f FrustumState) SameProjection(o FrustumState) bool {
	return f.Width == o.Width &&
		f.Height == o.Height &&
		f.Near == o.Near &&
		f.Far == o.Far &&
		f.InverseProjection == o.InverseProjection
}

func cappedFar(cfg GridConfig, cameraFar float32) float32 {
	cfg = cfg.Normalized()
	far := min(cfg.Horizon, cameraFar)
	if far <= 0 {
		far = cfg.SliceDepth
	}
	return far
}

// Grid is the cluster grid for one viewport/projection.
type Grid struct {
	DimX, DimY, DimZ int
	Count            int

	// Cell sizes: pixels for X/Y, view units for Z.
	CellWidth  float32
	CellHeight float32
	CellDepth  float32

	Width, Height int
	Near, Far     float32
}

// Partition derives the grid from the viewport and depth range. Cells exactly
// tile the viewport and the depth slices exactly cover [0, far].
func Partition(cfg GridConfig, width, height int, near, cameraFar float32) Grid {
	cfg = cfg.Normalized()
	width = max(width, 1)
	height = max(height, 1)
	far := cappedFar(cfg, cameraFar)

	dimX := max(ceilDiv(float32(width), float32(cfg.CellSizeX)), 1)
	dimY := max(ceilDiv(float32(height), float32(cfg.CellSizeY)), 1)
	dimZ := max(ceilDiv(far, cfg.SliceDepth), 1)

	return Grid{
		DimX:       dimX,
		DimY:       dimY,
		DimZ:       dimZ,
		Count:      dimX * dimY * dimZ,
		CellWidth:  float32(width) / float32(dimX),
		CellHeight: float32(height) / float32(dimY),
		CellDepth:  far / float32(dimZ),
		Width:      width,
		Height:     height,
		Near:       near,
		Far:        far,
	}
}

// PartitionFrustum is Partition for an already built FrustumState.
func PartitionFrustum(cfg GridConfig, fs FrustumState) Grid {
	return Partition(cfg, fs.Width, fs.Height, fs.Near, fs.Far)
}

func ceilDiv(a, b float32) int {
	return int(gomath.Ceil(float64(a) / float64(b)))
}

// Coords splits a linear cluster index into grid coordinates.
func (g Grid) Coords(idx int) (i, j, k int) {
	i = idx % g.DimX
	j = (idx / g.DimX) % g.DimY
	k = idx / (g.DimX * g.DimY)
	return i, j, k
}

// Index returns the linear index of cluster (i, j, k).
func (g Grid) Index(i, j, k int) int {
	return i + j*g.DimX + k*g.DimX*g.DimY
}

// ClusterIndex maps a fragment to its cluster. px/py are pixels from the
// top-left corner, depth is positive view depth. ok is false outside the grid,
// including fragments past the culling horizon.
func (g Grid) ClusterIndex(px, py, depth float32) (idx int, ok bool) {
	if px < 0 || py < 0 || depth < 0 {
		return 0, false
	}
	i := int(px / g.CellWidth)
	j := int(py / g.CellHeight)
	k := int(depth / g.CellDepth)
	if i >= g.DimX || j >= g.DimY || k >= g.DimZ {
		return 0, false
	}
	return g.Index(i, j, k), true
}
