// Package debug provides debug visualization utilities for the culler.
package debug

import (
	"github.com/Faultbox/midgard-clusters/internal/cluster"
	"github.com/Faultbox/midgard-clusters/pkg/math"
)

// BoxVertexCount is the number of vertices for a box wireframe (12 edges × 2).
const BoxVertexCount = 24

// AppendBoxLines appends line vertices for a wireframe box to dst,
// format: [x, y, z] per vertex.
func AppendBoxLines(dst []float32, lo, hi math.Vec3) []float32 {
	minX, minY, minZ := lo.X, lo.Y, lo.Z
	maxX, maxY, maxZ := hi.X, hi.Y, hi.Z
	return append(dst,
		// Bottom face (4 edges)
		minX, minY, minZ, maxX, minY, minZ,
		maxX, minY, minZ, maxX, minY, maxZ,
		maxX, minY, maxZ, minX, minY, maxZ,
		minX, minY, maxZ, minX, minY, minZ,
		// Top face (4 edges)
		minX, maxY, minZ, maxX, maxY, minZ,
		maxX, maxY, minZ, maxX, maxY, maxZ,
		maxX, maxY, maxZ, minX, maxY, maxZ,
		minX, maxY, maxZ, minX, maxY, minZ,
		// Vertical edges (4 edges)
		minX, minY, minZ, minX, maxY, minZ,
		maxX, minY, minZ, maxX, maxY, minZ,
		maxX, minY, maxZ, maxX, maxY, maxZ,
		minX, minY, maxZ, minX, maxY, maxZ,
	)
}

// ClusterBoxLines appends wireframes for every cluster of f holding at least
// one light. slice < 0 takes all depth slices. Vertices are in the view space
// of f.View (camera looking down -Z), ready for projection * view * inverse(f.View).
func ClusterBoxLines(dst []float32, f *cluster.Frame, slice int) []float32 {
	dst = dst[:0]
	for idx, r := range f.Ranges {
		if r.Count == 0 || idx >= len(f.Bounds) {
			continue
		}
		if slice >= 0 {
			if _, _, k := f.Grid.Coords(idx); k != slice {
				continue
			}
		}
		b := f.Bounds[idx]
		// Cluster space stores depth as +Z.
		lo := math.Vec3{X: b.Min.X, Y: b.Min.Y, Z: -b.Max.Z}
		hi := math.Vec3{X: b.Max.X, Y: b.Max.Y, Z: -b.Min.Z}
		dst = AppendBoxLines(dst, lo, hi)
	}
	return dst
}
