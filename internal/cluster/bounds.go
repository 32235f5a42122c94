package cluster

import (
	"github.com/Faultbox/midgard-clusters/pkg/math"
)

// wEpsilon replaces near-zero homogeneous and ray divisors.
const wEpsilon = 1e-6

// AABB is an axis-aligned box in cluster view space (Z = positive depth).
type AABB struct {
	Min, Max math.Vec3
}

// Center returns the box center.
func (b AABB) Center() math.Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

// Extents returns the half-size of the box.
func (b AABB) Extents() math.Vec3 {
	return b.Max.Sub(b.Min).Scale(0.5)
}

// Contains reports whether p lies inside or on the box.
func (b AABB) Contains(p math.Vec3) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// GenerateBounds computes the AABB of every cluster into dst, reusing its
// storage when large enough.
func GenerateBounds(exec Executor, g Grid, invProj math.Mat4, dst []AABB) []AABB {
	if cap(dst) < g.Count {
		dst = make([]AABB, g.Count)
	}
	dst = dst[:g.Count]

	exec.ParallelFor(g.Count, func(lo, hi int) {
		for idx := lo; idx < hi; idx++ {
			dst[idx] = ClusterBound(g, invProj, idx)
		}
	})
	return dst
}

// ClusterBound computes the AABB of one cluster: the eye rays through the
// tile's two screen corners are cut by the slice's near and far planes.
func ClusterBound(g Grid, invProj math.Mat4, idx int) AABB {
	i, j, k := g.Coords(idx)

	dirMin := screenToView(g, invProj, float32(i)*g.CellWidth, float32(j)*g.CellHeight)
	dirMax := screenToView(g, invProj, float32(i+1)*g.CellWidth, float32(j+1)*g.CellHeight)

	z0 := float32(k) * g.CellDepth
	z1 := float32(k+1) * g.CellDepth

	nearMin := rayAtDepth(dirMin, z0)
	nearMax := rayAtDepth(dirMax, z0)
	farMin := rayAtDepth(dirMin, z1)
	farMax := rayAtDepth(dirMax, z1)

	return AABB{
		Min: nearMin.Min(nearMax).Min(farMin).Min(farMax),
		Max: nearMin.Max(nearMax).Max(farMin).Max(farMax),
	}
}

// screenToView un-projects a pixel position (origin top-left) to a point on
// the eye ray through it, in cluster view space.
func screenToView(g Grid, invProj math.Mat4, sx, sy float32) math.Vec3 {
	u := sx / float32(g.Width)
	v := sy / float32(g.Height)

	// Screen Y grows downward, clip Y grows upward.
	clip := math.Vec4{u*2 - 1, (1-v)*2 - 1, 0, 1}
	view := invProj.MulVec4(clip)

	w := clampAwayFromZero(view[3])
	return math.Vec3{X: view[0] / w, Y: view[1] / w, Z: -view[2] / w}
}

// rayAtDepth intersects the ray from the eye through p with the plane Z = depth.
func rayAtDepth(p math.Vec3, depth float32) math.Vec3 {
	t := depth / clampAwayFromZero(p.Z)
	return p.Scale(t)
}

func clampAwayFromZero(x float32) float32 {
	switch {
	case x >= 0 && x < wEpsilon:
		return wEpsilon
	case x < 0 && x > -wEpsilon:
		return -wEpsilon
	}
	return x
}
