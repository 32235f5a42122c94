package cluster

import (
	"github.com/Faultbox/midgard-clusters/internal/engine/lighting"
	"github.com/Faultbox/midgard-clusters/pkg/math"
)

// Sphere is a light's culling volume in cluster view space.
type Sphere struct {
	Center math.Vec3
	Radius float32
}

// ToClusterSpace moves a world position into cluster view space.
func ToClusterSpace(view math.Mat4, world math.Vec3) math.Vec3 {
	p := view.TransformVec3(world)
	p.Z = -p.Z
	return p
}

// ViewSpheres converts the light snapshot into view-space spheres, reusing dst.
// Sphere i belongs to light i.
func ViewSpheres(view math.Mat4, lights []lighting.PointLight, dst []Sphere) []Sphere {
	dst = dst[:0]
	for i := range lights {
		dst = append(dst, Sphere{
			Center: ToClusterSpace(view, lights[i].Position),
			Radius: lights[i].Range,
		})
	}
	return dst
}

// SphereIntersectsAABB is the closest-point test. Touching counts as overlap.
func SphereIntersectsAABB(s Sphere, b AABB) bool {
	d := s.Center.Sub(b.Center()).Abs().Sub(b.Extents()).Max(math.Vec3{})
	return d.LengthSq() <= s.Radius*s.Radius
}

// Assignment is the fixed-stride output of AssignLights. Cluster idx owns
// Indices[idx*Stride : idx*Stride+Counts[idx]].
type Assignment struct {
	Stride   int
	Indices  []uint32
	Counts   []uint32
	Overflow []uint32 // hits dropped because the cluster was full
}

// NewAssignment allocates storage for clusters clusters.
func NewAssignment(clusters, stride int) *Assignment {
	stride = max(stride, 1)
	return &Assignment{
		Stride:   stride,
		Indices:  make([]uint32, clusters*stride),
		Counts:   make([]uint32, clusters),
		Overflow: make([]uint32, clusters),
	}
}

// Clusters returns the number of clusters the assignment holds.
func (a *Assignment) Clusters() int {
	return len(a.Counts)
}

// Cluster returns the light indices assigned to cluster idx.
func (a *Assignment) Cluster(idx int) []uint32 {
	base := idx * a.Stride
	return a.Indices[base : base+int(a.Counts[idx])]
}

// AssignLights tests every sphere against every cluster. Each cluster writes
// only its own region, so clusters run in parallel without locking. Hits past
// the stride are dropped and counted in Overflow.
func AssignLights(exec Executor, bounds []AABB, spheres []Sphere, out *Assignment) {
	exec.ParallelFor(len(bounds), func(lo, hi int) {
		for idx := lo; idx < hi; idx++ {
			assignCluster(idx, bounds[idx], spheres, out)
		}
	})
}

func assignCluster(idx int, b AABB, spheres []Sphere, out *Assignment) {
	base := idx * out.Stride
	n, dropped := 0, 0
	for i := range spheres {
		if !SphereIntersectsAABB(spheres[i], b) {
			continue
		}
		if n < out.Stride {
			out.Indices[base+n] = uint32(i)
			n++
		} else {
			dropped++
		}
	}
	out.Counts[idx] = uint32(n)
	out.Overflow[idx] = uint32(dropped)
}
