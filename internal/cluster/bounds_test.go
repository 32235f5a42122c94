package cluster

import (
	"testing"

	"github.com/Faultbox/midgard-clusters/pkg/math"
)

func TestClusterBoundSingleCluster(t *testing.T) {
	in := testInput(64, 64, 100)
	g := Partition(testConfig(64), in.Width, in.Height, in.Near, in.Far)

	b := ClusterBound(g, in.InverseProjection, 0)

	want := AABB{
		Min: math.Vec3{X: -100, Y: -100, Z: 0},
		Max: math.Vec3{X: 100, Y: 100, Z: 100},
	}
	for _, pair := range [][2]math.Vec3{{b.Min, want.Min}, {b.Max, want.Max}} {
		got, exp := pair[0], pair[1]
		if !approx(got.X, exp.X, 1e-2) || !approx(got.Y, exp.Y, 1e-2) || !approx(got.Z, exp.Z, 1e-2) {
			t.Errorf("expected bound %+v, got %+v", want, b)
		}
	}
}

func TestClusterBoundTopLeftTile(t *testing.T) {
	in := testInput(128, 128, 100)
	g := Partition(testConfig(64), in.Width, in.Height, in.Near, in.Far)

	b := ClusterBound(g, in.InverseProjection, g.Index(0, 0, 0))

	// Screen top-left maps to -X, +Y.
	if !approx(b.Min.X, -100, 1e-2) || !approx(b.Max.X, 0, 1e-2) {
		t.Errorf("expected X in [-100, 0], got [%f, %f]", b.Min.X, b.Max.X)
	}
	if !approx(b.Min.Y, 0, 1e-2) || !approx(b.Max.Y, 100, 1e-2) {
		t.Errorf("expected Y in [0, 100], got [%f, %f]", b.Min.Y, b.Max.Y)
	}
}

func TestBoundsSlicesAreContiguous(t *testing.T) {
	cfg := DefaultGridConfig()
	cfg.CellSizeX = 32
	cfg.CellSizeY = 32
	cfg.SliceDepth = 10
	cfg.Horizon = 50

	in := testInput(128, 96, 100)
	g := Partition(cfg, in.Width, in.Height, in.Near, in.Far)
	bounds := GenerateBounds(Serial{}, g, in.InverseProjection, nil)

	if len(bounds) != g.Count {
		t.Fatalf("expected %d bounds, got %d", g.Count, len(bounds))
	}
	for idx, b := range bounds {
		_, _, k := g.Coords(idx)
		z0 := float32(k) * g.CellDepth
		z1 := float32(k+1) * g.CellDepth
		if !approx(b.Min.Z, z0, 1e-3) || !approx(b.Max.Z, z1, 1e-3) {
			t.Fatalf("cluster %d: expected Z in [%f, %f], got [%f, %f]", idx, z0, z1, b.Min.Z, b.Max.Z)
		}
	}
	last := bounds[len(bounds)-1]
	if !approx(last.Max.Z, g.Far, 1e-3) {
		t.Errorf("expected last slice to end at %f, got %f", g.Far, last.Max.Z)
	}
}

// Every point of the view volume must fall in the AABB of the cluster its
// pixel and depth map to.
func TestBoundsCoverViewVolume(t *testing.T) {
	cfg := DefaultGridConfig()
	cfg.CellSizeX = 32
	cfg.CellSizeY = 32
	cfg.SliceDepth = 10
	cfg.Horizon = 50

	const width, height = 128, 96
	aspect := float32(width) / float32(height)
	in := testInput(width, height, 100)
	g := Partition(cfg, width, height, in.Near, in.Far)
	bounds := GenerateBounds(NewGoroutines(4, 1), g, in.InverseProjection, nil)

	const eps = 1e-2
	for py := float32(0.5); py < height; py += 7 {
		for px := float32(0.5); px < width; px += 5 {
			for depth := float32(0.25); depth < g.Far; depth += 3.5 {
				idx, ok := g.ClusterIndex(px, py, depth)
				if !ok {
					t.Fatalf("(%f, %f, %f) should map to a cluster", px, py, depth)
				}

				ndcX := px/width*2 - 1
				ndcY := 1 - py/height*2
				p := math.Vec3{X: ndcX * depth * aspect, Y: ndcY * depth, Z: depth}

				b := bounds[idx]
				grown := AABB{
					Min: b.Min.Sub(math.Vec3{X: eps, Y: eps, Z: eps}),
					Max: b.Max.Add(math.Vec3{X: eps, Y: eps, Z: eps}),
				}
				if !grown.Contains(p) {
					t.Fatalf("point %+v outside cluster %d bound %+v", p, idx, b)
				}
			}
		}
	}
}

func TestGenerateBoundsReusesStorage(t *testing.T) {
	in := testInput(128, 128, 100)
	g := Partition(testConfig(64), in.Width, in.Height, in.Near, in.Far)

	dst := make([]AABB, 0, 16)
	got := GenerateBounds(Serial{}, g, in.InverseProjection, dst)
	if len(got) != 4 {
		t.Fatalf("expected 4 bounds, got %d", len(got))
	}
	if &got[0] != &dst[:1][0] {
		t.Error("expected storage to be reused")
	}
}

func TestBoundsDegenerateProjectionStayFinite(t *testing.T) {
	g := Partition(DefaultGridConfig(), 128, 128, 0.1, 100)

	bounds := GenerateBounds(Serial{}, g, math.Mat4{}, nil)
	for idx, b := range bounds {
		if !finite(b.Min) || !finite(b.Max) {
			t.Fatalf("cluster %d: expected finite bound, got %+v", idx, b)
		}
	}
}

func TestBoundsParallelMatchesSerial(t *testing.T) {
	in := testInput(640, 360, 1000)
	g := Partition(DefaultGridConfig(), in.Width, in.Height, in.Near, in.Far)

	serial := GenerateBounds(Serial{}, g, in.InverseProjection, nil)
	parallel := GenerateBounds(NewGoroutines(8, 16), g, in.InverseProjection, nil)
	for idx := range serial {
		if serial[idx] != parallel[idx] {
			t.Fatalf("cluster %d: serial %+v, parallel %+v", idx, serial[idx], parallel[idx])
		}
	}
}
