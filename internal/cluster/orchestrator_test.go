package cluster

import (
	"slices"
	"testing"

	"github.com/Faultbox/midgard-clusters/internal/engine/lighting"
	"github.com/Faultbox/midgard-clusters/pkg/math"
)

func runFrame(t *testing.T, o *Orchestrator, in FrameInput) *Frame {
	t.Helper()
	f, ok := o.Frame(in)
	if !ok {
		t.Fatal("expected frame to run")
	}
	return f
}

func TestFrameSingleClusterSingleLight(t *testing.T) {
	o := NewOrchestrator(testConfig(64), Serial{})
	f := runFrame(t, o, testInput(64, 64, 100, pointAt(0, 0, 0, 10)))

	if f.Grid.Count != 1 {
		t.Fatalf("expected 1 cluster, got %d", f.Grid.Count)
	}
	if f.Ranges[0] != (LightIndexRange{Start: 0, Count: 1}) {
		t.Errorf("expected range (0, 1), got %+v", f.Ranges[0])
	}
	if !slices.Equal(f.Indices, []uint32{0}) {
		t.Errorf("expected indices [0], got %v", f.Indices)
	}
	if o.State() != StateReady {
		t.Errorf("expected state ready, got %s", o.State())
	}
}

func TestFrameLightBeyondHorizonIsExcluded(t *testing.T) {
	cfg := testConfig(64)
	cfg.SliceDepth = 25 // 4 slices
	o := NewOrchestrator(cfg, NewGoroutines(2, 1))

	f := runFrame(t, o, testInput(128, 128, 1000, pointAt(0, 0, 150, 2)))

	if len(f.Indices) != 0 {
		t.Errorf("expected no assignments, got %v", f.Indices)
	}
	for idx, r := range f.Ranges {
		if r.Count != 0 {
			t.Errorf("cluster %d: expected no lights, got %d", idx, r.Count)
		}
	}
	if f.Stats.PointLights != 1 {
		t.Errorf("light should still be published, got %d", f.Stats.PointLights)
	}
}

func TestFrameTwoLightsTwoClusters(t *testing.T) {
	o := NewOrchestrator(testConfig(64), Serial{})
	f := runFrame(t, o, testInput(128, 128, 100,
		pointAt(-50, 50, 50, 5), // top-left tile
		pointAt(50, -50, 50, 5), // bottom-right tile
	))

	if f.Grid.DimX != 2 || f.Grid.DimY != 2 || f.Grid.DimZ != 1 {
		t.Fatalf("expected 2x2x1 grid, got %dx%dx%d", f.Grid.DimX, f.Grid.DimY, f.Grid.DimZ)
	}
	want := []LightIndexRange{{0, 1}, {1, 0}, {1, 0}, {1, 1}}
	if !slices.Equal(f.Ranges, want) {
		t.Errorf("expected ranges %v, got %v", want, f.Ranges)
	}
	if !slices.Equal(f.Indices, []uint32{0, 1}) {
		t.Errorf("expected indices [0 1], got %v", f.Indices)
	}
	if got := f.LightsFor(3); !slices.Equal(got, []uint32{1}) {
		t.Errorf("expected cluster 3 lights [1], got %v", got)
	}
}

func TestFrameClusterCapacityTruncates(t *testing.T) {
	cfg := testConfig(64)
	cfg.MaxLightsPerCluster = 2
	o := NewOrchestrator(cfg, Serial{})

	f := runFrame(t, o, testInput(64, 64, 100,
		pointAt(0, 0, 10, 1),
		pointAt(0, 0, 20, 1),
		pointAt(0, 0, 30, 1),
	))

	if f.Ranges[0].Count != 2 {
		t.Errorf("expected count 2, got %d", f.Ranges[0].Count)
	}
	if !slices.Equal(f.Indices, []uint32{0, 1}) {
		t.Errorf("expected indices [0 1], got %v", f.Indices)
	}
	if f.Stats.DroppedAssignments != 1 || !f.Stats.Truncated() {
		t.Errorf("expected 1 dropped assignment, got %+v", f.Stats)
	}
}

func TestFrameMaxLightsTruncates(t *testing.T) {
	cfg := testConfig(64)
	cfg.MaxLights = 2
	o := NewOrchestrator(cfg, Serial{})

	f := runFrame(t, o, testInput(64, 64, 100,
		pointAt(0, 0, 10, 1),
		lighting.Light{Type: lighting.TypeDirectional},
		pointAt(0, 0, 20, 1),
		pointAt(0, 0, 30, 1),
		pointAt(0, 0, 40, 0),
	))

	if len(f.Lights) != 2 {
		t.Fatalf("expected 2 lights, got %d", len(f.Lights))
	}
	if f.Lights[1].Position.Z != -20 {
		t.Errorf("expected the first two point lights in order, got %+v", f.Lights)
	}
	if f.Stats.DroppedLights != 1 {
		t.Errorf("expected 1 dropped light, got %d", f.Stats.DroppedLights)
	}
}

func TestFrameIsIdempotent(t *testing.T) {
	o := NewOrchestrator(DefaultGridConfig(), NewGoroutines(4, 8))
	in := testInput(640, 360, 500,
		pointAt(-20, 5, 12, 8),
		pointAt(3, -4, 40, 15),
		pointAt(30, 10, 80, 30),
	)

	first := runFrame(t, o, in)
	ranges := slices.Clone(first.Ranges)
	indices := slices.Clone(first.Indices)
	if !first.Stats.Rebuilt {
		t.Error("first frame should build the grid")
	}

	second := runFrame(t, o, in)
	if second.Stats.Rebuilt {
		t.Error("unchanged input should not rebuild")
	}
	if !slices.Equal(second.Ranges, ranges) || !slices.Equal(second.Indices, indices) {
		t.Error("expected identical results for identical input")
	}
	if len(indices) == 0 {
		t.Error("expected some assignments")
	}
}

func TestFrameExecutorsAgree(t *testing.T) {
	in := testInput(640, 360, 500,
		pointAt(-20, 5, 12, 8),
		pointAt(3, -4, 40, 15),
		pointAt(30, 10, 80, 30),
		pointAt(0, 0, 5, 60),
	)

	ref := runFrame(t, NewOrchestrator(DefaultGridConfig(), Serial{}), in)
	ranges := slices.Clone(ref.Ranges)
	indices := slices.Clone(ref.Indices)

	for _, exec := range []Executor{NewGoroutines(3, 7), NewPool(2, 32)} {
		f := runFrame(t, NewOrchestrator(DefaultGridConfig(), exec), in)
		if !slices.Equal(f.Ranges, ranges) || !slices.Equal(f.Indices, indices) {
			t.Errorf("%T: results differ from serial", exec)
		}
	}
}

func TestFrameRebuildsOnProjectionChange(t *testing.T) {
	o := NewOrchestrator(testConfig(64), Serial{})

	runFrame(t, o, testInput(64, 64, 100))
	if o.Grid().Count != 1 {
		t.Fatalf("expected 1 cluster, got %d", o.Grid().Count)
	}

	moved := testInput(64, 64, 100)
	moved.View = math.Translate(10, 0, 0)
	if f := runFrame(t, o, moved); f.Stats.Rebuilt {
		t.Error("view change should not rebuild")
	}

	f := runFrame(t, o, testInput(128, 128, 100))
	if !f.Stats.Rebuilt {
		t.Error("viewport change should rebuild")
	}
	if o.Grid().Count != 4 || len(o.Bounds()) != 4 || len(f.Ranges) != 4 {
		t.Errorf("expected 4 clusters after resize, got grid %d bounds %d ranges %d",
			o.Grid().Count, len(o.Bounds()), len(f.Ranges))
	}

	o.Invalidate()
	if o.State() != StateUninitialized {
		t.Errorf("expected uninitialized, got %s", o.State())
	}
	if f := runFrame(t, o, testInput(128, 128, 100)); !f.Stats.Rebuilt {
		t.Error("invalidate should force a rebuild")
	}
}

func TestFrameSkippedWithoutExecutor(t *testing.T) {
	o := NewOrchestrator(testConfig(64), nil)
	in := testInput(64, 64, 100, pointAt(0, 0, 0, 10))

	for i := 0; i < 2; i++ {
		if f, ok := o.Frame(in); ok || f != nil {
			t.Fatal("expected frame to be skipped")
		}
	}
	if o.State() != StateUninitialized {
		t.Errorf("skipped frames should not build, got %s", o.State())
	}

	o.SetExecutor(Serial{})
	f := runFrame(t, o, in)
	if f.Stats.Frame != 1 {
		t.Errorf("expected frame number 1, got %d", f.Stats.Frame)
	}
	if !slices.Equal(f.Indices, []uint32{0}) {
		t.Errorf("expected indices [0], got %v", f.Indices)
	}
}

func TestFrameFreezeView(t *testing.T) {
	o := NewOrchestrator(testConfig(64), Serial{})
	light := pointAt(-50, 50, 50, 5)

	in := testInput(128, 128, 100, light)
	runFrame(t, o, in)

	// Moving the camera 100 units left puts the light in the right-hand tiles.
	in.View = math.Translate(100, 0, 0)
	in.FreezeView = true
	f := runFrame(t, o, in)
	if got := f.LightsFor(0); !slices.Equal(got, []uint32{0}) {
		t.Errorf("frozen view: expected light in cluster 0, got %v", got)
	}
	if f.View != math.Identity() {
		t.Error("frozen view should publish the old view matrix")
	}

	in.FreezeView = false
	f = runFrame(t, o, in)
	if got := f.LightsFor(0); len(got) != 0 {
		t.Errorf("live view: expected cluster 0 empty, got %v", got)
	}
	if got := f.LightsFor(1); !slices.Equal(got, []uint32{0}) {
		t.Errorf("live view: expected light in cluster 1, got %v", got)
	}
}

func TestFrameFixedStrideLayout(t *testing.T) {
	cfg := testConfig(64)
	cfg.Layout = LayoutFixedStride
	cfg.MaxLightsPerCluster = 4
	o := NewOrchestrator(cfg, Serial{})

	f := runFrame(t, o, testInput(128, 128, 100,
		pointAt(-50, 50, 50, 5),
		pointAt(50, -50, 50, 5),
	))

	if f.Layout != LayoutFixedStride {
		t.Fatalf("expected fixed layout, got %s", f.Layout)
	}
	for idx, r := range f.Ranges {
		if r.Start != uint32(idx*4) {
			t.Errorf("cluster %d: expected start %d, got %d", idx, idx*4, r.Start)
		}
	}
	if got := f.LightsFor(3); !slices.Equal(got, []uint32{1}) {
		t.Errorf("expected cluster 3 lights [1], got %v", got)
	}
	if len(f.Indices) != 16 {
		t.Errorf("expected 16 index slots, got %d", len(f.Indices))
	}
}

func TestFrameStats(t *testing.T) {
	o := NewOrchestrator(testConfig(64), Serial{})
	f := runFrame(t, o, testInput(128, 128, 100,
		pointAt(-50, 50, 50, 5),
		pointAt(50, -50, 50, 5),
		pointAt(0, 0, 50, 0),
	))

	s := f.Stats
	if s.Clusters != 4 || s.PointLights != 2 || s.InvalidLights != 1 || s.SeenLights != 3 {
		t.Errorf("unexpected light counters: %+v", s)
	}
	if s.Assignments != 2 || s.ActiveClusters != 2 || s.MaxClusterLights != 1 {
		t.Errorf("unexpected assignment counters: %+v", s)
	}
	if s.Truncated() {
		t.Error("nothing should be truncated")
	}
}

func TestLightsForOutOfRange(t *testing.T) {
	f := &Frame{}
	if got := f.LightsFor(3); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}
