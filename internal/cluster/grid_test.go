package cluster

import (
	"testing"

	"github.com/Faultbox/midgard-clusters/pkg/math"
)

func TestPartition(t *testing.T) {
	tests := []struct {
		name          string
		cfg           GridConfig
		width, height int
		far           float32
		wantDims      [3]int
		wantFar       float32
	}{
		{
			name:     "single cluster",
			cfg:      testConfig(64),
			width:    64,
			height:   64,
			far:      100,
			wantDims: [3]int{1, 1, 1},
			wantFar:  100,
		},
		{
			name:     "1080p defaults capped by horizon",
			cfg:      DefaultGridConfig(),
			width:    1920,
			height:   1080,
			far:      1000,
			wantDims: [3]int{30, 17, 20},
			wantFar:  100,
		},
		{
			name:     "camera far inside horizon",
			cfg:      DefaultGridConfig(),
			width:    1920,
			height:   1080,
			far:      50,
			wantDims: [3]int{30, 17, 10},
			wantFar:  50,
		},
		{
			name:     "zero horizon clamps to one",
			cfg:      GridConfig{CellSizeX: 64, CellSizeY: 64, SliceDepth: 5, Horizon: 0},
			width:    128,
			height:   64,
			far:      200,
			wantDims: [3]int{2, 1, 1},
			wantFar:  1,
		},
		{
			name:     "negative horizon with huge camera far",
			cfg:      GridConfig{CellSizeX: 64, CellSizeY: 64, SliceDepth: 5, Horizon: -10},
			width:    1920,
			height:   1080,
			far:      1e6,
			wantDims: [3]int{30, 17, 1},
			wantFar:  1,
		},
		{
			name:     "degenerate inputs clamp to one cell",
			cfg:      GridConfig{},
			width:    0,
			height:   -5,
			far:      0,
			wantDims: [3]int{1, 1, 1},
			wantFar:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := Partition(tt.cfg, tt.width, tt.height, 0.1, tt.far)

			got := [3]int{g.DimX, g.DimY, g.DimZ}
			if got != tt.wantDims {
				t.Fatalf("expected dims %v, got %v", tt.wantDims, got)
			}
			if g.Count != g.DimX*g.DimY*g.DimZ {
				t.Errorf("expected count %d, got %d", g.DimX*g.DimY*g.DimZ, g.Count)
			}
			if g.Far != tt.wantFar {
				t.Errorf("expected far %f, got %f", tt.wantFar, g.Far)
			}
		})
	}
}

func TestPartitionCellsTileViewport(t *testing.T) {
	g := Partition(DefaultGridConfig(), 1000, 700, 0.1, 1000)

	if !approx(g.CellWidth*float32(g.DimX), 1000, 1e-2) {
		t.Errorf("cells should span width 1000, got %f", g.CellWidth*float32(g.DimX))
	}
	if !approx(g.CellHeight*float32(g.DimY), 700, 1e-2) {
		t.Errorf("cells should span height 700, got %f", g.CellHeight*float32(g.DimY))
	}
	if !approx(g.CellDepth*float32(g.DimZ), g.Far, 1e-3) {
		t.Errorf("slices should span far %f, got %f", g.Far, g.CellDepth*float32(g.DimZ))
	}
	if g.CellWidth > 64 || g.CellHeight > 64 {
		t.Errorf("cells should not exceed the configured size, got %fx%f", g.CellWidth, g.CellHeight)
	}
}

func TestPartitionDeterministic(t *testing.T) {
	cfg := DefaultGridConfig()
	a := Partition(cfg, 1280, 720, 0.3, 500)
	b := Partition(cfg, 1280, 720, 0.3, 500)
	if a != b {
		t.Errorf("expected identical grids, got %+v and %+v", a, b)
	}
}

func TestCoordsIndexRoundTrip(t *testing.T) {
	g := Partition(DefaultGridConfig(), 300, 200, 0.1, 40)

	for idx := 0; idx < g.Count; idx++ {
		i, j, k := g.Coords(idx)
		if i >= g.DimX || j >= g.DimY || k >= g.DimZ {
			t.Fatalf("index %d out of grid: (%d,%d,%d)", idx, i, j, k)
		}
		if back := g.Index(i, j, k); back != idx {
			t.Fatalf("index %d -> (%d,%d,%d) -> %d", idx, i, j, k, back)
		}
	}
}

func TestClusterIndex(t *testing.T) {
	g := Partition(DefaultGridConfig(), 128, 128, 0.1, 100) // 2x2x20

	tests := []struct {
		name          string
		px, py, depth float32
		wantIdx       int
		wantOK        bool
	}{
		{"origin", 0, 0, 0, 0, true},
		{"right tile", 100, 10, 1, 1, true},
		{"bottom right far slice", 127, 127, 99.9, g.Index(1, 1, 19), true},
		{"past horizon", 10, 10, 100, 0, false},
		{"off screen", 128, 10, 1, 0, false},
		{"negative", -1, 10, 1, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, ok := g.ClusterIndex(tt.px, tt.py, tt.depth)
			if ok != tt.wantOK {
				t.Fatalf("expected ok=%v, got %v", tt.wantOK, ok)
			}
			if ok && idx != tt.wantIdx {
				t.Errorf("expected index %d, got %d", tt.wantIdx, idx)
			}
		})
	}
}

func TestSameProjectionIgnoresView(t *testing.T) {
	cfg := DefaultGridConfig()
	inv := math.Perspective(testFovY, 1, 0.1, 100).Inverse()

	a := NewFrustumState(cfg, 64, 64, 0.1, 100, inv, math.Identity())
	b := NewFrustumState(cfg, 64, 64, 0.1, 100, inv, math.Translate(5, 0, 0))
	if !a.SameProjection(b) {
		t.Error("view changes should not count as projection changes")
	}

	c := NewFrustumState(cfg, 65, 64, 0.1, 100, inv, math.Identity())
	if a.SameProjection(c) {
		t.Error("viewport resize should count as a projection change")
	}
}

func TestNewFrustumStateCapsFar(t *testing.T) {
	fs := NewFrustumState(DefaultGridConfig(), 0, 0, 0.1, 1000, math.Identity(), math.Identity())
	if fs.Far != DefaultHorizon {
		t.Errorf("expected far %d, got %f", DefaultHorizon, fs.Far)
	}
	if fs.Width != 1 || fs.Height != 1 {
		t.Errorf("expected viewport clamped to 1x1, got %dx%d", fs.Width, fs.Height)
	}
}

func TestNormalizedClampsHorizon(t *testing.T) {
	tests := []struct {
		horizon float32
		want    float32
	}{
		{-5, 1},
		{0, 1},
		{0.5, 1},
		{1, 1},
		{250, 250},
	}
	for _, tt := range tests {
		got := GridConfig{Horizon: tt.horizon}.Normalized().Horizon
		if got != tt.want {
			t.Errorf("horizon %f: expected %f, got %f", tt.horizon, tt.want, got)
		}
	}
}
