package cluster

import (
	gomath "math"

	"github.com/Faultbox/midgard-clusters/internal/engine/lighting"
	"github.com/Faultbox/midgard-clusters/pkg/math"
)

const testFovY = float32(gomath.Pi / 2) // tan(fov/2) == 1

// testConfig is a grid with one depth slice over [0, 100].
func testConfig(cell int) GridConfig {
	cfg := DefaultGridConfig()
	cfg.CellSizeX = cell
	cfg.CellSizeY = cell
	cfg.SliceDepth = 100
	cfg.Horizon = 100
	return cfg
}

func testInput(width, height int, far float32, lights ...lighting.Light) FrameInput {
	proj := math.Perspective(testFovY, float32(width)/float32(height), 0.1, far)
	return FrameInput{
		Width:             width,
		Height:            height,
		Near:              0.1,
		Far:               far,
		View:              math.Identity(),
		InverseProjection: proj.Inverse(),
		Lights:            lights,
	}
}

// pointAt places a point light at view position (x, y) and positive depth,
// assuming an identity view matrix.
func pointAt(x, y, depth, r float32) lighting.Light {
	return lighting.Light{
		Type:     lighting.TypePoint,
		Position: math.Vec3{X: x, Y: y, Z: -depth},
		Color:    math.Vec3{X: 1, Y: 1, Z: 1},
		Range:    r,
	}
}

func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

func approx(a, b, eps float32) bool {
	return absf(a-b) <= eps
}

func finite(v math.Vec3) bool {
	for _, c := range []float32{v.X, v.Y, v.Z} {
		f := float64(c)
		if gomath.IsNaN(f) || gomath.IsInf(f, 0) {
			return false
		}
	}
	return true
}
