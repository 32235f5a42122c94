// Package scenefile loads light scenes for the culling runners.
//
// A scene is a YAML document with a camera and a list of lights:
//
//	camera:
//	  position: [0, 12, 40]
//	  target: [0, 0, 0]
//	  fov: 60
//	  near: 0.1
//	  far: 500
//	  orbit_speed: 0.2
//	lights:
//	  - name: brazier
//	    type: point
//	    position: [4, 1, -6]
//	    color: [1, 0.6, 0.2]
//	    range: 12
//	    intensity: 2
//	    orbit: {radius: 3, speed: 1.5}
package scenefile

import (
	"fmt"
	gomath "math"
	"math/rand"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/midgard-clusters/internal/engine/camera"
	"github.com/Faultbox/midgard-clusters/internal/engine/lighting"
	"github.com/Faultbox/midgard-clusters/internal/logger"
	"github.com/Faultbox/midgard-clusters/pkg/math"
)

// Scene is a decoded scene file.
type Scene struct {
	Camera CameraDef  `yaml:"camera"`
	Lights []LightDef `yaml:"lights"`
}

// CameraDef places the camera.
type CameraDef struct {
	Position   [3]float32 `yaml:"position"`
	Target     [3]float32 `yaml:"target"`
	FOV        float32    `yaml:"fov"` // degrees
	Near       float32    `yaml:"near"`
	Far        float32    `yaml:"far"`
	OrbitSpeed float32    `yaml:"orbit_speed"` // radians per second around target
}

// LightDef is one light entry.
type LightDef struct {
	Name      string     `yaml:"name"`
	Type      string     `yaml:"type"` // point (default), spot, directional
	Position  [3]float32 `yaml:"position"`
	Direction [3]float32 `yaml:"direction"`
	Color     [3]float32 `yaml:"color"`
	Range     float32    `yaml:"range"`
	Intensity float32    `yaml:"intensity"`
	Orbit     *Orbit     `yaml:"orbit"`
}

// Orbit animates a light on a horizontal circle around its position.
type Orbit struct {
	Radius float32 `yaml:"radius"`
	Speed  float32 `yaml:"speed"` // radians per second
	Phase  float32 `yaml:"phase"`
}

// Load reads and validates a scene file.
func Load(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scene: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("loading scene %s: %w", filepath.Base(path), err)
	}
	return s, nil
}

// Parse decodes and validates a scene document.
func Parse(data []byte) (*Scene, error) {
	var s Scene
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	if err := s.normalize(); err != nil {
		return nil, err
	}
	return &s, nil
}

// normalize fills defaults. Lights with a non-positive range are kept: the
// culler counts and drops them, so they show up in its stats.
func (s *Scene) normalize() error {
	proj := camera.DefaultProjection()
	if s.Camera.FOV <= 0 || s.Camera.FOV >= 180 {
		s.Camera.FOV = 60
	}
	if s.Camera.Near <= 0 {
		s.Camera.Near = proj.Near
	}
	if s.Camera.Far <= s.Camera.Near {
		s.Camera.Far = proj.Far
	}
	if s.Camera.Position == s.Camera.Target {
		s.Camera.Position = [3]float32{0, 10, 40}
		s.Camera.Target = [3]float32{}
	}

	for i := range s.Lights {
		l := &s.Lights[i]
		if _, err := lighting.ParseType(l.Type); err != nil {
			return fmt.Errorf("light %d (%s): %w", i, l.Name, err)
		}
		if l.Color == ([3]float32{}) {
			l.Color = [3]float32{1, 1, 1}
		}
		if l.Intensity <= 0 {
			l.Intensity = 1
		}
		if l.Range <= 0 {
			logger.Warn("light has no range",
				zap.Int("index", i),
				zap.String("name", l.Name),
				zap.Float32("range", l.Range),
			)
		}
	}
	return nil
}

// Projection returns the camera lens.
func (s *Scene) Projection() camera.Projection {
	return camera.Projection{
		FOV:  camera.Radians(s.Camera.FOV),
		Near: s.Camera.Near,
		Far:  s.Camera.Far,
	}
}

// OrbitCamera returns a camera placed as the scene describes.
func (s *Scene) OrbitCamera() *camera.OrbitCamera {
	c := camera.NewOrbitCameraAt(vec(s.Camera.Position), vec(s.Camera.Target))
	c.AutoYaw = s.Camera.OrbitSpeed
	return c
}

// LightsAt evaluates the lights at time t seconds into dst.
func (s *Scene) LightsAt(t float32, dst []lighting.Light) []lighting.Light {
	dst = dst[:0]
	for i := range s.Lights {
		def := &s.Lights[i]
		typ, _ := lighting.ParseType(def.Type)

		pos := vec(def.Position)
		if o := def.Orbit; o != nil && o.Radius > 0 {
			a := float64(o.Phase + o.Speed*t)
			pos.X += o.Radius * float32(gomath.Cos(a))
			pos.Z += o.Radius * float32(gomath.Sin(a))
		}

		dst = append(dst, lighting.Light{
			Type:      typ,
			Position:  pos,
			Direction: vec(def.Direction),
			Color:     vec(def.Color),
			Range:     def.Range,
			Intensity: def.Intensity,
		})
	}
	return dst
}

// Bounds returns the box spanned by the light positions and the camera target.
func (s *Scene) Bounds() (lo, hi math.Vec3) {
	lo = vec(s.Camera.Target)
	hi = lo
	for i := range s.Lights {
		p := vec(s.Lights[i].Position)
		lo = lo.Min(p)
		hi = hi.Max(p)
	}
	return lo, hi
}

// Random builds a scene of n animated point lights scattered over a square
// of the given half extent. The same seed always gives the same scene.
func Random(n int, seed int64, extent float32) *Scene {
	rng := rand.New(rand.NewSource(seed))
	f := func(lo, hi float32) float32 {
		return lo + rng.Float32()*(hi-lo)
	}

	s := &Scene{
		Camera: CameraDef{
			Position:   [3]float32{0, extent * 0.5, extent * 1.5},
			Target:     [3]float32{0, 0, 0},
			OrbitSpeed: 0.1,
		},
		Lights: make([]LightDef, 0, n),
	}
	for i := 0; i < n; i++ {
		s.Lights = append(s.Lights, LightDef{
			Name:     fmt.Sprintf("light%03d", i),
			Type:     lighting.TypePoint.String(),
			Position: [3]float32{f(-extent, extent), f(0, 4), f(-extent, extent)},
			Color:    [3]float32{f(0.2, 1), f(0.2, 1), f(0.2, 1)},
			Range:    f(2, 10),
			Orbit: &Orbit{
				Radius: f(0, 4),
				Speed:  f(-1.5, 1.5),
				Phase:  f(0, 2*gomath.Pi),
			},
		})
	}
	// Random never produces invalid entries.
	_ = s.normalize()
	return s
}

func vec(a [3]float32) math.Vec3 {
	return math.Vec3{X: a[0], Y: a[1], Z: a[2]}
}
