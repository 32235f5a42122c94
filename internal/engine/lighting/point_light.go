// Package lighting provides scene light descriptions and the per-frame point
// light snapshot consumed by the cluster culler.
package lighting

import (
	"fmt"
	"strings"

	"github.com/Faultbox/midgard-clusters/pkg/math"
)

// DefaultMaxLights is the default snapshot capacity.
const DefaultMaxLights = 100

// Type identifies the kind of light source.
type Type int

const (
	// TypeDirectional has no position. Never clustered.
	TypeDirectional Type = iota
	// TypePoint emits in all directions up to Range.
	TypePoint
	// TypeSpot emits in a cone. Never clustered.
	TypeSpot
)

// String returns the lowercase name used in scene files.
func (t Type) String() string {
	switch t {
	case TypeDirectional:
		return "directional"
	case TypePoint:
		return "point"
	case TypeSpot:
		return "spot"
	default:
		return fmt.Sprintf("type(%d)", int(t))
	}
}

// ParseType converts a scene-file name to a Type.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "point":
		return TypePoint, nil
	case "directional", "sun":
		return TypeDirectional, nil
	case "spot":
		return TypeSpot, nil
	default:
		return 0, fmt.Errorf("unknown light type %q", s)
	}
}

// Light is a scene light as reported by the scene each frame.
type Light struct {
	Type      Type
	Position  math.Vec3 // World position
	Direction math.Vec3 // Spot/directional only
	Color     math.Vec3 // RGB color (0-1 range)
	Range     float32   // Light radius/falloff distance
	Intensity float32   // Light intensity multiplier
}

// PointLight is the culling view of a point light.
type PointLight struct {
	Position math.Vec3 // World position
	Range    float32   // Culling sphere radius
	Color    math.Vec3 // Final color, carried through to shading
}

// Snapshot holds the point lights captured for one frame.
// Its indices are the values stored in the cluster index list.
type Snapshot struct {
	Lights []PointLight

	max int

	// Seen counts point lights offered this frame, kept or not.
	Seen int
	// Dropped counts point lights rejected because the snapshot was full.
	Dropped int
	// Invalid counts point lights rejected for a non-positive range.
	Invalid int
}

// NewSnapshot creates an empty snapshot holding at most max lights.
func NewSnapshot(max int) *Snapshot {
	if max < 1 {
		max = 1
	}
	return &Snapshot{
		Lights: make([]PointLight, 0, max),
		max:    max,
	}
}

// Max returns the snapshot capacity.
func (s *Snapshot) Max() int {
	return s.max
}

// Count returns the number of captured lights.
func (s *Snapshot) Count() int {
	return len(s.Lights)
}

// Clear removes all lights and resets the counters.
func (s *Snapshot) Clear() {
	s.Lights = s.Lights[:0]
	s.Seen = 0
	s.Dropped = 0
	s.Invalid = 0
}

// Add appends a point light. Returns false if the snapshot is full.
func (s *Snapshot) Add(light PointLight) bool {
	s.Seen++
	if light.Range <= 0 {
		s.Invalid++
		return false
	}
	if len(s.Lights) >= s.max {
		s.Dropped++
		return false
	}
	s.Lights = append(s.Lights, light)
	return true
}

// Capture replaces the snapshot with the point lights in lights, keeping
// encounter order. Lights past the capacity are dropped.
func (s *Snapshot) Capture(lights []Light) int {
	s.Clear()
	for i := range lights {
		l := &lights[i]
		if l.Type != TypePoint {
			continue
		}
		s.Add(PointLight{
			Position: l.Position,
			Range:    l.Range,
			Color:    finalColor(l.Color, l.Intensity),
		})
	}
	return len(s.Lights)
}

// finalColor folds intensity into color. Zero intensity means "unset".
func finalColor(c math.Vec3, intensity float32) math.Vec3 {
	if intensity <= 0 {
		return c
	}
	return c.Scale(intensity)
}
