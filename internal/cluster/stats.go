package cluster

import (
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Stats describes one culling frame. Truncation never fails a frame; these
// counters are the only place it shows up.
type Stats struct {
	Frame   uint64
	Rebuilt bool // grid and bounds were regenerated this frame

	Clusters      int
	PointLights   int // lights in the snapshot
	SeenLights    int // point lights offered by the scene
	DroppedLights int // point lights past MaxLights
	InvalidLights int // point lights with a non-positive range

	Assignments        int // published light indices
	DroppedAssignments int // hits past MaxLightsPerCluster
	ActiveClusters     int // clusters with at least one light
	MaxClusterLights   int

	BuildTime   time.Duration
	AssignTime  time.Duration
	CompactTime time.Duration
}

// Truncated reports whether any light or assignment was dropped.
func (s Stats) Truncated() bool {
	return s.DroppedLights > 0 || s.DroppedAssignments > 0
}

// MarshalLogObject lets Stats be logged with zap.Object.
func (s Stats) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddUint64("frame", s.Frame)
	enc.AddBool("rebuilt", s.Rebuilt)
	enc.AddInt("clusters", s.Clusters)
	enc.AddInt("lights", s.PointLights)
	enc.AddInt("seen_lights", s.SeenLights)
	enc.AddInt("dropped_lights", s.DroppedLights)
	enc.AddInt("invalid_lights", s.InvalidLights)
	enc.AddInt("assignments", s.Assignments)
	enc.AddInt("dropped_assignments", s.DroppedAssignments)
	enc.AddInt("active_clusters", s.ActiveClusters)
	enc.AddInt("max_cluster_lights", s.MaxClusterLights)
	enc.AddDuration("assign", s.AssignTime)
	enc.AddDuration("compact", s.CompactTime)
	if s.Rebuilt {
		enc.AddDuration("build", s.BuildTime)
	}
	return nil
}

// Field is a shorthand for zap.Object("stats", s).
func (s Stats) Field() zap.Field {
	return zap.Object("stats", s)
}

// summarize folds the per-cluster counters. It runs after the parallel pass,
// so no synchronization is needed.
func summarize(a *Assignment, s *Stats) {
	s.DroppedAssignments = 0
	s.ActiveClusters = 0
	s.MaxClusterLights = 0
	for idx, c := range a.Counts {
		s.DroppedAssignments += int(a.Overflow[idx])
		if c > 0 {
			s.ActiveClusters++
			s.MaxClusterLights = max(s.MaxClusterLights, int(c))
		}
	}
}
