package cluster

import (
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-clusters/internal/engine/lighting"
	"github.com/Faultbox/midgard-clusters/internal/logger"
	"github.com/Faultbox/midgard-clusters/pkg/math"
)

// State is the orchestrator lifecycle state.
type State int

const (
	// StateUninitialized means the grid and bounds must be (re)built.
	StateUninitialized State = iota
	// StateReady means the bounds match the current viewport and projection.
	StateReady
)

// String returns the state name.
func (s State) String() string {
	if s == StateReady {
		return "ready"
	}
	return "uninitialized"
}

// FrameInput is what the scene and camera provide each frame.
type FrameInput struct {
	Width, Height     int
	Near, Far         float32
	View              math.Mat4 // world to view
	InverseProjection math.Mat4
	Lights            []lighting.Light

	// FreezeView culls against the last view matrix used instead of View.
	// Lets a debugger fly the camera around frozen culling results.
	FreezeView bool
}

// Frame is the published result of one culling run. Every slice is owned by
// the orchestrator and overwritten by the next Frame call.
type Frame struct {
	Grid    Grid
	Bounds  []AABB
	Ranges  []LightIndexRange
	Indices []uint32
	Lights  []lighting.PointLight
	View    math.Mat4 // the view matrix lights were culled with
	Layout  Layout
	Stats   Stats
}

// LightsFor returns the light indices of cluster idx.
func (f *Frame) LightsFor(idx int) []uint32 {
	if idx < 0 || idx >= len(f.Ranges) {
		return nil
	}
	r := f.Ranges[idx]
	return f.Indices[r.Start : r.Start+r.Count]
}

// Uniforms returns the GPU uniform block for this frame.
func (f *Frame) Uniforms() GPUClusterUniforms {
	return NewGPUClusterUniforms(f.Grid, len(f.Lights))
}

// Orchestrator runs the culling pipeline frame after frame. The grid and
// bounds are rebuilt only when the viewport or projection changes; lights are
// assigned and compacted every frame. Not safe for concurrent use.
type Orchestrator struct {
	cfg  GridConfig
	exec Executor

	state   State
	frustum FrustumState
	grid    Grid
	bounds  []AABB

	assign  *Assignment
	ranges  []LightIndexRange
	flat    []uint32
	spheres []Sphere

	snapshot *lighting.Snapshot
	view     math.Mat4
	haveView bool

	frame    Frame
	frameNo  uint64
	skipping bool
}

// NewOrchestrator creates an orchestrator. exec may be nil, in which case
// frames are skipped until SetExecutor binds one.
func NewOrchestrator(cfg GridConfig, exec Executor) *Orchestrator {
	cfg = cfg.Normalized()
	return &Orchestrator{
		cfg:      cfg,
		exec:     exec,
		snapshot: lighting.NewSnapshot(cfg.MaxLights),
	}
}

// SetExecutor binds (or with nil, unbinds) the parallel executor.
func (o *Orchestrator) SetExecutor(exec Executor) {
	o.exec = exec
}

// Config returns the normalized grid config.
func (o *Orchestrator) Config() GridConfig {
	return o.cfg
}

// State returns the lifecycle state.
func (o *Orchestrator) State() State {
	return o.state
}

// Grid returns the current grid. Zero until the first frame.
func (o *Orchestrator) Grid() Grid {
	return o.grid
}

// Bounds returns the current cluster bounds.
func (o *Orchestrator) Bounds() []AABB {
	return o.bounds
}

// Invalidate forces a grid rebuild on the next frame.
func (o *Orchestrator) Invalidate() {
	o.state = StateUninitialized
}

// Frame runs one culling frame. ok is false when the frame was skipped
// because no executor is bound; nothing is published in that case.
func (o *Orchestrator) Frame(in FrameInput) (frame *Frame, ok bool) {
	if o.exec == nil {
		if !o.skipping {
			logger.Warn("cluster culling skipped: no executor bound")
			o.skipping = true
		}
		return nil, false
	}
	if o.skipping {
		logger.Info("cluster culling resumed")
		o.skipping = false
	}

	o.frameNo++
	stats := Stats{Frame: o.frameNo}

	fs := NewFrustumState(o.cfg, in.Width, in.Height, in.Near, in.Far, in.InverseProjection, in.View)
	if o.state == StateReady && !o.frustum.SameProjection(fs) {
		o.state = StateUninitialized
	}
	if o.state == StateUninitialized {
		start := time.Now()
		o.rebuild(fs)
		stats.Rebuilt = true
		stats.BuildTime = time.Since(start)
	}
	o.frustum.View = in.View

	if !in.FreezeView || !o.haveView {
		o.view = in.View
		o.haveView = true
	}

	o.snapshot.Capture(in.Lights)
	lights := o.snapshot.Lights

	start := time.Now()
	o.spheres = ViewSpheres(o.view, lights, o.spheres)
	AssignLights(o.exec, o.bounds, o.spheres, o.assign)
	stats.AssignTime = time.Since(start)

	start = time.Now()
	var indices []uint32
	if o.cfg.Layout == LayoutFixedStride {
		indices = FixedStride(o.assign, o.ranges)
	} else {
		o.flat = Compact(o.exec, o.assign, o.ranges, o.flat)
		indices = o.flat
	}
	stats.CompactTime = time.Since(start)

	summarize(o.assign, &stats)
	stats.Clusters = o.grid.Count
	stats.PointLights = len(lights)
	stats.SeenLights = o.snapshot.Seen
	stats.DroppedLights = o.snapshot.Dropped
	stats.InvalidLights = o.snapshot.Invalid
	for _, r := range o.ranges {
		stats.Assignments += int(r.Count)
	}

	if stats.Truncated() {
		logger.Debug("cluster capacity exceeded",
			zap.Int("dropped_lights", stats.DroppedLights),
			zap.Int("dropped_assignments", stats.DroppedAssignments),
		)
	}
	if logger.DebugEnabled() {
		logger.Debug("cluster frame", stats.Field())
	}

	o.frame = Frame{
		Grid:    o.grid,
		Bounds:  o.bounds,
		Ranges:  o.ranges,
		Indices: indices,
		Lights:  lights,
		View:    o.view,
		Layout:  o.cfg.Layout,
		Stats:   stats,
	}
	return &o.frame, true
}

// rebuild partitions the grid, regenerates bounds and reallocates every
// buffer sized by the cluster count.
func (o *Orchestrator) rebuild(fs FrustumState) {
	o.frustum = fs
	o.grid = PartitionFrustum(o.cfg, fs)
	o.bounds = GenerateBounds(o.exec, o.grid, fs.InverseProjection, nil)
	o.assign = NewAssignment(o.grid.Count, o.cfg.MaxLightsPerCluster)
	o.ranges = make([]LightIndexRange, o.grid.Count)
	o.flat = o.flat[:0]
	o.state = StateReady

	logger.Info("cluster grid rebuilt",
		zap.Int("width", fs.Width),
		zap.Int("height", fs.Height),
		zap.Int("dim_x", o.grid.DimX),
		zap.Int("dim_y", o.grid.DimY),
		zap.Int("dim_z", o.grid.DimZ),
		zap.Int("clusters", o.grid.Count),
		zap.Float32("far", o.grid.Far),
	)
}
