package main

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Faultbox/midgard-clusters/internal/capture"
	"github.com/Faultbox/midgard-clusters/internal/cluster"
	"github.com/Faultbox/midgard-clusters/internal/config"
	"github.com/Faultbox/midgard-clusters/internal/engine/camera"
	"github.com/Faultbox/midgard-clusters/internal/engine/lighting"
	"github.com/Faultbox/midgard-clusters/internal/logger"
	"github.com/Faultbox/midgard-clusters/internal/scenefile"
)

// frameSink receives published frames. *capture.Writer is the real one.
type frameSink interface {
	Write(f *cluster.Frame) error
}

var _ frameSink = (*capture.Writer)(nil)

// runner drives the orchestrator over an animated scene.
type runner struct {
	exec    cluster.Executor
	orch    *cluster.Orchestrator
	scene   *scenefile.Scene
	cam     *camera.OrbitCamera
	proj    camera.Projection
	lights  []lighting.Light
	capture frameSink

	width, height int
	step          time.Duration
	statsEach     int
	captureEach   int
}

func newRunner(cfg *config.Config, scene *scenefile.Scene) (*runner, error) {
	gridCfg, err := cfg.GridConfig()
	if err != nil {
		return nil, err
	}
	exec, err := cfg.Executor()
	if err != nil {
		return nil, err
	}

	logger.Info("culler configured",
		zap.String("backend", cfg.Parallel.Backend),
		zap.Int("workers", cfg.Parallel.Workers),
		zap.Stringer("layout", gridCfg.Layout),
		zap.Int("max_lights", gridCfg.MaxLights),
	)

	return &runner{
		exec:        exec,
		orch:        cluster.NewOrchestrator(gridCfg, exec),
		scene:       scene,
		cam:         scene.OrbitCamera(),
		proj:        scene.Projection(),
		width:       cfg.Viewer.Width,
		height:      cfg.Viewer.Height,
		step:        cfg.Run.TimeStep,
		statsEach:   cfg.Run.StatsEach,
		captureEach: max(cfg.Capture.Every, 1),
	}, nil
}

func (r *runner) close() {
	cluster.CloseExecutor(r.exec)
}

// summary aggregates stats over a run.
type summary struct {
	Frames          int
	Rebuilds        int
	TruncatedFrames int
	MaxAssignments  int
	MaxClusterLight int
	Captured        int
	Assign          time.Duration
	Compact         time.Duration
}

func (s *summary) add(st cluster.Stats) {
	s.Frames++
	if st.Rebuilt {
		s.Rebuilds++
	}
	if st.Truncated() {
		s.TruncatedFrames++
	}
	s.MaxAssignments = max(s.MaxAssignments, st.Assignments)
	s.MaxClusterLight = max(s.MaxClusterLight, st.MaxClusterLights)
	s.Assign += st.AssignTime
	s.Compact += st.CompactTime
}

// MarshalLogObject implements zapcore.ObjectMarshaler.
func (s summary) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddInt("frames", s.Frames)
	enc.AddInt("rebuilds", s.Rebuilds)
	enc.AddInt("truncated_frames", s.TruncatedFrames)
	enc.AddInt("max_assignments", s.MaxAssignments)
	enc.AddInt("max_cluster_lights", s.MaxClusterLight)
	enc.AddInt("captured", s.Captured)
	if s.Frames > 0 {
		enc.AddDuration("avg_assign", s.Assign/time.Duration(s.Frames))
		enc.AddDuration("avg_compact", s.Compact/time.Duration(s.Frames))
	}
	return nil
}

// Run culls frames frames and returns the aggregate.
func (r *runner) Run(frames int) (summary, error) {
	var sum summary
	dt := float32(r.step.Seconds())

	for i := 0; i < frames; i++ {
		t := float32(i) * dt
		r.cam.Update(dt)
		r.lights = r.scene.LightsAt(t, r.lights)

		_, inv := r.proj.Matrices(r.width, r.height)
		f, ok := r.orch.Frame(cluster.FrameInput{
			Width:             r.width,
			Height:            r.height,
			Near:              r.proj.Near,
			Far:               r.proj.Far,
			View:              r.cam.ViewMatrix(),
			InverseProjection: inv,
			Lights:            r.lights,
		})
		if !ok {
			continue
		}
		sum.add(f.Stats)

		if r.statsEach > 0 && i%r.statsEach == 0 {
			logger.Info("frame", f.Stats.Field())
		}
		if r.capture != nil && i%r.captureEach == 0 {
			if err := r.capture.Write(f); err != nil {
				return sum, fmt.Errorf("capturing frame %d: %w", f.Stats.Frame, err)
			}
			sum.Captured++
		}
	}
	return sum, nil
}
