// Package main is the interactive cluster viewer. It culls the scene lights
// every frame at the window's drawable size and draws the per-cluster results
// from the uploaded GPU tables.
//
// Keys: F freeze culling view, Space pause lights, M heat/color mode,
// [ ] select depth slice, 0 all slices, B cluster boxes, P screenshot,
// R fit camera to scene, Esc quit. Drag to orbit, wheel to zoom, WASD/Z/X pan.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-clusters/internal/cluster"
	"github.com/Faultbox/midgard-clusters/internal/config"
	"github.com/Faultbox/midgard-clusters/internal/engine/clusterbuf"
	"github.com/Faultbox/midgard-clusters/internal/engine/debug"
	"github.com/Faultbox/midgard-clusters/internal/engine/lighting"
	"github.com/Faultbox/midgard-clusters/internal/engine/shader"
	"github.com/Faultbox/midgard-clusters/internal/engine/window"
	"github.com/Faultbox/midgard-clusters/internal/logger"
	"github.com/Faultbox/midgard-clusters/internal/scenefile"
)

const (
	windowTitle    = "Midgard Clusters"
	uniformBinding = 0
	firstTexUnit   = 0
	titleInterval  = 500 * time.Millisecond
	screenshotDir  = "screenshots"
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== Midgard Clusters (viewer) ===")

	if err := run(cfg); err != nil {
		logger.Error("viewer error", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("viewer closed normally")
}

func run(cfg *config.Config) error {
	scene := scenefile.Random(256, 1, 60)
	if cfg.Run.Scene != "" {
		s, err := scenefile.Load(cfg.Run.Scene)
		if err != nil {
			return err
		}
		scene = s
	}

	gridCfg, err := cfg.GridConfig()
	if err != nil {
		return err
	}
	exec, err := cfg.Executor()
	if err != nil {
		return err
	}
	defer cluster.CloseExecutor(exec)

	win, err := window.New(window.Config{
		Title:  windowTitle,
		Width:  cfg.Viewer.Width,
		Height: cfg.Viewer.Height,
		VSync:  cfg.Viewer.VSync,
	})
	if err != nil {
		return err
	}
	defer win.Close()

	if err := gl.Init(); err != nil {
		return fmt.Errorf("OpenGL init failed: %w", err)
	}
	logger.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	program, err := shader.CompileProgram(vertexShader, fragmentShader)
	if err != nil {
		return fmt.Errorf("compiling cluster shader: %w", err)
	}
	defer gl.DeleteProgram(program)

	shader.BindSamplers(program, map[string]int32{
		"u_ranges":  firstTexUnit,
		"u_indices": firstTexUnit + 1,
		"u_lights":  firstTexUnit + 2,
	})
	if err := shader.BindUniformBlock(program, clusterbuf.UniformBlockName, uniformBinding); err != nil {
		return err
	}
	locSlice := shader.GetUniform(program, "u_slice")
	locMode := shader.GetUniform(program, "u_mode")
	locCapacity := shader.GetUniform(program, "u_capacity")

	// Core profile needs a bound VAO even without attributes.
	var vao uint32
	gl.GenVertexArrays(1, &vao)
	defer gl.DeleteVertexArrays(1, &vao)

	up := clusterbuf.NewUploader()
	defer up.Close()

	boxes, err := newBoxOverlay()
	if err != nil {
		return err
	}
	defer boxes.close()

	shots := debug.NewScreenshotCapture(screenshotDir, "clusters")

	orch := cluster.NewOrchestrator(gridCfg, exec)
	cam := scene.OrbitCamera()
	proj := scene.Projection()
	ctl := newControls()

	width, height := win.DrawableSize()
	gl.Viewport(0, 0, int32(width), int32(height))

	var (
		lights    []lighting.Light
		animTime  float32
		last      = time.Now()
		lastTitle time.Time
	)

	for !ctl.quit {
		for _, e := range win.PollEvents() {
			switch e.Type {
			case window.EventQuit:
				ctl.quit = true
			case window.EventResize:
				width, height = e.Width, e.Height
				gl.Viewport(0, 0, int32(width), int32(height))
			case window.EventKeyDown:
				ctl.handleKey(e.Key, orch.Grid().DimZ)
			case window.EventDrag:
				cam.HandleDrag(e.DX, e.DY)
			case window.EventWheel:
				cam.HandleZoom(e.DY)
			}
		}

		now := time.Now()
		dt := float32(now.Sub(last).Seconds())
		last = now
		if !ctl.paused {
			animTime += dt
		}
		if ctl.fit {
			ctl.fit = false
			cam.FitToBounds(scene.Bounds())
		}
		cam.HandleMovement(movement(sdl.GetKeyboardState()))
		cam.Update(dt)
		lights = scene.LightsAt(animTime, lights)

		projMat, inv := proj.Matrices(width, height)
		view := cam.ViewMatrix()
		f, ok := orch.Frame(cluster.FrameInput{
			Width:             width,
			Height:            height,
			Near:              proj.Near,
			Far:               proj.Far,
			View:              view,
			InverseProjection: inv,
			Lights:            lights,
			FreezeView:        ctl.freeze,
		})
		if !ok {
			continue
		}
		if err := up.Publish(f); err != nil {
			return err
		}

		gl.ClearColor(0, 0, 0, 1)
		gl.Clear(gl.COLOR_BUFFER_BIT)
		gl.UseProgram(program)
		up.Bind(firstTexUnit, uniformBinding)
		gl.Uniform1i(locSlice, ctl.slice)
		gl.Uniform1i(locMode, ctl.mode)
		gl.Uniform1f(locCapacity, float32(gridCfg.Normalized().MaxLightsPerCluster))
		gl.BindVertexArray(vao)
		gl.DrawArrays(gl.TRIANGLES, 0, 3)

		if ctl.boxes || ctl.freeze {
			boxes.draw(f, ctl.slice, boxClip(projMat, view, f.View))
		}
		if ctl.shot {
			ctl.shot = false
			saveScreenshot(shots, width, height)
		}

		win.SwapBuffers()

		if cfg.Viewer.ShowStats && now.Sub(lastTitle) >= titleInterval {
			lastTitle = now
			win.SetTitle(fmt.Sprintf("%s | gpu %d KiB", title(f, ctl), up.Bytes()/1024))
		}
	}
	return nil
}

func saveScreenshot(sc *debug.ScreenshotCapture, width, height int) {
	pixels := make([]byte, width*height*4)
	gl.ReadPixels(0, 0, int32(width), int32(height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	path, err := sc.CaptureFromPixels(pixels, width, height)
	if err != nil {
		logger.Warn("screenshot failed", zap.Error(err))
		return
	}
	logger.Info("screenshot saved", zap.String("path", path))
}

func title(f *cluster.Frame, ctl controls) string {
	s := f.Stats
	t := fmt.Sprintf("%s | %dx%dx%d | lights %d | assigned %d | assign %s compact %s",
		windowTitle, f.Grid.DimX, f.Grid.DimY, f.Grid.DimZ,
		s.PointLights, s.Assignments,
		s.AssignTime.Round(time.Microsecond), s.CompactTime.Round(time.Microsecond))
	if s.Truncated() {
		t += fmt.Sprintf(" | dropped %d", s.DroppedAssignments+s.DroppedLights)
	}
	if ctl.freeze {
		t += " | frozen"
	}
	if ctl.slice >= 0 {
		t += fmt.Sprintf(" | slice %d", ctl.slice)
	}
	return t
}
