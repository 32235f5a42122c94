// Package config handles culler configuration loading and management.
package config

import (
	"time"

	"github.com/Faultbox/midgard-clusters/internal/cluster"
)

// Config holds all runner settings.
type Config struct {
	Clustering ClusteringConfig `yaml:"clustering"`
	Parallel   ParallelConfig   `yaml:"parallel"`
	Viewer     ViewerConfig     `yaml:"viewer"`
	Run        RunConfig        `yaml:"run"`
	Capture    CaptureConfig    `yaml:"capture"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ClusteringConfig holds the culling grid settings.
type ClusteringConfig struct {
	CellSizeX           int     `yaml:"cell_size_x"`
	CellSizeY           int     `yaml:"cell_size_y"`
	SliceDepth          float32 `yaml:"slice_depth"`
	Horizon             float32 `yaml:"horizon"` // clamped to >= 1
	MaxLightsPerCluster int     `yaml:"max_lights_per_cluster"`
	MaxLights           int     `yaml:"max_lights"`
	Layout              string  `yaml:"layout"` // compact | fixed
}

// ParallelConfig selects the executor the culler runs on.
type ParallelConfig struct {
	Backend string `yaml:"backend"` // serial | goroutines | pool
	Workers int    `yaml:"workers"` // 0 = runtime default
	Grain   int    `yaml:"grain"`   // min clusters per task
}

// ViewerConfig holds window settings for the interactive viewer.
type ViewerConfig struct {
	Width     int     `yaml:"width"`
	Height    int     `yaml:"height"`
	VSync     bool    `yaml:"vsync"`
	FPSLimit  int     `yaml:"fps_limit"`
	FOV       float32 `yaml:"fov"` // degrees, used when the scene has none
	ShowStats bool    `yaml:"show_stats"`
}

// RunConfig holds headless runner settings.
type RunConfig struct {
	Scene     string        `yaml:"scene"`
	Frames    int           `yaml:"frames"`
	TimeStep  time.Duration `yaml:"time_step"`
	StatsEach int           `yaml:"stats_each"` // log stats every N frames, 0 = summary only
}

// CaptureConfig holds frame capture settings.
type CaptureConfig struct {
	Path  string `yaml:"path"`  // empty disables capture
	Every int    `yaml:"every"` // capture every N-th frame
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	grid := cluster.DefaultGridConfig()
	return &Config{
		Clustering: ClusteringConfig{
			CellSizeX:           grid.CellSizeX,
			CellSizeY:           grid.CellSizeY,
			SliceDepth:          grid.SliceDepth,
			Horizon:             grid.Horizon,
			MaxLightsPerCluster: grid.MaxLightsPerCluster,
			MaxLights:           grid.MaxLights,
			Layout:              grid.Layout.String(),
		},
		Parallel: ParallelConfig{
			Backend: cluster.BackendGoroutines,
			Workers: 0,
			Grain:   cluster.DefaultGrain,
		},
		Viewer: ViewerConfig{
			Width:     1280,
			Height:    720,
			VSync:     true,
			FPSLimit:  0,
			FOV:       60,
			ShowStats: true,
		},
		Run: RunConfig{
			Scene:     "",
			Frames:    120,
			TimeStep:  16 * time.Millisecond,
			StatsEach: 0,
		},
		Capture: CaptureConfig{
			Path:  "",
			Every: 1,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// GridConfig converts the clustering section to the culler's config.
// Sizes are clamped later by the culler; only the layout name can fail.
func (c *Config) GridConfig() (cluster.GridConfig, error) {
	layout, err := cluster.ParseLayout(c.Clustering.Layout)
	if err != nil {
		return cluster.GridConfig{}, err
	}
	return cluster.GridConfig{
		CellSizeX:           c.Clustering.CellSizeX,
		CellSizeY:           c.Clustering.CellSizeY,
		SliceDepth:          c.Clustering.SliceDepth,
		Horizon:             c.Clustering.Horizon,
		MaxLightsPerCluster: c.Clustering.MaxLightsPerCluster,
		MaxLights:           c.Clustering.MaxLights,
		Layout:              layout,
	}, nil
}

// Executor builds the executor selected by the parallel section.
func (c *Config) Executor() (cluster.Executor, error) {
	return cluster.NewExecutor(c.Parallel.Backend, c.Parallel.Workers, c.Parallel.Grain)
}
