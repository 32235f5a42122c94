package config

import "flag"

var (
	flagConfig  = flag.String("config", "", "Path to config file")
	flagDebug   = flag.Bool("debug", false, "Enable debug logging")
	flagWidth   = flag.Int("width", 0, "Viewport width")
	flagHeight  = flag.Int("height", 0, "Viewport height")
	flagBackend = flag.String("backend", "", "Parallel backend: serial, goroutines or pool")
	flagWorkers = flag.Int("workers", 0, "Worker count for the parallel backend")
	flagFrames  = flag.Int("frames", 0, "Frames to run in headless mode")
	flagScene   = flag.String("scene", "", "Scene file with camera and lights")
	flagCapture = flag.String("capture", "", "Write a frame capture to this path")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
		cfg.Viewer.ShowStats = true
	}
	if *flagWidth > 0 {
		cfg.Viewer.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Viewer.Height = *flagHeight
	}
	if *flagBackend != "" {
		cfg.Parallel.Backend = *flagBackend
	}
	if *flagWorkers > 0 {
		cfg.Parallel.Workers = *flagWorkers
	}
	if *flagFrames > 0 {
		cfg.Run.Frames = *flagFrames
	}
	if *flagScene != "" {
		cfg.Run.Scene = *flagScene
	}
	if *flagCapture != "" {
		cfg.Capture.Path = *flagCapture
	}
}
