// Package main is the headless light culling runner. It animates a scene for a
// fixed number of frames, logs culling stats and optionally records a capture.
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-clusters/internal/capture"
	"github.com/Faultbox/midgard-clusters/internal/config"
	"github.com/Faultbox/midgard-clusters/internal/logger"
	"github.com/Faultbox/midgard-clusters/internal/scenefile"
)

const (
	randomLights = 256
	randomSeed   = 1
	randomExtent = 60
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

	logger.Info("=== Midgard Clusters (headless) ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	if err := run(cfg); err != nil {
		logger.Error("culling run failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config) (err error) {
	scene, err := loadScene(cfg.Run.Scene)
	if err != nil {
		return err
	}

	r, err := newRunner(cfg, scene)
	if err != nil {
		return err
	}
	defer r.close()

	if cfg.Capture.Path != "" {
		gridCfg, _ := cfg.GridConfig()
		w, openErr := capture.Open(cfg.Capture.Path, gridCfg)
		if openErr != nil {
			return fmt.Errorf("opening capture: %w", openErr)
		}
		// A failed flush means a truncated file.
		defer func() {
			if cerr := w.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("closing capture: %w", cerr)
			}
		}()
		r.capture = w
	}

	sum, err := r.Run(cfg.Run.Frames)
	if err != nil {
		return err
	}
	logger.Info("culling run finished", zap.Object("summary", sum))
	return nil
}

func loadScene(path string) (*scenefile.Scene, error) {
	if path == "" {
		logger.Info("no scene given, generating lights",
			zap.Int("lights", randomLights),
			zap.Int64("seed", randomSeed),
		)
		return scenefile.Random(randomLights, randomSeed, randomExtent), nil
	}
	s, err := scenefile.Load(path)
	if err != nil {
		return nil, err
	}
	logger.Info("scene loaded", zap.String("path", path), zap.Int("lights", len(s.Lights)))
	return s, nil
}
