// Package main is the entry point for the pointwalk viewer: a
// first-person walkthrough of a reconstructed point cloud.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/metroa-labs/pointwalk/internal/config"
	"github.com/metroa-labs/pointwalk/internal/engine/input"
	"github.com/metroa-labs/pointwalk/internal/engine/render"
	"github.com/metroa-labs/pointwalk/internal/engine/window"
	"github.com/metroa-labs/pointwalk/internal/logger"
	"github.com/metroa-labs/pointwalk/internal/nav"
	"github.com/metroa-labs/pointwalk/internal/pointcloud"
)

func main() {
	// Parse CLI flags first
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

	plyPath := flag.Arg(0)
	if plyPath == "" {
		fmt.Fprintln(os.Stderr, "usage: pointwalk [flags] <scan.ply>")
		os.Exit(2)
	}

	if err := run(cfg, plyPath); err != nil {
		logger.Error("viewer error", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("viewer closed normally")
}

func run(cfg *config.Config, plyPath string) error {
	// A cloud that fails to load is fatal; everything after this point
	// degrades gracefully instead.
	cloud, err := pointcloud.LoadPLY(plyPath)
	if err != nil {
		return err
	}
	logger.Info("cloud loaded",
		zap.String("path", plyPath),
		zap.String("cloud", cloud.ID.String()),
		zap.Int("points", cloud.Size()),
		zap.Bool("color", cloud.HasColor),
	)

	cloud = decimateForTier(cloud, cfg)

	win, err := window.New(window.Config{
		Title:      "pointwalk",
		Width:      cfg.Graphics.Width,
		Height:     cfg.Graphics.Height,
		Fullscreen: cfg.Graphics.Fullscreen,
		VSync:      cfg.Graphics.VSync,
	})
	if err != nil {
		return err
	}
	defer win.Close()

	renderer, err := render.New(cfg.Graphics.PointSize)
	if err != nil {
		return err
	}
	defer renderer.Close()
	renderer.Upload(cloud)

	ctl := nav.New(nav.Config{
		BaseSpeed:        cfg.Navigation.BaseSpeed,
		SprintMultiplier: cfg.Navigation.SprintMultiplier,
		CollisionRadius:  cfg.Navigation.CollisionRadius,
		Acceleration:     cfg.Navigation.Acceleration,
		Deceleration:     cfg.Navigation.Deceleration,
		MaxPointsPerLeaf: cfg.Index.MaxPointsPerLeaf,
		MaxIndexDepth:    cfg.Index.MaxDepth,
	}, nil, logger.Log)
	ctl.SetPosition(cloud.Bounds.Center())

	// Index build runs off the frame loop; walking works immediately,
	// collision switches on when the build publishes.
	ctl.SetCloud(cloud)

	var pose nav.Pose
	ctl.AddPoseListener(func(p nav.Pose) { pose = p })

	width, height := win.GetSize()
	in := input.New(ctl, cfg.Navigation.MouseSensitivity)
	in.OnResize = func(w, h int) {
		width, height = w, h
		renderer.SetViewport(w, h)
	}
	in.Attach()
	defer in.Detach()

	hudTimer := time.Now()
	for {
		if in.Poll() {
			return nil
		}

		ctl.Advance()

		proj := mgl32.Perspective(
			mgl32.DegToRad(70),
			float32(width)/float32(height),
			0.05, 2000,
		)
		renderer.Draw(ctl.ViewMatrix(), proj)
		win.SwapBuffers()

		if time.Since(hudTimer) >= time.Second {
			hudTimer = time.Now()
			win.SetTitle(hudTitle(pose, ctl))
		}
	}
}

func decimateForTier(cloud *pointcloud.Cloud, cfg *config.Config) *pointcloud.Cloud {
	budget := pointcloud.BudgetFor(pointcloud.Tier(cfg.LOD.Tier))
	if cloud.Size() <= budget {
		return cloud
	}

	seed := cfg.LOD.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	before := cloud.Size()
	cloud = pointcloud.Decimate(cloud, budget, rand.New(rand.NewSource(seed)))
	logger.Info("cloud decimated",
		zap.String("tier", cfg.LOD.Tier),
		zap.Int("before", before),
		zap.Int("after", cloud.Size()),
	)
	return cloud
}

func hudTitle(pose nav.Pose, ctl *nav.Controller) string {
	title := fmt.Sprintf("pointwalk  (%.1f, %.1f, %.1f)  pitch %.0f yaw %.0f",
		pose.Position.X(), pose.Position.Y(), pose.Position.Z(),
		pose.Pitch, pose.Yaw,
	)
	if stats, ok := ctl.IndexStats(); ok {
		title += fmt.Sprintf("  [index: %d nodes, depth %d]", stats.NodeCount, stats.MaxDepth)
	} else {
		title += "  [index: building]"
	}
	return title
}
