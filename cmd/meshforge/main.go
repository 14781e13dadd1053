// meshforge is a CLI that converts AI-generated high-poly meshes into
// game-ready multi-LOD GLB assets.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/meshforge/internal/batch"
	"github.com/Faultbox/meshforge/internal/budget"
	"github.com/Faultbox/meshforge/internal/config"
	"github.com/Faultbox/meshforge/internal/export"
	"github.com/Faultbox/meshforge/internal/logger"
	"github.com/Faultbox/meshforge/internal/pipeline"
	"github.com/Faultbox/meshforge/internal/remesh"
	"github.com/Faultbox/meshforge/internal/review"
	"github.com/Faultbox/meshforge/pkg/mesh"
)

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	if flag.NArg() < 1 {
		printUsage()
		os.Exit(1)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	switch flag.Arg(0) {
	case "batch":
		cmdBatch(cfg, flag.Arg(1))
	case "single":
		cmdSingle(cfg, flag.Arg(1), flag.Arg(2))
	case "info":
		cmdInfo(flag.Arg(1))
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", flag.Arg(0))
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`meshforge - high-poly to game-ready LOD asset pipeline

Usage:
  meshforge [flags] <command> [args]

Commands:
  batch <dir>                 Process every model in a categorized folder tree
  single <file.obj> [category] Process one model and export it
  info <file.obj>             Report islands and attribute budget for a model

Flags:
  -config <path>     Config file (default: ./meshforge.yaml)
  -tool <path>       External remesher executable
  -out <dir>         Output directory
  -auto              Auto-approve every model
  -keep-temp         Retain remesher temp files
  -island-threshold  Island count that classifies a mesh as soup
  -debug             Enable debug logging

Examples:
  meshforge batch ./models
  meshforge -auto -out dist batch ./models
  meshforge single ./models/enemies/drone.obj enemies
  meshforge info ./models/enemies/drone.obj`)
}

func cmdBatch(cfg *config.Config, root string) {
	if root == "" {
		fmt.Fprintln(os.Stderr, "Usage: meshforge batch <dir>")
		os.Exit(1)
	}

	pipe := buildPipeline(cfg, true)
	exporter := export.NewGLB(cfg.Output.Dir, cfg.Output.CombinedGLB)

	var reviewer review.Reviewer = review.NewConsole()
	if cfg.Review.AutoApprove {
		reviewer = review.AutoApprove{}
	}

	ctrl := batch.New(cfg, pipe, reviewer, exporter, nil)
	cursor, err := ctrl.Run(context.Background(), root)
	if err != nil {
		logger.Error("batch failed", zap.Error(err))
		os.Exit(1)
	}

	fmt.Printf("\nBatch done: %d approved, %d skipped, %d failed\n",
		len(cursor.Approved), len(cursor.Skipped), len(cursor.Failed))
	if cursor.QuitEarly {
		fmt.Println("(stopped early by reviewer)")
	}
	for _, name := range cursor.Failed {
		fmt.Printf("  failed: %s\n", name)
	}
}

func cmdSingle(cfg *config.Config, path, category string) {
	if path == "" {
		fmt.Fprintln(os.Stderr, "Usage: meshforge single <file.obj> [category]")
		os.Exit(1)
	}

	m, err := mesh.ReadOBJFile(path)
	if err != nil {
		logger.Error("load failed", zap.Error(err))
		os.Exit(1)
	}

	pipe := buildPipeline(cfg, false)
	results, err := pipe.Process(context.Background(), m, batch.OptionsFor(cfg, category))
	if err != nil {
		logger.Error("processing failed", zap.Error(err))
		os.Exit(1)
	}

	exporter := export.NewGLB(cfg.Output.Dir, cfg.Output.CombinedGLB)
	if err := exporter.Export(m.Name, results); err != nil {
		logger.Error("export failed", zap.Error(err))
		os.Exit(1)
	}

	fmt.Printf("%s: %d faces\n", m.Name, m.FaceCount())
	for _, r := range results {
		fmt.Printf("  %s: %d faces  strategy=%s  buffers=%d\n",
			r.Label, r.FaceCount, r.Strategy, r.Budget.BufferCount)
	}
}

func cmdInfo(path string) {
	if path == "" {
		fmt.Fprintln(os.Stderr, "Usage: meshforge info <file.obj>")
		os.Exit(1)
	}

	m, err := mesh.ReadOBJFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Model:    %s\n", m.Name)
	fmt.Printf("Vertices: %d\n", m.VertexCount())
	fmt.Printf("Faces:    %d (%d triangles)\n", m.FaceCount(), m.TriangleCount())

	if err := m.Validate(); err != nil {
		fmt.Printf("Invalid:  %v\n", err)
		return
	}

	report := mesh.AnalyzeIslands(m)
	fmt.Printf("Islands:  %d (largest %d faces)\n", report.IslandCount, report.LargestIslandFaces)

	attrs := budget.Measure(m)
	fmt.Printf("Buffers:  %d of %d\n", attrs.BufferCount(), budget.BufferLimit)
	if attrs.BufferCount() > budget.BufferLimit {
		fmt.Println("          OVER BUDGET - cleanup will run on export")
	}
}

// buildPipeline wires the strategy selector with the external invoker.
// Batch runs get the longer subprocess timeout.
func buildPipeline(cfg *config.Config, batchRun bool) *pipeline.Pipeline {
	timeout := cfg.Remesher.Timeout
	if batchRun {
		timeout = cfg.Remesher.BatchTimeout
	}
	invoker := remesh.NewInvoker(remesh.ToolConfig{
		Path:             cfg.Remesher.ToolPath,
		Timeout:          timeout,
		CreaseDegrees:    cfg.Remesher.CreaseDegrees,
		SmoothIterations: cfg.Remesher.SmoothIterations,
		Deterministic:    cfg.Remesher.Deterministic,
		KeepTempFiles:    cfg.Remesher.KeepTempFiles,
	})
	selector := remesh.NewSelector(invoker, cfg.Remesher.IslandThreshold)
	return pipeline.New(selector)
}
