package remesh

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/meshforge/internal/logger"
	"github.com/Faultbox/meshforge/pkg/mesh"
)

// DefaultIslandThreshold is the island count at which a mesh is
// classified as fragmented soup. Empirical; tunable via configuration.
const DefaultIslandThreshold = 50

// Strategy identifies which simplifier produced a LOD.
type Strategy int

// Strategies, in fallback order.
const (
	StrategyExternal Strategy = iota
	StrategyQuad
	StrategyDecimate
	StrategyCopy // target already satisfied, no reduction ran
)

// String returns the strategy name used in reports.
func (s Strategy) String() string {
	switch s {
	case StrategyExternal:
		return "external"
	case StrategyQuad:
		return "quad"
	case StrategyDecimate:
		return "decimate"
	case StrategyCopy:
		return "copy"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// Runner abstracts the external remesher invocation.
type Runner interface {
	Invoke(ctx context.Context, in *mesh.Mesh, targetFaces int) Outcome
}

// Selector chooses and sequences the simplification strategy for one
// LOD request: external remesher for clean topology, built-in quad
// remesher for fragmented soup, decimation as the final fallback.
type Selector struct {
	runner          Runner
	islandThreshold int
}

// NewSelector creates a selector. A non-positive threshold falls back
// to DefaultIslandThreshold.
func NewSelector(runner Runner, islandThreshold int) *Selector {
	if islandThreshold <= 0 {
		islandThreshold = DefaultIslandThreshold
	}
	return &Selector{runner: runner, islandThreshold: islandThreshold}
}

// Reduce produces a simplified copy of the mesh at the requested face
// count and reports which strategy produced it. The input mesh is
// never mutated.
func (s *Selector) Reduce(ctx context.Context, m *mesh.Mesh, targetFaces int) (*mesh.Mesh, Strategy) {
	if targetFaces >= m.FaceCount() {
		logger.Debug("target at or above current face count, copying",
			zap.String("mesh", m.Name),
			zap.Int("faces", m.FaceCount()),
			zap.Int("target", targetFaces))
		return m.Clone(), StrategyCopy
	}

	report := mesh.AnalyzeIslands(m)
	logger.Debug("island analysis",
		zap.String("mesh", m.Name),
		zap.Int("islands", report.IslandCount),
		zap.Int("largestIslandFaces", report.LargestIslandFaces))

	// Fragmented geometry produces degenerate external-tool results,
	// and an empty graph is never handed to the subprocess.
	if report.IslandCount == 0 || report.IslandCount >= s.islandThreshold {
		logger.Info("mesh classified as fragmented soup, using built-in remesher",
			zap.String("mesh", m.Name),
			zap.Int("islands", report.IslandCount),
			zap.Int("threshold", s.islandThreshold))
		return s.builtin(m, targetFaces)
	}

	outcome := s.runner.Invoke(ctx, m, targetFaces)
	if outcome.Status == StatusSuccess {
		return outcome.Mesh, StrategyExternal
	}
	logger.Warn("external remesher unavailable, falling back to built-in",
		zap.String("mesh", m.Name),
		zap.String("reason", outcome.Reason()),
		zap.String("stderr", outcome.Stderr))
	return s.builtin(m, targetFaces)
}

// builtin runs the quad remesher and, if that errors, decimates to a
// doubled target since decimation counts triangles where the remeshers
// count quads.
func (s *Selector) builtin(m *mesh.Mesh, targetFaces int) (*mesh.Mesh, Strategy) {
	out, err := QuadRemesh(m, targetFaces)
	if err == nil {
		return out, StrategyQuad
	}
	logger.Warn("built-in remesher failed, falling back to decimation",
		zap.String("mesh", m.Name),
		zap.Error(err))
	return Decimate(m, targetFaces*2), StrategyDecimate
}
