// Package pipeline turns one high-resolution model into an ordered
// multi-level LOD set with the attribute budget enforced on every
// level.
package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/meshforge/internal/budget"
	"github.com/Faultbox/meshforge/internal/logger"
	"github.com/Faultbox/meshforge/internal/remesh"
	"github.com/Faultbox/meshforge/pkg/mesh"
)

// LODSpec names one level and its target face count. Supplied by
// category configuration; immutable per run.
type LODSpec struct {
	Label       string
	TargetFaces int
}

// DefaultSpecs builds the standard three-level spec list.
func DefaultSpecs(lod0, lod1, lod2 int) []LODSpec {
	return []LODSpec{
		{Label: "LOD0", TargetFaces: lod0},
		{Label: "LOD1", TargetFaces: lod1},
		{Label: "LOD2", TargetFaces: lod2},
	}
}

// Options carries the per-model parameters. The review collaborator
// may supply adjusted Options when a model is redone.
type Options struct {
	Specs       []LODSpec
	Policy      budget.Policy
	WeldEpsilon float32
}

// LODResult is one produced level. Owned by the pipeline caller until
// it is handed to the export collaborator or discarded.
type LODResult struct {
	Label     string
	Mesh      *mesh.Mesh
	FaceCount int
	Strategy  remesh.Strategy
	Budget    budget.Result
}

// Reducer produces a simplified copy of a mesh at a target face count.
type Reducer interface {
	Reduce(ctx context.Context, m *mesh.Mesh, targetFaces int) (*mesh.Mesh, remesh.Strategy)
}

// Pipeline drives the reducer and the attribute budget for one model.
type Pipeline struct {
	reducer Reducer
}

// New creates a pipeline around a reducer.
func New(r Reducer) *Pipeline {
	return &Pipeline{reducer: r}
}

// Process produces one LODResult per spec. Every level is derived from
// the original high-resolution mesh, not from the previous level, and
// every level goes through budget enforcement, since a source asset
// may be over budget before any simplification happens. A malformed
// mesh is a hard failure for this model only.
func (p *Pipeline) Process(ctx context.Context, m *mesh.Mesh, opts Options) ([]LODResult, error) {
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("model %q: %w", m.Name, err)
	}

	// Weld doubles before any simplification, the same pre-clean the
	// authoring pipeline applied.
	work := mesh.Clean(m, opts.WeldEpsilon)
	if work.FaceCount() == 0 {
		return nil, fmt.Errorf("model %q: %w", m.Name, mesh.ErrNoUsableFaces)
	}
	logger.Info("processing model",
		zap.String("model", m.Name),
		zap.Int("faces", work.FaceCount()),
		zap.Int("vertices", work.VertexCount()))

	results := make([]LODResult, 0, len(opts.Specs))
	for _, spec := range opts.Specs {
		out, strategy := p.reducer.Reduce(ctx, work, spec.TargetFaces)
		cleaned, budgetRes := budget.Enforce(out, opts.Policy)

		logger.Info("produced LOD",
			zap.String("model", m.Name),
			zap.String("lod", spec.Label),
			zap.Int("target", spec.TargetFaces),
			zap.Int("faces", cleaned.FaceCount()),
			zap.String("strategy", strategy.String()),
			zap.Int("buffers", budgetRes.BufferCount),
			zap.Bool("overLimit", budgetRes.OverLimit))
		for _, w := range budgetRes.Warnings {
			logger.Warn(w, zap.String("model", m.Name), zap.String("lod", spec.Label))
		}

		results = append(results, LODResult{
			Label:     spec.Label,
			Mesh:      cleaned,
			FaceCount: cleaned.FaceCount(),
			Strategy:  strategy,
			Budget:    budgetRes,
		})
	}
	return results, nil
}
