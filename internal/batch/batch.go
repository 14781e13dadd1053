// Package batch walks a categorized model folder tree and drives the
// per-model review state machine.
package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/meshforge/internal/budget"
	"github.com/Faultbox/meshforge/internal/config"
	"github.com/Faultbox/meshforge/internal/logger"
	"github.com/Faultbox/meshforge/internal/pipeline"
	"github.com/Faultbox/meshforge/internal/review"
	"github.com/Faultbox/meshforge/pkg/mesh"
)

// State is a step of the per-model review state machine.
type State int

// Review states.
const (
	StateLoading State = iota
	StateReviewing
	StateApproved
	StateSkipped
	StateRedoing
	StateQuit
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReviewing:
		return "reviewing"
	case StateApproved:
		return "approved"
	case StateSkipped:
		return "skipped"
	case StateRedoing:
		return "redoing"
	case StateQuit:
		return "quit"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// Exporter receives the approved LOD set for one model.
type Exporter interface {
	Export(model string, lods []pipeline.LODResult) error
}

// Loader reads a model file into a mesh.
type Loader func(path string) (*mesh.Mesh, error)

// Cursor is the process-wide batch state. Created at batch start,
// mutated only between model transitions, discarded at batch end.
type Cursor struct {
	CategoryIndex int
	FileIndex     int
	// Approved and Skipped record reviewer verdicts. Failed records
	// automatic skips: models dropped without review because loading,
	// processing, or export errored. None of the three stop the batch.
	Approved  []string
	Skipped   []string
	Failed    []string
	QuitEarly bool
}

// Controller owns the batch walk. Processing is strictly sequential:
// one model completes analysis, remeshing, and review before the next
// begins.
type Controller struct {
	cfg      *config.Config
	pipeline *pipeline.Pipeline
	reviewer review.Reviewer
	exporter Exporter
	loader   Loader
	cursor   Cursor
}

// New creates a batch controller. The loader defaults to the OBJ
// reader when nil.
func New(cfg *config.Config, p *pipeline.Pipeline, r review.Reviewer, e Exporter, l Loader) *Controller {
	if l == nil {
		l = mesh.ReadOBJFile
	}
	return &Controller{cfg: cfg, pipeline: p, reviewer: r, exporter: e, loader: l}
}

type category struct {
	name  string
	files []string
}

// Run walks every non-empty category under root and processes each
// model through the review state machine. The returned cursor reports
// what was approved, skipped, and failed.
func (c *Controller) Run(ctx context.Context, root string) (Cursor, error) {
	categories, err := listCategories(root)
	if err != nil {
		return c.cursor, err
	}
	if len(categories) == 0 {
		return c.cursor, fmt.Errorf("no model files found under %s", root)
	}

	for ci, cat := range categories {
		c.cursor.CategoryIndex = ci
		logger.Info("entering category",
			zap.String("category", cat.name),
			zap.Int("models", len(cat.files)))
		for fi, path := range cat.files {
			c.cursor.FileIndex = fi
			quit, err := c.processModel(ctx, cat.name, path)
			if err != nil {
				return c.cursor, err
			}
			if quit {
				c.cursor.QuitEarly = true
				return c.cursor, nil
			}
		}
	}
	return c.cursor, nil
}

// processModel runs Loading -> Reviewing for one model, looping on
// Redo. It reports quit=true when the reviewer ends the batch; exports
// already committed for earlier models are untouched.
func (c *Controller) processModel(ctx context.Context, catName, path string) (quit bool, err error) {
	opts := c.optionsFor(catName)
	name := modelName(path)

	for {
		state := StateLoading
		logger.Debug("state", zap.String("model", name), zap.String("state", state.String()))

		m, loadErr := c.loader(path)
		var results []pipeline.LODResult
		if loadErr == nil {
			results, loadErr = c.pipeline.Process(ctx, m, opts)
		}
		if loadErr != nil {
			// A malformed model fails for this model only; the batch
			// continues as an automatic skip.
			logger.Warn("skipping model",
				zap.String("model", name),
				zap.String("path", path),
				zap.Error(loadErr))
			c.cursor.Failed = append(c.cursor.Failed, name)
			return false, nil
		}

		state = StateReviewing
		logger.Debug("state", zap.String("model", name), zap.String("state", state.String()))
		decision, revErr := c.reviewer.Review(review.Stats{
			Model:         name,
			Category:      catName,
			OriginalFaces: m.FaceCount(),
			Results:       results,
		})
		if revErr != nil {
			return false, fmt.Errorf("reviewing %q: %w", name, revErr)
		}

		switch decision.Action {
		case review.Approve:
			state = StateApproved
			logger.Debug("state", zap.String("model", name), zap.String("state", state.String()))
			if expErr := c.exporter.Export(name, results); expErr != nil {
				logger.Error("export failed",
					zap.String("model", name),
					zap.Error(expErr))
				c.cursor.Failed = append(c.cursor.Failed, name)
				return false, nil
			}
			c.cursor.Approved = append(c.cursor.Approved, name)
			return false, nil
		case review.Skip:
			state = StateSkipped
			logger.Info("model skipped",
				zap.String("model", name),
				zap.String("state", state.String()))
			c.cursor.Skipped = append(c.cursor.Skipped, name)
			return false, nil
		case review.Redo:
			state = StateRedoing
			logger.Info("redoing model",
				zap.String("model", name),
				zap.String("state", state.String()))
			if decision.Adjusted != nil {
				opts = *decision.Adjusted
			}
			// Discard this round's results and re-enter Loading.
			continue
		case review.Quit:
			state = StateQuit
			logger.Info("batch quit by reviewer",
				zap.String("lastModel", name),
				zap.String("state", state.String()))
			return true, nil
		default:
			return false, fmt.Errorf("unknown review action %v in state %s", decision.Action, state)
		}
	}
}

func (c *Controller) optionsFor(catName string) pipeline.Options {
	return OptionsFor(c.cfg, catName)
}

// OptionsFor assembles per-category pipeline options from the config.
func OptionsFor(cfg *config.Config, catName string) pipeline.Options {
	cat := cfg.CategoryOrDefault(catName)
	cleanup := cfg.Cleanup
	if cat.Cleanup != nil {
		cleanup = *cat.Cleanup
	}
	return pipeline.Options{
		Specs:       pipeline.DefaultSpecs(cat.LOD0Faces, cat.LOD1Faces, cat.LOD2Faces),
		Policy:      policyFrom(cleanup),
		WeldEpsilon: cfg.Remesher.WeldEpsilon,
	}
}

func policyFrom(c config.CleanupConfig) budget.Policy {
	return budget.Policy{
		TrimUVLayers:    c.TrimUVLayers,
		TrimColorLayers: c.TrimColorLayers,
		RemoveShapeKeys: c.RemoveShapeKeys,
		TrimCustomAttrs: c.TrimCustomAttrs,
	}
}

// listCategories finds the non-empty category folders under root, in
// sorted order. Model files directly under root form an unnamed
// category walked first.
func listCategories(root string) ([]category, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("reading batch root %s: %w", root, err)
	}

	var cats []category
	var rootFiles []string
	for _, e := range entries {
		if !e.IsDir() {
			if isModelFile(e.Name()) {
				rootFiles = append(rootFiles, filepath.Join(root, e.Name()))
			}
			continue
		}
		sub, err := os.ReadDir(filepath.Join(root, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading category %s: %w", e.Name(), err)
		}
		var files []string
		for _, f := range sub {
			if !f.IsDir() && isModelFile(f.Name()) {
				files = append(files, filepath.Join(root, e.Name(), f.Name()))
			}
		}
		if len(files) > 0 {
			sort.Strings(files)
			cats = append(cats, category{name: e.Name(), files: files})
		}
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i].name < cats[j].name })
	if len(rootFiles) > 0 {
		sort.Strings(rootFiles)
		cats = append([]category{{name: "", files: rootFiles}}, cats...)
	}
	return cats, nil
}

func isModelFile(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".obj")
}

func modelName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
