package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/Faultbox/meshforge/internal/budget"
	"github.com/Faultbox/meshforge/internal/remesh"
	"github.com/Faultbox/meshforge/pkg/mesh"
)

// recordingReducer clones the work mesh and records every input it was
// handed, so tests can prove each level derives from the original.
type recordingReducer struct {
	inputs  []*mesh.Mesh
	targets []int
}

func (r *recordingReducer) Reduce(_ context.Context, m *mesh.Mesh, targetFaces int) (*mesh.Mesh, remesh.Strategy) {
	r.inputs = append(r.inputs, m)
	r.targets = append(r.targets, targetFaces)
	return m.Clone(), remesh.StrategyCopy
}

func planeMesh(uvLayers, colorLayers, morphs int) *mesh.Mesh {
	m := &mesh.Mesh{
		Name: "plane",
		Positions: [][3]float32{
			{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0},
		},
		Normals: [][3]float32{
			{0, 0, 1}, {0, 0, 1}, {0, 0, 1}, {0, 0, 1},
		},
		Faces: []mesh.Face{{0, 1, 2}, {0, 2, 3}},
	}
	uv := [][2]float32{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	for i := 0; i < uvLayers; i++ {
		m.UVLayers = append(m.UVLayers, mesh.UVLayer{Name: "UVMap", Coords: uv})
	}
	col := [][4]float32{{1, 1, 1, 1}, {1, 1, 1, 1}, {1, 1, 1, 1}, {1, 1, 1, 1}}
	for i := 0; i < colorLayers; i++ {
		m.ColorLayers = append(m.ColorLayers, mesh.ColorLayer{Name: "Col", Colors: col})
	}
	for i := 0; i < morphs; i++ {
		m.MorphTargets = append(m.MorphTargets, mesh.MorphTarget{
			Name:   "Key",
			Deltas: make([][3]float32, len(m.Positions)),
		})
	}
	return m
}

func TestProcess_OneResultPerSpec(t *testing.T) {
	reducer := &recordingReducer{}
	p := New(reducer)

	opts := Options{
		Specs:  DefaultSpecs(4000, 1500, 500),
		Policy: budget.DefaultPolicy(),
	}
	results, err := p.Process(context.Background(), planeMesh(1, 0, 0), opts)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	wantLabels := []string{"LOD0", "LOD1", "LOD2"}
	wantTargets := []int{4000, 1500, 500}
	for i, res := range results {
		if res.Label != wantLabels[i] {
			t.Errorf("result %d label %q, want %q", i, res.Label, wantLabels[i])
		}
		if reducer.targets[i] != wantTargets[i] {
			t.Errorf("result %d target %d, want %d", i, reducer.targets[i], wantTargets[i])
		}
		if res.FaceCount != res.Mesh.FaceCount() {
			t.Errorf("result %d face count %d disagrees with mesh %d",
				i, res.FaceCount, res.Mesh.FaceCount())
		}
	}
}

func TestProcess_EveryLevelFromOriginal(t *testing.T) {
	// Each level must be reduced from the same pre-cleaned source, not
	// chained off the previous level's output.
	reducer := &recordingReducer{}
	p := New(reducer)

	_, err := p.Process(context.Background(), planeMesh(1, 0, 0), Options{
		Specs:  DefaultSpecs(100, 50, 10),
		Policy: budget.DefaultPolicy(),
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	for i := 1; i < len(reducer.inputs); i++ {
		if reducer.inputs[i] != reducer.inputs[0] {
			t.Errorf("level %d reduced from a different mesh than level 0", i)
		}
	}
}

func TestProcess_BudgetEnforcedOnEveryLevel(t *testing.T) {
	// 1 position + normals + 4 uv + 2 color + morph = 9 buffers: over
	// the limit before any simplification, so even the full-resolution
	// level comes back trimmed.
	reducer := &recordingReducer{}
	p := New(reducer)

	results, err := p.Process(context.Background(), planeMesh(4, 2, 1), Options{
		Specs:  DefaultSpecs(4000, 1500, 500),
		Policy: budget.DefaultPolicy(),
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	for _, res := range results {
		if res.Budget.BufferCount > budget.BufferLimit {
			t.Errorf("%s: %d buffers after enforcement", res.Label, res.Budget.BufferCount)
		}
		if res.Budget.Removed.UVLayers == 0 {
			t.Errorf("%s: expected UV layers trimmed", res.Label)
		}
	}
}

func TestProcess_MalformedMeshFails(t *testing.T) {
	p := New(&recordingReducer{})
	opts := Options{Specs: DefaultSpecs(100, 50, 10), Policy: budget.DefaultPolicy()}

	cases := []struct {
		name string
		m    *mesh.Mesh
		want error
	}{
		{"no vertices", &mesh.Mesh{Name: "x"}, mesh.ErrNoVertices},
		{
			"out of range index",
			&mesh.Mesh{
				Name:      "x",
				Positions: [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
				Faces:     []mesh.Face{{0, 1, 9}},
			},
			mesh.ErrFaceIndexOutOfRange,
		},
		{
			"all faces degenerate",
			&mesh.Mesh{
				Name:      "x",
				Positions: [][3]float32{{0, 0, 0}, {1, 0, 0}},
				Faces:     []mesh.Face{{0, 0, 1}},
			},
			mesh.ErrNoUsableFaces,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := p.Process(context.Background(), tc.m, opts)
			if !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestProcess_WeldsBeforeReduction(t *testing.T) {
	// Two triangles meeting at coincident but unshared vertices must be
	// welded into one island before the reducer ever sees them.
	m := &mesh.Mesh{
		Name: "split",
		Positions: [][3]float32{
			{0, 0, 0}, {1, 0, 0}, {0, 1, 0},
			{1, 0, 0}, {0, 1, 0}, {1, 1, 0},
		},
		Faces: []mesh.Face{{0, 1, 2}, {3, 4, 5}},
	}
	reducer := &recordingReducer{}
	p := New(reducer)

	_, err := p.Process(context.Background(), m, Options{
		Specs:       DefaultSpecs(100, 50, 10),
		Policy:      budget.DefaultPolicy(),
		WeldEpsilon: mesh.DefaultWeldEpsilon,
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	got := mesh.AnalyzeIslands(reducer.inputs[0])
	if got.IslandCount != 1 {
		t.Errorf("expected welded input with 1 island, got %d", got.IslandCount)
	}
	if reducer.inputs[0].VertexCount() != 4 {
		t.Errorf("expected 4 welded vertices, got %d", reducer.inputs[0].VertexCount())
	}
}
