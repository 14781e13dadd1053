package mesh

import (
	"errors"
	"testing"
)

func TestValidate_NoVertices(t *testing.T) {
	err := (&Mesh{}).Validate()
	if !errors.Is(err, ErrNoVertices) {
		t.Errorf("expected ErrNoVertices, got %v", err)
	}
}

func TestValidate_AllDegenerate(t *testing.T) {
	m := &Mesh{
		Positions: [][3]float32{{0, 0, 0}, {1, 0, 0}},
		Faces:     []Face{{0, 1}, {0, 0, 1}},
	}
	if err := m.Validate(); !errors.Is(err, ErrNoUsableFaces) {
		t.Errorf("expected ErrNoUsableFaces, got %v", err)
	}
}

func TestValidate_IndexOutOfRange(t *testing.T) {
	m := &Mesh{
		Positions: [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Faces:     []Face{{0, 1, 5}},
	}
	if err := m.Validate(); !errors.Is(err, ErrFaceIndexOutOfRange) {
		t.Errorf("expected ErrFaceIndexOutOfRange, got %v", err)
	}
}

func TestValidate_OK(t *testing.T) {
	if err := triangleMesh(2).Validate(); err != nil {
		t.Errorf("expected valid mesh, got %v", err)
	}
}

func TestClone_Independent(t *testing.T) {
	m := cubeMesh()
	m.UVLayers = []UVLayer{{Name: "UVMap", Coords: make([][2]float32, 8)}}

	c := m.Clone()
	c.Positions[0] = [3]float32{99, 99, 99}
	c.Faces[0][0] = 7
	c.UVLayers[0].Coords[0] = [2]float32{0.5, 0.5}

	if m.Positions[0] == c.Positions[0] {
		t.Error("clone shares position storage with original")
	}
	if m.Faces[0][0] == 7 {
		t.Error("clone shares face storage with original")
	}
	if m.UVLayers[0].Coords[0] == c.UVLayers[0].Coords[0] {
		t.Error("clone shares UV storage with original")
	}
}

func TestTriangulate(t *testing.T) {
	m := cubeMesh()
	tri := m.Triangulate()

	if tri.FaceCount() != 12 {
		t.Errorf("expected 12 triangles from a cube, got %d", tri.FaceCount())
	}
	for i, f := range tri.Faces {
		if len(f) != 3 {
			t.Errorf("face %d has arity %d after triangulation", i, len(f))
		}
	}
	// Original untouched.
	if m.FaceCount() != 6 {
		t.Errorf("triangulation mutated the input: %d faces", m.FaceCount())
	}
}

func TestClean_WeldsDoubles(t *testing.T) {
	// Two triangles meant to share an edge but with duplicated,
	// slightly offset vertices - typical AI mesh soup.
	m := &Mesh{
		Positions: [][3]float32{
			{0, 0, 0}, {1, 0, 0}, {0, 1, 0},
			{1, 0.000001, 0}, {0, 1.000001, 0}, {1, 1, 0},
		},
		Faces: []Face{
			{0, 1, 2},
			{3, 5, 4},
		},
	}

	if got := AnalyzeIslands(m).IslandCount; got != 2 {
		t.Fatalf("expected 2 islands before weld, got %d", got)
	}

	welded := Clean(m, 0.001)
	if welded.VertexCount() != 4 {
		t.Errorf("expected 4 vertices after weld, got %d", welded.VertexCount())
	}
	if got := AnalyzeIslands(welded).IslandCount; got != 1 {
		t.Errorf("expected 1 island after weld, got %d", got)
	}
	// Input untouched.
	if m.VertexCount() != 6 {
		t.Error("Clean mutated its input")
	}
}

func TestClean_WeldsAcrossCellBoundary(t *testing.T) {
	// 1.0 and 1.000001 quantize to different cells under plain
	// truncation even though they are well within epsilon. The weld
	// must not depend on which side of a cell boundary a double lands.
	m := &Mesh{
		Positions: [][3]float32{
			{0, 0, 0}, {1, 0, 0}, {0, 1, 0},
			{1, 0, 0}, {0, 1.000001, 0}, {1, 1, 0},
		},
		Faces: []Face{
			{0, 1, 2},
			{3, 5, 4},
		},
	}
	welded := Clean(m, DefaultWeldEpsilon)
	if welded.VertexCount() != 4 {
		t.Errorf("expected 4 vertices after weld, got %d", welded.VertexCount())
	}
	if got := AnalyzeIslands(welded).IslandCount; got != 1 {
		t.Errorf("mesh still fragmented after weld: %d islands, want 1", got)
	}
}

func TestClean_KeepsVerticesBeyondEpsilon(t *testing.T) {
	// Neighbor-cell candidates must still pass the distance test:
	// 0.00015 apart is farther than the 0.0001 epsilon and stays
	// unwelded.
	m := &Mesh{
		Positions: [][3]float32{
			{0, 0, 0}, {1, 0, 0}, {0, 0.00015, 0},
		},
		Faces: []Face{{0, 1, 2}},
	}
	welded := Clean(m, DefaultWeldEpsilon)
	if welded.VertexCount() != 3 {
		t.Errorf("expected 3 vertices, got %d", welded.VertexCount())
	}
	if welded.FaceCount() != 1 {
		t.Errorf("expected the face to survive, got %d faces", welded.FaceCount())
	}
}

func TestClean_DropsCollapsedFaces(t *testing.T) {
	// A sliver triangle whose vertices all weld to one point.
	m := &Mesh{
		Positions: [][3]float32{
			{0, 0, 0}, {0.00001, 0, 0}, {0, 0.00001, 0},
			{5, 0, 0}, {6, 0, 0}, {5, 1, 0},
		},
		Faces: []Face{
			{0, 1, 2},
			{3, 4, 5},
		},
	}
	welded := Clean(m, 0.001)
	if welded.FaceCount() != 1 {
		t.Errorf("expected collapsed face dropped, got %d faces", welded.FaceCount())
	}
}

func TestSelectVertices(t *testing.T) {
	m := triangleMesh(2)
	m.Normals = make([][3]float32, 6)
	for i := range m.Normals {
		m.Normals[i] = [3]float32{0, 0, 1}
	}
	m.CustomAttrs = []Attribute{
		{Name: "weight", Domain: DomainVertex, Data: []float32{1, 2, 3, 4, 5, 6}},
		{Name: "face_tag", Domain: DomainFace, Data: []float32{1, 2}},
	}

	sel := m.SelectVertices([]int{3, 4, 5})
	if sel.VertexCount() != 3 {
		t.Fatalf("expected 3 vertices, got %d", sel.VertexCount())
	}
	if sel.Positions[0] != m.Positions[3] {
		t.Error("selected vertex 0 should be original vertex 3")
	}
	if len(sel.CustomAttrs) != 1 || sel.CustomAttrs[0].Name != "weight" {
		t.Fatalf("expected only the vertex-domain attribute, got %+v", sel.CustomAttrs)
	}
	if sel.CustomAttrs[0].Data[0] != 4 {
		t.Errorf("expected gathered weight 4, got %f", sel.CustomAttrs[0].Data[0])
	}
}
