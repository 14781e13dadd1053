// Package mesh provides the in-memory polygon mesh model used by the
// pipeline, its face-adjacency graph, and the OBJ interchange codec.
package mesh

import (
	"errors"
	"fmt"
)

// Mesh validation errors.
var (
	ErrNoVertices          = errors.New("mesh has no vertices")
	ErrNoUsableFaces       = errors.New("mesh has no non-degenerate faces")
	ErrFaceIndexOutOfRange = errors.New("face index out of vertex range")
)

// Face is an ordered sequence of vertex indices, arity >= 3.
type Face []int

// UVLayer is a named per-vertex texture coordinate stream.
type UVLayer struct {
	Name   string
	Coords [][2]float32
}

// ColorLayer is a named per-vertex RGBA color stream.
type ColorLayer struct {
	Name   string
	Colors [][4]float32
}

// MorphTarget holds per-vertex position deltas for one shape key.
type MorphTarget struct {
	Name   string
	Deltas [][3]float32
}

// AttributeDomain says whether a custom attribute is per-vertex or per-face.
type AttributeDomain int

// Attribute domains.
const (
	DomainVertex AttributeDomain = iota
	DomainFace
)

// String returns a human-readable domain name.
func (d AttributeDomain) String() string {
	switch d {
	case DomainVertex:
		return "vertex"
	case DomainFace:
		return "face"
	default:
		return fmt.Sprintf("Unknown(%d)", int(d))
	}
}

// Attribute is a non-standard per-vertex or per-face data stream, such
// as generated IDs or tool-specific weights carried in from the source
// asset.
type Attribute struct {
	Name   string
	Domain AttributeDomain
	Data   []float32
}

// Material describes how a surface consumes vertex data. Only the
// fields relevant to attribute budgeting are modeled.
type Material struct {
	Name            string
	UsesVertexColor bool
	NeedsTangent    bool
}

// Mesh is an explicit value-passed polygon mesh. Faces index into the
// vertex streams; all per-vertex streams are parallel to Positions.
// Faces are not required to be manifold.
type Mesh struct {
	Name         string
	Positions    [][3]float32
	Normals      [][3]float32 // empty when absent
	UVLayers     []UVLayer
	ColorLayers  []ColorLayer
	MorphTargets []MorphTarget
	CustomAttrs  []Attribute
	Materials    []Material
	Faces        []Face
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int { return len(m.Positions) }

// FaceCount returns the number of faces of any arity.
func (m *Mesh) FaceCount() int { return len(m.Faces) }

// TriangleCount returns the triangle count after fan triangulation.
func (m *Mesh) TriangleCount() int {
	n := 0
	for _, f := range m.Faces {
		if len(f) >= 3 {
			n += len(f) - 2
		}
	}
	return n
}

// HasNormals reports whether the mesh carries a normal stream.
func (m *Mesh) HasNormals() bool { return len(m.Normals) > 0 }

// IsDegenerate reports whether a face has fewer than 3 distinct vertices.
func IsDegenerate(f Face) bool {
	if len(f) < 3 {
		return true
	}
	seen := make(map[int]struct{}, len(f))
	for _, v := range f {
		seen[v] = struct{}{}
	}
	return len(seen) < 3
}

// Validate checks the mesh invariants. A mesh with zero vertices, a
// face index outside the vertex range, or no usable face at all is
// reported as malformed.
func (m *Mesh) Validate() error {
	if len(m.Positions) == 0 {
		return ErrNoVertices
	}
	usable := 0
	for i, f := range m.Faces {
		for _, v := range f {
			if v < 0 || v >= len(m.Positions) {
				return fmt.Errorf("face %d: index %d: %w", i, v, ErrFaceIndexOutOfRange)
			}
		}
		if !IsDegenerate(f) {
			usable++
		}
	}
	if usable == 0 {
		return ErrNoUsableFaces
	}
	return nil
}

// Clone returns a deep copy. Every pipeline stage works on a clone so
// the canonical high-resolution source is never mutated.
func (m *Mesh) Clone() *Mesh {
	c := &Mesh{
		Name:      m.Name,
		Positions: append([][3]float32(nil), m.Positions...),
		Normals:   append([][3]float32(nil), m.Normals...),
		Materials: append([]Material(nil), m.Materials...),
	}
	for _, l := range m.UVLayers {
		c.UVLayers = append(c.UVLayers, UVLayer{Name: l.Name, Coords: append([][2]float32(nil), l.Coords...)})
	}
	for _, l := range m.ColorLayers {
		c.ColorLayers = append(c.ColorLayers, ColorLayer{Name: l.Name, Colors: append([][4]float32(nil), l.Colors...)})
	}
	for _, t := range m.MorphTargets {
		c.MorphTargets = append(c.MorphTargets, MorphTarget{Name: t.Name, Deltas: append([][3]float32(nil), t.Deltas...)})
	}
	for _, a := range m.CustomAttrs {
		c.CustomAttrs = append(c.CustomAttrs, Attribute{Name: a.Name, Domain: a.Domain, Data: append([]float32(nil), a.Data...)})
	}
	for _, f := range m.Faces {
		c.Faces = append(c.Faces, append(Face(nil), f...))
	}
	return c
}

// Triangulate returns a copy with every face fan-triangulated.
// Vertex streams are shared-by-copy; only faces are rewritten.
func (m *Mesh) Triangulate() *Mesh {
	c := m.Clone()
	var tris []Face
	for _, f := range c.Faces {
		if len(f) < 3 {
			continue
		}
		for i := 1; i < len(f)-1; i++ {
			tris = append(tris, Face{f[0], f[i], f[i+1]})
		}
	}
	c.Faces = tris
	return c
}

// Bounds returns the axis-aligned bounding box. ok is false for an
// empty mesh.
func (m *Mesh) Bounds() (min, max [3]float32, ok bool) {
	if len(m.Positions) == 0 {
		return min, max, false
	}
	min = m.Positions[0]
	max = m.Positions[0]
	for _, p := range m.Positions[1:] {
		for i := 0; i < 3; i++ {
			if p[i] < min[i] {
				min[i] = p[i]
			}
			if p[i] > max[i] {
				max[i] = p[i]
			}
		}
	}
	return min, max, true
}
