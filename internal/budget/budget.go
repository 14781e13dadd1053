// Package budget measures and enforces the vertex-attribute buffer
// budget for exported meshes. The limit of 8 simultaneous vertex
// buffers is the WebGPU baseline.
package budget

import (
	"fmt"
	"strings"

	"github.com/Faultbox/meshforge/pkg/mesh"
)

// BufferLimit is the maximum number of vertex buffers a target can bind.
const BufferLimit = 8

// AttributeSet describes which per-vertex streams a mesh carries.
// Position is always present.
type AttributeSet struct {
	HasNormal        bool
	UVLayerCount     int
	ColorLayerCount  int
	MorphTargetCount int
	NeedsTangent     bool
}

// Measure derives the attribute set of a mesh. A tangent buffer is
// needed when any material asks for one.
func Measure(m *mesh.Mesh) AttributeSet {
	s := AttributeSet{
		HasNormal:        m.HasNormals(),
		UVLayerCount:     len(m.UVLayers),
		ColorLayerCount:  len(m.ColorLayers),
		MorphTargetCount: len(m.MorphTargets),
	}
	for _, mat := range m.Materials {
		if mat.NeedsTangent {
			s.NeedsTangent = true
			break
		}
	}
	return s
}

// BufferCount returns the number of vertex buffers the set binds:
// position, optional normal, one per UV layer, one per color layer,
// one per morph target, and optionally a tangent buffer.
func (s AttributeSet) BufferCount() int {
	n := 1
	if s.HasNormal {
		n++
	}
	n += s.UVLayerCount
	n += s.ColorLayerCount
	n += s.MorphTargetCount
	if s.NeedsTangent {
		n++
	}
	return n
}

// Policy toggles the individual cleanup steps. All steps are enabled
// by default; disabling shape-key removal keeps morph animation intact
// at the cost of possibly staying over budget.
type Policy struct {
	TrimUVLayers    bool `yaml:"trim_uv_layers"`
	TrimColorLayers bool `yaml:"trim_color_layers"`
	RemoveShapeKeys bool `yaml:"remove_shape_keys"`
	TrimCustomAttrs bool `yaml:"trim_custom_attrs"`
}

// DefaultPolicy enables every cleanup step.
func DefaultPolicy() Policy {
	return Policy{
		TrimUVLayers:    true,
		TrimColorLayers: true,
		RemoveShapeKeys: true,
		TrimCustomAttrs: true,
	}
}

// Removed counts what each cleanup step dropped.
type Removed struct {
	UVLayers         int
	VertexColors     int
	ShapeKeys        int
	CustomAttributes int
}

// Result reports the outcome of one enforcement pass. It lives for a
// single export cycle.
type Result struct {
	BufferCount int
	OverLimit   bool
	Removed     Removed
	Warnings    []string
}

// Enforce applies the fixed-order cleanup to a copy of the mesh until
// the buffer count fits the limit or every enabled step has run.
// Going over the limit is a warning, never a failure: the cleaned mesh
// is returned either way. Enforcing an already-compliant mesh is a
// no-op.
func Enforce(m *mesh.Mesh, p Policy) (*mesh.Mesh, Result) {
	out := m.Clone()
	var res Result

	count := Measure(out).BufferCount()
	if count <= BufferLimit {
		res.BufferCount = count
		return out, res
	}

	// Step 1: keep only the primary UV layer.
	if p.TrimUVLayers && len(out.UVLayers) > 1 {
		res.Removed.UVLayers = len(out.UVLayers) - 1
		out.UVLayers = out.UVLayers[:1]
		count = Measure(out).BufferCount()
	}

	// Step 2: drop color layers no material reads; otherwise keep the
	// first.
	if count > BufferLimit && p.TrimColorLayers && len(out.ColorLayers) > 0 {
		if materialReadsVertexColor(out) {
			res.Removed.VertexColors = len(out.ColorLayers) - 1
			out.ColorLayers = out.ColorLayers[:1]
		} else {
			res.Removed.VertexColors = len(out.ColorLayers)
			out.ColorLayers = nil
		}
		count = Measure(out).BufferCount()
	}

	// Step 3: shape keys. Removal is destructive to morph animation,
	// so a policy that disables it gets a warning instead.
	if count > BufferLimit && len(out.MorphTargets) > 0 {
		if p.RemoveShapeKeys {
			res.Removed.ShapeKeys = len(out.MorphTargets)
			out.MorphTargets = nil
			count = Measure(out).BufferCount()
		} else {
			res.Warnings = append(res.Warnings, fmt.Sprintf(
				"%d shape keys retained by policy; mesh stays over the %d-buffer limit",
				len(out.MorphTargets), BufferLimit))
		}
	}

	// Step 4: custom attributes outside the allow-list.
	if count > BufferLimit && p.TrimCustomAttrs && len(out.CustomAttrs) > 0 {
		kept := out.CustomAttrs[:0]
		for _, a := range out.CustomAttrs {
			if attrAllowed(a.Name) {
				kept = append(kept, a)
			} else {
				res.Removed.CustomAttributes++
			}
		}
		out.CustomAttrs = kept
		count = Measure(out).BufferCount()
	}

	res.BufferCount = count
	if count > BufferLimit {
		res.OverLimit = true
		res.Warnings = append(res.Warnings, fmt.Sprintf(
			"mesh %q binds %d vertex buffers after cleanup (limit %d)",
			out.Name, count, BufferLimit))
	}
	return out, res
}

func materialReadsVertexColor(m *mesh.Mesh) bool {
	for _, mat := range m.Materials {
		if mat.UsesVertexColor {
			return true
		}
	}
	return false
}

// attrAllowed reports whether a custom attribute survives cleanup.
// Standard streams, the material index, sharp flags, and
// topology-internal fields (dot-prefixed) are kept.
func attrAllowed(name string) bool {
	switch name {
	case "position", "normal", "UVMap", "material_index", "sharp_edge", "sharp_face":
		return true
	}
	return strings.HasPrefix(name, ".")
}
