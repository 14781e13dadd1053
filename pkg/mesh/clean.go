package mesh

import gomath "math"

// DefaultWeldEpsilon matches the merge-doubles threshold the authoring
// pipeline used before simplification.
const DefaultWeldEpsilon float32 = 0.0001

// Clean returns a welded copy of the mesh: vertices within epsilon of
// each other are merged, faces are remapped, and faces that collapse
// below 3 distinct vertices are dropped. The input is not modified.
func Clean(m *Mesh, epsilon float32) *Mesh {
	if epsilon <= 0 {
		epsilon = DefaultWeldEpsilon
	}
	c := m.Clone()
	if len(c.Positions) == 0 {
		return c
	}

	// Group vertices into epsilon-sized cells, first occurrence wins.
	// A pair within epsilon can still straddle a cell boundary, so the
	// neighboring cells are checked for an existing representative
	// before a new cluster is started. Candidates from any cell must
	// pass the real distance test; cell membership alone does not
	// bound the distance.
	type cell [3]int32
	quantize := func(p [3]float32) cell {
		return cell{
			int32(gomath.Round(float64(p[0]) / float64(epsilon))),
			int32(gomath.Round(float64(p[1]) / float64(epsilon))),
			int32(gomath.Round(float64(p[2]) / float64(epsilon))),
		}
	}
	eps2 := float64(epsilon) * float64(epsilon)
	near := func(a, b [3]float32) bool {
		dx := float64(a[0] - b[0])
		dy := float64(a[1] - b[1])
		dz := float64(a[2] - b[2])
		return dx*dx+dy*dy+dz*dz <= eps2
	}

	remap := make([]int, len(c.Positions))
	keep := make([]int, 0, len(c.Positions))
	first := make(map[cell]int)
	for i, p := range c.Positions {
		key := quantize(p)
		found := -1
	scan:
		for dx := int32(-1); dx <= 1; dx++ {
			for dy := int32(-1); dy <= 1; dy++ {
				for dz := int32(-1); dz <= 1; dz++ {
					j, ok := first[cell{key[0] + dx, key[1] + dy, key[2] + dz}]
					if ok && near(p, c.Positions[keep[j]]) {
						found = j
						break scan
					}
				}
			}
		}
		if found >= 0 {
			remap[i] = found
			continue
		}
		newIdx := len(keep)
		if _, ok := first[key]; !ok {
			first[key] = newIdx
		}
		remap[i] = newIdx
		keep = append(keep, i)
	}

	if len(keep) < len(c.Positions) {
		c.Positions = gatherVec3(c.Positions, keep)
		c.Normals = gatherVec3(c.Normals, keep)
		for li := range c.UVLayers {
			c.UVLayers[li].Coords = gatherVec2(c.UVLayers[li].Coords, keep)
		}
		for li := range c.ColorLayers {
			c.ColorLayers[li].Colors = gatherVec4(c.ColorLayers[li].Colors, keep)
		}
		for ti := range c.MorphTargets {
			c.MorphTargets[ti].Deltas = gatherVec3(c.MorphTargets[ti].Deltas, keep)
		}
		for ai := range c.CustomAttrs {
			if c.CustomAttrs[ai].Domain == DomainVertex {
				c.CustomAttrs[ai].Data = gatherF32(c.CustomAttrs[ai].Data, keep)
			}
		}
	}

	var faces []Face
	for _, f := range c.Faces {
		nf := make(Face, 0, len(f))
		for _, v := range f {
			nv := remap[v]
			// Collapse consecutive duplicates introduced by the weld.
			if len(nf) > 0 && nf[len(nf)-1] == nv {
				continue
			}
			nf = append(nf, nv)
		}
		if len(nf) > 1 && nf[0] == nf[len(nf)-1] {
			nf = nf[:len(nf)-1]
		}
		if !IsDegenerate(nf) {
			faces = append(faces, nf)
		}
	}
	c.Faces = faces
	return c
}

// SelectVertices returns a copy containing only the listed vertices,
// in order, with all per-vertex streams gathered to match. Faces are
// dropped; callers rebuild them against the new indexing.
func (m *Mesh) SelectVertices(keep []int) *Mesh {
	c := &Mesh{
		Name:      m.Name,
		Positions: gatherVec3(m.Positions, keep),
		Normals:   gatherVec3(m.Normals, keep),
		Materials: append([]Material(nil), m.Materials...),
	}
	for _, l := range m.UVLayers {
		c.UVLayers = append(c.UVLayers, UVLayer{Name: l.Name, Coords: gatherVec2(l.Coords, keep)})
	}
	for _, l := range m.ColorLayers {
		c.ColorLayers = append(c.ColorLayers, ColorLayer{Name: l.Name, Colors: gatherVec4(l.Colors, keep)})
	}
	for _, t := range m.MorphTargets {
		c.MorphTargets = append(c.MorphTargets, MorphTarget{Name: t.Name, Deltas: gatherVec3(t.Deltas, keep)})
	}
	for _, a := range m.CustomAttrs {
		if a.Domain != DomainVertex {
			continue
		}
		c.CustomAttrs = append(c.CustomAttrs, Attribute{Name: a.Name, Domain: a.Domain, Data: gatherF32(a.Data, keep)})
	}
	return c
}

func gatherVec3(src [][3]float32, keep []int) [][3]float32 {
	if len(src) == 0 {
		return src
	}
	dst := make([][3]float32, 0, len(keep))
	for _, i := range keep {
		if i < len(src) {
			dst = append(dst, src[i])
		}
	}
	return dst
}

func gatherVec2(src [][2]float32, keep []int) [][2]float32 {
	if len(src) == 0 {
		return src
	}
	dst := make([][2]float32, 0, len(keep))
	for _, i := range keep {
		if i < len(src) {
			dst = append(dst, src[i])
		}
	}
	return dst
}

func gatherVec4(src [][4]float32, keep []int) [][4]float32 {
	if len(src) == 0 {
		return src
	}
	dst := make([][4]float32, 0, len(keep))
	for _, i := range keep {
		if i < len(src) {
			dst = append(dst, src[i])
		}
	}
	return dst
}

func gatherF32(src []float32, keep []int) []float32 {
	if len(src) == 0 {
		return src
	}
	dst := make([]float32, 0, len(keep))
	for _, i := range keep {
		if i < len(src) {
			dst = append(dst, src[i])
		}
	}
	return dst
}
