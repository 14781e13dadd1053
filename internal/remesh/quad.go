package remesh

import (
	"errors"
	gomath "math"

	"github.com/Faultbox/meshforge/pkg/mesh"
)

// ErrDegenerateBounds is returned when the mesh has no spatial extent
// to build a remesh grid over.
var ErrDegenerateBounds = errors.New("quad remesh: mesh has degenerate bounds")

// QuadRemesh is the built-in uniform remesher: it welds vertices onto a
// uniform grid sized from the target face count and merges coplanar
// triangle pairs into quads. Unlike the external tool it tolerates
// fragmented "soup" input, producing a single welded output wherever
// fragments overlap.
func QuadRemesh(m *mesh.Mesh, targetFaces int) (*mesh.Mesh, error) {
	if targetFaces >= m.FaceCount() {
		return m.Clone(), nil
	}

	min, max, ok := m.Bounds()
	if !ok {
		return nil, ErrDegenerateBounds
	}
	maxDim := max[0] - min[0]
	if d := max[1] - min[1]; d > maxDim {
		maxDim = d
	}
	if d := max[2] - min[2]; d > maxDim {
		maxDim = d
	}
	if maxDim <= 0 {
		return nil, ErrDegenerateBounds
	}

	tri := m.Triangulate()

	// Start fine and coarsen until the grid yields the target count.
	cells := int(gomath.Ceil(gomath.Sqrt(float64(targetFaces) * 2)))
	if cells < 2 {
		cells = 2
	}
	if cells > 512 {
		cells = 512
	}

	var out *mesh.Mesh
	for {
		out = clusterToGrid(tri, min, maxDim/float32(cells))
		out = mergeQuads(out)
		if out.FaceCount() <= targetFaces || cells <= 2 {
			break
		}
		cells = cells * 3 / 4
		if cells < 2 {
			cells = 2
		}
	}
	out.Name = m.Name
	return out, nil
}

// clusterToGrid welds all vertices falling into the same grid cell to
// their average position, remapping faces and dropping collapsed or
// duplicated ones.
func clusterToGrid(m *mesh.Mesh, origin [3]float32, cellSize float32) *mesh.Mesh {
	type cell [3]int32

	cellOf := func(p [3]float32) cell {
		return cell{
			int32((p[0] - origin[0]) / cellSize),
			int32((p[1] - origin[1]) / cellSize),
			int32((p[2] - origin[2]) / cellSize),
		}
	}

	remap := make([]int, len(m.Positions))
	index := make(map[cell]int)
	var reps []int // first original vertex per cluster
	var sums [][3]float64
	var counts []int
	for i, p := range m.Positions {
		key := cellOf(p)
		ci, ok := index[key]
		if !ok {
			ci = len(reps)
			index[key] = ci
			reps = append(reps, i)
			sums = append(sums, [3]float64{})
			counts = append(counts, 0)
		}
		remap[i] = ci
		sums[ci][0] += float64(p[0])
		sums[ci][1] += float64(p[1])
		sums[ci][2] += float64(p[2])
		counts[ci]++
	}

	out := m.SelectVertices(reps)
	for ci := range out.Positions {
		n := float64(counts[ci])
		out.Positions[ci] = [3]float32{
			float32(sums[ci][0] / n),
			float32(sums[ci][1] / n),
			float32(sums[ci][2] / n),
		}
	}

	seen := make(map[[3]int]struct{})
	var faces []mesh.Face
	for _, f := range m.Faces {
		nf := make(mesh.Face, len(f))
		for i, v := range f {
			nf[i] = remap[v]
		}
		if mesh.IsDegenerate(nf) {
			continue
		}
		key := canonicalTriangle(nf)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		faces = append(faces, nf)
	}
	out.Faces = faces
	return out
}

func canonicalTriangle(f mesh.Face) [3]int {
	k := [3]int{f[0], f[1], f[2]}
	if k[0] > k[1] {
		k[0], k[1] = k[1], k[0]
	}
	if k[1] > k[2] {
		k[1], k[2] = k[2], k[1]
	}
	if k[0] > k[1] {
		k[0], k[1] = k[1], k[0]
	}
	return k
}

// mergeQuads greedily joins triangle pairs that share an edge and are
// near-coplanar into four-sided faces, scanning faces in ascending id
// order so the result is deterministic.
func mergeQuads(m *mesh.Mesh) *mesh.Mesh {
	type edge struct{ a, b int }
	norm := func(u, v int) edge {
		if u < v {
			return edge{u, v}
		}
		return edge{v, u}
	}

	edgeFaces := make(map[edge][]int)
	for id, f := range m.Faces {
		if len(f) != 3 {
			continue
		}
		for i := 0; i < 3; i++ {
			edgeFaces[norm(f[i], f[(i+1)%3])] = append(edgeFaces[norm(f[i], f[(i+1)%3])], id)
		}
	}

	used := make([]bool, len(m.Faces))
	var faces []mesh.Face
	for id, f := range m.Faces {
		if used[id] {
			continue
		}
		if len(f) != 3 {
			used[id] = true
			faces = append(faces, f)
			continue
		}
		merged := false
		for i := 0; i < 3 && !merged; i++ {
			a, b := f[i], f[(i+1)%3]
			for _, other := range edgeFaces[norm(a, b)] {
				if other == id || used[other] || len(m.Faces[other]) != 3 {
					continue
				}
				of := m.Faces[other]
				w := oppositeVertex(of, a, b)
				if w < 0 || w == f[(i+2)%3] {
					continue
				}
				if faceNormalDot(m.Positions, f, of) < 0.95 {
					continue
				}
				c := f[(i+2)%3]
				faces = append(faces, mesh.Face{c, a, w, b})
				used[id] = true
				used[other] = true
				merged = true
				break
			}
		}
		if !merged {
			used[id] = true
			faces = append(faces, f)
		}
	}
	out := m.Clone()
	out.Faces = faces
	return out
}

func oppositeVertex(f mesh.Face, a, b int) int {
	for _, v := range f {
		if v != a && v != b {
			return v
		}
	}
	return -1
}

func faceNormalDot(positions [][3]float32, f1, f2 mesh.Face) float64 {
	n1 := faceNormal(positions, f1)
	n2 := faceNormal(positions, f2)
	return n1[0]*n2[0] + n1[1]*n2[1] + n1[2]*n2[2]
}

func faceNormal(positions [][3]float32, f mesh.Face) [3]float64 {
	p0, p1, p2 := positions[f[0]], positions[f[1]], positions[f[2]]
	e1 := [3]float64{float64(p1[0] - p0[0]), float64(p1[1] - p0[1]), float64(p1[2] - p0[2])}
	e2 := [3]float64{float64(p2[0] - p0[0]), float64(p2[1] - p0[1]), float64(p2[2] - p0[2])}
	n := [3]float64{
		e1[1]*e2[2] - e1[2]*e2[1],
		e1[2]*e2[0] - e1[0]*e2[2],
		e1[0]*e2[1] - e1[1]*e2[0],
	}
	l := gomath.Sqrt(n[0]*n[0] + n[1]*n[1] + n[2]*n[2])
	if l == 0 {
		return [3]float64{}
	}
	return [3]float64{n[0] / l, n[1] / l, n[2] / l}
}
