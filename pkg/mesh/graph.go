package mesh

// Graph is a read-only face-adjacency view over a Mesh: two faces are
// adjacent iff they share a normalized (unordered) edge. Degenerate
// faces are excluded. Built once per simplification request and
// discarded after island analysis.
type Graph struct {
	adjacency map[int]map[int]struct{}
	faces     []int // ascending ids of faces present in the graph
}

type edgeKey struct {
	a, b int
}

func normalizeEdge(u, v int) edgeKey {
	if u < v {
		return edgeKey{u, v}
	}
	return edgeKey{v, u}
}

// BuildGraph builds the face-adjacency graph via an edge-to-faces
// index. An empty mesh yields an empty graph.
func BuildGraph(m *Mesh) *Graph {
	g := &Graph{adjacency: make(map[int]map[int]struct{})}

	edges := make(map[edgeKey][]int)
	for id, f := range m.Faces {
		if IsDegenerate(f) {
			continue
		}
		g.faces = append(g.faces, id)
		g.adjacency[id] = make(map[int]struct{})
		for i := range f {
			u := f[i]
			v := f[(i+1)%len(f)]
			if u == v {
				continue
			}
			key := normalizeEdge(u, v)
			edges[key] = append(edges[key], id)
		}
	}

	for _, ids := range edges {
		if len(ids) < 2 {
			continue
		}
		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				if ids[i] == ids[j] {
					continue
				}
				g.adjacency[ids[i]][ids[j]] = struct{}{}
				g.adjacency[ids[j]][ids[i]] = struct{}{}
			}
		}
	}
	return g
}

// FaceCount returns the number of faces present in the graph.
func (g *Graph) FaceCount() int { return len(g.faces) }

// Faces returns the ascending ids of faces present in the graph.
func (g *Graph) Faces() []int { return g.faces }

// Neighbors appends the ids adjacent to the given face to dst and
// returns it. Order is unspecified.
func (g *Graph) Neighbors(id int, dst []int) []int {
	for n := range g.adjacency[id] {
		dst = append(dst, n)
	}
	return dst
}
