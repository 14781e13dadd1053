package remesh

import (
	"container/heap"
	gomath "math"

	"github.com/Faultbox/meshforge/pkg/mesh"
)

// collapseEdge is a candidate edge in the decimation queue. Entries
// are invalidated lazily: endpoints are re-resolved through the merge
// forest when popped.
type collapseEdge struct {
	U, V   int // vertex ids at push time
	Length float32
	Index  int // index in heap
}

// collapseHeap implements a priority queue ordered by edge length.
type collapseHeap []*collapseEdge

func (h collapseHeap) Len() int           { return len(h) }
func (h collapseHeap) Less(i, j int) bool { return h[i].Length < h[j].Length }
func (h collapseHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].Index = i
	h[j].Index = j
}

func (h *collapseHeap) Push(x interface{}) {
	n := len(*h)
	e := x.(*collapseEdge)
	e.Index = n
	*h = append(*h, e)
}

func (h *collapseHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.Index = -1
	*h = old[0 : n-1]
	return e
}

// Decimate reduces the mesh to at most targetTriangles triangles by
// repeatedly collapsing the shortest edge to its midpoint. This is the
// last-resort fallback; it always terminates and cannot fail.
func Decimate(m *mesh.Mesh, targetTriangles int) *mesh.Mesh {
	if targetTriangles < 1 {
		targetTriangles = 1
	}
	tri := m.Triangulate()
	if targetTriangles >= tri.FaceCount() {
		return tri
	}

	positions := append([][3]float32(nil), tri.Positions...)
	parent := make([]int, len(positions))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(v int) int {
		for parent[v] != v {
			parent[v] = parent[parent[v]]
			v = parent[v]
		}
		return v
	}

	alive := make([]bool, len(tri.Faces))
	liveCount := len(tri.Faces)
	incidence := make([][]int, len(positions))
	for id, f := range tri.Faces {
		alive[id] = true
		for _, v := range f {
			incidence[v] = append(incidence[v], id)
		}
	}

	dist := func(a, b [3]float32) float32 {
		dx := float64(a[0] - b[0])
		dy := float64(a[1] - b[1])
		dz := float64(a[2] - b[2])
		return float32(gomath.Sqrt(dx*dx + dy*dy + dz*dz))
	}

	pq := &collapseHeap{}
	heap.Init(pq)
	pushEdge := func(u, v int) {
		if u == v {
			return
		}
		heap.Push(pq, &collapseEdge{U: u, V: v, Length: dist(positions[u], positions[v])})
	}
	for _, f := range tri.Faces {
		pushEdge(f[0], f[1])
		pushEdge(f[1], f[2])
		pushEdge(f[2], f[0])
	}

	const lengthSlack = 1e-6
	for liveCount > targetTriangles && pq.Len() > 0 {
		e := heap.Pop(pq).(*collapseEdge)
		ru, rv := find(e.U), find(e.V)
		if ru == rv {
			continue
		}
		cur := dist(positions[ru], positions[rv])
		if cur > e.Length+lengthSlack {
			// Endpoint moved since the entry was queued; requeue at
			// its current length.
			heap.Push(pq, &collapseEdge{U: ru, V: rv, Length: cur})
			continue
		}

		// Collapse rv into ru at the midpoint.
		positions[ru] = [3]float32{
			(positions[ru][0] + positions[rv][0]) / 2,
			(positions[ru][1] + positions[rv][1]) / 2,
			(positions[ru][2] + positions[rv][2]) / 2,
		}
		parent[rv] = ru
		incidence[ru] = append(incidence[ru], incidence[rv]...)
		incidence[rv] = nil

		for _, fid := range incidence[ru] {
			if !alive[fid] {
				continue
			}
			f := tri.Faces[fid]
			r0, r1, r2 := find(f[0]), find(f[1]), find(f[2])
			if r0 == r1 || r1 == r2 || r0 == r2 {
				alive[fid] = false
				liveCount--
				continue
			}
			pushEdge(r0, r1)
			pushEdge(r1, r2)
			pushEdge(r2, r0)
		}
	}

	// Compact surviving roots in first-seen order over alive faces.
	newIdx := make(map[int]int)
	var keep []int
	var faces []mesh.Face
	for id, f := range tri.Faces {
		if !alive[id] {
			continue
		}
		nf := make(mesh.Face, 3)
		for i, v := range f {
			r := find(v)
			ni, ok := newIdx[r]
			if !ok {
				ni = len(keep)
				newIdx[r] = ni
				keep = append(keep, r)
			}
			nf[i] = ni
		}
		faces = append(faces, nf)
	}

	out := tri.SelectVertices(keep)
	for ni, r := range keep {
		out.Positions[ni] = positions[r]
	}
	out.Faces = faces
	return out
}
