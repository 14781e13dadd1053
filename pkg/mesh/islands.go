package mesh

// IslandReport summarizes the connected components ("islands") of a
// face-adjacency graph. Immutable once produced.
type IslandReport struct {
	IslandCount        int
	LargestIslandFaces int
}

// CountIslands walks every face id in ascending order and runs a
// breadth-first traversal from each unvisited one. The island count is
// exactly the number of connected components of the graph; traversal
// order affects neither the count nor the largest-island size.
func CountIslands(g *Graph) IslandReport {
	var report IslandReport
	visited := make(map[int]struct{}, g.FaceCount())
	var queue []int
	var scratch []int

	for _, start := range g.Faces() {
		if _, ok := visited[start]; ok {
			continue
		}
		report.IslandCount++

		size := 0
		queue = append(queue[:0], start)
		visited[start] = struct{}{}
		for len(queue) > 0 {
			face := queue[0]
			queue = queue[1:]
			size++

			scratch = g.Neighbors(face, scratch[:0])
			for _, n := range scratch {
				if _, ok := visited[n]; ok {
					continue
				}
				visited[n] = struct{}{}
				queue = append(queue, n)
			}
		}
		if size > report.LargestIslandFaces {
			report.LargestIslandFaces = size
		}
	}
	return report
}

// AnalyzeIslands builds the adjacency graph for a mesh and returns its
// island report. The graph is an internal temporary and is discarded.
func AnalyzeIslands(m *Mesh) IslandReport {
	return CountIslands(BuildGraph(m))
}
