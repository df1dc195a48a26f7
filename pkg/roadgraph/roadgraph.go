// Package roadgraph implements RoadGraph: a directed multigraph of
// lane-to-lane Connections with Dijkstra shortest-path search and
// induced-subgraph extraction.
package roadgraph

// Connection is a directed, weighted edge between two lane ids.
type Connection struct {
	FromID string
	ToID   string
	Weight float64
}

type pairKey struct{ from, to string }

// RoadGraph is a directed graph over lane ids. At most one Connection exists
// per ordered pair; successors and predecessors mirror the connection set.
type RoadGraph struct {
	successors   map[string][]string // id -> successor ids, in insertion order
	successorSet map[string]map[string]bool
	predecessors map[string][]string
	connections  map[pairKey]Connection
}

// New returns an empty RoadGraph.
func New() *RoadGraph {
	return &RoadGraph{
		successors:   make(map[string][]string),
		successorSet: make(map[string]map[string]bool),
		predecessors: make(map[string][]string),
		connections:  make(map[pairKey]Connection),
	}
}

// AddConnection mirrors c into successors/predecessors and records it in the
// connection set. Repeating the same (from, to) pair is a no-op — it does
// not duplicate ordering or the weight.
func (g *RoadGraph) AddConnection(c Connection) {
	key := pairKey{c.FromID, c.ToID}
	if _, exists := g.connections[key]; exists {
		return
	}
	g.connections[key] = c

	if g.successorSet[c.FromID] == nil {
		g.successorSet[c.FromID] = make(map[string]bool)
	}
	if !g.successorSet[c.FromID][c.ToID] {
		g.successorSet[c.FromID][c.ToID] = true
		g.successors[c.FromID] = append(g.successors[c.FromID], c.ToID)
	}
	g.predecessors[c.ToID] = append(g.predecessors[c.ToID], c.FromID)
}

// FindConnection looks up the connection from -> to, if any.
func (g *RoadGraph) FindConnection(from, to string) (Connection, bool) {
	c, ok := g.connections[pairKey{from, to}]
	return c, ok
}

// Successors returns the successor ids of id, in the order they were added.
func (g *RoadGraph) Successors(id string) []string {
	return g.successors[id]
}

// Predecessors returns the predecessor ids of id, in the order they were added.
func (g *RoadGraph) Predecessors(id string) []string {
	return g.predecessors[id]
}

// GetBestPath runs Dijkstra from `from` to `to`, relaxing successors in their
// insertion order and breaking equal-cost ties toward the earlier-discovered
// node (so identical-weight graphs return a deterministic, lexicographically
// first path under successor insertion order). Returns nil if unreachable.
func (g *RoadGraph) GetBestPath(from, to string) []string {
	if from == to {
		return []string{from}
	}

	dist := map[string]float64{from: 0}
	prev := map[string]string{}
	visited := map[string]bool{}

	h := &minHeap{}
	var seq uint64
	h.push(pqItem{id: from, dist: 0, seq: seq})
	seq++

	for h.Len() > 0 {
		item := h.pop()
		if visited[item.id] {
			continue
		}
		if d, ok := dist[item.id]; ok && item.dist > d {
			continue // stale heap entry
		}
		visited[item.id] = true
		if item.id == to {
			break
		}

		for _, succID := range g.successors[item.id] {
			conn := g.connections[pairKey{item.id, succID}]
			nd := dist[item.id] + conn.Weight
			if cur, ok := dist[succID]; !ok || nd < cur {
				dist[succID] = nd
				prev[succID] = item.id
				h.push(pqItem{id: succID, dist: nd, seq: seq})
				seq++
			}
		}
	}

	if !visited[to] {
		return nil
	}

	path := []string{to}
	cur := to
	for cur != from {
		p, ok := prev[cur]
		if !ok {
			return nil
		}
		path = append(path, p)
		cur = p
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// CreateSubgraph returns the induced subgraph over laneIDs: every connection
// whose endpoints are both in laneIDs is retained.
func (g *RoadGraph) CreateSubgraph(laneIDs []string) *RoadGraph {
	keep := make(map[string]bool, len(laneIDs))
	for _, id := range laneIDs {
		keep[id] = true
	}

	sub := New()
	for key, c := range g.connections {
		if keep[key.from] && keep[key.to] {
			sub.AddConnection(c)
		}
	}
	return sub
}
