// Package graph implements the in-memory DAG over job tasks: construction,
// cycle detection, descendant queries, and start-point admissibility.
//
// The graph is represented as an arena of nodes with edges stored as
// integer indices (name -> index through a side map), so the structure is
// acyclic by construction and free of cyclic references.
package graph

import (
	"container/heap"
	"fmt"
	"sort"
)

// Graph is an immutable, validated DAG over task names.
type Graph struct {
	names    []string       // canonical order: insertion order
	index    map[string]int // name -> index
	outgoing [][]int        // by index, sorted ascending: edges A->B where B depends on A
	incoming [][]int        // by index, sorted ascending
	indeg    []int
	depth    []int // longest path length from any root
}

type edge struct{ from, to int }

// New builds and validates a Graph from task names and dependency edges.
//
// An entry a in dependsOn[b] means b depends on a (b runs after a). Validation
// rejects empty/duplicate names, edges referencing unknown names, self-loops,
// duplicate edges, and any cycle.
func New(names []string, dependsOn map[string][]string) (*Graph, error) {
	index := make(map[string]int, len(names))
	for i, n := range names {
		if n == "" {
			return nil, fmt.Errorf("task name is required")
		}
		if _, exists := index[n]; exists {
			return nil, fmt.Errorf("duplicate task name: %q", n)
		}
		index[n] = i
	}

	seen := make(map[edge]struct{})
	var edges []edge
	for to, deps := range dependsOn {
		toIdx, ok := index[to]
		if !ok {
			return nil, fmt.Errorf("unknown task: %q", to)
		}
		for _, from := range deps {
			fromIdx, ok := index[from]
			if !ok {
				return nil, fmt.Errorf("%q depends on unknown task %q", to, from)
			}
			if fromIdx == toIdx {
				return nil, fmt.Errorf("self-loop: %q depends on itself", to)
			}
			e := edge{from: fromIdx, to: toIdx}
			if _, dup := seen[e]; dup {
				return nil, fmt.Errorf("duplicate dependency: %q -> %q", from, to)
			}
			seen[e] = struct{}{}
			edges = append(edges, e)
		}
	}

	sort.Slice(edges, func(i, j int) bool {
		if edges[i].from != edges[j].from {
			return edges[i].from < edges[j].from
		}
		return edges[i].to < edges[j].to
	})

	outgoing := make([][]int, len(names))
	incoming := make([][]int, len(names))
	indeg := make([]int, len(names))
	for _, e := range edges {
		outgoing[e.from] = append(outgoing[e.from], e.to)
		incoming[e.to] = append(incoming[e.to], e.from)
		indeg[e.to]++
	}

	g := &Graph{names: append([]string(nil), names...), index: index, outgoing: outgoing, incoming: incoming, indeg: indeg}

	order := g.topoOrderIndices()
	if len(order) != len(names) {
		cycle := g.findCycleDeterministic()
		msg := "cycle detected"
		if len(cycle) > 0 {
			msg = fmt.Sprintf("cycle detected: %s", joinArrow(cycle))
		}
		return nil, fmt.Errorf("%s", msg)
	}

	g.depth = g.computeDepth(order)
	return g, nil
}

func joinArrow(names []string) string {
	out := names[0]
	for _, n := range names[1:] {
		out += " -> " + n
	}
	return out
}

// HasTask reports whether name is a task in the graph.
func (g *Graph) HasTask(name string) bool {
	_, ok := g.index[name]
	return ok
}

// Names returns all task names in canonical (insertion) order.
func (g *Graph) Names() []string {
	out := make([]string, len(g.names))
	copy(out, g.names)
	return out
}

// Depth returns the longest-path distance of name from any root.
func (g *Graph) Depth(name string) (int, bool) {
	idx, ok := g.index[name]
	if !ok {
		return 0, false
	}
	return g.depth[idx], true
}

// Descendants returns every task transitively depending on name, excluding
// name itself, in a deterministic order: a traversal that always visits the
// lowest-index task on its frontier next.
func (g *Graph) Descendants(name string) ([]string, error) {
	start, ok := g.index[name]
	if !ok {
		return nil, fmt.Errorf("unknown task: %q", name)
	}
	visited := make([]bool, len(g.names))
	visited[start] = true

	hq := &intMinHeap{}
	heap.Init(hq)
	for _, d := range g.outgoing[start] {
		heap.Push(hq, d)
	}

	var out []string
	for hq.Len() > 0 {
		u := heap.Pop(hq).(int)
		if visited[u] {
			continue
		}
		visited[u] = true
		out = append(out, g.names[u])
		for _, v := range g.outgoing[u] {
			if !visited[v] {
				heap.Push(hq, v)
			}
		}
	}
	return out, nil
}

// Ancestors returns every task name reachable as a transitive dependency of
// name, excluding name itself.
func (g *Graph) Ancestors(name string) ([]string, error) {
	start, ok := g.index[name]
	if !ok {
		return nil, fmt.Errorf("unknown task: %q", name)
	}
	visited := make([]bool, len(g.names))
	visited[start] = true

	hq := &intMinHeap{}
	heap.Init(hq)
	for _, p := range g.incoming[start] {
		heap.Push(hq, p)
	}

	var out []string
	for hq.Len() > 0 {
		u := heap.Pop(hq).(int)
		if visited[u] {
			continue
		}
		visited[u] = true
		out = append(out, g.names[u])
		for _, v := range g.incoming[u] {
			if !visited[v] {
				heap.Push(hq, v)
			}
		}
	}
	return out, nil
}

// WouldTriggerUpstream reports whether starting execution at start would
// require running any task outside D = {start} ∪ descendants(start): that
// is, whether some descendant of start directly depends on a task outside
// D.
func (g *Graph) WouldTriggerUpstream(start string) (bool, error) {
	if !g.HasTask(start) {
		return false, fmt.Errorf("the task specified could not be found")
	}
	desc, err := g.Descendants(start)
	if err != nil {
		return false, err
	}
	inD := make(map[string]bool, len(desc)+1)
	inD[start] = true
	for _, d := range desc {
		inD[d] = true
	}

	// Only the direct dependencies of start's descendants are checked:
	// start's own ancestors are, by definition, the prior tasks we are
	// choosing to skip, and they reach a descendant only through start.
	for _, name := range desc {
		for _, p := range g.incoming[g.index[name]] {
			if !inD[g.names[p]] {
				return true, nil
			}
		}
	}
	return false, nil
}

func (g *Graph) topoOrderIndices() []int {
	indeg := make([]int, len(g.indeg))
	copy(indeg, g.indeg)

	ready := &intMinHeap{}
	heap.Init(ready)
	for i := range indeg {
		if indeg[i] == 0 {
			heap.Push(ready, i)
		}
	}

	out := make([]int, 0, len(indeg))
	for ready.Len() > 0 {
		n := heap.Pop(ready).(int)
		out = append(out, n)
		for _, m := range g.outgoing[n] {
			indeg[m]--
			if indeg[m] == 0 {
				heap.Push(ready, m)
			}
		}
	}
	return out
}

func (g *Graph) computeDepth(order []int) []int {
	depth := make([]int, len(g.names))
	for _, u := range order {
		maxParent := 0
		for _, p := range g.incoming[u] {
			if cand := depth[p] + 1; cand > maxParent {
				maxParent = cand
			}
		}
		depth[u] = maxParent
	}
	return depth
}

func (g *Graph) findCycleDeterministic() []string {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make([]int, len(g.names))
	parent := make([]int, len(g.names))
	for i := range parent {
		parent[i] = -1
	}

	var cycle []int
	var dfs func(u int) bool
	dfs = func(u int) bool {
		color[u] = gray
		for _, v := range g.outgoing[u] {
			if color[v] == white {
				parent[v] = u
				if dfs(v) {
					return true
				}
				continue
			}
			if color[v] == gray {
				cycle = append(cycle, v)
				cur := u
				for cur != -1 && cur != v {
					cycle = append(cycle, cur)
					cur = parent[cur]
				}
				cycle = append(cycle, v)
				return true
			}
		}
		color[u] = black
		return false
	}

	for i := 0; i < len(g.names); i++ {
		if color[i] != white {
			continue
		}
		if dfs(i) {
			break
		}
	}

	if len(cycle) == 0 {
		return nil
	}
	rev := make([]int, len(cycle))
	for i := range cycle {
		rev[i] = cycle[len(cycle)-1-i]
	}
	out := make([]string, 0, len(rev))
	for _, idx := range rev {
		out = append(out, g.names[idx])
	}
	return out
}

type intMinHeap []int

func (h intMinHeap) Len() int            { return len(h) }
func (h intMinHeap) Less(i, j int) bool  { return h[i] < h[j] }
func (h intMinHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *intMinHeap) Push(x interface{}) { *h = append(*h, x.(int)) }
func (h *intMinHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
