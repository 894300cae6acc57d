// Package pathfinder computes step lists over the hex grid. The search is
// Dijkstra with an optional L1 lower-bound heuristic; expansion order is
// fully deterministic, tie-breaking equal costs by lexicographic coordinate
// order.
package pathfinder

import (
	"container/heap"

	"github.com/hexfront/hexfront/internal/hexgrid"
	"github.com/hexfront/hexfront/internal/mapdata"
)

// EdgeWeightFunc returns the cost of stepping between two adjacent tiles,
// or mapdata.NoConnection. Callers layer faction rules and dynamic
// obstacles on top of the base map here.
type EdgeWeightFunc func(from, to hexgrid.Coord) int64

// DefaultNodeBudget bounds how many nodes a single search may expand when
// the caller passes no budget. Consensus paths always pass the configured
// node-search budget instead.
const DefaultNodeBudget = 100_000

type pqItem struct {
	coord hexgrid.Coord
	// dist is the exact cost from the source; prio adds the heuristic.
	dist int64
	prio int64
}

type priorityQueue []pqItem

func (q priorityQueue) Len() int { return len(q) }
func (q priorityQueue) Less(i, j int) bool {
	if q[i].prio != q[j].prio {
		return q[i].prio < q[j].prio
	}
	return hexgrid.Less(q[i].coord, q[j].coord)
}
func (q priorityQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }
func (q *priorityQueue) Push(x any)        { *q = append(*q, x.(pqItem)) }
func (q *priorityQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// Find returns the step list from source to target inclusive, or nil when
// no path exists within the node budget. budget <= 0 uses the default.
func Find(source, target hexgrid.Coord, edges EdgeWeightFunc, budget int) []hexgrid.Coord {
	if budget <= 0 {
		budget = DefaultNodeBudget
	}
	if source == target {
		return []hexgrid.Coord{source}
	}

	dist := map[hexgrid.Coord]int64{source: 0}
	prev := make(map[hexgrid.Coord]hexgrid.Coord)
	done := make(map[hexgrid.Coord]bool)

	pq := priorityQueue{{coord: source, dist: 0, prio: int64(hexgrid.Distance(source, target))}}
	heap.Init(&pq)

	expanded := 0
	for pq.Len() > 0 {
		cur := heap.Pop(&pq).(pqItem)
		if done[cur.coord] {
			continue
		}
		done[cur.coord] = true
		if cur.coord == target {
			return reconstruct(prev, source, target)
		}
		expanded++
		if expanded > budget {
			return nil
		}

		for _, n := range cur.coord.Neighbours() {
			if done[n] {
				continue
			}
			w := edges(cur.coord, n)
			if w == mapdata.NoConnection {
				continue
			}
			nd := cur.dist + w
			if old, ok := dist[n]; ok && old <= nd {
				continue
			}
			dist[n] = nd
			prev[n] = cur.coord
			// The L1 heuristic admissibly lower-bounds the remaining
			// cost only when scaled by nothing: edge weights are at
			// least one.
			heap.Push(&pq, pqItem{coord: n, dist: nd, prio: nd + int64(hexgrid.Distance(n, target))})
		}
	}
	return nil
}

func reconstruct(prev map[hexgrid.Coord]hexgrid.Coord, source, target hexgrid.Coord) []hexgrid.Coord {
	var rev []hexgrid.Coord
	for c := target; ; {
		rev = append(rev, c)
		if c == source {
			break
		}
		c = prev[c]
	}
	steps := make([]hexgrid.Coord, 0, len(rev))
	for i := len(rev) - 1; i >= 0; i-- {
		steps = append(steps, rev[i])
	}
	return steps
}
