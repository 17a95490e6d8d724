package correlate

// arena is a union-find over finding indices, with path halving and
// union by rank. Index-based nodes sidestep any pointer ownership
// between groups while they form.
type arena struct {
	parent []int
	rank   []int
}

func newArena(n int) *arena {
	a := &arena{parent: make([]int, n), rank: make([]int, n)}
	for i := range a.parent {
		a.parent[i] = i
	}
	return a
}

func (a *arena) find(i int) int {
	for a.parent[i] != i {
		a.parent[i] = a.parent[a.parent[i]]
		i = a.parent[i]
	}
	return i
}

// union joins the sets holding i and j; reports whether they were
// separate before.
func (a *arena) union(i, j int) bool {
	ri, rj := a.find(i), a.find(j)
	if ri == rj {
		return false
	}
	if a.rank[ri] < a.rank[rj] {
		ri, rj = rj, ri
	}
	a.parent[rj] = ri
	if a.rank[ri] == a.rank[rj] {
		a.rank[ri]++
	}
	return true
}
