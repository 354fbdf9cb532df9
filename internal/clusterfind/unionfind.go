package clusterfind

// unionFind is a disjoint-set forest over flat point indices with path
// halving and union by size. The arena is allocated once per Find call and
// only active indices are touched after initialization.
type unionFind struct {
	parent []int32
	size   []int32
}

func newUnionFind(n int) *unionFind {
	parent := make([]int32, n)
	size := make([]int32, n)
	for i := range parent {
		parent[i] = int32(i)
		size[i] = 1
	}
	return &unionFind{parent: parent, size: size}
}

func (u *unionFind) find(p int) int {
	x := int32(p)
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]] // path halving
		x = u.parent[x]
	}
	return int(x)
}

func (u *unionFind) union(p, q int) {
	rp, rq := int32(u.find(p)), int32(u.find(q))
	if rp == rq {
		return
	}
	if u.size[rp] < u.size[rq] {
		rp, rq = rq, rp
	}
	u.parent[rq] = rp
	u.size[rp] += u.size[rq]
}
