package permutation

import (
	"math/rand"

	"clusterperm/domain/tensor"
)

// poolRows concatenates every group's subject rows into one pooled slice and
// records the original group sizes. Rows are shared, never copied; permuted
// groupings are just re-gatherings of these slices.
func poolRows(groups []*tensor.GroupTensor) (rows [][]float64, sizes []int) {
	sizes = make([]int, len(groups))
	for gi, g := range groups {
		sizes[gi] = g.Subjects()
		for s := 0; s < g.Subjects(); s++ {
			rows = append(rows, g.Row(s))
		}
	}
	return rows, sizes
}

// shuffledAssignment samples, without replacement, a partition of the pooled
// subject slots into groups of the original sizes. Fisher-Yates over the
// identity permutation, then split into consecutive chunks.
func shuffledAssignment(rng *rand.Rand, total int) []int {
	perm := make([]int, total)
	for i := range perm {
		perm[i] = i
	}
	for i := total - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		perm[i], perm[j] = perm[j], perm[i]
	}
	return perm
}

// relabelGroups builds the permuted group tensors for one assignment. The
// returned tensors alias the pooled rows; they are read-only by contract.
func relabelGroups(pooled [][]float64, sizes []int, assignment []int, times, spaces int) ([]*tensor.GroupTensor, error) {
	groups := make([]*tensor.GroupTensor, len(sizes))
	offset := 0
	for gi, size := range sizes {
		rows := make([][]float64, size)
		for s := 0; s < size; s++ {
			rows[s] = pooled[assignment[offset+s]]
		}
		g, err := tensor.FromSubjectRows(times, spaces, rows)
		if err != nil {
			return nil, err
		}
		groups[gi] = g
		offset += size
	}
	return groups, nil
}

// signFlipInto fills the worker-local scratch rows with each pooled row
// multiplied by a random sign, the unrestricted sign-flip relabeling for the
// one-sample case.
func signFlipInto(rng *rand.Rand, pooled [][]float64, scratch [][]float64) {
	for s, row := range pooled {
		sign := 1.0
		if rng.Intn(2) == 1 {
			sign = -1.0
		}
		dst := scratch[s]
		for p, v := range row {
			dst[p] = sign * v
		}
	}
}
