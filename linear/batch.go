package linear

import (
	"math/rand/v2"
)

// Permutation returns a uniformly random permutation of [0, n).
func Permutation(n int, rng *rand.Rand) []int {
	return rng.Perm(n)
}

// NumBatches returns ceil(n / batchSize), the number of mini-batches per epoch.
func NumBatches(n, batchSize int) int {
	if n <= 0 || batchSize <= 0 {
		return 0
	}
	return (n + batchSize - 1) / batchSize
}

// Batches partitions indices into consecutive chunks of batchSize.
// The last chunk may be smaller. Chunks share storage with indices.
func Batches(indices []int, batchSize int) [][]int {
	nb := NumBatches(len(indices), batchSize)
	if nb == 0 {
		return nil
	}

	batches := make([][]int, 0, nb)
	for start := 0; start < len(indices); start += batchSize {
		end := min(start+batchSize, len(indices))
		batches = append(batches, indices[start:end:end])
	}
	return batches
}

// identity returns [0, 1, ..., n-1].
func identity(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}
