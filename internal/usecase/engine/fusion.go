package engine

import "sort"

// ranks converts a score vector into 1-based ranks (rank 1 = highest score).
// Ties break by ascending position, matching the stable build order, so
// ranking is deterministic.
func ranks(scores []float64) []int {
	idx := make([]int, len(scores))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool {
		if scores[idx[a]] != scores[idx[b]] {
			return scores[idx[a]] > scores[idx[b]]
		}
		return idx[a] < idx[b]
	})

	r := make([]int, len(scores))
	for pos, i := range idx {
		r[i] = pos + 1
	}
	return r
}

// fuseRRF combines the two score vectors via Reciprocal Rank Fusion:
// combined[i] = 1/(k + rank_bm25[i]) + 1/(k + rank_semantic[i]).
// RRF is scale-invariant, which matters here: raw BM25 and cosine
// similarity are not comparable in magnitude.
func fuseRRF(bm25Raw, sem []float64, k int) []float64 {
	rb := ranks(bm25Raw)
	rs := ranks(sem)

	fused := make([]float64, len(bm25Raw))
	for i := range fused {
		fused[i] = 1.0/float64(k+rb[i]) + 1.0/float64(k+rs[i])
	}
	return fused
}

// fuseWeighted blends normalized BM25 with semantic similarity:
// combined[i] = (1-alpha)*bm25Norm[i] + alpha*sem[i].
func fuseWeighted(bm25Norm, sem []float64, alpha float64) []float64 {
	fused := make([]float64, len(bm25Norm))
	for i := range fused {
		fused[i] = (1-alpha)*bm25Norm[i] + alpha*sem[i]
	}
	return fused
}
