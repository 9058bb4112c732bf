package retrieval

import "sort"

const defaultRRFK = 60

// fuseRRF merges two rank lists by reciprocal-rank fusion. Each chunk accrues
// 1/(k+rank) per list it appears in, with rank the 1-based position in that
// list; a chunk absent from one list simply misses that contribution. Output
// is ordered by descending fused score, ties broken by chunk position.
func fuseRRF(dense, sparse []Hit, rrfK int) []Hit {
	if rrfK <= 0 {
		rrfK = defaultRRFK
	}

	acc := make(map[int]float64, len(dense)+len(sparse))
	addList := func(hits []Hit) {
		for rank, hit := range hits {
			acc[hit.Index] += 1.0 / float64(rrfK+rank+1)
		}
	}
	addList(dense)
	addList(sparse)

	out := make([]Hit, 0, len(acc))
	for idx, score := range acc {
		out = append(out, Hit{Index: idx, Score: score})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Index < out[j].Index
	})
	return out
}
