// Package learning implements the hybrid BM25 + recency + outcome +
// frequency retrieval engine over the learning corpus (spec §4.9).
package learning

import "sort"

// rrfK is the reciprocal-rank-fusion damping constant; 60 is the
// standard value from the original RRF paper and keeps a single list's
// top rank from dominating the fused score.
const rrfK = 60

// fuseRanks combines several best-first ranked id lists into one fused
// ranking via reciprocal-rank fusion: score(id) = sum over lists
// containing id of 1/(rrfK + rank). Returns ids ordered best-first,
// alongside each id's raw fused score (pre-normalization).
func fuseRanks(rankings [][]int64) ([]int64, map[int64]float64) {
	fused := map[int64]float64{}
	for _, ranking := range rankings {
		for rank, id := range ranking {
			fused[id] += 1.0 / float64(rrfK+rank+1)
		}
	}
	ids := make([]int64, 0, len(fused))
	for id := range fused {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if fused[ids[i]] != fused[ids[j]] {
			return fused[ids[i]] > fused[ids[j]]
		}
		return ids[i] < ids[j]
	})
	return ids, fused
}

// normalize rescales raw fused scores into [0,1] by dividing by the
// maximum observed score (the empty/all-zero case returns 0 for every id).
func normalize(fused map[int64]float64) map[int64]float64 {
	var max float64
	for _, v := range fused {
		if v > max {
			max = v
		}
	}
	out := make(map[int64]float64, len(fused))
	if max == 0 {
		for id := range fused {
			out[id] = 0
		}
		return out
	}
	for id, v := range fused {
		out[id] = v / max
	}
	return out
}
