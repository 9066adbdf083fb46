package learning

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFuseRanks_FirstRankAcrossListsWinsTie(t *testing.T) {
	ids, fused := fuseRanks([][]int64{{1, 2, 3}, {2, 1, 3}})
	assert.Equal(t, []int64{1, 2, 3}, ids)
	assert.InDelta(t, fused[1], fused[2], 1e-9, "ids ranked first once each should tie")
}

func TestFuseRanks_EmptyInput(t *testing.T) {
	ids, fused := fuseRanks(nil)
	assert.Empty(t, ids)
	assert.Empty(t, fused)
}

func TestNormalize_ScalesToUnitMax(t *testing.T) {
	out := normalize(map[int64]float64{1: 0.5, 2: 1.0, 3: 0.25})
	assert.Equal(t, 1.0, out[2])
	assert.Equal(t, 0.5, out[1])
	assert.Equal(t, 0.25, out[3])
}

func TestNormalize_AllZeroReturnsZero(t *testing.T) {
	out := normalize(map[int64]float64{1: 0, 2: 0})
	assert.Equal(t, 0.0, out[1])
	assert.Equal(t, 0.0, out[2])
}
