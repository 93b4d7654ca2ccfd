package trust

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Ramsey-B/clover/pkg/models"
)

func TestComputeDefaultFormula(t *testing.T) {
	w := DefaultWeights()

	// 40*(4.5/5) + 0.4*10 + 0.3*20 + 10 = 36 + 4 + 6 + 10 = 56
	assert.Equal(t, 56, Compute(w, 4.5, 10, 20, true))

	// Same inputs without the cross-tenant bonus.
	assert.Equal(t, 46, Compute(w, 4.5, 10, 20, false))
}

func TestComputeNoSignals(t *testing.T) {
	assert.Equal(t, 0, Compute(DefaultWeights(), 0, 0, 0, false))
}

func TestComputeClampsToHundred(t *testing.T) {
	w := DefaultWeights()
	w.CrossTenantBonus = 50

	score := Compute(w, 5, 1000, 1000, true)
	assert.Equal(t, 100, score)
}

func TestComputeCapsReviewAndTransactionCounts(t *testing.T) {
	w := DefaultWeights()

	atCap := Compute(w, 0, w.ReviewCountCap, w.TransactionCountCap, false)
	overCap := Compute(w, 0, w.ReviewCountCap*10, w.TransactionCountCap*10, false)

	assert.Equal(t, atCap, overCap)
	// 0.4*25 + 0.3*50 = 10 + 15
	assert.Equal(t, 25, atCap)
}

func TestComputeMonotonicInEachInput(t *testing.T) {
	w := DefaultWeights()

	base := Compute(w, 3, 5, 5, false)

	assert.GreaterOrEqual(t, Compute(w, 4, 5, 5, false), base)
	assert.GreaterOrEqual(t, Compute(w, 3, 6, 5, false), base)
	assert.GreaterOrEqual(t, Compute(w, 3, 5, 6, false), base)
	assert.GreaterOrEqual(t, Compute(w, 3, 5, 5, true), base)
}

func TestComputeRoundsToNearest(t *testing.T) {
	w := Weights{ReviewAverage: 40, ReviewCountCap: 25, TransactionCountCap: 50}

	// 40*(4.2/5) = 33.6 rounds up.
	assert.Equal(t, 34, Compute(w, 4.2, 0, 0, false))
}

func TestScoreLevelBoundaries(t *testing.T) {
	cases := []struct {
		score int
		want  models.TrustLevel
	}{
		{0, models.TrustNew},
		{1, models.TrustGrowing},
		{29, models.TrustGrowing},
		{30, models.TrustEstablished},
		{59, models.TrustEstablished},
		{60, models.TrustTrusted},
		{84, models.TrustTrusted},
		{85, models.TrustExcellent},
		{100, models.TrustExcellent},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, models.TrustLevelForScore(tc.score), "score %d", tc.score)
	}
}
