package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const tolerance = 1e-9

func TestOverloadIndex_PinnedWeights(t *testing.T) {
	// 0.4*(1-acc) + 0.3*normTime + 0.2*skip + 0.1*mismatch
	got := OverloadIndex(0.75, 1.0/3.0, 0.2, 0)
	assert.InDelta(t, 0.4*0.25+0.3/3.0+0.2*0.2, got, tolerance)

	got = OverloadIndex(0, 0, 0, 0)
	assert.InDelta(t, 0.4, got, tolerance)

	got = OverloadIndex(1, 0, 0, 1)
	assert.InDelta(t, 0.1, got, tolerance)
}

func TestOverloadIndex_ClampsAtExtremes(t *testing.T) {
	// All inputs maxed out: the raw sum is exactly the weight total, and
	// anything above must clamp to 1.0 rather than exceed it.
	assert.Equal(t, 1.0, OverloadIndex(0, 1, 1, 1))
	assert.Equal(t, 1.0, OverloadIndex(-5, 10, 10, 10))
	assert.Equal(t, 0.0, OverloadIndex(1, -1, -1, -1))
}

func TestOverloadIndex_BoundedForUnitInputs(t *testing.T) {
	steps := []float64{0, 0.25, 0.5, 0.75, 1}
	for _, acc := range steps {
		for _, nt := range steps {
			for _, sk := range steps {
				for _, sm := range steps {
					got := OverloadIndex(acc, nt, sk, sm)
					assert.GreaterOrEqual(t, got, 0.0)
					assert.LessOrEqual(t, got, 1.0)
				}
			}
		}
	}
}

func TestReadinessIndex_ExactEndpoints(t *testing.T) {
	assert.Equal(t, 1.0, ReadinessIndex(1, 0, 0))
	assert.Equal(t, 0.0, ReadinessIndex(0, 1, 1))
}

func TestReadinessIndex_PinnedWeights(t *testing.T) {
	// 0.5*acc + 0.3*(1-normTime) + 0.2*(1-fatigue)
	got := ReadinessIndex(0.75, 1.0/3.0, 1.0/3.0)
	assert.InDelta(t, 0.5*0.75+0.3*2.0/3.0+0.2*2.0/3.0, got, tolerance)
}

func TestSensoryMismatch(t *testing.T) {
	assert.InDelta(t, 0.0, SensoryMismatch(0.5), tolerance)
	assert.InDelta(t, 0.5, SensoryMismatch(0), tolerance)
	assert.InDelta(t, 0.5, SensoryMismatch(1), tolerance)
}

func TestFatigueProxy(t *testing.T) {
	assert.InDelta(t, 1.0/3.0, FatigueProxy(600), tolerance)
	assert.Equal(t, 1.0, FatigueProxy(3600))
	assert.Equal(t, 0.0, FatigueProxy(0))
}

func TestClamp01(t *testing.T) {
	assert.Equal(t, 0.0, Clamp01(-0.1))
	assert.Equal(t, 1.0, Clamp01(1.1))
	assert.Equal(t, 0.42, Clamp01(0.42))
}
