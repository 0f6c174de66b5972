package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMakeRecommendation_OverloadWins(t *testing.T) {
	// Overload is checked first: even with readiness far above its
	// threshold, high overload wins.
	rec := MakeRecommendation(0.71, 0.9)
	assert.Equal(t, ActionReduceDifficulty, rec.Action)
	assert.NotEmpty(t, rec.Text)
}

func TestMakeRecommendation_Readiness(t *testing.T) {
	rec := MakeRecommendation(0.3, 0.71)
	assert.Equal(t, ActionIncreaseDifficulty, rec.Action)
}

func TestMakeRecommendation_Maintain(t *testing.T) {
	rec := MakeRecommendation(0.5, 0.5)
	assert.Equal(t, ActionMaintain, rec.Action)
}

func TestMakeRecommendation_ThresholdsAreExclusive(t *testing.T) {
	// Exactly at the threshold is not over it.
	assert.Equal(t, ActionMaintain, MakeRecommendation(0.7, 0.7).Action)
	assert.Equal(t, ActionReduceDifficulty, MakeRecommendation(0.7000001, 0.0).Action)
	assert.Equal(t, ActionIncreaseDifficulty, MakeRecommendation(0.0, 0.7000001).Action)
}

func TestMakeRecommendation_IsPure(t *testing.T) {
	a := MakeRecommendation(0.2, 0.8)
	b := MakeRecommendation(0.2, 0.8)
	assert.Equal(t, a, b)
}
