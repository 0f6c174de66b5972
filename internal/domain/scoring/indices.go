package scoring

import "math"

// Scoring policy weights. These constants are the documented scoring
// policy and are pinned by tests; changing them changes every stored
// index's meaning.
const (
	overloadAccuracyWeight = 0.4
	overloadTimeWeight     = 0.3
	overloadSkipWeight     = 0.2
	overloadSensoryWeight  = 0.1

	readinessAccuracyWeight = 0.5
	readinessTimeWeight     = 0.3
	readinessFatigueWeight  = 0.2
)

// fatigueReferenceSeconds converts block duration into the fatigue proxy:
// half an hour of continuous work counts as full fatigue.
const fatigueReferenceSeconds = 1800

// Clamp01 clamps x to [0,1].
func Clamp01(x float64) float64 {
	return math.Min(1, math.Max(0, x))
}

// SensoryMismatch derives the mismatch between the environment's assumed
// mid-level stimulation and the student's sensory sensitivity.
func SensoryMismatch(sensorySensitivity float64) float64 {
	return math.Abs(0.5 - (1 - sensorySensitivity))
}

// FatigueProxy estimates fatigue from raw block duration in seconds.
func FatigueProxy(durationSeconds float64) float64 {
	return Clamp01(durationSeconds / fatigueReferenceSeconds)
}

// OverloadIndex estimates cognitive overload during a block, bounded to
// [0,1]. All inputs are expected in [0,1]; the result is clamped either way.
func OverloadIndex(accuracy, normTime, skipRate, sensoryMismatch float64) float64 {
	return Clamp01(overloadAccuracyWeight*(1-accuracy) +
		overloadTimeWeight*normTime +
		overloadSkipWeight*skipRate +
		overloadSensoryWeight*sensoryMismatch)
}

// ReadinessIndex estimates readiness to progress to harder material,
// bounded to [0,1].
func ReadinessIndex(accuracy, normTime, fatigueProxy float64) float64 {
	return Clamp01(readinessAccuracyWeight*accuracy +
		readinessTimeWeight*(1-normTime) +
		readinessFatigueWeight*(1-fatigueProxy))
}
