package scoring

import (
	"github.com/neuroclass/neuroclass-hub/internal/domain/lesson"
	"github.com/neuroclass/neuroclass-hub/internal/domain/shared"
)

// DefaultReferenceSeconds is the block duration treated as "a full block"
// when normalizing time. A student at baseline processing speed who spends
// this long lands at normTime = 1. Tunable policy, not a structural
// contract; configurable via SCORING_REFERENCE_SECONDS.
const DefaultReferenceSeconds = 1800

// ErrInvalidReference is returned for a non-positive reference duration.
var ErrInvalidReference = shared.NewDomainError("scoring", "NormalizeTime", shared.ErrValueOutOfRange, "reference seconds must be positive")

// NormalizeTime rescales a raw block duration by the student's processing
// speed and maps it into [0,1]. A processing speed above 1.0 means the
// student works faster than baseline, so the same wall-clock duration
// normalizes lower.
//
// A non-positive processing speed is invalid profile data and is rejected,
// never silently defaulted.
func NormalizeTime(durationSeconds, processingSpeed, referenceSeconds float64) (float64, error) {
	if processingSpeed <= 0 {
		return 0, lesson.ErrInvalidProcessingSpeed
	}
	if referenceSeconds <= 0 {
		return 0, ErrInvalidReference
	}
	if durationSeconds < 0 {
		durationSeconds = 0
	}
	return Clamp01(durationSeconds / processingSpeed / referenceSeconds), nil
}
