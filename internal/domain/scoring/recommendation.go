package scoring

// Action is the machine-readable teaching recommendation tag.
type Action string

const (
	// ActionReduceDifficulty - overload is high, back off.
	ActionReduceDifficulty Action = "reduce_difficulty"

	// ActionIncreaseDifficulty - the student is ready for harder material.
	ActionIncreaseDifficulty Action = "increase_difficulty"

	// ActionMaintain - keep the current difficulty.
	ActionMaintain Action = "maintain"
)

// Decision thresholds for the recommendation classifier.
const (
	overloadThreshold  = 0.7
	readinessThreshold = 0.7
)

// Recommendation is the classifier output: a machine-readable action plus
// a human-readable explanation for the teacher.
type Recommendation struct {
	Action Action `json:"action"`
	Text   string `json:"text"`
}

// MakeRecommendation maps the two indices to a discrete action.
// Evaluated in order, first match wins: the overload check takes priority
// even when readiness also exceeds its threshold.
func MakeRecommendation(overloadIndex, readinessIndex float64) Recommendation {
	switch {
	case overloadIndex > overloadThreshold:
		return Recommendation{
			Action: ActionReduceDifficulty,
			Text:   "High cognitive overload: reduce task difficulty",
		}
	case readinessIndex > readinessThreshold:
		return Recommendation{
			Action: ActionIncreaseDifficulty,
			Text:   "High readiness: the student can take harder tasks",
		}
	default:
		return Recommendation{
			Action: ActionMaintain,
			Text:   "Load is within the normal range: keep current difficulty",
		}
	}
}
