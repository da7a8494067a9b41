package fusion

import "strings"

// ForbiddenLabel is the audio label that marks a violation.
const ForbiddenLabel = "korean"

// MouthState is the descriptive visual sub-state, derived from the same
// booleans as the verdict and exposed for display only.
type MouthState string

const (
	MouthNoFace   MouthState = "No Face"
	MouthClosed   MouthState = "Closed"
	MouthOpen     MouthState = "Mouth Open"
	MouthSpeaking MouthState = "Speaking"
)

// Classify returns true when the observation is suspicious under the given
// thresholds. It is a pure function; the rule is evaluated in this exact
// order:
//
//  1. mouthOpen   = gap > MouthOpenMin
//  2. isSpeaking  = mouthOpen && movement > LipMovementMin
//  3. isSuspicious = isSpeaking && label == "korean" && score > ConfidenceMin
//
// No face detected means the mouth is never open, so the absence of a face
// can never raise suspicion on its own.
func Classify(obs Observation, t Thresholds) bool {
	mouthOpen := obs.HasFace && obs.MouthGap > t.MouthOpenMin
	isSpeaking := mouthOpen && obs.LipMovement > t.LipMovementMin
	return isSpeaking &&
		strings.ToLower(obs.AudioLabel) == ForbiddenLabel &&
		obs.AudioConfidence > t.ConfidenceMin
}

// MouthStateOf derives the display state from the same booleans Classify
// evaluates.
func MouthStateOf(obs Observation, t Thresholds) MouthState {
	if !obs.HasFace {
		return MouthNoFace
	}
	if obs.MouthGap > t.MouthOpenMin {
		if obs.LipMovement > t.LipMovementMin {
			return MouthSpeaking
		}
		return MouthOpen
	}
	return MouthClosed
}
