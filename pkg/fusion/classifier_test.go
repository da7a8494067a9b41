package fusion

import (
	"testing"
	"time"
)

func obs(gap, movement float64, hasFace bool, label string, score float64) Observation {
	return Observation{
		MouthGap:        gap,
		LipMovement:     movement,
		HasFace:         hasFace,
		AudioLabel:      label,
		AudioConfidence: score,
		Timestamp:       time.Now(),
	}
}

func TestClassify(t *testing.T) {
	th := DefaultThresholds()

	tests := []struct {
		name string
		obs  Observation
		want bool
	}{
		{"speaking korean high confidence", obs(0.02, 0.003, true, "korean", 0.9), true},
		{"case insensitive label", obs(0.02, 0.003, true, "Korean", 0.9), true},
		{"no face", obs(0.02, 0.003, false, "korean", 0.99), false},
		{"mouth closed", obs(0.005, 0.003, true, "korean", 0.9), false},
		{"mouth open but still", obs(0.02, 0.001, true, "korean", 0.9), false},
		{"speaking english", obs(0.02, 0.003, true, "english", 0.9), false},
		{"low confidence", obs(0.02, 0.003, true, "korean", 0.4), false},
		{"confidence exactly at threshold", obs(0.02, 0.003, true, "korean", 0.5), false},
		{"background noise", obs(0.02, 0.003, true, "noise", 0.9), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.obs, th); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassify_Pure(t *testing.T) {
	th := DefaultThresholds()
	o := obs(0.02, 0.003, true, "korean", 0.9)

	first := Classify(o, th)
	for i := 0; i < 100; i++ {
		if Classify(o, th) != first {
			t.Fatal("Classify is not deterministic for identical inputs")
		}
	}
}

func TestClassify_NoFaceNeverSuspicious(t *testing.T) {
	th := DefaultThresholds()

	// Even the strongest audio signal must not raise suspicion without a face.
	o := obs(0.05, 0.01, false, "korean", 1.0)
	if Classify(o, th) {
		t.Error("no face must never be suspicious")
	}
	if got := MouthStateOf(o, th); got != MouthNoFace {
		t.Errorf("MouthStateOf = %q, want %q", got, MouthNoFace)
	}
}

func TestMouthStateOf(t *testing.T) {
	th := DefaultThresholds()

	tests := []struct {
		name string
		obs  Observation
		want MouthState
	}{
		{"closed", obs(0.005, 0, true, "noise", 0), MouthClosed},
		{"open but still", obs(0.02, 0.001, true, "noise", 0), MouthOpen},
		{"speaking", obs(0.02, 0.003, true, "noise", 0), MouthSpeaking},
		{"no face", obs(0.02, 0.003, false, "noise", 0), MouthNoFace},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MouthStateOf(tt.obs, th); got != tt.want {
				t.Errorf("MouthStateOf = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFromPercent(t *testing.T) {
	th := FromPercent(50, 10, 20, 3)
	want := DefaultThresholds()
	if th != want {
		t.Errorf("FromPercent(50, 10, 20, 3) = %+v, want %+v", th, want)
	}
}
