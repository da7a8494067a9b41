package audio

import "testing"

func TestResample_SameRate(t *testing.T) {
	in := []int16{1, 2, 3}
	out := Resample(in, 16000, 16000)
	if len(out) != 3 {
		t.Fatalf("len = %d, want 3", len(out))
	}
}

func TestResample_Downsample(t *testing.T) {
	in := make([]int16, 48000)
	out := Resample(in, 48000, 16000)
	if len(out) != 16000 {
		t.Errorf("len = %d, want 16000", len(out))
	}
}

func TestResample_Empty(t *testing.T) {
	if out := Resample(nil, 48000, 16000); len(out) != 0 {
		t.Errorf("len = %d, want 0", len(out))
	}
}

func TestResample_Interpolates(t *testing.T) {
	// Upsampling a ramp should stay monotonic.
	in := []int16{0, 100, 200, 300}
	out := Resample(in, 8000, 16000)
	for i := 1; i < len(out); i++ {
		if out[i] < out[i-1] {
			t.Fatalf("output not monotonic at %d: %v", i, out)
		}
	}
}

func TestTopLabel(t *testing.T) {
	labels := []Label{
		{Name: "noise", Score: 0.1},
		{Name: "korean", Score: 0.7},
		{Name: "english", Score: 0.2},
	}
	top, ok := TopLabel(labels)
	if !ok || top.Name != "korean" {
		t.Errorf("TopLabel = %+v ok=%v, want korean", top, ok)
	}

	if _, ok := TopLabel(nil); ok {
		t.Error("TopLabel(nil) should report ok=false")
	}
}

func TestCaptureBuffer_Window(t *testing.T) {
	b := NewCaptureBuffer(4)

	if _, ok := b.Window(); ok {
		t.Error("empty buffer should not produce a window")
	}

	b.Append([]int16{1, 2})
	if _, ok := b.Window(); ok {
		t.Error("short buffer should not produce a window")
	}

	b.Append([]int16{3, 4, 5, 6})
	w, ok := b.Window()
	if !ok {
		t.Fatal("expected a window")
	}
	want := []int16{3, 4, 5, 6}
	for i := range want {
		if w[i] != want[i] {
			t.Fatalf("window = %v, want %v", w, want)
		}
	}
}

func TestCaptureBuffer_TrimsOverflow(t *testing.T) {
	b := NewCaptureBuffer(10)

	for i := 0; i < 20; i++ {
		b.Append(make([]int16, 10))
	}
	// Cap is 5 windows; overflow trims back to 2 windows.
	if b.Len() > 50 {
		t.Errorf("buffer len = %d, want <= 50", b.Len())
	}

	// The freshest window must survive trimming.
	fresh := make([]int16, 10)
	for i := range fresh {
		fresh[i] = 42
	}
	b.Append(fresh)
	w, ok := b.Window()
	if !ok {
		t.Fatal("expected a window")
	}
	if w[len(w)-1] != 42 {
		t.Errorf("window tail = %d, want 42", w[len(w)-1])
	}
}
