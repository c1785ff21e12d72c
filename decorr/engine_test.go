package decorr

import "testing"

// TestApplyMonoTermOne exercises the simplest rotating-history kernel (term
// 1): each output sample is its residual plus the weighted previous output,
// with the weight nudged by +/-delta based on sign agreement.
func TestApplyMonoTermOne(t *testing.T) {
	p := &Pass{Term: 1, Delta: 2, WeightA: 256}
	buf := []int32{10, 10, 10}
	ApplyMono([]*Pass{p}, buf)

	// First sample: history is zero, so output = input unchanged.
	if buf[0] != 10 {
		t.Errorf("buf[0] = %d, want 10", buf[0])
	}
	// Subsequent samples predict from the growing history and must differ
	// from the raw residual once the weight contributes.
	if buf[1] == 10 && buf[2] == 10 {
		t.Errorf("decorrelation pass had no effect: buf = %v", buf)
	}
}

func TestApplyMonoIsDeterministic(t *testing.T) {
	mk := func() *Pass { return &Pass{Term: 2, Delta: 1, WeightA: 100} }
	buf1 := []int32{5, -3, 7, 2}
	buf2 := []int32{5, -3, 7, 2}
	ApplyMono([]*Pass{mk()}, buf1)
	ApplyMono([]*Pass{mk()}, buf2)
	for i := range buf1 {
		if buf1[i] != buf2[i] {
			t.Fatalf("non-deterministic output at %d: %d vs %d", i, buf1[i], buf2[i])
		}
	}
}

func TestApplyStereoCrossTermMinusOne(t *testing.T) {
	p := &Pass{Term: -1, Delta: 2, WeightA: 256, WeightB: 256}
	// interleaved [L, R, L, R]
	buf := []int32{4, 6, 4, 6}
	ApplyStereo([]*Pass{p}, buf)
	if len(buf) != 4 {
		t.Fatalf("buffer length changed: %d", len(buf))
	}
}

func TestClampWeight(t *testing.T) {
	tests := []struct {
		in, want int32
	}{
		{0, 0},
		{2000, 1024},
		{-2000, -1024},
		{500, 500},
	}
	for _, tt := range tests {
		if got := clampWeight(tt.in); got != tt.want {
			t.Errorf("clampWeight(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestRotateHistory(t *testing.T) {
	samples := [MaxTerm]int32{0, 1, 2, 3, 4, 5, 6, 7}
	rotateHistory(&samples, 3)
	want := [MaxTerm]int32{3, 4, 5, 6, 7, 0, 1, 2}
	if samples != want {
		t.Errorf("rotateHistory(_, 3) = %v, want %v", samples, want)
	}
}

func TestApplyMonoHigherOrderTerm(t *testing.T) {
	p := &Pass{Term: 17, Delta: 2, WeightA: 256}
	buf := []int32{1, 2, 3, 4, 5}
	ApplyMono([]*Pass{p}, buf)
	if len(buf) != 5 {
		t.Fatalf("buffer length changed")
	}
}
