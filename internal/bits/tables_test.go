package bits

import "testing"

func TestExp2sLog2sRoundTrip(t *testing.T) {
	if got := Exp2s(Log2s(0)); got != 0 {
		t.Errorf("Exp2s(Log2s(0)) = %d, want 0", got)
	}
	// exp2s/log2s form a lossy pseudo-log pair (8 bits of mantissa), not
	// exact inverses; the reconstructed magnitude should still land within
	// a few percent of the original for values large enough that rounding
	// noise doesn't dominate.
	for _, v := range []int32{1000, -1000, 32767, -32768, 1000000, -1000000} {
		got := Exp2s(Log2s(v))
		diff := got - v
		if diff < 0 {
			diff = -diff
		}
		abs := v
		if abs < 0 {
			abs = -abs
		}
		if diff*50 > abs { // > 2% off
			t.Errorf("Exp2s(Log2s(%d)) = %d, more than 2%% off", v, got)
		}
	}
}

func TestLog2sSign(t *testing.T) {
	if Log2s(5) <= 0 {
		t.Errorf("Log2s(5) should be positive, got %d", Log2s(5))
	}
	if Log2s(-5) >= 0 {
		t.Errorf("Log2s(-5) should be negative, got %d", Log2s(-5))
	}
	if Log2s(0) != 0 {
		t.Errorf("Log2s(0) = %d, want 0", Log2s(0))
	}
}

func TestRestoreWeight(t *testing.T) {
	tests := []struct {
		in   int32
		want int32
	}{
		{0, 0},
		{127, 1024},
		{-128, -1024},
	}
	for _, tt := range tests {
		if got := RestoreWeight(tt.in); got != tt.want {
			t.Errorf("RestoreWeight(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestCountBits(t *testing.T) {
	tests := []struct {
		in   uint32
		want uint
	}{
		{0, 0},
		{1, 1},
		{255, 8},
		{256, 9},
		{1 << 20, 21},
	}
	for _, tt := range tests {
		if got := CountBits(tt.in); got != tt.want {
			t.Errorf("CountBits(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestOnesCount(t *testing.T) {
	if got := OnesCount(0); got != 0 {
		t.Errorf("OnesCount(0) = %d, want 0", got)
	}
	if got := OnesCount(0xff); got != 8 {
		t.Errorf("OnesCount(0xff) = %d, want 8", got)
	}
}
