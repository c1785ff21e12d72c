// Package fixup implements the post-decorrelation sample fixups applied to
// each WavPack block's decoded buffer: magnitude muting, joint-stereo
// inversion, IEEE-float reassembly, extended-integer reconstruction, hybrid
// clip-and-shift, the lossless final shift, and false-stereo expansion.
package fixup

// FloatInfo carries the ID_FLOAT_INFO sub-block fields needed to reassemble
// IEEE 32-bit float samples, delivered to callers as 24-bit clipped
// integers (spec §1/§4.6).
type FloatInfo struct {
	Flags    int32
	Shift    int32
	MaxExp   int32
	NormExp  int32
}

// Float rescales every value in buffer in place by the exponent shift
// MaxExp-NormExp+Shift (clamped to +/-32) and clips the result to the
// signed 24-bit range, matching float_values.
func Float(buffer []int32, info FloatInfo) {
	shift := info.MaxExp - info.NormExp + info.Shift
	switch {
	case shift > 32:
		shift = 32
	case shift < -32:
		shift = -32
	}
	for i, v := range buffer {
		switch {
		case shift > 0:
			v <<= uint(shift)
		case shift < 0:
			v >>= uint(-shift)
		}
		switch {
		case v > 8388607:
			v = 8388607
		case v < -8388608:
			v = -8388608
		}
		buffer[i] = v
	}
}

// Int32Info carries the ID_INT32_INFO sub-block fields describing how
// extended (>24-bit) integer samples were reduced before entropy coding.
type Int32Info struct {
	SentBits int32
	Zeros    int32
	Ones     int32
	Dups     int32
}

// ExtendedInt reverses the int32 reduction described by info. When the
// stream is lossless (not hybrid) and no bits were sent literally, the
// dropped bits are reconstructed directly; otherwise the caller's shift
// amount must be widened by the returned value and the final shift step
// (ClipHybrid or ShiftLossless) recovers the magnitude.
func ExtendedInt(buffer []int32, info Int32Info, hybrid bool) (extraShift int32) {
	if !hybrid && info.SentBits == 0 && (info.Zeros+info.Ones+info.Dups) != 0 {
		for i, v := range buffer {
			switch {
			case info.Zeros != 0:
				v <<= uint(info.Zeros)
			case info.Ones != 0:
				v = ((v + 1) << uint(info.Ones)) - 1
			case info.Dups != 0:
				v = ((v + (v & 1)) << uint(info.Dups)) - (v & 1)
			}
			buffer[i] = v
		}
		return 0
	}
	return info.Zeros + info.SentBits + info.Ones + info.Dups
}

// bytesStoredLimits returns the symmetric clip range for the given
// BYTES_STORED field (0-3, meaning 1-4 bytes/sample); ok is false for the
// 4-byte case, which the reference format leaves unclipped.
func bytesStoredLimits(bytesStored uint) (min, max int32, ok bool) {
	switch bytesStored {
	case 0:
		return -128, 127, true
	case 1:
		return -32768, 32767, true
	case 2:
		return -8388608, 8388607, true
	default:
		return 0, 0, false
	}
}

// ClipHybrid applies the hybrid-mode clip-and-shift step: values outside the
// range implied by bytesStored are replaced by the shifted clip bound,
// otherwise they're shifted left by shift. count is the number of buffer
// slots to process (sample_count, already doubled by the caller for
// stereo).
func ClipHybrid(buffer []int32, count int, bytesStored uint, shift uint) {
	min, max, ok := bytesStoredLimits(bytesStored)
	var minShifted, maxShifted int32
	if ok {
		minShifted = (min >> shift) << shift
		maxShifted = (max >> shift) << shift
	}
	for i := 0; i < count; i++ {
		v := buffer[i]
		switch {
		case ok && v < min:
			buffer[i] = minShifted
		case ok && v > max:
			buffer[i] = maxShifted
		default:
			buffer[i] = v << shift
		}
	}
}

// ShiftLossless applies the final left shift for lossless (non-hybrid)
// streams whose bit depth doesn't fill whole bytes.
func ShiftLossless(buffer []int32, count int, shift uint) {
	for i := 0; i < count; i++ {
		buffer[i] <<= shift
	}
}

// JointStereoInvert reverses the mid/side transform the encoder applied,
// recovering independent left/right channels in place. buffer is
// interleaved [L/M, R/S, L/M, R/S, ...].
func JointStereoInvert(buffer []int32) {
	for i := 0; i+1 < len(buffer); i += 2 {
		buffer[i+1] = buffer[i+1] - (buffer[i] >> 1)
		buffer[i] = buffer[i] + buffer[i+1]
	}
}

// MuteCheck scans buffer (up to count slots) for a magnitude exceeding
// limit, returning the index of the first offending slot and false, or
// count and true if every sample was within bounds.
func MuteCheck(buffer []int32, count int, limit int32) (firstBad int, ok bool) {
	for i := 0; i < count; i++ {
		v := buffer[i]
		if v < 0 {
			v = -v
		}
		if v > limit {
			return i, false
		}
	}
	return count, true
}

// ExpandFalseStereo duplicates the decoded mono channel (the first n
// samples of buffer) into both halves of an interleaved stereo buffer of
// length n*2, in place, from the end backward so the source region can
// overlap the destination.
func ExpandFalseStereo(buffer []int32, n int) {
	dest := n*2 - 1
	src := n - 1
	for ; src >= 0; src-- {
		buffer[dest] = buffer[src]
		dest--
		buffer[dest] = buffer[src]
		dest--
	}
}
