// Package entropy implements WavPack's adaptive entropy decoder: the
// per-channel rotating median state, the all-zeros run-length fast path,
// the ones-count unary/lookup decode, and (for hybrid streams) the
// bitrate-feedback error limit used to bound the median-interval search.
package entropy

import "github.com/soiaf/go-wavpack/internal/bits"

// Time constants controlling the three median breakpoints (spec §4.3).
const (
	div0 = 128
	div1 = 64
	div2 = 32
)

// Time constant for the hybrid "slow_level" bitrate feedback filter.
const (
	sls = 8
	slo = 1 << (sls - 1)
)

// limitOnes caps the number of consecutive one-bits read directly before
// switching to the extended run-length code, mirroring LIMIT_ONES.
const limitOnes = 16

// Channel holds the three rotating medians and hybrid error-limit state for
// one audio channel.
type Channel struct {
	Median     [3]int32
	SlowLevel  int32
	ErrorLimit int32
}

// Words is the entropy decoder's per-block state, shared across both
// channels of a stereo pair.
type Words struct {
	BitrateDelta [2]int32
	BitrateAcc   [2]int32
	HoldingOne   int32
	HoldingZero  int32
	ZerosAcc     int32
	C            [2]Channel
}

// flagMono/flagFalseStereo/flagHybrid/flagHybridBitrate/flagHybridBalance
// mirror block.Header's flag bits; duplicated here (rather than imported)
// because entropy must not depend on package block, only on the raw flags
// word the facade already parsed.
const (
	flagMono          = 1 << 2
	flagHybrid        = 1 << 3
	flagHybridBitrate = 1 << 9
	flagHybridBalance = 1 << 10
	flagFalseStereo   = 1 << 30
)

func isMonoLike(flags uint32) bool {
	return flags&(flagMono|flagFalseStereo) != 0
}

// UpdateErrorLimit recomputes each channel's hybrid error limit from the
// current bitrate accumulators and (in HYBRID_BITRATE mode) the slow_level
// filters, matching update_error_limit.
func (w *Words) UpdateErrorLimit(flags uint32) {
	w.BitrateAcc[0] += w.BitrateDelta[0]
	bitrate0 := w.BitrateAcc[0] >> 16

	if isMonoLike(flags) {
		if flags&flagHybridBitrate != 0 {
			slowLog0 := (w.C[0].SlowLevel + slo) >> sls
			if slowLog0-bitrate0 > -0x100 {
				w.C[0].ErrorLimit = bits.Exp2s(slowLog0 - bitrate0 + 0x100)
			} else {
				w.C[0].ErrorLimit = 0
			}
		} else {
			w.C[0].ErrorLimit = bits.Exp2s(bitrate0)
		}
		return
	}

	w.BitrateAcc[1] += w.BitrateDelta[1]
	bitrate1 := w.BitrateAcc[1] >> 16

	if flags&flagHybridBitrate != 0 {
		slowLog0 := (w.C[0].SlowLevel + slo) >> sls
		slowLog1 := (w.C[1].SlowLevel + slo) >> sls

		if flags&flagHybridBalance != 0 {
			balance := (slowLog1 - slowLog0 + bitrate1 + 1) >> 1
			switch {
			case balance > bitrate0:
				bitrate1 = bitrate0 * 2
				bitrate0 = 0
			case -balance > bitrate0:
				bitrate0 = bitrate0 * 2
				bitrate1 = 0
			default:
				bitrate1 = bitrate0 + balance
				bitrate0 = bitrate0 - balance
			}
		}

		if slowLog0-bitrate0 > -0x100 {
			w.C[0].ErrorLimit = bits.Exp2s(slowLog0 - bitrate0 + 0x100)
		} else {
			w.C[0].ErrorLimit = 0
		}
		if slowLog1-bitrate1 > -0x100 {
			w.C[1].ErrorLimit = bits.Exp2s(slowLog1 - bitrate1 + 0x100)
		} else {
			w.C[1].ErrorLimit = 0
		}
	} else {
		w.C[0].ErrorLimit = bits.Exp2s(bitrate0)
		w.C[1].ErrorLimit = bits.Exp2s(bitrate1)
	}
}
