package entropy

import (
	"io"

	"github.com/soiaf/go-wavpack/internal/bits"
)

// readEliasRun reads the variable-length "run extension" code shared by the
// all-zeros fast path and the ones-count escape path: up to 33 one-bits as a
// unary prefix (33 means give up / end of bitstream), then, for prefixes of
// two or more, that many minus one low bits completing an Elias-gamma-style
// value with an implicit leading one. ok is false when the 33-bit escape was
// hit.
func readEliasRun(br *bits.Reader) (value uint32, ok bool, err error) {
	cbits := 0
	for {
		bit, err := br.GetBit()
		if err != nil {
			return 0, false, err
		}
		if bit == 0 {
			break
		}
		cbits++
		if cbits == 33 {
			return 0, false, nil
		}
	}
	if cbits < 2 {
		return uint32(cbits), true, nil
	}
	cbits--
	mask := uint32(1)
	for ; cbits > 0; cbits-- {
		bit, err := br.GetBit()
		if err != nil {
			return 0, false, err
		}
		if bit != 0 {
			value |= mask
		}
		mask <<= 1
	}
	value |= mask
	return value, true, nil
}

// Decode reads nsamples words per channel (nsamples*2 total for stereo) from
// br into buffer (interleaved for stereo), applying the hybrid bitrate
// feedback and median-interval search described in spec §4.3. It returns the
// number of per-channel samples decoded. A short count with a nil error means
// a zero-run or ones-count escape code hit the end of the bitstream (or its
// give-up value) at the start of a sample; when the bitstream ends inside a
// sample's ones-count, code or sign bits, Decode instead returns a nil
// buffer, a zero count and io.EOF. Either way the caller must treat the
// rest of the block as muted.
func (w *Words) Decode(br *bits.Reader, flags uint32, nsamples int) (buffer []int32, decoded int, err error) {
	mono := isMonoLike(flags)
	total := nsamples
	if !mono {
		total *= 2
	}
	buffer = make([]int32, total)

	entidx := 1
	if mono {
		entidx = 0
	}

	c := &w.C

	i := 0
loop:
	for ; i < total; i++ {
		var low, high, mid int32
		onesCount := 0

		if !mono {
			entidx = 1 - entidx
		}

		if c[0].Median[0]&^1 == 0 && w.HoldingZero == 0 && w.HoldingOne == 0 && c[1].Median[0]&^1 == 0 {
			if w.ZerosAcc > 0 {
				w.ZerosAcc--
				if w.ZerosAcc > 0 {
					c[entidx].SlowLevel -= (c[entidx].SlowLevel + slo) >> sls
					buffer[i] = 0
					continue
				}
			} else {
				run, ok, rerr := readEliasRun(br)
				if rerr != nil {
					if rerr == io.EOF {
						break loop
					}
					return nil, 0, rerr
				}
				if !ok {
					break loop
				}
				w.ZerosAcc = int32(run)
				if w.ZerosAcc > 0 {
					c[entidx].SlowLevel -= (c[entidx].SlowLevel + slo) >> sls
					c[0].Median = [3]int32{}
					c[1].Median = [3]int32{}
					buffer[i] = 0
					continue
				}
			}
		}

		if w.HoldingZero > 0 {
			onesCount = 0
			w.HoldingZero = 0
		} else {
			for {
				bit, berr := br.GetBit()
				if berr != nil {
					return nil, 0, berr
				}
				if bit == 0 {
					break
				}
				onesCount++
				if onesCount == limitOnes+1 {
					break loop
				}
			}
			if onesCount == limitOnes {
				run, ok, rerr := readEliasRun(br)
				if rerr != nil {
					if rerr == io.EOF {
						break loop
					}
					return nil, 0, rerr
				}
				if !ok {
					break loop
				}
				onesCount += int(run)
			}

			if w.HoldingOne > 0 {
				w.HoldingOne = int32(onesCount & 1)
				onesCount = (onesCount >> 1) + 1
			} else {
				w.HoldingOne = int32(onesCount & 1)
				onesCount >>= 1
			}
			w.HoldingZero = (^w.HoldingOne) & 1
		}

		if flags&flagHybrid != 0 && (mono || i&1 == 0) {
			w.UpdateErrorLimit(flags)
		}

		switch {
		case onesCount == 0:
			low = 0
			high = (c[entidx].Median[0] >> 4) + 1 - 1
			c[entidx].Median[0] -= ((c[entidx].Median[0] + (div0 - 2)) / div0) * 2
		default:
			low = (c[entidx].Median[0] >> 4) + 1
			c[entidx].Median[0] += ((c[entidx].Median[0] + div0) / div0) * 5

			switch {
			case onesCount == 1:
				high = low + (c[entidx].Median[1]>>4 + 1) - 1
				c[entidx].Median[1] -= ((c[entidx].Median[1] + (div1 - 2)) / div1) * 2
			case onesCount == 2:
				low += c[entidx].Median[1]>>4 + 1
				high = low + (c[entidx].Median[2]>>4 + 1) - 1
				c[entidx].Median[1] += ((c[entidx].Median[1] + div1) / div1) * 5
				c[entidx].Median[2] -= ((c[entidx].Median[2] + (div2 - 2)) / div2) * 2
			default:
				low += c[entidx].Median[1]>>4 + 1
				c[entidx].Median[1] += ((c[entidx].Median[1] + div1) / div1) * 5
				low += int32(onesCount-2) * (c[entidx].Median[2]>>4 + 1)
				high = low + (c[entidx].Median[2]>>4 + 1) - 1
				c[entidx].Median[2] += ((c[entidx].Median[2] + div2) / div2) * 5
			}
		}

		mid = (high + low + 1) >> 1

		if c[entidx].ErrorLimit == 0 {
			code, cerr := br.ReadCode(uint32(high - low))
			if cerr != nil {
				return nil, 0, cerr
			}
			mid = int32(code) + low
		} else {
			for high-low > c[entidx].ErrorLimit {
				bit, berr := br.GetBit()
				if berr != nil {
					return nil, 0, berr
				}
				if bit != 0 {
					low = mid
					mid = (high + low + 1) >> 1
				} else {
					high = mid - 1
					mid = (high + low + 1) >> 1
				}
			}
		}

		signBit, serr := br.GetBit()
		if serr != nil {
			return nil, 0, serr
		}
		if signBit != 0 {
			buffer[i] = ^mid
		} else {
			buffer[i] = mid
		}

		if flags&flagHybridBitrate != 0 {
			c[entidx].SlowLevel = c[entidx].SlowLevel - ((c[entidx].SlowLevel + slo) >> sls) + bits.Log2s(mid)
		}
	}

	decoded = i
	if !mono {
		decoded /= 2
	}
	return buffer[:i], decoded, nil
}
