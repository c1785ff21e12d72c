package meta

import (
	"fmt"

	"github.com/soiaf/go-wavpack/block"
	"github.com/soiaf/go-wavpack/decorr"
	"github.com/soiaf/go-wavpack/internal/bits"
)

// sample16 reads a little-endian signed 16-bit history value at data[i:i+2].
func sample16(data []byte, i int) int32 {
	v := uint16(data[i]) | uint16(data[i+1])<<8
	return int32(int16(v))
}

// parseDecorrTerms decodes ID_DECORR_TERMS: one byte per pass, in encode
// order, stored in the returned slice in decode (reverse) order so that
// applying passes ascending by index reproduces the intended decode order.
func parseDecorrTerms(data []byte) ([]*decorr.Pass, error) {
	termcnt := len(data)
	if termcnt > decorr.MaxTerms {
		return nil, fmt.Errorf("meta.parseDecorrTerms: %d terms exceeds max %d", termcnt, decorr.MaxTerms)
	}
	passes := make([]*decorr.Pass, termcnt)
	counter := 0
	for dcounter := termcnt - 1; dcounter >= 0; dcounter-- {
		b := data[counter]
		counter++
		term := int(b&0x1f) - 5
		delta := int32(b>>5) & 0x7
		if term < -3 || (term > decorr.MaxTerm && term < 17) || term > 18 {
			return nil, fmt.Errorf("meta.parseDecorrTerms: invalid term %d", term)
		}
		passes[dcounter] = &decorr.Pass{Term: term, Delta: delta}
	}
	return passes, nil
}

// parseDecorrWeights decodes ID_DECORR_WEIGHTS into passes, in place. Only
// the trailing termcnt passes (the ones nearest the end of the array, which
// were first during encode) carry stored weights; the rest default to zero.
func parseDecorrWeights(passes []*decorr.Pass, data []byte, flags uint32) error {
	stereo := flags&(block.FlagMono|block.FlagFalseStereo) == 0
	termcnt := len(data)
	if stereo {
		termcnt /= 2
	}
	if termcnt > len(passes) {
		return fmt.Errorf("meta.parseDecorrWeights: %d weight pairs exceeds %d terms", termcnt, len(passes))
	}
	for _, p := range passes {
		p.WeightA = 0
		p.WeightB = 0
	}
	counter := 0
	idx := len(passes) - 1
	for t := 0; t < termcnt; t++ {
		passes[idx].WeightA = bits.RestoreWeight(int32(int8(data[counter])))
		counter++
		if stereo {
			passes[idx].WeightB = bits.RestoreWeight(int32(int8(data[counter])))
			counter++
		}
		idx--
	}
	return nil
}

// parseDecorrSamples decodes ID_DECORR_SAMPLES into passes, in place. The
// number of history values read per pass depends on that pass's own term;
// unlike a widely-copied reference port that reads this once before the
// loop and never refreshes it, each pass's term is re-read from passes[idx]
// on every iteration, since otherwise every pass after the first would be
// decoded using a stale term from a different pass.
func parseDecorrSamples(passes []*decorr.Pass, data []byte, flags uint32, version uint16) error {
	stereo := flags&(block.FlagMono|block.FlagFalseStereo) == 0

	counter := 0
	if version == 0x402 && flags&block.FlagHybrid != 0 {
		counter += 2
		if stereo {
			counter += 2
		}
	}

	idx := len(passes) - 1
	for counter < len(data) && idx >= 0 {
		term := passes[idx].Term
		switch {
		case term > decorr.MaxTerm: // 17 or 18: two history values per channel
			passes[idx].SamplesA[0] = bits.Exp2s(sample16(data, counter))
			passes[idx].SamplesA[1] = bits.Exp2s(sample16(data, counter+2))
			counter += 4
			if stereo {
				passes[idx].SamplesB[0] = bits.Exp2s(sample16(data, counter))
				passes[idx].SamplesB[1] = bits.Exp2s(sample16(data, counter+2))
				counter += 4
			}
		case term < 0: // cross-channel: one history value per channel
			passes[idx].SamplesA[0] = bits.Exp2s(sample16(data, counter))
			passes[idx].SamplesB[0] = bits.Exp2s(sample16(data, counter+2))
			counter += 4
		default: // 1..8: term history values per channel
			for m := 0; m < term; m++ {
				passes[idx].SamplesA[m] = bits.Exp2s(sample16(data, counter))
				counter += 2
				if stereo {
					passes[idx].SamplesB[m] = bits.Exp2s(sample16(data, counter))
					counter += 2
				}
			}
		}
		idx--
	}
	return nil
}
