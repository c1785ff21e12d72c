package meta

import (
	"fmt"

	"github.com/soiaf/go-wavpack/block"
	"github.com/soiaf/go-wavpack/entropy"
	"github.com/soiaf/go-wavpack/fixup"
	"github.com/soiaf/go-wavpack/internal/bits"
)

// magnitude16 reads a little-endian 16-bit unsigned magnitude at
// data[i:i+2] — entropy and hybrid-profile fields, unlike decorrelation
// history (sample16, in decorr.go), are never sign-extended before exp2s.
func magnitude16(data []byte, i int) int32 {
	return int32(data[i]) | int32(data[i+1])<<8
}

// parseEntropyVars decodes ID_ENTROPY_VARS into w, in place.
func parseEntropyVars(w *entropy.Words, data []byte, flags uint32) error {
	mono := flags&(block.FlagMono|block.FlagFalseStereo) != 0
	want := 6
	if !mono {
		want = 12
	}
	if len(data) < want {
		return fmt.Errorf("meta.parseEntropyVars: need %d bytes, got %d", want, len(data))
	}

	w.HoldingOne = 0
	w.HoldingZero = 0

	pos := 0
	for i := range w.C[0].Median {
		w.C[0].Median[i] = bits.Exp2s(magnitude16(data, pos))
		pos += 2
	}
	if !mono {
		for i := range w.C[1].Median {
			w.C[1].Median[i] = bits.Exp2s(magnitude16(data, pos))
			pos += 2
		}
	}
	return nil
}

// parseHybridProfile decodes ID_HYBRID_PROFILE into w, in place.
func parseHybridProfile(w *entropy.Words, data []byte, flags uint32) error {
	mono := flags&(block.FlagMono|block.FlagFalseStereo) != 0

	pos := 0
	read := func() (int32, error) {
		if pos+2 > len(data) {
			return 0, fmt.Errorf("meta.parseHybridProfile: need 2 more bytes at offset %d, have %d", pos, len(data))
		}
		v := magnitude16(data, pos)
		pos += 2
		return v, nil
	}

	if flags&block.FlagHybridBitrate != 0 {
		v, err := read()
		if err != nil {
			return err
		}
		w.C[0].SlowLevel = bits.Exp2s(v)
		if !mono {
			v, err := read()
			if err != nil {
				return err
			}
			w.C[1].SlowLevel = bits.Exp2s(v)
		}
	}

	v, err := read()
	if err != nil {
		return err
	}
	w.BitrateAcc[0] = v << 16
	if !mono {
		v, err := read()
		if err != nil {
			return err
		}
		w.BitrateAcc[1] = v << 16
	}

	if remaining := len(data) - pos; remaining > 0 {
		v, err := read()
		if err != nil {
			return err
		}
		w.BitrateDelta[0] = bits.Exp2s(v)
		if !mono {
			v, err := read()
			if err != nil {
				return err
			}
			w.BitrateDelta[1] = bits.Exp2s(v)
		}
		if pos != len(data) {
			return fmt.Errorf("meta.parseHybridProfile: %d trailing bytes unaccounted for", len(data)-pos)
		}
	} else {
		w.BitrateDelta[0] = 0
		w.BitrateDelta[1] = 0
	}
	return nil
}

// parseFloatInfo decodes ID_FLOAT_INFO.
func parseFloatInfo(data []byte) (fixup.FloatInfo, error) {
	if len(data) != 4 {
		return fixup.FloatInfo{}, fmt.Errorf("meta.parseFloatInfo: want 4 bytes, got %d", len(data))
	}
	return fixup.FloatInfo{
		Flags:   int32(data[0]),
		Shift:   int32(data[1]),
		MaxExp:  int32(data[2]),
		NormExp: int32(data[3]),
	}, nil
}

// parseInt32Info decodes ID_INT32_INFO.
func parseInt32Info(data []byte) (fixup.Int32Info, error) {
	if len(data) != 4 {
		return fixup.Int32Info{}, fmt.Errorf("meta.parseInt32Info: want 4 bytes, got %d", len(data))
	}
	return fixup.Int32Info{
		SentBits: int32(data[0]),
		Zeros:    int32(data[1]),
		Ones:     int32(data[2]),
		Dups:     int32(data[3]),
	}, nil
}
