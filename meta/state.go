package meta

import (
	"github.com/soiaf/go-wavpack/decorr"
	"github.com/soiaf/go-wavpack/entropy"
	"github.com/soiaf/go-wavpack/fixup"
)

// State accumulates everything the metadata dispatcher extracts from one
// block's sub-blocks, in the order the reference decoder's stream context
// (WavpackStream) and global config hold it.
type State struct {
	Terms    []*decorr.Pass
	Words    entropy.Words
	Float    fixup.FloatInfo
	Int32    fixup.Int32Info
	SawFloat bool
	SawInt32 bool

	NumChannels int
	ChannelMask uint32
	ConfigFlags uint32
	SampleRate  uint32

	Bitstream bool // true once ID_WV_BITSTREAM was reached
}

func newState() *State {
	return &State{}
}
