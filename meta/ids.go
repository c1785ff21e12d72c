// Package meta implements the WavPack metadata dispatcher: scanning a
// block's sub-block sequence, decoding decorrelation-pass state, entropy
// medians, hybrid profile data and side-channel info, and handing off to
// the audio bitstream once ID_WV_BITSTREAM is reached.
package meta

// Sub-block IDs, transcribed from the reference decoder's metadata table.
const (
	idDummy          = 0x0
	idEncoderInfo    = 0x1
	idDecorrTerms    = 0x2
	idDecorrWeights  = 0x3
	idDecorrSamples  = 0x4
	idEntropyVars    = 0x5
	idHybridProfile  = 0x6
	idShapingWeights = 0x7
	idFloatInfo      = 0x8
	idInt32Info      = 0x9
	idWVBitstream    = 0xa
	idWVCBitstream   = 0xb
	idWVXBitstream   = 0xc
	idChannelInfo    = 0xd

	idOptionalData = 0x20
	idOddSize      = 0x40
	idLarge        = 0x80

	idRiffHeader  = 0x21
	idRiffTrailer = 0x22
	idReplayGain  = 0x23
	idCuesheet    = 0x24
	idConfigBlock = 0x25
	idMD5Checksum = 0x26
	idSampleRate  = 0x27
)
