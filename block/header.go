// Package block implements the WavPack block framer: locating and parsing
// the fixed 32-byte block header that precedes every block's metadata
// sub-blocks and audio bitstream.
package block

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Signature is the four-byte tag that begins every WavPack block.
var Signature = [4]byte{'w', 'v', 'p', 'k'}

// Stream version range this decoder understands (spec §1).
const (
	MinStreamVersion = 0x402
	MaxStreamVersion = 0x410
)

// Header flag bits, transcribed from the reference decoder's block header
// layout.
const (
	FlagBytesStored   = 0x3      // 2 bits: (bytes/sample - 1)
	FlagMono          = 1 << 2   // not stereo
	FlagHybrid        = 1 << 3   // hybrid mode
	FlagJointStereo   = 1 << 4   // mid/side joint stereo
	FlagCrossDecorr   = 1 << 5   // no-delay cross decorrelation
	FlagHybridShape   = 1 << 6   // noise shaping (hybrid only)
	FlagFloatData     = 1 << 7   // IEEE 32-bit float source
	shiftLSB          = 13
	shiftMask         = 0x1f << shiftLSB
	FlagInt32Data     = 1 << 8  // extended int handling
	FlagHybridBitrate = 1 << 9  // bitrate noise (hybrid only)
	FlagHybridBalance = 1 << 10 // balance noise (hybrid stereo only)
	FlagInitialBlock  = 1 << 11 // first block of a multichannel group
	FlagFinalBlock    = 1 << 12 // last block of a multichannel group
	magLSB            = 18
	magMask           = 0x1f << magLSB
	srateLSB          = 23
	srateMask         = 0xf << srateLSB
	FlagFalseStereo   = 1 << 30 // block is stereo, but data is mono
)

// sampleRates maps the header's 4-bit sample rate index to Hz; index 15
// means "look for an ID_SAMPLE_RATE metadata sub-block instead".
var sampleRates = [15]uint32{
	6000, 8000, 9600, 11025, 12000, 16000, 22050, 24000,
	32000, 44100, 48000, 64000, 88200, 96000, 192000,
}

// headerSize is the fixed byte length of a WavPack block header.
const headerSize = 32

// HeaderSize exports headerSize for callers that need to compute a block's
// payload length from BlockSize.
const HeaderSize = headerSize

// maxResync is how many bytes Find will skip over while searching for the
// next valid header before giving up, matching the reference decoder.
const maxResync = 1 << 20

// Header is a parsed WavPack block header.
type Header struct {
	BlockSize    uint32 // ckSize + 8: total bytes in this block, including this header
	Version      uint16
	TrackNo      uint8
	IndexNo      uint8
	TotalSamples int64 // -1 if unknown (only meaningful in the first block)
	BlockIndex   uint32
	BlockSamples uint32
	Flags        uint32
	CRC          uint32
}

// BytesPerSample returns the number of bytes used to store each raw sample
// word in this block, 1 through 4.
func (h *Header) BytesPerSample() int {
	return int(h.Flags&FlagBytesStored) + 1
}

// Mono reports whether the block stores a single channel.
func (h *Header) Mono() bool { return h.Flags&FlagMono != 0 }

// Hybrid reports whether the block uses hybrid (lossy+correction) coding.
func (h *Header) Hybrid() bool { return h.Flags&FlagHybrid != 0 }

// JointStereo reports whether stereo channels are stored as mid/side.
func (h *Header) JointStereo() bool { return h.Flags&FlagJointStereo != 0 }

// FloatData reports whether the source samples were IEEE 32-bit floats.
func (h *Header) FloatData() bool { return h.Flags&FlagFloatData != 0 }

// Int32Data reports whether extended >24 bit integer handling applies.
func (h *Header) Int32Data() bool { return h.Flags&FlagInt32Data != 0 }

// HybridBitrate reports whether hybrid bitrate-controlled noise shaping
// feedback is active.
func (h *Header) HybridBitrate() bool { return h.Flags&FlagHybridBitrate != 0 }

// InitialBlock reports whether this is the first block of a multichannel
// group (always true for mono/stereo streams).
func (h *Header) InitialBlock() bool { return h.Flags&FlagInitialBlock != 0 }

// FinalBlock reports whether this is the last block of a multichannel group.
func (h *Header) FinalBlock() bool { return h.Flags&FlagFinalBlock != 0 }

// FalseStereo reports whether a nominally-stereo block in fact carries a
// single channel of data to be duplicated to both outputs.
func (h *Header) FalseStereo() bool { return h.Flags&FlagFalseStereo != 0 }

// MagBits returns the header's 5-bit sample magnitude field, used to derive
// the mute-check overflow limit (2 + 1<<MagBits, doubled again for hybrid).
func (h *Header) MagBits() uint {
	return uint((h.Flags & magMask) >> magLSB)
}

// ShiftAmount returns the number of low-order zero bits implied by the
// header's shift field (used when BitsPerSample doesn't fill whole bytes).
func (h *Header) ShiftAmount() uint {
	return uint((h.Flags & shiftMask) >> shiftLSB)
}

// SampleRateIndex returns the header's 4-bit sample rate index, and the
// resolved rate in Hz when the index addresses the fixed table (ok==false
// means an ID_SAMPLE_RATE metadata sub-block must supply the rate instead).
func (h *Header) SampleRateIndex() (rate uint32, ok bool) {
	idx := (h.Flags & srateMask) >> srateLSB
	if int(idx) >= len(sampleRates) {
		return 0, false
	}
	return sampleRates[idx], true
}

// Find scans r for the next valid WavPack block header, tolerating and
// skipping non-header bytes (e.g. ID3 tags or stream garbage) for up to 1 MiB
// before giving up, matching the reference decoder's read_next_header.
func Find(r io.Reader) (*Header, error) {
	var window [headerSize]byte
	filled := 0
	skipped := 0

	readByte := func() (byte, error) {
		var b [1]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return 0, err
		}
		return b[0], nil
	}

	for {
		for filled < headerSize {
			b, err := readByte()
			if err != nil {
				return nil, err
			}
			window[filled] = b
			filled++
		}

		if h, ok := parseHeader(window[:]); ok {
			return h, nil
		}

		// Slide the window by one byte and keep looking.
		copy(window[:], window[1:])
		filled--
		skipped++
		if skipped > maxResync {
			return nil, fmt.Errorf("block.Find: no valid block header found in %d bytes", maxResync)
		}
	}
}

// parseHeader validates and decodes a candidate 32-byte header window.
func parseHeader(buf []byte) (*Header, bool) {
	if buf[0] != Signature[0] || buf[1] != Signature[1] || buf[2] != Signature[2] || buf[3] != Signature[3] {
		return nil, false
	}
	// ckSize low byte must be even, byte 6 < 16, byte 7 == 0, byte 9 == 4,
	// and byte 8 (version low byte) must fall in the supported range.
	if buf[4]&1 != 0 || buf[6] >= 16 || buf[7] != 0 || buf[9] != 4 {
		return nil, false
	}
	if buf[8] < (MinStreamVersion&0xff) || buf[8] > (MaxStreamVersion&0xff) {
		return nil, false
	}

	ckSize := binary.LittleEndian.Uint32(buf[4:8])
	h := &Header{
		BlockSize:    ckSize + 8,
		Version:      uint16(buf[8]) | uint16(buf[9])<<8,
		TrackNo:      buf[10],
		IndexNo:      buf[11],
		TotalSamples: int64(binary.LittleEndian.Uint32(buf[12:16])),
		BlockIndex:   binary.LittleEndian.Uint32(buf[16:20]),
		BlockSamples: binary.LittleEndian.Uint32(buf[20:24]),
		Flags:        binary.LittleEndian.Uint32(buf[24:28]),
		CRC:          binary.LittleEndian.Uint32(buf[28:32]),
	}
	if uint32(h.TotalSamples) == 0xffffffff {
		h.TotalSamples = -1
	}
	return h, true
}
