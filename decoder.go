// Package wavpack decodes WavPack version-4 (0x402-0x410) lossless and
// hybrid audio streams: mono and stereo, 1-32 bit integer or 32-bit float
// source data, returned as interleaved 32-bit integer PCM.
package wavpack

import (
	"io"

	"github.com/mewkiz/pkg/dbg"
	"github.com/pkg/errors"

	"github.com/soiaf/go-wavpack/block"
	"github.com/soiaf/go-wavpack/decorr"
	"github.com/soiaf/go-wavpack/fixup"
	"github.com/soiaf/go-wavpack/internal/bits"
	"github.com/soiaf/go-wavpack/internal/crc"
	"github.com/soiaf/go-wavpack/meta"
)

// Mode is a bitmask describing how a stream was encoded, returned by
// (*Decoder).Mode.
type Mode uint32

// Mode bits.
const (
	ModeLossless Mode = 1 << iota
	ModeHybrid
	ModeFloat
	ModeHigh
	ModeFast
	ModeValidTag
)

// configHighFlag/configFastFlag mirror the reference config-block bits
// surfaced only through ID_CONFIG_BLOCK, which this decoder records but
// otherwise ignores.
const (
	configHybridFlag = 1 << 3
	configLossyMode  = 1 << 24
	configFloatData  = 1 << 7
	configHighFlag   = 1 << 10
	configFastFlag   = 1 << 11
)

// Decoder reads interleaved PCM samples from a WavPack version-4 stream.
// A Decoder is not safe for concurrent use.
type Decoder struct {
	r io.Reader

	sampleRate     uint32
	numChannels    int
	channelMask    uint32
	bitsPerSample  int
	bytesPerSample int
	configFlags    uint32

	totalSamples int64 // -1 if unknown
	sampleIndex  int64

	numErrors   int
	lossyBlocks bool

	hdr    *block.Header
	st     *meta.State
	br     *bits.Reader
	crcAcc *crc.Accumulator

	muteError bool
	err       error
}

// Open scans r for the first WavPack block carrying audio data, validates
// its stream version, and loads its metadata so queries are immediately
// answerable.
func Open(r io.Reader) (*Decoder, error) {
	d := &Decoder{r: r, totalSamples: -1}

	for {
		hdr, err := block.Find(d.r)
		if err != nil {
			if err == io.EOF {
				return nil, newError(NotWavPack, err)
			}
			return nil, newError(Truncated, err)
		}
		if hdr.Version < block.MinStreamVersion || hdr.Version > block.MaxStreamVersion {
			return nil, newError(UnsupportedVersion, errors.Errorf("stream version %#x", hdr.Version))
		}

		if hdr.TotalSamples >= 0 {
			d.totalSamples = hdr.TotalSamples
		}

		if err := d.loadBlock(hdr); err != nil {
			return nil, err
		}
		d.configureFromBlock()

		if hdr.BlockSamples > 0 {
			dbg.Println("wavpack: opened stream at block", hdr.BlockIndex, "samples", hdr.BlockSamples)
			break
		}
	}

	return d, nil
}

// loadBlock scans hdr's metadata sub-blocks and prepares the audio
// bitstream reader, corresponding to unpack_init.
func (d *Decoder) loadBlock(hdr *block.Header) error {
	payloadLen := int64(hdr.BlockSize) - int64(block.HeaderSize)
	if payloadLen < 0 {
		return newError(Truncated, errors.New("block size shorter than its own header"))
	}
	payload := io.LimitReader(d.r, payloadLen)

	st, err := meta.Scan(payload, hdr.Flags, hdr.Version)
	if err != nil {
		return newError(InvalidMetadata, err)
	}
	if !st.Bitstream && hdr.BlockSamples != 0 {
		return newError(InvalidMetadata, errors.New("block carries samples but no ID_WV_BITSTREAM"))
	}

	for _, p := range st.Terms {
		if p.Term < -3 || (p.Term > decorr.MaxTerm && p.Term < 17) || p.Term > 18 {
			return newError(InvalidDecorrTerm, errors.Errorf("term %d", p.Term))
		}
	}

	d.hdr = hdr
	d.st = st
	d.br = bits.NewReader(payload)
	d.crcAcc = crc.New()
	d.muteError = false

	if hdr.BlockSamples > 0 {
		d.sampleIndex = int64(hdr.BlockIndex)
	}

	if hdr.BlockSamples != 0 {
		if hdr.Hybrid() {
			d.lossyBlocks = true
		}
		if hdr.Int32Data() && st.SawInt32 && st.Int32.SentBits != 0 {
			d.lossyBlocks = true
		}
		if hdr.FloatData() && st.SawFloat && st.Float.Flags != 0 {
			// Full float-exception handling (FLOAT_EXCEPTIONS etc.) isn't
			// implemented; any such block is reported lossy.
			d.lossyBlocks = true
		}
	}

	return nil
}

// configureFromBlock fills in stream-wide config fields the first time
// they're seen, and refreshes the per-block byte/bit width every block.
func (d *Decoder) configureFromBlock() {
	flags := d.hdr.Flags
	d.configFlags = (d.configFlags &^ 0xff) | (flags & 0xff)

	d.bytesPerSample = int(flags&block.FlagBytesStored) + 1
	d.bitsPerSample = d.bytesPerSample*8 - int(d.hdr.ShiftAmount())

	if d.hdr.FloatData() {
		d.bytesPerSample = 3
		d.bitsPerSample = 24
		d.configFlags |= configFloatData
	}
	if d.hdr.Hybrid() {
		d.configFlags |= configHybridFlag
	}

	if d.sampleRate == 0 {
		if rate, ok := d.hdr.SampleRateIndex(); ok {
			d.sampleRate = rate
		} else if d.st.SampleRate != 0 {
			d.sampleRate = d.st.SampleRate
		} else {
			d.sampleRate = 44100
		}
	}

	if d.numChannels == 0 {
		if d.hdr.Mono() {
			d.numChannels = 1
		} else {
			d.numChannels = 2
		}
		d.channelMask = 0x5 - uint32(d.numChannels)
	}
	if d.st.NumChannels != 0 {
		d.numChannels = d.st.NumChannels
		d.channelMask = d.st.ChannelMask
	}
}

func zeroFill(buf []int32, n int) {
	for i := 0; i < n; i++ {
		buf[i] = 0
	}
}

// UnpackSamples writes up to n interleaved samples into buffer (which must
// have room for n*NumChannels() values), zero-filling any gap left by a
// lost block. It returns the number of samples actually written; a count
// less than n means the stream ended or a fatal error occurred (returned
// alongside).
func (d *Decoder) UnpackSamples(buffer []int32, n int) (int, error) {
	if d.err != nil {
		return 0, d.err
	}

	channels := d.numChannels
	unpacked := 0

	for n > 0 {
		if d.hdr == nil || d.hdr.BlockSamples == 0 || !d.hdr.InitialBlock() ||
			d.sampleIndex >= int64(d.hdr.BlockIndex)+int64(d.hdr.BlockSamples) {
			hdr, err := block.Find(d.r)
			if err != nil {
				return unpacked, nil
			}
			if err := d.loadBlock(hdr); err != nil {
				d.err = err
				return unpacked, err
			}
			d.configureFromBlock()
			continue
		}

		if d.sampleIndex < int64(d.hdr.BlockIndex) {
			gap := int64(d.hdr.BlockIndex) - d.sampleIndex
			if gap > int64(n) {
				gap = int64(n)
			}
			zeroFill(buffer[unpacked*channels:], int(gap)*channels)
			d.sampleIndex += gap
			unpacked += int(gap)
			n -= int(gap)
			continue
		}

		want := int64(d.hdr.BlockIndex) + int64(d.hdr.BlockSamples) - d.sampleIndex
		if want > int64(n) {
			want = int64(n)
		}

		if err := d.decodeBlockSamples(buffer[unpacked*channels:], int(want)); err != nil {
			d.err = err
			return unpacked, err
		}

		unpacked += int(want)
		n -= int(want)

		if d.sampleIndex == int64(d.hdr.BlockIndex)+int64(d.hdr.BlockSamples) {
			if d.crcAcc.Sum() != d.hdr.CRC {
				d.numErrors++
			}
		}

		if d.totalSamples >= 0 && d.sampleIndex == d.totalSamples {
			break
		}
	}

	return unpacked, nil
}

// decodeBlockSamples decodes exactly want per-channel samples from the
// current block into dst, corresponding to unpack_samples + fixup_samples.
func (d *Decoder) decodeBlockSamples(dst []int32, want int) error {
	flags := d.hdr.Flags
	mono := d.hdr.Mono() || d.hdr.FalseStereo()
	outChannels := d.numChannels

	if d.muteError {
		zeroFill(dst, want*outChannels)
		d.sampleIndex += int64(want)
		return nil
	}

	muteLimit := int32(1)<<d.hdr.MagBits() + 2
	if d.hdr.Hybrid() {
		muteLimit *= 2
	}

	samples, decoded, err := d.st.Words.Decode(d.br, flags, want)
	if err != nil && err != io.EOF {
		return errors.Wrap(err, "wavpack: entropy decode")
	}

	slots := decoded
	if !mono {
		decorr.ApplyStereo(d.st.Terms, samples)
		slots *= 2
		if d.hdr.JointStereo() {
			fixup.JointStereoInvert(samples[:slots])
		}
	} else {
		decorr.ApplyMono(d.st.Terms, samples)
	}

	firstBad, ok := fixup.MuteCheck(samples[:slots], slots, muteLimit)
	if decoded != want || !ok {
		_ = firstBad // only the full-buffer fallback matters: the block is
		// discarded entirely once any sample overflows the mute limit or
		// the bitstream ran dry before filling the request.
		d.muteError = true
		zeroFill(dst, want*outChannels)
		d.sampleIndex += int64(want)
		return nil
	}

	for _, v := range samples[:slots] {
		d.crcAcc.Update(v)
	}

	if d.hdr.FloatData() {
		fixup.Float(samples[:slots], d.st.Float)
	}

	shift := int32(d.hdr.ShiftAmount())
	if d.hdr.Int32Data() {
		shift += fixup.ExtendedInt(samples[:slots], d.st.Int32, d.hdr.Hybrid())
	}

	if d.hdr.Hybrid() {
		fixup.ClipHybrid(samples[:slots], slots, uint(flags&block.FlagBytesStored), uint(shift))
	} else if shift != 0 {
		fixup.ShiftLossless(samples[:slots], slots, uint(shift))
	}

	if d.hdr.FalseStereo() {
		copy(dst, samples[:decoded])
		fixup.ExpandFalseStereo(dst, decoded)
	} else {
		copy(dst, samples[:slots])
	}

	d.sampleIndex += int64(want)
	return nil
}

// NumSamples returns the total number of samples in the stream, or -1 if
// unknown.
func (d *Decoder) NumSamples() int64 { return d.totalSamples }

// SampleIndex returns the index of the next sample UnpackSamples will
// produce.
func (d *Decoder) SampleIndex() int64 { return d.sampleIndex }

// NumErrors returns the number of blocks whose CRC failed to verify.
func (d *Decoder) NumErrors() int { return d.numErrors }

// LossyBlocks reports whether any block in the stream so far used a lossy
// encoding path this decoder doesn't fully reconstruct (hybrid, or float
// data with exception side-info).
func (d *Decoder) LossyBlocks() bool { return d.lossyBlocks }

// SampleRate returns the stream's sample rate in Hz.
func (d *Decoder) SampleRate() uint32 { return d.sampleRate }

// NumChannels returns the number of interleaved output channels (1 or 2).
func (d *Decoder) NumChannels() int { return d.numChannels }

// BitsPerSample returns the original source bit depth.
func (d *Decoder) BitsPerSample() int { return d.bitsPerSample }

// BytesPerSample returns the number of bytes used to store each raw sample
// word on the wire.
func (d *Decoder) BytesPerSample() int { return d.bytesPerSample }

// ReducedChannels returns the number of channels actually carried by this
// track (always equal to NumChannels within this decoder's mono/stereo
// scope; the distinction only matters for >2-channel groups, which are out
// of scope).
func (d *Decoder) ReducedChannels() int { return d.numChannels }

// Mode reports how the stream was encoded.
func (d *Decoder) Mode() Mode {
	var m Mode
	if d.configFlags&configHybridFlag != 0 {
		m |= ModeHybrid
	} else if d.configFlags&configLossyMode == 0 {
		m |= ModeLossless
	}
	if d.lossyBlocks {
		m &^= ModeLossless
	}
	if d.configFlags&configFloatData != 0 {
		m |= ModeFloat
	}
	if d.configFlags&configHighFlag != 0 {
		m |= ModeHigh
	}
	if d.configFlags&configFastFlag != 0 {
		m |= ModeFast
	}
	return m
}
