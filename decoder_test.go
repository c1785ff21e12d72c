package wavpack_test

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	wavpack "github.com/soiaf/go-wavpack"
)

// buildMonoBlock assembles a single minimal WavPack v4 block: a 32-byte
// header, an ID_WV_BITSTREAM marker sub-block, and two bitstream bytes
// encoding four all-zero mono samples (no decorrelation passes, all-zero
// entropy medians — the decoder's simplest possible code path, worked out
// by hand against entropy.Words.Decode's zero-run/ones-count logic).
func buildMonoBlock(t *testing.T) []byte {
	t.Helper()

	const (
		subBitstream     = 0x0a
		flagMono         = 1 << 2
		flagInitialBlock = 1 << 11 // every block of a mono/stereo stream is "initial"
		srateIdx44k      = 9       // sampleRates[9] == 44100
		srateLSB         = 23
	)

	payload := []byte{subBitstream, 0x00, 0x00, 0x00}
	ckSize := uint32(24 + len(payload)) // header(32) + payload - 8

	var buf bytes.Buffer
	buf.WriteString("wvpk")
	binary.Write(&buf, binary.LittleEndian, ckSize)
	buf.WriteByte(0x07) // version low byte -> 0x407
	buf.WriteByte(0x04) // version high byte
	buf.WriteByte(0)    // track no
	buf.WriteByte(0)    // index no
	binary.Write(&buf, binary.LittleEndian, uint32(4))      // total samples
	binary.Write(&buf, binary.LittleEndian, uint32(0))      // block index
	binary.Write(&buf, binary.LittleEndian, uint32(4))      // block samples
	flags := uint32(flagMono) | uint32(flagInitialBlock) | uint32(srateIdx44k)<<srateLSB
	binary.Write(&buf, binary.LittleEndian, flags)
	binary.Write(&buf, binary.LittleEndian, uint32(0xFFFFFFAF)) // CRC after 4 zero updates
	buf.Write(payload)

	if buf.Len() != 32+len(payload) {
		t.Fatalf("assembled block is %d bytes, want %d", buf.Len(), 32+len(payload))
	}
	return buf.Bytes()
}

// buildJointStereoBlock assembles a 2-channel block with JOINT_STEREO set
// and an ID_ENTROPY_VARS sub-block giving channel 0 a nonzero median (which
// alone is enough to bypass the all-zeros fast path for both channels, per
// entropy.Words.Decode's combined c[0]/c[1] check). The one-byte bitstream
// decodes to mid/side values (4, 0), which JointStereoInvert turns into
// left/right (2, -2) — worked out by hand against entropy/decode.go and
// fixup.JointStereoInvert.
func buildJointStereoBlock(t *testing.T) []byte {
	t.Helper()

	const (
		subBitstream     = 0x0a
		idEntropyVars    = 0x05
		flagJointStereo  = 1 << 4
		flagInitialBlock = 1 << 11
		magLSB           = 18
		srateLSB         = 23
		srateIdx44k      = 9
	)

	payload := []byte{
		idEntropyVars, 0x06,
		0x00, 0x07, // channel 0 Median[0] raw 0x0700 -> Exp2s == 64
		0x00, 0x00, // channel 0 Median[1] raw 0 -> 0
		0x00, 0x00, // channel 0 Median[2] raw 0 -> 0
		0x00, 0x00, // channel 1 Median[0] raw 0 -> 0
		0x00, 0x00, // channel 1 Median[1] raw 0 -> 0
		0x00, 0x00, // channel 1 Median[2] raw 0 -> 0
		subBitstream, 0x00,
		0x0e, // bitstream: sample0 ones-loop "0" + ReadCode(4)="11"+extra"1" (code 4) + sign 0;
		// sample1 skips its ones-loop entirely (HoldingZero carried from sample0) and
		// ReadCode(0) is trivial, leaving just its sign bit (0).
		0x00, // pad so the block length (and ckSize) is even
	}
	ckSize := uint32(24 + len(payload))

	var buf bytes.Buffer
	buf.WriteString("wvpk")
	binary.Write(&buf, binary.LittleEndian, ckSize)
	buf.WriteByte(0x07)
	buf.WriteByte(0x04)
	buf.WriteByte(0)
	buf.WriteByte(0)
	binary.Write(&buf, binary.LittleEndian, uint32(1)) // total samples
	binary.Write(&buf, binary.LittleEndian, uint32(0)) // block index
	binary.Write(&buf, binary.LittleEndian, uint32(1)) // block samples
	flags := uint32(flagJointStereo) | uint32(flagInitialBlock) | uint32(3)<<magLSB | uint32(srateIdx44k)<<srateLSB
	binary.Write(&buf, binary.LittleEndian, flags)
	binary.Write(&buf, binary.LittleEndian, uint32(0xFFFFFFFB)) // CRC after Update(2), Update(-2)
	buf.Write(payload)

	if buf.Len() != 32+len(payload) {
		t.Fatalf("assembled block is %d bytes, want %d", buf.Len(), 32+len(payload))
	}
	return buf.Bytes()
}

// buildHybridMonoBlock assembles a mono HYBRID block whose ID_HYBRID_PROFILE
// bitrate accumulator drives UpdateErrorLimit to a nonzero ErrorLimit,
// forcing the decoder down the iterative bit-halving search instead of
// ReadCode. Medians and the bitstream byte are the same values already
// hand-verified in entropy/decode_test.go's TestDecodeHybridBitrateFeedback
// (Median {100, 500, 0}, BitrateAcc 800<<16, bitstream 0x77 -> sample 37),
// reused here to exercise the same arithmetic through the full facade
// (meta sub-block parsing, ClipHybrid, CRC) instead of entropy.Words
// directly.
func buildHybridMonoBlock(t *testing.T) []byte {
	t.Helper()

	const (
		subBitstream     = 0x0a
		idEntropyVars    = 0x05
		idHybridProfile  = 0x06
		flagMono         = 1 << 2
		flagHybrid       = 1 << 3
		flagInitialBlock = 1 << 11
		magLSB           = 18
		srateLSB         = 23
		srateIdx44k      = 9
	)

	payload := []byte{
		idEntropyVars, 0x03,
		0xa5, 0x07, // Median[0] raw 0x07a5 -> Exp2s == 100
		0xf7, 0x09, // Median[1] raw 0x09f7 -> Exp2s == 500
		0x00, 0x00, // Median[2] raw 0 -> 0

		idHybridProfile, 0x01,
		0x20, 0x03, // BitrateAcc[0] raw == 800 (not Exp2s'd)

		subBitstream, 0x00,
		0x77,
		0x00, // pad so the block length (and ckSize) is even
	}
	ckSize := uint32(24 + len(payload))

	var buf bytes.Buffer
	buf.WriteString("wvpk")
	binary.Write(&buf, binary.LittleEndian, ckSize)
	buf.WriteByte(0x07)
	buf.WriteByte(0x04)
	buf.WriteByte(0)
	buf.WriteByte(0)
	binary.Write(&buf, binary.LittleEndian, uint32(1)) // total samples
	binary.Write(&buf, binary.LittleEndian, uint32(0)) // block index
	binary.Write(&buf, binary.LittleEndian, uint32(1)) // block samples
	flags := uint32(flagMono) | uint32(flagHybrid) | uint32(flagInitialBlock) | uint32(5)<<magLSB | uint32(srateIdx44k)<<srateLSB
	binary.Write(&buf, binary.LittleEndian, flags)
	binary.Write(&buf, binary.LittleEndian, uint32(0x00000022)) // CRC after Update(37)
	buf.Write(payload)

	if buf.Len() != 32+len(payload) {
		t.Fatalf("assembled block is %d bytes, want %d", buf.Len(), 32+len(payload))
	}
	return buf.Bytes()
}

func TestOpenAndUnpackMonoSilence(t *testing.T) {
	d, err := wavpack.Open(bytes.NewReader(buildMonoBlock(t)))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if d.NumChannels() != 1 {
		t.Fatalf("NumChannels = %d, want 1", d.NumChannels())
	}
	if d.SampleRate() != 44100 {
		t.Fatalf("SampleRate = %d, want 44100", d.SampleRate())
	}
	if d.NumSamples() != 4 {
		t.Fatalf("NumSamples = %d, want 4", d.NumSamples())
	}

	out := make([]int32, 4)
	n, err := d.UnpackSamples(out, 4)
	if err != nil {
		t.Fatalf("UnpackSamples: %v", err)
	}
	if n != 4 {
		t.Fatalf("UnpackSamples returned %d samples, want 4", n)
	}
	for i, v := range out {
		if v != 0 {
			t.Errorf("out[%d] = %d, want 0", i, v)
		}
	}
	if d.NumErrors() != 0 {
		t.Errorf("NumErrors = %d, want 0 (CRC should match)", d.NumErrors())
	}

	// The stream is exhausted: a further request returns 0 samples with no
	// error, mirroring the reference decoder's end-of-stream behavior.
	n, err = d.UnpackSamples(out, 4)
	if err != nil || n != 0 {
		t.Errorf("post-EOS UnpackSamples = (%d, %v), want (0, nil)", n, err)
	}
}

func TestOpenAndUnpackJointStereo(t *testing.T) {
	d, err := wavpack.Open(bytes.NewReader(buildJointStereoBlock(t)))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if d.NumChannels() != 2 {
		t.Fatalf("NumChannels = %d, want 2", d.NumChannels())
	}

	out := make([]int32, 2)
	n, err := d.UnpackSamples(out, 1)
	if err != nil {
		t.Fatalf("UnpackSamples: %v", err)
	}
	if n != 1 {
		t.Fatalf("UnpackSamples returned %d samples, want 1", n)
	}
	if out[0] != 2 || out[1] != -2 {
		t.Errorf("out = %v, want [2 -2] (mid/side 4/0 inverted to left/right)", out)
	}
	if d.NumErrors() != 0 {
		t.Errorf("NumErrors = %d, want 0 (CRC should match)", d.NumErrors())
	}
}

func TestOpenAndUnpackHybridMono(t *testing.T) {
	d, err := wavpack.Open(bytes.NewReader(buildHybridMonoBlock(t)))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if d.NumChannels() != 1 {
		t.Fatalf("NumChannels = %d, want 1", d.NumChannels())
	}
	if d.Mode()&wavpack.ModeHybrid == 0 {
		t.Errorf("Mode() = %v, want ModeHybrid set", d.Mode())
	}

	out := make([]int32, 1)
	n, err := d.UnpackSamples(out, 1)
	if err != nil {
		t.Fatalf("UnpackSamples: %v", err)
	}
	if n != 1 {
		t.Fatalf("UnpackSamples returned %d samples, want 1", n)
	}
	if out[0] != 37 {
		t.Errorf("out[0] = %d, want 37 (bitrate feedback should drive ErrorLimit's bit-halving search)", out[0])
	}
	if d.NumErrors() != 0 {
		t.Errorf("NumErrors = %d, want 0 (CRC should match)", d.NumErrors())
	}
}

func TestOpenRejectsNonWavPackData(t *testing.T) {
	_, err := wavpack.Open(bytes.NewReader([]byte("not a wavpack stream at all")))
	if err == nil {
		t.Fatal("expected error for non-WavPack input")
	}
}

func TestOpenRejectsTruncatedHeader(t *testing.T) {
	full := buildMonoBlock(t)
	_, err := wavpack.Open(bytes.NewReader(full[:16]))
	if err == nil {
		t.Fatal("expected error for truncated header")
	}
	if err == io.EOF {
		t.Fatal("expected a wrapped *wavpack.Error, not a bare io.EOF")
	}
}

// A corrupted CRC should surface as a counted error, not a hard failure:
// UnpackSamples still returns the decoded samples.
func TestCRCMismatchIsCountedNotFatal(t *testing.T) {
	raw := buildMonoBlock(t)
	// Flip the CRC's last byte so it no longer matches the decoded samples.
	raw[31] ^= 0xff

	d, err := wavpack.Open(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	out := make([]int32, 4)
	if _, err := d.UnpackSamples(out, 4); err != nil {
		t.Fatalf("UnpackSamples: %v", err)
	}
	if d.NumErrors() != 1 {
		t.Errorf("NumErrors = %d, want 1", d.NumErrors())
	}
}
