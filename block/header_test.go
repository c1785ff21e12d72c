package block

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// buildHeader constructs a syntactically valid 32-byte block header with the
// given payload size (ckSize - 24, i.e. bytes following the header).
func buildHeader(t *testing.T, payloadSize int, version uint16, flags, blockIndex, blockSamples, crc uint32) []byte {
	t.Helper()
	buf := make([]byte, headerSize)
	copy(buf[0:4], Signature[:])
	ckSize := uint32(headerSize-8+payloadSize) &^ 1
	binary.LittleEndian.PutUint32(buf[4:8], ckSize)
	buf[8] = byte(version)
	buf[9] = 4
	buf[10] = 1  // track no
	buf[11] = 0  // index no
	binary.LittleEndian.PutUint32(buf[12:16], 0xffffffff) // unknown total samples
	binary.LittleEndian.PutUint32(buf[16:20], blockIndex)
	binary.LittleEndian.PutUint32(buf[20:24], blockSamples)
	binary.LittleEndian.PutUint32(buf[24:28], flags)
	binary.LittleEndian.PutUint32(buf[28:32], crc)
	return buf
}

func TestFindParsesValidHeader(t *testing.T) {
	raw := buildHeader(t, 0, 0x407, FlagMono, 10, 100, 0xdeadbeef)
	h, err := Find(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if h.Version != 0x407 {
		t.Errorf("Version = %#x, want 0x407", h.Version)
	}
	if !h.Mono() {
		t.Error("Mono() = false, want true")
	}
	if h.BlockIndex != 10 || h.BlockSamples != 100 {
		t.Errorf("BlockIndex/BlockSamples = %d/%d, want 10/100", h.BlockIndex, h.BlockSamples)
	}
	if h.TotalSamples != -1 {
		t.Errorf("TotalSamples = %d, want -1", h.TotalSamples)
	}
	if h.CRC != 0xdeadbeef {
		t.Errorf("CRC = %#x, want 0xdeadbeef", h.CRC)
	}
}

func TestFindSkipsGarbage(t *testing.T) {
	garbage := []byte{0x00, 0x01, 0x02, 'w', 'v', 'p'} // partial, non-matching signature prefix
	raw := buildHeader(t, 0, 0x402, 0, 0, 0, 0)
	var buf bytes.Buffer
	buf.Write(garbage)
	buf.Write(raw)
	h, err := Find(&buf)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if h.Version != 0x402 {
		t.Errorf("Version = %#x, want 0x402", h.Version)
	}
}

func TestFindRejectsShortStream(t *testing.T) {
	_, err := Find(bytes.NewReader([]byte{'w', 'v', 'p', 'k'}))
	if err == nil {
		t.Error("Find on truncated stream should return an error")
	}
}

func TestHeaderShiftAndMagBits(t *testing.T) {
	flags := uint32(3<<shiftLSB) | uint32(7<<magLSB)
	raw := buildHeader(t, 0, 0x407, flags, 0, 1, 0)
	h, err := Find(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if got := h.ShiftAmount(); got != 3 {
		t.Errorf("ShiftAmount() = %d, want 3", got)
	}
	if got := h.MagBits(); got != 7 {
		t.Errorf("MagBits() = %d, want 7", got)
	}
}

func TestSampleRateIndex(t *testing.T) {
	flags := uint32(9 << srateLSB) // index 9 -> 44100
	raw := buildHeader(t, 0, 0x407, flags, 0, 1, 0)
	h, err := Find(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	rate, ok := h.SampleRateIndex()
	if !ok || rate != 44100 {
		t.Errorf("SampleRateIndex() = (%d, %v), want (44100, true)", rate, ok)
	}
}
