package meta

import (
	"bytes"
	"testing"
)

func TestReadSubHeaderBasic(t *testing.T) {
	// id=idDummy, byteLength=4 (encoded as 2, doubled).
	r := bytes.NewReader([]byte{idDummy, 2, 0xaa, 0xaa, 0xaa, 0xaa})
	id, n, err := readSubHeader(r)
	if err != nil {
		t.Fatal(err)
	}
	if id != idDummy || n != 4 {
		t.Errorf("got (%#x, %d), want (%#x, 4)", id, n, idDummy)
	}
}

func TestReadSubHeaderOddSize(t *testing.T) {
	// byteLength field says 4, ID_ODD_SIZE trims one byte -> 3.
	r := bytes.NewReader([]byte{idDummy | idOddSize, 2})
	_, n, err := readSubHeader(r)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("byteLength = %d, want 3", n)
	}
}

func TestReadSubHeaderLarge(t *testing.T) {
	r := bytes.NewReader([]byte{idDummy | idLarge, 1, 0, 0})
	id, n, err := readSubHeader(r)
	if err != nil {
		t.Fatal(err)
	}
	if id != idDummy {
		t.Errorf("id = %#x, want %#x (ID_LARGE bit stripped)", id, idDummy)
	}
	if n != 2 {
		t.Errorf("byteLength = %d, want 2", n)
	}
}

// Scan must stop exactly at ID_WV_BITSTREAM and leave the reader positioned
// right after its sub-header, having recorded a skipped idDummy block and a
// recognized channel-info block along the way.
func TestScanStopsAtBitstreamMarker(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{idDummy, 1, 0x00, 0x00}) // 2-byte dummy payload
	buf.Write([]byte{idChannelInfo, 1, 2, 0x03})
	buf.Write([]byte{idWVBitstream, 0})
	buf.WriteString("payload-follows")

	s, err := Scan(&buf, 0, 0x407)
	if err != nil {
		t.Fatal(err)
	}
	if !s.Bitstream {
		t.Error("State.Bitstream should be true")
	}
	if s.NumChannels != 2 || s.ChannelMask != 0x03 {
		t.Errorf("channel info = (%d, %#x), want (2, 0x3)", s.NumChannels, s.ChannelMask)
	}

	rest, err := (&bytes.Buffer{}).ReadFrom(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if rest != int64(len("payload-follows")) {
		t.Errorf("remaining bytes = %d, want %d", rest, len("payload-follows"))
	}
}

func TestScanMissingBitstreamIsError(t *testing.T) {
	buf := bytes.NewBuffer([]byte{idDummy, 1, 0x00})
	if _, err := Scan(buf, 0, 0x407); err == nil {
		t.Error("expected error when ID_WV_BITSTREAM is never reached")
	}
}

// dispatch's default case only tolerates unknown ids carrying the
// ID_OPTIONAL_DATA bit; an unrecognized mandatory id is an error, matching
// the reference decoder's refusal to silently ignore unknown required data.
func TestDispatchUnknownMandatoryIdErrors(t *testing.T) {
	s := newState()
	if err := dispatch(s, 0x1f, nil, 0, 0x407); err == nil {
		t.Error("expected error for unknown mandatory sub-block id")
	}
}

func TestDispatchUnknownOptionalIdIgnored(t *testing.T) {
	s := newState()
	if err := dispatch(s, 0x1f|idOptionalData, nil, 0, 0x407); err != nil {
		t.Errorf("unexpected error for unknown optional sub-block id: %v", err)
	}
}
