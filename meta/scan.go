package meta

import (
	"fmt"
	"io"
)

// readSubHeader reads one sub-block's ID and byte length from r, resolving
// the ID_LARGE extension bytes and ID_ODD_SIZE adjustment. The returned id
// still carries its ID_OPTIONAL_DATA bit, if any — callers switch on it
// directly, since none of the recognized IDs below 0x20 collide with it.
func readSubHeader(r io.Reader) (id byte, byteLength int, err error) {
	var hdr [2]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return 0, 0, err
	}
	id = hdr[0]
	byteLength = int(hdr[1]) << 1

	if id&idLarge != 0 {
		id &^= idLarge
		var ext [2]byte
		if _, err := io.ReadFull(r, ext[:]); err != nil {
			return 0, 0, err
		}
		byteLength += int(ext[0]) << 9
		byteLength += int(ext[1]) << 17
	}

	if id&idOddSize != 0 {
		id &^= idOddSize
		byteLength--
	}

	return id, byteLength, nil
}

// Scan reads sub-blocks from r (the block payload that follows the 32-byte
// header) until it reaches ID_WV_BITSTREAM, populating and returning a
// State. On return, r is positioned at the start of the audio bitstream
// payload; the caller wraps the remainder of the (length-bounded) block
// reader directly as the bitstream source.
func Scan(r io.Reader, flags uint32, version uint16) (*State, error) {
	s := newState()

	for {
		id, byteLength, err := readSubHeader(r)
		if err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return nil, fmt.Errorf("meta.Scan: block ended before ID_WV_BITSTREAM")
			}
			return nil, err
		}

		if id == idWVBitstream {
			s.Bitstream = true
			return s, nil
		}

		if byteLength == 0 {
			continue
		}

		readLen := byteLength + (byteLength & 1)
		data := make([]byte, readLen)
		if _, err := io.ReadFull(r, data); err != nil {
			return nil, fmt.Errorf("meta.Scan: reading sub-block %#x: %w", id, err)
		}
		data = data[:byteLength]

		if err := dispatch(s, id, data, flags, version); err != nil {
			return nil, err
		}
	}
}

func dispatch(s *State, id byte, data []byte, flags uint32, version uint16) error {
	switch id {
	case idDummy:
		return nil

	case idDecorrTerms:
		passes, err := parseDecorrTerms(data)
		if err != nil {
			return err
		}
		s.Terms = passes
		return nil

	case idDecorrWeights:
		return parseDecorrWeights(s.Terms, data, flags)

	case idDecorrSamples:
		return parseDecorrSamples(s.Terms, data, flags, version)

	case idEntropyVars:
		return parseEntropyVars(&s.Words, data, flags)

	case idHybridProfile:
		return parseHybridProfile(&s.Words, data, flags)

	case idFloatInfo:
		fi, err := parseFloatInfo(data)
		if err != nil {
			return err
		}
		s.Float = fi
		s.SawFloat = true
		return nil

	case idInt32Info:
		ii, err := parseInt32Info(data)
		if err != nil {
			return err
		}
		s.Int32 = ii
		s.SawInt32 = true
		return nil

	case idChannelInfo:
		n, mask, err := parseChannelInfo(data)
		if err != nil {
			return err
		}
		s.NumChannels = n
		s.ChannelMask = mask
		return nil

	case idSampleRate:
		if rate, ok := parseSampleRate(data); ok {
			s.SampleRate = rate
		}
		return nil

	case idConfigBlock:
		s.ConfigFlags = parseConfigBlock(s.ConfigFlags, data)
		return nil

	case idShapingWeights, idWVCBitstream, idWVXBitstream, idEncoderInfo,
		idRiffHeader, idRiffTrailer, idReplayGain, idCuesheet, idMD5Checksum:
		return nil

	default:
		if id&idOptionalData != 0 {
			return nil
		}
		return fmt.Errorf("meta.Scan: unsupported mandatory sub-block id %#x", id)
	}
}
