// Package crc implements the rolling block checksum used by WavPack audio
// blocks. This is not a polynomial CRC-8/CRC-16 of the kind used by other
// codecs' frame footers; it is a simple running multiply-accumulate over the
// decoded (pre-fixup) sample stream, verified against the 32-bit value
// carried in each block's header.
package crc

// Accumulator holds the running checksum state for one block's channel(s).
type Accumulator struct {
	value uint32
}

// New returns an Accumulator seeded with the reference decoder's initial
// value.
func New() *Accumulator {
	return &Accumulator{value: 0xffffffff}
}

// Update folds one decoded sample into the running checksum.
func (a *Accumulator) Update(sample int32) {
	a.value = a.value*3 + uint32(sample)
}

// Sum returns the current checksum value.
func (a *Accumulator) Sum() uint32 {
	return a.value
}
