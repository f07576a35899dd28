package dshot

// Frame is the 16-bit value put on the wire.
type Frame uint16

// FrameBits is the number of bits in a frame.
const FrameBits = 16

// Checksum computes the checksum nibble of the 12-bit payload
// (code<<1 | telemetry).
func Checksum(payload uint16, inverted bool) uint16 {
	crc := payload ^ (payload >> 4) ^ (payload >> 8)
	if inverted {
		crc = ^crc
	}
	return crc & 0x0f
}

// Build packs a code, the telemetry request bit and the checksum.
// inverted must be set on bidirectional links.
func Build(code CommandCode, telemetry, inverted bool) Frame {
	payload := uint16(code) << 1
	if telemetry {
		payload |= 1
	}
	return Frame(payload<<4 | Checksum(payload, inverted))
}

// Code extracts the command code.
func (f Frame) Code() CommandCode {
	return CommandCode(f >> 5)
}

// Telemetry extracts the telemetry request bit.
func (f Frame) Telemetry() bool {
	return f&0x10 != 0
}

// Checksum extracts the checksum nibble.
func (f Frame) Checksum() uint16 {
	return uint16(f) & 0x0f
}

// Valid verifies the checksum nibble.
func (f Frame) Valid(inverted bool) bool {
	return Checksum(uint16(f)>>4, inverted) == f.Checksum()
}
