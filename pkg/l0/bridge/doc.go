// Package bridge drives DShot lines through a coprocessor attached to a
// serial port. The coprocessor owns the timing-critical part: it shifts
// out pulse programs and samples replies, the host only exchanges packets.
package bridge

// Every packet is framed as
//
//   0xD5 | seq | code | len | data[len] | xor
//
// where xor is the XOR of seq, code, len and data. Requests are sent by the
// host with seq in 1..0xEF, the coprocessor answers each request with the
// same seq and the request code with bit 7 set, or CodeError with a message.
// Channels are independent: requests of one channel are served in order,
// replies of different channels may interleave and are matched by seq.
//
// Requests:
//
//   Direction  ch | dir | idle
//   Emit       ch | pulses, 2 bytes each big-endian: bit 15 level, ticks
//   Capture    ch | guard(2) | window(2) | skip(2) | groups | samples | sample-ticks
//
// The reply of Capture carries one nibble per byte, no data means no
// response within the window.
