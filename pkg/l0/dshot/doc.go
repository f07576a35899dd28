// Package dshot provides the DShot wire format.
package dshot

// DShot is a single-wire command protocol between a flight/motor controller
// and an electronic speed controller (ESC). Every command is a 16-bit frame
// sent MSB first:
//
//   bits 15-5  command code (11 bits)
//   bit  4     telemetry request
//   bits 3-0   checksum, XOR of the three upper nibbles
//
// Bidirectional links idle high and complement the checksum. Replies sent
// back by the ESC are not decoded here, they are handed to the consumer as
// raw captured words.
