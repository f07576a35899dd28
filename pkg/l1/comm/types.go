package comm

import "errors"

// PacketReader reads packets in bytes.
type PacketReader interface {
	ReadPacket() ([]byte, error)
}

// PacketWriter writes packets in bytes.
type PacketWriter interface {
	WritePacket([]byte) error
}

// PacketReadWriter reads/writes packets in bytes.
type PacketReadWriter interface {
	PacketReader
	PacketWriter
}

var (
	// ErrWrongKind indicates a command was sent as an event or vice versa.
	ErrWrongKind = errors.New("wrong message kind")
	// ErrClosed indicates the connection is closed.
	ErrClosed = errors.New("connection closed")
)
