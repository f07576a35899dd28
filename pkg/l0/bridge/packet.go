package bridge

import (
	"io"
	"time"
)

// Packet codes.
const (
	CodeDirection byte = 0x01
	CodeEmit      byte = 0x02
	CodeCapture   byte = 0x03

	// CodeReply is set on replies.
	CodeReply byte = 0x80
	// CodeError replies a failed request, data is the message.
	CodeError byte = 0xff
)

const (
	startByte = 0xd5
	// MaxDataLen is the maximum payload of a packet.
	MaxDataLen = 0xff
)

// PacketSeq defines the type of packet sequence number.
type PacketSeq byte

// NewPacketSeq creates a random packet sequence number.
func NewPacketSeq() PacketSeq {
	return PacketSeq(byte(time.Now().UnixNano())).Next()
}

// Next calculates the next sequence number.
func (s PacketSeq) Next() PacketSeq {
	n := byte(s) + 1
	if n == 0 || n >= 0xf0 {
		n = 1
	}
	return PacketSeq(n)
}

// IsValid checks if it's a valid sequence number.
func (s PacketSeq) IsValid() bool {
	n := byte(s)
	return n > 0 && n < 0xf0
}

// Packet contains the information of a parsed packet.
type Packet struct {
	Seq  PacketSeq
	Code byte
	Data []byte
}

// IsReply indicates the packet answers a request.
func (p *Packet) IsReply() bool {
	return p.Code&CodeReply != 0
}

// Reply creates the successful reply of a request.
func (p *Packet) Reply(data []byte) *Packet {
	return &Packet{Seq: p.Seq, Code: p.Code | CodeReply, Data: data}
}

// Error creates the error reply of a request.
func (p *Packet) Error(err error) *Packet {
	msg := []byte(err.Error())
	if len(msg) > MaxDataLen {
		msg = msg[:MaxDataLen]
	}
	return &Packet{Seq: p.Seq, Code: CodeError, Data: msg}
}

// Bytes returns encoded bytes for sending. Data beyond MaxDataLen is
// truncated.
func (p *Packet) Bytes() []byte {
	data := p.Data
	if len(data) > MaxDataLen {
		data = data[:MaxDataLen]
	}
	b := make([]byte, 0, len(data)+5)
	b = append(b, startByte, byte(p.Seq), p.Code, byte(len(data)))
	b = append(b, data...)
	var sum byte
	for _, v := range b[1:] {
		sum ^= v
	}
	return append(b, sum)
}

// WriteTo writes encoded bytes.
func (p *Packet) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(p.Bytes())
	return int64(n), err
}
