package bridge

// Parser parses bytes received.
type Parser struct {
	state   parseState
	packet  *Packet
	recvLen int
	sum     byte
}

// ParseResult indicates the result after one parsing step.
type ParseResult struct {
	Packet *Packet
	// Dropped is set when a partial or corrupted packet is discarded.
	Dropped bool
}

type parseState int

const (
	stateStart parseState = iota // waiting for start byte
	stateSeq                     // waiting for seq
	stateCode                    // waiting for code
	stateLen                     // waiting for data length
	stateData                    // waiting for data
	stateSum                     // waiting for checksum
)

// Receiving indicates a packet is partially received.
func (p *Parser) Receiving() bool {
	return p.state != stateStart
}

// Reset discards any partial packet.
func (p *Parser) Reset() {
	p.state, p.packet = stateStart, nil
}

// Timeout notifies the parser the peer went quiet in the middle of a packet.
func (p *Parser) Timeout() (pr ParseResult) {
	if p.state != stateStart {
		p.Reset()
		pr.Dropped = true
	}
	return
}

// Parse consumes one byte.
func (p *Parser) Parse(b byte) (pr ParseResult) {
	switch p.state {
	case stateStart:
		if b == startByte {
			p.state, p.sum = stateSeq, 0
		}
		return
	case stateSeq:
		if seq := PacketSeq(b); !seq.IsValid() {
			p.Reset()
			pr.Dropped = true
			return
		}
		p.packet = &Packet{Seq: PacketSeq(b)}
		p.state = stateCode
	case stateCode:
		p.packet.Code = b
		p.state = stateLen
	case stateLen:
		p.packet.Data, p.recvLen = make([]byte, b), 0
		if b == 0 {
			p.state = stateSum
		} else {
			p.state = stateData
		}
	case stateData:
		p.packet.Data[p.recvLen] = b
		p.recvLen++
		if p.recvLen >= len(p.packet.Data) {
			p.state = stateSum
		}
	case stateSum:
		pkt := p.packet
		p.Reset()
		if b != p.sum {
			pr.Dropped = true
			return
		}
		if len(pkt.Data) == 0 {
			pkt.Data = nil
		}
		pr.Packet = pkt
		return
	}
	p.sum ^= b
	return
}
