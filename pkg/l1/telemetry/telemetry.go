// Package telemetry assembles raw replies captured on bidirectional lines.
// Words are delivered as captured, the payload is not interpreted.
package telemetry

import (
	"fmt"
	"sync/atomic"

	"github.com/robotalks/dshot.go/pkg/l0/dshot"
)

// Frame is one reply as three 32-bit words: 16 zero bits followed by
// dshot.ReplyGroups nibbles, MSB first.
type Frame [3]uint32

// leadingBits is the zero padding in front of the first nibble.
const leadingBits = 16

// String implements fmt.Stringer.
func (f Frame) String() string {
	return fmt.Sprintf("%08x %08x %08x", f[0], f[1], f[2])
}

// Nibbles unpacks the sampled groups.
func (f Frame) Nibbles() []uint8 {
	nibbles := make([]uint8, dshot.ReplyGroups)
	for i := range nibbles {
		bit := leadingBits + i*4
		nibbles[i] = uint8(f[bit/32]>>uint(28-bit%32)) & 0xf
	}
	return nibbles
}

// Report is delivered to a Consumer after each frame on a bidirectional line.
type Report struct {
	Motor   string
	Seq     uint64
	Present bool
	Frame   Frame
	State   string
}

// String implements fmt.Stringer.
func (r Report) String() string {
	if !r.Present {
		return fmt.Sprintf("%s #%d %s: no reply", r.Motor, r.Seq, r.State)
	}
	return fmt.Sprintf("%s #%d %s: %s", r.Motor, r.Seq, r.State, r.Frame)
}

// Consumer receives telemetry reports.
type Consumer interface {
	ConsumeTelemetry(Report)
}

// ConsumerFunc is the func form of Consumer.
type ConsumerFunc func(Report)

// ConsumeTelemetry implements Consumer.
func (f ConsumerFunc) ConsumeTelemetry(r Report) {
	f(r)
}

// Consumers fans a report out.
type Consumers []Consumer

// ConsumeTelemetry implements Consumer.
func (c Consumers) ConsumeTelemetry(r Report) {
	for _, consumer := range c {
		consumer.ConsumeTelemetry(r)
	}
}

// Chan is a Consumer which never blocks, reports are dropped when the
// channel is full.
type Chan chan Report

// ConsumeTelemetry implements Consumer.
func (c Chan) ConsumeTelemetry(r Report) {
	select {
	case c <- r:
	default:
	}
}

// Stats are the receiver counters.
type Stats struct {
	Received uint64
	Absent   uint64
	Partial  uint64
}

// Receiver assembles captured nibbles into frames.
type Receiver struct {
	received uint64
	absent   uint64
	partial  uint64
}

// Assemble packs exactly dshot.ReplyGroups nibbles into a Frame. Anything
// else is absent: a partial capture is counted and never padded.
func (r *Receiver) Assemble(nibbles []uint8) (Frame, bool) {
	var f Frame
	if len(nibbles) == 0 {
		atomic.AddUint64(&r.absent, 1)
		return f, false
	}
	if len(nibbles) != dshot.ReplyGroups {
		atomic.AddUint64(&r.partial, 1)
		atomic.AddUint64(&r.absent, 1)
		return f, false
	}
	for i, n := range nibbles {
		if n > 0xf {
			atomic.AddUint64(&r.partial, 1)
			atomic.AddUint64(&r.absent, 1)
			return Frame{}, false
		}
		bit := leadingBits + i*4
		f[bit/32] |= uint32(n) << uint(28-bit%32)
	}
	atomic.AddUint64(&r.received, 1)
	return f, true
}

// Missed counts a reply which never arrived.
func (r *Receiver) Missed() {
	atomic.AddUint64(&r.absent, 1)
}

// Stats returns a snapshot of the counters.
func (r *Receiver) Stats() Stats {
	return Stats{
		Received: atomic.LoadUint64(&r.received),
		Absent:   atomic.LoadUint64(&r.absent),
		Partial:  atomic.LoadUint64(&r.partial),
	}
}
