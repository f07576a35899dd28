package bridge

import (
	"encoding/binary"

	"github.com/robotalks/dshot.go/pkg/l0/signal"
)

const (
	pulseLevel = 0x8000
	pulseTicks = 0x7fff
	// MaxPulses is the longest waveform fitting in one Emit request.
	MaxPulses  = (MaxDataLen - 1) / 2
	captureLen = 10
)

// DirectionRequest is the payload of CodeDirection.
type DirectionRequest struct {
	Channel   uint8
	Direction signal.Direction
	Idle      signal.Level
}

// Encode encodes the request.
func (r *DirectionRequest) Encode() []byte {
	return []byte{r.Channel, byte(r.Direction), boolByte(bool(r.Idle))}
}

// Decode decodes the request.
func (r *DirectionRequest) Decode(data []byte) error {
	if len(data) != 3 || data[1] > byte(signal.Input) || data[2] > 1 {
		return ErrMalformed
	}
	r.Channel, r.Direction, r.Idle = data[0], signal.Direction(data[1]), data[2] != 0
	return nil
}

// EmitRequest is the payload of CodeEmit.
type EmitRequest struct {
	Channel  uint8
	Waveform signal.Waveform
}

// Encode encodes the request.
func (r *EmitRequest) Encode() ([]byte, error) {
	if len(r.Waveform) > MaxPulses {
		return nil, ErrMalformed
	}
	data := make([]byte, 1+2*len(r.Waveform))
	data[0] = r.Channel
	for i, p := range r.Waveform {
		if p.Ticks > pulseTicks {
			return nil, ErrMalformed
		}
		v := p.Ticks
		if p.Level {
			v |= pulseLevel
		}
		binary.BigEndian.PutUint16(data[1+2*i:], v)
	}
	return data, nil
}

// Decode decodes the request.
func (r *EmitRequest) Decode(data []byte) error {
	if len(data) < 1 || len(data)%2 != 1 {
		return ErrMalformed
	}
	r.Channel = data[0]
	r.Waveform = make(signal.Waveform, (len(data)-1)/2)
	for i := range r.Waveform {
		v := binary.BigEndian.Uint16(data[1+2*i:])
		r.Waveform[i] = signal.Pulse{Level: v&pulseLevel != 0, Ticks: v & pulseTicks}
	}
	return nil
}

// CaptureRequest is the payload of CodeCapture.
type CaptureRequest struct {
	Channel uint8
	Spec    signal.CaptureSpec
}

// Encode encodes the request.
func (r *CaptureRequest) Encode() ([]byte, error) {
	s := r.Spec
	if !fits16(s.Guard, s.Window, s.Skip) || !fits8(s.Groups, s.Samples, s.SampleTicks) {
		return nil, ErrMalformed
	}
	data := make([]byte, captureLen)
	data[0] = r.Channel
	binary.BigEndian.PutUint16(data[1:], uint16(s.Guard))
	binary.BigEndian.PutUint16(data[3:], uint16(s.Window))
	binary.BigEndian.PutUint16(data[5:], uint16(s.Skip))
	data[7], data[8], data[9] = byte(s.Groups), byte(s.Samples), byte(s.SampleTicks)
	return data, nil
}

// Decode decodes the request.
func (r *CaptureRequest) Decode(data []byte) error {
	if len(data) != captureLen {
		return ErrMalformed
	}
	r.Channel = data[0]
	r.Spec = signal.CaptureSpec{
		Guard:       int(binary.BigEndian.Uint16(data[1:])),
		Window:      int(binary.BigEndian.Uint16(data[3:])),
		Skip:        int(binary.BigEndian.Uint16(data[5:])),
		Groups:      int(data[7]),
		Samples:     int(data[8]),
		SampleTicks: int(data[9]),
	}
	return nil
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

func fits16(vals ...int) bool {
	for _, v := range vals {
		if v < 0 || v > 0xffff {
			return false
		}
	}
	return true
}

func fits8(vals ...int) bool {
	for _, v := range vals {
		if v < 0 || v > 0xff {
			return false
		}
	}
	return true
}
