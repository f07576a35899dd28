package bridge

import (
	"context"

	"github.com/robotalks/dshot.go/pkg/l0/signal"
)

// Line returns the signal.Line of a coprocessor channel.
func (p *Port) Line(ch uint8) signal.Line {
	return &line{port: p, ch: ch}
}

type line struct {
	port *Port
	ch   uint8
}

func (l *line) SetDirection(dir signal.Direction, idle signal.Level) error {
	req := DirectionRequest{Channel: l.ch, Direction: dir, Idle: idle}
	_, err := l.port.Do(context.Background(), CodeDirection, req.Encode())
	return err
}

// Emit returns once the coprocessor queued the waveform, the reply is held
// back while its transmit buffer is full.
func (l *line) Emit(ctx context.Context, w signal.Waveform) error {
	req := EmitRequest{Channel: l.ch, Waveform: w}
	data, err := req.Encode()
	if err != nil {
		return err
	}
	_, err = l.port.Do(ctx, CodeEmit, data)
	return err
}

func (l *line) Capture(ctx context.Context, spec signal.CaptureSpec) ([]uint8, error) {
	req := CaptureRequest{Channel: l.ch, Spec: spec}
	data, err := req.Encode()
	if err != nil {
		return nil, err
	}
	reply, err := l.port.Do(ctx, CodeCapture, data)
	if err != nil {
		return nil, err
	}
	if len(reply) == 0 {
		return nil, signal.ErrNoResponse
	}
	return reply, nil
}
