package signal

import (
	"context"
	"errors"

	"github.com/robotalks/dshot.go/pkg/l0/dshot"
)

// Line is the physical single-wire resource of one ESC. It's owned by
// exactly one Engine.
type Line interface {
	// SetDirection switches the line direction. When switched to output,
	// the line is driven to idle.
	SetDirection(dir Direction, idle Level) error
	// Emit shifts out a waveform. It blocks while the transmit buffer is
	// full.
	Emit(ctx context.Context, w Waveform) error
	// Capture samples a reply according to spec. It returns one nibble per
	// group, or ErrNoResponse if the line was not driven within the window.
	Capture(ctx context.Context, spec CaptureSpec) ([]uint8, error)
}

// CaptureSpec describes how a reply is sampled, all values in ticks except
// for counts.
type CaptureSpec struct {
	Guard       int
	Window      int
	Skip        int
	Groups      int
	Samples     int
	SampleTicks int
}

// DefaultCaptureSpec is the reply sampling of the canonical timing table.
func DefaultCaptureSpec() CaptureSpec {
	return CaptureSpec{
		Guard:       dshot.GuardTicks,
		Window:      dshot.WindowTicks,
		Skip:        dshot.ReplySkipTicks,
		Groups:      dshot.ReplyGroups,
		Samples:     dshot.ReplySamples,
		SampleTicks: dshot.ReplySampleTicks,
	}
}

// Ticks is the worst case duration of a capture.
func (s CaptureSpec) Ticks() int {
	return s.Guard + s.Window + s.Skip + s.Groups*s.Samples*s.SampleTicks
}

var (
	// ErrNoResponse indicates nothing was captured within the window.
	ErrNoResponse = errors.New("no response")
	// ErrNotBidirectional indicates a receive on a unidirectional engine.
	ErrNotBidirectional = errors.New("engine is not bidirectional")
)
