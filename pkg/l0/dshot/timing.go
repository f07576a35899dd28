package dshot

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Rate is the DShot bit rate in kbit/s.
type Rate uint

// Standard rates.
const (
	DShot150 Rate = 150
	DShot300 Rate = 300
	DShot600 Rate = 600

	DefaultRate = DShot300
)

// Timing table, in ticks of Rate.TickRate. A tick is 1/40 of a bit slot,
// i.e. five times the resolution of the 8-cycle base slot, which allows the
// 3:1 and 3:5 ratios to be expressed exactly.
const (
	TicksPerBit     = 40
	TicksActiveOne  = 30 // 75%
	TicksActiveZero = 15 // 37.5%

	// FrameTicks is the fixed frame period, 16 data bits plus the same
	// amount of idle padding.
	FrameTicks = 2 * FrameBits * TicksPerBit

	// GuardTicks is how long the line is left alone after switching to
	// input, for the ESC to release and start driving it.
	GuardTicks = 320
	// WindowTicks bounds the wait for the first reply edge after the guard.
	WindowTicks = 360

	// Replies run 5/4 faster than commands and are oversampled 4 times.
	ReplyTicksPerBit = TicksPerBit * 4 / 5
	ReplyGroups      = 20
	ReplySamples     = 4
	ReplySampleTicks = ReplyTicksPerBit / ReplySamples
	// ReplySkipTicks skips the leading framing zero of a reply.
	ReplySkipTicks = ReplyTicksPerBit
)

var rates = []Rate{DShot150, DShot300, DShot600}

// Rates lists the supported rates.
func Rates() []Rate {
	return append([]Rate(nil), rates...)
}

// ParseRate parses "300", "dshot300" or "DShot300".
func ParseRate(s string) (Rate, error) {
	str := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "dshot")
	n, err := strconv.ParseUint(str, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrUnknownRate, s)
	}
	r := Rate(n)
	if !r.IsValid() {
		return 0, fmt.Errorf("%w: %q", ErrUnknownRate, s)
	}
	return r, nil
}

// IsValid indicates the rate is a standard one.
func (r Rate) IsValid() bool {
	for _, rate := range rates {
		if r == rate {
			return true
		}
	}
	return false
}

// String implements fmt.Stringer.
func (r Rate) String() string {
	return "DShot" + strconv.FormatUint(uint64(r), 10)
}

// Set implements flag.Value.
func (r *Rate) Set(s string) error {
	rate, err := ParseRate(s)
	if err != nil {
		return err
	}
	*r = rate
	return nil
}

// UnmarshalYAML accepts the same forms as ParseRate.
func (r *Rate) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	return r.Set(s)
}

// TickRate is the tick frequency in Hz.
func (r Rate) TickRate() uint64 {
	return uint64(r) * 1000 * TicksPerBit
}

// Duration converts ticks to wall time.
func (r Rate) Duration(ticks int) time.Duration {
	if r == 0 {
		return 0
	}
	return time.Duration(uint64(ticks) * uint64(time.Second) / r.TickRate())
}

// Timing is the timing table expressed in wall time.
type Timing struct {
	Rate       Rate
	BitPeriod  time.Duration
	ActiveOne  time.Duration
	ActiveZero time.Duration
	Frame      time.Duration
	Guard      time.Duration
	Window     time.Duration
}

// Timing computes the timing table of the rate.
func (r Rate) Timing() Timing {
	return Timing{
		Rate:       r,
		BitPeriod:  r.Duration(TicksPerBit),
		ActiveOne:  r.Duration(TicksActiveOne),
		ActiveZero: r.Duration(TicksActiveZero),
		Frame:      r.Duration(FrameTicks),
		Guard:      r.Duration(GuardTicks),
		Window:     r.Duration(WindowTicks),
	}
}
