package dshot

import "fmt"

// CommandCode is the 11-bit code carried in a frame.
type CommandCode uint16

// Command codes and limits.
const (
	CodeMotorStop       CommandCode = 0
	CodeEscInfo         CommandCode = 6
	CodeExtTelemetryOn  CommandCode = 13
	CodeExtTelemetryOff CommandCode = 14
	CodeNormal          CommandCode = 20
	CodeReversed        CommandCode = 21
	CodeLedOnBase       CommandCode = 22
	CodeLedOffBase      CommandCode = 26
	CodeThrottleBase    CommandCode = 48
	CodeMax             CommandCode = 2047

	BeepMin     = 1
	BeepMax     = 5
	LedMax      = 3
	ThrottleMax = 1999
)

// IsSpecial indicates the code is a command rather than a throttle value.
// ESC firmware only honors special commands with the telemetry bit set.
func (c CommandCode) IsSpecial() bool {
	return c > CodeMotorStop && c < CodeThrottleBase
}

// Command is a single request to an ESC.
type Command interface {
	fmt.Stringer
	encode() (CommandCode, error)
}

// MotorStop stops the motor, also used to arm the ESC.
type MotorStop struct{}

// ExtendedTelemetry enables or disables extended telemetry.
type ExtendedTelemetry struct {
	Enabled bool
}

// Beep makes the motor beep, Count is 1 to 5.
type Beep struct {
	Count uint8
}

// EscInfo requests ESC information.
type EscInfo struct{}

// Reverse sets the spin direction.
type Reverse bool

// Led turns an ESC LED (0 to 3) on or off.
type Led struct {
	ID      uint8
	Enabled bool
}

// Throttle is the throttle value from 0 to 1999.
type Throttle uint16

// Encode converts a command into its wire code.
func Encode(cmd Command) (CommandCode, error) {
	if cmd == nil {
		return 0, &InvalidCommandError{Reason: "nil command"}
	}
	return cmd.encode()
}

// ClampThrottle limits t to the valid throttle range.
func ClampThrottle(t int) Throttle {
	if t < 0 {
		return 0
	}
	if t > ThrottleMax {
		return ThrottleMax
	}
	return Throttle(t)
}

func (MotorStop) encode() (CommandCode, error) { return CodeMotorStop, nil }

func (c ExtendedTelemetry) encode() (CommandCode, error) {
	if c.Enabled {
		return CodeExtTelemetryOn, nil
	}
	return CodeExtTelemetryOff, nil
}

func (c Beep) encode() (CommandCode, error) {
	if c.Count < BeepMin || c.Count > BeepMax {
		return 0, &InvalidCommandError{Command: c, Reason: "count out of range 1-5"}
	}
	return CommandCode(c.Count), nil
}

func (EscInfo) encode() (CommandCode, error) { return CodeEscInfo, nil }

func (c Reverse) encode() (CommandCode, error) {
	if c {
		return CodeReversed, nil
	}
	return CodeNormal, nil
}

func (c Led) encode() (CommandCode, error) {
	if c.ID > LedMax {
		return 0, &InvalidCommandError{Command: c, Reason: "led id out of range 0-3"}
	}
	base := CodeLedOffBase
	if c.Enabled {
		base = CodeLedOnBase
	}
	return base + CommandCode(c.ID), nil
}

func (c Throttle) encode() (CommandCode, error) {
	if c > ThrottleMax {
		return 0, &InvalidCommandError{Command: c, Reason: "throttle out of range 0-1999"}
	}
	return CodeThrottleBase + CommandCode(c), nil
}

func (MotorStop) String() string { return "MotorStop" }

func (c ExtendedTelemetry) String() string {
	return fmt.Sprintf("ExtendedTelemetry(%v)", c.Enabled)
}

func (c Beep) String() string { return fmt.Sprintf("Beep(%d)", c.Count) }

func (EscInfo) String() string { return "EscInfo" }

func (c Reverse) String() string { return fmt.Sprintf("Reverse(%v)", bool(c)) }

func (c Led) String() string { return fmt.Sprintf("Led(%d, %v)", c.ID, c.Enabled) }

func (c Throttle) String() string { return fmt.Sprintf("Throttle(%d)", uint16(c)) }
