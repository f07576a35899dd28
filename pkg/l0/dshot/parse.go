package dshot

import (
	"fmt"
	"strings"
)

// Command kinds as named by ParseCommand and KindOf.
const (
	KindStop      = "stop"
	KindThrottle  = "throttle"
	KindBeep      = "beep"
	KindInfo      = "info"
	KindTelemetry = "telemetry"
	KindReverse   = "reverse"
	KindLed       = "led"
)

// ParseCommand builds a command from its kind and arguments. value is the
// throttle, beep count or LED id, enabled is the flag of telemetry, reverse
// and LED commands. The result is validated with Encode.
func ParseCommand(kind string, value int, enabled bool) (Command, error) {
	var cmd Command
	switch strings.ToLower(kind) {
	case KindStop:
		cmd = MotorStop{}
	case KindThrottle:
		if value < 0 || value > ThrottleMax {
			return nil, &InvalidCommandError{Command: ClampThrottle(value), Reason: fmt.Sprintf("throttle %d out of range 0-1999", value)}
		}
		cmd = Throttle(value)
	case KindBeep:
		if value < BeepMin || value > BeepMax {
			return nil, &InvalidCommandError{Reason: fmt.Sprintf("beep count %d out of range 1-5", value)}
		}
		cmd = Beep{Count: uint8(value)}
	case KindInfo:
		cmd = EscInfo{}
	case KindTelemetry:
		cmd = ExtendedTelemetry{Enabled: enabled}
	case KindReverse:
		cmd = Reverse(enabled)
	case KindLed:
		if value < 0 || value > LedMax {
			return nil, &InvalidCommandError{Reason: fmt.Sprintf("led id %d out of range 0-3", value)}
		}
		cmd = Led{ID: uint8(value), Enabled: enabled}
	default:
		return nil, &InvalidCommandError{Reason: fmt.Sprintf("unknown kind %q", kind)}
	}
	if _, err := Encode(cmd); err != nil {
		return nil, err
	}
	return cmd, nil
}

// KindOf is the reverse of ParseCommand.
func KindOf(cmd Command) (kind string, value int, enabled bool) {
	switch c := cmd.(type) {
	case MotorStop:
		return KindStop, 0, false
	case Throttle:
		return KindThrottle, int(c), false
	case Beep:
		return KindBeep, int(c.Count), false
	case EscInfo:
		return KindInfo, 0, false
	case ExtendedTelemetry:
		return KindTelemetry, 0, c.Enabled
	case Reverse:
		return KindReverse, 0, bool(c)
	case Led:
		return KindLed, int(c.ID), c.Enabled
	}
	return "", 0, false
}
