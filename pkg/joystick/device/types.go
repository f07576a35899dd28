package device

import (
	"errors"
	"io"
)

// ErrUnsupported is returned by Open on platforms without joystick support.
var ErrUnsupported = errors.New("joystick not supported on this platform")

// AxisMax is the magnitude of a fully deflected axis.
const AxisMax = 32767

// Event is read from a device.
type Event interface {
	// IsInit is set on the synthetic events reporting the initial state
	// right after the device is opened.
	IsInit() bool
	// Index is the axis or button number.
	Index() int
}

// AxisEvent reports an axis position from -AxisMax to AxisMax.
type AxisEvent interface {
	Event
	Value() int
}

// ButtonEvent reports a button press or release.
type ButtonEvent interface {
	Event
	Pressed() bool
}

// Device is an opened joystick.
type Device interface {
	io.Closer
	Index() int
	Name() string
	AxisCount() int
	ButtonCount() int
	// ReadEvent blocks until the next event.
	ReadEvent() (Event, error)
}
