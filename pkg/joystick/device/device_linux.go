//go:build linux
// +build linux

package device

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"syscall"
	"unsafe"
)

// Linux joystick API, see linux/joystick.h.
const (
	jsIOCGAXES    uint = 0x80016a11
	jsIOCGBUTTONS uint = 0x80016a12
	jsIOCGNAME    uint = 0x80ff6a13

	jsEventButton uint8 = 0x01
	jsEventAxis   uint8 = 0x02
	jsEventInit   uint8 = 0x80

	jsEventSize = 8
)

// DevicePath is the path pattern of joystick devices.
var DevicePath = "/dev/input/js%d"

type jsDevice struct {
	file    *os.File
	index   int
	name    string
	axes    uint8
	buttons uint8
	buf     [jsEventSize]byte
}

// Open opens the joystick with the index.
func Open(index int) (Device, error) {
	f, err := os.OpenFile(fmt.Sprintf(DevicePath, index), os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	d := &jsDevice{file: f, index: index}
	if err := d.query(); err != nil {
		f.Close()
		return nil, fmt.Errorf("joystick %d: %w", index, err)
	}
	return d, nil
}

// DetectAndOpen opens the first present joystick starting from startIndex.
// It returns nil without an error if no joystick is present.
func DetectAndOpen(startIndex int) (Device, error) {
	for index := startIndex; index < 256; index++ {
		d, err := Open(index)
		if os.IsNotExist(err) {
			continue
		}
		return d, err
	}
	return nil, nil
}

func (d *jsDevice) query() error {
	if errno := d.ioctl(jsIOCGAXES, unsafe.Pointer(&d.axes)); errno != 0 {
		return errno
	}
	if errno := d.ioctl(jsIOCGBUTTONS, unsafe.Pointer(&d.buttons)); errno != 0 {
		return errno
	}
	var name [256]byte
	if errno := d.ioctl(jsIOCGNAME, unsafe.Pointer(&name)); errno != 0 {
		return errno
	}
	if pos := bytes.IndexByte(name[:], 0); pos >= 0 {
		d.name = string(name[:pos])
	} else {
		d.name = string(name[:])
	}
	return nil
}

func (d *jsDevice) ioctl(req uint, ptr unsafe.Pointer) syscall.Errno {
	_, _, errno := syscall.Syscall(syscall.SYS_IOCTL, d.file.Fd(), uintptr(req), uintptr(ptr))
	return errno
}

func (d *jsDevice) Close() error     { return d.file.Close() }
func (d *jsDevice) Index() int       { return d.index }
func (d *jsDevice) Name() string     { return d.name }
func (d *jsDevice) AxisCount() int   { return int(d.axes) }
func (d *jsDevice) ButtonCount() int { return int(d.buttons) }

// ReadEvent implements Device. Events other than axis and button
// are returned as plain Event.
func (d *jsDevice) ReadEvent() (Event, error) {
	if _, err := io.ReadFull(d.file, d.buf[:]); err != nil {
		return nil, err
	}
	ev := decodeEvent(d.buf[:])
	switch ev.kind &^ jsEventInit {
	case jsEventButton:
		return buttonEvent{ev}, nil
	case jsEventAxis:
		return axisEvent{ev}, nil
	}
	return ev, nil
}

// struct js_event { __u32 time; __s16 value; __u8 type; __u8 number; }
type rawEvent struct {
	value  int16
	kind   uint8
	number uint8
}

func decodeEvent(b []byte) rawEvent {
	return rawEvent{
		value:  int16(binary.LittleEndian.Uint16(b[4:6])),
		kind:   b[6],
		number: b[7],
	}
}

func (e rawEvent) IsInit() bool { return e.kind&jsEventInit != 0 }
func (e rawEvent) Index() int   { return int(e.number) }

type axisEvent struct{ rawEvent }

func (e axisEvent) Value() int { return int(e.value) }

type buttonEvent struct{ rawEvent }

func (e buttonEvent) Pressed() bool { return e.value != 0 }
