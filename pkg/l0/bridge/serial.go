package bridge

import (
	"fmt"
	"io"

	"go.bug.st/serial"
)

// DefaultBaudRate is the default baud rate of the serial port.
const DefaultBaudRate = 921600

// OpenSerial opens the coprocessor on a serial port.
func OpenSerial(portName string, baudRate int) (*Port, error) {
	if baudRate <= 0 {
		baudRate = DefaultBaudRate
	}
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	sp, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", portName, err)
	}
	p := NewPort(sp)
	if err := sp.SetReadTimeout(p.Timeout); err != nil {
		sp.Close()
		return nil, fmt.Errorf("set read timeout %s: %w", portName, err)
	}
	p.ReadTimeout = true
	return p, nil
}

// Close implements io.Closer.
func (p *Port) Close() error {
	if closer, ok := p.ReadWriter.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
