package bridge

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/dshot.go/pkg/l0/dshot"
	"github.com/robotalks/dshot.go/pkg/l0/signal"
)

func TestDirectionRequest(t *testing.T) {
	req := DirectionRequest{Channel: 3, Direction: signal.Input, Idle: signal.High}
	data := req.Encode()
	require.Equal(t, []byte{3, 1, 1}, data)
	var decoded DirectionRequest
	require.NoError(t, decoded.Decode(data))
	require.Equal(t, req, decoded)
	require.Equal(t, ErrMalformed, decoded.Decode([]byte{3, 2, 0}))
	require.Equal(t, ErrMalformed, decoded.Decode([]byte{3}))
}

func TestEmitRequest(t *testing.T) {
	w := signal.Encode(dshot.Build(dshot.CodeThrottleBase, true, true), signal.High)
	req := EmitRequest{Channel: 1, Waveform: w}
	data, err := req.Encode()
	require.NoError(t, err)
	require.Len(t, data, 1+2*len(w))
	// the MSB of 0x0618 is 0: active low for 15 ticks.
	require.Equal(t, []byte{1, 0x00, 15}, data[:3])
	var decoded EmitRequest
	require.NoError(t, decoded.Decode(data))
	require.Equal(t, req, decoded)

	require.Equal(t, ErrMalformed, decoded.Decode(data[:2]))
	_, err = (&EmitRequest{Waveform: make(signal.Waveform, MaxPulses+1)}).Encode()
	require.Equal(t, ErrMalformed, err)
	_, err = (&EmitRequest{Waveform: signal.Waveform{{Ticks: 0x8000}}}).Encode()
	require.Equal(t, ErrMalformed, err)
}

func TestCaptureRequest(t *testing.T) {
	req := CaptureRequest{Channel: 2, Spec: signal.DefaultCaptureSpec()}
	data, err := req.Encode()
	require.NoError(t, err)
	require.Equal(t, []byte{2, 0x01, 0x40, 0x01, 0x68, 0x00, 0x20, 20, 4, 8}, data)
	var decoded CaptureRequest
	require.NoError(t, decoded.Decode(data))
	require.Equal(t, req, decoded)

	req.Spec.Groups = 256
	_, err = req.Encode()
	require.Equal(t, ErrMalformed, err)
}
