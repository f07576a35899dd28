package bridge

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPacketSeq(t *testing.T) {
	require.Equal(t, PacketSeq(2), PacketSeq(1).Next())
	require.Equal(t, PacketSeq(1), PacketSeq(0xef).Next())
	require.Equal(t, PacketSeq(1), PacketSeq(0xff).Next())
	require.False(t, PacketSeq(0).IsValid())
	require.False(t, PacketSeq(0xf0).IsValid())
	require.True(t, NewPacketSeq().IsValid())
}

func TestPacketBytes(t *testing.T) {
	testCases := []struct {
		name   string
		pkt    Packet
		expect []byte
	}{
		{"empty", Packet{Seq: 1, Code: CodeDirection}, []byte{0xd5, 0x01, 0x01, 0x00, 0x00}},
		{"data", Packet{Seq: 2, Code: CodeEmit, Data: []byte{0x10, 0x20}}, []byte{0xd5, 0x02, 0x02, 0x02, 0x10, 0x20, 0x32}},
		{"reply", Packet{Seq: 3, Code: CodeCapture | CodeReply}, []byte{0xd5, 0x03, 0x83, 0x00, 0x80}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expect, tc.pkt.Bytes())
			var buf bytes.Buffer
			n, err := tc.pkt.WriteTo(&buf)
			require.NoError(t, err)
			require.Equal(t, int64(len(tc.expect)), n)
			require.Equal(t, tc.expect, buf.Bytes())
		})
	}
}

func TestPacketReplies(t *testing.T) {
	req := &Packet{Seq: 9, Code: CodeCapture}
	reply := req.Reply([]byte{1})
	require.True(t, reply.IsReply())
	require.Equal(t, PacketSeq(9), reply.Seq)
	require.Equal(t, CodeCapture|CodeReply, reply.Code)
	errReply := req.Error(ErrUnknownChannel)
	require.True(t, errReply.IsReply())
	require.Equal(t, CodeError, errReply.Code)
	require.Equal(t, ErrUnknownChannel.Error(), string(errReply.Data))
}
