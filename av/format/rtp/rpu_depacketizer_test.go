// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rtp

import (
	"testing"

	"github.com/cnotch/rpukit/av/hevc"
	"github.com/pion/rtp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type unitSink struct {
	units []*Unit
}

func (s *unitSink) WriteRPUUnit(unit *Unit) error {
	s.units = append(s.units, unit)
	return nil
}

func videoPacket(t *testing.T, seq uint16, payload []byte) *Packet {
	rp := &rtp.Packet{
		Header: rtp.Header{
			Version:        2,
			PayloadType:    96,
			SequenceNumber: seq,
			Timestamp:      90000,
			SSRC:           0x1234,
		},
		Payload: payload,
	}
	data, err := rp.Marshal()
	require.NoError(t, err)

	p := &Packet{Channel: ChannelVideo, Data: data}
	require.NoError(t, p.Header.Unmarshal(data))
	return p
}

func rpuNalu(payload []byte) []byte {
	nalu := []byte{0x7c, 0x01} // type=62, layer=0, tid=1
	return append(nalu, hevc.InsertEmulationBytes(payload)...)
}

func TestDepacketizeSingleNalu(t *testing.T) {
	sink := &unitSink{}
	dp := NewRPUDepacketizer(90000, sink)

	payload := []byte{0x19, 0x08, 0x00, 0x00, 0x01, 0xab}
	require.NoError(t, dp.Depacketize(videoPacket(t, 1, rpuNalu(payload))))

	require.Len(t, sink.units, 1)
	assert.Equal(t, payload, sink.units[0].Payload)
}

func TestDepacketizeIgnoresOtherNalus(t *testing.T) {
	sink := &unitSink{}
	dp := NewRPUDepacketizer(90000, sink)

	sei := []byte{hevc.NalSeiPrefix << 1, 0x01, 0x05, 0xff}
	require.NoError(t, dp.Depacketize(videoPacket(t, 1, sei)))
	assert.Empty(t, sink.units)
}

func TestDepacketizeStap(t *testing.T) {
	sink := &unitSink{}
	dp := NewRPUDepacketizer(90000, sink)

	payload := []byte{0x19, 0x08, 0xaa}
	nalu := rpuNalu(payload)
	sei := []byte{hevc.NalSeiPrefix << 1, 0x01, 0x05}

	ap := []byte{hevc.NalStapInRtp << 1, 0x01}
	ap = append(ap, byte(len(sei)>>8), byte(len(sei)))
	ap = append(ap, sei...)
	ap = append(ap, byte(len(nalu)>>8), byte(len(nalu)))
	ap = append(ap, nalu...)

	require.NoError(t, dp.Depacketize(videoPacket(t, 1, ap)))
	require.Len(t, sink.units, 1)
	assert.Equal(t, payload, sink.units[0].Payload)
}

func TestDepacketizeFu(t *testing.T) {
	sink := &unitSink{}
	dp := NewRPUDepacketizer(90000, sink)

	payload := []byte{0x19, 0x08, 0x00, 0x00, 0x02, 0x7f, 0x80, 0x81}
	nalu := rpuNalu(payload)
	body := nalu[2:] // FU 载荷不含 nal_unit_header

	mid := len(body) / 2
	parts := [][]byte{body[:mid], body[mid:]}

	for i, part := range parts {
		fuHeader := hevc.NalRpu
		if i == 0 {
			fuHeader |= 0x80 // S
		}
		if i == len(parts)-1 {
			fuHeader |= 0x40 // E
		}
		fu := []byte{hevc.NalFuInRtp << 1, 0x01, byte(fuHeader)}
		fu = append(fu, part...)
		require.NoError(t, dp.Depacketize(videoPacket(t, uint16(10+i), fu)))
	}

	require.Len(t, sink.units, 1)
	assert.Equal(t, payload, sink.units[0].Payload)
}

func TestDepacketizeFuPacketLoss(t *testing.T) {
	sink := &unitSink{}
	dp := NewRPUDepacketizer(90000, sink)

	body := rpuNalu([]byte{0x19, 0x08, 0xaa, 0xbb})[2:]
	mid := len(body) / 2

	start := []byte{hevc.NalFuInRtp << 1, 0x01, hevc.NalRpu | 0x80}
	start = append(start, body[:mid]...)
	require.NoError(t, dp.Depacketize(videoPacket(t, 10, start)))

	// 序号跳变，尾片段应被丢弃
	end := []byte{hevc.NalFuInRtp << 1, 0x01, hevc.NalRpu | 0x40}
	end = append(end, body[mid:]...)
	require.NoError(t, dp.Depacketize(videoPacket(t, 12, end)))

	assert.Empty(t, sink.units)
}
