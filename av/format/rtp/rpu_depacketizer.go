// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rtp

import (
	"github.com/cnotch/rpukit/av/hevc"
)

// Unit 从 RTP 流中还原出的一个完整 RPU 载荷。
// Payload 已去除 nal_unit_header 和防竞争字节，可直接交给 rpu.Decode。
type Unit struct {
	Payload []byte
	Pts     int64 // 该帧相对流起点的纳秒偏移
}

// UnitWriter 包装 WriteRPUUnit 方法的接口
type UnitWriter interface {
	WriteRPUUnit(unit *Unit) error
}

// Depacketizer RTP 解包器
type Depacketizer interface {
	Control(p *Packet) error
	Depacketize(p *Packet) error
}

type rpuDepacketizer struct {
	fragments []*Packet // 分片包
	w         UnitWriter
	syncClock SyncClock
}

// NewRPUDepacketizer 实例化 RPU 提取器。
// 从 HEVC 负载的 RTP 流中还原 NAL 单元，只保留 RPU(type 62)。
func NewRPUDepacketizer(clockRate int, w UnitWriter) Depacketizer {
	dp := &rpuDepacketizer{
		fragments: make([]*Packet, 0, 16),
		w:         w,
	}
	dp.syncClock.Init(clockRate)
	return dp
}

func (dp *rpuDepacketizer) Control(p *Packet) error {
	dp.syncClock.Decode(p.Data)
	return nil
}

/*
 * decode the HEVC payload header according to section 4 of draft version 6:
 *
 *    0                   1
 *    0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5
 *   +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
 *   |F|   Type    |  LayerId  | TID |
 *   +-------------+-----------------+
 *
 *      Forbidden zero (F): 1 bit
 *      NAL unit type (Type): 6 bits
 *      NUH layer ID (LayerId): 6 bits
 *      NUH temporal ID plus 1 (TID): 3 bits
 */
func (dp *rpuDepacketizer) Depacketize(packet *Packet) (err error) {
	payload := packet.Payload()
	if len(payload) < 3 {
		return
	}

	naluType := hevc.NaluType(payload[0])

	switch naluType {
	case hevc.NalStapInRtp: // 在RTP中的聚合（AP）
		return dp.depacketizeStap(packet)
	case hevc.NalFuInRtp: // 在RTP中的扩展,分片(FU)
		return dp.depacketizeFu(packet)
	default:
		return dp.writeNalu(packet.Timestamp, payload)
	}
}

func (dp *rpuDepacketizer) depacketizeStap(packet *Packet) (err error) {
	payload := packet.Payload()
	off := 2 // 跳过 STAP NAL HDR

	// 循环读取被封装的NAL
	for off+2 <= len(payload) {
		// nal长度
		nalSize := ((uint16(payload[off])) << 8) | uint16(payload[off+1])
		if nalSize < 1 {
			return
		}

		off += 2
		if off+int(nalSize) > len(payload) {
			return
		}
		if err = dp.writeNalu(packet.Timestamp, payload[off:off+int(nalSize)]); err != nil {
			return
		}
		off += int(nalSize)
	}
	return
}

func (dp *rpuDepacketizer) depacketizeFu(packet *Packet) (err error) {
	payload := packet.Payload()
	rawDataOffset := 3 // 原始数据的偏移 = payload header + FU header

	//  0 1 2 3 4 5 6 7
	// +-+-+-+-+-+-+-+-+
	// |S|E|  FuType   |
	// +---------------+
	fuHeader := payload[2]

	if (fuHeader>>7)&1 == 1 { // 第一个分片包
		dp.fragments = dp.fragments[:0]
		// 缓存片段
		dp.fragments = append(dp.fragments, packet)
		return
	}

	if len(dp.fragments) == 0 ||
		dp.fragments[len(dp.fragments)-1].SequenceNumber != packet.SequenceNumber-1 {
		// Packet loss ?
		dp.fragments = dp.fragments[:0]
		return
	}

	// 缓存其他片段
	dp.fragments = append(dp.fragments, packet)

	if (fuHeader>>6)&1 == 1 { // 最后一个片段
		nalType := fuHeader & 0x3f
		if nalType != hevc.NalRpu {
			// 非 RPU 帧无需重组
			dp.fragments = dp.fragments[:0]
			return
		}

		naluLen := 2 // nal_unit_header
		for _, fragment := range dp.fragments {
			naluLen += len(fragment.Payload()) - rawDataOffset
		}

		nalu := make([]byte, naluLen)
		nalu[0] = (payload[0] & 0x81) | nalType<<1
		nalu[1] = payload[1]
		offset := 2
		for _, fragment := range dp.fragments {
			payload := fragment.Payload()[rawDataOffset:]
			copy(nalu[offset:], payload)
			offset += len(payload)
		}
		// 清空分片缓存
		dp.fragments = dp.fragments[:0]

		err = dp.writeNalu(packet.Timestamp, nalu)
	}

	return
}

// writeNalu 过滤出 RPU NAL，去转义后交给下游。
func (dp *rpuDepacketizer) writeNalu(rtpTimestamp uint32, nalu []byte) error {
	if len(nalu) < 3 || hevc.NaluType(nalu[0]) != hevc.NalRpu {
		return nil
	}

	unit := &Unit{
		Payload: hevc.RemoveEmulationBytes(nalu[2:]),
		Pts:     dp.syncClock.RelativeNtp(rtpTimestamp),
	}
	return dp.w.WriteRPUUnit(unit)
}
