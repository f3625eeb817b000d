// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rtp

import (
	"encoding/binary"
	"time"
)

const jan1970 = 0x83aa7e80

// SyncClock RTP 与绝对时间的同步时钟。
// 由 RTCP SR 包喂入，未收到 SR 前以本地时钟初值工作。
type SyncClock struct {
	// NTP 时间戳：SR 包发送时的绝对时间，
	// 此处转换成自 January 1, year 1 以来的纳秒数
	NTPTime int64
	// 与 NTP 时间戳对应的 RTP 时间戳，
	// 与媒体包中的 RTP 时间戳具有相同的单位和随机初始值
	RTPTime     uint32
	RTPTimeUnit float64 // 每个 RTP 时间单位的纳秒数

	initOn time.Time // 初始化时间
}

// Init 初始化同步时钟
func (sc *SyncClock) Init(clockRate int) {
	sc.initOn = time.Now()
	sc.NTPTime = sc.initOn.UnixNano()
	sc.RTPTimeUnit = float64(time.Second) / float64(clockRate)
}

// Decode 解析 RTCP SR 包，更新同步点。
func (sc *SyncClock) Decode(data []byte) (ok bool) {
	if len(data) >= 20 && data[1] == 200 {
		msw := binary.BigEndian.Uint32(data[8:])
		lsw := binary.BigEndian.Uint32(data[12:])
		sc.RTPTime = binary.BigEndian.Uint32(data[16:])
		sc.NTPTime = int64(msw-jan1970)*int64(time.Second) + (int64(lsw)*1000_000_000)>>32
		ok = true
	}
	return
}

// RelativeNtp rtp 时间戳相对同步点的纳秒偏移
func (sc *SyncClock) RelativeNtp(rtptime uint32) int64 {
	diff := int64(rtptime) - int64(sc.RTPTime)
	return int64(float64(diff) * sc.RTPTimeUnit)
}

// AbsoluteNtp rtp 时间戳对应的绝对纳秒时间
func (sc *SyncClock) AbsoluteNtp(rtptime uint32) int64 {
	diff := int64(rtptime) - int64(sc.RTPTime)
	return sc.NTPTime + int64(float64(diff)*sc.RTPTimeUnit)
}
