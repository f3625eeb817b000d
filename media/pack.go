// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package media

import (
	"github.com/cnotch/rpukit/av/rpu"
)

// Pack 流中流动的一个元数据包：
// 编码载荷和解码结果成对出现，消费者按需取用。
type Pack struct {
	Payload []byte   // 编码后的 RPU 载荷
	Pts     int64    // 相对流起点的纳秒偏移
	Seq     uint64   // 流内序号
	RPU     *rpu.RPU // 解码结果
}

// Size 包内数据的长度
func (p *Pack) Size() int {
	return len(p.Payload)
}
