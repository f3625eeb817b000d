// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hevc

/**
 * Table 7-1 – NAL unit type codes and NAL unit type classes in
 * T-REC-H.265-201802
 */
const (
	NalVps       = 32
	NalSps       = 33
	NalPps       = 34
	NalAud       = 35
	NalSeiPrefix = 39
	NalSeiSuffix = 40
	NalUnspec62  = 62
	NalUnspec63  = 63

	// NalRpu 携带动态色彩元数据(RPU)的载体 NAL
	NalRpu = NalUnspec62

	// RTP 中扩展
	NalStapInRtp = 48
	NalFuInRtp   = 49
)

// NaluType 从 nal_unit_header 的首字节取 NAL 类型
func NaluType(b byte) byte {
	return (b >> 1) & 0x3f
}
