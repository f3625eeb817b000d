// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rpu

// CRC-32/MPEG-2：多项式 0x04C11DB7，初值 0xFFFFFFFF，不反转、无终值异或。
// 标准库 hash/crc32 只提供反转位序的变体，这里维护自己的查找表。

var crc32Table [256]uint32

func init() {
	for i := 0; i < 256; i++ {
		c := uint32(i) << 24
		for j := 0; j < 8; j++ {
			if c&0x80000000 != 0 {
				c = c<<1 ^ 0x04c11db7
			} else {
				c <<= 1
			}
		}
		crc32Table[i] = c
	}
}

// checksum 计算载荷覆盖区间的 CRC-32/MPEG-2
func checksum(data []byte) uint32 {
	crc := uint32(0xffffffff)
	for _, b := range data {
		crc = crc<<8 ^ crc32Table[byte(crc>>24)^b]
	}
	return crc
}
