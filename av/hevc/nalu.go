// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hevc

import "bytes"

var (
	startCode4 = []byte{0x0, 0x0, 0x0, 0x1}
	startCode3 = []byte{0x0, 0x0, 0x1}
)

// RemoveNaluSeparator 移除 NALU 分隔符 0x00000001 或 0x000001
func RemoveNaluSeparator(nalu []byte) []byte {
	if bytes.HasPrefix(nalu, startCode4) {
		return nalu[4:]
	}
	if bytes.HasPrefix(nalu, startCode3) {
		return nalu[3:]
	}
	return nalu
}

// RemoveEmulationBytes a general routine for making a copy of a NAL unit,
// removing 'emulation' bytes from the copy
// copy from live555
func RemoveEmulationBytes(from []byte) []byte {
	from = RemoveNaluSeparator(from)
	to := make([]byte, len(from))
	toMaxSize := len(to)
	fromSize := len(from)
	toSize := 0
	i := 0
	for i < fromSize && toSize+1 < toMaxSize {
		if i+2 < fromSize && from[i] == 0 && from[i+1] == 0 && from[i+2] == 3 {
			to[toSize] = 0
			to[toSize+1] = 0
			toSize += 2
			i += 3
		} else {
			to[toSize] = from[i]
			toSize++
			i++
		}
	}

	// 如果剩余最后一个字节，拷贝它
	if i < fromSize && toSize < toMaxSize {
		to[toSize] = from[i]
		toSize++
		i++
	}

	return to[:toSize]
}

// InsertEmulationBytes RemoveEmulationBytes 的逆变换：
// 在连续两个零字节后跟 0x00..0x03 的位置插入防竞争字节 0x03。
func InsertEmulationBytes(from []byte) []byte {
	to := make([]byte, 0, len(from)+len(from)/16)
	zeros := 0
	for _, b := range from {
		if zeros == 2 && b <= 0x03 {
			to = append(to, 0x03)
			zeros = 0
		}
		if b == 0 {
			zeros++
		} else {
			zeros = 0
		}
		to = append(to, b)
	}
	return to
}
