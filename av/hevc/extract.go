// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hevc

import "bytes"

// rpu NAL 的 nal_unit_header：type=62, layer=0, tid=1
var rpuNalHeader = []byte{0x7c, 0x01}

// SplitNalus 拆分 AnnexB 字节流中的 NAL 单元（不含起始码）。
func SplitNalus(annexb []byte) (nalus [][]byte) {
	for len(annexb) > 0 {
		annexb = RemoveNaluSeparator(annexb)
		next := bytes.Index(annexb, startCode3)
		if next < 0 {
			nalus = append(nalus, annexb)
			break
		}

		end := next
		if end > 0 && annexb[end-1] == 0 { // 4 字节起始码
			end--
		}
		if end > 0 {
			nalus = append(nalus, annexb[:end])
		}
		annexb = annexb[next:]
	}
	return
}

// ExtractRPUs 从 AnnexB 字节流中提取全部 RPU 载荷。
// 返回的载荷已去除 nal_unit_header 和防竞争字节，可直接交给 rpu.Decode。
func ExtractRPUs(annexb []byte) (payloads [][]byte) {
	for _, nalu := range SplitNalus(annexb) {
		if len(nalu) < 3 || NaluType(nalu[0]) != NalRpu {
			continue
		}
		payloads = append(payloads, RemoveEmulationBytes(nalu[2:]))
	}
	return
}

// WrapRPU 将编码后的 RPU 载荷封装为 AnnexB NAL 单元：
// 4 字节起始码 + nal_unit_header + 防竞争转义后的载荷。
func WrapRPU(payload []byte) []byte {
	escaped := InsertEmulationBytes(payload)
	nalu := make([]byte, 0, len(escaped)+6)
	nalu = append(nalu, startCode4...)
	nalu = append(nalu, rpuNalHeader...)
	nalu = append(nalu, escaped...)
	return nalu
}
