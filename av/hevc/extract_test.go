// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hevc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmulationBytes(t *testing.T) {
	cases := [][]byte{
		{0x19, 0x00, 0x00, 0x01, 0x42},
		{0x00, 0x00, 0x00, 0x00, 0x00},
		{0x19, 0x00, 0x00, 0x03, 0x00, 0x00, 0x02},
		{0xff, 0xfe},
	}

	for _, src := range cases {
		escaped := InsertEmulationBytes(src)
		assert.Equal(t, src, RemoveEmulationBytes(escaped))
	}

	// 00 00 01 必须被转义，否则会被误认为起始码
	escaped := InsertEmulationBytes([]byte{0x00, 0x00, 0x01})
	assert.Equal(t, []byte{0x00, 0x00, 0x03, 0x01}, escaped)
}

func TestSplitNalus(t *testing.T) {
	stream := []byte{
		0x0, 0x0, 0x0, 0x1, 0x40, 0x01, 0xaa, // vps
		0x0, 0x0, 0x1, 0x42, 0x01, 0xbb, // sps, 3 字节起始码
		0x0, 0x0, 0x0, 0x1, 0x7c, 0x01, 0x19, 0xcc, // rpu
	}

	nalus := SplitNalus(stream)
	assert.Len(t, nalus, 3)
	assert.Equal(t, byte(NalVps), NaluType(nalus[0][0]))
	assert.Equal(t, byte(NalSps), NaluType(nalus[1][0]))
	assert.Equal(t, byte(NalRpu), NaluType(nalus[2][0]))
}

func TestExtractRPUs(t *testing.T) {
	payload := []byte{0x19, 0x00, 0x00, 0x01, 0x42, 0xcd}
	stream := append([]byte{0x0, 0x0, 0x0, 0x1, 0x40, 0x01, 0xaa}, WrapRPU(payload)...)

	payloads := ExtractRPUs(stream)
	assert.Len(t, payloads, 1)
	assert.Equal(t, payload, payloads[0])
}
