// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChecksum(t *testing.T) {
	// CRC-32/MPEG-2 的标准校验值
	assert.Equal(t, uint32(0x0376e6e7), checksum([]byte("123456789")))
	assert.Equal(t, uint32(0xffffffff), checksum(nil))
}

func TestChecksumSingleBit(t *testing.T) {
	data := []byte{0x19, 0x02, 0x00, 0xaa, 0xbb}
	base := checksum(data)
	for i := range data {
		for bit := uint(0); bit < 8; bit++ {
			data[i] ^= 1 << bit
			assert.NotEqual(t, base, checksum(data))
			data[i] ^= 1 << bit
		}
	}
}
