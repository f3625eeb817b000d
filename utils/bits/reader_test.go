// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package bits

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var bitsDatas = [][]byte{
	{0x46, 0x4c, 0x56, 0x01, 0x05, 0x00, 0x00, 0x00, 0x09},
	{
		0x47, 0x40, 0x00, 0x10, 0x00,
		0x00, 0xb0, 0x0d, 0x00, 0x01, 0xc1, 0x00, 0x00,
		0x00, 0x01, 0xf0, 0x01,
		0x2e, 0x70, 0x19, 0x05,
	},
}

func TestBitsReader_ReadBit(t *testing.T) {
	r := NewReader(bitsDatas[0])
	assert.Equal(t, uint8(0), r.ReadBit())
	assert.Equal(t, uint8(1), r.ReadBit())

	r.Skip(3)
	assert.Equal(t, uint8(1), r.ReadBit())
	assert.Equal(t, uint8(1), r.ReadBit())

	r.Skip(5)
	assert.Equal(t, uint8(1), r.ReadBit())
	assert.Equal(t, uint8(1), r.ReadBit())
	assert.Equal(t, uint8(0), r.ReadBit())
	assert.Equal(t, uint8(0x2b), r.ReadUint8(8))
}

func TestBitsReader_ReadUint(t *testing.T) {
	r := NewReader(bitsDatas[1])
	assert.Equal(t, uint32(0x47400010), r.ReadUint32(32))

	r.Skip(4)
	assert.Equal(t, uint32(0x000b00d0), r.ReadUint32(32))

	r.Skip(8)
	assert.Equal(t, uint32(0x1c1), r.ReadUint32(12))

	r = NewReader(bitsDatas[1])
	assert.Equal(t, uint64(0x474000100), r.ReadUint64(36))
	assert.Equal(t, uint64(0x000b00d0), r.ReadUint64(32))
}

func TestBitsReader_ReadUe(t *testing.T) {
	// 1 010 011 00100 00101
	r := NewReader([]byte{0xa6, 0x42, 0x80})
	assert.Equal(t, uint32(0), r.ReadUe())
	assert.Equal(t, uint32(1), r.ReadUe())
	assert.Equal(t, uint32(2), r.ReadUe())
	assert.Equal(t, uint32(3), r.ReadUe())
	assert.Equal(t, uint32(4), r.ReadUe())
}

func TestBitsReader_ReadSe(t *testing.T) {
	// ue: 1 010 011 00100 -> se: 0 1 -1 2
	r := NewReader([]byte{0xa6, 0x40})
	assert.Equal(t, int32(0), r.ReadSe())
	assert.Equal(t, int32(1), r.ReadSe())
	assert.Equal(t, int32(-1), r.ReadSe())
	assert.Equal(t, int32(2), r.ReadSe())
}

func TestBitsReader_Align(t *testing.T) {
	r := NewReader(bitsDatas[0])
	assert.True(t, r.Aligned())
	r.Skip(3)
	assert.False(t, r.Aligned())
	r.AlignToByte()
	assert.True(t, r.Aligned())
	assert.Equal(t, 8, r.Offset())
	assert.Equal(t, 8*8, r.BitsLeft())
}

func TestBitsReader_Truncated(t *testing.T) {
	r := NewReader([]byte{0xff})
	r.Skip(4)
	assert.PanicsWithValue(t, ErrTruncated, func() {
		r.ReadUint8(5)
	})
}

func BenchmarkReadBit(b *testing.B) {
	r := NewReader(bitsDatas[1])
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.offset = 2
		ret := r.ReadBit()
		_ = ret
	}
}

func BenchmarkReadUint32(b *testing.B) {
	r := NewReader(bitsDatas[1])
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.offset = 2
		ret := r.ReadUint32(29)
		_ = ret
	}
}
