// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package bits

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBitsWriter_WriteUint(t *testing.T) {
	w := NewWriter(8)
	w.WriteUint8(0x5, 4)
	w.WriteUint16(0x1ff, 9)
	w.WriteUint32(0x3, 3)
	assert.Equal(t, 16, w.Offset())
	assert.Equal(t, []byte{0x5f, 0xfb}, w.Bytes())
}

func TestBitsWriter_ValueTooWide(t *testing.T) {
	w := NewWriter(8)
	assert.PanicsWithValue(t, ErrValueTooWide, func() {
		w.WriteUint8(0x1f, 4)
	})
}

func TestBitsWriter_Align(t *testing.T) {
	w := NewWriter(8)
	w.WriteBit(1)
	w.WriteBool(true)
	assert.False(t, w.Aligned())
	w.AlignToByte()
	assert.True(t, w.Aligned())
	assert.Equal(t, []byte{0xc0}, w.Bytes())
}

func TestBitsWriter_Ue(t *testing.T) {
	w := NewWriter(8)
	for v := uint32(0); v < 5; v++ {
		w.WriteUe(v)
	}
	w.AlignToByte()
	assert.Equal(t, []byte{0xa6, 0x42, 0x80}, w.Bytes())
}

// Writer 和 Reader 的互逆性
func TestBitsWriter_RoundTrip(t *testing.T) {
	w := NewWriter(64)
	w.WriteUint8(0x19, 8)
	w.WriteUe(0)
	w.WriteUe(107)
	w.WriteSe(-42)
	w.WriteSe(13)
	w.WriteUint64(0x1ffffffffff, 41)
	w.WriteInt16(-12345, 16)
	w.AlignToByte()
	w.WriteBytes([]byte{0xaa, 0xbb, 0xcc})

	r := NewReader(w.Bytes())
	assert.Equal(t, uint8(0x19), r.ReadUint8(8))
	assert.Equal(t, uint32(0), r.ReadUe())
	assert.Equal(t, uint32(107), r.ReadUe())
	assert.Equal(t, int32(-42), r.ReadSe())
	assert.Equal(t, int32(13), r.ReadSe())
	assert.Equal(t, uint64(0x1ffffffffff), r.ReadUint64(41))
	assert.Equal(t, int16(-12345), r.ReadInt16(16))
	r.AlignToByte()
	assert.Equal(t, []byte{0xaa, 0xbb, 0xcc}, r.BytesLeft())
}
