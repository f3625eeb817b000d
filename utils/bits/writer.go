// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package bits

// Writer 顺序写入位流；缓冲区随写入单调增长。
type Writer struct {
	buf    []byte
	offset int // bit base
}

// NewWriter retruns a new Writer.
func NewWriter(sizeHint int) *Writer {
	return &Writer{
		buf: make([]byte, 0, sizeHint),
	}
}

// WriteBit write a bit.
func (w *Writer) WriteBit(bit uint8) {
	w.grow(1)
	if bit&1 != 0 {
		w.buf[w.offset>>3] |= 1 << (7 - uint(w.offset&0x7))
	}
	w.offset++
}

// WriteBool write one bit bool.
func (w *Writer) WriteBool(b bool) {
	if b {
		w.WriteBit(1)
	} else {
		w.WriteBit(0)
	}
}

// WriteUint64 write the low n bits of v.
func (w *Writer) WriteUint64(v uint64, n int) {
	if n <= 0 {
		return
	}
	if n < 64 && v>>uint(n) != 0 {
		panic(ErrValueTooWide)
	}

	w.grow(n)
	for n > 0 {
		validBits := 8 - w.offset&0x7
		if validBits > n {
			validBits = n
		}
		chunk := byte(v >> uint(n-validBits) & uint64(bitsMask[validBits]))
		w.buf[w.offset>>3] |= chunk << (8 - uint(w.offset&0x7) - uint(validBits))
		w.offset += validBits
		n -= validBits
	}
}

// WriteUint8 write the low n bits of v.
func (w *Writer) WriteUint8(v uint8, n int) { w.WriteUint64(uint64(v), n) }

// WriteUint16 write the low n bits of v.
func (w *Writer) WriteUint16(v uint16, n int) { w.WriteUint64(uint64(v), n) }

// WriteUint32 write the low n bits of v.
func (w *Writer) WriteUint32(v uint32, n int) { w.WriteUint64(uint64(v), n) }

// WriteInt16 write the low n bits of v (two's complement).
func (w *Writer) WriteInt16(v int16, n int) {
	w.WriteUint64(uint64(uint16(v))&(1<<uint(n)-1), n)
}

// WriteUe write an unsigned exp-golomb code.
func (w *Writer) WriteUe(v uint32) {
	code := uint64(v) + 1
	k := 1
	for code>>uint(k) != 0 {
		k++
	}
	w.WriteUint64(0, k-1)
	w.WriteUint64(code, k)
}

// WriteSe write a signed exp-golomb code.
func (w *Writer) WriteSe(v int32) {
	if v > 0 {
		w.WriteUe(uint32(v)*2 - 1)
	} else {
		w.WriteUe(uint32(-v) * 2)
	}
}

// WriteBytes 在字节边界上整体写入 p。
func (w *Writer) WriteBytes(p []byte) {
	for _, b := range p {
		w.WriteUint8(b, 8)
	}
}

// Aligned reports whether the position is on a byte boundary.
func (w *Writer) Aligned() bool { return w.offset&0x7 == 0 }

// AlignToByte 以零位填充到下一个字节边界。
func (w *Writer) AlignToByte() {
	for !w.Aligned() {
		w.WriteBit(0)
	}
}

// Offset returns the offset of bits.
func (w *Writer) Offset() int {
	return w.offset
}

// Bytes 返回已写入的数据；要求处于字节边界。
func (w *Writer) Bytes() []byte {
	return w.buf[:(w.offset+7)>>3]
}

// 确保缓冲区可容纳 n 个附加位
func (w *Writer) grow(n int) {
	need := (w.offset + n + 7) >> 3
	for len(w.buf) < need {
		w.buf = append(w.buf, 0)
	}
}
