// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rpu

import "github.com/cnotch/rpukit/utils/bits"

// 格式常量
const (
	// NumComponents 颜色分量个数
	NumComponents = 3
	// MaxPivots 单分量枢轴点数上限
	MaxPivots = 9

	mappingPolynomial = 0 // mapping_idc
	mappingMMR        = 1
)

// Coef 定点系数：整数部分(有符号指数哥伦布) +
// 以 coefficient_log2_denom 为位宽的小数部分。
// 实数值的还原策略留给消费者，核心不做浮点取舍。
type Coef struct {
	Int  int32  `json:"int"`
	Frac uint32 `json:"frac"`
}

// UCoef 整数部分无符号的定点系数
type UCoef struct {
	Int  uint32 `json:"int"`
	Frac uint32 `json:"frac"`
}

// SegmentKind 曲线段类别
type SegmentKind uint8

// 曲线段类别常量
const (
	SegmentPoly SegmentKind = iota // 多项式
	SegmentMMR                     // 多元多项式回归矩阵
)

// PolySegment 多项式曲线段
type PolySegment struct {
	OrderMinus1 uint32 // 系数个数 = OrderMinus1+2
	Coefs       []Coef
}

// MMRSegment 矩阵(MMR)曲线段
type MMRSegment struct {
	OrderMinus1 uint8 // 0..2
	Constant    Coef
	Coefs       [][7]Coef // 每阶 7 个系数
}

// Segment 一个枢轴区间上的曲线段；Poly 和 MMR 二选一。
type Segment struct {
	Kind SegmentKind  `json:"kind"`
	Poly *PolySegment `json:"poly,omitempty"`
	MMR  *MMRSegment  `json:"mmr,omitempty"`
}

// Curve 单个颜色分量的分段映射曲线。
// Pivots 为空表示直通(identity)曲线，编码时按字面保留。
type Curve struct {
	Pivots   []uint16  `json:"pivots"`
	Segments []Segment `json:"segments,omitempty"`
}

// Identity 是否直通曲线
func (c *Curve) Identity() bool { return len(c.Segments) == 0 }

// Mapping 基础层到目标映射的 VDR 数据
type Mapping struct {
	RPUID           uint32
	ColorSpace      uint32
	ChromaFormatIdc uint32

	Curves [NumComponents]Curve

	NumXPartitionsMinus1 uint32
	NumYPartitionsMinus1 uint32
}

func (m *Mapping) decode(d *decoder, h *Header) {
	r := d.r

	m.RPUID = r.ReadUe()
	m.ColorSpace = r.ReadUe()
	m.ChromaFormatIdc = r.ReadUe()

	for cmp := 0; cmp < NumComponents; cmp++ {
		m.Curves[cmp].decode(d, h, cmp)
	}
}

func (m *Mapping) decodePartitions(d *decoder) {
	m.NumXPartitionsMinus1 = d.r.ReadUe()
	m.NumYPartitionsMinus1 = d.r.ReadUe()
}

func (m *Mapping) encode(w *bits.Writer, h *Header) {
	w.WriteUe(m.RPUID)
	w.WriteUe(m.ColorSpace)
	w.WriteUe(m.ChromaFormatIdc)

	for cmp := 0; cmp < NumComponents; cmp++ {
		m.Curves[cmp].encode(w, h)
	}
}

func (m *Mapping) encodePartitions(w *bits.Writer) {
	w.WriteUe(m.NumXPartitionsMinus1)
	w.WriteUe(m.NumYPartitionsMinus1)
}

func (c *Curve) decode(d *decoder, h *Header, cmp int) {
	r := d.r

	numPivots := r.ReadUe()
	if numPivots > MaxPivots {
		d.failf(ValueOutOfRange, "component %d: num_pivots = %d", cmp, numPivots)
	}

	// num_pivots 为 0 是合法的直通曲线，切片保持 nil 以保证往返一致
	if numPivots > 0 {
		c.Pivots = make([]uint16, 0, numPivots)
		for i := uint32(0); i < numPivots; i++ {
			c.Pivots = append(c.Pivots, r.ReadUint16(h.BLBitDepth()))
		}
	}

	intervals := 0
	if numPivots >= 2 {
		intervals = int(numPivots) - 1
	}

	if intervals > 0 {
		c.Segments = make([]Segment, 0, intervals)
		for i := 0; i < intervals; i++ {
			var seg Segment
			seg.decode(d, h)
			c.Segments = append(c.Segments, seg)
		}
	}
}

func (c *Curve) encode(w *bits.Writer, h *Header) {
	w.WriteUe(uint32(len(c.Pivots)))
	for _, p := range c.Pivots {
		w.WriteUint16(p, h.BLBitDepth())
	}
	for i := range c.Segments {
		c.Segments[i].encode(w, h)
	}
}

func (s *Segment) decode(d *decoder, h *Header) {
	r := d.r

	idc := r.ReadUe()
	switch idc {
	case mappingPolynomial:
		s.Kind = SegmentPoly
		poly := &PolySegment{}
		poly.OrderMinus1 = r.ReadUe()
		if poly.OrderMinus1 > 1 {
			d.failf(ValueOutOfRange, "poly_order_minus1 = %d", poly.OrderMinus1)
		}
		n := int(poly.OrderMinus1) + 2
		poly.Coefs = make([]Coef, 0, n)
		for i := 0; i < n; i++ {
			poly.Coefs = append(poly.Coefs, decodeCoef(r, h))
		}
		s.Poly = poly

	case mappingMMR:
		s.Kind = SegmentMMR
		mmr := &MMRSegment{}
		mmr.OrderMinus1 = r.ReadUint8(2)
		if mmr.OrderMinus1 > 2 {
			d.failf(ValueOutOfRange, "mmr_order_minus1 = %d", mmr.OrderMinus1)
		}
		mmr.Constant = decodeCoef(r, h)
		order := int(mmr.OrderMinus1) + 1
		mmr.Coefs = make([][7]Coef, order)
		for i := 0; i < order; i++ {
			for j := 0; j < 7; j++ {
				mmr.Coefs[i][j] = decodeCoef(r, h)
			}
		}
		s.MMR = mmr

	default:
		d.failf(ValueOutOfRange, "mapping_idc = %d", idc)
	}
}

func (s *Segment) encode(w *bits.Writer, h *Header) {
	switch s.Kind {
	case SegmentPoly:
		w.WriteUe(mappingPolynomial)
		w.WriteUe(s.Poly.OrderMinus1)
		for _, c := range s.Poly.Coefs {
			encodeCoef(w, h, c)
		}
	case SegmentMMR:
		w.WriteUe(mappingMMR)
		w.WriteUint8(s.MMR.OrderMinus1, 2)
		encodeCoef(w, h, s.MMR.Constant)
		for i := range s.MMR.Coefs {
			for j := 0; j < 7; j++ {
				encodeCoef(w, h, s.MMR.Coefs[i][j])
			}
		}
	}
}

func decodeCoef(r *bits.Reader, h *Header) Coef {
	return Coef{
		Int:  r.ReadSe(),
		Frac: uint32(r.ReadUint64(int(h.CoefLog2Denom))),
	}
}

func encodeCoef(w *bits.Writer, h *Header, c Coef) {
	w.WriteSe(c.Int)
	w.WriteUint64(uint64(c.Frac), int(h.CoefLog2Denom))
}

func decodeUCoef(r *bits.Reader, h *Header) UCoef {
	return UCoef{
		Int:  r.ReadUe(),
		Frac: uint32(r.ReadUint64(int(h.CoefLog2Denom))),
	}
}

func encodeUCoef(w *bits.Writer, h *Header, c UCoef) {
	w.WriteUe(c.Int)
	w.WriteUint64(uint64(c.Frac), int(h.CoefLog2Denom))
}
