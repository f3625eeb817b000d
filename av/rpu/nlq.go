// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rpu

import "github.com/cnotch/rpukit/utils/bits"

// 残差层量化方法
const (
	NLQLinearDeadzone = 0 // nlq_method_idc
)

// Residual 增强层残差(NLQ)数据。
// 仅当首部声明了增强层(rpu_format 低段且未禁用残差)时出现。
type Residual struct {
	MethodIdc uint8 // 仅支持线性死区

	Offsets           [NumComponents]uint16 // el_bit_depth 位
	VdrInMax          [NumComponents]UCoef
	DeadzoneSlope     [NumComponents]UCoef
	DeadzoneThreshold [NumComponents]UCoef
}

func (n *Residual) decode(d *decoder, h *Header) {
	r := d.r

	n.MethodIdc = r.ReadUint8(3)
	if n.MethodIdc != NLQLinearDeadzone {
		d.failf(ValueOutOfRange, "nlq_method_idc = %d", n.MethodIdc)
	}

	for cmp := 0; cmp < NumComponents; cmp++ {
		n.Offsets[cmp] = r.ReadUint16(h.ELBitDepth())
		n.VdrInMax[cmp] = decodeUCoef(r, h)
		n.DeadzoneSlope[cmp] = decodeUCoef(r, h)
		n.DeadzoneThreshold[cmp] = decodeUCoef(r, h)
	}
}

func (n *Residual) encode(w *bits.Writer, h *Header) {
	w.WriteUint8(n.MethodIdc, 3)

	for cmp := 0; cmp < NumComponents; cmp++ {
		w.WriteUint16(n.Offsets[cmp], h.ELBitDepth())
		encodeUCoef(w, h, n.VdrInMax[cmp])
		encodeUCoef(w, h, n.DeadzoneSlope[cmp])
		encodeUCoef(w, h, n.DeadzoneThreshold[cmp])
	}
}
