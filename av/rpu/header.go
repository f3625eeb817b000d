// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rpu

import "github.com/cnotch/rpukit/utils/bits"

const (
	rpuNalPrefix = 0x19 // rpu_nal_prefix
	rpuTypeVdr   = 2    // rpu_type

	maxCoefLog2Denom = 23
)

// Header RPU 首部。
// 首部各字段决定其后语法的走向：残差层是否存在、
// 映射曲线的位宽、DM 元数据是否出现。
type Header struct {
	Format uint16 // rpu_format, 11 位

	Profile uint8 // vdr_rpu_profile
	Level   uint8 // vdr_rpu_level

	SeqInfoPresent                 bool
	ChromaResamplingExplicitFilter bool
	CoefDataType                   uint8  // 仅支持 0(定点)
	CoefLog2Denom                  uint32 // 系数小数部分位宽
	NormalizedIdc                  uint8
	BLVideoFullRange               bool

	BLBitDepthMinus8          uint32
	ELBitDepthMinus8          uint32
	VdrBitDepthMinus8         uint32
	SpatialResamplingFilter   bool
	Reserved3                 uint8
	ELSpatialResamplingFilter bool
	DisableResidual           bool

	DMMetadataPresent bool
	UsePrevRPU        bool
	PrevRPUID         uint32 // use_prev_vdr_rpu_flag 置位时有效
}

// BLBitDepth 基础层位深（枢轴值的位宽）
func (h *Header) BLBitDepth() int { return int(h.BLBitDepthMinus8) + 8 }

// ELBitDepth 增强层位深
func (h *Header) ELBitDepth() int { return int(h.ELBitDepthMinus8) + 8 }

// ResidualPresent 残差层(NLQ)是否应出现在位流中
func (h *Header) ResidualPresent() bool {
	return h.Format&0x700 == 0 && !h.DisableResidual && !h.UsePrevRPU
}

func (h *Header) decode(d *decoder) {
	r := d.r

	if prefix := r.ReadUint8(8); prefix != rpuNalPrefix {
		d.failf(ValueOutOfRange, "rpu_nal_prefix = 0x%02x", prefix)
	}
	if typ := r.ReadUint8(6); typ != rpuTypeVdr {
		d.failf(ValueOutOfRange, "rpu_type = %d", typ)
	}
	h.Format = r.ReadUint16(11)

	h.Profile = r.ReadUint8(4)
	h.Level = r.ReadUint8(4)

	h.SeqInfoPresent = r.ReadBool()
	if h.SeqInfoPresent {
		h.ChromaResamplingExplicitFilter = r.ReadBool()
		h.CoefDataType = r.ReadUint8(2)
		if h.CoefDataType != 0 {
			d.failf(ValueOutOfRange, "coefficient_data_type = %d", h.CoefDataType)
		}
		h.CoefLog2Denom = r.ReadUe()
		if h.CoefLog2Denom > maxCoefLog2Denom {
			d.failf(ValueOutOfRange, "coefficient_log2_denom = %d", h.CoefLog2Denom)
		}
		h.NormalizedIdc = r.ReadUint8(2)
		h.BLVideoFullRange = r.ReadBool()

		if h.Format&0x700 == 0 {
			h.BLBitDepthMinus8 = r.ReadUe()
			h.ELBitDepthMinus8 = r.ReadUe()
			h.VdrBitDepthMinus8 = r.ReadUe()
			if h.BLBitDepthMinus8 > 8 || h.ELBitDepthMinus8 > 8 || h.VdrBitDepthMinus8 > 8 {
				d.failf(ValueOutOfRange, "bit depth over 16")
			}
			h.SpatialResamplingFilter = r.ReadBool()
			h.Reserved3 = r.ReadUint8(3)
			h.ELSpatialResamplingFilter = r.ReadBool()
			h.DisableResidual = r.ReadBool()
		}
	}

	h.DMMetadataPresent = r.ReadBool()
	h.UsePrevRPU = r.ReadBool()
	if h.UsePrevRPU {
		h.PrevRPUID = r.ReadUe()
	}

	if profileOf(h) == ProfileUnknown {
		d.failf(ValueOutOfRange,
			"unrecognized profile flags: vdr_rpu_profile=%d full_range=%v el=%v residual_disabled=%v",
			h.Profile, h.BLVideoFullRange, h.ELSpatialResamplingFilter, h.DisableResidual)
	}
}

func (h *Header) encode(w *bits.Writer) {
	w.WriteUint8(rpuNalPrefix, 8)
	w.WriteUint8(rpuTypeVdr, 6)
	w.WriteUint16(h.Format, 11)

	w.WriteUint8(h.Profile, 4)
	w.WriteUint8(h.Level, 4)

	w.WriteBool(h.SeqInfoPresent)
	if h.SeqInfoPresent {
		w.WriteBool(h.ChromaResamplingExplicitFilter)
		w.WriteUint8(h.CoefDataType, 2)
		w.WriteUe(h.CoefLog2Denom)
		w.WriteUint8(h.NormalizedIdc, 2)
		w.WriteBool(h.BLVideoFullRange)

		if h.Format&0x700 == 0 {
			w.WriteUe(h.BLBitDepthMinus8)
			w.WriteUe(h.ELBitDepthMinus8)
			w.WriteUe(h.VdrBitDepthMinus8)
			w.WriteBool(h.SpatialResamplingFilter)
			w.WriteUint8(h.Reserved3, 3)
			w.WriteBool(h.ELSpatialResamplingFilter)
			w.WriteBool(h.DisableResidual)
		}
	}

	w.WriteBool(h.DMMetadataPresent)
	w.WriteBool(h.UsePrevRPU)
	if h.UsePrevRPU {
		w.WriteUe(h.PrevRPUID)
	}
}
