// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package rpu 实现参考处理单元(RPU)动态色彩元数据的位流编解码。
// 输入输出都是已去除防竞争字节的裸载荷；NAL 层见 av/hevc。
package rpu

import (
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/cnotch/rpukit/utils/bits"
)

// 尾部 = rpu_data_crc32(32) + 终止字节 0x80(8)
const trailerBits = 40

// RPU 一个已解析的参考处理单元。
// 每个载荷独立构造一个 RPU，解码/编码之间可被转换逻辑原地修改；
// 校验和不作为字段保存，编码时始终重新计算。
type RPU struct {
	Header   Header
	Mapping  *Mapping  // use_prev_vdr_rpu_flag 置位时为 nil
	Residual *Residual // 无增强层时为 nil
	DM       *DMData   // 首部未声明 DM 元数据时为 nil
}

// Profile 识别出的档次标识
func (rpu *RPU) Profile() Profile {
	return profileOf(&rpu.Header)
}

// decoder 一次解码的游标和区域上下文
type decoder struct {
	r      *bits.Reader
	region string
}

// failf 携带当前位置抛出解码错误，由 Decode 入口统一捕获
func (d *decoder) failf(kind ErrorKind, format string, args ...interface{}) {
	panic(&DecodeError{
		Kind:   kind,
		Region: d.region,
		Offset: d.r.Offset(),
		Msg:    fmt.Sprintf(format, args...),
	})
}

func (d *decoder) recovered(rec interface{}) error {
	switch v := rec.(type) {
	case *DecodeError:
		return v
	case error:
		if errors.Is(v, bits.ErrTruncated) {
			return &DecodeError{Kind: Truncated, Region: d.region, Offset: d.r.Offset()}
		}
		if errors.Is(v, bits.ErrInvalidGolomb) || errors.Is(v, bits.ErrValueTooWide) {
			return &DecodeError{Kind: ValueOutOfRange, Region: d.region, Offset: d.r.Offset(), Msg: v.Error()}
		}
	}
	return fmt.Errorf("rpu: decode panic; r = %v \n %s", rec, debug.Stack())
}

// Decode 把一个 RPU 载荷解析为结构化值。
// 对解码成功且未被修改的 RPU，Encode 逐字节还原输入。
func Decode(data []byte) (out *RPU, err error) {
	d := &decoder{r: bits.NewReader(data), region: RegionHeader}
	defer func() {
		if rec := recover(); rec != nil {
			out, err = nil, d.recovered(rec)
		}
	}()

	if len(data) < 8 {
		return nil, &DecodeError{Kind: Truncated, Region: RegionHeader, Offset: 0,
			Msg: fmt.Sprintf("payload of %d bytes", len(data))}
	}

	rpu := &RPU{}
	rpu.Header.decode(d)
	h := &rpu.Header

	if !h.UsePrevRPU {
		d.region = RegionMapping
		rpu.Mapping = &Mapping{}
		rpu.Mapping.decode(d, h)

		if h.ResidualPresent() {
			d.region = RegionResidual
			rpu.Residual = &Residual{}
			rpu.Residual.decode(d, h)
			d.region = RegionMapping
		}
		rpu.Mapping.decodePartitions(d)
	}

	if h.DMMetadataPresent {
		d.region = RegionDM
		rpu.DM = &DMData{}
		rpu.DM.decode(d)
	}

	d.region = RegionTrailer
	for !d.r.Aligned() {
		if d.r.ReadBit() != 0 {
			d.failf(ValueOutOfRange, "rpu_alignment_zero_bit != 0")
		}
	}
	if left := d.r.BitsLeft(); left != trailerBits {
		if left < trailerBits {
			d.failf(Truncated, "%d bits left, trailer needs %d", left, trailerBits)
		}
		d.failf(ValueOutOfRange, "%d unexpected bits before trailer", left-trailerBits)
	}

	stored := d.r.ReadUint32(32)
	computed := checksum(data[1 : len(data)-5])
	if stored != computed {
		d.failf(ChecksumMismatch, "stored 0x%08x, computed 0x%08x", stored, computed)
	}
	if final := d.r.ReadUint8(8); final != 0x80 {
		d.failf(ValueOutOfRange, "final byte 0x%02x", final)
	}

	return rpu, nil
}

// Encode 把结构化 RPU 编码为载荷字节。
// 长度、对齐与校验和一律重新推导，不复制任何陈旧值。
func (rpu *RPU) Encode() (data []byte, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			data, err = nil, fmt.Errorf("rpu: encode: %v", rec)
		}
	}()

	if err := rpu.validate(); err != nil {
		return nil, err
	}

	h := &rpu.Header
	w := bits.NewWriter(256)
	h.encode(w)

	if !h.UsePrevRPU {
		rpu.Mapping.encode(w, h)
		if h.ResidualPresent() {
			rpu.Residual.encode(w, h)
		}
		rpu.Mapping.encodePartitions(w)
	}

	if h.DMMetadataPresent {
		rpu.DM.encode(w)
	}

	w.AlignToByte()
	payload := w.Bytes()
	crc := checksum(payload[1:])
	w.WriteUint32(crc, 32)
	w.WriteUint8(0x80, 8)
	return w.Bytes(), nil
}

func (rpu *RPU) validate() error {
	h := &rpu.Header
	if profileOf(h) == ProfileUnknown {
		return fmt.Errorf("rpu: header flags do not form a recognized profile")
	}
	if !h.UsePrevRPU && rpu.Mapping == nil {
		return fmt.Errorf("rpu: mapping data required")
	}
	if h.ResidualPresent() && rpu.Residual == nil {
		return fmt.Errorf("rpu: residual layer required by header flags")
	}
	if !h.ResidualPresent() && rpu.Residual != nil {
		return fmt.Errorf("rpu: residual layer present but disabled by header flags")
	}
	if h.DMMetadataPresent && rpu.DM == nil {
		return fmt.Errorf("rpu: dm metadata required by header flags")
	}

	if rpu.Mapping != nil {
		for cmp := range rpu.Mapping.Curves {
			c := &rpu.Mapping.Curves[cmp]
			if len(c.Pivots) > MaxPivots {
				return fmt.Errorf("rpu: component %d: %d pivots over limit", cmp, len(c.Pivots))
			}
			intervals := 0
			if len(c.Pivots) >= 2 {
				intervals = len(c.Pivots) - 1
			}
			if len(c.Segments) != intervals {
				return fmt.Errorf("rpu: component %d: %d segments for %d pivots",
					cmp, len(c.Segments), len(c.Pivots))
			}
		}
	}
	return nil
}
