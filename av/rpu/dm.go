// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rpu

import (
	"fmt"

	"github.com/cnotch/rpukit/utils/bits"
)

// 两代块列表各自允许的级别；进程级只读。
var (
	cmV29Levels = map[uint8]bool{1: true, 2: true, 4: true, 5: true, 6: true, 255: true}
	cmV40Levels = map[uint8]bool{3: true, 8: true, 9: true, 10: true, 11: true, 254: true}
)

// DMV4 第二代(CM v4.0)扩展块列表
type DMV4 struct {
	Blocks []Block
}

// DMData 显示管理(DM)元数据：
// 颜色变换系数、信号描述，以及按级别标记的扩展块序列。
type DMData struct {
	AffectedID   uint32 `json:"affected_dm_metadata_id"`
	CurrentID    uint32 `json:"current_dm_metadata_id"`
	SceneRefresh uint32 `json:"scene_refresh_flag"`

	YccToRgbCoef   [9]int16  `json:"ycc_to_rgb_coef"`
	YccToRgbOffset [3]uint32 `json:"ycc_to_rgb_offset"`
	RgbToLmsCoef   [9]int16  `json:"rgb_to_lms_coef"`

	SignalEotf        uint16 `json:"signal_eotf"`
	SignalEotfParam0  uint16 `json:"signal_eotf_param0"`
	SignalEotfParam1  uint16 `json:"signal_eotf_param1"`
	SignalEotfParam2  uint32 `json:"signal_eotf_param2"`
	SignalBitDepth    uint8  `json:"signal_bit_depth"`
	SignalColorSpace  uint8  `json:"signal_color_space"`
	SignalChromaFmt   uint8  `json:"signal_chroma_format"`
	SignalFullRange   uint8  `json:"signal_full_range_flag"`
	SourceMinPQ       uint16 `json:"source_min_pq"`
	SourceMaxPQ       uint16 `json:"source_max_pq"`
	SourceDiagonal    uint16 `json:"source_diagonal"`

	Blocks []Block `json:"blocks"` // CM v2.9 块列表
	V4     *DMV4   `json:"-"`      // CM v4.0 块列表，nil 表示不存在
}

// SceneRefreshed 本帧是否场景刷新点
func (dm *DMData) SceneRefreshed() bool { return dm.SceneRefresh != 0 }

// AddBlock 将块加入对应代的列表；级别不被该代接受时报错。
func (dm *DMData) AddBlock(b Block) error {
	level := b.Level()
	switch {
	case cmV29Levels[level]:
		dm.Blocks = append(dm.Blocks, b)
	case cmV40Levels[level]:
		if dm.V4 == nil {
			dm.V4 = &DMV4{}
		}
		dm.V4.Blocks = append(dm.V4.Blocks, b)
	default:
		return fmt.Errorf("rpu: metadata block level %d is not assignable", level)
	}
	return nil
}

// RemoveLevel 移除两代列表中指定级别的全部块
func (dm *DMData) RemoveLevel(level uint8) {
	dm.Blocks = removeLevel(dm.Blocks, level)
	if dm.V4 != nil {
		dm.V4.Blocks = removeLevel(dm.V4.Blocks, level)
	}
}

// FirstLevel 返回第一个指定级别的块，找不到返回 nil。
func (dm *DMData) FirstLevel(level uint8) Block {
	for _, b := range dm.Blocks {
		if b.Level() == level {
			return b
		}
	}
	if dm.V4 != nil {
		for _, b := range dm.V4.Blocks {
			if b.Level() == level {
				return b
			}
		}
	}
	return nil
}

func removeLevel(blocks []Block, level uint8) []Block {
	kept := blocks[:0]
	for _, b := range blocks {
		if b.Level() != level {
			kept = append(kept, b)
		}
	}
	return kept
}

func (dm *DMData) decode(d *decoder) {
	r := d.r

	dm.AffectedID = r.ReadUe()
	dm.CurrentID = r.ReadUe()
	dm.SceneRefresh = r.ReadUe()

	for i := range dm.YccToRgbCoef {
		dm.YccToRgbCoef[i] = r.ReadInt16(16)
	}
	for i := range dm.YccToRgbOffset {
		dm.YccToRgbOffset[i] = r.ReadUint32(32)
	}
	for i := range dm.RgbToLmsCoef {
		dm.RgbToLmsCoef[i] = r.ReadInt16(16)
	}

	dm.SignalEotf = r.ReadUint16(16)
	dm.SignalEotfParam0 = r.ReadUint16(16)
	dm.SignalEotfParam1 = r.ReadUint16(16)
	dm.SignalEotfParam2 = r.ReadUint32(32)
	dm.SignalBitDepth = r.ReadUint8(5)
	dm.SignalColorSpace = r.ReadUint8(2)
	dm.SignalChromaFmt = r.ReadUint8(2)
	dm.SignalFullRange = r.ReadUint8(2)
	dm.SourceMinPQ = r.ReadUint16(12)
	dm.SourceMaxPQ = r.ReadUint16(12)
	dm.SourceDiagonal = r.ReadUint16(10)

	dm.Blocks = dm.decodeBlockList(d)

	// 尾部(CRC+终止字节)之外还有数据时，存在第二代块列表
	if r.BitsLeft() > trailerBits {
		v4 := &DMV4{}
		v4.Blocks = dm.decodeBlockList(d)
		dm.V4 = v4
	}
}

func (dm *DMData) decodeBlockList(d *decoder) []Block {
	r := d.r

	count := r.ReadUe()
	for !r.Aligned() {
		if r.ReadBit() != 0 {
			d.failf(ValueOutOfRange, "dm_alignment_zero_bit != 0")
		}
	}

	blocks := make([]Block, 0, count)
	for i := uint32(0); i < count; i++ {
		if r.BitsLeft() <= trailerBits {
			d.failf(BlockCountMismatch, "declared %d blocks, got %d", count, i)
		}
		blocks = append(blocks, decodeBlock(d))
	}
	return blocks
}

func (dm *DMData) encode(w *bits.Writer) {
	w.WriteUe(dm.AffectedID)
	w.WriteUe(dm.CurrentID)
	w.WriteUe(dm.SceneRefresh)

	for _, v := range dm.YccToRgbCoef {
		w.WriteInt16(v, 16)
	}
	for _, v := range dm.YccToRgbOffset {
		w.WriteUint32(v, 32)
	}
	for _, v := range dm.RgbToLmsCoef {
		w.WriteInt16(v, 16)
	}

	w.WriteUint16(dm.SignalEotf, 16)
	w.WriteUint16(dm.SignalEotfParam0, 16)
	w.WriteUint16(dm.SignalEotfParam1, 16)
	w.WriteUint32(dm.SignalEotfParam2, 32)
	w.WriteUint8(dm.SignalBitDepth, 5)
	w.WriteUint8(dm.SignalColorSpace, 2)
	w.WriteUint8(dm.SignalChromaFmt, 2)
	w.WriteUint8(dm.SignalFullRange, 2)
	w.WriteUint16(dm.SourceMinPQ, 12)
	w.WriteUint16(dm.SourceMaxPQ, 12)
	w.WriteUint16(dm.SourceDiagonal, 10)

	encodeBlockList(w, dm.Blocks)
	if dm.V4 != nil {
		encodeBlockList(w, dm.V4.Blocks)
	}
}

func encodeBlockList(w *bits.Writer, blocks []Block) {
	w.WriteUe(uint32(len(blocks)))
	w.AlignToByte()
	for _, b := range blocks {
		encodeBlock(w, b)
	}
}
