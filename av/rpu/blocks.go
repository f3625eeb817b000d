// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rpu

import "github.com/cnotch/rpukit/utils/bits"

// Block DM 扩展元数据块。
// 块的封闭集合加上一个携带原始字节的 OpaqueBlock 变体：
// 遇到更新的元数据级别时按字节保留，保证往返不丢数据。
type Block interface {
	// Level 块级别(标签)
	Level() uint8

	payloadBits() int
	decodePayload(r *bits.Reader)
	encodePayload(w *bits.Writer)
}

// blockFactory 已识别级别的构造表；进程级只读。
var blockFactory = map[uint8]func() Block{
	1:   func() Block { return new(BlockLevel1) },
	2:   func() Block { return new(BlockLevel2) },
	3:   func() Block { return new(BlockLevel3) },
	4:   func() Block { return new(BlockLevel4) },
	5:   func() Block { return new(BlockLevel5) },
	6:   func() Block { return new(BlockLevel6) },
	9:   func() Block { return new(BlockLevel9) },
	11:  func() Block { return new(BlockLevel11) },
	254: func() Block { return new(BlockLevel254) },
	255: func() Block { return new(BlockLevel255) },
}

// 块级帧结构：ext_block_length u(32) + ext_block_level u(8) + 载荷 + 零位补齐。
// 典型解码必须恰好消费声明的长度，这是防止静默损坏的关键防线。
func decodeBlock(d *decoder) Block {
	r := d.r

	length := r.ReadUint32(32)
	level := r.ReadUint8(8)
	if int64(length)*8 > int64(r.BitsLeft()) {
		d.failf(Truncated, "ext_block_length = %d", length)
	}

	factory, known := blockFactory[level]
	if !known {
		data := make([]byte, length)
		for i := range data {
			data[i] = r.ReadUint8(8)
		}
		return &OpaqueBlock{Lvl: level, Data: data}
	}

	b := factory()
	start := r.Offset()
	b.decodePayload(r)
	used := r.Offset() - start
	if (used+7)/8 != int(length) {
		d.failf(BlockLengthMismatch, "level %d: consumed %d bits, declared %d bytes",
			level, used, length)
	}
	for used%8 != 0 {
		if r.ReadBit() != 0 {
			d.failf(ValueOutOfRange, "level %d: ext_dm_alignment_zero_bit != 0", level)
		}
		used++
	}
	return b
}

func encodeBlock(w *bits.Writer, b Block) {
	if ob, ok := b.(*OpaqueBlock); ok {
		w.WriteUint32(uint32(len(ob.Data)), 32)
		w.WriteUint8(ob.Lvl, 8)
		w.WriteBytes(ob.Data)
		return
	}

	w.WriteUint32(uint32((b.payloadBits()+7)/8), 32)
	w.WriteUint8(b.Level(), 8)
	b.encodePayload(w)
	w.AlignToByte()
}

// OpaqueBlock 未识别级别的块：级别 + 原始字节。
type OpaqueBlock struct {
	Lvl  uint8  `json:"level"`
	Data []byte `json:"data"`
}

// Level .
func (b *OpaqueBlock) Level() uint8              { return b.Lvl }
func (b *OpaqueBlock) payloadBits() int          { return len(b.Data) * 8 }
func (b *OpaqueBlock) decodePayload(*bits.Reader) {}
func (b *OpaqueBlock) encodePayload(w *bits.Writer) {
	w.WriteBytes(b.Data)
}

// BlockLevel1 场景级内容亮度范围
type BlockLevel1 struct {
	MinPQ uint16 `json:"min_pq"`
	MaxPQ uint16 `json:"max_pq"`
	AvgPQ uint16 `json:"avg_pq"`
}

// Level .
func (b *BlockLevel1) Level() uint8     { return 1 }
func (b *BlockLevel1) payloadBits() int { return 36 }
func (b *BlockLevel1) decodePayload(r *bits.Reader) {
	b.MinPQ = r.ReadUint16(12)
	b.MaxPQ = r.ReadUint16(12)
	b.AvgPQ = r.ReadUint16(12)
}
func (b *BlockLevel1) encodePayload(w *bits.Writer) {
	w.WriteUint16(b.MinPQ, 12)
	w.WriteUint16(b.MaxPQ, 12)
	w.WriteUint16(b.AvgPQ, 12)
}

// BlockLevel2 目标显示修整(trim pass)
type BlockLevel2 struct {
	TargetMaxPQ        uint16 `json:"target_max_pq"`
	TrimSlope          uint16 `json:"trim_slope"`
	TrimOffset         uint16 `json:"trim_offset"`
	TrimPower          uint16 `json:"trim_power"`
	TrimChromaWeight   uint16 `json:"trim_chroma_weight"`
	TrimSaturationGain uint16 `json:"trim_saturation_gain"`
	MsWeight           int16  `json:"ms_weight"`
}

// Level .
func (b *BlockLevel2) Level() uint8     { return 2 }
func (b *BlockLevel2) payloadBits() int { return 85 }
func (b *BlockLevel2) decodePayload(r *bits.Reader) {
	b.TargetMaxPQ = r.ReadUint16(12)
	b.TrimSlope = r.ReadUint16(12)
	b.TrimOffset = r.ReadUint16(12)
	b.TrimPower = r.ReadUint16(12)
	b.TrimChromaWeight = r.ReadUint16(12)
	b.TrimSaturationGain = r.ReadUint16(12)
	// 13 位二补码
	v := r.ReadUint16(13)
	b.MsWeight = int16(v<<3) >> 3
}
func (b *BlockLevel2) encodePayload(w *bits.Writer) {
	w.WriteUint16(b.TargetMaxPQ, 12)
	w.WriteUint16(b.TrimSlope, 12)
	w.WriteUint16(b.TrimOffset, 12)
	w.WriteUint16(b.TrimPower, 12)
	w.WriteUint16(b.TrimChromaWeight, 12)
	w.WriteUint16(b.TrimSaturationGain, 12)
	w.WriteUint16(uint16(b.MsWeight)&0x1fff, 13)
}

// BlockLevel3 亮度范围偏移
type BlockLevel3 struct {
	MinPQOffset uint16 `json:"min_pq_offset"`
	MaxPQOffset uint16 `json:"max_pq_offset"`
	AvgPQOffset uint16 `json:"avg_pq_offset"`
}

// Level .
func (b *BlockLevel3) Level() uint8     { return 3 }
func (b *BlockLevel3) payloadBits() int { return 36 }
func (b *BlockLevel3) decodePayload(r *bits.Reader) {
	b.MinPQOffset = r.ReadUint16(12)
	b.MaxPQOffset = r.ReadUint16(12)
	b.AvgPQOffset = r.ReadUint16(12)
}
func (b *BlockLevel3) encodePayload(w *bits.Writer) {
	w.WriteUint16(b.MinPQOffset, 12)
	w.WriteUint16(b.MaxPQOffset, 12)
	w.WriteUint16(b.AvgPQOffset, 12)
}

// BlockLevel4 锚点亮度
type BlockLevel4 struct {
	AnchorPQ    uint16 `json:"anchor_pq"`
	AnchorPower uint16 `json:"anchor_power"`
}

// Level .
func (b *BlockLevel4) Level() uint8     { return 4 }
func (b *BlockLevel4) payloadBits() int { return 24 }
func (b *BlockLevel4) decodePayload(r *bits.Reader) {
	b.AnchorPQ = r.ReadUint16(12)
	b.AnchorPower = r.ReadUint16(12)
}
func (b *BlockLevel4) encodePayload(w *bits.Writer) {
	w.WriteUint16(b.AnchorPQ, 12)
	w.WriteUint16(b.AnchorPower, 12)
}

// BlockLevel5 活动区域(上下左右letterbox偏移)
type BlockLevel5 struct {
	ActiveAreaLeft   uint16 `json:"active_area_left_offset"`
	ActiveAreaRight  uint16 `json:"active_area_right_offset"`
	ActiveAreaTop    uint16 `json:"active_area_top_offset"`
	ActiveAreaBottom uint16 `json:"active_area_bottom_offset"`
}

// Level .
func (b *BlockLevel5) Level() uint8     { return 5 }
func (b *BlockLevel5) payloadBits() int { return 52 }
func (b *BlockLevel5) decodePayload(r *bits.Reader) {
	b.ActiveAreaLeft = r.ReadUint16(13)
	b.ActiveAreaRight = r.ReadUint16(13)
	b.ActiveAreaTop = r.ReadUint16(13)
	b.ActiveAreaBottom = r.ReadUint16(13)
}
func (b *BlockLevel5) encodePayload(w *bits.Writer) {
	w.WriteUint16(b.ActiveAreaLeft, 13)
	w.WriteUint16(b.ActiveAreaRight, 13)
	w.WriteUint16(b.ActiveAreaTop, 13)
	w.WriteUint16(b.ActiveAreaBottom, 13)
}

// Rect 活动区域的矩形偏移
func (b *BlockLevel5) Rect() [4]uint16 {
	return [4]uint16{b.ActiveAreaLeft, b.ActiveAreaRight, b.ActiveAreaTop, b.ActiveAreaBottom}
}

// BlockLevel6 母版显示(mastering display)元数据
type BlockLevel6 struct {
	MaxDisplayMasteringLuminance uint16 `json:"max_display_mastering_luminance"`
	MinDisplayMasteringLuminance uint16 `json:"min_display_mastering_luminance"`
	MaxContentLightLevel         uint16 `json:"max_content_light_level"`
	MaxFrameAverageLightLevel    uint16 `json:"max_frame_average_light_level"`
}

// Level .
func (b *BlockLevel6) Level() uint8     { return 6 }
func (b *BlockLevel6) payloadBits() int { return 64 }
func (b *BlockLevel6) decodePayload(r *bits.Reader) {
	b.MaxDisplayMasteringLuminance = r.ReadUint16(16)
	b.MinDisplayMasteringLuminance = r.ReadUint16(16)
	b.MaxContentLightLevel = r.ReadUint16(16)
	b.MaxFrameAverageLightLevel = r.ReadUint16(16)
}
func (b *BlockLevel6) encodePayload(w *bits.Writer) {
	w.WriteUint16(b.MaxDisplayMasteringLuminance, 16)
	w.WriteUint16(b.MinDisplayMasteringLuminance, 16)
	w.WriteUint16(b.MaxContentLightLevel, 16)
	w.WriteUint16(b.MaxFrameAverageLightLevel, 16)
}

// BlockLevel9 源色域索引
type BlockLevel9 struct {
	SourcePrimaryIndex uint8 `json:"source_primary_index"`
}

// Level .
func (b *BlockLevel9) Level() uint8     { return 9 }
func (b *BlockLevel9) payloadBits() int { return 8 }
func (b *BlockLevel9) decodePayload(r *bits.Reader) {
	b.SourcePrimaryIndex = r.ReadUint8(8)
}
func (b *BlockLevel9) encodePayload(w *bits.Writer) {
	w.WriteUint8(b.SourcePrimaryIndex, 8)
}

// BlockLevel11 内容类型
type BlockLevel11 struct {
	ContentType   uint8 `json:"content_type"`
	WhitepointIdc uint8 `json:"whitepoint"`
	ReferenceMode bool  `json:"reference_mode_flag"`
}

// Level .
func (b *BlockLevel11) Level() uint8     { return 11 }
func (b *BlockLevel11) payloadBits() int { return 17 }
func (b *BlockLevel11) decodePayload(r *bits.Reader) {
	b.ContentType = r.ReadUint8(8)
	b.WhitepointIdc = r.ReadUint8(8)
	b.ReferenceMode = r.ReadBool()
}
func (b *BlockLevel11) encodePayload(w *bits.Writer) {
	w.WriteUint8(b.ContentType, 8)
	w.WriteUint8(b.WhitepointIdc, 8)
	w.WriteBool(b.ReferenceMode)
}

// BlockLevel254 第二代(CM v4.0)DM 配置
type BlockLevel254 struct {
	DMMode         uint8 `json:"dm_mode"`
	DMVersionIndex uint8 `json:"dm_version_index"`
}

// Level .
func (b *BlockLevel254) Level() uint8     { return 254 }
func (b *BlockLevel254) payloadBits() int { return 16 }
func (b *BlockLevel254) decodePayload(r *bits.Reader) {
	b.DMMode = r.ReadUint8(8)
	b.DMVersionIndex = r.ReadUint8(8)
}
func (b *BlockLevel254) encodePayload(w *bits.Writer) {
	w.WriteUint8(b.DMMode, 8)
	w.WriteUint8(b.DMVersionIndex, 8)
}

// BlockLevel255 调试信息
type BlockLevel255 struct {
	DMRunMode    uint8    `json:"dm_run_mode"`
	DMRunVersion uint8    `json:"dm_run_version"`
	DMDebug      [4]uint8 `json:"dm_debug"`
}

// Level .
func (b *BlockLevel255) Level() uint8     { return 255 }
func (b *BlockLevel255) payloadBits() int { return 48 }
func (b *BlockLevel255) decodePayload(r *bits.Reader) {
	b.DMRunMode = r.ReadUint8(8)
	b.DMRunVersion = r.ReadUint8(8)
	for i := range b.DMDebug {
		b.DMDebug[i] = r.ReadUint8(8)
	}
}
func (b *BlockLevel255) encodePayload(w *bits.Writer) {
	w.WriteUint8(b.DMRunMode, 8)
	w.WriteUint8(b.DMRunVersion, 8)
	for _, v := range b.DMDebug {
		w.WriteUint8(v, 8)
	}
}
