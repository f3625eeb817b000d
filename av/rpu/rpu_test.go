// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 构造一个 8 档（无增强层）的测试 RPU
func newTestRPU8(t *testing.T) *RPU {
	rpu := &RPU{
		Header: Header{
			Format:            0,
			Profile:           1,
			Level:             6,
			SeqInfoPresent:    true,
			CoefDataType:      0,
			CoefLog2Denom:     7,
			NormalizedIdc:     1,
			BLVideoFullRange:  false,
			BLBitDepthMinus8:  2, // 10-bit
			ELBitDepthMinus8:  2,
			VdrBitDepthMinus8: 4,
			DisableResidual:   true,
			DMMetadataPresent: true,
		},
		Mapping: &Mapping{
			RPUID:           0,
			ColorSpace:      0,
			ChromaFormatIdc: 0,
			Curves: [NumComponents]Curve{
				{ // 多项式
					Pivots: []uint16{0, 1023},
					Segments: []Segment{{
						Kind: SegmentPoly,
						Poly: &PolySegment{
							OrderMinus1: 0,
							Coefs:       []Coef{{Int: 0, Frac: 0}, {Int: 1, Frac: 64}},
						},
					}},
				},
				{ // MMR
					Pivots: []uint16{0, 512},
					Segments: []Segment{{
						Kind: SegmentMMR,
						MMR: &MMRSegment{
							OrderMinus1: 0,
							Constant:    Coef{Int: -2, Frac: 3},
							Coefs: [][7]Coef{{
								{Int: 1, Frac: 0}, {Int: 0, Frac: 1}, {Int: -1, Frac: 2},
								{Int: 2, Frac: 3}, {Int: 0, Frac: 0}, {Int: 3, Frac: 5},
								{Int: -4, Frac: 127},
							}},
						},
					}},
				},
				{}, // 直通
			},
		},
		DM: &DMData{
			SceneRefresh:   1,
			YccToRgbCoef:   [9]int16{8192, 0, 12900, 8192, -1534, -3836, 8192, 15201, 0},
			YccToRgbOffset: [3]uint32{0, 536870912, 536870912},
			RgbToLmsCoef:   [9]int16{5845, 9702, 837, 2568, 12256, 1561, 0, 679, 15705},
			SignalEotf:     65535,
			SignalBitDepth: 12,
			SourceMinPQ:    7,
			SourceMaxPQ:    3079,
			SourceDiagonal: 42,
		},
	}

	require.NoError(t, rpu.DM.AddBlock(&BlockLevel1{MinPQ: 0, MaxPQ: 3000, AvgPQ: 819}))
	require.NoError(t, rpu.DM.AddBlock(&BlockLevel5{ActiveAreaTop: 276, ActiveAreaBottom: 276}))
	require.NoError(t, rpu.DM.AddBlock(&BlockLevel6{
		MaxDisplayMasteringLuminance: 4000,
		MinDisplayMasteringLuminance: 50,
		MaxContentLightLevel:         3948,
		MaxFrameAverageLightLevel:    358,
	}))
	require.NoError(t, rpu.DM.AddBlock(&BlockLevel2{
		TargetMaxPQ: 2081, TrimSlope: 2048, TrimOffset: 2048, TrimPower: 2048,
		TrimChromaWeight: 2048, TrimSaturationGain: 2048, MsWeight: -1,
	}))
	return rpu
}

// 构造一个 7 档（带增强层残差）的测试 RPU
func newTestRPU7(t *testing.T) *RPU {
	rpu := newTestRPU8(t)
	rpu.Header.DisableResidual = false
	rpu.Header.ELSpatialResamplingFilter = true
	rpu.Residual = &Residual{
		MethodIdc: NLQLinearDeadzone,
		Offsets:   [NumComponents]uint16{512, 512, 512},
		VdrInMax: [NumComponents]UCoef{
			{Int: 1, Frac: 0}, {Int: 1, Frac: 0}, {Int: 1, Frac: 0},
		},
		DeadzoneSlope: [NumComponents]UCoef{
			{Int: 2, Frac: 20}, {Int: 2, Frac: 20}, {Int: 2, Frac: 20},
		},
	}
	require.Equal(t, Profile7, rpu.Profile())
	return rpu
}

func TestRoundTrip(t *testing.T) {
	for name, build := range map[string]func(*testing.T) *RPU{
		"profile8": newTestRPU8,
		"profile7": newTestRPU7,
	} {
		t.Run(name, func(t *testing.T) {
			src := build(t)
			data, err := src.Encode()
			require.NoError(t, err)

			decoded, err := Decode(data)
			require.NoError(t, err)
			assert.Equal(t, src.Header, decoded.Header)
			assert.Equal(t, src.Mapping, decoded.Mapping)
			assert.Equal(t, src.Residual, decoded.Residual)
			assert.Equal(t, src.DM, decoded.DM)

			again, err := decoded.Encode()
			require.NoError(t, err)
			assert.Equal(t, data, again)
		})
	}
}

func TestIdempotentReencode(t *testing.T) {
	data, err := newTestRPU8(t).Encode()
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)
	first, err := decoded.Encode()
	require.NoError(t, err)
	second, err := decoded.Encode()
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, data, first)
}

func TestOpaqueBlockPreserved(t *testing.T) {
	src := newTestRPU8(t)
	// 未识别的级别按原始字节保留
	src.DM.Blocks = append(src.DM.Blocks, &OpaqueBlock{Lvl: 99, Data: []byte{0xaa, 0xbb, 0xcc}})

	data, err := src.Encode()
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)
	require.Nil(t, decoded.Residual)

	var opaque *OpaqueBlock
	for _, b := range decoded.DM.Blocks {
		if ob, ok := b.(*OpaqueBlock); ok {
			opaque = ob
		}
	}
	require.NotNil(t, opaque)
	assert.Equal(t, uint8(99), opaque.Lvl)
	assert.Equal(t, []byte{0xaa, 0xbb, 0xcc}, opaque.Data)

	again, err := decoded.Encode()
	require.NoError(t, err)
	assert.Equal(t, data, again)
}

func TestZeroPivotCurvePreserved(t *testing.T) {
	src := newTestRPU8(t)
	data, err := src.Encode()
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.True(t, decoded.Mapping.Curves[2].Identity())
	// 解码保持 nil 切片，与手工构造的直通曲线深度相等
	assert.Nil(t, decoded.Mapping.Curves[2].Pivots)
	assert.Nil(t, decoded.Mapping.Curves[2].Segments)

	again, err := decoded.Encode()
	require.NoError(t, err)
	assert.Equal(t, data, again)
}

func TestChecksumSensitivity(t *testing.T) {
	data, err := newTestRPU8(t).Encode()
	require.NoError(t, err)

	// 翻转最后一个块载荷字节的最高位：语法解析不受影响，只有校验和能发现
	data[len(data)-6] ^= 0x80
	_, err = Decode(data)
	require.Error(t, err)
	assert.Equal(t, ChecksumMismatch, KindOf(err))
}

func TestTruncatedNeverSilent(t *testing.T) {
	data, err := newTestRPU7(t).Encode()
	require.NoError(t, err)

	regions := map[string]bool{}
	for cut := 1; cut < len(data); cut++ {
		_, err := Decode(data[:cut])
		require.Errorf(t, err, "cut at %d decoded silently", cut)
		if de, ok := err.(*DecodeError); ok {
			regions[de.Region] = true
		}
	}
	// 各语法段的截断都能被区分定位
	assert.True(t, regions[RegionHeader])
	assert.True(t, regions[RegionMapping])
	assert.True(t, regions[RegionResidual])
	assert.True(t, regions[RegionDM])
	assert.True(t, regions[RegionTrailer])
}

func TestUnrecognizedProfileFlags(t *testing.T) {
	data, err := newTestRPU8(t).Encode()
	require.NoError(t, err)

	// vdr_rpu_profile 位域在第 3 字节的高 4 位（8+6+11=25 位偏移）
	data[3] ^= 0x30
	_, err = Decode(data)
	require.Error(t, err)
	assert.Equal(t, ValueOutOfRange, KindOf(err))
}

func TestBlockLengthMismatch(t *testing.T) {
	src := newTestRPU8(t)
	// 声明级别 1 但长度只有 4 字节（典型块需要 5 字节）
	src.DM.Blocks = append(src.DM.Blocks, &OpaqueBlock{Lvl: 1, Data: []byte{0, 0, 0, 0}})

	data, err := src.Encode()
	require.NoError(t, err)
	_, err = Decode(data)
	require.Error(t, err)
	assert.Equal(t, BlockLengthMismatch, KindOf(err))
}

func TestBlockCountMismatch(t *testing.T) {
	src := newTestRPU8(t)
	src.DM.Blocks = []Block{
		&BlockLevel1{MaxPQ: 3000},
		&OpaqueBlock{Lvl: 99, Data: []byte{0xaa, 0xbb, 0xcc}},
	}
	data, err := src.Encode()
	require.NoError(t, err)

	// 剥掉最后一个块（4 字节长度 + 1 字节级别 + 3 字节载荷），
	// 重算校验和；计数字段仍声明 2 个块。
	cut := append([]byte{}, data[:len(data)-5-8]...)
	crc := checksum(cut[1:])
	cut = append(cut, byte(crc>>24), byte(crc>>16), byte(crc>>8), byte(crc), 0x80)

	_, err = Decode(cut)
	require.Error(t, err)
	assert.Equal(t, BlockCountMismatch, KindOf(err))
}

func TestInvalidEncode(t *testing.T) {
	rpu := newTestRPU8(t)
	rpu.Residual = &Residual{} // 残差层与首部标志矛盾
	_, err := rpu.Encode()
	assert.Error(t, err)

	rpu = newTestRPU8(t)
	rpu.Header.Profile = 3 // 不可识别的标志组合
	_, err = rpu.Encode()
	assert.Error(t, err)

	rpu = newTestRPU8(t)
	rpu.Mapping.Curves[0].Segments = nil // 段数与枢轴数不符
	_, err = rpu.Encode()
	assert.Error(t, err)
}

func TestDMV4RoundTrip(t *testing.T) {
	src := newTestRPU8(t)
	require.NoError(t, src.DM.AddBlock(&BlockLevel254{DMMode: 0, DMVersionIndex: 1}))
	require.NoError(t, src.DM.AddBlock(&BlockLevel11{ContentType: 1, WhitepointIdc: 0, ReferenceMode: true}))
	require.NoError(t, src.DM.AddBlock(&BlockLevel9{SourcePrimaryIndex: 2}))
	require.NotNil(t, src.DM.V4)

	data, err := src.Encode()
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)
	require.NotNil(t, decoded.DM.V4)
	assert.Len(t, decoded.DM.V4.Blocks, 3)

	again, err := decoded.Encode()
	require.NoError(t, err)
	assert.Equal(t, data, again)
}

func TestInfo(t *testing.T) {
	src := newTestRPU8(t)
	data, err := src.Encode()
	require.NoError(t, err)
	decoded, err := Decode(data)
	require.NoError(t, err)

	info := decoded.Info()
	assert.Equal(t, "8", info.Profile)
	assert.True(t, info.SceneRefresh)
	assert.False(t, info.HasResidual)
	assert.Equal(t, uint16(3000), info.MaxPQ)
	assert.Equal(t, uint16(3948), info.MaxCLL)
	assert.Equal(t, uint16(358), info.MaxFALL)
}
