// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rpu

import "fmt"

// Convert 原地把 RPU 改写为目标档次，不改变画面映射语义。
// 映射曲线从不被触碰：零枢轴直通曲线对所有档次都合法，原样通过。
// 目标档次需要源中不存在的数据时返回 ErrUnsupportedConversion；
// 校验和不在此处维护，下一次 Encode 会重新计算。
func Convert(rpu *RPU, target Profile) error {
	src := rpu.Profile()
	if src == target {
		normalizeActiveArea(rpu)
		return nil
	}

	switch target {
	case Profile8:
		switch src {
		case Profile7, Profile4:
			stripEnhancement(rpu)
		case Profile5:
			h := &rpu.Header
			h.Profile = 1
			h.BLVideoFullRange = false
			h.DisableResidual = true
			h.ELSpatialResamplingFilter = false
		default:
			return conversionError(src, target)
		}

	case Profile5:
		if src != Profile8 {
			return conversionError(src, target)
		}
		h := &rpu.Header
		h.Profile = 0
		h.BLVideoFullRange = true
		h.DisableResidual = true
		h.ELSpatialResamplingFilter = false

	default:
		// 4/7 需要源里本就没有的增强层数据
		return conversionError(src, target)
	}

	normalizeActiveArea(rpu)
	return nil
}

func conversionError(src, target Profile) error {
	return fmt.Errorf("%w: profile %s to %s", ErrUnsupportedConversion, src, target)
}

// stripEnhancement 去除增强层依赖：丢弃残差层并清除相应标志，
// 映射曲线保持不动。
func stripEnhancement(rpu *RPU) {
	h := &rpu.Header
	rpu.Residual = nil
	h.DisableResidual = true
	h.ELSpatialResamplingFilter = false
	h.Profile = 1
	h.BLVideoFullRange = false
}

// normalizeActiveArea 把 DM 列表中的活动区域块收敛为一个：
// 不同档次变体会重复编码同一矩形，保留首个即可。
func normalizeActiveArea(rpu *RPU) {
	if rpu.DM == nil {
		return
	}
	rpu.DM.Blocks = dedupLevel5(rpu.DM.Blocks)
	if rpu.DM.V4 != nil {
		rpu.DM.V4.Blocks = dedupLevel5(rpu.DM.V4.Blocks)
	}
}

func dedupLevel5(blocks []Block) []Block {
	seen := false
	kept := blocks[:0]
	for _, b := range blocks {
		if b.Level() == 5 {
			if seen {
				continue
			}
			seen = true
		}
		kept = append(kept, b)
	}
	return kept
}
