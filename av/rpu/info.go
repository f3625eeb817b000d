// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rpu

// Info RPU 摘要，供 API 和订阅者只读消费。
type Info struct {
	Profile      string `json:"profile"`
	SceneRefresh bool   `json:"scene_refresh"`
	HasResidual  bool   `json:"has_residual"`
	BlockCount   int    `json:"block_count"`

	// 场景亮度统计（L1 块）
	MinPQ uint16 `json:"min_pq"`
	MaxPQ uint16 `json:"max_pq"`
	AvgPQ uint16 `json:"avg_pq"`

	// 母版显示（L6 块）
	MaxCLL  uint16 `json:"max_cll"`
	MaxFALL uint16 `json:"max_fall"`
}

// Info 提取摘要
func (rpu *RPU) Info() Info {
	info := Info{
		Profile:     rpu.Profile().String(),
		HasResidual: rpu.Residual != nil,
	}

	dm := rpu.DM
	if dm == nil {
		return info
	}

	info.SceneRefresh = dm.SceneRefreshed()
	info.BlockCount = len(dm.Blocks)
	if dm.V4 != nil {
		info.BlockCount += len(dm.V4.Blocks)
	}

	if b, ok := dm.FirstLevel(1).(*BlockLevel1); ok {
		info.MinPQ, info.MaxPQ, info.AvgPQ = b.MinPQ, b.MaxPQ, b.AvgPQ
	}
	if b, ok := dm.FirstLevel(6).(*BlockLevel6); ok {
		info.MaxCLL = b.MaxContentLightLevel
		info.MaxFALL = b.MaxFrameAverageLightLevel
	}
	return info
}
