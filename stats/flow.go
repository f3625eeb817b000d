// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package stats

import (
	"sync/atomic"
)

// FlowSample 元数据流量采样。
// 每次 AddIn/AddOut 对应一个 RPU 单元，字节数为其载荷大小。
type FlowSample struct {
	InBytes  int64 `json:"inbytes"`
	OutBytes int64 `json:"outbytes"`
	InUnits  int64 `json:"inunits"`
	OutUnits int64 `json:"outunits"`
}

// Flow 元数据流量统计接口
type Flow interface {
	AddIn(size int64)      // 记录一个输入单元
	AddOut(size int64)     // 记录一个输出单元
	GetSample() FlowSample // 获取当前时点采样
}

func (fs *FlowSample) clone() FlowSample {
	return FlowSample{
		InBytes:  atomic.LoadInt64(&fs.InBytes),
		OutBytes: atomic.LoadInt64(&fs.OutBytes),
		InUnits:  atomic.LoadInt64(&fs.InUnits),
		OutUnits: atomic.LoadInt64(&fs.OutUnits),
	}
}

// Add 采样累加
func (fs *FlowSample) Add(f FlowSample) {
	fs.InBytes += f.InBytes
	fs.OutBytes += f.OutBytes
	fs.InUnits += f.InUnits
	fs.OutUnits += f.OutUnits
}

type flow struct {
	sample FlowSample
}

// NewFlow 创建流量统计
func NewFlow() Flow {
	return &flow{}
}

func (r *flow) AddIn(size int64) {
	atomic.AddInt64(&r.sample.InBytes, size)
	atomic.AddInt64(&r.sample.InUnits, 1)
}

func (r *flow) AddOut(size int64) {
	atomic.AddInt64(&r.sample.OutBytes, size)
	atomic.AddInt64(&r.sample.OutUnits, 1)
}

func (r *flow) GetSample() FlowSample {
	return r.sample.clone()
}

type childFlow struct {
	parent Flow
	sample FlowSample
}

// NewChildFlow 创建子流量计数，它会把自己的计数Add到parent上
func NewChildFlow(parent Flow) Flow {
	return &childFlow{
		parent: parent,
	}
}

func (r *childFlow) AddIn(size int64) {
	atomic.AddInt64(&r.sample.InBytes, size)
	atomic.AddInt64(&r.sample.InUnits, 1)
	r.parent.AddIn(size)
}

func (r *childFlow) AddOut(size int64) {
	atomic.AddInt64(&r.sample.OutBytes, size)
	atomic.AddInt64(&r.sample.OutUnits, 1)
	r.parent.AddOut(size)
}

func (r *childFlow) GetSample() FlowSample {
	return r.sample.clone()
}
