// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rpu

import (
	"errors"
	"fmt"
)

// ErrUnsupportedConversion 目标 Profile 需要的数据在源中不存在
var ErrUnsupportedConversion = errors.New("rpu: unsupported profile conversion")

// ErrorKind 解码错误类别
type ErrorKind int

// 解码错误类别常量
const (
	Truncated           ErrorKind = iota + 1 // 剩余位数少于字段声明
	ValueOutOfRange                          // 字段值超出格式的合法域
	BlockLengthMismatch                      // 扩展块实际消费与声明长度不符
	BlockCountMismatch                       // 扩展块个数与声明不符
	ChecksumMismatch                         // 校验和验证失败
)

func (k ErrorKind) String() string {
	switch k {
	case Truncated:
		return "truncated input"
	case ValueOutOfRange:
		return "value out of range"
	case BlockLengthMismatch:
		return "block length mismatch"
	case BlockCountMismatch:
		return "block count mismatch"
	case ChecksumMismatch:
		return "checksum mismatch"
	}
	return "unknown"
}

// 解码区域，用于定位错误发生的语法段
const (
	RegionHeader   = "header"
	RegionMapping  = "mapping"
	RegionResidual = "residual"
	RegionDM       = "dm"
	RegionTrailer  = "trailer"
)

// DecodeError 带位置上下文的解码错误。
// 调用方可据此记录并跳过单个损坏的载荷，而不中断整批作业。
type DecodeError struct {
	Kind   ErrorKind
	Region string
	Offset int // 位偏移
	Msg    string
}

func (e *DecodeError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("rpu: %s in %s region at bit %d", e.Kind, e.Region, e.Offset)
	}
	return fmt.Sprintf("rpu: %s in %s region at bit %d: %s", e.Kind, e.Region, e.Offset, e.Msg)
}

// KindOf 提取错误的类别；非 DecodeError 返回 0。
func KindOf(err error) ErrorKind {
	var de *DecodeError
	if errors.As(err, &de) {
		return de.Kind
	}
	return 0
}
