// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"flag"
)

// config 服务配置
type config struct {
	ListenAddr     string          `json:"listen"`          // 服务侦听地址和端口
	IngestAddr     string          `json:"ingest_listen"`   // 元数据推送侦听地址和端口
	Auth           bool            `json:"auth"`            // 启用安全验证
	CacheSize      int             `json:"cache_size"`      // 每个流保留的 RPU 历史数量
	ConvertWorkers int             `json:"convert_workers"` // 批量转换工作者数量，0 表示按 CPU 数
	Profile        bool            `json:"profile"`         // 是否启动Profile
	TLS            *TLSConfig      `json:"tls,omitempty"`   // https安全端口交互
	Users          *ProviderConfig `json:"users,omitempty"` // 用户
	Log            LogConfig       `json:"log"`             // 日志配置
}

func (c *config) initFlags() {
	// 服务的端口
	flag.StringVar(&c.ListenAddr, "listen", ":8000", "Set server listen address")
	flag.StringVar(&c.IngestAddr, "ingest", ":8554", "Set metadata ingest listen address")
	flag.BoolVar(&c.Auth, "auth", false,
		"Determines if requires permission verification to access metadata streams")
	flag.IntVar(&c.CacheSize, "cachesize", 64,
		"Set the count of decoded RPUs retained per stream")
	flag.IntVar(&c.ConvertWorkers, "convertworkers", 0,
		"Set the worker count for batch conversion, 0 means GOMAXPROCS")
	flag.BoolVar(&c.Profile, "pprof", false,
		"Determines if profile enabled")

	// 初始化日志配置
	c.Log.initFlags()
}
