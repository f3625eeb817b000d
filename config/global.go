// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	cfg "github.com/cnotch/loader"
	"github.com/cnotch/rpukit/provider/auth"
	"github.com/cnotch/xlog"
)

// 服务名
const (
	Vendor  = "CAOHONGJU"
	Name    = "rpukit"
	Version = "V1.0.0"
)

var (
	globalC       *config
	consoleAppDir string
)

// InitConfig 初始化 Config
func InitConfig() {
	exe, err := os.Executable()
	if err != nil {
		xlog.Panic(err.Error())
	}

	configPath := filepath.Join(filepath.Dir(exe), Name+".conf")
	consoleAppDir = filepath.Join(filepath.Dir(exe), "console")

	globalC = new(config)
	globalC.initFlags()

	// 创建或加载配置文件
	if err := cfg.Load(globalC,
		&cfg.JSONLoader{Path: configPath, CreatedIfNonExsit: true},
		&cfg.EnvLoader{Prefix: strings.ToUpper(Name)},
		&cfg.FlagLoader{}); err != nil {
		// 异常，直接退出
		xlog.Panic(err.Error())
	}

	// 初始化日志
	globalC.Log.initLogger()
}

// Addr Listen addr
func Addr() string {
	if globalC == nil {
		return ":8000"
	}
	return globalC.ListenAddr
}

// IngestAddr 元数据推送侦听地址
func IngestAddr() string {
	if globalC == nil || globalC.IngestAddr == "" {
		return ":8554"
	}
	return globalC.IngestAddr
}

// Auth 是否启用验证
func Auth() bool {
	if globalC == nil {
		return false
	}
	return globalC.Auth
}

// CacheSize 每个流保留的 RPU 历史数量
func CacheSize() int {
	if globalC == nil || globalC.CacheSize <= 0 {
		return 64
	}
	return globalC.CacheSize
}

// ConvertWorkers 批量转换工作者数量
func ConvertWorkers() int {
	if globalC == nil || globalC.ConvertWorkers <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return globalC.ConvertWorkers
}

// Profile 是否启动 Http Profile
func Profile() bool {
	if globalC == nil {
		return false
	}
	return globalC.Profile
}

// GetTLSConfig 获取TLSConfig
func GetTLSConfig() *TLSConfig {
	if globalC == nil {
		return nil
	}
	return globalC.TLS
}

// ConsoleAppDir 管理员控制台应用的目录
func ConsoleAppDir() (string, bool) {
	if consoleAppDir == "" {
		return "", false
	}
	finfo, err := os.Stat(consoleAppDir)
	if err != nil || !finfo.IsDir() {
		return "", false
	}
	return consoleAppDir, true
}

// NetTimeout 返回网络超时设置
func NetTimeout() time.Duration {
	return time.Second * 45
}

// NetHeartbeatInterval 返回网络心跳间隔
func NetHeartbeatInterval() time.Duration {
	return time.Second * 30
}

// NetBufferSize 网络通讯时的BufferSize
func NetBufferSize() int {
	return 128 * 1024
}

// NetFlushRate 网络刷新频率
func NetFlushRate() int {
	return 30
}

// IngestAuthMode 采集端认证模式
func IngestAuthMode() auth.Mode {
	if globalC == nil || !globalC.Auth {
		return auth.NoneAuth
	}
	return auth.BasicAuth
}

// LoadUsersProvider 加载用户提供者
func LoadUsersProvider(providers ...Provider) Provider {
	if globalC == nil {
		return LoadProvider(nil, providers...)
	}
	return LoadProvider(globalC.Users, providers...)
}
