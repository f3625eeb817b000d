// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/cnotch/rpukit/av/rpu"
	"github.com/cnotch/rpukit/config"
	"github.com/cnotch/rpukit/media"
	"github.com/cnotch/rpukit/provider/auth"
	"github.com/cnotch/rpukit/service"
	"github.com/cnotch/scheduler"
	"github.com/cnotch/xlog"
)

func main() {
	// 离线转换模式: rpukit convert <src> <dst> <profile>
	if len(os.Args) == 5 && os.Args[1] == "convert" {
		convertAndExit(os.Args[2], os.Args[3], os.Args[4])
	}

	// 初始化配置
	config.InitConfig()
	// 初始化全局计划任务
	scheduler.SetPanicHandler(func(job *scheduler.ManagedJob, r interface{}) {
		xlog.Errorf("scheduler task panic. tag: %v, recover: %v", job.Tag, r)
	})

	// 用户提供者
	userProvider := config.LoadUsersProvider(auth.JSON)
	auth.Reset(userProvider.(auth.UserProvider))

	// Start new service
	svc, err := service.NewService(context.Background(), xlog.L())
	if err != nil {
		xlog.L().Panic(err.Error())
	}

	// Listen and serve
	svc.Listen()
}

func convertAndExit(src, dst, profile string) {
	target, ok := rpu.ParseProfile(profile)
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown target profile: %s\n", profile)
		os.Exit(1)
	}

	if err := media.ConvertFile(src, dst, target); err != nil {
		fmt.Fprintf(os.Stderr, "convert failed: %v\n", err)
		os.Exit(1)
	}
	os.Exit(0)
}
