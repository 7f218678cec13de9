// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"context"

	"github.com/cnotch/scheduler"
	"github.com/cnotch/vadec/config"
	"github.com/cnotch/vadec/service"
	"github.com/cnotch/vadec/va"
	"github.com/cnotch/vadec/va/memdrv"
	"github.com/cnotch/xlog"
)

func main() {
	// 初始化配置
	config.InitConfig()
	// 初始化全局计划任务
	scheduler.SetPanicHandler(func(job *scheduler.ManagedJob, r interface{}) {
		xlog.Errorf("scheduler task panic. tag: %v, recover: %v", job.Tag, r)
	})

	// 加速器后端提供者
	provider, err := config.LoadBackendProvider(memdrv.Provider)
	if err != nil {
		xlog.L().Panic(err.Error())
	}
	backend := provider.(va.Backend)

	// Start new service
	svc, err := service.NewService(context.Background(), backend, xlog.L())
	if err != nil {
		xlog.L().Panic(err.Error())
	}

	// 演示会话
	if err = svc.StartDemo(config.Demo()); err != nil {
		xlog.L().Panic(err.Error())
	}

	// Listen and serve
	svc.Listen()
}
