// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"strings"

	cfg "github.com/cnotch/loader"
	"github.com/cnotch/vadec/decoder"
	"github.com/cnotch/xlog"
)

// 服务名
const (
	Vendor  = "CAOHONGJU"
	Name    = "vadec"
	Version = "V1.0.0"
)

var (
	globalC *config
)

// InitConfig 初始化 Config
func InitConfig() {
	exe, err := os.Executable()
	if err != nil {
		xlog.Panic(err.Error())
	}

	configPath := filepath.Join(filepath.Dir(exe), Name+".conf")

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
	if globalC == nil || globalC.ListenAddr == "" {
		return ":8088"
	}
	return globalC.ListenAddr
}

// Profile 是否启动 Http Profile
func Profile() bool {
	if globalC == nil {
		return false
	}
	return globalC.Profile
}

// DecoderOptions 解码会话选项
func DecoderOptions() []decoder.Option {
	if globalC == nil {
		return nil
	}
	return globalC.Decoder.Options()
}

// MaxPoolSize 输出缓冲池上限
func MaxPoolSize() int {
	if globalC == nil || globalC.Decoder.MaxPoolSize < 0 {
		return 0
	}
	return globalC.Decoder.MaxPoolSize
}

// Demo 演示会话配置
func Demo() DemoConfig {
	if globalC == nil {
		return DemoConfig{}
	}
	demo := globalC.Demo
	if demo.FPS <= 0 {
		demo.FPS = 25
	}
	if demo.Width <= 0 || demo.Height <= 0 {
		demo.Width, demo.Height = 1280, 720
	}
	return demo
}

// LoadBackendProvider 加载加速器后端提供者
func LoadBackendProvider(providers ...Provider) (Provider, error) {
	if globalC == nil {
		return LoadProvider(nil, providers...)
	}
	return LoadProvider(globalC.Backend, providers...)
}
