// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"flag"
)

// config 服务配置
type config struct {
	ListenAddr string          `json:"listen"`            // 服务侦听地址和端口
	Profile    bool            `json:"profile"`           // 是否启动Profile
	Decoder    DecoderConfig   `json:"decoder"`           // 解码会话配置
	Backend    *ProviderConfig `json:"backend,omitempty"` // 加速器后端
	Demo       DemoConfig      `json:"demo"`              // 演示会话
	Log        LogConfig       `json:"log"`               // 日志配置
}

func (c *config) initFlags() {
	// 服务的端口
	flag.StringVar(&c.ListenAddr, "listen", ":8088", "Set server listen address")
	flag.BoolVar(&c.Profile, "pprof", false,
		"Determines if profile enabled")

	c.Decoder.initFlags()
	c.Demo.initFlags()
	// 初始化日志配置
	c.Log.initFlags()
}

// DemoConfig 演示会话配置，用脚本化引擎驱动解码会话
type DemoConfig struct {
	Sessions int    `json:"sessions"` // 会话数，0 表示不启动
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	FPS      int    `json:"fps"`
	GOP      int    `json:"gop"`
	SPS      string `json:"sps,omitempty"` // base64 编码的 sps，设置后忽略宽高
}

func (c *DemoConfig) initFlags() {
	flag.IntVar(&c.Sessions, "demo", 0, "Set the number of demo decoder sessions")
	flag.IntVar(&c.Width, "demo-width", 1280, "Set the width of demo sequences")
	flag.IntVar(&c.Height, "demo-height", 720, "Set the height of demo sequences")
	flag.IntVar(&c.FPS, "demo-fps", 25, "Set the frame rate of demo sessions")
	flag.IntVar(&c.GOP, "demo-gop", 50, "Set the GOP size of demo sessions")
	flag.StringVar(&c.SPS, "demo-sps", "", "Set the base64 encoded SPS of demo sequences")
}
