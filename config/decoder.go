// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"flag"

	"github.com/cnotch/vadec/decoder"
)

// DecoderConfig 解码会话配置
type DecoderConfig struct {
	// CopyFrames 输出前把 surface 拷贝到线性缓冲
	CopyFrames bool `json:"copy_frames"`
	// VAMemory 优先协商 memory:VAMemory 输出
	VAMemory bool `json:"va_memory"`
	// PoolMargin 在 DPB 之外额外保留的 surface 数
	PoolMargin int `json:"pool_margin"`
	// MaxPoolSize 输出缓冲池上限，0 表示不限
	MaxPoolSize int `json:"max_pool_size"`
}

func (c *DecoderConfig) initFlags() {
	flag.BoolVar(&c.CopyFrames, "copy-frames", true,
		"Determines if decoded surfaces are copied to linear output buffers")
	flag.BoolVar(&c.VAMemory, "va-memory", false,
		"Determines if VA memory output is preferred")
	flag.IntVar(&c.PoolMargin, "pool-margin", decoder.DefaultPoolMargin,
		"Set the number of spare surfaces beyond the DPB")
	flag.IntVar(&c.MaxPoolSize, "max-pool-size", 0,
		"Set the maximum number of output buffers, 0 means unlimited")
}

// Options 转换成解码会话选项
func (c *DecoderConfig) Options() []decoder.Option {
	opts := []decoder.Option{
		decoder.WithCopyFrames(c.CopyFrames),
		decoder.WithVAMemory(c.VAMemory),
	}
	if c.PoolMargin >= 0 {
		opts = append(opts, decoder.WithPoolMargin(c.PoolMargin))
	}
	return opts
}
