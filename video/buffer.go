// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package video

import (
	"strings"
	"time"
)

// BufferFlags 输出缓冲标志
type BufferFlags uint32

// 缓冲标志
const (
	BufferFlagInterlaced BufferFlags = 1 << iota // 隔行
	BufferFlagTFF                                // 顶场优先
	BufferFlagRFF                                // 重复场
	BufferFlagOneField                           // 只有一场
	BufferFlagCorrupted                          // 数据可能损坏
)

var bufferFlagNames = []struct {
	flag BufferFlags
	name string
}{
	{BufferFlagInterlaced, "interlaced"},
	{BufferFlagTFF, "tff"},
	{BufferFlagRFF, "rff"},
	{BufferFlagOneField, "one-field"},
	{BufferFlagCorrupted, "corrupted"},
}

// Has 是否包含指定标志
func (f BufferFlags) Has(flag BufferFlags) bool {
	return f&flag == flag
}

// String returns the flag names joined by '+'.
func (f BufferFlags) String() string {
	if f == 0 {
		return "none"
	}
	var names []string
	for _, n := range bufferFlagNames {
		if f&n.flag != 0 {
			names = append(names, n.name)
		}
	}
	return strings.Join(names, "+")
}

// Buffer 输出缓冲。
// 显存模式下 Surface 指向加速器的 surface，Data 为空；
// 拷贝模式下解码结果从 surface 读入 Data。
type Buffer struct {
	Flags    BufferFlags
	Features CapsFeatures
	Surface  uint32
	Data     []byte

	pool *BufferPool
	gen  int
	refs int
}

// Ref 增加引用，解码图像在销毁前持有输出缓冲的引用
func (b *Buffer) Ref() {
	if b.pool != nil {
		b.pool.ref(b)
	}
}

// Release 释放引用，最后一个引用释放时缓冲回到所属的池
func (b *Buffer) Release() {
	if b.pool != nil {
		b.pool.release(b)
	}
}

// CodecFrame 解码帧
type CodecFrame struct {
	SystemFrameNumber uint32
	Pts               time.Duration
	Dts               time.Duration
	OutputBuffer      *Buffer
}
