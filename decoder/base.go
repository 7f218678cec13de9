// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package decoder

import (
	"github.com/cnotch/vadec/va"
	"github.com/cnotch/vadec/video"
	"github.com/cnotch/xlog"
)

// BaseDec 与编码格式无关的加速器会话状态
type BaseDec struct {
	decoder va.Decoder
	sink    video.Sink
	alloc   video.Allocator

	copyFrames bool
	vaMemory   bool
	poolMargin int

	profile     va.Profile
	rtFormat    va.RTFormat
	codedWidth  int
	codedHeight int
	minBuffers  int

	needNegotiation bool
	outputState     *video.OutputState

	logger *xlog.Logger
}

// Decoder 会话使用的加速器后端
func (b *BaseDec) Decoder() va.Decoder {
	return b.decoder
}

// copyOutputBuffer 把 surface 内容读入系统内存，失败时保留原缓冲继续输出
func (b *BaseDec) copyOutputBuffer(frame *video.CodecFrame, surface va.SurfaceID) {
	buf := frame.OutputBuffer
	if len(buf.Data) == 0 && b.outputState != nil {
		buf.Data = make([]byte, b.outputState.Info.Size())
	}
	if _, err := b.decoder.ReadSurface(surface, buf.Data); err != nil {
		b.logger.Warnf("failed to copy output buffer; %v", err)
	}
}
