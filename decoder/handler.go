// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package decoder

import (
	"github.com/cnotch/vadec/av/codec/h264"
	"github.com/cnotch/vadec/video"
)

// SequenceHandler 处理新的序列参数集
type SequenceHandler interface {
	NewSequence(sps *h264.SPS, maxDpbSize int) error
}

// PictureHandler 图像生命周期回调，由码流解码引擎按顺序调用：
//
//	NewPicture/NewFieldPicture -> StartPicture -> DecodeSlice* -> EndPicture -> OutputPicture
//
// 图像可以在 DPB 中停留，OutputPicture 可以晚于后续图像的解码。
type PictureHandler interface {
	NewPicture(frame *video.CodecFrame, pic *h264.Picture) error
	NewFieldPicture(first, second *h264.Picture) error
	StartPicture(pic *h264.Picture, slice *h264.Slice, dpb h264.DPB) error
	DecodeSlice(pic *h264.Picture, slice *h264.Slice, refList0, refList1 []*h264.Picture) error
	EndPicture(pic *h264.Picture) error
	OutputPicture(frame *video.CodecFrame, pic *h264.Picture) error
}

// PictureReleaser 管理图像的引用。
// 图像创建时带一个引用：帧和第一场由 OutputPicture 释放，第二场由引擎丢弃它时调用 ReleasePicture 释放。
// 引擎把图像放入 DPB 时调用 RefPicture，移出时调用 ReleasePicture。
type PictureReleaser interface {
	RefPicture(pic *h264.Picture)
	ReleasePicture(pic *h264.Picture)
}

// Handler 引擎需要的全部回调
type Handler interface {
	SequenceHandler
	PictureHandler
	PictureReleaser
}
