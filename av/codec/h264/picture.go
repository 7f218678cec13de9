// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package h264

import "github.com/cnotch/vadec/video"

// PictureField 图像的场属性
type PictureField int

// 场属性
const (
	FieldFrame PictureField = iota
	FieldTopField
	FieldBottomField
)

// String returns the field name.
func (f PictureField) String() string {
	switch f {
	case FieldFrame:
		return "frame"
	case FieldTopField:
		return "top"
	case FieldBottomField:
		return "bottom"
	default:
		return "unknown"
	}
}

// Reference 参考图像标记 (8.2.5)
type Reference int

// 参考标记
const (
	RefNone Reference = iota
	RefShortTerm
	RefLongTerm
)

// Picture 解码图像，可以是帧或场。
// 由外部 DPB 持有并维护参考标记，会话控制器只读。
type Picture struct {
	PicOrderCnt         int32
	TopFieldOrderCnt    int32
	BottomFieldOrderCnt int32

	FrameNum         uint16
	LongTermFrameIdx int32
	NalRefIdc        uint8

	Ref   Reference
	Field PictureField

	// OtherField 同一帧的另一场
	OtherField  *Picture
	SecondField bool

	// BufferFlags 输出时需要设置到输出缓冲的标志
	BufferFlags       video.BufferFlags
	SystemFrameNumber uint32
}

// IsFrame .
func (p *Picture) IsFrame() bool { return p.Field == FieldFrame }

// IsRef .
func (p *Picture) IsRef() bool { return p.Ref != RefNone }

// IsShortTermRef .
func (p *Picture) IsShortTermRef() bool { return p.Ref == RefShortTerm }

// IsLongTermRef .
func (p *Picture) IsLongTermRef() bool { return p.Ref == RefLongTerm }

// DPB 解码图像缓冲的查询接口。
// 返回的图像顺序由实现决定，调用方不得重排。
type DPB interface {
	ShortTermRefs() []*Picture
	LongTermRefs() []*Picture
}
