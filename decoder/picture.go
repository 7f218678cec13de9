// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package decoder

import (
	"github.com/cnotch/vadec/av/codec/h264"
	"github.com/cnotch/vadec/va"
)

// fillPicture 把图像投影为硬件参考图像描述。
// 图像为空或没有 surface 时填入无效记录；mergeOtherField 为真时从配对场取另一场的 POC。
func fillPicture(dst *va.PictureH264, pic *h264.Picture, surfaces *surfaceTable, mergeOtherField bool) {
	surface, ok := surfaces.surfaceOf(pic)
	if !ok {
		dst.Invalidate()
		return
	}

	dst.PictureID = surface
	dst.Flags = 0

	if pic.IsLongTermRef() {
		dst.Flags |= va.PictureH264LongTermReference
		dst.FrameIdx = uint32(pic.LongTermFrameIdx)
	} else {
		if pic.IsShortTermRef() {
			dst.Flags |= va.PictureH264ShortTermReference
		}
		dst.FrameIdx = uint32(pic.FrameNum)
	}

	switch pic.Field {
	case h264.FieldFrame:
		dst.TopFieldOrderCnt = pic.TopFieldOrderCnt
		dst.BottomFieldOrderCnt = pic.BottomFieldOrderCnt
	case h264.FieldTopField:
		if mergeOtherField && pic.OtherField != nil {
			dst.BottomFieldOrderCnt = pic.OtherField.BottomFieldOrderCnt
		} else {
			dst.Flags |= va.PictureH264TopField
			dst.BottomFieldOrderCnt = 0
		}
		dst.TopFieldOrderCnt = pic.TopFieldOrderCnt
	case h264.FieldBottomField:
		if mergeOtherField && pic.OtherField != nil {
			dst.TopFieldOrderCnt = pic.OtherField.TopFieldOrderCnt
		} else {
			dst.Flags |= va.PictureH264BottomField
			dst.TopFieldOrderCnt = 0
		}
		dst.BottomFieldOrderCnt = pic.BottomFieldOrderCnt
	default:
		dst.TopFieldOrderCnt = 0
		dst.BottomFieldOrderCnt = 0
	}
}

// fillRefPicList 按引擎给出的顺序填充 32 项的硬件参考列表。
// 列表中的空项和超出列表长度的位置均为无效记录。
func fillRefPicList(dst *[32]va.PictureH264, list []*h264.Picture, cur *h264.Picture, surfaces *surfaceTable) {
	merge := cur.IsFrame()

	i := 0
	for ; i < len(list) && i < len(dst); i++ {
		if list[i] == nil { // 参考图像缺失
			dst[i].Invalidate()
			continue
		}
		fillPicture(&dst[i], list[i], surfaces, merge)
	}

	for ; i < len(dst); i++ {
		dst[i].Invalidate()
	}
}
