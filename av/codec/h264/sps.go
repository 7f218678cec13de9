// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package h264

// SPSExtMVC 序列参数集的 MVC 扩展（只保留解码会话需要的部分）
type SPSExtMVC struct {
	NumViewsMinus1 uint16
}

// SPS 已解析的序列参数集。
// 字段名与 7.3.2.1.1 中的句法元素一一对应，Width 以下为推导值。
type SPS struct {
	ID uint8

	// 指明所用  profile、level、及对附录A.2的遵循情况
	ProfileIdc         Profile
	ConstraintSet0Flag uint8
	ConstraintSet1Flag uint8
	ConstraintSet2Flag uint8
	ConstraintSet3Flag uint8
	ConstraintSet4Flag uint8
	ConstraintSet5Flag uint8
	LevelIdc           uint8

	ChromaFormatIdc         uint8
	SeparateColourPlaneFlag uint8
	BitDepthLumaMinus8      uint8
	BitDepthChromaMinus8    uint8

	// MaxFrameNum = 2*exp( Log2MaxFrameNumMinus4 + 4 )
	Log2MaxFrameNumMinus4       uint8
	PicOrderCntType             uint8
	Log2MaxPicOrderCntLsbMinus4 uint8
	DeltaPicOrderAlwaysZeroFlag uint8

	// H.264 规定最多可用 16 个参考帧
	NumRefFrames                   uint8
	GapsInFrameNumValueAllowedFlag uint8

	PicWidthInMbsMinus1       uint16
	PicHeightInMapUnitsMinus1 uint16

	// frame_mbs_only_flag 等于 0 时序列中可能存在场编码
	FrameMbsOnlyFlag         uint8
	MbAdaptiveFrameFieldFlag uint8
	Direct8x8InferenceFlag   uint8

	FrameCroppingFlag     uint8
	FrameCropLeftOffset   uint16
	FrameCropRightOffset  uint16
	FrameCropTopOffset    uint16
	FrameCropBottomOffset uint16

	ExtensionType uint8
	MVC           SPSExtMVC

	// 推导值，见 Finalize
	Width          int
	Height         int
	CropRectX      int
	CropRectY      int
	CropRectWidth  int
	CropRectHeight int
}

// ChromaArrayType 7.4.2.1.1
func (sps *SPS) ChromaArrayType() uint8 {
	if sps.SeparateColourPlaneFlag != 0 {
		return 0
	}
	return sps.ChromaFormatIdc
}

// NumViews returns 1 plus num_views_minus1 for MVC streams, otherwise 1.
func (sps *SPS) NumViews() int {
	if sps.ExtensionType == NalExtensionMVC {
		return 1 + int(sps.MVC.NumViewsMinus1)
	}
	return 1
}

// Finalize 根据句法元素计算宽高和裁剪矩形
func (sps *SPS) Finalize() {
	sps.Width = (int(sps.PicWidthInMbsMinus1) + 1) * 16
	sps.Height = (2 - int(sps.FrameMbsOnlyFlag)) * (int(sps.PicHeightInMapUnitsMinus1) + 1) * 16

	if sps.FrameCroppingFlag == 0 {
		sps.CropRectX, sps.CropRectY = 0, 0
		sps.CropRectWidth, sps.CropRectHeight = sps.Width, sps.Height
		return
	}

	// Table 6-1, 7.4.2.1.1 CropUnitX / CropUnitY
	cropUnitX, cropUnitY := 1, 2-int(sps.FrameMbsOnlyFlag)
	switch sps.ChromaArrayType() {
	case Chroma420:
		cropUnitX *= 2
		cropUnitY *= 2
	case Chroma422:
		cropUnitX *= 2
	}

	sps.CropRectX = int(sps.FrameCropLeftOffset) * cropUnitX
	sps.CropRectY = int(sps.FrameCropTopOffset) * cropUnitY
	sps.CropRectWidth = sps.Width - (int(sps.FrameCropLeftOffset)+int(sps.FrameCropRightOffset))*cropUnitX
	sps.CropRectHeight = sps.Height - (int(sps.FrameCropTopOffset)+int(sps.FrameCropBottomOffset))*cropUnitY
}
