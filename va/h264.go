// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package va

// PictureH264 flags
const (
	PictureH264Invalid            uint32 = 0x00000001
	PictureH264TopField           uint32 = 0x00000002
	PictureH264BottomField        uint32 = 0x00000004
	PictureH264ShortTermReference uint32 = 0x00000008
	PictureH264LongTermReference  uint32 = 0x00000010
)

// SliceDataFlagAll 片数据完整地包含在一个缓冲中
const SliceDataFlagAll uint32 = 0x00

// PictureH264 参考图像描述
type PictureH264 struct {
	PictureID           SurfaceID
	FrameIdx            uint32
	Flags               uint32
	TopFieldOrderCnt    int32
	BottomFieldOrderCnt int32
}

// Invalidate 置为无效的占位记录
func (p *PictureH264) Invalidate() {
	*p = PictureH264{
		PictureID: InvalidSurface,
		Flags:     PictureH264Invalid,
	}
}

// IsInvalid .
func (p *PictureH264) IsInvalid() bool {
	return p.Flags&PictureH264Invalid != 0
}

// SeqFieldsH264 序列级位域
type SeqFieldsH264 struct {
	ChromaFormatIdc                uint8
	ResidualColourTransformFlag    uint8
	GapsInFrameNumValueAllowedFlag uint8
	FrameMbsOnlyFlag               uint8
	MbAdaptiveFrameFieldFlag       uint8
	Direct8x8InferenceFlag         uint8
	MinLumaBiPredSize8x8           uint8
	Log2MaxFrameNumMinus4          uint8
	PicOrderCntType                uint8
	Log2MaxPicOrderCntLsbMinus4    uint8
	DeltaPicOrderAlwaysZeroFlag    uint8
}

// PicFieldsH264 图像级位域
type PicFieldsH264 struct {
	EntropyCodingModeFlag              uint8
	WeightedPredFlag                   uint8
	WeightedBipredIdc                  uint8
	Transform8x8ModeFlag               uint8
	FieldPicFlag                       uint8
	ConstrainedIntraPredFlag           uint8
	PicOrderPresentFlag                uint8
	DeblockingFilterControlPresentFlag uint8
	RedundantPicCntPresentFlag         uint8
	ReferencePicFlag                   uint8
}

// PictureParameterBufferH264 图像参数缓冲
type PictureParameterBufferH264 struct {
	CurrPic         PictureH264
	ReferenceFrames [16]PictureH264

	PictureWidthInMbsMinus1  uint16
	PictureHeightInMbsMinus1 uint16
	BitDepthLumaMinus8       uint8
	BitDepthChromaMinus8     uint8
	NumRefFrames             uint8
	SeqFields                SeqFieldsH264

	PicInitQpMinus26          int8
	PicInitQsMinus26          int8
	ChromaQpIndexOffset       int8
	SecondChromaQpIndexOffset int8
	PicFields                 PicFieldsH264
	FrameNum                  uint16
}

// IQMatrixBufferH264 缩放矩阵缓冲，光栅顺序。
// 8x8 保留 6 个以容纳 4:4:4 的 Cb/Cr 矩阵。
type IQMatrixBufferH264 struct {
	ScalingList4x4 [6][16]uint8
	ScalingList8x8 [6][64]uint8
}

// SliceParameterBufferH264 片参数缓冲
type SliceParameterBufferH264 struct {
	SliceDataSize      uint32
	SliceDataOffset    uint32
	SliceDataFlag      uint32
	SliceDataBitOffset uint16

	FirstMbInSlice             uint16
	SliceType                  uint8
	DirectSpatialMvPredFlag    uint8
	NumRefIdxL0ActiveMinus1    uint8
	NumRefIdxL1ActiveMinus1    uint8
	CabacInitIdc               uint8
	SliceQpDelta               int8
	DisableDeblockingFilterIdc uint8
	SliceAlphaC0OffsetDiv2     int8
	SliceBetaOffsetDiv2        int8

	RefPicList0 [32]PictureH264
	RefPicList1 [32]PictureH264

	LumaLog2WeightDenom   uint8
	ChromaLog2WeightDenom uint8

	LumaWeightL0Flag   uint8
	LumaWeightL0       [32]int16
	LumaOffsetL0       [32]int16
	ChromaWeightL0Flag uint8
	ChromaWeightL0     [32][2]int16
	ChromaOffsetL0     [32][2]int16

	LumaWeightL1Flag   uint8
	LumaWeightL1       [32]int16
	LumaOffsetL1       [32]int16
	ChromaWeightL1Flag uint8
	ChromaWeightL1     [32][2]int16
	ChromaOffsetL1     [32][2]int16
}
