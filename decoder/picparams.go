// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package decoder

import (
	"github.com/cnotch/vadec/av/codec/h264"
	"github.com/cnotch/vadec/va"
)

// maxReferenceFrames 图像参数中参考帧数组的长度
const maxReferenceFrames = 16

// buildPictureParams 由 SPS/PPS、片头和 DPB 构建图像参数
func buildPictureParams(pic *h264.Picture, slice *h264.Slice, dpb h264.DPB,
	surfaces *surfaceTable) *va.PictureParameterBufferH264 {
	pps := slice.Header.PPS
	sps := pps.Sequence

	frameMbsOnly := uint(sps.FrameMbsOnlyFlag & 1)
	params := &va.PictureParameterBufferH264{
		PictureWidthInMbsMinus1:  sps.PicWidthInMbsMinus1,
		PictureHeightInMbsMinus1: ((sps.PicHeightInMapUnitsMinus1 + 1) << (1 - frameMbsOnly)) - 1,
		BitDepthLumaMinus8:       sps.BitDepthLumaMinus8,
		BitDepthChromaMinus8:     sps.BitDepthChromaMinus8,
		NumRefFrames:             sps.NumRefFrames,
		SeqFields: va.SeqFieldsH264{
			ChromaFormatIdc:                sps.ChromaFormatIdc,
			ResidualColourTransformFlag:    sps.SeparateColourPlaneFlag,
			GapsInFrameNumValueAllowedFlag: sps.GapsInFrameNumValueAllowedFlag,
			FrameMbsOnlyFlag:               sps.FrameMbsOnlyFlag,
			MbAdaptiveFrameFieldFlag:       sps.MbAdaptiveFrameFieldFlag,
			Direct8x8InferenceFlag:         sps.Direct8x8InferenceFlag,
			MinLumaBiPredSize8x8:           boolToFlag(sps.LevelIdc >= 31), // A.3.3.2
			Log2MaxFrameNumMinus4:          sps.Log2MaxFrameNumMinus4,
			PicOrderCntType:                sps.PicOrderCntType,
			Log2MaxPicOrderCntLsbMinus4:    sps.Log2MaxPicOrderCntLsbMinus4,
			DeltaPicOrderAlwaysZeroFlag:    sps.DeltaPicOrderAlwaysZeroFlag,
		},
		PicInitQpMinus26:          pps.PicInitQpMinus26,
		PicInitQsMinus26:          pps.PicInitQsMinus26,
		ChromaQpIndexOffset:       pps.ChromaQpIndexOffset,
		SecondChromaQpIndexOffset: pps.SecondChromaQpIndexOffset,
		PicFields: va.PicFieldsH264{
			EntropyCodingModeFlag:              pps.EntropyCodingModeFlag,
			WeightedPredFlag:                   pps.WeightedPredFlag,
			WeightedBipredIdc:                  pps.WeightedBipredIdc,
			Transform8x8ModeFlag:               pps.Transform8x8ModeFlag,
			FieldPicFlag:                       slice.Header.FieldPicFlag,
			ConstrainedIntraPredFlag:           pps.ConstrainedIntraPredFlag,
			PicOrderPresentFlag:                pps.PicOrderPresentFlag,
			DeblockingFilterControlPresentFlag: pps.DeblockingFilterControlPresentFlag,
			RedundantPicCntPresentFlag:         pps.RedundantPicCntPresentFlag,
			ReferencePicFlag:                   boolToFlag(pic.NalRefIdc != 0),
		},
		FrameNum: slice.Header.FrameNum,
	}

	fillPicture(&params.CurrPic, pic, surfaces, false)

	// 先短期参考后长期参考，保持 DPB 给出的顺序
	n := 0
	for _, refs := range [][]*h264.Picture{dpb.ShortTermRefs(), dpb.LongTermRefs()} {
		for i := 0; i < len(refs) && n < maxReferenceFrames; i++ {
			fillPicture(&params.ReferenceFrames[n], refs[i], surfaces, true)
			n++
		}
	}
	for ; n < maxReferenceFrames; n++ {
		params.ReferenceFrames[n].Invalidate()
	}

	return params
}

// buildIQMatrix 把 zig-zag 顺序的缩放矩阵转为光栅顺序。
// 4x4 总是 6 个；8x8 通常只用前 2 个（Y 的帧内和帧间），4:4:4 时用满 6 个。
func buildIQMatrix(pps *h264.PPS) *va.IQMatrixBufferH264 {
	iq := &va.IQMatrixBufferH264{}

	for i := 0; i < 6; i++ {
		h264.Raster4x4FromZigzag(&iq.ScalingList4x4[i], &pps.ScalingLists4x4[i])
	}

	n := 2
	if pps.Sequence.ChromaFormatIdc == h264.Chroma444 {
		n = 6
	}
	for i := 0; i < n; i++ {
		h264.Raster8x8FromZigzag(&iq.ScalingList8x8[i], &pps.ScalingLists8x8[i])
	}
	return iq
}

func boolToFlag(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
