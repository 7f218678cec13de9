// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package h264

// PPS 已解析的图像参数集 (7.3.2.2)。
// 缩放矩阵保持码流中的 zig-zag 顺序，未出现时由解析器填入推定值。
type PPS struct {
	ID    uint8
	SPSID uint8

	EntropyCodingModeFlag uint8
	PicOrderPresentFlag   uint8

	NumRefIdxL0DefaultActiveMinus1 uint8
	NumRefIdxL1DefaultActiveMinus1 uint8

	WeightedPredFlag  uint8
	WeightedBipredIdc uint8

	PicInitQpMinus26          int8
	PicInitQsMinus26          int8
	ChromaQpIndexOffset       int8
	SecondChromaQpIndexOffset int8

	DeblockingFilterControlPresentFlag uint8
	ConstrainedIntraPredFlag           uint8
	RedundantPicCntPresentFlag         uint8
	Transform8x8ModeFlag               uint8

	ScalingLists4x4 [6][16]uint8
	ScalingLists8x8 [6][64]uint8

	// 引用的序列参数集
	Sequence *SPS
}
