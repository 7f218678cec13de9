// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package h264

/*
 * Table 7-1 – NAL unit type codes, syntax element categories, and NAL unit type classes in
 * T-REC-H.264-201704
 */
// H264 NAL 单元类型
const (
	NalUnspecified     = 0
	NalSlice           = 1  // 不分区非IDR图像的片
	NalDpa             = 2  // 片分区A
	NalDpb             = 3  // 片分区B
	NalDpc             = 4  // 片分区C
	NalIdrSlice        = 5  // IDR图像中的片（I帧）
	NalSei             = 6  // 补充增强信息单元
	NalSps             = 7  // 序列参数集
	NalPps             = 8  // 图像参数集
	NalAud             = 9  // 分界符
	NalEndSequence     = 10 // 序列结束
	NalEndStream       = 11 // 码流结束
	NalFillerData      = 12 // 填充
	NalSpsExt          = 13 //
	NalPrefix          = 14
	NalSubSps          = 15
	NalDps             = 16
	NalAuxiliarySlice  = 19
	NalExtenSlice      = 20
	NalDepthExtenSlice = 21

	NalTypeBitmask = 0x1F
)

// NAL 单元头扩展类型
const (
	NalExtensionNone = iota
	NalExtensionSVC
	NalExtensionMVC
)

// 其他常量
const (
	// A.3: MaxDpbFrames is bounded above by 16.
	MaxDpbFrames = 16
	// 7.4.2.1.1: max_num_ref_frames is in [0, MaxDpbFrames], and
	// each reference frame can have two fields.
	MaxRefs = 2 * MaxDpbFrames

	// 7.4.3: num_ref_idx_lN_active_minus1 is in [0, 31] for field decoding.
	MaxRefListSize = 32
)

// Profile H.264 profile_idc (A.2)
type Profile uint8

// profile_idc 取值
const (
	ProfileBaseline         Profile = 66
	ProfileMain             Profile = 77
	ProfileExtended         Profile = 88
	ProfileHigh             Profile = 100
	ProfileHigh10           Profile = 110
	ProfileHigh422          Profile = 122
	ProfileHigh444          Profile = 244
	ProfileMultiviewHigh    Profile = 118
	ProfileStereoHigh       Profile = 128
	ProfileScalableBaseline Profile = 83
	ProfileScalableHigh     Profile = 86
)

// String returns the profile name.
func (p Profile) String() string {
	switch p {
	case ProfileBaseline:
		return "baseline"
	case ProfileMain:
		return "main"
	case ProfileExtended:
		return "extended"
	case ProfileHigh:
		return "high"
	case ProfileHigh10:
		return "high-10"
	case ProfileHigh422:
		return "high-4:2:2"
	case ProfileHigh444:
		return "high-4:4:4"
	case ProfileMultiviewHigh:
		return "multiview-high"
	case ProfileStereoHigh:
		return "stereo-high"
	case ProfileScalableBaseline:
		return "scalable-baseline"
	case ProfileScalableHigh:
		return "scalable-high"
	default:
		return "unknown"
	}
}

// Slice types as defined by table 7-6.
const (
	SliceTypeP  = 0
	SliceTypeB  = 1
	SliceTypeI  = 2
	SliceTypeSP = 3
	SliceTypeSI = 4
)

// chroma_format_idc, table 6-1
const (
	ChromaMonochrome = 0
	Chroma420        = 1
	Chroma422        = 2
	Chroma444        = 3
)
