// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package h264

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/cnotch/vadec/utils"
	"github.com/cnotch/vadec/utils/bits"
)

// SPS 解码错误
var (
	ErrSpsTooShort = errors.New("h264: sps data is not enough")
	ErrNotSps      = errors.New("h264: not a sps nal unit")
)

// DecodeString 从 base64 字符串解码 sps NAL
func (sps *SPS) DecodeString(b64 string) error {
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return err
	}
	return sps.Decode(data)
}

// Decode 从字节序列中解码 sps NAL，可以带起始码。只解析到裁剪参数，VUI 被忽略。
// 成功后调用 Finalize 计算推导值。
func (sps *SPS) Decode(data []byte) error {
	rbsp := utils.RemoveEmulationBytes(data)
	if len(rbsp) < 4 {
		return ErrSpsTooShort
	}

	r := bits.NewReader(rbsp)
	r.Skip(3) // forbidden_zero_bit, nal_ref_idc
	if nt := r.ReadUint8(5); nt != NalSps {
		return ErrNotSps
	}

	// 前三个字节
	sps.ProfileIdc = Profile(r.ReadUint8(8))
	sps.ConstraintSet0Flag = r.ReadBit()
	sps.ConstraintSet1Flag = r.ReadBit()
	sps.ConstraintSet2Flag = r.ReadBit()
	sps.ConstraintSet3Flag = r.ReadBit()
	sps.ConstraintSet4Flag = r.ReadBit()
	sps.ConstraintSet5Flag = r.ReadBit()
	r.Skip(2) // reserved_zero_2bits
	sps.LevelIdc = r.ReadUint8(8)

	sps.ID = r.ReadUe8()

	switch sps.ProfileIdc {
	case ProfileHigh, ProfileHigh10, ProfileHigh422, ProfileHigh444, 44,
		ProfileScalableBaseline, ProfileScalableHigh, ProfileMultiviewHigh, ProfileStereoHigh:
		sps.ChromaFormatIdc = r.ReadUe8()
		if sps.ChromaFormatIdc == Chroma444 {
			sps.SeparateColourPlaneFlag = r.ReadBit()
		} else {
			sps.SeparateColourPlaneFlag = 0
		}

		sps.BitDepthLumaMinus8 = r.ReadUe8()
		sps.BitDepthChromaMinus8 = r.ReadUe8()
		r.Skip(1) // qpprime_y_zero_transform_bypass_flag

		if r.ReadBit() != 0 { // seq_scaling_matrix_present_flag
			maxI := 8
			if sps.ChromaFormatIdc == Chroma444 {
				maxI = 12
			}
			for i := 0; i < maxI; i++ {
				if r.ReadBit() != 0 {
					skipScalingList(r, i)
				}
			}
		}
	default:
		sps.ChromaFormatIdc = Chroma420
		sps.SeparateColourPlaneFlag = 0
		sps.BitDepthLumaMinus8 = 0
		sps.BitDepthChromaMinus8 = 0
	}

	sps.Log2MaxFrameNumMinus4 = r.ReadUe8()

	sps.PicOrderCntType = r.ReadUe8()
	if sps.PicOrderCntType == 0 {
		sps.Log2MaxPicOrderCntLsbMinus4 = r.ReadUe8()
	} else if sps.PicOrderCntType == 1 {
		sps.DeltaPicOrderAlwaysZeroFlag = r.ReadBit()
		r.ReadSe() // offset_for_non_ref_pic
		r.ReadSe() // offset_for_top_to_bottom_field
		n := r.ReadUe8()
		for i := uint8(0); i < n; i++ {
			r.ReadSe() // offset_for_ref_frame
		}
	}

	sps.NumRefFrames = r.ReadUe8()
	sps.GapsInFrameNumValueAllowedFlag = r.ReadBit()

	sps.PicWidthInMbsMinus1 = r.ReadUe16()
	sps.PicHeightInMapUnitsMinus1 = r.ReadUe16()

	sps.FrameMbsOnlyFlag = r.ReadBit()
	if sps.FrameMbsOnlyFlag == 0 {
		sps.MbAdaptiveFrameFieldFlag = r.ReadBit()
	}
	sps.Direct8x8InferenceFlag = r.ReadBit()

	sps.FrameCroppingFlag = r.ReadBit()
	if sps.FrameCroppingFlag == 1 {
		sps.FrameCropLeftOffset = r.ReadUe16()
		sps.FrameCropRightOffset = r.ReadUe16()
		sps.FrameCropTopOffset = r.ReadUe16()
		sps.FrameCropBottomOffset = r.ReadUe16()
	}

	if err := r.Err(); err != nil {
		return fmt.Errorf("h264: decode sps: %w", err)
	}
	sps.Finalize()
	return nil
}

// skipScalingList 跳过 7.3.2.1.1.1 scaling_list
func skipScalingList(r *bits.Reader, i int) {
	sizeOfScan := 16
	if i >= 6 {
		sizeOfScan = 64
	}

	last, next := 8, 8
	for j := 0; j < sizeOfScan && next != 0; j++ {
		delta := int(r.ReadSe())
		next = (last + delta + 256) % 256
		if next != 0 {
			last = next
		}
	}
}
