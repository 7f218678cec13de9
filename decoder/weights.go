// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package decoder

import (
	"github.com/cnotch/vadec/av/codec/h264"
	"github.com/cnotch/vadec/va"
)

// numWeightTables 显式加权预测需要的权重表数量
func numWeightTables(hdr *h264.SliceHdr) int {
	pps := hdr.PPS
	if pps.WeightedPredFlag != 0 && (hdr.IsPSlice() || hdr.IsSPSlice()) {
		return 1
	}
	if pps.WeightedBipredIdc == 1 && hdr.IsBSlice() {
		return 2
	}
	return 0
}

// fillPredWeightTable 填充加权预测表。
// 硬件不做 7.4.3.2 的默认值推导，因此活动参考范围内的推定值也要填入。
func fillPredWeightTable(hdr *h264.SliceHdr, params *va.SliceParameterBufferH264) {
	n := numWeightTables(hdr)
	if n == 0 {
		return
	}

	pwt := &hdr.PredWeightTable
	hasChroma := hdr.PPS.Sequence.ChromaArrayType() != 0

	params.LumaLog2WeightDenom = pwt.LumaLog2WeightDenom
	params.ChromaLog2WeightDenom = pwt.ChromaLog2WeightDenom

	params.LumaWeightL0Flag = 1
	for i := 0; i <= int(params.NumRefIdxL0ActiveMinus1); i++ {
		params.LumaWeightL0[i] = pwt.LumaWeightL0[i]
		params.LumaOffsetL0[i] = int16(pwt.LumaOffsetL0[i])
	}

	if hasChroma {
		params.ChromaWeightL0Flag = 1
		for i := 0; i <= int(params.NumRefIdxL0ActiveMinus1); i++ {
			for j := 0; j < 2; j++ {
				params.ChromaWeightL0[i][j] = pwt.ChromaWeightL0[i][j]
				params.ChromaOffsetL0[i][j] = int16(pwt.ChromaOffsetL0[i][j])
			}
		}
	}

	if n == 1 {
		return
	}

	params.LumaWeightL1Flag = 1
	for i := 0; i <= int(params.NumRefIdxL1ActiveMinus1); i++ {
		params.LumaWeightL1[i] = pwt.LumaWeightL1[i]
		params.LumaOffsetL1[i] = int16(pwt.LumaOffsetL1[i])
	}

	if hasChroma {
		params.ChromaWeightL1Flag = 1
		for i := 0; i <= int(params.NumRefIdxL1ActiveMinus1); i++ {
			for j := 0; j < 2; j++ {
				params.ChromaWeightL1[i][j] = pwt.ChromaWeightL1[i][j]
				params.ChromaOffsetL1[i][j] = int16(pwt.ChromaOffsetL1[i][j])
			}
		}
	}
}
