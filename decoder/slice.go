// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package decoder

import (
	"github.com/cnotch/vadec/av/codec/h264"
	"github.com/cnotch/vadec/va"
)

// SliceDataBitOffset 片数据在 NAL 中的比特偏移。
// 片头长度包含防竞争字节，而硬件看到的是去掉防竞争字节后的位置。
func SliceDataBitOffset(hdr *h264.SliceHdr, nalHeaderBytes int) uint32 {
	return 8*uint32(nalHeaderBytes) + hdr.HeaderSize - 8*hdr.NEmulationPreventionBytes
}

// buildSliceParams 构建片参数，返回参数和引用 NAL 负载的片数据
func buildSliceParams(slice *h264.Slice, refList0, refList1 []*h264.Picture,
	cur *h264.Picture, surfaces *surfaceTable) (*va.SliceParameterBufferH264, []byte) {
	hdr := &slice.Header
	nalu := &slice.Nalu

	params := &va.SliceParameterBufferH264{
		SliceDataSize:              uint32(nalu.Size),
		SliceDataOffset:            0,
		SliceDataFlag:              va.SliceDataFlagAll,
		SliceDataBitOffset:         uint16(SliceDataBitOffset(hdr, int(nalu.HeaderBytes))),
		FirstMbInSlice:             uint16(hdr.FirstMbInSlice),
		SliceType:                  hdr.BaseType(),
		DirectSpatialMvPredFlag:    hdr.DirectSpatialMvPredFlag,
		NumRefIdxL0ActiveMinus1:    hdr.NumRefIdxL0ActiveMinus1,
		NumRefIdxL1ActiveMinus1:    hdr.NumRefIdxL1ActiveMinus1,
		CabacInitIdc:               hdr.CabacInitIdc,
		SliceQpDelta:               hdr.SliceQpDelta,
		DisableDeblockingFilterIdc: hdr.DisableDeblockingFilterIdc,
		SliceAlphaC0OffsetDiv2:     hdr.SliceAlphaC0OffsetDiv2,
		SliceBetaOffsetDiv2:        hdr.SliceBetaOffsetDiv2,
	}

	fillRefPicList(&params.RefPicList0, refList0, cur, surfaces)
	fillRefPicList(&params.RefPicList1, refList1, cur, surfaces)
	fillPredWeightTable(hdr, params)

	return params, nalu.Payload()
}
