// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package h264

// PredWeightTable 7.3.3.2
type PredWeightTable struct {
	LumaLog2WeightDenom   uint8
	ChromaLog2WeightDenom uint8

	LumaWeightL0   [MaxRefListSize]int16
	LumaOffsetL0   [MaxRefListSize]int8
	ChromaWeightL0 [MaxRefListSize][2]int16
	ChromaOffsetL0 [MaxRefListSize][2]int8

	LumaWeightL1   [MaxRefListSize]int16
	LumaOffsetL1   [MaxRefListSize]int8
	ChromaWeightL1 [MaxRefListSize][2]int16
	ChromaOffsetL1 [MaxRefListSize][2]int8
}

// SliceHdr 片头 (7.3.3)
type SliceHdr struct {
	FirstMbInSlice uint32
	Type           uint8 // slice_type，可能为 5~9
	PPS            *PPS

	ColourPlaneID   uint8
	FrameNum        uint16
	FieldPicFlag    uint8
	BottomFieldFlag uint8
	IdrPicID        uint16

	PicOrderCntLsb         uint16
	DeltaPicOrderCntBottom int32
	DeltaPicOrderCnt       [2]int32
	RedundantPicCnt        uint8

	DirectSpatialMvPredFlag     uint8
	NumRefIdxActiveOverrideFlag uint8
	NumRefIdxL0ActiveMinus1     uint8
	NumRefIdxL1ActiveMinus1     uint8

	PredWeightTable PredWeightTable

	CabacInitIdc               uint8
	SliceQpDelta               int8
	SpForSwitchFlag            uint8
	SliceQsDelta               int8
	DisableDeblockingFilterIdc uint8
	SliceAlphaC0OffsetDiv2     int8
	SliceBetaOffsetDiv2        int8

	// HeaderSize 片头长度（比特），不含 NAL 头，统计时包含防竞争字节
	HeaderSize uint32
	// NEmulationPreventionBytes 片头中防竞争字节(0x03)的数量
	NEmulationPreventionBytes uint32
}

// BaseType 将 5~9 映射到 0~4
func (h *SliceHdr) BaseType() uint8 { return h.Type % 5 }

// IsPSlice .
func (h *SliceHdr) IsPSlice() bool { return h.Type%5 == SliceTypeP }

// IsBSlice .
func (h *SliceHdr) IsBSlice() bool { return h.Type%5 == SliceTypeB }

// IsISlice .
func (h *SliceHdr) IsISlice() bool { return h.Type%5 == SliceTypeI }

// IsSPSlice .
func (h *SliceHdr) IsSPSlice() bool { return h.Type%5 == SliceTypeSP }

// IsSISlice .
func (h *SliceHdr) IsSISlice() bool { return h.Type%5 == SliceTypeSI }

// NalUnit 码流中的一个 NAL 单元
type NalUnit struct {
	RefIdc      uint8
	Type        uint8
	IdrPicFlag  uint8
	HeaderBytes uint8 // NAL 头字节数，普通为 1，扩展头为 4

	Data   []byte // 整个输入缓冲
	Offset int    // NAL 在 Data 中的起始位置（不含起始码）
	Size   int    // NAL 长度
}

// Payload 返回 NAL 的原始字节，不做拷贝
func (n *NalUnit) Payload() []byte {
	return n.Data[n.Offset : n.Offset+n.Size]
}

// Slice 片
type Slice struct {
	Header SliceHdr
	Nalu   NalUnit
}
