// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package h264

import "errors"

// ErrNalHeader NAL 头不完整
var ErrNalHeader = errors.New("h264: nal header too short")

// ParseNalUnit 解析 data[offset:offset+size] 处 NAL 的头部，返回的 NalUnit 引用 data
func ParseNalUnit(data []byte, offset, size int) (NalUnit, error) {
	if size < 1 || offset < 0 || offset+size > len(data) {
		return NalUnit{}, ErrNalHeader
	}

	h := data[offset]
	n := NalUnit{
		RefIdc:      (h >> 5) & 0x3,
		Type:        h & NalTypeBitmask,
		HeaderBytes: 1,
		Data:        data,
		Offset:      offset,
		Size:        size,
	}
	switch n.Type {
	case NalIdrSlice:
		n.IdrPicFlag = 1
	case NalPrefix, NalExtenSlice:
		// svc/mvc 扩展头：nal_unit_header_*_extension 共 3 字节
		if size < 4 {
			return NalUnit{}, ErrNalHeader
		}
		n.HeaderBytes = 4
		if data[offset+1]&0x80 == 0 {
			// mvc: svc_extension_flag 之后为 non_idr_flag
			n.IdrPicFlag = boolByte(data[offset+1]&0x40 == 0)
		}
	}
	return n, nil
}

// IsSlice 是否为携带片数据的 NAL
func (n *NalUnit) IsSlice() bool {
	return n.Type == NalSlice || n.Type == NalIdrSlice || n.Type == NalExtenSlice
}

// IsReference nal_ref_idc 非零
func (n *NalUnit) IsReference() bool { return n.RefIdc != 0 }

func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
