// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package va 定义硬件加速后端的契约，参数记录的形状与 VA-API 的 H.264 解码接口一致。
package va

import "fmt"

// SurfaceID 加速器 surface 句柄
type SurfaceID uint32

// InvalidSurface 无效 surface
const InvalidSurface SurfaceID = 0xffffffff

// Profile 加速器 profile
type Profile int

// H.264 相关的 profile
const (
	ProfileNone                    Profile = -1
	ProfileH264Main                Profile = 6
	ProfileH264High                Profile = 7
	ProfileH264ConstrainedBaseline Profile = 13
	ProfileH264MultiviewHigh       Profile = 15
	ProfileH264StereoHigh          Profile = 16
)

var profileNames = map[Profile]string{
	ProfileNone:                    "none",
	ProfileH264Main:                "H264Main",
	ProfileH264High:                "H264High",
	ProfileH264ConstrainedBaseline: "H264ConstrainedBaseline",
	ProfileH264MultiviewHigh:       "H264MultiviewHigh",
	ProfileH264StereoHigh:          "H264StereoHigh",
}

// String returns the profile name.
func (p Profile) String() string {
	if name, ok := profileNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Profile(%d)", int(p))
}

// MarshalText 实现 encoding.TextMarshaler
func (p Profile) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// ParseProfile 由名称解析 profile
func ParseProfile(name string) (Profile, error) {
	for p, n := range profileNames {
		if n == name && p != ProfileNone {
			return p, nil
		}
	}
	return ProfileNone, fmt.Errorf("va: unknown profile %q", name)
}

// RTFormat surface 的 render target 格式
type RTFormat uint32

// RT 格式
const (
	RTFormatYUV420    RTFormat = 0x00000001
	RTFormatYUV422    RTFormat = 0x00000002
	RTFormatYUV444    RTFormat = 0x00000004
	RTFormatYUV420_10 RTFormat = 0x00000100
	RTFormatYUV422_10 RTFormat = 0x00000200
	RTFormatYUV444_10 RTFormat = 0x00000400
)

var rtFormatNames = map[RTFormat]string{
	RTFormatYUV420:    "YUV420",
	RTFormatYUV422:    "YUV422",
	RTFormatYUV444:    "YUV444",
	RTFormatYUV420_10: "YUV420_10",
	RTFormatYUV422_10: "YUV422_10",
	RTFormatYUV444_10: "YUV444_10",
}

// String returns the rt format name.
func (f RTFormat) String() string {
	if name, ok := rtFormatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("RTFormat(0x%x)", uint32(f))
}

// MarshalText 实现 encoding.TextMarshaler
func (f RTFormat) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// BufferType 参数缓冲类型
type BufferType int

// 缓冲类型
const (
	PictureParameterBufferType BufferType = 0
	IQMatrixBufferType         BufferType = 1
	SliceParameterBufferType   BufferType = 4
	SliceDataBufferType        BufferType = 5
)

// String returns the buffer type name.
func (t BufferType) String() string {
	switch t {
	case PictureParameterBufferType:
		return "PictureParameter"
	case IQMatrixBufferType:
		return "IQMatrix"
	case SliceParameterBufferType:
		return "SliceParameter"
	case SliceDataBufferType:
		return "SliceData"
	default:
		return fmt.Sprintf("BufferType(%d)", int(t))
	}
}
