// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package video

import "fmt"

// Format 像素格式
type Format int

// 像素格式
const (
	FormatUnknown Format = iota
	FormatNV12
	FormatP010LE
	FormatYUY2
	FormatY210
	FormatVUYA
	FormatY410
)

var formatNames = map[Format]string{
	FormatUnknown: "UNKNOWN",
	FormatNV12:    "NV12",
	FormatP010LE:  "P010_10LE",
	FormatYUY2:    "YUY2",
	FormatY210:    "Y210",
	FormatVUYA:    "VUYA",
	FormatY410:    "Y410",
}

// String returns the format name.
func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// MarshalText 实现 encoding.TextMarshaler
func (f Format) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// FrameSize 返回一帧图像的字节数
func (f Format) FrameSize(width, height int) int {
	switch f {
	case FormatNV12:
		return width * height * 3 / 2
	case FormatP010LE:
		return width * height * 3
	case FormatYUY2:
		return width * height * 2
	case FormatY210:
		return width * height * 4
	case FormatVUYA, FormatY410:
		return width * height * 4
	default:
		return 0
	}
}

// InterlaceMode 隔行模式
type InterlaceMode int

// 隔行模式
const (
	InterlaceModeProgressive InterlaceMode = iota
	InterlaceModeInterleaved
	InterlaceModeMixed
)

// String returns the interlace mode name.
func (m InterlaceMode) String() string {
	switch m {
	case InterlaceModeProgressive:
		return "progressive"
	case InterlaceModeInterleaved:
		return "interleaved"
	case InterlaceModeMixed:
		return "mixed"
	default:
		return "unknown"
	}
}

// MarshalText 实现 encoding.TextMarshaler
func (m InterlaceMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// CapsFeatures 输出内存类型
type CapsFeatures string

// 内存类型
const (
	CapsFeatureSystemMemory CapsFeatures = "memory:SystemMemory"
	CapsFeatureVAMemory     CapsFeatures = "memory:VAMemory"
)

// Alignment 图像四周的填充
type Alignment struct {
	PaddingLeft   int `json:"padding_left"`
	PaddingRight  int `json:"padding_right"`
	PaddingTop    int `json:"padding_top"`
	PaddingBottom int `json:"padding_bottom"`
}

// IsZero 是否没有填充
func (a Alignment) IsZero() bool {
	return a == Alignment{}
}

// Info 输出图像信息
type Info struct {
	Format        Format        `json:"format"`
	Width         int           `json:"width"`
	Height        int           `json:"height"`
	InterlaceMode InterlaceMode `json:"interlace_mode"`
}

// Size 一帧的字节数
func (info *Info) Size() int {
	return info.Format.FrameSize(info.Width, info.Height)
}

// OutputState 协商后的输出状态
type OutputState struct {
	Info      Info         `json:"info"`
	Features  CapsFeatures `json:"features"`
	Alignment Alignment    `json:"alignment"`
	// MinBuffers 帧池最少需要的缓冲数
	MinBuffers int `json:"min_buffers"`
}

// String returns a caps-like description.
func (s *OutputState) String() string {
	return fmt.Sprintf("video/x-raw(%s), format=%s, width=%d, height=%d, interlace-mode=%s",
		s.Features, s.Info.Format, s.Info.Width, s.Info.Height, s.Info.InterlaceMode)
}
