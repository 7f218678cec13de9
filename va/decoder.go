// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package va

import (
	"errors"

	"github.com/cnotch/vadec/video"
)

// 后端错误
var (
	ErrNotOpen         = errors.New("va: decoder is not open")
	ErrAlreadyOpen     = errors.New("va: decoder is already open")
	ErrProfile         = errors.New("va: profile is not supported")
	ErrNoSurface       = errors.New("va: no free surface")
	ErrBufferRejected  = errors.New("va: buffer rejected")
	ErrDecode          = errors.New("va: decode failed")
	ErrPictureReleased = errors.New("va: decode picture already released")
)

// ParamBuffer 已提交的参数缓冲
type ParamBuffer struct {
	Type BufferType
	Data interface{} // *PictureParameterBufferH264, *IQMatrixBufferH264 等，提交时拷贝
}

// SliceBuffer 已提交的片，参数在提交时拷贝，Data 引用 NAL 负载
type SliceBuffer struct {
	Params SliceParameterBufferH264
	Data   []byte
}

// DecodePicture 绑定到一个输出缓冲和 surface 的解码图像。
// 由 Decoder.NewDecodePicture 创建，Decoder.DestroyDecodePicture 销毁。
type DecodePicture struct {
	Buffer  *video.Buffer
	Surface SurfaceID

	Params []ParamBuffer
	Slices []SliceBuffer

	released bool
}

// Released 是否已销毁
func (pic *DecodePicture) Released() bool {
	return pic.released
}

// MarkReleased 供后端实现使用，返回 false 表示重复释放
func (pic *DecodePicture) MarkReleased() bool {
	if pic.released {
		return false
	}
	pic.released = true
	pic.Params = nil
	pic.Slices = nil
	return true
}

// Decoder 硬件加速后端
type Decoder interface {
	// Open 以指定 profile 和 rt 格式打开解码器
	Open(profile Profile, rtFormat RTFormat) error
	Close() error
	IsOpen() bool
	// SetFrameSize 配置编码尺寸
	SetFrameSize(width, height int) error
	// ConfigIsEqual 当前打开的配置是否与参数一致
	ConfigIsEqual(profile Profile, rtFormat RTFormat, width, height int) bool
	HasProfile(profile Profile) bool

	// NewDecodePicture 创建绑定到 buf 的解码图像，解码图像持有 buf 的一个引用。
	// 同一个 buf 上的多个解码图像共享一个 surface。
	NewDecodePicture(buf *video.Buffer) (*DecodePicture, error)
	// AddParamBuffer 提交参数缓冲，data 在调用返回前拷贝
	AddParamBuffer(pic *DecodePicture, typ BufferType, data interface{}) error
	// AddSliceBuffer 提交片参数和片数据，data 不拷贝
	AddSliceBuffer(pic *DecodePicture, params *SliceParameterBufferH264, data []byte) error
	// Decode 执行已提交缓冲的解码，返回后已提交的缓冲被清空
	Decode(pic *DecodePicture) error
	// DestroyDecodePicture 销毁解码图像并释放 buf 的引用，重复调用无效
	DestroyDecodePicture(pic *DecodePicture)

	// ReadSurface 把 surface 的内容读入 dst，返回写入的字节数
	ReadSurface(surface SurfaceID, dst []byte) (int, error)
}
