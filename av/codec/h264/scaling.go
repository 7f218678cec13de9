// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package h264

// zigzag4x4 8.5.6 Table 8-13, zig-zag index -> raster index
var zigzag4x4 = [16]uint8{
	0, 1, 4, 8,
	5, 2, 3, 6,
	9, 12, 13, 10,
	7, 11, 14, 15,
}

// zigzag8x8 8.5.7 Table 8-14, zig-zag index -> raster index
var zigzag8x8 = [64]uint8{
	0, 1, 8, 16, 9, 2, 3, 10,
	17, 24, 32, 25, 18, 11, 4, 5,
	12, 19, 26, 33, 40, 48, 41, 34,
	27, 20, 13, 6, 7, 14, 21, 28,
	35, 42, 49, 56, 57, 50, 43, 36,
	29, 22, 15, 23, 30, 37, 44, 51,
	58, 59, 52, 45, 38, 31, 39, 46,
	53, 60, 61, 54, 47, 55, 62, 63,
}

// Raster4x4FromZigzag 把 zig-zag 顺序的 4x4 缩放矩阵转为光栅顺序
func Raster4x4FromZigzag(dst *[16]uint8, src *[16]uint8) {
	for i := range src {
		dst[zigzag4x4[i]] = src[i]
	}
}

// Zigzag4x4FromRaster 是 Raster4x4FromZigzag 的逆变换
func Zigzag4x4FromRaster(dst *[16]uint8, src *[16]uint8) {
	for i := range dst {
		dst[i] = src[zigzag4x4[i]]
	}
}

// Raster8x8FromZigzag 把 zig-zag 顺序的 8x8 缩放矩阵转为光栅顺序
func Raster8x8FromZigzag(dst *[64]uint8, src *[64]uint8) {
	for i := range src {
		dst[zigzag8x8[i]] = src[i]
	}
}

// Zigzag8x8FromRaster 是 Raster8x8FromZigzag 的逆变换
func Zigzag8x8FromRaster(dst *[64]uint8, src *[64]uint8) {
	for i := range dst {
		dst[i] = src[zigzag8x8[i]]
	}
}
