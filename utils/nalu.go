// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package utils NAL 字节流的辅助函数。
package utils

import "bytes"

var (
	startCode3 = []byte{0x0, 0x0, 0x1}
	startCode4 = []byte{0x0, 0x0, 0x0, 0x1}
)

// TrimStartCode 移除 NALU 前的起始码 0x00000001 或 0x000001
func TrimStartCode(nalu []byte) []byte {
	if bytes.HasPrefix(nalu, startCode4) {
		return nalu[4:]
	}
	if bytes.HasPrefix(nalu, startCode3) {
		return nalu[3:]
	}
	return nalu
}

// RemoveEmulationBytes 去掉起始码并移除防竞争字节，返回 RBSP 的拷贝。
// 0x000003 中的 0x03 只在其后的字节不大于 0x03 或数据结束时才是防竞争字节。
func RemoveEmulationBytes(nalu []byte) []byte {
	nalu = TrimStartCode(nalu)
	rbsp := make([]byte, 0, len(nalu))
	zeros := 0
	for i, b := range nalu {
		if zeros >= 2 && b == 0x03 && (i+1 == len(nalu) || nalu[i+1] <= 0x03) {
			zeros = 0
			continue
		}
		if b == 0 {
			zeros++
		} else {
			zeros = 0
		}
		rbsp = append(rbsp, b)
	}
	return rbsp
}
