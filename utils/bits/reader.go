// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package bits 按位读取 RBSP 语法元素。
// 读取越界或遇到非法指数哥伦布码后 Reader 记录第一个错误，之后的读取都返回零值。
package bits

import "errors"

// 读取错误
var (
	ErrUnexpectedEOF = errors.New("bits: unexpected end of data")
	ErrExpGolomb     = errors.New("bits: exp-golomb code exceeds 32 bits")
)

// Reader .
type Reader struct {
	buf    []byte
	offset int // bit base
	err    error
}

// NewReader retruns a new Reader.
func NewReader(buf []byte) *Reader {
	return &Reader{
		buf: buf,
	}
}

// Err 返回第一个读取错误
func (r *Reader) Err() error {
	return r.err
}

func (r *Reader) ensure(n int) bool {
	if r.err != nil {
		return false
	}
	if r.offset+n > len(r.buf)<<3 {
		r.err = ErrUnexpectedEOF
		r.offset = len(r.buf) << 3
		return false
	}
	return true
}

// Skip skip n bits.
func (r *Reader) Skip(n int) {
	if n <= 0 || !r.ensure(n) {
		return
	}
	r.offset += n
}

// Peek 读取 n 位但不移动位置
func (r *Reader) Peek(n int) uint64 {
	clone := *r
	return clone.readBits(n)
}

// ReadBit read a bit.
func (r *Reader) ReadBit() uint8 {
	if !r.ensure(1) {
		return 0
	}
	bit := (r.buf[r.offset>>3] >> (7 - uint(r.offset&0x7))) & 1
	r.offset++
	return bit
}

// ReadBool read one bit bool.
func (r *Reader) ReadBool() bool { return r.ReadBit() == 1 }

// ReadUint8 read the uint8 of n bits.
func (r *Reader) ReadUint8(n int) uint8 { return uint8(r.readN(n, 8)) }

// ReadUint16 read the uint16 of n bits.
func (r *Reader) ReadUint16(n int) uint16 { return uint16(r.readN(n, 16)) }

// ReadUint32 read the uint32 of n bits.
func (r *Reader) ReadUint32(n int) uint32 { return uint32(r.readN(n, 32)) }

// ReadUint64 read the uint64 of n bits.
func (r *Reader) ReadUint64(n int) uint64 { return r.readN(n, 64) }

// ReadUe 读取 ue(v)
func (r *Reader) ReadUe() uint32 {
	zeros := 0
	for r.ReadBit() == 0 {
		if r.err != nil {
			return 0
		}
		zeros++
		if zeros > 31 {
			r.err = ErrExpGolomb
			return 0
		}
	}
	return uint32(r.readBits(zeros)) + (1 << uint(zeros)) - 1
}

// ReadSe 读取 se(v)
func (r *Reader) ReadSe() int32 {
	ue := r.ReadUe()
	if ue&0x01 != 0 {
		return int32((ue + 1) / 2)
	}
	return -int32(ue / 2)
}

// ReadUe8 read the UE GolombCode of uint8.
func (r *Reader) ReadUe8() uint8 { return uint8(r.ReadUe()) }

// ReadUe16 read the UE GolombCode of uint16.
func (r *Reader) ReadUe16() uint16 { return uint16(r.ReadUe()) }

// Offset returns the offset of bits.
func (r *Reader) Offset() int {
	return r.offset
}

// BitsLeft returns the number of left bits.
func (r *Reader) BitsLeft() int {
	return len(r.buf)<<3 - r.offset
}

// ByteAligned 当前位置是否字节对齐
func (r *Reader) ByteAligned() bool {
	return r.offset&0x7 == 0
}

func (r *Reader) readN(n, max int) uint64 {
	if n > max {
		n = max
	}
	return r.readBits(n)
}

// readBits 读取 n(<=64) 位，高位在前
func (r *Reader) readBits(n int) uint64 {
	if n <= 0 || !r.ensure(n) {
		return 0
	}

	var v uint64
	for n > 0 {
		avail := 8 - r.offset&0x7
		take := avail
		if n < take {
			take = n
		}
		b := r.buf[r.offset>>3] >> uint(avail-take)
		v = v<<uint(take) | uint64(b&(1<<uint(take)-1))
		r.offset += take
		n -= take
	}
	return v
}
