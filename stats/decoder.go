// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package stats

import (
	"sync/atomic"
)

// 全局变量
var (
	Sessions = NewSessions()   // 解码会话统计
	Decoders = NewDecoder(nil) // 全部会话的解码计数
)

// SessionsSample 会话计数采样
type SessionsSample struct {
	Total  int64 `json:"total"`
	Active int64 `json:"active"`
}

// SessionCounter 会话统计
type SessionCounter interface {
	Add() int64
	Release() int64
	GetSample() SessionsSample
}

func (s *SessionsSample) clone() SessionsSample {
	return SessionsSample{
		Total:  atomic.LoadInt64(&s.Total),
		Active: atomic.LoadInt64(&s.Active),
	}
}

type sessions struct {
	sample SessionsSample
}

// NewSessions 新建会话计数
func NewSessions() SessionCounter {
	return &sessions{}
}

func (c *sessions) Add() int64 {
	atomic.AddInt64(&c.sample.Total, 1)
	return atomic.AddInt64(&c.sample.Active, 1)
}

func (c *sessions) Release() int64 {
	return atomic.AddInt64(&c.sample.Active, -1)
}

func (c *sessions) GetSample() SessionsSample {
	return c.sample.clone()
}

// DecoderSample 解码计数采样
type DecoderSample struct {
	Sequences int64 `json:"sequences"` // 新序列
	Pictures  int64 `json:"pictures"`  // 新图像（含场）
	Slices    int64 `json:"slices"`    // 提交的片
	Decoded   int64 `json:"decoded"`   // 执行解码的图像
	Output    int64 `json:"output"`    // 输出的帧
	Dropped   int64 `json:"dropped"`   // 丢弃的帧
	Errors    int64 `json:"errors"`    // 失败的回调
	InBytes   int64 `json:"inbytes"`   // 片数据字节数
	OutBytes  int64 `json:"outbytes"`  // 拷贝输出的字节数
}

func (s *DecoderSample) clone() DecoderSample {
	return DecoderSample{
		Sequences: atomic.LoadInt64(&s.Sequences),
		Pictures:  atomic.LoadInt64(&s.Pictures),
		Slices:    atomic.LoadInt64(&s.Slices),
		Decoded:   atomic.LoadInt64(&s.Decoded),
		Output:    atomic.LoadInt64(&s.Output),
		Dropped:   atomic.LoadInt64(&s.Dropped),
		Errors:    atomic.LoadInt64(&s.Errors),
		InBytes:   atomic.LoadInt64(&s.InBytes),
		OutBytes:  atomic.LoadInt64(&s.OutBytes),
	}
}

// Add 采样累加
func (s *DecoderSample) Add(o DecoderSample) {
	s.Sequences += o.Sequences
	s.Pictures += o.Pictures
	s.Slices += o.Slices
	s.Decoded += o.Decoded
	s.Output += o.Output
	s.Dropped += o.Dropped
	s.Errors += o.Errors
	s.InBytes += o.InBytes
	s.OutBytes += o.OutBytes
}

// Decoder 解码计数接口
type Decoder interface {
	AddSequence()
	AddPicture()
	AddSlice(size int64)
	AddDecoded()
	AddOutput(size int64)
	AddDropped()
	AddError()
	GetSample() DecoderSample // 获取当前时点采样
}

type decoder struct {
	parent Decoder
	sample DecoderSample
}

// NewDecoder 创建解码计数，parent 不为空时计数同时累加到 parent 上
func NewDecoder(parent Decoder) Decoder {
	return &decoder{parent: parent}
}

func (d *decoder) AddSequence() {
	atomic.AddInt64(&d.sample.Sequences, 1)
	if d.parent != nil {
		d.parent.AddSequence()
	}
}

func (d *decoder) AddPicture() {
	atomic.AddInt64(&d.sample.Pictures, 1)
	if d.parent != nil {
		d.parent.AddPicture()
	}
}

func (d *decoder) AddSlice(size int64) {
	atomic.AddInt64(&d.sample.Slices, 1)
	atomic.AddInt64(&d.sample.InBytes, size)
	if d.parent != nil {
		d.parent.AddSlice(size)
	}
}

func (d *decoder) AddDecoded() {
	atomic.AddInt64(&d.sample.Decoded, 1)
	if d.parent != nil {
		d.parent.AddDecoded()
	}
}

func (d *decoder) AddOutput(size int64) {
	atomic.AddInt64(&d.sample.Output, 1)
	atomic.AddInt64(&d.sample.OutBytes, size)
	if d.parent != nil {
		d.parent.AddOutput(size)
	}
}

func (d *decoder) AddDropped() {
	atomic.AddInt64(&d.sample.Dropped, 1)
	if d.parent != nil {
		d.parent.AddDropped()
	}
}

func (d *decoder) AddError() {
	atomic.AddInt64(&d.sample.Errors, 1)
	if d.parent != nil {
		d.parent.AddError()
	}
}

func (d *decoder) GetSample() DecoderSample {
	return d.sample.clone()
}
