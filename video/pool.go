// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package video

import (
	"errors"
	"sync"
)

// 缓冲池错误
var (
	ErrFlowError     = errors.New("video: no free buffer in pool")
	ErrPoolNotActive = errors.New("video: buffer pool is not configured")
)

// Allocator 为解码帧分配输出缓冲
type Allocator interface {
	AllocateOutputFrame(frame *CodecFrame) error
}

// BufferPool 固定容量的输出缓冲池
type BufferPool struct {
	l        sync.Mutex
	state    OutputState
	capacity int
	maxSize  int
	gen      int
	free     []*Buffer
	active   bool
}

// NewBufferPool 创建缓冲池，maxSize <= 0 表示容量取协商的最少缓冲数
func NewBufferPool(maxSize int) *BufferPool {
	return &BufferPool{maxSize: maxSize}
}

// Configure 按输出状态重建缓冲池。
// 已分配出去的旧缓冲在释放时直接丢弃。
func (p *BufferPool) Configure(state *OutputState) {
	p.l.Lock()
	defer p.l.Unlock()

	capacity := state.MinBuffers
	if p.maxSize > 0 && capacity > p.maxSize {
		capacity = p.maxSize
	}

	p.state = *state
	p.capacity = capacity
	p.gen++
	p.active = true
	p.free = p.free[:0]

	frameSize := 0
	if state.Features == CapsFeatureSystemMemory {
		frameSize = state.Info.Size()
	}
	for i := 0; i < capacity; i++ {
		b := &Buffer{
			Features: state.Features,
			pool:     p,
			gen:      p.gen,
		}
		if frameSize > 0 {
			b.Data = make([]byte, frameSize)
		}
		p.free = append(p.free, b)
	}
}

// Acquire 取出一个空闲缓冲
func (p *BufferPool) Acquire() (*Buffer, error) {
	p.l.Lock()
	defer p.l.Unlock()

	if !p.active {
		return nil, ErrPoolNotActive
	}

	n := len(p.free)
	if n == 0 {
		return nil, ErrFlowError
	}

	b := p.free[n-1]
	p.free[n-1] = nil
	p.free = p.free[:n-1]
	b.Flags = 0
	b.refs = 1
	return b, nil
}

func (p *BufferPool) ref(b *Buffer) {
	p.l.Lock()
	defer p.l.Unlock()

	if b.refs > 0 {
		b.refs++
	}
}

func (p *BufferPool) release(b *Buffer) {
	p.l.Lock()
	defer p.l.Unlock()

	if b.refs <= 0 {
		return
	}
	b.refs--
	if b.refs > 0 {
		return
	}
	if b.gen != p.gen { // 旧配置的缓冲
		return
	}
	p.free = append(p.free, b)
}

// AllocateOutputFrame 实现 Allocator
func (p *BufferPool) AllocateOutputFrame(frame *CodecFrame) error {
	b, err := p.Acquire()
	if err != nil {
		return err
	}
	frame.OutputBuffer = b
	return nil
}

// Free 空闲缓冲数
func (p *BufferPool) Free() int {
	p.l.Lock()
	defer p.l.Unlock()
	return len(p.free)
}

// Capacity 缓冲池容量
func (p *BufferPool) Capacity() int {
	p.l.Lock()
	defer p.l.Unlock()
	return p.capacity
}

// State 当前配置的输出状态
func (p *BufferPool) State() OutputState {
	p.l.Lock()
	defer p.l.Unlock()
	return p.state
}
