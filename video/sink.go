// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package video

import (
	"errors"
	"runtime/debug"
	"sync/atomic"

	"github.com/cnotch/queue"
	"github.com/cnotch/xlog"
)

// ErrSinkClosed 下游已关闭
var ErrSinkClosed = errors.New("video: sink is closed")

// Sink 解码输出的下游
type Sink interface {
	// Negotiate 协商输出格式，返回错误表示下游拒绝
	Negotiate(state *OutputState) error
	// FinishFrame 输出解码完成的帧，下游获得输出缓冲的所有权
	FinishFrame(frame *CodecFrame) error
	// DropFrame 丢弃帧，释放输出缓冲
	DropFrame(frame *CodecFrame)
}

// FrameHandler 处理一帧输出，返回后缓冲被还回缓冲池
type FrameHandler func(frame *CodecFrame)

// NegotiateFunc 下游格式检查
type NegotiateFunc func(state *OutputState) error

// FrameQueue 用同步队列实现的 Sink，由独立的 goroutine 消费。
type FrameQueue struct {
	pool      *BufferPool
	handler   FrameHandler
	accept    NegotiateFunc
	recvQueue *queue.SyncQueue
	closed    int32
	done      chan struct{}
	finished  int64
	dropped   int64
	logger    *xlog.Logger
}

// NewFrameQueue 创建 FrameQueue。
// pool 不为空时，协商成功后按输出状态重建缓冲池。
func NewFrameQueue(pool *BufferPool, handler FrameHandler, accept NegotiateFunc, logger *xlog.Logger) *FrameQueue {
	if logger == nil {
		logger = xlog.L()
	}
	q := &FrameQueue{
		pool:      pool,
		handler:   handler,
		accept:    accept,
		recvQueue: queue.NewSyncQueue(),
		done:      make(chan struct{}),
		logger:    logger,
	}
	go q.consume()
	return q
}

// Negotiate 实现 Sink
func (q *FrameQueue) Negotiate(state *OutputState) error {
	if atomic.LoadInt32(&q.closed) != 0 {
		return ErrSinkClosed
	}
	if q.accept != nil {
		if err := q.accept(state); err != nil {
			return err
		}
	}
	if q.pool != nil {
		q.pool.Configure(state)
	}
	q.logger.Infof("negotiated %s", state.String())
	return nil
}

// FinishFrame 实现 Sink
func (q *FrameQueue) FinishFrame(frame *CodecFrame) error {
	if atomic.LoadInt32(&q.closed) != 0 {
		q.DropFrame(frame)
		return ErrSinkClosed
	}
	atomic.AddInt64(&q.finished, 1)
	q.recvQueue.Push(frame)
	return nil
}

// DropFrame 实现 Sink
func (q *FrameQueue) DropFrame(frame *CodecFrame) {
	atomic.AddInt64(&q.dropped, 1)
	if frame.OutputBuffer != nil {
		frame.OutputBuffer.Release()
		frame.OutputBuffer = nil
	}
}

// Finished 已输出的帧数
func (q *FrameQueue) Finished() int64 { return atomic.LoadInt64(&q.finished) }

// Dropped 已丢弃的帧数
func (q *FrameQueue) Dropped() int64 { return atomic.LoadInt64(&q.dropped) }

// Close 停止消费，等待消费 goroutine 退出
func (q *FrameQueue) Close() error {
	if !atomic.CompareAndSwapInt32(&q.closed, 0, 1) {
		return nil
	}
	q.recvQueue.Push(nil) // 唤醒消费者
	<-q.done
	return nil
}

func (q *FrameQueue) consume() {
	defer func() {
		defer func() { // 避免 handler 再 panic
			recover()
		}()

		if r := recover(); r != nil {
			q.logger.Errorf("frame queue routine panic；r = %v \n %s", r, debug.Stack())
		}

		// 尽早通知GC，回收内存
		q.recvQueue.Reset()
		close(q.done)
	}()

	for atomic.LoadInt32(&q.closed) == 0 {
		f := q.recvQueue.Pop()
		if f == nil {
			continue
		}

		frame := f.(*CodecFrame)
		if q.handler != nil {
			q.handler(frame)
		}
		if frame.OutputBuffer != nil {
			frame.OutputBuffer.Release()
		}
	}
}
