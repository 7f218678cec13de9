// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package stats

import (
	"runtime"
	"time"

	"github.com/kelindar/process"
)

// 创建时间
var (
	StartingTime = time.Now()
)

// Proc 进程信息统计
type Proc struct {
	CPU    float64 `json:"cpu"`    // cpu使用情况
	Priv   int32   `json:"priv"`   // 私有内存 KB
	Virt   int32   `json:"virt"`   // 虚拟内存 KB
	Uptime int32   `json:"uptime"` // 运行时间 S
}

// Memory Go 运行时内存，输出缓冲都在堆上分配
type Memory struct {
	HeapInuse   int32   `json:"heap_inuse"`   // KB MemStats.HeapInuse
	HeapSys     int32   `json:"heap_sys"`     // KB MemStats.HeapSys
	HeapObjects int32   `json:"heap_objects"` // MemStats.HeapObjects
	StackInuse  int32   `json:"stack_inuse"`  // KB MemStats.StackInuse
	Sys         int32   `json:"sys"`          // KB MemStats.Sys
	GCSys       int32   `json:"gc_sys"`       // KB MemStats.GCSys
	GCCPU       float64 `json:"gc_cpu"`       // MemStats.GCCPUFraction
	NumGC       uint32  `json:"num_gc"`
	Goroutines  int32   `json:"goroutines"`
}

// Snapshot 一次统计采样
type Snapshot struct {
	On       time.Time      `json:"on"`
	Proc     Proc           `json:"proc"`
	Memory   *Memory        `json:"memory,omitempty"`
	Sessions SessionsSample `json:"sessions"`
	Decoders DecoderSample  `json:"decoders"`
}

// Rates 两次采样间的速率
type Rates struct {
	Interval    time.Duration `json:"interval"`
	PicturesPS  float64       `json:"pictures_ps"`  // 每秒新图像
	OutputPS    float64       `json:"output_ps"`    // 每秒输出帧
	InBitrate   float64       `json:"in_bitrate"`   // 片数据 bit/s
	DroppedRate float64       `json:"dropped_rate"` // 丢帧占比
}

// MeasureProc 获取进程信息。
func MeasureProc() (p Proc) {
	p.Uptime = int32(time.Now().Sub(StartingTime).Seconds())
	defer func() {
		// 部分平台读取 /proc 会失败
		recover()
	}()

	var memoryPriv, memoryVirtual int64
	var cpu float64
	process.ProcUsage(&cpu, &memoryPriv, &memoryVirtual)
	p.CPU = cpu
	p.Priv = toKB(uint64(memoryPriv))
	p.Virt = toKB(uint64(memoryVirtual))
	return
}

// MeasureMemory 获取运行时内存信息。
func MeasureMemory() *Memory {
	var memory runtime.MemStats
	runtime.ReadMemStats(&memory)

	return &Memory{
		HeapInuse:   toKB(memory.HeapInuse),
		HeapSys:     toKB(memory.HeapSys),
		HeapObjects: int32(memory.HeapObjects),
		StackInuse:  toKB(memory.StackInuse),
		Sys:         toKB(memory.Sys),
		GCSys:       toKB(memory.GCSys),
		GCCPU:       memory.GCCPUFraction,
		NumGC:       memory.NumGC,
		Goroutines:  int32(runtime.NumGoroutine()),
	}
}

// Measure 采样全局计数，full 为真时包含运行时内存
func Measure(full bool) Snapshot {
	s := Snapshot{
		On:       time.Now(),
		Proc:     MeasureProc(),
		Sessions: Sessions.GetSample(),
		Decoders: Decoders.GetSample(),
	}
	if full {
		s.Memory = MeasureMemory()
	}
	return s
}

// Rates 计算与 prev 之间的速率，间隔不为正时返回零值
func (s Snapshot) Rates(prev Snapshot) Rates {
	interval := s.On.Sub(prev.On)
	r := Rates{Interval: interval}
	if interval <= 0 {
		return r
	}

	secs := interval.Seconds()
	r.PicturesPS = float64(s.Decoders.Pictures-prev.Decoders.Pictures) / secs
	r.OutputPS = float64(s.Decoders.Output-prev.Decoders.Output) / secs
	r.InBitrate = float64(s.Decoders.InBytes-prev.Decoders.InBytes) * 8 / secs

	dropped := s.Decoders.Dropped - prev.Decoders.Dropped
	total := dropped + s.Decoders.Output - prev.Decoders.Output
	if total > 0 {
		r.DroppedRate = float64(dropped) / float64(total)
	}
	return r
}

// Converts the memory in bytes to KBs, otherwise it would overflow our int32
func toKB(v uint64) int32 {
	return int32(v / 1024)
}
