// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package decoder

import (
	"fmt"
	"sync"

	"github.com/cnotch/vadec/av/codec/h264"
	"github.com/cnotch/vadec/stats"
	"github.com/cnotch/vadec/va"
	"github.com/cnotch/vadec/video"
	"github.com/cnotch/xlog"
)

// DefaultPoolMargin 输出缓冲池在 DPB 之外额外保留的 surface 数
const DefaultPoolMargin = 4

// Option 配置解码会话
type Option interface {
	apply(*H264Dec)
}

type optionFunc func(*H264Dec)

func (f optionFunc) apply(d *H264Dec) {
	f(d)
}

// WithName 会话名称，用于日志和查询
func WithName(name string) Option {
	return optionFunc(func(d *H264Dec) {
		d.name = name
	})
}

// WithCopyFrames 输出前把 surface 内容拷贝到系统内存缓冲
func WithCopyFrames(copyFrames bool) Option {
	return optionFunc(func(d *H264Dec) {
		d.copyFrames = copyFrames
	})
}

// WithVAMemory 输出缓冲使用 VA 内存特性
func WithVAMemory(vaMemory bool) Option {
	return optionFunc(func(d *H264Dec) {
		d.vaMemory = vaMemory
	})
}

// WithPoolMargin 设置缓冲池的额外 surface 数
func WithPoolMargin(margin int) Option {
	return optionFunc(func(d *H264Dec) {
		if margin >= 0 {
			d.poolMargin = margin
		}
	})
}

// WithLogger 设置日志
func WithLogger(logger *xlog.Logger) Option {
	return optionFunc(func(d *H264Dec) {
		d.logger = logger
	})
}

// WithStats 设置统计的上级计数器
func WithStats(parent stats.Decoder) Option {
	return optionFunc(func(d *H264Dec) {
		d.parentStats = parent
	})
}

// H264Dec H.264 硬件解码会话。
// 码流解析和 DPB 管理由引擎完成，H264Dec 把引擎的回调翻译为加速器缓冲并提交。
type H264Dec struct {
	BaseDec
	name string

	l     sync.Mutex
	state State
	err   error // 进入 StateError 的原因

	width      int
	height     int
	dpbSize    int
	interlaced bool
	needValign bool
	valign     video.Alignment

	surfaces *surfaceTable
	lastRet  error // 最近一次输出缓冲分配的结果

	parentStats stats.Decoder
	stats       stats.Decoder
}

var _ Handler = (*H264Dec)(nil)

// New 创建解码会话。
// dec 为加速器后端，sink 接收输出帧，alloc 为每帧分配输出缓冲。
func New(dec va.Decoder, sink video.Sink, alloc video.Allocator, opts ...Option) *H264Dec {
	d := &H264Dec{
		BaseDec: BaseDec{
			decoder:    dec,
			sink:       sink,
			alloc:      alloc,
			poolMargin: DefaultPoolMargin,
			profile:    va.ProfileNone,
		},
		name:        "h264dec",
		surfaces:    newSurfaceTable(),
		parentStats: stats.Decoders,
	}
	for _, opt := range opts {
		opt.apply(d)
	}

	if d.logger == nil {
		d.logger = xlog.L()
	}
	d.logger = d.logger.With(xlog.Fields(xlog.F("decoder", d.name)))
	d.stats = stats.NewDecoder(d.parentStats)
	stats.Sessions.Add()
	return d
}

// Name 会话名称
func (d *H264Dec) Name() string {
	return d.name
}

// State 当前会话状态
func (d *H264Dec) State() State {
	d.l.Lock()
	defer d.l.Unlock()
	return d.state
}

// Err 会话进入错误状态的原因
func (d *H264Dec) Err() error {
	d.l.Lock()
	defer d.l.Unlock()
	return d.err
}

// Stats 会话统计
func (d *H264Dec) Stats() stats.DecoderSample {
	return d.stats.GetSample()
}

// ready 检查会话是否可以处理图像回调
func (d *H264Dec) ready() error {
	switch d.state {
	case StateClosed:
		return ErrClosed
	case StateError:
		return d.err
	case StateIdle:
		return ErrNotNegotiated
	}
	return nil
}

// fail 记录回调失败
func (d *H264Dec) fail(err error) error {
	d.stats.AddError()
	return err
}

// NewSequence 实现 SequenceHandler
func (d *H264Dec) NewSequence(sps *h264.SPS, maxDpbSize int) error {
	d.l.Lock()
	defer d.l.Unlock()

	switch d.state {
	case StateClosed:
		return ErrClosed
	case StateError:
		return d.err
	}

	d.stats.AddSequence()
	if err := d.newSequence(sps, maxDpbSize); err != nil {
		d.state = StateError
		d.err = err
		return d.fail(err)
	}
	d.state = StateSequenceReady
	return nil
}

// Negotiate 提交挂起的协商请求，没有挂起请求时什么也不做
func (d *H264Dec) Negotiate() error {
	d.l.Lock()
	defer d.l.Unlock()

	if d.state == StateClosed {
		return ErrClosed
	}
	if err := d.negotiate(); err != nil {
		return fmt.Errorf("%w: %v", ErrNegotiation, err)
	}
	return nil
}

// NewPicture 实现 PictureHandler。
// 输出缓冲分配失败时不中断解码，失败被记录在图像上，输出时丢帧并返回。
func (d *H264Dec) NewPicture(frame *video.CodecFrame, pic *h264.Picture) error {
	d.l.Lock()
	defer d.l.Unlock()

	if err := d.ready(); err != nil {
		return err
	}
	if d.surfaces.get(pic) != nil {
		return d.fail(fmt.Errorf("%w: picture already has a surface", ErrInvalidState))
	}
	d.stats.AddPicture()

	d.lastRet = d.alloc.AllocateOutputFrame(frame)
	if d.lastRet != nil {
		d.logger.Warnf("failed to allocate output buffer, return %v", d.lastRet)
		d.surfaces.attach(pic, nil, d.lastRet)
		return nil
	}

	vaPic, err := d.decoder.NewDecodePicture(frame.OutputBuffer)
	if err != nil {
		d.logger.Warnf("failed to create decode picture; %v", err)
		d.surfaces.attach(pic, nil, fmt.Errorf("%w: %v", ErrNoSurface, err))
		return nil
	}
	d.surfaces.attach(pic, vaPic, nil)

	if d.logger.LevelEnabled(xlog.DebugLevel) {
		d.logger.Debugf("new va decode picture %p - %#x", vaPic, uint32(vaPic.Surface))
	}
	return nil
}

// NewFieldPicture 实现 PictureHandler，第二场与第一场共享输出缓冲和 surface
func (d *H264Dec) NewFieldPicture(first, second *h264.Picture) error {
	d.l.Lock()
	defer d.l.Unlock()

	if err := d.ready(); err != nil {
		return err
	}
	fe := d.surfaces.get(first)
	if fe == nil {
		return d.fail(ErrNoSurface)
	}
	if d.surfaces.get(second) != nil {
		return d.fail(fmt.Errorf("%w: picture already has a surface", ErrInvalidState))
	}
	d.stats.AddPicture()

	if fe.va == nil { // 第一场分配失败，第二场沿用其失败
		d.surfaces.attach(second, nil, fe.err)
		return nil
	}

	vaPic, err := d.decoder.NewDecodePicture(fe.va.Buffer)
	if err != nil {
		d.logger.Warnf("failed to create decode picture for second field; %v", err)
		d.surfaces.attach(second, nil, fmt.Errorf("%w: %v", ErrNoSurface, err))
		return nil
	}
	d.surfaces.attach(second, vaPic, nil)

	if d.logger.LevelEnabled(xlog.DebugLevel) {
		d.logger.Debugf("new va decode picture %p - %#x", vaPic, uint32(vaPic.Surface))
	}
	return nil
}

// entry 找到图像的登记项并检查阶段
func (d *H264Dec) entry(pic *h264.Picture, op string) (*pictureEntry, error) {
	if err := d.ready(); err != nil {
		return nil, err
	}
	e := d.surfaces.get(pic)
	if e == nil {
		return nil, d.fail(fmt.Errorf("%w: %s on unknown picture", ErrInvalidState, op))
	}
	if err := e.check(op); err != nil {
		return nil, d.fail(err)
	}
	return e, nil
}

// StartPicture 实现 PictureHandler，提交图像参数和缩放矩阵
func (d *H264Dec) StartPicture(pic *h264.Picture, slice *h264.Slice, dpb h264.DPB) error {
	d.l.Lock()
	defer d.l.Unlock()

	e, err := d.entry(pic, "start_picture")
	if err != nil {
		return err
	}

	params := buildPictureParams(pic, slice, dpb, d.surfaces)
	iq := buildIQMatrix(slice.Header.PPS)
	e.stage = stageParamsSent

	if e.va == nil {
		return nil
	}
	if err := d.decoder.AddParamBuffer(e.va, va.PictureParameterBufferType, params); err != nil {
		d.abandon(pic, e, err)
		return d.fail(err)
	}
	if err := d.decoder.AddParamBuffer(e.va, va.IQMatrixBufferType, iq); err != nil {
		d.abandon(pic, e, err)
		return d.fail(err)
	}
	return nil
}

// DecodeSlice 实现 PictureHandler，提交片参数和片数据
func (d *H264Dec) DecodeSlice(pic *h264.Picture, slice *h264.Slice, refList0, refList1 []*h264.Picture) error {
	d.l.Lock()
	defer d.l.Unlock()

	e, err := d.entry(pic, "decode_slice")
	if err != nil {
		return err
	}

	params, data := buildSliceParams(slice, refList0, refList1, pic, d.surfaces)
	e.stage = stageSlicesSent
	d.stats.AddSlice(int64(len(data)))

	if e.va == nil {
		return nil
	}
	if err := d.decoder.AddSliceBuffer(e.va, params, data); err != nil {
		d.abandon(pic, e, err)
		return d.fail(err)
	}
	return nil
}

// EndPicture 实现 PictureHandler，执行解码
func (d *H264Dec) EndPicture(pic *h264.Picture) error {
	d.l.Lock()
	defer d.l.Unlock()

	e, err := d.entry(pic, "end_picture")
	if err != nil {
		return err
	}

	if d.logger.LevelEnabled(xlog.DebugLevel) {
		d.logger.Debugf("end picture %p (poc %d)", pic, pic.PicOrderCnt)
	}

	e.stage = stageExecuted
	if e.va == nil {
		return nil
	}
	if err := d.decoder.Decode(e.va); err != nil {
		d.abandon(pic, e, err)
		return d.fail(err)
	}
	d.stats.AddDecoded()
	return nil
}

// OutputPicture 实现 PictureHandler。
// 无论成功与否都释放输出持有的图像引用；有记录的失败时丢弃帧并返回该失败。
func (d *H264Dec) OutputPicture(frame *video.CodecFrame, pic *h264.Picture) error {
	d.l.Lock()
	defer d.l.Unlock()

	if d.logger.LevelEnabled(xlog.DebugLevel) {
		d.logger.Debugf("outputting picture %p (poc %d)", pic, pic.PicOrderCnt)
	}

	e := d.surfaces.get(pic)
	if e == nil {
		d.dropFrame(frame)
		return d.fail(fmt.Errorf("%w: output_picture on unknown picture", ErrInvalidState))
	}
	defer d.unref(pic, e)

	if d.state == StateClosed {
		d.dropFrame(frame)
		return ErrClosed
	}
	// 记录的失败优先于阶段检查
	if err := d.frameErr(pic, e); err != nil {
		d.dropFrame(frame)
		return err
	}
	if err := e.check("output_picture"); err != nil {
		d.dropFrame(frame)
		return d.fail(err)
	}

	if d.copyFrames {
		d.copyOutputBuffer(frame, e.va.Surface)
	}

	buf := frame.OutputBuffer
	if pic.BufferFlags != 0 {
		if d.logger.LevelEnabled(xlog.DebugLevel) {
			d.logger.Debugf("apply buffer flags %s (interlaced %t, top-field-first %t)",
				pic.BufferFlags, pic.BufferFlags.Has(video.BufferFlagInterlaced),
				pic.BufferFlags.Has(video.BufferFlagTFF))
		}
		buf.Flags |= pic.BufferFlags
	}

	size := int64(len(buf.Data))
	if err := d.sink.FinishFrame(frame); err != nil {
		d.stats.AddDropped()
		return d.fail(err)
	}
	d.stats.AddOutput(size)
	return nil
}

// abandon 放弃图像；第二场失败时整帧不可用，失败同时记到第一场
func (d *H264Dec) abandon(pic *h264.Picture, e *pictureEntry, err error) {
	e.abandon(err)
	if pic.SecondField && pic.OtherField != nil {
		if first := d.surfaces.get(pic.OtherField); first != nil && first.err == nil {
			first.err = err
		}
	}
}

// frameErr 返回输出帧上记录的失败，包括同一帧另一场的失败
func (d *H264Dec) frameErr(pic *h264.Picture, e *pictureEntry) error {
	if e.err != nil {
		return e.err
	}
	if pic.OtherField != nil {
		if other := d.surfaces.get(pic.OtherField); other != nil {
			return other.err
		}
	}
	return nil
}

func (d *H264Dec) dropFrame(frame *video.CodecFrame) {
	d.stats.AddDropped()
	d.sink.DropFrame(frame)
}

// RefPicture 实现 PictureReleaser
func (d *H264Dec) RefPicture(pic *h264.Picture) {
	d.l.Lock()
	defer d.l.Unlock()

	if e := d.surfaces.get(pic); e != nil {
		e.refs++
	}
}

// ReleasePicture 实现 PictureReleaser
func (d *H264Dec) ReleasePicture(pic *h264.Picture) {
	d.l.Lock()
	defer d.l.Unlock()

	if e := d.surfaces.get(pic); e != nil {
		d.unref(pic, e)
	}
}

// unref 释放图像的一个引用，最后一个引用释放时销毁解码图像
func (d *H264Dec) unref(pic *h264.Picture, e *pictureEntry) {
	e.refs--
	if e.refs > 0 {
		return
	}
	d.surfaces.detach(pic)
	if e.va != nil {
		d.decoder.DestroyDecodePicture(e.va)
		e.va = nil
	}
}

// Close 销毁全部仍在登记的解码图像并关闭加速器。
// 关闭后的回调返回 ErrClosed，重复关闭无效。
func (d *H264Dec) Close() error {
	d.l.Lock()
	defer d.l.Unlock()

	if d.state == StateClosed {
		return nil
	}
	d.state = StateClosed

	for pic, e := range d.surfaces.entries {
		d.surfaces.detach(pic)
		if e.va != nil {
			d.decoder.DestroyDecodePicture(e.va)
			e.va = nil
		}
	}

	stats.Sessions.Release()
	d.logger.Infof("closed")
	return d.decoder.Close()
}

// Info 会话快照
type Info struct {
	Name        string              `json:"name"`
	State       State               `json:"state"`
	Err         string              `json:"error,omitempty"`
	Profile     va.Profile          `json:"profile"`
	RTFormat    va.RTFormat         `json:"rt_format"`
	CodedWidth  int                 `json:"coded_width"`
	CodedHeight int                 `json:"coded_height"`
	DpbSize     int                 `json:"dpb_size"`
	Interlaced  bool                `json:"interlaced"`
	Output      *video.OutputState  `json:"output,omitempty"`
	Pictures    int                 `json:"pictures"`
	Stats       stats.DecoderSample `json:"stats"`
}

// Info 返回会话快照
func (d *H264Dec) Info() *Info {
	d.l.Lock()
	defer d.l.Unlock()

	info := &Info{
		Name:        d.name,
		State:       d.state,
		Profile:     d.profile,
		RTFormat:    d.rtFormat,
		CodedWidth:  d.codedWidth,
		CodedHeight: d.codedHeight,
		DpbSize:     d.dpbSize,
		Interlaced:  d.interlaced,
		Pictures:    d.surfaces.len(),
		Stats:       d.stats.GetSample(),
	}
	if d.err != nil {
		info.Err = d.err.Error()
	}
	if d.outputState != nil {
		s := *d.outputState
		info.Output = &s
	}
	return info
}
