// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package decodertest 提供按回调协议驱动解码会话的脚本化引擎。
// 引擎不解析码流，只按 I/P 序列构造图像、片和 DPB。
package decodertest

import (
	"errors"
	"time"

	"github.com/cnotch/vadec/av/codec/h264"
	"github.com/cnotch/vadec/decoder"
	"github.com/cnotch/vadec/video"
)

// ErrNotStarted 引擎尚未提交序列
var ErrNotStarted = errors.New("decodertest: sequence not started")

// NewSPS 构造 8 位 4:2:0 逐行序列，宽高向上对齐到宏块，多出部分用裁剪去掉
func NewSPS(profile h264.Profile, width, height int) *h264.SPS {
	mbsW := (width + 15) / 16
	mbsH := (height + 15) / 16
	sps := &h264.SPS{
		ProfileIdc:                profile,
		ConstraintSet1Flag:        1,
		LevelIdc:                  40,
		ChromaFormatIdc:           h264.Chroma420,
		Log2MaxFrameNumMinus4:     0,
		PicOrderCntType:           2,
		NumRefFrames:              2,
		PicWidthInMbsMinus1:       uint16(mbsW - 1),
		PicHeightInMapUnitsMinus1: uint16(mbsH - 1),
		FrameMbsOnlyFlag:          1,
		Direct8x8InferenceFlag:    1,
	}
	if mbsW*16 != width || mbsH*16 != height {
		sps.FrameCroppingFlag = 1
		sps.FrameCropRightOffset = uint16((mbsW*16 - width) / 2)
		sps.FrameCropBottomOffset = uint16((mbsH*16 - height) / 2)
	}
	sps.Finalize()
	return sps
}

// NewPPS 构造引用 sps 的图像参数集，缩放矩阵为平坦矩阵
func NewPPS(sps *h264.SPS) *h264.PPS {
	pps := &h264.PPS{
		SPSID:                              sps.ID,
		DeblockingFilterControlPresentFlag: 1,
		Sequence:                           sps,
	}
	for i := range pps.ScalingLists4x4 {
		for j := range pps.ScalingLists4x4[i] {
			pps.ScalingLists4x4[i][j] = 16
		}
	}
	for i := range pps.ScalingLists8x8 {
		for j := range pps.ScalingLists8x8[i] {
			pps.ScalingLists8x8[i][j] = 16
		}
	}
	return pps
}

// DPB 滑动窗口参考图像缓存
type DPB struct {
	short []*h264.Picture
	long  []*h264.Picture
}

// ShortTermRefs 实现 h264.DPB，最新的图像在前
func (d *DPB) ShortTermRefs() []*h264.Picture {
	return d.short
}

// LongTermRefs 实现 h264.DPB
func (d *DPB) LongTermRefs() []*h264.Picture {
	return d.long
}

// Len 缓存的参考图像数
func (d *DPB) Len() int {
	return len(d.short) + len(d.long)
}

// AddShortTerm 加入短期参考
func (d *DPB) AddShortTerm(pic *h264.Picture) {
	pic.Ref = h264.RefShortTerm
	d.short = append([]*h264.Picture{pic}, d.short...)
}

// AddLongTerm 加入长期参考
func (d *DPB) AddLongTerm(pic *h264.Picture, idx int32) {
	pic.Ref = h264.RefLongTerm
	pic.LongTermFrameIdx = idx
	d.long = append(d.long, pic)
}

// evictOldest 移出最老的短期参考
func (d *DPB) evictOldest() *h264.Picture {
	if len(d.short) == 0 {
		return nil
	}
	pic := d.short[len(d.short)-1]
	d.short = d.short[:len(d.short)-1]
	pic.Ref = h264.RefNone
	return pic
}

func (d *DPB) clear() []*h264.Picture {
	pics := append(d.short, d.long...)
	d.short, d.long = nil, nil
	for _, pic := range pics {
		pic.Ref = h264.RefNone
	}
	return pics
}

// Engine 按固定 GOP 驱动 decoder.Handler。
// 每帧一个片，解码后立即输出，参考帧采用滑动窗口管理。
type Engine struct {
	handler decoder.Handler
	sps     *h264.SPS
	pps     *h264.PPS
	dpb     DPB

	// GOPSize I 帧间隔，0 表示只有第一帧是 I 帧
	GOPSize int
	// FrameDuration 帧间隔，用于计算时间戳
	FrameDuration time.Duration

	started     bool
	forceIDR    bool
	frameNumber uint32
	frameNum    uint16
	poc         int32
	lastOutErr  error
}

// NewEngine 创建引擎
func NewEngine(h decoder.Handler, sps *h264.SPS) *Engine {
	return &Engine{
		handler:       h,
		sps:           sps,
		pps:           NewPPS(sps),
		FrameDuration: 40 * time.Millisecond,
	}
}

// SPS 当前序列
func (e *Engine) SPS() *h264.SPS { return e.sps }

// PPS 当前图像参数集
func (e *Engine) PPS() *h264.PPS { return e.pps }

// DPB 当前参考缓存
func (e *Engine) DPB() *DPB { return &e.dpb }

// LastOutputErr 最近一次输出回调的结果
func (e *Engine) LastOutputErr() error { return e.lastOutErr }

func (e *Engine) maxFrameNum() uint16 {
	return 1 << (uint(e.sps.Log2MaxFrameNumMinus4) + 4)
}

func (e *Engine) dpbSize() int {
	n := int(e.sps.NumRefFrames) + 1
	if n > h264.MaxDpbFrames {
		n = h264.MaxDpbFrames
	}
	return n
}

// Start 提交序列
func (e *Engine) Start() error {
	if err := e.handler.NewSequence(e.sps, e.dpbSize()); err != nil {
		return err
	}
	e.started = true
	return nil
}

// ChangeSequence 切换到新序列，先清空参考缓存
func (e *Engine) ChangeSequence(sps *h264.SPS) error {
	e.Flush()
	e.sps = sps
	e.pps = NewPPS(sps)
	e.forceIDR = true
	return e.Start()
}

func (e *Engine) newFrame() *video.CodecFrame {
	f := &video.CodecFrame{
		SystemFrameNumber: e.frameNumber,
		Pts:               time.Duration(e.frameNumber) * e.FrameDuration,
	}
	f.Dts = f.Pts
	e.frameNumber++
	return f
}

// NewSlice 构造一个携带 payload 的单 NAL 片
func (e *Engine) NewSlice(sliceType uint8, idr bool, payload []byte) *h264.Slice {
	nalType := uint8(h264.NalSlice)
	if idr {
		nalType = h264.NalIdrSlice
	}
	data := append([]byte{3<<5 | nalType}, payload...)
	nalu, err := h264.ParseNalUnit(data, 0, len(data))
	if err != nil {
		panic(err)
	}

	s := &h264.Slice{
		Header: h264.SliceHdr{
			Type:       sliceType,
			PPS:        e.pps,
			FrameNum:   e.frameNum,
			HeaderSize: 32,
		},
		Nalu: nalu,
	}
	if !idr && sliceType != h264.SliceTypeI {
		n := len(e.dpb.short)
		if n > 0 {
			s.Header.NumRefIdxL0ActiveMinus1 = uint8(n - 1)
		}
	}
	return s
}

func (e *Engine) nextPicture(idr bool) *h264.Picture {
	if idr {
		e.frameNum = 0
		e.poc = 0
	}
	pic := &h264.Picture{
		PicOrderCnt:         e.poc,
		TopFieldOrderCnt:    e.poc,
		BottomFieldOrderCnt: e.poc,
		FrameNum:            e.frameNum,
		NalRefIdc:           3,
		Field:               h264.FieldFrame,
	}
	return pic
}

func (e *Engine) advance() {
	e.frameNum = (e.frameNum + 1) % e.maxFrameNum()
	e.poc += 2
}

// DecodeFrame 解码一帧，返回提交给会话的图像
func (e *Engine) DecodeFrame() (*h264.Picture, error) {
	if !e.started {
		return nil, ErrNotStarted
	}

	idr := e.forceIDR || e.frameNumber == 0 ||
		(e.GOPSize > 0 && int(e.frameNumber)%e.GOPSize == 0)
	e.forceIDR = false
	if idr {
		e.Flush()
	}

	frame := e.newFrame()
	pic := e.nextPicture(idr)
	pic.SystemFrameNumber = frame.SystemFrameNumber

	sliceType := uint8(h264.SliceTypeP)
	if idr {
		sliceType = h264.SliceTypeI
	}
	slice := e.NewSlice(sliceType, idr, []byte{0x88, 0x84, 0x00, 0x33, byte(frame.SystemFrameNumber)})

	if err := e.handler.NewPicture(frame, pic); err != nil {
		return pic, err
	}
	if err := e.decode(pic, slice); err != nil {
		e.output(frame, pic)
		return pic, err
	}
	e.reference(pic)
	e.output(frame, pic)
	e.advance()
	return pic, nil
}

// DecodeFieldPair 解码一对顶场优先的场图像，两场共享一帧
func (e *Engine) DecodeFieldPair() (first, second *h264.Picture, err error) {
	if !e.started {
		return nil, nil, ErrNotStarted
	}

	frame := e.newFrame()
	first = e.nextPicture(false)
	first.Field = h264.FieldTopField
	first.BottomFieldOrderCnt = 0
	first.SystemFrameNumber = frame.SystemFrameNumber
	first.BufferFlags = video.BufferFlagInterlaced | video.BufferFlagTFF

	second = e.nextPicture(false)
	second.Field = h264.FieldBottomField
	second.TopFieldOrderCnt = 0
	second.BottomFieldOrderCnt = first.TopFieldOrderCnt + 1
	second.SecondField = true
	second.SystemFrameNumber = frame.SystemFrameNumber
	first.OtherField = second
	second.OtherField = first

	if err = e.handler.NewPicture(frame, first); err != nil {
		return
	}
	if err = e.handler.NewFieldPicture(first, second); err != nil {
		e.output(frame, first)
		return
	}

	for _, pic := range []*h264.Picture{first, second} {
		slice := e.NewSlice(h264.SliceTypeP, false, []byte{0x9a, 0x02, byte(pic.Field)})
		slice.Header.FieldPicFlag = 1
		slice.Header.BottomFieldFlag = boolToUint8(pic.Field == h264.FieldBottomField)
		if err = e.decode(pic, slice); err != nil {
			e.output(frame, first)
			e.handler.ReleasePicture(second)
			return
		}
	}

	// 场对作为一个参考帧进入 DPB，第二场的初始引用由 DPB 接管
	e.evict()
	first.Ref = h264.RefShortTerm
	second.Ref = h264.RefShortTerm
	e.handler.RefPicture(first)
	e.dpb.short = append([]*h264.Picture{first}, e.dpb.short...)

	e.output(frame, first)
	e.advance()
	return
}

func (e *Engine) decode(pic *h264.Picture, slice *h264.Slice) error {
	if err := e.handler.StartPicture(pic, slice, &e.dpb); err != nil {
		return err
	}
	var refs []*h264.Picture
	if slice.Header.IsPSlice() {
		refs = e.dpb.short
	}
	if err := e.handler.DecodeSlice(pic, slice, refs, nil); err != nil {
		return err
	}
	return e.handler.EndPicture(pic)
}

// evict 按滑动窗口移出参考图像，为新参考帧腾出位置
func (e *Engine) evict() {
	for e.dpb.Len() >= int(e.sps.NumRefFrames) && len(e.dpb.short) > 0 {
		e.release(e.dpb.evictOldest())
	}
}

func (e *Engine) reference(pic *h264.Picture) {
	if e.sps.NumRefFrames == 0 {
		return
	}
	e.evict()
	e.handler.RefPicture(pic)
	e.dpb.AddShortTerm(pic)
}

func (e *Engine) release(pic *h264.Picture) {
	e.handler.ReleasePicture(pic)
	if pic.OtherField != nil && pic.OtherField.SecondField {
		e.handler.ReleasePicture(pic.OtherField)
	}
}

func (e *Engine) output(frame *video.CodecFrame, pic *h264.Picture) {
	e.lastOutErr = e.handler.OutputPicture(frame, pic)
}

// Flush 释放全部参考图像
func (e *Engine) Flush() {
	for _, pic := range e.dpb.clear() {
		e.release(pic)
	}
}

func boolToUint8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
