// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package decoder

import (
	"errors"
	"testing"

	"github.com/cnotch/vadec/av/codec/h264"
	"github.com/cnotch/vadec/va"
	"github.com/cnotch/vadec/va/memdrv"
	"github.com/cnotch/vadec/video"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSink 记录协商和输出，缓冲在收到后立即归还
type recordingSink struct {
	pool     *video.BufferPool
	reject   error
	states   []*video.OutputState
	finished []*video.CodecFrame
	flags    []video.BufferFlags
	dropped  []*video.CodecFrame
}

func (s *recordingSink) Negotiate(state *video.OutputState) error {
	if s.reject != nil {
		return s.reject
	}
	s.states = append(s.states, state)
	if s.pool != nil {
		s.pool.Configure(state)
	}
	return nil
}

func (s *recordingSink) FinishFrame(frame *video.CodecFrame) error {
	s.finished = append(s.finished, frame)
	s.flags = append(s.flags, frame.OutputBuffer.Flags)
	frame.OutputBuffer.Release()
	return nil
}

func (s *recordingSink) DropFrame(frame *video.CodecFrame) {
	s.dropped = append(s.dropped, frame)
	if frame.OutputBuffer != nil {
		frame.OutputBuffer.Release()
		frame.OutputBuffer = nil
	}
}

func newTestSPS(profile h264.Profile, mbsW, mbsH int) *h264.SPS {
	sps := &h264.SPS{
		ProfileIdc:                profile,
		LevelIdc:                  40,
		ChromaFormatIdc:           h264.Chroma420,
		NumRefFrames:              2,
		PicWidthInMbsMinus1:       uint16(mbsW - 1),
		PicHeightInMapUnitsMinus1: uint16(mbsH - 1),
		FrameMbsOnlyFlag:          1,
	}
	sps.Finalize()
	return sps
}

func newTestDec(opts ...memdrv.Option) (*H264Dec, *memdrv.Driver, *recordingSink) {
	drv := memdrv.New(opts...)
	pool := video.NewBufferPool(0)
	sink := &recordingSink{pool: pool}
	return New(drv, sink, pool, WithName("test"), WithStats(nil)), drv, sink
}

func TestCandidateProfiles(t *testing.T) {
	tests := []struct {
		name   string
		sps    h264.SPS
		maxDpb int
		want   []va.Profile
	}{
		{"main", h264.SPS{ProfileIdc: h264.ProfileMain}, 4,
			[]va.Profile{va.ProfileH264Main}},
		{"high", h264.SPS{ProfileIdc: h264.ProfileHigh}, 4,
			[]va.Profile{va.ProfileH264High}},
		{"baseline", h264.SPS{ProfileIdc: h264.ProfileBaseline}, 4,
			[]va.Profile{}},
		{"constrained baseline", h264.SPS{ProfileIdc: h264.ProfileBaseline, ConstraintSet1Flag: 1}, 4,
			[]va.Profile{va.ProfileH264ConstrainedBaseline, va.ProfileH264Main}},
		{"extended", h264.SPS{ProfileIdc: h264.ProfileExtended}, 4,
			[]va.Profile{}},
		{"extended cs1", h264.SPS{ProfileIdc: h264.ProfileExtended, ConstraintSet1Flag: 1}, 4,
			[]va.Profile{va.ProfileH264Main}},
		{"stereo", h264.SPS{ProfileIdc: h264.ProfileMultiviewHigh, ExtensionType: h264.NalExtensionMVC,
			MVC: h264.SPSExtMVC{NumViewsMinus1: 1}}, 16,
			[]va.Profile{va.ProfileH264MultiviewHigh, va.ProfileH264StereoHigh}},
		{"multiview large dpb", h264.SPS{ProfileIdc: h264.ProfileMultiviewHigh}, 32,
			[]va.Profile{va.ProfileH264MultiviewHigh}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sps := tt.sps
			assert.Equal(t, tt.want, candidateProfiles(&sps, tt.maxDpb))
		})
	}
}

func TestGetProfile(t *testing.T) {
	sps := &h264.SPS{ProfileIdc: h264.ProfileBaseline, ConstraintSet1Flag: 1}

	drv := memdrv.New(memdrv.WithProfiles(va.ProfileH264ConstrainedBaseline))
	p, err := getProfile(sps, 4, drv)
	require.NoError(t, err)
	assert.Equal(t, va.ProfileH264ConstrainedBaseline, p)

	drv = memdrv.New(memdrv.WithProfiles(va.ProfileH264Main))
	p, err = getProfile(sps, 4, drv)
	require.NoError(t, err)
	assert.Equal(t, va.ProfileH264Main, p)

	drv = memdrv.New(memdrv.WithProfiles(va.ProfileH264High))
	_, err = getProfile(sps, 4, drv)
	assert.True(t, errors.Is(err, ErrUnsupportedProfile))

	_, err = getProfile(&h264.SPS{ProfileIdc: h264.ProfileBaseline}, 4, memdrv.New())
	assert.True(t, errors.Is(err, ErrUnsupportedProfile))
}

func TestGetRTFormat(t *testing.T) {
	tests := []struct {
		depth  int
		chroma uint8
		want   va.RTFormat
		format video.Format
	}{
		{8, h264.Chroma420, va.RTFormatYUV420, video.FormatNV12},
		{8, h264.ChromaMonochrome, va.RTFormatYUV420, video.FormatNV12},
		{8, h264.Chroma422, va.RTFormatYUV422, video.FormatYUY2},
		{8, h264.Chroma444, va.RTFormatYUV444, video.FormatVUYA},
		{10, h264.Chroma420, va.RTFormatYUV420_10, video.FormatP010LE},
		{10, h264.Chroma422, va.RTFormatYUV422_10, video.FormatY210},
		{10, h264.Chroma444, va.RTFormatYUV444_10, video.FormatY410},
	}
	for _, tt := range tests {
		got, err := getRTFormat(tt.depth, tt.chroma)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, tt.format, videoFormat(got))
	}

	_, err := getRTFormat(12, h264.Chroma420)
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
	_, err = getRTFormat(9, h264.Chroma444)
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestNewSequence(t *testing.T) {
	d, drv, sink := newTestDec()
	sps := newTestSPS(h264.ProfileHigh, 80, 45)

	require.NoError(t, d.NewSequence(sps, 4))
	assert.Equal(t, StateSequenceReady, d.State())
	assert.False(t, d.needNegotiation)
	require.Len(t, sink.states, 1)

	state := sink.states[0]
	assert.Equal(t, video.FormatNV12, state.Info.Format)
	assert.Equal(t, 1280, state.Info.Width)
	assert.Equal(t, 720, state.Info.Height)
	assert.Equal(t, video.InterlaceModeProgressive, state.Info.InterlaceMode)
	assert.Equal(t, video.CapsFeatureSystemMemory, state.Features)
	assert.True(t, state.Alignment.IsZero())
	assert.Equal(t, 4+DefaultPoolMargin, state.MinBuffers)

	profile, rt, w, h := drv.Config()
	assert.Equal(t, va.ProfileH264High, profile)
	assert.Equal(t, va.RTFormatYUV420, rt)
	assert.Equal(t, 1280, w)
	assert.Equal(t, 720, h)

	t.Run("identical", func(t *testing.T) {
		same := *sps
		require.NoError(t, d.NewSequence(&same, 4))
		assert.False(t, d.needNegotiation)
		assert.Len(t, sink.states, 1, "no renegotiation")
	})

	t.Run("dpb grows", func(t *testing.T) {
		require.NoError(t, d.NewSequence(sps, 2))
		assert.Equal(t, 4, d.dpbSize)
		require.NoError(t, d.NewSequence(sps, 6))
		assert.Equal(t, 6, d.dpbSize)
		assert.Equal(t, 6+DefaultPoolMargin, d.minBuffers)
		assert.Len(t, sink.states, 1, "dpb size alone does not renegotiate")
	})
}

func TestNewSequenceInterlaceChange(t *testing.T) {
	d, _, sink := newTestDec()
	sps := newTestSPS(h264.ProfileMain, 45, 36)
	require.NoError(t, d.NewSequence(sps, 4))
	require.Len(t, sink.states, 1)

	// 场编码时 map unit 为两行宏块，保持编码尺寸不变
	field := *sps
	field.FrameMbsOnlyFlag = 0
	field.PicHeightInMapUnitsMinus1 = 17
	field.Finalize()
	require.Equal(t, sps.Height, field.Height)

	profile, rt, dpb := d.profile, d.rtFormat, d.dpbSize
	require.NoError(t, d.NewSequence(&field, 4))
	assert.True(t, d.interlaced)
	assert.Equal(t, profile, d.profile)
	assert.Equal(t, rt, d.rtFormat)
	assert.Equal(t, dpb, d.dpbSize)
	require.Len(t, sink.states, 2)
	assert.Equal(t, video.InterlaceModeMixed, sink.states[1].Info.InterlaceMode)
	assert.Equal(t, sink.states[0].Info.Format, sink.states[1].Info.Format)
}

func TestNewSequenceCropping(t *testing.T) {
	d, _, sink := newTestDec()
	sps := newTestSPS(h264.ProfileHigh, 120, 68)
	sps.FrameCroppingFlag = 1
	sps.FrameCropBottomOffset = 4
	sps.Finalize()

	require.NoError(t, d.NewSequence(sps, 4))
	require.Len(t, sink.states, 1)
	state := sink.states[0]
	assert.Equal(t, 1920, state.Info.Width)
	assert.Equal(t, 1080, state.Info.Height)
	assert.Equal(t, video.Alignment{PaddingBottom: 8}, state.Alignment)
	assert.Equal(t, 1920, d.codedWidth)
	assert.Equal(t, 1088, d.codedHeight)

	// 显示尺寸不变，只有填充变化
	moved := *sps
	moved.FrameCropTopOffset = 2
	moved.FrameCropBottomOffset = 2
	moved.Finalize()
	require.NoError(t, d.NewSequence(&moved, 4))
	require.Len(t, sink.states, 2)
	assert.Equal(t, video.Alignment{PaddingTop: 4, PaddingBottom: 4}, sink.states[1].Alignment)
}

func TestNewSequenceVAMemory(t *testing.T) {
	drv := memdrv.New()
	sink := &recordingSink{}
	d := New(drv, sink, video.NewBufferPool(0), WithVAMemory(true), WithPoolMargin(2), WithStats(nil))

	sps := newTestSPS(h264.ProfileHigh, 20, 15)
	sps.BitDepthLumaMinus8 = 2
	require.NoError(t, d.NewSequence(sps, 3))
	require.Len(t, sink.states, 1)
	assert.Equal(t, video.CapsFeatureVAMemory, sink.states[0].Features)
	assert.Equal(t, video.FormatP010LE, sink.states[0].Info.Format)
	assert.Equal(t, 5, sink.states[0].MinBuffers)
}

func TestNewSequenceFailures(t *testing.T) {
	t.Run("unsupported profile", func(t *testing.T) {
		d, _, sink := newTestDec(memdrv.WithProfiles(va.ProfileH264Main))
		err := d.NewSequence(newTestSPS(h264.ProfileHigh, 20, 15), 4)
		assert.True(t, errors.Is(err, ErrUnsupportedProfile))
		assert.Equal(t, StateError, d.State())
		assert.Empty(t, sink.states)

		// 错误状态是终止状态
		err = d.NewSequence(newTestSPS(h264.ProfileMain, 20, 15), 4)
		assert.True(t, errors.Is(err, ErrUnsupportedProfile))
		err = d.NewPicture(&video.CodecFrame{}, &h264.Picture{})
		assert.True(t, errors.Is(err, ErrUnsupportedProfile))
	})

	t.Run("unsupported format", func(t *testing.T) {
		d, _, _ := newTestDec()
		sps := newTestSPS(h264.ProfileHigh, 20, 15)
		sps.BitDepthLumaMinus8 = 4
		err := d.NewSequence(sps, 4)
		assert.True(t, errors.Is(err, ErrUnsupportedFormat))
		assert.Equal(t, StateError, d.State())
		assert.Equal(t, err, d.Err())
	})

	t.Run("downstream rejects", func(t *testing.T) {
		d, _, sink := newTestDec()
		sink.reject = errors.New("not-negotiated")
		err := d.NewSequence(newTestSPS(h264.ProfileHigh, 20, 15), 4)
		assert.True(t, errors.Is(err, ErrNegotiation))
		assert.Equal(t, StateError, d.State())
		assert.Equal(t, int64(1), d.Stats().Errors)
	})

	t.Run("accelerator open fails", func(t *testing.T) {
		d, drv, _ := newTestDec()
		drv.InjectFault(memdrv.OpOpen, va.ErrProfile)
		err := d.NewSequence(newTestSPS(h264.ProfileHigh, 20, 15), 4)
		assert.True(t, errors.Is(err, ErrNegotiation))
	})
}

func TestNegotiateNoop(t *testing.T) {
	d, _, sink := newTestDec()
	require.NoError(t, d.Negotiate())
	assert.Empty(t, sink.states, "nothing pending")

	require.NoError(t, d.NewSequence(newTestSPS(h264.ProfileHigh, 20, 15), 4))
	require.NoError(t, d.Negotiate())
	assert.Len(t, sink.states, 1)

	require.NoError(t, d.Close())
	assert.Equal(t, ErrClosed, d.Negotiate())
}
