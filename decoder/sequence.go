// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package decoder

import (
	"fmt"

	"github.com/cnotch/vadec/av/codec/h264"
	"github.com/cnotch/vadec/va"
	"github.com/cnotch/vadec/video"
)

// profileMap profile_idc 到 va profile 的直接映射
var profileMap = []struct {
	idc     h264.Profile
	profile va.Profile
}{
	{h264.ProfileMain, va.ProfileH264Main},
	{h264.ProfileHigh, va.ProfileH264High},
	{h264.ProfileMultiviewHigh, va.ProfileH264MultiviewHigh},
	{h264.ProfileStereoHigh, va.ProfileH264StereoHigh},
}

// candidateProfiles 按优先顺序列出可以解码该序列的 profile
func candidateProfiles(sps *h264.SPS, maxDpbSize int) []va.Profile {
	profiles := make([]va.Profile, 0, 4)
	for _, m := range profileMap {
		if m.idc == sps.ProfileIdc {
			profiles = append(profiles, m.profile)
			break
		}
	}

	switch sps.ProfileIdc {
	case h264.ProfileBaseline:
		// A.2 compliant
		if sps.ConstraintSet0Flag != 0 || sps.ConstraintSet1Flag != 0 ||
			sps.ConstraintSet2Flag != 0 {
			profiles = append(profiles, va.ProfileH264ConstrainedBaseline, va.ProfileH264Main)
		}
	case h264.ProfileExtended:
		if sps.ConstraintSet1Flag != 0 { // A.2.2 (main profile)
			profiles = append(profiles, va.ProfileH264Main)
		}
	case h264.ProfileMultiviewHigh:
		if sps.NumViews() == 2 {
			profiles = append(profiles, va.ProfileH264StereoHigh)
		}
		if maxDpbSize <= h264.MaxDpbFrames {
			profiles = appendProfile(profiles, va.ProfileH264MultiviewHigh)
		}
	}
	return profiles
}

func appendProfile(profiles []va.Profile, p va.Profile) []va.Profile {
	for _, q := range profiles {
		if q == p {
			return profiles
		}
	}
	return append(profiles, p)
}

// getProfile 选出后端支持的第一个候选 profile
func getProfile(sps *h264.SPS, maxDpbSize int, dec va.Decoder) (va.Profile, error) {
	for _, p := range candidateProfiles(sps, maxDpbSize) {
		if dec.HasProfile(p) {
			return p, nil
		}
	}
	return va.ProfileNone, fmt.Errorf("%w: %s (%d)", ErrUnsupportedProfile, sps.ProfileIdc, sps.ProfileIdc)
}

// getRTFormat 由亮度位深和色度格式得到 rt 格式。
// chroma_format_idc 为 0 (单色) 时按 4:2:0 处理。
func getRTFormat(bitDepthLuma int, chromaFormatIdc uint8) (va.RTFormat, error) {
	switch bitDepthLuma {
	case 10:
		switch chromaFormatIdc {
		case h264.Chroma444:
			return va.RTFormatYUV444_10, nil
		case h264.Chroma422:
			return va.RTFormatYUV422_10, nil
		default:
			return va.RTFormatYUV420_10, nil
		}
	case 8:
		switch chromaFormatIdc {
		case h264.Chroma444:
			return va.RTFormatYUV444, nil
		case h264.Chroma422:
			return va.RTFormatYUV422, nil
		default:
			return va.RTFormatYUV420, nil
		}
	}
	return 0, fmt.Errorf("%w: chroma format %d with luma depth %d",
		ErrUnsupportedFormat, chromaFormatIdc, bitDepthLuma)
}

// videoFormat rt 格式对应的输出像素格式
func videoFormat(rtFormat va.RTFormat) video.Format {
	switch rtFormat {
	case va.RTFormatYUV420:
		return video.FormatNV12
	case va.RTFormatYUV420_10:
		return video.FormatP010LE
	case va.RTFormatYUV422:
		return video.FormatYUY2
	case va.RTFormatYUV422_10:
		return video.FormatY210
	case va.RTFormatYUV444:
		return video.FormatVUYA
	case va.RTFormatYUV444_10:
		return video.FormatY410
	default:
		return video.FormatUnknown
	}
}

// newSequence 比较新序列和当前会话状态，有变化时重新协商
func (d *H264Dec) newSequence(sps *h264.SPS, maxDpbSize int) error {
	if d.dpbSize < maxDpbSize {
		d.dpbSize = maxDpbSize
	}

	var displayWidth, displayHeight int
	var padding video.Alignment
	if sps.FrameCroppingFlag != 0 {
		displayWidth = sps.CropRectWidth
		displayHeight = sps.CropRectHeight
		padding = video.Alignment{
			PaddingLeft:   sps.CropRectX,
			PaddingRight:  sps.Width - sps.CropRectX - displayWidth,
			PaddingTop:    sps.CropRectY,
			PaddingBottom: sps.Height - sps.CropRectY - displayHeight,
		}
	} else {
		displayWidth = sps.Width
		displayHeight = sps.Height
	}

	profile, err := getProfile(sps, maxDpbSize, d.decoder)
	if err != nil {
		d.logger.Errorf("%v", err)
		return err
	}

	rtFormat, err := getRTFormat(int(sps.BitDepthLumaMinus8)+8, sps.ChromaFormatIdc)
	if err != nil {
		d.logger.Errorf("%v", err)
		return err
	}

	negotiationNeeded := false
	if !d.decoder.ConfigIsEqual(profile, rtFormat, sps.Width, sps.Height) {
		d.profile = profile
		d.rtFormat = rtFormat
		d.codedWidth = sps.Width
		d.codedHeight = sps.Height

		negotiationNeeded = true
		d.logger.Infof("format changed to %s [%s] (%dx%d)",
			profile, rtFormat, d.codedWidth, d.codedHeight)
	}

	if d.width != displayWidth || d.height != displayHeight {
		d.width = displayWidth
		d.height = displayHeight

		negotiationNeeded = true
		d.logger.Infof("resolution changed to %dx%d", d.width, d.height)
	}

	interlaced := sps.FrameMbsOnlyFlag == 0
	if d.interlaced != interlaced {
		d.interlaced = interlaced

		negotiationNeeded = true
		d.logger.Infof("interlaced mode changed to %t", interlaced)
	}

	d.needValign = d.width < d.codedWidth || d.height < d.codedHeight
	if d.needValign {
		if d.valign != padding {
			negotiationNeeded = true
			d.logger.Infof("crop rect changed to (%d,%d)-->(%d,%d)",
				padding.PaddingLeft, padding.PaddingTop, padding.PaddingRight, padding.PaddingBottom)
		}
		d.valign = padding
	}

	d.minBuffers = d.dpbSize + d.poolMargin // dpb size + scratch surfaces

	if negotiationNeeded {
		d.needNegotiation = true
		if err := d.negotiate(); err != nil {
			d.logger.Errorf("failed to negotiate with downstream; %v", err)
			return fmt.Errorf("%w: %v", ErrNegotiation, err)
		}
	}
	return nil
}

// negotiate 重新打开加速器并向下游提交输出状态。
// 没有待处理的协商请求时忽略。
func (d *H264Dec) negotiate() error {
	if !d.needNegotiation {
		return nil
	}
	d.needNegotiation = false

	if d.decoder.IsOpen() {
		if err := d.decoder.Close(); err != nil {
			return err
		}
	}
	if err := d.decoder.Open(d.profile, d.rtFormat); err != nil {
		return err
	}
	if err := d.decoder.SetFrameSize(d.codedWidth, d.codedHeight); err != nil {
		return err
	}

	features := video.CapsFeatureSystemMemory
	if d.vaMemory {
		features = video.CapsFeatureVAMemory
	}

	state := &video.OutputState{
		Info: video.Info{
			Format:        videoFormat(d.rtFormat),
			Width:         d.width,
			Height:        d.height,
			InterlaceMode: video.InterlaceModeProgressive,
		},
		Features:   features,
		MinBuffers: d.minBuffers,
	}
	if d.interlaced {
		state.Info.InterlaceMode = video.InterlaceModeMixed
	}
	if d.needValign {
		state.Alignment = d.valign
	}

	d.outputState = state
	d.logger.Infof("negotiated caps %s", state.String())
	return d.sink.Negotiate(state)
}
