// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package h264

import (
	"encoding/base64"
	"errors"
	"testing"

	"github.com/cnotch/vadec/utils/bits"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSPS_Decode(t *testing.T) {
	tests := []struct {
		name        string
		b64         string
		wantProfile Profile
		wantLevel   uint8
		wantW       int
		wantH       int
	}{
		{
			"base64_1",
			"Z2QAH6zZQFAFuhAAAAMAEAAAAwPI8YMZYA==",
			ProfileHigh,
			31,
			1280,
			720,
		},
		{
			"base64_2",
			"Z3oAH7y0AoAt0IAAAAMAgAAAHkeMGVA=",
			ProfileHigh422,
			31,
			1280,
			720,
		},
		{
			"base64_3",
			"Z2QAM6wspADwAQ+wFSAgICgAAB9IAAdTBO0LFok=",
			ProfileHigh,
			51,
			3840,
			2160,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sps := &SPS{}
			require.NoError(t, sps.DecodeString(tt.b64))
			assert.Equal(t, tt.wantProfile, sps.ProfileIdc)
			assert.Equal(t, tt.wantLevel, sps.LevelIdc)
			assert.Equal(t, tt.wantW, sps.CropRectWidth)
			assert.Equal(t, tt.wantH, sps.CropRectHeight)
			assert.Equal(t, uint8(1), sps.FrameMbsOnlyFlag)
		})
	}
}

func TestSPS_DecodeNotSps(t *testing.T) {
	sps := &SPS{}
	assert.Equal(t, ErrNotSps, sps.Decode([]byte{0x68, 0xee, 0x3c, 0x80}))
	assert.Equal(t, ErrSpsTooShort, sps.Decode([]byte{0x67}))
	assert.Error(t, sps.DecodeString("not base64"))
}

func TestSPS_DecodeTruncated(t *testing.T) {
	data, err := base64.StdEncoding.DecodeString("Z2QAH6zZQFAFuhAAAAMAEAAAAwPI8YMZYA==")
	require.NoError(t, err)

	sps := &SPS{}
	err = sps.Decode(data[:6])
	assert.True(t, errors.Is(err, bits.ErrUnexpectedEOF), "%v", err)

	// 带起始码
	sps = &SPS{}
	require.NoError(t, sps.Decode(append([]byte{0, 0, 0, 1}, data...)))
	assert.Equal(t, 1280, sps.CropRectWidth)
}

func TestSPS_Finalize(t *testing.T) {
	tests := []struct {
		name                 string
		sps                  SPS
		wantW, wantH         int
		wantCropX, wantCropY int
		wantCropW, wantCropH int
	}{
		{
			"1080p cropped",
			SPS{
				ChromaFormatIdc:           Chroma420,
				PicWidthInMbsMinus1:       119,
				PicHeightInMapUnitsMinus1: 67,
				FrameMbsOnlyFlag:          1,
				FrameCroppingFlag:         1,
				FrameCropBottomOffset:     4,
			},
			1920, 1088, 0, 0, 1920, 1080,
		},
		{
			"interlaced",
			SPS{
				ChromaFormatIdc:           Chroma420,
				PicWidthInMbsMinus1:       44,
				PicHeightInMapUnitsMinus1: 17,
				FrameMbsOnlyFlag:          0,
				FrameCroppingFlag:         1,
				FrameCropLeftOffset:       2,
				FrameCropTopOffset:        1,
			},
			720, 576, 4, 4, 716, 572,
		},
		{
			"4:4:4 no crop",
			SPS{
				ChromaFormatIdc:           Chroma444,
				PicWidthInMbsMinus1:       19,
				PicHeightInMapUnitsMinus1: 14,
				FrameMbsOnlyFlag:          1,
			},
			320, 240, 0, 0, 320, 240,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sps := tt.sps
			sps.Finalize()
			assert.Equal(t, tt.wantW, sps.Width)
			assert.Equal(t, tt.wantH, sps.Height)
			assert.Equal(t, tt.wantCropX, sps.CropRectX)
			assert.Equal(t, tt.wantCropY, sps.CropRectY)
			assert.Equal(t, tt.wantCropW, sps.CropRectWidth)
			assert.Equal(t, tt.wantCropH, sps.CropRectHeight)
		})
	}
}

func TestSPS_NumViews(t *testing.T) {
	sps := &SPS{}
	assert.Equal(t, 1, sps.NumViews())

	sps.MVC.NumViewsMinus1 = 1
	assert.Equal(t, 1, sps.NumViews(), "no mvc extension")

	sps.ExtensionType = NalExtensionMVC
	assert.Equal(t, 2, sps.NumViews())
}

func TestSPS_ChromaArrayType(t *testing.T) {
	sps := &SPS{ChromaFormatIdc: Chroma444}
	assert.Equal(t, uint8(Chroma444), sps.ChromaArrayType())
	sps.SeparateColourPlaneFlag = 1
	assert.Equal(t, uint8(0), sps.ChromaArrayType())
}
