// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package memdrv

import (
	"errors"
	"testing"

	"github.com/cnotch/vadec/va"
	"github.com/cnotch/vadec/video"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDriverOpen(t *testing.T) {
	d := New(WithProfiles(va.ProfileH264Main))

	assert.True(t, errors.Is(d.Open(va.ProfileH264High, va.RTFormatYUV420), va.ErrProfile))
	assert.False(t, d.IsOpen())

	require.NoError(t, d.Open(va.ProfileH264Main, va.RTFormatYUV420))
	assert.Equal(t, va.ErrAlreadyOpen, d.Open(va.ProfileH264Main, va.RTFormatYUV420))
	require.NoError(t, d.SetFrameSize(1920, 1088))
	assert.True(t, d.ConfigIsEqual(va.ProfileH264Main, va.RTFormatYUV420, 1920, 1088))
	assert.False(t, d.ConfigIsEqual(va.ProfileH264Main, va.RTFormatYUV420_10, 1920, 1088))

	require.NoError(t, d.Close())
	assert.False(t, d.ConfigIsEqual(va.ProfileH264Main, va.RTFormatYUV420, 1920, 1088))
	assert.Equal(t, va.ErrNotOpen, d.SetFrameSize(16, 16))
}

func TestDriverSurfaces(t *testing.T) {
	d := New(WithSurfaces(1))
	require.NoError(t, d.Open(va.ProfileH264High, va.RTFormatYUV420))

	buf := &video.Buffer{}
	top, err := d.NewDecodePicture(buf)
	require.NoError(t, err)
	bottom, err := d.NewDecodePicture(buf)
	require.NoError(t, err)
	assert.Equal(t, top.Surface, bottom.Surface)
	assert.Equal(t, uint32(top.Surface), buf.Surface)
	assert.Equal(t, 1, d.LiveSurfaces())

	_, err = d.NewDecodePicture(&video.Buffer{})
	assert.Equal(t, va.ErrNoSurface, err)

	d.DestroyDecodePicture(top)
	assert.Equal(t, 1, d.LiveSurfaces())
	d.DestroyDecodePicture(bottom)
	assert.Equal(t, 0, d.LiveSurfaces())

	d.DestroyDecodePicture(bottom)
	assert.Equal(t, 1, d.DoubleFrees())
	assert.Equal(t, va.ErrPictureReleased, d.Decode(bottom))
}

func TestDriverDecode(t *testing.T) {
	d := New()
	require.NoError(t, d.Open(va.ProfileH264High, va.RTFormatYUV420))

	pic, err := d.NewDecodePicture(&video.Buffer{})
	require.NoError(t, err)

	t.Run("empty picture", func(t *testing.T) {
		assert.True(t, errors.Is(d.Decode(pic), va.ErrDecode))
	})

	t.Run("rejected payload", func(t *testing.T) {
		err := d.AddParamBuffer(pic, va.IQMatrixBufferType, &va.PictureParameterBufferH264{})
		assert.True(t, errors.Is(err, va.ErrBufferRejected))
		err = d.AddParamBuffer(pic, va.PictureParameterBufferType, 42)
		assert.True(t, errors.Is(err, va.ErrBufferRejected))
	})

	t.Run("slice out of range", func(t *testing.T) {
		err := d.AddSliceBuffer(pic, &va.SliceParameterBufferH264{SliceDataSize: 8}, make([]byte, 4))
		assert.True(t, errors.Is(err, va.ErrBufferRejected))
	})

	t.Run("execute", func(t *testing.T) {
		params := &va.PictureParameterBufferH264{FrameNum: 3}
		require.NoError(t, d.AddParamBuffer(pic, va.PictureParameterBufferType, params))
		params.FrameNum = 4 // 提交时已拷贝

		data := []byte{0x65, 0x88, 0x84}
		require.NoError(t, d.AddSliceBuffer(pic, &va.SliceParameterBufferH264{SliceDataSize: 3}, data))
		require.NoError(t, d.Decode(pic))
		assert.Empty(t, pic.Params)

		execs := d.Executions()
		require.Len(t, execs, 1)
		assert.Equal(t, pic.Surface, execs[0].Surface)
		got := execs[0].Params[0].Data.(*va.PictureParameterBufferH264)
		assert.Equal(t, uint16(3), got.FrameNum)
		assert.Same(t, &data[0], &execs[0].Slices[0].Data[0])

		d.ResetExecutions()
		assert.Empty(t, d.Executions())
	})

	t.Run("fault", func(t *testing.T) {
		errFault := errors.New("fault")
		d.InjectFault(OpAddSlice, errFault)
		assert.Equal(t, errFault, d.AddSliceBuffer(pic, &va.SliceParameterBufferH264{}, nil))
		assert.NoError(t, d.AddSliceBuffer(pic, &va.SliceParameterBufferH264{}, nil))
	})

	t.Run("read surface", func(t *testing.T) {
		dst := make([]byte, 4)
		n, err := d.ReadSurface(pic.Surface, dst)
		require.NoError(t, err)
		assert.Equal(t, 4, n)
		_, err = d.ReadSurface(va.InvalidSurface, dst)
		assert.Error(t, err)
	})
}

func TestProvider(t *testing.T) {
	tests := []struct {
		name    string
		config  map[string]interface{}
		wantErr bool
	}{
		{"default", nil, false},
		{"profiles", map[string]interface{}{"profiles": []interface{}{"H264Main"}, "surfaces": float64(2)}, false},
		{"bad profile", map[string]interface{}{"profiles": []interface{}{"VP9"}}, true},
		{"bad surfaces", map[string]interface{}{"surfaces": "many"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Provider.Configure(tt.config)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "memory", Provider.Name())
			assert.NotNil(t, Provider.NewDecoder())
		})
	}

	require.NoError(t, Provider.Configure(map[string]interface{}{"profiles": []interface{}{"H264Main"}}))
	dec := Provider.NewDecoder()
	assert.True(t, dec.HasProfile(va.ProfileH264Main))
	assert.False(t, dec.HasProfile(va.ProfileH264High))
}
