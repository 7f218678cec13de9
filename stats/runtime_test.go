// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSnapshot_Rates(t *testing.T) {
	now := time.Now()
	prev := Snapshot{
		On:       now,
		Decoders: DecoderSample{Pictures: 10, Output: 8, Dropped: 2, InBytes: 1000},
	}
	cur := Snapshot{
		On:       now.Add(2 * time.Second),
		Decoders: DecoderSample{Pictures: 60, Output: 53, Dropped: 7, InBytes: 51000},
	}

	r := cur.Rates(prev)
	assert.Equal(t, 2*time.Second, r.Interval)
	assert.Equal(t, 25.0, r.PicturesPS)
	assert.Equal(t, 22.5, r.OutputPS)
	assert.Equal(t, 200000.0, r.InBitrate)
	assert.Equal(t, 0.1, r.DroppedRate)

	assert.Equal(t, Rates{}, prev.Rates(prev))
	assert.Equal(t, time.Duration(-2*time.Second), prev.Rates(cur).Interval)
}

func TestMeasure(t *testing.T) {
	s := Measure(false)
	assert.Nil(t, s.Memory)
	assert.True(t, s.Proc.Uptime >= 0)

	s = Measure(true)
	if assert.NotNil(t, s.Memory) {
		assert.True(t, s.Memory.Goroutines > 0)
		assert.True(t, s.Memory.Sys > 0)
	}
}
