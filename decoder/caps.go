// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package decoder

import (
	"sort"
	"strings"

	"github.com/cnotch/vadec/va"
)

// SinkCaps 解码器输入端能力描述
type SinkCaps struct {
	MediaType     string       `json:"media_type"`
	StreamFormats []string     `json:"stream_formats"`
	Alignment     string       `json:"alignment"`
	Profiles      []va.Profile `json:"profiles"`
}

// String 以 caps 字符串形式输出
func (c *SinkCaps) String() string {
	var b strings.Builder
	b.WriteString(c.MediaType)
	b.WriteString(", stream-format=(string){ ")
	b.WriteString(strings.Join(c.StreamFormats, ", "))
	b.WriteString(" }, alignment=(string)")
	b.WriteString(c.Alignment)
	if len(c.Profiles) > 0 {
		names := make([]string, len(c.Profiles))
		for i, p := range c.Profiles {
			names[i] = p.String()
		}
		b.WriteString(", profile=(string){ ")
		b.WriteString(strings.Join(names, ", "))
		b.WriteString(" }")
	}
	return b.String()
}

// h264Profiles 可能由后端支持的 H.264 profile
var h264Profiles = []va.Profile{
	va.ProfileH264ConstrainedBaseline,
	va.ProfileH264Main,
	va.ProfileH264High,
	va.ProfileH264MultiviewHigh,
	va.ProfileH264StereoHigh,
}

// NewSinkCaps 按后端支持的 profile 完成输入端能力描述。
// 支持 Main 时同时能解码 Constrained Baseline。
func NewSinkCaps(dec va.Decoder) *SinkCaps {
	caps := &SinkCaps{
		MediaType:     "video/x-h264",
		StreamFormats: []string{"avc", "avc3", "byte-stream"},
		Alignment:     "au",
	}

	set := make(map[va.Profile]bool)
	for _, p := range h264Profiles {
		if dec.HasProfile(p) {
			set[p] = true
		}
	}
	if set[va.ProfileH264Main] {
		set[va.ProfileH264ConstrainedBaseline] = true
	}
	for p := range set {
		caps.Profiles = append(caps.Profiles, p)
	}
	sort.Slice(caps.Profiles, func(i, j int) bool { return caps.Profiles[i] < caps.Profiles[j] })
	return caps
}

// PreferredOutputDelay 引擎的输出延迟帧数，直播时不延迟
func PreferredOutputDelay(live bool) int {
	if live {
		return 0
	}
	return 1
}
