// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package decoder

import (
	"github.com/cnotch/vadec/av/codec/h264"
	"github.com/cnotch/vadec/va"
)

// pictureEntry 会话为每个图像保存的状态
type pictureEntry struct {
	va    *va.DecodePicture // 分配失败时为 nil
	err   error             // 记录的失败，输出时返回
	stage stage
	refs  int
}

// surfaceTable 图像到 surface 的旁路表，键为图像指针
type surfaceTable struct {
	entries map[*h264.Picture]*pictureEntry
}

func newSurfaceTable() *surfaceTable {
	return &surfaceTable{entries: make(map[*h264.Picture]*pictureEntry)}
}

func (t *surfaceTable) attach(pic *h264.Picture, vaPic *va.DecodePicture, err error) *pictureEntry {
	e := &pictureEntry{va: vaPic, err: err, refs: 1}
	t.entries[pic] = e
	return e
}

func (t *surfaceTable) get(pic *h264.Picture) *pictureEntry {
	if pic == nil {
		return nil
	}
	return t.entries[pic]
}

// surfaceOf 返回图像的 surface，没有时 ok 为 false
func (t *surfaceTable) surfaceOf(pic *h264.Picture) (id va.SurfaceID, ok bool) {
	e := t.get(pic)
	if e == nil || e.va == nil {
		return va.InvalidSurface, false
	}
	return e.va.Surface, true
}

func (t *surfaceTable) detach(pic *h264.Picture) *pictureEntry {
	e := t.entries[pic]
	delete(t.entries, pic)
	return e
}

func (t *surfaceTable) len() int {
	return len(t.entries)
}
