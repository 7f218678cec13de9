// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrimStartCode(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want []byte
	}{
		{"4 bytes", []byte{0, 0, 0, 1, 0x67}, []byte{0x67}},
		{"3 bytes", []byte{0, 0, 1, 0x68}, []byte{0x68}},
		{"none", []byte{0x65, 0x88}, []byte{0x65, 0x88}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TrimStartCode(tt.in))
		})
	}
}

func TestRemoveEmulationBytes(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want []byte
	}{
		{"plain", []byte{0x67, 0x42, 0x00, 0x1e}, []byte{0x67, 0x42, 0x00, 0x1e}},
		{"escaped zero", []byte{0x67, 0x00, 0x00, 0x03, 0x00, 0x01}, []byte{0x67, 0x00, 0x00, 0x00, 0x01}},
		{"escaped twice", []byte{0x00, 0x00, 0x03, 0x00, 0x00, 0x03, 0x01}, []byte{0x00, 0x00, 0x00, 0x00, 0x01}},
		{"trailing", []byte{0x68, 0x00, 0x00, 0x03}, []byte{0x68, 0x00, 0x00}},
		{"not escape", []byte{0x00, 0x00, 0x03, 0x04}, []byte{0x00, 0x00, 0x03, 0x04}},
		{"with start code", []byte{0, 0, 0, 1, 0x65, 0x00, 0x00, 0x03, 0x02}, []byte{0x65, 0x00, 0x00, 0x02}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RemoveEmulationBytes(tt.in))
		})
	}
}
