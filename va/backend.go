// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package va

// Backend 可配置的后端提供者，每个解码会话从它获取一个 Decoder
type Backend interface {
	Name() string
	Configure(config map[string]interface{}) error
	NewDecoder() Decoder
}
