// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package decoder

import "errors"

// 解码会话错误
var (
	ErrNotNegotiated      = errors.New("decoder: no sequence negotiated")
	ErrUnsupportedProfile = errors.New("decoder: profile is not supported")
	ErrUnsupportedFormat  = errors.New("decoder: chroma format or bit depth is not supported")
	ErrNegotiation        = errors.New("decoder: downstream negotiation failed")
	ErrInvalidState       = errors.New("decoder: callback out of order")
	ErrNoSurface          = errors.New("decoder: picture has no surface")
	ErrClosed             = errors.New("decoder: session is closed")
)
