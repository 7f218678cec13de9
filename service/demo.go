// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package service

import (
	"fmt"
	"runtime/debug"
	"time"

	"github.com/cnotch/vadec/av/codec/h264"
	"github.com/cnotch/vadec/config"
	"github.com/cnotch/vadec/decoder/decodertest"
)

// StartDemo 按配置启动演示会话，每个会话由脚本化引擎按帧率驱动
func (s *Service) StartDemo(demo config.DemoConfig) error {
	var sps *h264.SPS
	if demo.SPS != "" {
		sps = &h264.SPS{}
		if err := sps.DecodeString(demo.SPS); err != nil {
			return fmt.Errorf("demo sps: %w", err)
		}
	}

	for i := 0; i < demo.Sessions; i++ {
		name := fmt.Sprintf("demo-%d", i+1)
		sess, err := s.NewSession(name)
		if err != nil {
			return err
		}

		seq := sps
		if seq == nil {
			seq = decodertest.NewSPS(h264.ProfileHigh, demo.Width, demo.Height)
		} else {
			clone := *sps
			seq = &clone
		}
		e := decodertest.NewEngine(sess.Decoder, seq)
		e.GOPSize = demo.GOP
		e.FrameDuration = time.Second / time.Duration(demo.FPS)
		if err = e.Start(); err != nil {
			s.CloseSession(name)
			return fmt.Errorf("start demo session %s: %w", name, err)
		}

		stop := make(chan struct{})
		done := make(chan struct{})
		sess.OnClose(func() {
			close(stop)
			<-done
		})
		go s.runDemo(sess, e, stop, done)
	}
	return nil
}

func (s *Service) runDemo(sess *Session, e *decodertest.Engine, stop, done chan struct{}) {
	ticker := time.NewTicker(e.FrameDuration)
	defer close(done)
	defer func() {
		defer func() { // 避免 Flush 再 panic
			recover()
		}()

		ticker.Stop()
		if r := recover(); r != nil {
			s.logger.Errorf("demo session %s routine panic；r = %v \n %s", sess.Name, r, debug.Stack())
		}
		e.Flush()
	}()

	for {
		select {
		case <-ticker.C:
			if _, err := e.DecodeFrame(); err != nil {
				s.logger.Warnf("demo session %s decode frame failed: %v", sess.Name, err)
			}
		case <-stop:
			return
		case <-s.context.Done():
			return
		}
	}
}
