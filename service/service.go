// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package service

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cnotch/scheduler"
	"github.com/cnotch/vadec/config"
	"github.com/cnotch/vadec/stats"
	"github.com/cnotch/vadec/va"
	"github.com/cnotch/xlog"
	"github.com/emitter-io/address"
)

// Service 网络服务对象(服务的入口)
type Service struct {
	context  context.Context
	cancel   context.CancelFunc
	logger   *xlog.Logger
	backend  va.Backend
	http     *http.Server
	sessions *registry
	events   *eventHub
	last     stats.Snapshot
}

// NewService 创建服务
func NewService(ctx context.Context, backend va.Backend, l *xlog.Logger) (s *Service, err error) {
	ctx, cancel := context.WithCancel(ctx)
	s = &Service{
		context:  ctx,
		cancel:   cancel,
		logger:   l,
		backend:  backend,
		http:     new(http.Server),
		sessions: newRegistry(),
		events:   newEventHub(l),
		last:     stats.Measure(false),
	}

	// 设置 http 的Handler
	mux := http.NewServeMux()
	if config.Profile() {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}

	s.initApis(mux)
	mux.HandleFunc("/ws/events", s.events.serve)
	s.http.Handler = mux

	// 定时输出解码统计
	scheduler.PeriodFunc(time.Minute, time.Minute, s.logStats,
		"The task of logging decoder statistics every minute")

	s.logger.Infof("service configured, backend = %s", backend.Name())
	return s, nil
}

// Handler 服务的 http 处理器
func (s *Service) Handler() http.Handler {
	return s.http.Handler
}

// Listen starts the service.
func (s *Service) Listen() (err error) {
	defer s.Close()
	s.hookSignals()

	addr, err := address.Parse(config.Addr(), 8088)
	if err != nil {
		s.logger.Panic(err.Error())
	}

	s.logger.Infof("starting the listener, addr = %s.", addr.String())
	l, err := net.ListenTCP("tcp", addr)
	if err != nil {
		s.logger.Panic(err.Error())
	}

	s.logger.Infof("service started(%s).", config.Version)
	err = s.http.Serve(l)
	if err == http.ErrServerClosed {
		err = nil
	}
	return
}

func (s *Service) logStats() {
	cur := stats.Measure(false)
	r := cur.Rates(s.last)
	s.last = cur

	s.logger.Infof("decoders: active = %d, pictures = %.1f/s, output = %.1f/s, input = %.0f bit/s, dropped = %.2f%%, errors = %d",
		cur.Sessions.Active, r.PicturesPS, r.OutputPS, r.InBitrate, r.DroppedRate*100, cur.Decoders.Errors)
}

// Close closes gracefully the service.,
func (s *Service) Close() {
	if s.cancel != nil {
		s.cancel()
	}

	// 停止计划任务
	jobs := scheduler.Jobs()
	for _, job := range jobs {
		job.Cancel()
	}

	s.events.closeAll()
	// 关闭全部解码会话
	for _, sess := range s.sessions.removeAll() {
		if err := sess.Close(); err != nil {
			s.logger.Warnf("close decoder session %s failed: %v", sess.Name, err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	s.http.Shutdown(ctx)
}

// OnSignal starts the signal processing and makes su
func (s *Service) hookSignals() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		for sig := range c {
			s.onSignal(sig)
		}
	}()
}

// OnSignal will be called when a OS-level signal is received.
func (s *Service) onSignal(sig os.Signal) {
	switch sig {
	case syscall.SIGTERM:
		fallthrough
	case syscall.SIGINT:
		s.logger.Warn(fmt.Sprintf("received signal %s, exiting...", sig.String()))
		s.Close()
		os.Exit(0)
	}
}
