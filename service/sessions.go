// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package service

import (
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/cnotch/vadec/config"
	"github.com/cnotch/vadec/decoder"
	"github.com/cnotch/vadec/video"
	"github.com/cnotch/xlog"
)

// 会话注册错误
var (
	ErrSessionExists   = errors.New("decoder session already exists")
	ErrInvalidSession  = errors.New("decoder session name is empty")
	ErrSessionNotFound = errors.New("decoder session not found")
)

// Session 一个解码会话以及它的输出缓冲池和下游队列
type Session struct {
	Name    string
	Decoder *decoder.H264Dec
	Pool    *video.BufferPool
	Queue   *video.FrameQueue

	closeOnce sync.Once
	onClose   []func()
}

// OnClose 注册会话关闭时的回调，按注册的逆序执行
func (s *Session) OnClose(f func()) {
	s.onClose = append(s.onClose, f)
}

// Close 关闭会话，先停止解码再停止下游
func (s *Session) Close() (err error) {
	s.closeOnce.Do(func() {
		for i := len(s.onClose) - 1; i >= 0; i-- {
			s.onClose[i]()
		}
		err = s.Decoder.Close()
		s.Queue.Close()
	})
	return
}

// Caps 会话接受的码流能力
func (s *Session) Caps() *decoder.SinkCaps {
	return decoder.NewSinkCaps(s.Decoder.Decoder())
}

// registry 解码会话注册表
type registry struct {
	l        sync.RWMutex
	sessions map[string]*Session
}

func newRegistry() *registry {
	return &registry{sessions: make(map[string]*Session)}
}

func (r *registry) add(s *Session) error {
	r.l.Lock()
	defer r.l.Unlock()

	key := strings.ToLower(s.Name)
	if _, ok := r.sessions[key]; ok {
		return ErrSessionExists
	}
	r.sessions[key] = s
	return nil
}

func (r *registry) get(name string) *Session {
	r.l.RLock()
	defer r.l.RUnlock()
	return r.sessions[strings.ToLower(name)]
}

func (r *registry) remove(name string) *Session {
	r.l.Lock()
	defer r.l.Unlock()

	key := strings.ToLower(name)
	s := r.sessions[key]
	delete(r.sessions, key)
	return s
}

func (r *registry) count() int {
	r.l.RLock()
	defer r.l.RUnlock()
	return len(r.sessions)
}

func (r *registry) removeAll() []*Session {
	r.l.Lock()
	defer r.l.Unlock()

	all := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		all = append(all, s)
	}
	r.sessions = make(map[string]*Session)
	return all
}

// infos 按名称排序分页，返回总数和名称大于 pageToken 的最多 pageSize 个会话信息
func (r *registry) infos(pageToken string, pageSize int) (int, []*decoder.Info) {
	r.l.RLock()
	ss := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		if s.Name > pageToken {
			ss = append(ss, s)
		}
	}
	count := len(r.sessions)
	r.l.RUnlock()

	sort.Slice(ss, func(i, j int) bool {
		return ss[i].Name < ss[j].Name
	})
	if pageSize < len(ss) {
		ss = ss[:pageSize]
	}

	infos := make([]*decoder.Info, len(ss))
	for i, s := range ss {
		infos[i] = s.Decoder.Info()
	}
	return count, infos
}

// NewSession 从后端创建解码会话并注册，输出帧作为事件发布
func (s *Service) NewSession(name string, opts ...decoder.Option) (*Session, error) {
	if name == "" {
		return nil, ErrInvalidSession
	}
	if s.sessions.get(name) != nil {
		return nil, ErrSessionExists
	}

	logger := s.logger.With(xlog.Fields(xlog.F("session", name)))
	pool := video.NewBufferPool(config.MaxPoolSize())
	queue := video.NewFrameQueue(pool, func(frame *video.CodecFrame) {
		s.events.publish(newFrameEvent(name, frame, false))
	}, nil, logger)

	all := append(config.DecoderOptions(), decoder.WithName(name), decoder.WithLogger(s.logger))
	all = append(all, opts...)
	sess := &Session{
		Name:    name,
		Decoder: decoder.New(s.backend.NewDecoder(), &dropNotifier{Sink: queue, s: s, name: name}, pool, all...),
		Pool:    pool,
		Queue:   queue,
	}

	if err := s.sessions.add(sess); err != nil {
		sess.Close()
		return nil, err
	}
	logger.Info("decoder session created")
	return sess, nil
}

// CloseSession 关闭并注销会话
func (s *Service) CloseSession(name string) error {
	sess := s.sessions.remove(name)
	if sess == nil {
		return ErrSessionNotFound
	}
	s.logger.Infof("decoder session closed, session = %s", name)
	return sess.Close()
}

// Session 获取注册的会话
func (s *Service) Session(name string) *Session {
	return s.sessions.get(name)
}

// dropNotifier 把丢弃的帧也作为事件发布
type dropNotifier struct {
	video.Sink
	s    *Service
	name string
}

func (n *dropNotifier) DropFrame(frame *video.CodecFrame) {
	n.s.events.publish(newFrameEvent(n.name, frame, true))
	n.Sink.DropFrame(frame)
}
