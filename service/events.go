// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package service

import (
	"net/http"
	"runtime/debug"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cnotch/vadec/video"
	"github.com/cnotch/xlog"
	"github.com/gorilla/websocket"
	"github.com/kelindar/rate"
)

const (
	writeWait         = 10 * time.Second    // Time allowed to write a message to the peer.
	pongWait          = 60 * time.Second    // Time allowed to read the next pong message from the peer.
	pingPeriod        = (pongWait * 9) / 10 // Send pings to peer with this period. Must be less than pongWait.
	defaultEventRate  = 30                  // 每个订阅者每秒最多推送的事件数
	eventQueueSize    = 64
	eventsSubprotocol = "events"
)

// The default upgrader to use
var upgrader = &websocket.Upgrader{
	Subprotocols: []string{eventsSubprotocol},
	CheckOrigin:  func(r *http.Request) bool { return true },
}

// FrameEvent 一帧输出或丢弃的事件
type FrameEvent struct {
	Decoder string        `json:"decoder"`
	Frame   uint32        `json:"frame"`
	Pts     time.Duration `json:"pts"`
	Size    int           `json:"size"`
	Flags   string        `json:"flags"`
	Dropped bool          `json:"dropped,omitempty"`
}

func newFrameEvent(name string, frame *video.CodecFrame, dropped bool) *FrameEvent {
	ev := &FrameEvent{
		Decoder: name,
		Frame:   frame.SystemFrameNumber,
		Pts:     frame.Pts,
		Dropped: dropped,
		Flags:   video.BufferFlags(0).String(),
	}
	if buf := frame.OutputBuffer; buf != nil {
		ev.Size = len(buf.Data)
		ev.Flags = buf.Flags.String()
	}
	return ev
}

type subscriber struct {
	ws      *websocket.Conn
	decoder string         // 只接收该会话的事件，空表示全部
	limit   *rate.Limiter  // 推送限速
	events  chan *FrameEvent
	closing chan struct{}
	skipped int64
}

// eventHub 向 websocket 订阅者分发帧事件
type eventHub struct {
	l           sync.RWMutex
	subscribers map[*subscriber]struct{}
	published   int64
	logger      *xlog.Logger
}

func newEventHub(logger *xlog.Logger) *eventHub {
	return &eventHub{
		subscribers: make(map[*subscriber]struct{}),
		logger:      logger,
	}
}

func (h *eventHub) count() int {
	h.l.RLock()
	defer h.l.RUnlock()
	return len(h.subscribers)
}

// publish 不阻塞解码输出，订阅者限速或队列满时跳过事件
func (h *eventHub) publish(ev *FrameEvent) {
	atomic.AddInt64(&h.published, 1)

	h.l.RLock()
	defer h.l.RUnlock()
	for sub := range h.subscribers {
		if sub.decoder != "" && sub.decoder != ev.Decoder {
			continue
		}
		if sub.limit.Limit() {
			atomic.AddInt64(&sub.skipped, 1)
			continue
		}
		select {
		case sub.events <- ev:
		default:
			atomic.AddInt64(&sub.skipped, 1)
		}
	}
}

func (h *eventHub) add(sub *subscriber) {
	h.l.Lock()
	h.subscribers[sub] = struct{}{}
	h.l.Unlock()
}

func (h *eventHub) remove(sub *subscriber) {
	h.l.Lock()
	_, ok := h.subscribers[sub]
	delete(h.subscribers, sub)
	h.l.Unlock()
	if ok {
		close(sub.closing)
	}
}

func (h *eventHub) closeAll() {
	h.l.Lock()
	subs := h.subscribers
	h.subscribers = make(map[*subscriber]struct{})
	h.l.Unlock()

	for sub := range subs {
		close(sub.closing)
		sub.ws.Close()
	}
}

// serve 升级为 websocket 并推送事件，?decoder= 过滤会话，?rate= 设置每秒推送上限
func (h *eventHub) serve(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	limit := defaultEventRate
	if v := params.Get("rate"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "rate must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warnf("websocket upgrade failed: %v", err)
		return
	}

	sub := &subscriber{
		ws:      ws,
		decoder: params.Get("decoder"),
		limit:   rate.New(limit, time.Second),
		events:  make(chan *FrameEvent, eventQueueSize),
		closing: make(chan struct{}),
	}
	h.add(sub)
	h.logger.Infof("events subscriber connected, addr = %s", r.RemoteAddr)

	go h.write(sub)
	h.read(sub)
}

// read 丢弃客户端消息，连接断开时注销订阅者
func (h *eventHub) read(sub *subscriber) {
	defer func() {
		h.remove(sub)
		sub.ws.Close()
		h.logger.Infof("events subscriber disconnected, skipped = %d", atomic.LoadInt64(&sub.skipped))
	}()

	sub.ws.SetReadDeadline(time.Now().Add(pongWait))
	sub.ws.SetPongHandler(func(string) error {
		return sub.ws.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := sub.ws.NextReader(); err != nil {
			return
		}
	}
}

func (h *eventHub) write(sub *subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		defer func() { // 避免 Close 再 panic
			recover()
		}()

		ticker.Stop()
		if r := recover(); r != nil {
			h.logger.Errorf("events writer routine panic；r = %v \n %s", r, debug.Stack())
		}
		sub.ws.Close()
	}()

	for {
		select {
		case ev := <-sub.events:
			sub.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := sub.ws.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			if err := sub.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-sub.closing:
			return
		}
	}
}
