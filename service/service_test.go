// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cnotch/vadec/av/codec/h264"
	"github.com/cnotch/vadec/config"
	"github.com/cnotch/vadec/decoder/decodertest"
	"github.com/cnotch/vadec/va/memdrv"
	"github.com/cnotch/xlog"
	"github.com/gorilla/websocket"
	"github.com/kelindar/rate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	require.NoError(t, memdrv.Provider.Configure(nil))
	s, err := NewService(context.Background(), memdrv.Provider, xlog.L())
	require.NoError(t, err)
	return s
}

func startSession(t *testing.T, s *Service, name string, frames int) *Session {
	sess, err := s.NewSession(name)
	require.NoError(t, err)

	e := decodertest.NewEngine(sess.Decoder, decodertest.NewSPS(h264.ProfileHigh, 320, 240))
	require.NoError(t, e.Start())
	for i := 0; i < frames; i++ {
		_, err := e.DecodeFrame()
		require.NoError(t, err)
	}
	e.Flush()
	return sess
}

func get(t *testing.T, s *Service, url string, v interface{}) int {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))
	if rec.Code == http.StatusOK && v != nil {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
	}
	return rec.Code
}

type listResult struct {
	Total         int    `json:"total"`
	NextPageToken string `json:"next_page_token"`
	Decoders      []struct {
		Name    string `json:"name"`
		State   string `json:"state"`
		Profile string `json:"profile"`
		Stats   struct {
			Pictures int64 `json:"pictures"`
		} `json:"stats"`
	} `json:"decoders"`
}

func TestDecodersAPI(t *testing.T) {
	s := newTestService(t)
	defer s.Close()

	startSession(t, s, "cam1", 3)

	var list listResult
	require.Equal(t, http.StatusOK, get(t, s, "/api/v1/decoders", &list))
	assert.Equal(t, 1, list.Total)
	assert.Equal(t, "cam1", list.NextPageToken)
	require.Len(t, list.Decoders, 1)
	assert.Equal(t, "SEQUENCE_READY", list.Decoders[0].State)
	assert.Equal(t, "H264High", list.Decoders[0].Profile)
	assert.Equal(t, int64(3), list.Decoders[0].Stats.Pictures)

	var detail struct {
		Name     string `json:"name"`
		Caps     string `json:"caps"`
		DpbSize  int    `json:"dpb_size"`
		Pictures int    `json:"pictures"`
	}
	require.Equal(t, http.StatusOK, get(t, s, "/api/v1/decoders/cam1", &detail))
	assert.Equal(t, "cam1", detail.Name)
	assert.True(t, strings.HasPrefix(detail.Caps, "video/x-h264"))
	assert.Equal(t, 3, detail.DpbSize)
	assert.Equal(t, 0, detail.Pictures)

	assert.Equal(t, http.StatusNotFound, get(t, s, "/api/v1/decoders/none", nil))

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/decoders/cam1", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, s.Session("cam1"))

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/decoders/cam1", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDecodersAPIPaging(t *testing.T) {
	s := newTestService(t)
	defer s.Close()

	for _, name := range []string{"c", "a", "b"} {
		_, err := s.NewSession(name)
		require.NoError(t, err)
	}

	var list listResult
	require.Equal(t, http.StatusOK, get(t, s, "/api/v1/decoders?page_size=2", &list))
	assert.Equal(t, 3, list.Total)
	require.Len(t, list.Decoders, 2)
	assert.Equal(t, "a", list.Decoders[0].Name)
	assert.Equal(t, "IDLE", list.Decoders[0].State)
	assert.Equal(t, "b", list.NextPageToken)

	list = listResult{}
	require.Equal(t, http.StatusOK, get(t, s, "/api/v1/decoders?page_size=2&page_token=b", &list))
	require.Len(t, list.Decoders, 1)
	assert.Equal(t, "c", list.Decoders[0].Name)

	assert.Equal(t, http.StatusBadRequest, get(t, s, "/api/v1/decoders?page_size=x", nil))
}

func TestRuntimeAPI(t *testing.T) {
	s := newTestService(t)
	defer s.Close()
	startSession(t, s, "cam1", 1)

	var rt struct {
		Registered int `json:"registered"`
		Sessions   struct {
			Active int64 `json:"active"`
		} `json:"sessions"`
		Memory *struct {
			Goroutines int `json:"goroutines"`
		} `json:"memory"`
	}
	require.Equal(t, http.StatusOK, get(t, s, "/api/v1/runtime", &rt))
	assert.Equal(t, 1, rt.Registered)
	assert.True(t, rt.Sessions.Active >= 1)
	assert.Nil(t, rt.Memory)

	require.Equal(t, http.StatusOK, get(t, s, "/api/v1/runtime?extra=1", &rt))
	require.NotNil(t, rt.Memory)

	var srv struct {
		Name    string `json:"name"`
		Backend string `json:"backend"`
	}
	require.Equal(t, http.StatusOK, get(t, s, "/api/v1/server", &srv))
	assert.Equal(t, config.Name, srv.Name)
	assert.Equal(t, "memory", srv.Backend)
}

func TestNewSessionErrors(t *testing.T) {
	s := newTestService(t)
	defer s.Close()

	_, err := s.NewSession("")
	assert.Equal(t, ErrInvalidSession, err)

	_, err = s.NewSession("cam1")
	require.NoError(t, err)
	_, err = s.NewSession("CAM1")
	assert.Equal(t, ErrSessionExists, err)

	assert.Equal(t, ErrSessionNotFound, s.CloseSession("none"))
}

func TestEventsWebsocket(t *testing.T) {
	s := newTestService(t)
	defer s.Close()

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/events?decoder=cam1"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer ws.Close()

	require.Eventually(t, func() bool { return s.events.count() == 1 }, time.Second, 10*time.Millisecond)

	s.events.publish(&FrameEvent{Decoder: "other", Frame: 1})
	s.events.publish(&FrameEvent{Decoder: "cam1", Frame: 7, Flags: "interlaced+tff"})

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev FrameEvent
	require.NoError(t, ws.ReadJSON(&ev))
	assert.Equal(t, "cam1", ev.Decoder)
	assert.Equal(t, uint32(7), ev.Frame)
	assert.Equal(t, "interlaced+tff", ev.Flags)

	ws.Close()
	assert.Eventually(t, func() bool { return s.events.count() == 0 }, time.Second, 10*time.Millisecond)

	assert.Equal(t, http.StatusBadRequest, get(t, s, "/ws/events?rate=0", nil))
}

func TestEventHubThrottle(t *testing.T) {
	h := newEventHub(xlog.L())

	limited := &subscriber{
		limit:   rate.New(2, time.Minute),
		events:  make(chan *FrameEvent, 16),
		closing: make(chan struct{}),
	}
	full := &subscriber{
		limit:   rate.New(1000, time.Second),
		events:  make(chan *FrameEvent, 1),
		closing: make(chan struct{}),
	}
	h.add(limited)
	h.add(full)

	for i := 0; i < 5; i++ {
		h.publish(&FrameEvent{Decoder: "cam1", Frame: uint32(i)})
	}

	assert.True(t, len(limited.events) < 5)
	assert.Equal(t, int64(5-len(limited.events)), limited.skipped)
	assert.Len(t, full.events, 1)
	assert.Equal(t, int64(4), full.skipped)
	assert.Equal(t, int64(5), h.published)

	h.remove(full)
	assert.Equal(t, 1, h.count())
	_, open := <-full.closing
	assert.False(t, open)
}

func TestStartDemo(t *testing.T) {
	s := newTestService(t)
	defer s.Close()

	require.NoError(t, s.StartDemo(config.DemoConfig{
		Sessions: 2, Width: 320, Height: 240, FPS: 200, GOP: 10,
	}))
	sess := s.Session("demo-1")
	require.NotNil(t, sess)
	require.NotNil(t, s.Session("demo-2"))

	assert.Eventually(t, func() bool {
		return sess.Decoder.Stats().Output >= 5
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, s.CloseSession("demo-1"))
	assert.Equal(t, 0, sess.Decoder.Info().Pictures)
	assert.Equal(t, 1, s.sessions.count())
}

func TestStartDemoWithSPS(t *testing.T) {
	s := newTestService(t)
	defer s.Close()

	assert.Error(t, s.StartDemo(config.DemoConfig{Sessions: 1, FPS: 100, SPS: "aGVsbG8="}))
	assert.Nil(t, s.Session("demo-1"))

	require.NoError(t, s.StartDemo(config.DemoConfig{
		Sessions: 1, FPS: 100, SPS: "Z2QAH6zZQFAFuhAAAAMAEAAAAwPI8YMZYA==",
	}))
	sess := s.Session("demo-1")
	require.NotNil(t, sess)

	info := sess.Decoder.Info()
	assert.Equal(t, "H264High", info.Profile.String())
	require.NotNil(t, info.Output)
	assert.Equal(t, 1280, info.Output.Info.Width)
	assert.Equal(t, 720, info.Output.Info.Height)
}
