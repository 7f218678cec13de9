// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package service

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"path"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cnotch/apirouter"
	"github.com/cnotch/vadec/config"
	"github.com/cnotch/vadec/decoder"
	"github.com/cnotch/vadec/stats"
)

var (
	buffers = sync.Pool{
		New: func() interface{} {
			return bytes.NewBuffer(make([]byte, 0, 1024*2))
		},
	}
)

var crossdomainxml = []byte(
	`<?xml version="1.0" ?><cross-domain-policy>
			<allow-access-from domain="*" />
			<allow-http-request-headers-from domain="*" headers="*"/>
		</cross-domain-policy>`)

func (s *Service) initApis(mux *http.ServeMux) {
	api := apirouter.NewForGRPC(
		// 系统信息类API
		apirouter.GET("/api/v1/server", s.onGetServerInfo),
		apirouter.GET("/api/v1/runtime", s.onGetRuntime),

		// 解码会话API
		apirouter.GET("/api/v1/decoders", s.onListDecoders),
		apirouter.GET("/api/v1/decoders/{name=*}", s.onGetDecoder),
		apirouter.DELETE("/api/v1/decoders/{name=*}", s.onCloseDecoder),
	)

	// api add to mux
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		if path.Base(r.URL.Path) == "crossdomain.xml" {
			w.Header().Set("Content-Type", "application/xml")
			w.Write(crossdomainxml)
			return
		}

		w.Header().Set("Access-Control-Allow-Origin", "*")
		api.ServeHTTP(w, r)
	})
}

// 获取服务信息
func (s *Service) onGetServerInfo(w http.ResponseWriter, r *http.Request, pathParams apirouter.Params) {
	type server struct {
		Vendor   string `json:"vendor"`
		Name     string `json:"name"`
		Version  string `json:"version"`
		Backend  string `json:"backend"`
		OS       string `json:"os"`
		Arch     string `json:"arch"`
		StartOn  string `json:"start_on"`
		Duration string `json:"duration"`
	}
	srv := server{
		Vendor:   config.Vendor,
		Name:     config.Name,
		Version:  config.Version,
		Backend:  s.backend.Name(),
		OS:       strings.Title(runtime.GOOS),
		Arch:     strings.ToUpper(runtime.GOARCH),
		StartOn:  stats.StartingTime.Format(time.RFC3339Nano),
		Duration: time.Now().Sub(stats.StartingTime).String(),
	}

	if err := jsonTo(w, &srv); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// 获取运行时信息，?extra=1 时包含内存信息
func (s *Service) onGetRuntime(w http.ResponseWriter, r *http.Request, pathParams apirouter.Params) {
	const extraKey = "extra"

	type runtime struct {
		stats.Snapshot
		Registered  int `json:"registered"`
		Subscribers int `json:"subscribers"`
	}

	params := r.URL.Query()
	rt := runtime{
		Snapshot:    stats.Measure(strings.TrimSpace(params.Get(extraKey)) == "1"),
		Registered:  s.sessions.count(),
		Subscribers: s.events.count(),
	}

	if err := jsonTo(w, &rt); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Service) onListDecoders(w http.ResponseWriter, r *http.Request, pathParams apirouter.Params) {
	params := r.URL.Query()
	pageSize, pageToken, err := listParamers(params)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	count, infos := s.sessions.infos(pageToken, pageSize)
	type decoderInfos struct {
		Total         int             `json:"total"`
		NextPageToken string          `json:"next_page_token"`
		Decoders      []*decoder.Info `json:"decoders,omitempty"`
	}

	list := &decoderInfos{
		Total:    count,
		Decoders: infos,
	}
	if len(infos) > 0 {
		list.NextPageToken = infos[len(infos)-1].Name
	}

	if err := jsonTo(w, list); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Service) onGetDecoder(w http.ResponseWriter, r *http.Request, pathParams apirouter.Params) {
	name := pathParams.ByName("name")
	sess := s.sessions.get(name)
	if sess == nil {
		http.NotFound(w, r)
		return
	}

	type decoderDetail struct {
		*decoder.Info
		Caps       string `json:"caps"`
		FreeFrames int    `json:"free_frames"`
		Finished   int64  `json:"finished"`
		Dropped    int64  `json:"dropped"`
	}
	detail := &decoderDetail{
		Info:       sess.Decoder.Info(),
		Caps:       sess.Caps().String(),
		FreeFrames: sess.Pool.Free(),
		Finished:   sess.Queue.Finished(),
		Dropped:    sess.Queue.Dropped(),
	}

	if err := jsonTo(w, detail); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Service) onCloseDecoder(w http.ResponseWriter, r *http.Request, pathParams apirouter.Params) {
	name := pathParams.ByName("name")
	if err := s.CloseSession(name); err != nil {
		if err == ErrSessionNotFound {
			http.NotFound(w, r)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func jsonTo(w io.Writer, o interface{}) error {
	formatted := buffers.Get().(*bytes.Buffer)
	formatted.Reset()
	defer buffers.Put(formatted)

	body, err := json.Marshal(o)
	if err != nil {
		return err
	}

	if err := json.Indent(formatted, body, "", "\t"); err != nil {
		return err
	}

	if _, err := w.Write(formatted.Bytes()); err != nil {
		return err
	}
	return nil
}

func listParamers(params url.Values) (pageSize int, pageToken string, err error) {
	pageSizeStr := params.Get("page_size")
	pageSize = 20
	if pageSizeStr != "" {
		var err error
		pageSize, err = strconv.Atoi(pageSizeStr)
		if err != nil {
			return pageSize, pageToken, err
		}
	}
	pageToken = params.Get("page_token")
	return
}
