// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package service

import (
	"net/http"
	"path"

	"github.com/cnotch/rpukit/config"
	"github.com/cnotch/rpukit/network/websocket"
	"github.com/cnotch/rpukit/provider/auth"
	"github.com/cnotch/rpukit/service/feed"

	"github.com/cnotch/apirouter"
	"github.com/cnotch/rpukit/utils/scan"
)

// 初始化流式访问
func (s *Service) initHTTPStreams(mux *http.ServeMux) {
	mux.Handle("/ws/", apirouter.WrapHandler(http.HandlerFunc(s.onWebSocketRequest), apirouter.PreInterceptor(s.streamInterceptor)))
	mux.Handle("/streams/", apirouter.WrapHandler(http.HandlerFunc(s.onStreamsRequest), apirouter.PreInterceptor(s.streamInterceptor)))
}

// websocket 请求处理
func (s *Service) onWebSocketRequest(w http.ResponseWriter, r *http.Request) {
	username := r.Header.Get(usernameHeaderKey)
	streamPath, ext := extractStreamPathAndExt(r.URL.Path)
	_ = ext

	if ws, ok := websocket.TryUpgrade(w, r, streamPath, username); ok {
		switch ws.Subprotocol() {
		case feed.SubprotocolJSON, feed.SubprotocolRaw, "":
			go feed.ConsumeByWebsocket(s.logger, streamPath, r.RemoteAddr, ws)
			return
		}

		s.logger.Warnf("websocket sub-protocol is not supported: %s.", ws.Subprotocol())
		ws.Close()
	}
}

// streams 请求处理(JSON 流)
func (s *Service) onStreamsRequest(w http.ResponseWriter, r *http.Request) {
	streamPath, ext := extractStreamPathAndExt(r.URL.Path)
	switch ext {
	case "", ".json":
		feed.ConsumeByHTTP(s.logger, streamPath, r.RemoteAddr, w)
	default:
		s.logger.Warnf("request file ext is not supported: %s.", ext)
		http.NotFound(w, r)
	}
}

func (s *Service) streamInterceptor(w http.ResponseWriter, r *http.Request) bool {
	if path.Base(r.URL.Path) == "crossdomain.xml" {
		w.Header().Set("Content-Type", "application/xml")
		w.Write(crossdomainxml)
		return false
	}

	if !config.Auth() {
		// 不启用流访问验证
		return true
	}

	if s.authInterceptor(w, r) {
		return permissionInterceptor(w, r)
	}

	return false
}

// 验证用户是否有权限订阅指定的流
func permissionInterceptor(w http.ResponseWriter, r *http.Request) bool {
	userName := r.Header.Get(usernameHeaderKey)
	u := auth.Get(userName)

	streamPath, _ := extractStreamPathAndExt(r.URL.Path)

	if u == nil || !u.ValidatePermission(streamPath, auth.WatchRight) {
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return false
	}

	return true
}

// 提取请求路径中的流path和格式后缀
func extractStreamPathAndExt(requestPath string) (streamPath, ext string) {
	ext = path.Ext(requestPath)
	_, substr, _ := scan.NewScanner('/', nil).Scan(requestPath[1:])
	streamPath = requestPath[1+len(substr) : len(requestPath)-len(ext)]
	return
}
