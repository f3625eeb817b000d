// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package feed

import (
	"encoding/json"
	"net/http"
	"runtime/debug"

	"github.com/cnotch/rpukit/media"
	"github.com/cnotch/rpukit/stats"
	"github.com/cnotch/xlog"
)

type httpFeedConsumer struct {
	logger  *xlog.Logger
	w       http.ResponseWriter
	flusher http.Flusher
	closeCh chan bool
	closed  bool
}

func (c *httpFeedConsumer) Consume(pack *media.Pack) {
	if c.closed {
		return
	}

	data, err := json.Marshal(message{
		Seq:  pack.Seq,
		Pts:  pack.Pts,
		Size: pack.Size(),
		Info: pack.RPU.Info(),
	})
	if err == nil {
		data = append(data, '\n')
		_, err = c.w.Write(data)
	}

	if err != nil {
		c.logger.Errorf("http-feed: send pack failed; %v", err)
		c.Close()
		return
	}

	if c.flusher != nil {
		c.flusher.Flush()
	}
}

func (c *httpFeedConsumer) Close() (err error) {
	if c.closed {
		return
	}

	c.closed = true
	close(c.closeCh)
	return nil
}

// ConsumeByHTTP 处理 http 方式的元数据订阅，输出按行分割的 JSON 流
func ConsumeByHTTP(logger *xlog.Logger, path string, addr string, w http.ResponseWriter) {
	logger = logger.With(xlog.Fields(
		xlog.F("path", path),
		xlog.F("addr", addr)))

	stream := media.Get(path)
	if stream == nil {
		http.Error(w, "404 page not found", http.StatusNotFound)
		logger.Errorf("http-feed: no stream found")
		return
	}

	var cid media.CID
	defer func() {
		if r := recover(); r != nil {
			xlog.Errorf("http-feed: panic; %v \n %s", r, debug.Stack())
		}
		stream.StopConsume(cid)
		stats.WsConns.Release()
		logger.Info("http-feed: stop consume")
	}()

	logger.Info("http-feed: start consume")
	stats.WsConns.Add()

	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Content-Type", "application/x-ndjson")

	flusher, _ := w.(http.Flusher)
	c := &httpFeedConsumer{
		logger:  logger,
		w:       w,
		flusher: flusher,
		closeCh: make(chan bool),
	}

	cid = stream.StartConsume(c, media.JSONConsumer, "net=http-feed,"+addr)

	// 等待关闭
	select {
	case <-c.closeCh:
	}
}
