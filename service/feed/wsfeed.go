// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package feed

import (
	"encoding/json"
	"runtime/debug"
	"time"

	"github.com/cnotch/rpukit/av/rpu"
	"github.com/cnotch/rpukit/media"
	"github.com/cnotch/rpukit/network/websocket"
	"github.com/cnotch/rpukit/stats"
	"github.com/cnotch/xlog"
)

// 订阅通道的子协议
const (
	SubprotocolJSON = "rpu.json" // RPU 摘要的 JSON 文本流
	SubprotocolRaw  = "rpu.bin"  // 编码后的 RPU 二进制流
)

// message JSON 订阅的消息体
type message struct {
	Seq  uint64   `json:"seq"`
	Pts  int64    `json:"pts"`
	Size int      `json:"size"`
	Info rpu.Info `json:"info"`
}

// wsConsumer websocket 元数据消费者
type wsConsumer struct {
	logger *xlog.Logger
	conn   websocket.Conn
	text   bool
	closed bool
}

func (c *wsConsumer) Consume(pack *media.Pack) {
	if c.closed {
		return
	}

	var err error
	if c.text {
		var data []byte
		data, err = json.Marshal(message{
			Seq:  pack.Seq,
			Pts:  pack.Pts,
			Size: pack.Size(),
			Info: pack.RPU.Info(),
		})
		if err == nil {
			_, err = c.conn.TextTransport().Write(data)
		}
	} else {
		_, err = c.conn.Write(pack.Payload)
	}

	if err != nil {
		c.logger.Errorf("ws-feed: send pack failed; %v", err)
		c.Close()
	}
}

func (c *wsConsumer) Close() (err error) {
	if c.closed {
		return
	}

	c.closed = true
	c.conn.Close()
	return nil
}

// ConsumeByWebsocket 处理 websocket 方式的元数据订阅
func ConsumeByWebsocket(logger *xlog.Logger, path string, addr string, conn websocket.Conn) {
	logger = logger.With(xlog.Fields(
		xlog.F("path", path),
		xlog.F("addr", addr)))

	stream := media.Get(path)
	if stream == nil {
		conn.Close()
		logger.Errorf("ws-feed: no stream found")
		return
	}

	consumerType := media.JSONConsumer
	if conn.Subprotocol() == SubprotocolRaw {
		consumerType = media.RawConsumer
	}

	var cid media.CID

	defer func() {
		if r := recover(); r != nil {
			xlog.Errorf("ws-feed: panic; %v \n %s", r, debug.Stack())
		}
		stream.StopConsume(cid)
		conn.Close()
		stats.WsConns.Release()
		logger.Info("stop websocket feed consume")
	}()

	logger.Info("start websocket feed consume")
	stats.WsConns.Add()

	c := &wsConsumer{
		logger: logger,
		conn:   conn,
		text:   consumerType == media.JSONConsumer,
	}

	cid = stream.StartConsume(c, consumerType, "net=websocket,"+addr)

	// 读循环仅用于感知对端关闭
	for !c.closed {
		deadLine := time.Time{}

		if err := conn.SetReadDeadline(deadLine); err != nil {
			break
		}
		var temp [1]byte
		if _, err := conn.Read(temp[:]); err != nil {
			if !c.closed {
				logger.Errorf("websocket error; %v.", err)
			}
			break
		}
	}
}
