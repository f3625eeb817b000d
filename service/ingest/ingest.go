// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ingest

import (
	"bytes"
	"encoding/base64"
	"io"
	"net"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cnotch/rpukit/av/format/rtp"
	"github.com/cnotch/rpukit/config"
	"github.com/cnotch/rpukit/media"
	"github.com/cnotch/rpukit/network"
	"github.com/cnotch/rpukit/network/socket/buffered"
	"github.com/cnotch/rpukit/provider/auth"
	"github.com/cnotch/rpukit/provider/security"
	"github.com/cnotch/rpukit/stats"
	"github.com/cnotch/xlog"
	"github.com/emitter-io/address"
	"github.com/kelindar/tcp"
)

const defaultClockRate = 90000

// Server RSP 推送服务
type Server struct {
	sessions sync.Map
	logger   *xlog.Logger
}

// CreateAcceptHandler 创建连接接入处理器
func CreateAcceptHandler() tcp.OnAccept {
	svr := &Server{
		logger: xlog.L(),
	}
	return svr.onAcceptConn
}

// onAcceptConn 在新连接接入时触发
func (svr *Server) onAcceptConn(c net.Conn) {
	s := newSession(svr, c)
	go s.process()
}

// session RSP 推送会话
type session struct {
	svr       *Server
	logger    *xlog.Logger
	lsession  string // 本地会话标识
	timeout   time.Duration
	conn      *buffered.Conn
	authMode  auth.Mode
	path      string
	clockRate int
	stream    *media.Stream
	dp        rtp.Depacketizer
}

func newSession(svr *Server, conn net.Conn) *session {
	s := &session{
		svr:      svr,
		lsession: security.NewID().Base64(),
		timeout:  config.NetTimeout(),
		authMode: config.IngestAuthMode(),
		conn: buffered.NewConn(conn,
			buffered.FlushRate(config.NetFlushRate()),
			buffered.BufferSize(config.NetBufferSize())),
	}

	// 本机推送不需要校验
	if s.authMode > auth.NoneAuth {
		addr, _ := address.Parse(conn.RemoteAddr().String(), 0)
		if network.IsLocalhostIP(addr.IP) {
			s.authMode = auth.NoneAuth
		}
	}

	s.logger = svr.logger.With(xlog.Fields(
		xlog.F("session", s.lsession),
		xlog.F("addr", conn.RemoteAddr().String())))

	stats.IngestConns.Add()
	return s
}

func (s *session) process() {
	s.logger.Info("ingest: client connected")

	defer func() {
		if r := recover(); r != nil {
			s.logger.Errorf("ingest: session panic; %v \n %s", r, debug.Stack())
		}

		s.close()
		stats.IngestConns.Release()
		s.logger.Info("ingest: client disconnected")
	}()

	if err := s.handshake(); err != nil {
		if err != io.EOF {
			s.logger.Errorf("ingest: handshake error; %v", err)
		}
		return
	}

	s.svr.sessions.Store(s.lsession, s)
	defer s.svr.sessions.Delete(s.lsession)

	// 握手成功，进入 RTP 交织流接收循环
	for {
		deadline := time.Time{}
		if s.timeout > 0 {
			deadline = time.Now().Add(s.timeout)
		}
		if err := s.conn.SetReadDeadline(deadline); err != nil {
			break
		}

		p, err := rtp.ReadPacket(s.conn.Reader(), rtp.DefaultChannelConfig)
		if err != nil {
			if err != io.EOF {
				s.logger.Errorf("ingest: read packet error; %v", err)
			}
			break
		}

		switch p.Channel {
		case rtp.ChannelVideo:
			err = s.dp.Depacketize(p)
		case rtp.ChannelVideoControl:
			err = s.dp.Control(p)
		}
		if err != nil {
			s.logger.Errorf("ingest: process packet error; %v", err)
			break
		}
	}
}

// handshake 处理 INGEST 请求，通过后注册流并准备解包器
func (s *session) handshake() error {
	req, err := DecodeRequest(s.conn.Reader(), s.logger)
	if err != nil {
		return err
	}

	if req.Cmd != CmdIngest {
		s.response(req, 405, "Method Not Allowed", "")
		return &badStringError{"unexpected command", req.Cmd}
	}

	path := strings.TrimSpace(req.Header[FieldPath])
	if path == "" {
		s.response(req, 400, "Bad Request", "missing path")
		return &badStringError{"missing field", FieldPath}
	}

	if err := s.authenticate(req, path); err != nil {
		return err
	}

	s.clockRate = defaultClockRate
	if v := req.Header[FieldClockRate]; v != "" {
		rate, err := strconv.Atoi(v)
		if err != nil || rate <= 0 {
			s.response(req, 400, "Bad Request", "invalid clock-rate")
			return &badStringError{"invalid clock-rate", v}
		}
		s.clockRate = rate
	}

	s.path = path
	s.stream = media.NewStream(path,
		media.Attr("addr", s.conn.RemoteAddr().String()),
		media.Attr("client", req.Header[FieldClient]))
	s.dp = rtp.NewRPUDepacketizer(s.clockRate, s.stream)
	media.Regist(s.stream)

	s.response(req, 200, "OK", "")
	s.logger = s.logger.With(xlog.Fields(xlog.F("path", path)))
	s.logger.Info("ingest: stream registered")
	return nil
}

// authenticate 校验推送权限
func (s *session) authenticate(req *Request, path string) error {
	if s.authMode == auth.NoneAuth {
		return nil
	}

	userName, password, ok := parseBasicAuth(req.Header[FieldAuthorization])
	if !ok {
		s.response(req, 401, "Unauthorized", "")
		return &badStringError{"missing credentials", FieldAuthorization}
	}

	user := auth.Get(userName)
	if user == nil || user.ValidatePassword(password) != nil {
		s.response(req, 401, "Unauthorized", "")
		return &badStringError{"invalid credentials for user", userName}
	}
	if !user.ValidatePermission(path, auth.IngestRight) {
		s.response(req, 403, "Forbidden", "")
		return &badStringError{"no ingest permission on path", path}
	}
	return nil
}

// parseBasicAuth 解析 "Basic base64(user:password)" 格式的凭据
func parseBasicAuth(credentials string) (userName, password string, ok bool) {
	const prefix = "Basic "
	if len(credentials) < len(prefix) || !strings.EqualFold(credentials[:len(prefix)], prefix) {
		return
	}
	decoded, err := base64.StdEncoding.DecodeString(credentials[len(prefix):])
	if err != nil {
		return
	}
	cs := string(decoded)
	i := strings.IndexByte(cs, ':')
	if i < 0 {
		return
	}
	return cs[:i], cs[i+1:], true
}

func (s *session) response(req *Request, statusCode int, statusText, payload string) {
	buf := buffers.Get().(*bytes.Buffer)
	buf.Reset()
	defer buffers.Put(buf)

	req.ResponseTo(buf, statusCode, statusText,
		map[string]string{FieldSession: s.lsession}, payload)

	s.logger.Debugf("rsp ===>>> \r\n%s", buf.String())
	if _, err := s.conn.Write(buf.Bytes()); err == nil {
		_, _ = s.conn.Flush()
	}
}

func (s *session) close() {
	if s.stream != nil {
		media.Unregist(s.stream)
		s.stream = nil
	}
	_ = s.conn.Close()
}
