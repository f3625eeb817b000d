// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ingest

import (
	"bytes"
	"testing"

	"github.com/cnotch/xlog"
	"github.com/stretchr/testify/assert"
)

func TestDecodeRequest(t *testing.T) {
	var reqStr = "RSP/1.0 INGEST\r\npath: cameras/door\r\nclock-rate: 90000\r\nclient: pusher/1.0\r\nseq: 1\r\n\r\n"
	t.Run("decode", func(t *testing.T) {
		r := bytes.NewBufferString(reqStr)
		got, err := DecodeRequest(r, xlog.L())
		if err != nil {
			t.Errorf("DecodeRequest() error = %v", err)
			return
		}
		assert.Equal(t, CmdIngest, got.Cmd)
		assert.Equal(t, "cameras/door", got.Header[FieldPath])
		assert.Equal(t, "90000", got.Header[FieldClockRate])
		assert.Equal(t, "1", got.Header[FieldSeq])
	})

	t.Run("bad proto", func(t *testing.T) {
		_, err := DecodeStringRequest("RTSP/1.0 INGEST\r\nseq: 1\r\n\r\n")
		assert.Error(t, err)
	})

	t.Run("bad command", func(t *testing.T) {
		_, err := DecodeStringRequest("RSP/1.0 PLAY\r\nseq: 1\r\n\r\n")
		assert.Error(t, err)
	})

	t.Run("missing separator", func(t *testing.T) {
		_, err := DecodeStringRequest("RSP/1.0 INGEST\r\nseq: 1\r\n")
		assert.Error(t, err)
	})
}

func TestRequest_ResponseTo(t *testing.T) {
	respStr1 := "RSP/1.0 200 OK\r\nseq: 1\r\n\r\n"
	respStr2 := "RSP/1.0 401 Unauthorized\r\nseq: 1\r\n\r\nbad credentials"
	t.Run("no payload", func(t *testing.T) {
		req := &Request{
			Header: make(map[string]string),
		}
		req.Header[FieldSeq] = "1"
		buf := &bytes.Buffer{}
		req.ResponseOK(buf, make(map[string]string), "")
		assert.Equal(t, respStr1, buf.String())
	})
	t.Run("payload", func(t *testing.T) {
		req := &Request{
			Header: make(map[string]string),
		}
		req.Header[FieldSeq] = "1"
		buf := &bytes.Buffer{}
		req.ResponseTo(buf, 401, "Unauthorized", make(map[string]string), "bad credentials")
		assert.Equal(t, respStr2, buf.String())
	})
}

func TestParseBasicAuth(t *testing.T) {
	user, pwd, ok := parseBasicAuth("Basic YWRtaW46YWRtaW4=")
	assert.True(t, ok)
	assert.Equal(t, "admin", user)
	assert.Equal(t, "admin", pwd)

	_, _, ok = parseBasicAuth("Digest whatever")
	assert.False(t, ok)
	_, _, ok = parseBasicAuth("Basic %%%%")
	assert.False(t, ok)
}

func Benchmark_DecodeRequest(b *testing.B) {
	var reqStr = "RSP/1.0 INGEST\r\npath: cameras/door\r\nclock-rate: 90000\r\nseq: 1\r\n\r\n"
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			got, _ := DecodeStringRequest(reqStr)
			_ = got
		}
	})
}
