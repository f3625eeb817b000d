// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package media

import (
	"testing"
	"time"

	"github.com/cnotch/rpukit/av/rpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 构造一个 8 档测试 RPU 并编码
func testPayload(t *testing.T, maxPQ uint16) []byte {
	r := &rpu.RPU{
		Header: rpu.Header{
			Profile:           1,
			Level:             6,
			SeqInfoPresent:    true,
			CoefLog2Denom:     7,
			NormalizedIdc:     1,
			BLBitDepthMinus8:  2,
			ELBitDepthMinus8:  2,
			VdrBitDepthMinus8: 4,
			DisableResidual:   true,
			DMMetadataPresent: true,
		},
		Mapping: &rpu.Mapping{},
		DM: &rpu.DMData{
			SceneRefresh:   1,
			SignalEotf:     65535,
			SignalBitDepth: 12,
		},
	}
	require.NoError(t, r.DM.AddBlock(&rpu.BlockLevel1{MaxPQ: maxPQ}))

	data, err := r.Encode()
	require.NoError(t, err)
	return data
}

type chanConsumer struct {
	ch chan *Pack
}

func newChanConsumer() *chanConsumer {
	return &chanConsumer{ch: make(chan *Pack, 16)}
}

func (c *chanConsumer) Consume(pack *Pack) { c.ch <- pack }
func (c *chanConsumer) Close() error       { return nil }

func (c *chanConsumer) wait(t *testing.T) *Pack {
	select {
	case pack := <-c.ch:
		return pack
	case <-time.After(time.Second):
		t.Fatal("no pack received")
		return nil
	}
}

func TestStreamWritePayload(t *testing.T) {
	s := NewStream("/hdr/cam1", Attr("addr", "127.0.0.1"))
	defer s.Close()

	consumer := newChanConsumer()
	cid := s.StartConsume(consumer, JSONConsumer, "test")
	defer s.StopConsume(cid)

	require.NoError(t, s.WritePayload(testPayload(t, 3000), 0))

	pack := consumer.wait(t)
	require.NotNil(t, pack.RPU)
	assert.Equal(t, rpu.Profile8, pack.RPU.Profile())
	assert.Equal(t, uint64(1), pack.Seq)

	info := s.Info(true)
	assert.Equal(t, uint64(1), info.Packs)
	require.NotNil(t, info.Last)
	assert.Equal(t, uint16(3000), info.Last.MaxPQ)
	assert.Equal(t, 1, info.ConsumptionCount)
}

func TestStreamCorruptPayload(t *testing.T) {
	s := NewStream("/hdr/cam2")
	defer s.Close()

	payload := testPayload(t, 100)
	payload[len(payload)-2] ^= 0xff // 破坏校验和

	assert.Error(t, s.WritePayload(payload, 0))
	info := s.Info(false)
	assert.Equal(t, uint64(0), info.Packs)
	assert.Equal(t, uint64(1), info.Corrupt)
}

func TestStreamReplay(t *testing.T) {
	s := NewStream("/hdr/cam3")
	defer s.Close()

	require.NoError(t, s.WritePayload(testPayload(t, 100), 0))
	require.NoError(t, s.WritePayload(testPayload(t, 200), 40_000_000))

	// 接入晚于写入，应从缓存回放
	consumer := newChanConsumer()
	cid := s.StartConsume(consumer, RawConsumer, "late")
	defer s.StopConsume(cid)

	first := consumer.wait(t)
	second := consumer.wait(t)
	assert.Equal(t, uint64(1), first.Seq)
	assert.Equal(t, uint64(2), second.Seq)
}

func TestRegist(t *testing.T) {
	s := NewStream("/hdr/regist")
	Regist(s)
	assert.Equal(t, s, Get("/hdr/regist"))

	sc, _ := Count()
	assert.Equal(t, 1, sc)

	Unregist(s)
	assert.Nil(t, Get("/hdr/regist"))
}
