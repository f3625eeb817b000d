// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package media

import (
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cnotch/queue"
	"github.com/cnotch/rpukit/av/format/rtp"
	"github.com/cnotch/rpukit/av/rpu"
	"github.com/cnotch/rpukit/config"
	"github.com/cnotch/rpukit/media/cache"
	"github.com/cnotch/rpukit/stats"
	"github.com/cnotch/rpukit/utils"
	"github.com/cnotch/xlog"
)

// 流状态
const (
	StreamOK       int32 = iota
	StreamClosed         // 源关闭
	StreamReplaced       // 流被替换
	StreamNoConsumer
)

// 错误定义
var (
	// ErrStreamClosed 流被关闭
	ErrStreamClosed = errors.New("stream is closed")
	// ErrStreamReplaced 流被替换
	ErrStreamReplaced = errors.New("stream is replaced")
	statusErrors      = []error{nil, ErrStreamClosed, ErrStreamReplaced}
)

// Stream 元数据流：一个采集源持续推送的 RPU 序列
type Stream struct {
	startOn              time.Time // 启动时间
	path                 string    // 流路径
	size                 uint64    // 流已经接收到的输入（字节）
	packs                uint64    // 已接收的包计数
	corrupt              uint64    // 解码失败的包计数
	status               int32     // 流状态
	consumerSequenceSeed uint32
	consumptions         consumptions      // 消费者列表
	cache                cache.PackCache   // 元数据包缓存
	attrs                map[string]string // 流属性
	logger               *xlog.Logger      // 日志对象
	lastInfo             atomic.Value      // 最近一个 RPU 的摘要 rpu.Info
}

// NewStream 创建新的流
func NewStream(path string, options ...Option) *Stream {
	s := &Stream{
		startOn:              time.Now(),
		path:                 utils.CanonicalPath(path),
		status:               StreamOK,
		consumerSequenceSeed: 0,
		cache:                cache.NewRingCache(config.CacheSize()),
		attrs:                make(map[string]string, 2),
		logger:               xlog.L().With(xlog.Fields(xlog.F("path", path))),
	}

	for _, option := range options {
		option.apply(s)
	}

	return s
}

// Path 流路径
func (s *Stream) Path() string {
	return s.path
}

// Attr 流属性
func (s *Stream) Attr(key string) string {
	return s.attrs[strings.ToLower(strings.TrimSpace(key))]
}

// Close 关闭流
func (s *Stream) Close() error {
	return s.close(StreamClosed)
}

func (s *Stream) close(status int32) error {
	if atomic.LoadInt32(&s.status) != StreamOK {
		return nil
	}

	// 修改流状态
	if status != StreamReplaced {
		status = StreamClosed
	}
	atomic.StoreInt32(&s.status, status)

	s.consumptions.RemoveAndCloseAll()

	// 尽早通知GC，回收内存
	s.cache.Reset()
	return nil
}

// WritePayload 向流写入一个编码后的 RPU 载荷。
// 载荷解码成功后进入缓存并分发给所有消费者；
// 解码失败只计数，不中断流。
func (s *Stream) WritePayload(payload []byte, pts int64) error {
	status := atomic.LoadInt32(&s.status)
	if status != StreamOK {
		return statusErrors[status]
	}

	r, err := rpu.Decode(payload)
	if err != nil {
		atomic.AddUint64(&s.corrupt, 1)
		s.logger.Warnf("drop corrupt rpu: %v", err)
		return err
	}

	atomic.AddUint64(&s.size, uint64(len(payload)))
	seq := atomic.AddUint64(&s.packs, 1)

	pack := &Pack{
		Payload: payload,
		Pts:     pts,
		Seq:     seq,
		RPU:     r,
	}

	s.lastInfo.Store(r.Info())
	s.cache.CachePack(pack)
	s.consumptions.SendToAll(pack)

	return nil
}

// WriteRPUUnit 实现 rtp.UnitWriter，供采集端直接挂接
func (s *Stream) WriteRPUUnit(unit *rtp.Unit) error {
	return s.WritePayload(unit.Payload, unit.Pts)
}

func (s *Stream) startConsume(consumer Consumer, consumerType ConsumerType, extra string, replayCache bool) CID {
	c := &consumption{
		startOn:      time.Now(),
		stream:       s,
		cid:          NewCID(consumerType, &s.consumerSequenceSeed),
		recvQueue:    queue.NewSyncQueue(),
		consumer:     consumer,
		consumerType: consumerType,
		extra:        extra,
		Flow:         stats.NewFlow(),
	}

	c.logger = s.logger.With(xlog.Fields(
		xlog.F("cid", uint32(c.cid)),
		xlog.F("consumertype", c.consumerType.String()),
		xlog.F("extra", c.extra)))

	if replayCache {
		c.sendCached(s.cache) // 新消费者，先回放缓存
	}

	s.consumptions.Add(c)
	go c.consume()

	return c.cid
}

// StartConsume 开始消费，接入时回放缓存
func (s *Stream) StartConsume(consumer Consumer, consumerType ConsumerType, extra string) CID {
	return s.startConsume(consumer, consumerType, extra, true)
}

// StartConsumeNoReplay 开始消费，不回放缓存
func (s *Stream) StartConsumeNoReplay(consumer Consumer, consumerType ConsumerType, extra string) CID {
	return s.startConsume(consumer, consumerType, extra, false)
}

// StopConsume 停止消费
func (s *Stream) StopConsume(cid CID) {
	c := s.consumptions.Remove(cid)
	if c != nil {
		c.Close()
	}
}

// ConsumerCount 流消费者计数
func (s *Stream) ConsumerCount() int {
	return s.consumptions.Count()
}

// LastInfo 最近一个 RPU 的摘要
func (s *Stream) LastInfo() (rpu.Info, bool) {
	info, ok := s.lastInfo.Load().(rpu.Info)
	return info, ok
}

// StreamInfo 流信息
type StreamInfo struct {
	StartOn          string            `json:"start_on"`
	Path             string            `json:"path"`
	Addr             string            `json:"addr"`
	Size             int               `json:"size"`
	Packs            uint64            `json:"packs"`
	Corrupt          uint64            `json:"corrupt,omitempty"`
	Last             *rpu.Info         `json:"last,omitempty"`
	ConsumptionCount int               `json:"cc"`
	Consumptions     []ConsumptionInfo `json:"cs,omitempty"`
}

// Info 获取流信息
func (s *Stream) Info(includeCS bool) *StreamInfo {
	si := &StreamInfo{
		StartOn:          s.startOn.Format(time.RFC3339Nano),
		Path:             s.path,
		Addr:             s.Attr("addr"),
		Size:             int(atomic.LoadUint64(&s.size) / 1024),
		Packs:            atomic.LoadUint64(&s.packs),
		Corrupt:          atomic.LoadUint64(&s.corrupt),
		ConsumptionCount: s.consumptions.Count(),
	}

	if info, ok := s.LastInfo(); ok {
		si.Last = &info
	}
	if includeCS {
		si.Consumptions = s.consumptions.Infos()
	}
	return si
}

// GetConsumption 获取指定消费信息
func (s *Stream) GetConsumption(cid CID) (ConsumptionInfo, bool) {
	c, ok := s.consumptions.Load(cid)
	if ok {
		return c.(*consumption).Info(), ok
	}
	return ConsumptionInfo{}, false
}
