// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package cache

import (
	"sync"

	"github.com/cnotch/queue"
)

// RingCache 保留最近 n 个包的环形缓存。
// 新消费者接入时回放，便于立刻拿到当前场景的元数据。
type RingCache struct {
	l     sync.RWMutex
	packs []Pack
	next  int
	full  bool
}

// NewRingCache 创建容量为 n 的环形缓存
func NewRingCache(n int) *RingCache {
	if n < 1 {
		n = 1
	}
	return &RingCache{
		packs: make([]Pack, n),
	}
}

// CachePack 缓存包，容量满时覆盖最旧的
func (c *RingCache) CachePack(pack Pack) {
	c.l.Lock()
	defer c.l.Unlock()

	c.packs[c.next] = pack
	c.next++
	if c.next == len(c.packs) {
		c.next = 0
		c.full = true
	}
}

// PushTo 按从旧到新的次序推入队列，返回推送字节数
func (c *RingCache) PushTo(q *queue.SyncQueue) int {
	c.l.RLock()
	defer c.l.RUnlock()

	bytes := 0
	push := func(p Pack) {
		q.Push(p)
		bytes += p.Size()
	}

	if c.full {
		for _, p := range c.packs[c.next:] {
			push(p)
		}
	}
	for _, p := range c.packs[:c.next] {
		push(p)
	}
	return bytes
}

// Reset 重置缓存
func (c *RingCache) Reset() {
	c.l.Lock()
	defer c.l.Unlock()

	for i := range c.packs {
		c.packs[i] = nil
	}
	c.next = 0
	c.full = false
}
