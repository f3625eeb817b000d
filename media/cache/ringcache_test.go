// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package cache

import (
	"testing"

	"github.com/cnotch/queue"
	"github.com/stretchr/testify/assert"
)

type fakePack int

func (p fakePack) Size() int { return int(p) }

type endMark struct{}

func (endMark) Size() int { return 0 }

// 推入结束标记后出列，避免对空队列的阻塞 Pop
func drain(q *queue.SyncQueue) []Pack {
	q.Push(endMark{})
	var packs []Pack
	for {
		p := q.Pop().(Pack)
		if _, ok := p.(endMark); ok {
			return packs
		}
		packs = append(packs, p)
	}
}

func TestRingCache(t *testing.T) {
	c := NewRingCache(3)

	t.Run("partial", func(t *testing.T) {
		c.CachePack(fakePack(1))
		c.CachePack(fakePack(2))

		q := queue.NewSyncQueue()
		bytes := c.PushTo(q)
		assert.Equal(t, 3, bytes)
		assert.Equal(t, []Pack{fakePack(1), fakePack(2)}, drain(q))
	})

	t.Run("overwrite", func(t *testing.T) {
		c.CachePack(fakePack(3))
		c.CachePack(fakePack(4))
		c.CachePack(fakePack(5))

		q := queue.NewSyncQueue()
		bytes := c.PushTo(q)
		assert.Equal(t, 12, bytes)
		assert.Equal(t, []Pack{fakePack(3), fakePack(4), fakePack(5)}, drain(q))
	})

	t.Run("reset", func(t *testing.T) {
		c.Reset()
		q := queue.NewSyncQueue()
		assert.Equal(t, 0, c.PushTo(q))
		assert.Empty(t, drain(q))
	})
}
