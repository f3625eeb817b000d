// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package media

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/cnotch/rpukit/av/hevc"
	"github.com/cnotch/rpukit/av/rpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertPayloadsKeepsOrder(t *testing.T) {
	const n = 32
	payloads := make([][]byte, n)
	for i := range payloads {
		payloads[i] = testPayload(t, uint16(i+1))
	}

	out, err := ConvertPayloads(payloads, rpu.Profile5, 4)
	require.NoError(t, err)
	require.Len(t, out, n)

	for i, data := range out {
		r, err := rpu.Decode(data)
		require.NoError(t, err)
		assert.Equal(t, rpu.Profile5, r.Profile())

		b, ok := r.DM.FirstLevel(1).(*rpu.BlockLevel1)
		require.True(t, ok)
		assert.Equal(t, uint16(i+1), b.MaxPQ)
	}
}

func TestConvertPayloadsFirstError(t *testing.T) {
	payloads := [][]byte{
		testPayload(t, 1),
		{0x19, 0x00}, // 损坏
		testPayload(t, 3),
	}

	_, err := ConvertPayloads(payloads, rpu.Profile5, 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rpu #1")
}

func TestConvertFile(t *testing.T) {
	dir, err := ioutil.TempDir("", "rpukit")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	var annexb []byte
	for i := 1; i <= 3; i++ {
		annexb = append(annexb, hevc.WrapRPU(testPayload(t, uint16(i)))...)
	}

	src := filepath.Join(dir, "in.bin")
	dst := filepath.Join(dir, "out.bin")
	require.NoError(t, ioutil.WriteFile(src, annexb, 0644))

	require.NoError(t, ConvertFile(src, dst, rpu.Profile5))

	out, err := ioutil.ReadFile(dst)
	require.NoError(t, err)

	converted := hevc.ExtractRPUs(out)
	require.Len(t, converted, 3)
	for _, payload := range converted {
		r, err := rpu.Decode(payload)
		require.NoError(t, err)
		assert.Equal(t, rpu.Profile5, r.Profile())
	}
}

func TestConvertFileNoRPU(t *testing.T) {
	dir, err := ioutil.TempDir("", "rpukit")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	src := filepath.Join(dir, "in.bin")
	require.NoError(t, ioutil.WriteFile(src, []byte{0, 0, 0, 1, 0x40, 0x01, 0xff}, 0644))

	err = ConvertFile(src, filepath.Join(dir, "out.bin"), rpu.Profile5)
	assert.Equal(t, ErrNoRPUFound, err)
}
