// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rpu

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvert7To8(t *testing.T) {
	src := newTestRPU7(t)
	wantMapping := *src.Mapping

	require.NoError(t, Convert(src, Profile8))
	assert.Equal(t, Profile8, src.Profile())
	assert.Nil(t, src.Residual)
	assert.True(t, src.Header.DisableResidual)
	assert.False(t, src.Header.ELSpatialResamplingFilter)
	// 映射曲线不受剥离增强层影响
	assert.Equal(t, wantMapping, *src.Mapping)

	data, err := src.Encode()
	require.NoError(t, err)
	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, Profile8, decoded.Profile())
}

func TestConvert8To7Unsupported(t *testing.T) {
	src := newTestRPU8(t)
	err := Convert(src, Profile7)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedConversion))
	// 失败不应破坏源
	assert.Equal(t, Profile8, src.Profile())
}

func TestConvert5RoundTrip(t *testing.T) {
	src := newTestRPU8(t)
	wantMapping := *src.Mapping

	require.NoError(t, Convert(src, Profile5))
	assert.Equal(t, Profile5, src.Profile())
	assert.True(t, src.Header.BLVideoFullRange)

	require.NoError(t, Convert(src, Profile8))
	assert.Equal(t, Profile8, src.Profile())
	assert.False(t, src.Header.BLVideoFullRange)
	assert.Equal(t, wantMapping, *src.Mapping)
}

func TestConvertSameProfile(t *testing.T) {
	src := newTestRPU8(t)
	data1, err := src.Encode()
	require.NoError(t, err)

	require.NoError(t, Convert(src, Profile8))
	data2, err := src.Encode()
	require.NoError(t, err)
	assert.Equal(t, data1, data2)
}

func TestConvertKeepsZeroPivotCurves(t *testing.T) {
	src := newTestRPU7(t)
	require.Nil(t, src.Mapping.Curves[2].Pivots)

	// 零枢轴直通曲线对所有档次合法，转换不得改写它
	require.NoError(t, Convert(src, Profile8))
	assert.Nil(t, src.Mapping.Curves[2].Pivots)
	assert.Nil(t, src.Mapping.Curves[2].Segments)

	data, err := src.Encode()
	require.NoError(t, err)
	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.True(t, decoded.Mapping.Curves[2].Identity())
	assert.Equal(t, src.Mapping, decoded.Mapping)
}

func TestConvertDedupsActiveArea(t *testing.T) {
	src := newTestRPU8(t)
	require.NoError(t, src.DM.AddBlock(&BlockLevel5{ActiveAreaLeft: 1}))

	require.NoError(t, Convert(src, Profile8))
	var count int
	var first *BlockLevel5
	for _, b := range src.DM.Blocks {
		if l5, ok := b.(*BlockLevel5); ok {
			count++
			if first == nil {
				first = l5
			}
		}
	}
	assert.Equal(t, 1, count)
	require.NotNil(t, first)
	assert.Equal(t, uint16(276), first.ActiveAreaTop)
}

func TestConvertToUnknown(t *testing.T) {
	src := newTestRPU8(t)
	err := Convert(src, Profile4)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedConversion))
}
