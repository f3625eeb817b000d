// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rpu

import "strconv"

// Profile 由首部标志组合确定的档次标识
type Profile uint8

// 可识别的 Profile 常量
const (
	ProfileUnknown Profile = 0
	Profile4       Profile = 4
	Profile5       Profile = 5
	Profile7       Profile = 7
	Profile8       Profile = 8
)

func (p Profile) String() string {
	if p == ProfileUnknown {
		return "unknown"
	}
	return strconv.Itoa(int(p))
}

// ParseProfile 解析 Profile 字串（"4"/"5"/"7"/"8"）。
func ParseProfile(s string) (Profile, bool) {
	for _, p := range []Profile{Profile4, Profile5, Profile7, Profile8} {
		if s == p.String() {
			return p, true
		}
	}
	return ProfileUnknown, false
}

// profileSig 首部标志组合的签名。
// 签名表是进程级只读数据；格式演进时仅需扩充表项。
type profileSig struct {
	vdrRPUProfile uint8
	fullRange     bool
	enhancement   bool // el_spatial_resampling_filter_flag && !disable_residual_flag
	profile       Profile
}

var profileTable = []profileSig{
	{0, true, false, Profile5},
	{0, false, true, Profile4},
	{1, false, true, Profile7},
	{1, false, false, Profile8},
}

// profileOf 根据首部确定 Profile；不认识的组合返回 ProfileUnknown。
func profileOf(h *Header) Profile {
	enhancement := h.ELSpatialResamplingFilter && !h.DisableResidual
	for i := range profileTable {
		sig := &profileTable[i]
		if sig.vdrRPUProfile == h.Profile &&
			sig.fullRange == h.BLVideoFullRange &&
			sig.enhancement == enhancement {
			return sig.profile
		}
	}
	return ProfileUnknown
}
