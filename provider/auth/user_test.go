// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package auth

import "testing"

func TestUser_ValidePermission(t *testing.T) {
	u := User{
		Name:       "cao",
		Password:   "ok",
		IngestAccess: "/a/+/c",
		WatchAccess: "/a/*",
	}
	u.init()

	tests := []struct {
		name  string
		path  string
		right AccessRight
		want  bool
	}{
		{"2", "/a/b/c", IngestRight, true},
		{"3", "/a/c", IngestRight, false},
		{"4", "/a", WatchRight, true},
		{"5", "/a/c", WatchRight, true},
		{"6", "/a/c/d", WatchRight, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := u.ValidatePermission(tt.path, tt.right); got != tt.want {
				t.Errorf("User.ValidePermission() = %v, want %v", got, tt.want)
			}
		})
	}
}
