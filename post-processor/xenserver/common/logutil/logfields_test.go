// Copyright IBM Corp. 2013, 2025
// SPDX-License-Identifier: MPL-2.0

package logutil

import "testing"

func TestFields_String(t *testing.T) {
	f := Fields{
		"tool":   "qemu-img",
		"exit":   1,
		"args":   []string{"convert", "-O", "vmdk"},
		"anchor": "/out/jeos.raw",
	}

	want := ` anchor="/out/jeos.raw" args=["convert" "-O" "vmdk"] exit=1 tool="qemu-img"`
	if got := f.String(); got != want {
		t.Errorf("Fields.String() = %q, want %q", got, want)
	}
}

func TestFields_StringEmpty(t *testing.T) {
	if got := (Fields{}).String(); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
}
