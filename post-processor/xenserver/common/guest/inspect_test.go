// Copyright IBM Corp. 2013, 2025
// SPDX-License-Identifier: MPL-2.0

package guest_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hashicorp/packer-plugin-xenserver/post-processor/xenserver/common/guest"
	"github.com/hashicorp/packer-plugin-xenserver/post-processor/xenserver/common/guest/guesttest"
)

func TestKernelVersion(t *testing.T) {
	tests := []struct {
		name    string
		modules []string
		want    string
	}{
		{
			name:    "single kernel",
			modules: []string{"3.1.0-7.fc16.x86_64"},
			want:    "3.1.0-7.fc16.x86_64",
		},
		{
			name:    "last listed kernel wins",
			modules: []string{"2.6.32-71.el6.x86_64", "2.6.32-220.el6.x86_64"},
			want:    "2.6.32-71.el6.x86_64",
		},
		{
			name:    "xen kernel preferred",
			modules: []string{"2.6.18-308.el5", "2.6.18-308.el5xen", "2.6.18-371.el5"},
			want:    "2.6.18-308.el5xen",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files := map[string]string{}
			for _, m := range tt.modules {
				files["/lib/modules/"+m+"/modules.dep"] = ""
			}
			got, err := guest.KernelVersion(context.Background(), guesttest.New(files))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestKernelVersion_NoModules(t *testing.T) {
	_, err := guest.KernelVersion(context.Background(), guesttest.New(nil))
	require.Error(t, err)
}

func TestInspect(t *testing.T) {
	g := guesttest.New(map[string]string{
		"/lib/modules/2.6.35.6-45.fc14.x86_64/modules.dep": "",
		"/boot/vmlinuz-2.6.35.6-45.fc14.x86_64":            "",
		"/boot/initramfs-2.6.35.6-45.fc14.x86_64.img":      "",
	})

	got, err := guest.Inspect(context.Background(), g)
	require.NoError(t, err)
	assert.Equal(t, guest.BootArtifacts{
		KernelVersion:   "2.6.35.6-45.fc14.x86_64",
		KernelImageName: "vmlinuz",
		InitrdName:      "initramfs",
	}, got)
}

func TestInspect_UncompressedKernelAndInitrd(t *testing.T) {
	g := guesttest.New(map[string]string{
		"/lib/modules/2.6.18-308.el5xen/modules.dep": "",
		"/boot/vmlinux-2.6.18-308.el5xen":            "",
		"/boot/initrd-2.6.18-308.el5xen.img":         "",
	})

	got, err := guest.Inspect(context.Background(), g)
	require.NoError(t, err)
	assert.Equal(t, "vmlinux", got.KernelImageName)
	assert.Equal(t, "initrd", got.InitrdName)
}

func TestRecreateInitrd(t *testing.T) {
	const version = "2.6.18-308.el5xen"
	modules := map[string]string{"/lib/modules/" + version + "/modules.dep": ""}

	t.Run("mkinitrd", func(t *testing.T) {
		g := guesttest.New(modules)
		require.NoError(t, guest.RecreateInitrd(context.Background(), g, []string{"xenblk", "xennet"}))
		assert.Equal(t, []string{
			"/sbin/mkinitrd -f -v --preload=xenblk --preload=xennet /boot/initrd-" + version + ".img " + version,
		}, g.Commands())
	})

	t.Run("dracut", func(t *testing.T) {
		files := map[string]string{"/sbin/dracut": ""}
		for k, v := range modules {
			files[k] = v
		}
		g := guesttest.New(files)
		require.NoError(t, guest.RecreateInitrd(context.Background(), g, []string{"xenblk", "xennet"}))
		assert.Equal(t, []string{
			"/sbin/dracut -f -v --add-drivers 'xenblk xennet' /boot/initramfs-" + version + ".img " + version,
		}, g.Commands())
	})

	t.Run("failure", func(t *testing.T) {
		g := guesttest.New(modules)
		g.FailOn = "mkinitrd"
		err := guest.RecreateInitrd(context.Background(), g, []string{"xenblk"})
		var gerr *guest.Error
		assert.True(t, errors.As(err, &gerr))
	})
}
