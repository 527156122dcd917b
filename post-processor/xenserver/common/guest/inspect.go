// Copyright IBM Corp. 2013, 2025
// SPDX-License-Identifier: MPL-2.0

package guest

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const modulesDir = "/lib/modules"

var ErrNoKernel = errors.New("no kernel installed in " + modulesDir)

// BootArtifacts describes the kernel the boot loader has to start.
type BootArtifacts struct {
	KernelVersion   string
	KernelImageName string
	InitrdName      string
}

// Inspect resolves the installed kernel and the file names of its boot
// artifacts.
func Inspect(ctx context.Context, g Guest) (BootArtifacts, error) {
	version, err := KernelVersion(ctx, g)
	if err != nil {
		return BootArtifacts{}, err
	}
	image, err := KernelImageName(ctx, g, version)
	if err != nil {
		return BootArtifacts{}, err
	}
	initrd, err := InitrdName(ctx, g, version)
	if err != nil {
		return BootArtifacts{}, err
	}
	return BootArtifacts{
		KernelVersion:   version,
		KernelImageName: image,
		InitrdName:      initrd,
	}, nil
}

// KernelVersion returns the last kernel listed in /lib/modules. When more
// than one kernel is installed a Xen flavoured one wins.
func KernelVersion(ctx context.Context, g Guest) (string, error) {
	versions, err := g.ReadDir(ctx, modulesDir)
	if err != nil {
		return "", err
	}
	if len(versions) == 0 {
		return "", ErrNoKernel
	}

	version := versions[len(versions)-1]
	if len(versions) > 1 {
		for _, v := range versions {
			if strings.HasSuffix(v, "xen") {
				version = v
				break
			}
		}
	}
	return version, nil
}

// KernelImageName returns `vmlinuz` for compressed kernels and `vmlinux`
// otherwise.
func KernelImageName(ctx context.Context, g Guest, version string) (string, error) {
	ok, err := g.Exists(ctx, fmt.Sprintf("/boot/vmlinuz-%s", version))
	if err != nil {
		return "", err
	}
	if ok {
		return "vmlinuz", nil
	}
	return "vmlinux", nil
}

// InitrdName returns `initramfs` when dracut built the boot image, `initrd`
// for mkinitrd.
func InitrdName(ctx context.Context, g Guest, version string) (string, error) {
	ok, err := g.Exists(ctx, fmt.Sprintf("/boot/initramfs-%s.img", version))
	if err != nil {
		return "", err
	}
	if ok {
		return "initramfs", nil
	}
	return "initrd", nil
}

// RecreateInitrd rebuilds the boot image of the installed kernel so that it
// preloads modules.
func RecreateInitrd(ctx context.Context, g Guest, modules []string) error {
	version, err := KernelVersion(ctx, g)
	if err != nil {
		return err
	}

	dracut, err := g.Exists(ctx, "/sbin/dracut")
	if err != nil {
		return err
	}

	var command string
	if dracut {
		command = fmt.Sprintf("/sbin/dracut -f -v --add-drivers '%s' /boot/initramfs-%s.img %s",
			strings.Join(modules, " "), version, version)
	} else {
		var preload strings.Builder
		for _, m := range modules {
			fmt.Fprintf(&preload, " --preload=%s", m)
		}
		command = fmt.Sprintf("/sbin/mkinitrd -f -v%s /boot/initrd-%s.img %s", preload.String(), version, version)
	}
	return g.Sh(ctx, command)
}
