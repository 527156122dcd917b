// Copyright IBM Corp. 2013, 2025
// SPDX-License-Identifier: MPL-2.0

package xenserver

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	packersdk "github.com/hashicorp/packer-plugin-sdk/packer"

	"github.com/hashicorp/packer-plugin-xenserver/post-processor/xenserver/common/guest"
	"github.com/hashicorp/packer-plugin-xenserver/post-processor/xenserver/common/log"
	"github.com/hashicorp/packer-plugin-xenserver/post-processor/xenserver/common/template"
)

const (
	guestResolvConf   = "/etc/resolv.conf"
	guestFstab        = "/etc/fstab"
	guestIfcfgEth0    = "/etc/sysconfig/network-scripts/ifcfg-eth0"
	guestRcLocal      = "/etc/rc.d/rc.local"
	guestRcLocalLink  = "/etc/rc.local"
	guestMenuLst      = "/boot/grub/menu.lst"
	guestMakedev      = "/sbin/MAKEDEV"
	guestLibc6XenConf = "/etc/ld.so.conf.d/libc6-xen.conf"

	rcLocalService = "rc-local.service"
	rcLocalShebang = "#!/bin/bash\n\n"
)

// xenDriverModules are preloaded by the regenerated boot image of kernel-xen.
var xenDriverModules = []string{"xenblk", "xennet"}

// Customizer prepares a mounted RPM based image to boot under XenServer.
type Customizer struct {
	Guest     guest.Guest
	Renderer  *template.Renderer
	Appliance Appliance
	Platform  Platform
	// HostResolvConf is copied into the guest so that package installs
	// can resolve names.
	HostResolvConf string
	UI             packersdk.Ui
}

type customizeStep struct {
	name string
	run  func(ctx context.Context) error
}

// steps returns the customization in the order it has to run in. The boot
// menu reads the kernel version, so it follows the kernel replacement.
func (c *Customizer) steps() []customizeStep {
	return []customizeStep{
		{"dns bootstrap", c.bootstrapDNS},
		{"kernel", c.installXenKernel},
		{"devices", c.createDevices},
		{"fstab", c.uploadFstab},
		{"networking", c.enableNetworking},
		{"rc.local", c.uploadRcLocal},
		{"boot menu", c.installMenuLst},
		{"nosegneg", c.enableNosegneg},
		{"post commands", c.executePost},
	}
}

// Run applies every step and stops at the first failure. Nothing is rolled
// back.
func (c *Customizer) Run(ctx context.Context) error {
	for _, s := range c.steps() {
		if err := ctx.Err(); err != nil {
			return err
		}
		log.Debugf("customize: %s", s.name)
		if err := s.run(ctx); err != nil {
			return fmt.Errorf("customizing %s: %w", s.name, err)
		}
	}
	return nil
}

func (c *Customizer) message(msg string) {
	if c.UI != nil {
		c.UI.Message(msg)
	}
}

func (c *Customizer) shArch() guest.ShOption {
	return guest.WithArch(c.Appliance.Arch)
}

func (c *Customizer) bootstrapDNS(ctx context.Context) error {
	log.Debugf("Uploading '%s'...", guestResolvConf)
	return guest.UploadFile(ctx, c.Guest, c.HostResolvConf, guestResolvConf)
}

func (c *Customizer) installXenKernel(ctx context.Context) error {
	if !c.Platform.NeedsXenKernel() {
		return nil
	}

	c.message("Replacing kernel with kernel-xen...")
	if err := c.Guest.Sh(ctx, "yum -y remove kernel"); err != nil {
		return err
	}
	if err := c.Guest.Sh(ctx, "yum -y install kernel-xen", c.shArch()); err != nil {
		return err
	}
	return guest.RecreateInitrd(ctx, c.Guest, xenDriverModules)
}

func (c *Customizer) createDevices(ctx context.Context) error {
	ok, err := c.Guest.Exists(ctx, guestMakedev)
	if err != nil {
		return err
	}
	if !ok {
		log.Debugf("%s not found, skipping device creation", guestMakedev)
		return nil
	}

	c.message("Creating required devices...")
	for _, dev := range []string{"console", "null", "zero"} {
		if err := c.Guest.Sh(ctx, fmt.Sprintf("%s -d /dev -x %s", guestMakedev, dev)); err != nil {
			return err
		}
	}
	return nil
}

func (c *Customizer) uploadFstab(ctx context.Context) error {
	name := template.Fstab32
	if c.Appliance.Is64Bit() {
		name = template.Fstab64
	}

	fstab, err := c.Renderer.Render(name, template.Vars{
		template.DiskDevicePrefix: c.Platform.DiskDevicePrefix(),
		template.FilesystemType:   c.Appliance.RootFilesystemType(),
	})
	if err != nil {
		return err
	}

	c.message(fmt.Sprintf("Uploading '%s' file...", guestFstab))
	return c.Guest.Upload(ctx, guestFstab, bytes.NewReader(fstab))
}

func (c *Customizer) enableNetworking(ctx context.Context) error {
	c.message("Enabling networking...")
	if err := c.Guest.Sh(ctx, "/sbin/chkconfig network on"); err != nil {
		return err
	}

	ifcfg, err := c.Renderer.Render(template.NetworkInterface, nil)
	if err != nil {
		return err
	}
	return c.Guest.Upload(ctx, guestIfcfgEth0, bytes.NewReader(ifcfg))
}

func (c *Customizer) uploadRcLocal(ctx context.Context) error {
	appendix, err := c.Renderer.Render(template.RcLocalAppend, nil)
	if err != nil {
		return err
	}

	exists, err := c.Guest.Exists(ctx, guestRcLocal)
	if err != nil {
		return err
	}

	var rcLocal bytes.Buffer
	if exists {
		existing, err := c.Guest.ReadFile(ctx, guestRcLocal)
		if err != nil {
			return err
		}
		rcLocal.Write(existing)
	} else {
		rcLocal.WriteString(rcLocalShebang)
	}
	rcLocal.Write(appendix)

	c.message(fmt.Sprintf("Uploading '%s' file...", guestRcLocal))
	if err := c.Guest.Upload(ctx, guestRcLocal, &rcLocal); err != nil {
		return err
	}

	if !c.Platform.UsesSystemdRcLocal() {
		return nil
	}

	// rc.local only runs through systemd's compatibility unit, which has to
	// wait for the network.
	if err := c.Guest.Copy(ctx, "/lib/systemd/system/"+rcLocalService, "/etc/systemd/system/"); err != nil {
		return err
	}
	if err := c.Guest.Sh(ctx, "sed -i '/^ConditionFileIsExecutable/a After=network.target' /etc/systemd/system/"+rcLocalService); err != nil {
		return err
	}
	if err := c.Guest.Sh(ctx, "systemctl enable "+rcLocalService); err != nil {
		return err
	}
	if err := c.Guest.Symlink(ctx, guestRcLocal, guestRcLocalLink); err != nil {
		return err
	}
	return c.Guest.Chmod(ctx, 0755, guestRcLocal)
}

func (c *Customizer) installMenuLst(ctx context.Context) error {
	boot, err := guest.Inspect(ctx, c.Guest)
	if err != nil {
		return err
	}

	menu, err := c.Renderer.Render(template.BootMenu, template.Vars{
		template.Title:            c.Appliance.Name,
		template.KernelVersion:    boot.KernelVersion,
		template.KernelImageName:  boot.KernelImageName,
		template.InitrdName:       boot.InitrdName,
		template.DiskDevicePrefix: c.Platform.DiskDevicePrefix(),
		template.Console:          c.Platform.Console(),
	})
	if err != nil {
		return err
	}

	c.message(fmt.Sprintf("Uploading '%s' file...", guestMenuLst))
	return c.Guest.Upload(ctx, guestMenuLst, bytes.NewReader(menu))
}

func (c *Customizer) enableNosegneg(ctx context.Context) error {
	if !c.Platform.NeedsNosegneg() {
		return nil
	}

	c.message("Enabling nosegneg flag...")
	if err := c.Guest.Sh(ctx, fmt.Sprintf("echo 'hwcap 1 nosegneg' > %s", guestLibc6XenConf)); err != nil {
		return err
	}
	return c.Guest.Sh(ctx, "/sbin/ldconfig")
}

func (c *Customizer) executePost(ctx context.Context) error {
	commands := c.Appliance.PostCommands()
	if len(commands) == 0 {
		log.Debugf("No %s post commands specified, skipping.", PostCommandsKey)
		return nil
	}

	for _, cmd := range commands {
		c.message(fmt.Sprintf("Executing %s post command: %s", PostCommandsKey, strings.TrimSpace(cmd)))
		if err := c.Guest.Sh(ctx, cmd, c.shArch()); err != nil {
			return err
		}
	}
	return nil
}
