// Copyright IBM Corp. 2013, 2025
// SPDX-License-Identifier: MPL-2.0

// Package vhd turns raw disk images into VHD files with qemu-img and
// VBoxManage. Neither format is encoded here.
package vhd

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	packersdk "github.com/hashicorp/packer-plugin-sdk/packer"
	"github.com/hashicorp/packer-plugin-sdk/shell-local/localexec"

	"github.com/hashicorp/packer-plugin-xenserver/post-processor/xenserver/common/log"
	"github.com/hashicorp/packer-plugin-xenserver/post-processor/xenserver/common/logutil"
)

const (
	DefaultQemuImg    = "qemu-img"
	DefaultVBoxManage = "VBoxManage"
)

// Runner runs an external program to completion.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) error
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, name string, args ...string) error

func (f RunnerFunc) Run(ctx context.Context, name string, args ...string) error {
	return f(ctx, name, args...)
}

// UIRunner runs programs on the host and streams their output to the UI.
type UIRunner struct {
	UI packersdk.Ui
}

func (r *UIRunner) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	return localexec.RunAndStream(cmd, r.UI, nil)
}

// ToolError is returned when an external conversion tool fails.
type ToolError struct {
	Tool string
	Args []string
	Err  error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Tool, strings.Join(e.Args, " "), e.Err)
}

func (e *ToolError) Unwrap() error { return e.Err }

// Intermediate returns the path of the sparse VMDK written next to anchor.
func Intermediate(anchor string) string {
	return anchor + ".vmdk"
}

// Converter chains qemu-img and VBoxManage.
type Converter struct {
	QemuImg    string
	VBoxManage string
	Runner     Runner
	Say        func(string)
}

func (c *Converter) say(msg string) {
	if c.Say != nil {
		c.Say(msg)
	}
}

func (c *Converter) run(ctx context.Context, tool string, args ...string) error {
	log.Debug("running conversion tool", logutil.Fields{"tool": tool, "args": args})
	if err := c.Runner.Run(ctx, tool, args...); err != nil {
		return &ToolError{Tool: tool, Args: args, Err: err}
	}
	return nil
}

func (c *Converter) qemuImg() string {
	if c.QemuImg == "" {
		return DefaultQemuImg
	}
	return c.QemuImg
}

func (c *Converter) vboxManage() string {
	if c.VBoxManage == "" {
		return DefaultVBoxManage
	}
	return c.VBoxManage
}

// Convert writes the VHD target from the raw source through the sparse VMDK
// intermediate. The intermediate is removed once the VHD has been written and
// kept when the second conversion fails.
func (c *Converter) Convert(ctx context.Context, source, intermediate, target string) error {
	c.say("Converting to VMDK Sparse using qemu-img...")
	if err := c.run(ctx, c.qemuImg(), "convert", "-O", "vmdk", source, intermediate); err != nil {
		return err
	}

	c.say("Converting to VHD using VBoxManage...")
	if err := c.run(ctx, c.vboxManage(), "clonehd", "--format", "VHD", intermediate, target); err != nil {
		return err
	}

	if err := os.Remove(intermediate); err != nil && !os.IsNotExist(err) {
		log.Printf("[WARN] unable to remove intermediate image %s: %v", intermediate, err)
	}
	return nil
}

// CopyRaw writes a sparse raw copy of source to target.
func (c *Converter) CopyRaw(ctx context.Context, source, target string) error {
	return c.run(ctx, c.qemuImg(), "convert", "-O", "raw", source, target)
}
