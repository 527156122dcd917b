// Copyright IBM Corp. 2013, 2025
// SPDX-License-Identifier: MPL-2.0

package xenserver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/packer-plugin-sdk/common"

	"github.com/hashicorp/packer-plugin-xenserver/post-processor/xenserver/common/log"
)

// LoopAttacher exposes a disk image file as a block device on the host.
type LoopAttacher interface {
	Attach(ctx context.Context, image string) (device string, err error)
	Detach(ctx context.Context, device string) error
}

var NewLoopAttacher = func(wrappedCommand common.CommandWrapper) LoopAttacher {
	return &loopAttacher{wrappedCommand: wrappedCommand}
}

type loopAttacher struct {
	wrappedCommand common.CommandWrapper
}

var ErrNoLoopDevice = errors.New("losetup did not report a loop device")

func (la *loopAttacher) run(ctx context.Context, command string) (string, error) {
	wrapped, err := la.wrappedCommand(command)
	if err != nil {
		return "", fmt.Errorf("error creating command %q: %w", command, err)
	}
	log.Printf("[DEBUG] (loop) command is %s", wrapped)

	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	cmd := common.ShellCommand(wrapped)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s: %w\nStderr: %s", command, err, stderr.String())
	}
	return stdout.String(), ctx.Err()
}

// Attach scans the partition table so that the partitions show up as
// <device>p<N>.
func (la *loopAttacher) Attach(ctx context.Context, image string) (string, error) {
	out, err := la.run(ctx, fmt.Sprintf("losetup --find --show --partscan %s", image))
	if err != nil {
		return "", err
	}
	device := strings.TrimSpace(out)
	if device == "" {
		return "", ErrNoLoopDevice
	}
	return device, nil
}

func (la *loopAttacher) Detach(ctx context.Context, device string) error {
	_, err := la.run(ctx, fmt.Sprintf("losetup -d %s", device))
	return err
}
