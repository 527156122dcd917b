// Copyright IBM Corp. 2013, 2025
// SPDX-License-Identifier: MPL-2.0

package xenserver

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/hashicorp/packer-plugin-sdk/common"
	"github.com/hashicorp/packer-plugin-sdk/multistep"
	packersdk "github.com/hashicorp/packer-plugin-sdk/packer"
	"github.com/hashicorp/packer-plugin-sdk/template/interpolate"

	"github.com/hashicorp/packer-plugin-xenserver/post-processor/xenserver/common/log"
)

var _ multistep.Step = &StepMountDevice{}

type StepMountDevice struct {
	MountOptions   []string
	MountPartition string
	MountPath      string

	mountPath string
}

// partitionDevice names a partition of device. Devices ending in a digit,
// like loop devices, separate the partition number with a `p`.
func partitionDevice(device, partition string) string {
	if partition == "" {
		return device
	}
	if r := []rune(device); len(r) > 0 && unicode.IsDigit(r[len(r)-1]) {
		return device + "p" + partition
	}
	return device + partition
}

func (s *StepMountDevice) Run(ctx context.Context, state multistep.StateBag) multistep.StepAction {
	ui := state.Get("ui").(packersdk.Ui)
	device := state.Get("device").(string)
	config := state.Get("config").(*Config)
	ictx := config.ctx

	ictx.Data = &struct{ Device string }{Device: filepath.Base(device)}
	mountPath, err := interpolate.Render(s.MountPath, &ictx)
	if err != nil {
		err := fmt.Errorf("error preparing mount directory: %s", err)
		state.Put("error", err)
		ui.Error(err.Error())
		return multistep.ActionHalt
	}

	mountPath, err = filepath.Abs(mountPath)
	if err != nil {
		err := fmt.Errorf("error preparing mount directory: %s", err)
		state.Put("error", err)
		ui.Error(err.Error())
		return multistep.ActionHalt
	}

	log.Printf("Mount path: %s", mountPath)
	if err := os.MkdirAll(mountPath, 0755); err != nil {
		err := fmt.Errorf("error creating mount directory: %s", err)
		state.Put("error", err)
		ui.Error(err.Error())
		return multistep.ActionHalt
	}

	deviceMount := partitionDevice(device, s.MountPartition)
	state.Put("deviceMount", deviceMount)

	ui.Say("Mounting the root partition...")
	opts := ""
	if len(s.MountOptions) > 0 {
		opts = "-o " + strings.Join(s.MountOptions, " -o ")
	}
	wrappedCommand := state.Get("wrappedCommand").(common.CommandWrapper)
	mountCommand, err := wrappedCommand(
		fmt.Sprintf("mount %s %s %s", opts, deviceMount, mountPath))
	if err != nil {
		err := fmt.Errorf("error creating mount command: %s", err)
		state.Put("error", err)
		ui.Error(err.Error())
		return multistep.ActionHalt
	}
	log.Printf("[DEBUG] (step mount) mount command is %s", mountCommand)

	stderr := new(bytes.Buffer)
	cmd := common.ShellCommand(mountCommand)
	cmd.Stderr = stderr
	if err := cmd.Run(); err != nil {
		err := fmt.Errorf(
			"error mounting root partition: %s\nStderr: %s", err, stderr.String())
		state.Put("error", err)
		ui.Error(err.Error())
		return multistep.ActionHalt
	}

	// Set the mount path so we remember to unmount it later
	s.mountPath = mountPath
	state.Put("mount_path", s.mountPath)
	state.Put("mount_device_cleanup", s)

	return multistep.ActionContinue
}

func (s *StepMountDevice) Cleanup(state multistep.StateBag) {
	ui := state.Get("ui").(packersdk.Ui)
	if err := s.CleanupFunc(state); err != nil {
		ui.Error(err.Error())
	}
}

func (s *StepMountDevice) CleanupFunc(state multistep.StateBag) error {
	if s.mountPath == "" {
		return nil
	}

	ui := state.Get("ui").(packersdk.Ui)
	wrappedCommand := state.Get("wrappedCommand").(common.CommandWrapper)

	ui.Say("Unmounting the root partition...")
	unmountCommand, err := wrappedCommand(fmt.Sprintf("umount -R %s", s.mountPath))
	if err != nil {
		return fmt.Errorf("error creating unmount command: %s", err)
	}

	cmd := common.ShellCommand(unmountCommand)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("error unmounting root partition: %s", err)
	}

	s.mountPath = ""
	return nil
}
