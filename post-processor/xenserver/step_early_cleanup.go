// Copyright IBM Corp. 2013, 2025
// SPDX-License-Identifier: MPL-2.0

package xenserver

import (
	"context"
	"fmt"

	"github.com/hashicorp/packer-plugin-sdk/multistep"
	packersdk "github.com/hashicorp/packer-plugin-sdk/packer"

	"github.com/hashicorp/packer-plugin-xenserver/post-processor/xenserver/common/log"
)

type earlyCleanup interface {
	CleanupFunc(multistep.StateBag) error
}

// StepEarlyCleanup releases the image before it is converted: extra mounts
// first, then the root partition, then the loop device.
type StepEarlyCleanup struct{}

func (s *StepEarlyCleanup) Run(ctx context.Context, state multistep.StateBag) multistep.StepAction {
	ui := state.Get("ui").(packersdk.Ui)

	cleanupKeys := []string{
		"mount_extra_cleanup",
		"mount_device_cleanup",
		"attach_cleanup",
	}

	for _, key := range cleanupKeys {
		c, ok := state.GetOk(key)
		if !ok {
			log.Printf("Skipping cleanup func: %s (not set)", key)
			continue
		}

		cleanup, ok := c.(earlyCleanup)
		if !ok {
			log.Printf("Skipping cleanup func: %s (does not implement CleanupFunc)", key)
			continue
		}

		log.Printf("Running cleanup func: %s", key)
		if err := cleanup.CleanupFunc(state); err != nil {
			err = fmt.Errorf("error during cleanup %s: %v", key, err)
			state.Put("error", err)
			ui.Error(err.Error())
			return multistep.ActionHalt
		}
	}

	return multistep.ActionContinue
}

func (s *StepEarlyCleanup) Cleanup(state multistep.StateBag) {}
