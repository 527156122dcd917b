// Copyright IBM Corp. 2013, 2025
// SPDX-License-Identifier: MPL-2.0

package xenserver

import (
	"context"
	"fmt"

	"github.com/hashicorp/packer-plugin-sdk/multistep"
	packersdk "github.com/hashicorp/packer-plugin-sdk/packer"

	"github.com/hashicorp/packer-plugin-xenserver/post-processor/xenserver/common/vhd"
)

var _ multistep.Step = &StepCreateDisk{}

// StepCreateDisk copies the previous stage's image into the raw disk that is
// customized, leaving the original untouched.
type StepCreateDisk struct{}

func (s *StepCreateDisk) Run(ctx context.Context, state multistep.StateBag) multistep.StepAction {
	ui := state.Get("ui").(packersdk.Ui)
	deliverables := state.Get("deliverables").(*Deliverables)
	converter := state.Get("converter").(*vhd.Converter)

	ui.Say(fmt.Sprintf("Creating raw disk %s from %s...", deliverables.Disk, deliverables.Previous))
	if err := converter.CopyRaw(ctx, deliverables.Previous, deliverables.Disk); err != nil {
		err := fmt.Errorf("error creating raw disk: %w", err)
		state.Put("error", err)
		ui.Error(err.Error())
		return multistep.ActionHalt
	}
	deliverables.MarkProduced(deliverables.Disk)

	return multistep.ActionContinue
}

func (*StepCreateDisk) Cleanup(multistep.StateBag) {}
