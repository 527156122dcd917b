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

var _ multistep.Step = &StepConvertVHD{}

// StepConvertVHD produces the VHD from the customized disk, or from the
// previous stage's image when nothing was customized.
type StepConvertVHD struct{}

func (s *StepConvertVHD) Run(ctx context.Context, state multistep.StateBag) multistep.StepAction {
	ui := state.Get("ui").(packersdk.Ui)
	deliverables := state.Get("deliverables").(*Deliverables)
	converter := state.Get("converter").(*vhd.Converter)

	source, intermediate := deliverables.ConversionSource()
	ui.Say(fmt.Sprintf("Converting %s to VHD format...", source))
	if err := converter.Convert(ctx, source, intermediate, deliverables.VHD); err != nil {
		err := fmt.Errorf("error converting image to VHD: %w", err)
		state.Put("error", err)
		ui.Error(err.Error())
		return multistep.ActionHalt
	}
	deliverables.MarkProduced(deliverables.VHD)
	ui.Message(fmt.Sprintf("VHD written to %s", deliverables.VHD))

	return multistep.ActionContinue
}

func (*StepConvertVHD) Cleanup(multistep.StateBag) {}
