// Copyright IBM Corp. 2013, 2025
// SPDX-License-Identifier: MPL-2.0

package xenserver

import (
	"context"
	"fmt"

	"github.com/hashicorp/packer-plugin-sdk/common"
	"github.com/hashicorp/packer-plugin-sdk/multistep"
	packersdk "github.com/hashicorp/packer-plugin-sdk/packer"

	"github.com/hashicorp/packer-plugin-xenserver/post-processor/xenserver/common/log"
)

var _ multistep.Step = &StepAttachImage{}

// StepAttachImage attaches the raw disk to a loop device and puts it in the
// state bag as 'device'.
type StepAttachImage struct {
	attacher LoopAttacher
	device   string
}

func (s *StepAttachImage) Run(ctx context.Context, state multistep.StateBag) multistep.StepAction {
	ui := state.Get("ui").(packersdk.Ui)
	deliverables := state.Get("deliverables").(*Deliverables)
	wrappedCommand := state.Get("wrappedCommand").(common.CommandWrapper)

	s.attacher = NewLoopAttacher(wrappedCommand)

	ui.Say(fmt.Sprintf("Attaching %s to a loop device...", deliverables.Disk))
	device, err := s.attacher.Attach(ctx, deliverables.Disk)
	if err != nil {
		err := fmt.Errorf("error attaching image: %w", err)
		state.Put("error", err)
		ui.Error(err.Error())
		return multistep.ActionHalt
	}

	log.Printf("Image attached to %s", device)
	s.device = device
	state.Put("device", device)
	state.Put("attach_cleanup", s)

	return multistep.ActionContinue
}

func (s *StepAttachImage) Cleanup(state multistep.StateBag) {
	ui := state.Get("ui").(packersdk.Ui)
	if err := s.CleanupFunc(state); err != nil {
		ui.Error(err.Error())
	}
}

func (s *StepAttachImage) CleanupFunc(state multistep.StateBag) error {
	if s.device == "" {
		return nil
	}

	ui := state.Get("ui").(packersdk.Ui)
	ui.Say(fmt.Sprintf("Detaching %s...", s.device))
	if err := s.attacher.Detach(context.Background(), s.device); err != nil {
		return fmt.Errorf("error detaching image: %w", err)
	}
	s.device = ""
	return nil
}
