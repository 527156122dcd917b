// Copyright IBM Corp. 2013, 2025
// SPDX-License-Identifier: MPL-2.0

package xenserver

import (
	"context"
	"fmt"

	"github.com/hashicorp/packer-plugin-sdk/common"
	"github.com/hashicorp/packer-plugin-sdk/multistep"
	packersdk "github.com/hashicorp/packer-plugin-sdk/packer"

	"github.com/hashicorp/packer-plugin-xenserver/post-processor/xenserver/common/guest"
	"github.com/hashicorp/packer-plugin-xenserver/post-processor/xenserver/common/template"
)

var _ multistep.Step = &StepCustomizeGuest{}

// StepCustomizeGuest runs the customization pipeline against the image
// mounted at 'mount_path'.
type StepCustomizeGuest struct {
	Renderer       *template.Renderer
	Appliance      Appliance
	Platform       Platform
	HostResolvConf string
	NewGuest       func(mountPath string, wrapper common.CommandWrapper, ui packersdk.Ui) guest.Guest
}

func (s *StepCustomizeGuest) Run(ctx context.Context, state multistep.StateBag) multistep.StepAction {
	ui := state.Get("ui").(packersdk.Ui)
	mountPath := state.Get("mount_path").(string)
	wrappedCommand := state.Get("wrappedCommand").(common.CommandWrapper)

	ui.Say(fmt.Sprintf("Customizing %s image for XenServer...", s.Platform))
	customizer := &Customizer{
		Guest:          s.NewGuest(mountPath, wrappedCommand, ui),
		Renderer:       s.Renderer,
		Appliance:      s.Appliance,
		Platform:       s.Platform,
		HostResolvConf: s.HostResolvConf,
		UI:             ui,
	}
	if err := customizer.Run(ctx); err != nil {
		state.Put("error", err)
		ui.Error(err.Error())
		return multistep.ActionHalt
	}

	return multistep.ActionContinue
}

func (*StepCustomizeGuest) Cleanup(multistep.StateBag) {}
