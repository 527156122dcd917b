// Copyright IBM Corp. 2013, 2025
// SPDX-License-Identifier: MPL-2.0

package xenserver

import (
	"context"

	"github.com/hashicorp/packer-plugin-sdk/multistep"
	packersdk "github.com/hashicorp/packer-plugin-sdk/packer"

	"github.com/hashicorp/packer-plugin-xenserver/post-processor/xenserver/common/log"
)

var _ multistep.Step = &StepPreflight{}

// StepPreflight halts before anything is written when a host tool is missing.
type StepPreflight struct {
	Tools    []string
	LookPath func(string) (string, error)
}

func (s *StepPreflight) Run(ctx context.Context, state multistep.StateBag) multistep.StepAction {
	ui := state.Get("ui").(packersdk.Ui)

	ui.Say("Checking required tools...")
	result := Preflight{LookPath: s.LookPath}.Check(s.Tools...)
	for tool, path := range result.Found {
		log.Printf("Found %s at %s", tool, path)
	}
	if err := result.Err(); err != nil {
		state.Put("error", err)
		ui.Error(err.Error())
		return multistep.ActionHalt
	}

	return multistep.ActionContinue
}

func (*StepPreflight) Cleanup(multistep.StateBag) {}
