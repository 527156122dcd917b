// Copyright IBM Corp. 2013, 2025
// SPDX-License-Identifier: MPL-2.0

package common

import (
	"context"

	"github.com/hashicorp/packer-plugin-sdk/multistep"
)

// StateSkipped lists, in the state bag, the messages of the skipped stages.
const StateSkipped = "skipped"

// StepSkip stands in for stages that are turned off. It tells the user and
// records the message under StateSkipped; it never halts the build.
type StepSkip struct {
	Message string
	Say     func(string)
}

func (step *StepSkip) Run(ctx context.Context, state multistep.StateBag) multistep.StepAction {
	if step.Say != nil {
		step.Say(step.Message)
	}

	var skipped []string
	if s, ok := state.GetOk(StateSkipped); ok {
		skipped = s.([]string)
	}
	state.Put(StateSkipped, append(skipped, step.Message))
	return multistep.ActionContinue
}

func (*StepSkip) Cleanup(multistep.StateBag) {}

var _ multistep.Step = (*StepSkip)(nil)
