// Copyright IBM Corp. 2013, 2025
// SPDX-License-Identifier: MPL-2.0

//go:generate packer-sdc struct-markdown

package common

import (
	"github.com/hashicorp/packer-plugin-sdk/multistep"
)

const (
	SkippingVHDConversion = "Skipping VHD conversion..."
)

type Config struct {
	// Stop after the raw image has been customized and do not produce a VHD.
	// Useful when the raw disk is consumed by another post-processor.
	// Defaults to `false`.
	SkipVHDConversion bool `mapstructure:"skip_vhd_conversion" required:"false"`
}

// ConvertSteps returns the steps unless `SkipVHDConversion` is `true`. In that
// case it returns a single StepSkip.
func (config Config) ConvertSteps(say func(string), steps ...multistep.Step) []multistep.Step {
	if !config.SkipVHDConversion {
		return steps
	}

	return []multistep.Step{
		&StepSkip{
			Message: SkippingVHDConversion,
			Say:     say,
		},
	}
}
