// Copyright IBM Corp. 2013, 2025
// SPDX-License-Identifier: MPL-2.0

package xenserver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/packer-plugin-sdk/multistep"
	packersdk "github.com/hashicorp/packer-plugin-sdk/packer"

	"github.com/hashicorp/packer-plugin-xenserver/post-processor/xenserver/common/log"
)

var _ multistep.Step = &StepPrepareOutput{}

// StepPrepareOutput creates the output directory. Files left by a previous
// build are only removed when the build is forced, and never when one of
// them is the source image.
type StepPrepareOutput struct {
	OutputDir string
	Force     bool
}

func (s *StepPrepareOutput) Run(ctx context.Context, state multistep.StateBag) multistep.StepAction {
	ui := state.Get("ui").(packersdk.Ui)
	deliverables := state.Get("deliverables").(*Deliverables)

	if err := s.prepare(deliverables); err != nil {
		state.Put("error", err)
		ui.Error(err.Error())
		return multistep.ActionHalt
	}

	return multistep.ActionContinue
}

func (s *StepPrepareOutput) prepare(deliverables *Deliverables) error {
	if err := checkSourceNotOverwritten(deliverables); err != nil {
		return err
	}

	for _, path := range deliverables.Paths() {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if !s.Force {
			return fmt.Errorf("output file %s already exists, use -force to overwrite it", path)
		}
		log.Printf("Removing existing output file %s", path)
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("error removing existing output file: %w", err)
		}
	}

	if err := os.MkdirAll(s.OutputDir, 0755); err != nil {
		return fmt.Errorf("error creating output directory: %w", err)
	}
	return nil
}

func checkSourceNotOverwritten(deliverables *Deliverables) error {
	if deliverables.Previous == "" {
		return nil
	}
	source, err := filepath.Abs(deliverables.Previous)
	if err != nil {
		return fmt.Errorf("error resolving source image path: %w", err)
	}

	_, intermediate := deliverables.ConversionSource()
	for _, path := range append(deliverables.Paths(), intermediate) {
		out, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("error resolving output path: %w", err)
		}
		if out == source {
			return fmt.Errorf("source image %s would be overwritten by the output, choose another output_directory", deliverables.Previous)
		}
	}
	return nil
}

func (*StepPrepareOutput) Cleanup(multistep.StateBag) {}
