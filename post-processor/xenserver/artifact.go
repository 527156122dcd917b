// Copyright IBM Corp. 2013, 2025
// SPDX-License-Identifier: MPL-2.0

package xenserver

import (
	"fmt"
	"os"
	"strings"
)

const BuilderId = "packer.post-processor.xenserver-vhd"

// Artifact is the set of image files written by the post-processor.
type Artifact struct {
	dir      string
	files    []string
	platform Platform

	// StateData should store data such as GeneratedData
	// to be shared with post-processors
	StateData map[string]interface{}
}

func NewArtifact(dir string, files []string, platform Platform, stateData map[string]interface{}) *Artifact {
	return &Artifact{
		dir:       dir,
		files:     files,
		platform:  platform,
		StateData: stateData,
	}
}

func (*Artifact) BuilderId() string {
	return BuilderId
}

func (a *Artifact) Files() []string {
	return a.files
}

// Id returns the VHD when there is one, the raw image otherwise.
func (a *Artifact) Id() string {
	for _, f := range a.files {
		if strings.HasSuffix(f, ".vhd") {
			return f
		}
	}
	if len(a.files) > 0 {
		return a.files[0]
	}
	return "UNKNOWN ID"
}

func (a *Artifact) String() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "XenServer images (%s) in directory: %s\n", a.platform, a.dir)
	for _, f := range a.files {
		fmt.Fprintf(&buf, "%s\n", f)
	}
	return buf.String()
}

func (a *Artifact) State(name string) interface{} {
	return a.StateData[name]
}

func (a *Artifact) Destroy() error {
	var errs []string
	for _, f := range a.files {
		if err := os.Remove(f); err != nil && !os.IsNotExist(err) {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("failed to remove artifact files: %s", strings.Join(errs, "; "))
	}
	return nil
}
