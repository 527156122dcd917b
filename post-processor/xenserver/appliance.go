// Copyright IBM Corp. 2013, 2025
// SPDX-License-Identifier: MPL-2.0

package xenserver

import (
	"fmt"
	"os"
	"runtime"

	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"
)

const (
	// PostCommandsKey selects the commands of an appliance definition's `post`
	// section that run for this platform.
	PostCommandsKey = "xenserver"

	defaultFilesystemType = "ext3"
)

// Partition is one entry of the appliance partition table.
type Partition struct {
	Type string  `yaml:"type"`
	Size float64 `yaml:"size"`
}

// Appliance describes the image being converted.
type Appliance struct {
	Name       string
	OS         OS
	Arch       string
	Partitions map[string]Partition
	// Post maps a platform name to the commands run for it.
	Post map[string][]string
}

type OS struct {
	Name    string
	Version string
}

// Is64Bit selects the 64-bit fstab layout.
func (a Appliance) Is64Bit() bool {
	return a.Arch == "x86_64"
}

// RootFilesystemType returns the file system of the `/` partition.
func (a Appliance) RootFilesystemType() string {
	if p, ok := a.Partitions["/"]; ok && p.Type != "" {
		return p.Type
	}
	return defaultFilesystemType
}

// PostCommands returns the commands to run inside the guest after it has
// been customized, in order.
func (a Appliance) PostCommands() []string {
	return a.Post[PostCommandsKey]
}

// HostArch returns the guest architecture matching the machine Packer runs on.
func HostArch() string {
	switch runtime.GOARCH {
	case "amd64":
		return "x86_64"
	case "386":
		return "i686"
	default:
		return runtime.GOARCH
	}
}

var validArchs = map[string]bool{
	"i386":   true,
	"i686":   true,
	"x86_64": true,
}

// applianceFile is the YAML appliance definition format.
type applianceFile struct {
	Name string `yaml:"name"`
	OS   struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"os"`
	Hardware struct {
		Arch       string               `yaml:"arch"`
		Partitions map[string]Partition `yaml:"partitions"`
	} `yaml:"hardware"`
	Post map[string][]string `yaml:"post"`
}

// LoadApplianceFile reads an appliance definition. `~` in path is expanded.
func LoadApplianceFile(path string) (Appliance, error) {
	path, err := homedir.Expand(path)
	if err != nil {
		return Appliance{}, err
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		return Appliance{}, fmt.Errorf("failed to read appliance definition (%s): %w", path, err)
	}

	// Appliance definitions carry packages, repositories and more that only
	// matter to the builder; unknown keys are ignored.
	var f applianceFile
	if err := yaml.Unmarshal(contents, &f); err != nil {
		return Appliance{}, fmt.Errorf("failed to decode appliance definition (%s): %w", path, err)
	}

	return Appliance{
		Name:       f.Name,
		OS:         OS{Name: f.OS.Name, Version: f.OS.Version},
		Arch:       f.Hardware.Arch,
		Partitions: f.Hardware.Partitions,
		Post:       f.Post,
	}, nil
}
