// Copyright IBM Corp. 2013, 2025
// SPDX-License-Identifier: MPL-2.0

package xenserver

import (
	"os/exec"
	"strings"

	"github.com/hashicorp/packer-plugin-xenserver/post-processor/xenserver/common/vhd"
)

// PreflightError lists the host tools that could not be found.
type PreflightError struct {
	Missing []string
}

func (e *PreflightError) Error() string {
	return "required tools not found on this host: " + strings.Join(e.Missing, ", ")
}

// Preflight checks that the external tools a build needs are installed.
type Preflight struct {
	// LookPath defaults to exec.LookPath.
	LookPath func(file string) (string, error)
}

// PreflightResult maps every found tool to its resolved path.
type PreflightResult struct {
	Found   map[string]string
	Missing []string
}

// Err returns a *PreflightError when tools are missing, nil otherwise.
func (r PreflightResult) Err() error {
	if len(r.Missing) == 0 {
		return nil
	}
	return &PreflightError{Missing: r.Missing}
}

func (p Preflight) Check(tools ...string) PreflightResult {
	lookPath := p.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}

	r := PreflightResult{Found: map[string]string{}}
	seen := map[string]bool{}
	for _, tool := range tools {
		if seen[tool] {
			continue
		}
		seen[tool] = true
		path, err := lookPath(tool)
		if err != nil {
			r.Missing = append(r.Missing, tool)
			continue
		}
		r.Found[tool] = path
	}
	return r
}

// guestTools are needed on the host to attach, mount and enter an image.
var guestTools = []string{"losetup", "mount", "umount", "chroot"}

// RequiredTools returns the host tools a build with this configuration runs.
func RequiredTools(c *Config) []string {
	qemuImg := firstNonEmpty(c.QemuImgPath, vhd.DefaultQemuImg)
	vboxManage := firstNonEmpty(c.VBoxManagePath, vhd.DefaultVBoxManage)

	var tools []string
	if c.platform.IsRPM() {
		tools = append(tools, qemuImg)
		tools = append(tools, guestTools...)
	}
	if !c.SkipVHDConversion {
		tools = append(tools, qemuImg, vboxManage)
	}
	return tools
}

func firstNonEmpty(s ...string) string {
	for _, v := range s {
		if v != "" {
			return v
		}
	}
	return ""
}
