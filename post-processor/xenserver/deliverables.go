// Copyright IBM Corp. 2013, 2025
// SPDX-License-Identifier: MPL-2.0

package xenserver

import (
	"path/filepath"

	"github.com/hashicorp/packer-plugin-xenserver/post-processor/xenserver/common/vhd"
)

// Deliverables are the files a build reads and writes.
type Deliverables struct {
	// Previous is the disk image produced by the preceding build stage.
	Previous string
	// Disk is the customized raw image. Only set for RPM based platforms.
	Disk string
	VHD  string

	produced []string
}

func NewDeliverables(outputDir, name string, platform Platform, previous string) *Deliverables {
	d := &Deliverables{
		Previous: previous,
		VHD:      filepath.Join(outputDir, name+".vhd"),
	}
	if platform.IsRPM() {
		d.Disk = filepath.Join(outputDir, name+".raw")
	}
	return d
}

// Paths returns every output path, whether produced or not.
func (d *Deliverables) Paths() []string {
	var paths []string
	if d.Disk != "" {
		paths = append(paths, d.Disk)
	}
	return append(paths, d.VHD)
}

func (d *Deliverables) MarkProduced(path string) {
	d.produced = append(d.produced, path)
}

func (d *Deliverables) Produced() []string {
	return append([]string(nil), d.produced...)
}

// ConversionSource returns the image the VHD is converted from and where the
// intermediate image goes. A customized raw disk is converted when there is
// one; otherwise the previous stage's image is used directly and the
// intermediate is written next to the VHD.
func (d *Deliverables) ConversionSource() (source, intermediate string) {
	if d.Disk != "" {
		return d.Disk, vhd.Intermediate(d.Disk)
	}
	return d.Previous, vhd.Intermediate(d.VHD)
}
