// Copyright IBM Corp. 2013, 2025
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"
	"os"

	"github.com/hashicorp/packer-plugin-sdk/plugin"

	"github.com/hashicorp/packer-plugin-xenserver/post-processor/xenserver"
	"github.com/hashicorp/packer-plugin-xenserver/version"
)

func main() {
	pps := plugin.NewSet()
	pps.RegisterPostProcessor("vhd", new(xenserver.PostProcessor))
	pps.SetVersion(version.XenServerPluginVersion)
	err := pps.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}
