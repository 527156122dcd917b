// Copyright IBM Corp. 2013, 2025
// SPDX-License-Identifier: MPL-2.0

package version

import (
	"github.com/hashicorp/packer-plugin-sdk/version"
)

var (
	// Version is the main version number that is being run at the moment.
	Version = "0.1.0"
	// VersionPrerelease is a pre-release marker for the Version, such as
	// "dev" or "rc1". Empty for final releases.
	VersionPrerelease = "dev"
	VersionMetadata   = ""

	// XenServerPluginVersion lets Packer recognize what version this plugin is.
	XenServerPluginVersion = version.NewPluginVersion(Version, VersionPrerelease, VersionMetadata)
)
