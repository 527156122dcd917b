// Copyright IBM Corp. 2013, 2025
// SPDX-License-Identifier: MPL-2.0

package common

import "os"

const XenServerDebugLogsEnvVar string = "PACKER_XENSERVER_DEBUG_LOG"

// IsDebugEnabled reports whether the output of commands run inside the guest
// should be copied to the plugin log.
func IsDebugEnabled() bool {
	debug, defined := os.LookupEnv(XenServerDebugLogsEnvVar)
	if !defined {
		return false
	}

	return debug != ""
}
