// Copyright IBM Corp. 2013, 2025
// SPDX-License-Identifier: MPL-2.0

// log replicates Packer's logging behaviour for the xenserver plugin: every
// line is passed through the secret filter so that values registered with
// `packer.LogSecretFilter` are printed as `<sensitive>`.
//
// It relies on the standard `log` package for final printing.
package log

import (
	"fmt"
	"log"

	"github.com/hashicorp/packer-plugin-sdk/packer"

	"github.com/hashicorp/packer-plugin-xenserver/post-processor/xenserver/common/logutil"
)

func Print(v ...any) {
	raw := string(fmt.Append(nil, v...))
	log.Print(packer.LogSecretFilter.FilterString(raw))
}

func Printf(format string, v ...any) {
	raw := string(fmt.Appendf(nil, format, v...))
	log.Print(packer.LogSecretFilter.FilterString(raw))
}

func Println(v ...any) {
	raw := string(fmt.Appendln(nil, v...))
	log.Print(packer.LogSecretFilter.FilterString(raw))
}

// Debugf logs with the `[DEBUG]` prefix understood by Packer's log levels.
func Debugf(format string, v ...any) {
	Printf("[DEBUG] "+format, v...)
}

// Debug logs msg followed by the given fields.
func Debug(msg string, fields logutil.Fields) {
	Printf("[DEBUG] %s%s", msg, fields)
}
