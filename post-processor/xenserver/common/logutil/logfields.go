// Copyright IBM Corp. 2013, 2025
// SPDX-License-Identifier: MPL-2.0

package logutil

import (
	"fmt"
	"sort"
	"strings"
)

// Fields is a set of key/value pairs appended to a log line. Keys are
// rendered in sorted order so that log output is stable between runs.
type Fields map[string]interface{}

func (f Fields) String() string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var s strings.Builder
	for _, k := range keys {
		v := f[k]
		switch tv := v.(type) {
		case string:
			v = fmt.Sprintf("%q", tv)
		case []string:
			v = fmt.Sprintf("%q", tv)
		}
		fmt.Fprintf(&s, " %s=%v", k, v)
	}
	return s.String()
}
