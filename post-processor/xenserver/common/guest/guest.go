// Copyright IBM Corp. 2013, 2025
// SPDX-License-Identifier: MPL-2.0

// Package guest gives the xenserver post-processor access to the file system
// of a mounted appliance image.
package guest

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// Guest is a session on a mounted guest image. All paths are absolute paths
// inside the guest. A Guest is not safe for concurrent use.
type Guest interface {
	// Upload writes content to dst, replacing any existing file.
	Upload(ctx context.Context, dst string, content io.Reader) error
	ReadFile(ctx context.Context, path string) ([]byte, error)
	Exists(ctx context.Context, path string) (bool, error)
	// ReadDir returns the entry names of a directory, sorted by name.
	ReadDir(ctx context.Context, path string) ([]string, error)
	// Sh runs command with /bin/sh inside the guest and fails on a non-zero
	// exit status.
	Sh(ctx context.Context, command string, opts ...ShOption) error
	Copy(ctx context.Context, src, dst string) error
	Symlink(ctx context.Context, target, link string) error
	Chmod(ctx context.Context, mode os.FileMode, path string) error
}

// ShOptions are the optional settings of Guest.Sh.
type ShOptions struct {
	// Arch is the architecture of the guest userland, e.g. `i686`.
	Arch string
}

type ShOption func(*ShOptions)

// WithArch runs the command with the personality of the given guest
// architecture.
func WithArch(arch string) ShOption {
	return func(o *ShOptions) {
		o.Arch = arch
	}
}

// ApplyShOptions folds opts into a ShOptions value.
func ApplyShOptions(opts ...ShOption) ShOptions {
	var o ShOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// ArchCommand wraps command with setarch when a 32-bit guest is customized
// from a 64-bit host, so that package managers pick the guest's architecture.
func ArchCommand(command, guestArch, hostArch string) string {
	switch guestArch {
	case "i386", "i586", "i686":
	default:
		return command
	}
	if hostArch != "amd64" {
		return command
	}
	return fmt.Sprintf("setarch %s /bin/sh -c '%s'", guestArch, strings.ReplaceAll(command, "'", `'\''`))
}

// UploadFile uploads the local file src to dst inside the guest.
func UploadFile(ctx context.Context, g Guest, src, dst string) error {
	f, err := os.Open(src)
	if err != nil {
		return &Error{Op: "upload", Path: dst, Err: err}
	}
	defer f.Close()
	return g.Upload(ctx, dst, f)
}

// Error is returned by a Guest when an operation on the image fails.
type Error struct {
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("guest %s %s: %s", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
