// Copyright IBM Corp. 2013, 2025
// SPDX-License-Identifier: MPL-2.0

package guest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/hashicorp/packer-plugin-sdk/chroot"
	sdkcommon "github.com/hashicorp/packer-plugin-sdk/common"
	packersdk "github.com/hashicorp/packer-plugin-sdk/packer"

	"github.com/hashicorp/packer-plugin-xenserver/post-processor/xenserver/common"
	"github.com/hashicorp/packer-plugin-xenserver/post-processor/xenserver/common/log"
	"github.com/hashicorp/packer-plugin-xenserver/post-processor/xenserver/common/logutil"
)

var _ Guest = &Chroot{}

// Chroot is a Guest backed by an image mounted at MountPath on the host.
// Commands are run with chroot(8) through the Packer chroot communicator.
type Chroot struct {
	MountPath string
	Comm      packersdk.Communicator
	UI        packersdk.Ui

	// HostArch defaults to runtime.GOARCH.
	HostArch string
}

// NewChroot returns a Guest for the image mounted at mountPath. Every host
// command is passed through wrapper, see `command_wrapper`.
func NewChroot(mountPath string, wrapper sdkcommon.CommandWrapper, ui packersdk.Ui) *Chroot {
	return &Chroot{
		MountPath: mountPath,
		Comm: &chroot.Communicator{
			Chroot:     mountPath,
			CmdWrapper: wrapper,
		},
		UI:       ui,
		HostArch: runtime.GOARCH,
	}
}

// hostPath maps a guest path to the corresponding path on the host.
func (g *Chroot) hostPath(path string) string {
	return filepath.Join(g.MountPath, filepath.Clean("/"+path))
}

func (g *Chroot) Upload(ctx context.Context, dst string, content io.Reader) error {
	log.Debugf("Uploading %q to chroot %s", dst, g.MountPath)
	if err := g.Comm.Upload(dst, content, nil); err != nil {
		return &Error{Op: "upload", Path: dst, Err: err}
	}
	return nil
}

func (g *Chroot) ReadFile(ctx context.Context, path string) ([]byte, error) {
	var buf bytes.Buffer
	if err := g.Comm.Download(path, &buf); err != nil {
		return nil, &Error{Op: "read", Path: path, Err: err}
	}
	return buf.Bytes(), nil
}

func (g *Chroot) Exists(ctx context.Context, path string) (bool, error) {
	_, err := os.Lstat(g.hostPath(path))
	switch {
	case err == nil:
		return true, nil
	case os.IsNotExist(err):
		return false, nil
	default:
		return false, &Error{Op: "stat", Path: path, Err: err}
	}
}

func (g *Chroot) ReadDir(ctx context.Context, path string) ([]string, error) {
	entries, err := os.ReadDir(g.hostPath(path))
	if err != nil {
		return nil, &Error{Op: "readdir", Path: path, Err: err}
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}

func (g *Chroot) Sh(ctx context.Context, command string, opts ...ShOption) error {
	o := ApplyShOptions(opts...)
	hostArch := g.HostArch
	if hostArch == "" {
		hostArch = runtime.GOARCH
	}
	command = ArchCommand(command, o.Arch, hostArch)

	var stdout, stderr bytes.Buffer
	cmd := &packersdk.RemoteCmd{
		Command: command,
		Stdout:  &stdout,
		Stderr:  &stderr,
	}

	log.Debugf("(chroot %s) %s", g.MountPath, command)
	if err := cmd.RunWithUi(ctx, g.Comm, g.UI); err != nil {
		return &Error{Op: "sh", Path: command, Err: err}
	}

	if common.IsDebugEnabled() {
		log.Debug("guest command finished", logutil.Fields{
			"command": command,
			"exit":    cmd.ExitStatus(),
			"stdout":  stdout.String(),
			"stderr":  stderr.String(),
		})
	}

	if status := cmd.ExitStatus(); status != 0 {
		return &Error{
			Op:   "sh",
			Path: command,
			Err:  fmt.Errorf("exit status %d: %s", status, strings.TrimSpace(stderr.String())),
		}
	}
	return nil
}

func (g *Chroot) Copy(ctx context.Context, src, dst string) error {
	return g.Sh(ctx, fmt.Sprintf("cp -a %s %s", src, dst))
}

func (g *Chroot) Symlink(ctx context.Context, target, link string) error {
	return g.Sh(ctx, fmt.Sprintf("ln -sf %s %s", target, link))
}

func (g *Chroot) Chmod(ctx context.Context, mode os.FileMode, path string) error {
	return g.Sh(ctx, fmt.Sprintf("chmod %04o %s", mode.Perm(), path))
}
