// Copyright IBM Corp. 2013, 2025
// SPDX-License-Identifier: MPL-2.0

// Package guesttest provides an in-memory guest.Guest for tests.
package guesttest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/hashicorp/packer-plugin-xenserver/post-processor/xenserver/common/guest"
)

var _ guest.Guest = &Fake{}

// Call records one operation performed on a Fake, in the form
// `op arg...`, e.g. `sh yum -y remove kernel`.
type Call string

// Fake keeps files in memory and records every mutation. Commands only
// succeed or fail; they do not change Files unless OnSh does so.
type Fake struct {
	Files map[string][]byte
	Modes map[string]os.FileMode
	Links map[string]string
	Calls []Call

	// FailOn makes any command or upload containing the string fail.
	FailOn string
	// OnSh is called for every command before it is recorded.
	OnSh func(f *Fake, command string, o guest.ShOptions) error
}

func New(files map[string]string) *Fake {
	f := &Fake{
		Files: map[string][]byte{},
		Modes: map[string]os.FileMode{},
		Links: map[string]string{},
	}
	for p, c := range files {
		f.Files[p] = []byte(c)
	}
	return f
}

func (f *Fake) record(format string, args ...any) {
	f.Calls = append(f.Calls, Call(fmt.Sprintf(format, args...)))
}

func (f *Fake) fail(op, p, subject string) error {
	if f.FailOn != "" && strings.Contains(subject, f.FailOn) {
		return &guest.Error{Op: op, Path: p, Err: errors.New("injected failure")}
	}
	return nil
}

func (f *Fake) Upload(ctx context.Context, dst string, content io.Reader) error {
	if err := f.fail("upload", dst, dst); err != nil {
		return err
	}
	b, err := io.ReadAll(content)
	if err != nil {
		return err
	}
	f.record("upload %s", dst)
	f.Files[dst] = b
	return nil
}

func (f *Fake) ReadFile(ctx context.Context, p string) ([]byte, error) {
	b, ok := f.Files[p]
	if !ok {
		return nil, &guest.Error{Op: "read", Path: p, Err: fs.ErrNotExist}
	}
	return append([]byte(nil), b...), nil
}

func (f *Fake) Exists(ctx context.Context, p string) (bool, error) {
	if _, ok := f.Files[p]; ok {
		return true, nil
	}
	if _, ok := f.Links[p]; ok {
		return true, nil
	}
	prefix := strings.TrimSuffix(p, "/") + "/"
	for name := range f.Files {
		if strings.HasPrefix(name, prefix) {
			return true, nil
		}
	}
	return false, nil
}

func (f *Fake) ReadDir(ctx context.Context, p string) ([]string, error) {
	prefix := strings.TrimSuffix(p, "/") + "/"
	seen := map[string]bool{}
	var names []string
	for name := range f.Files {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		entry := strings.SplitN(strings.TrimPrefix(name, prefix), "/", 2)[0]
		if entry != "" && !seen[entry] {
			seen[entry] = true
			names = append(names, entry)
		}
	}
	if len(names) == 0 {
		return nil, &guest.Error{Op: "readdir", Path: p, Err: fs.ErrNotExist}
	}
	sort.Strings(names)
	return names, nil
}

func (f *Fake) Sh(ctx context.Context, command string, opts ...guest.ShOption) error {
	if err := f.fail("sh", command, command); err != nil {
		return err
	}
	o := guest.ApplyShOptions(opts...)
	if f.OnSh != nil {
		if err := f.OnSh(f, command, o); err != nil {
			return err
		}
	}
	if o.Arch != "" {
		f.record("sh[%s] %s", o.Arch, command)
	} else {
		f.record("sh %s", command)
	}
	return nil
}

func (f *Fake) Copy(ctx context.Context, src, dst string) error {
	if err := f.fail("copy", src, src); err != nil {
		return err
	}
	b, ok := f.Files[src]
	if !ok {
		return &guest.Error{Op: "copy", Path: src, Err: fs.ErrNotExist}
	}
	if strings.HasSuffix(dst, "/") {
		dst = dst + path.Base(src)
	}
	f.record("copy %s %s", src, dst)
	f.Files[dst] = append([]byte(nil), b...)
	return nil
}

func (f *Fake) Symlink(ctx context.Context, target, link string) error {
	f.record("symlink %s %s", target, link)
	f.Links[link] = target
	return nil
}

func (f *Fake) Chmod(ctx context.Context, mode os.FileMode, p string) error {
	f.record("chmod %04o %s", mode.Perm(), p)
	f.Modes[p] = mode
	return nil
}

// Commands returns the recorded shell commands, without the arch hint.
func (f *Fake) Commands() []string {
	var cmds []string
	for _, c := range f.Calls {
		s := string(c)
		switch {
		case strings.HasPrefix(s, "sh "):
			cmds = append(cmds, strings.TrimPrefix(s, "sh "))
		case strings.HasPrefix(s, "sh["):
			cmds = append(cmds, s[strings.Index(s, "] ")+2:])
		}
	}
	return cmds
}
