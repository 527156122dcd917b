// Copyright IBM Corp. 2013, 2025
// SPDX-License-Identifier: MPL-2.0

// Package template renders the guest configuration files uploaded by the
// xenserver post-processor. Templates are plain text documents with
// `#MARKER#` tokens that are replaced verbatim; there is no template language.
package template

import (
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/dimchansky/utfbom"
)

//go:embed assets/*
var assets embed.FS

// Name identifies one of the templates known to the renderer.
type Name string

const (
	Fstab32          Name = "fstab-32"
	Fstab64          Name = "fstab-64"
	BootMenu         Name = "boot-menu"
	NetworkInterface Name = "network-interface"
	RcLocalAppend    Name = "rc-local-append"
)

// file names, relative to the assets directory or to Renderer.Dir
var files = map[Name]string{
	Fstab32:          "fstab_32bit",
	Fstab64:          "fstab_64bit",
	BootMenu:         "menu.lst",
	NetworkInterface: "ifcfg-eth0",
	RcLocalAppend:    "rc_local",
}

// Names returns every template name in a stable order.
func Names() []Name {
	names := make([]Name, 0, len(files))
	for n := range files {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// Placeholder is the name of a marker, without the surrounding `#`.
type Placeholder string

const (
	DiskDevicePrefix Placeholder = "DISK_DEVICE_PREFIX"
	FilesystemType   Placeholder = "FILESYSTEM_TYPE"
	Title            Placeholder = "TITLE"
	KernelVersion    Placeholder = "KERNEL_VERSION"
	KernelImageName  Placeholder = "KERNEL_IMAGE_NAME"
	InitrdName       Placeholder = "INITRD_NAME"
	Console          Placeholder = "CONSOLE"
)

// Placeholders is the complete set of markers the renderer knows how to fill.
var Placeholders = []Placeholder{
	DiskDevicePrefix,
	FilesystemType,
	Title,
	KernelVersion,
	KernelImageName,
	InitrdName,
	Console,
}

// Marker returns the literal token as it appears in a template.
func (p Placeholder) Marker() string {
	return "#" + string(p) + "#"
}

// Vars maps placeholders to their replacement.
type Vars map[Placeholder]string

var markerPattern = regexp.MustCompile(`#[A-Z][A-Z0-9_]*#`)

var (
	ErrTemplateNotFound      = errors.New("template not found")
	ErrUnresolvedPlaceholder = errors.New("unresolved placeholder")
)

// Error is returned for every failure to load or render a template.
type Error struct {
	Template Name
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("template %q: %s", e.Template, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Renderer loads templates and substitutes their markers.
type Renderer struct {
	// Dir replaces the embedded templates when set. Every template has to be
	// present in it under its file name.
	Dir string
	// Lenient leaves markers without a value in the output instead of failing.
	Lenient bool
}

// Load returns the raw template content.
func (r *Renderer) Load(name Name) ([]byte, error) {
	file, ok := files[name]
	if !ok {
		return nil, &Error{Template: name, Err: ErrTemplateNotFound}
	}

	var (
		f   io.ReadCloser
		err error
	)
	if r.Dir != "" {
		f, err = os.Open(filepath.Join(r.Dir, file))
	} else {
		f, err = assets.Open("assets/" + file)
	}
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &Error{Template: name, Err: fmt.Errorf("%w: %s", ErrTemplateNotFound, file)}
		}
		return nil, &Error{Template: name, Err: err}
	}
	defer f.Close()

	content, err := io.ReadAll(utfbom.SkipOnly(f))
	if err != nil {
		return nil, &Error{Template: name, Err: fmt.Errorf("reading %s: %w", file, err)}
	}
	return content, nil
}

// Render loads the named template and replaces every occurrence of each
// marker in vars. Unless the renderer is lenient, template markers without a
// value are an error. Values are inserted verbatim, markers inside them
// included.
func (r *Renderer) Render(name Name, vars Vars) ([]byte, error) {
	content, err := r.Load(name)
	if err != nil {
		return nil, err
	}

	if !r.Lenient {
		if left := Missing(string(content), vars); len(left) > 0 {
			return nil, &Error{
				Template: name,
				Err:      fmt.Errorf("%w: %s", ErrUnresolvedPlaceholder, strings.Join(left, ", ")),
			}
		}
	}
	return []byte(Substitute(string(content), vars)), nil
}

// Substitute replaces the markers of vars in s in a single pass. Replacement
// text is never scanned again, and markers without a value are kept.
func Substitute(s string, vars Vars) string {
	return markerPattern.ReplaceAllStringFunc(s, func(m string) string {
		if v, ok := vars[Placeholder(strings.Trim(m, "#"))]; ok {
			return v
		}
		return m
	})
}

// Missing lists the distinct markers of s that have no value in vars.
func Missing(s string, vars Vars) []string {
	var left []string
	for _, m := range Unresolved(s) {
		if _, ok := vars[Placeholder(strings.Trim(m, "#"))]; !ok {
			left = append(left, m)
		}
	}
	return left
}

// Unresolved lists the distinct marker tokens still present in s.
func Unresolved(s string) []string {
	var left []string
	seen := map[string]bool{}
	for _, m := range markerPattern.FindAllString(s, -1) {
		if !seen[m] {
			seen[m] = true
			left = append(left, m)
		}
	}
	return left
}
