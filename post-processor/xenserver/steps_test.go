// Copyright IBM Corp. 2013, 2025
// SPDX-License-Identifier: MPL-2.0

package xenserver

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/hashicorp/packer-plugin-sdk/common"
	"github.com/hashicorp/packer-plugin-sdk/multistep"
	packersdk "github.com/hashicorp/packer-plugin-sdk/packer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hashicorp/packer-plugin-xenserver/post-processor/xenserver/common/guest"
	"github.com/hashicorp/packer-plugin-xenserver/post-processor/xenserver/common/guest/guesttest"
	"github.com/hashicorp/packer-plugin-xenserver/post-processor/xenserver/common/template"
	"github.com/hashicorp/packer-plugin-xenserver/post-processor/xenserver/common/vhd"
)

// writingRunner pretends to be qemu-img and VBoxManage by writing the last
// argument of every invocation as the output file.
type writingRunner struct {
	calls [][]string
	fail  string
}

func (r *writingRunner) Run(ctx context.Context, name string, args ...string) error {
	r.calls = append(r.calls, append([]string{name}, args...))
	if name == r.fail {
		return errors.New("exit status 1")
	}
	return os.WriteFile(args[len(args)-1], []byte(name), 0644)
}

func testState(t *testing.T) (*multistep.BasicStateBag, func() string) {
	t.Helper()
	state := new(multistep.BasicStateBag)
	ui, getErrs := testUI()
	state.Put("ui", ui)
	state.Put("config", &Config{})
	return state, getErrs
}

func TestStepPreflight(t *testing.T) {
	state, getErrs := testState(t)
	step := &StepPreflight{
		Tools:    []string{"qemu-img", "VBoxManage"},
		LookPath: lookPathOnly("qemu-img"),
	}

	assert.Equal(t, multistep.ActionHalt, step.Run(context.Background(), state))
	var perr *PreflightError
	require.True(t, errors.As(state.Get("error").(error), &perr))
	assert.Equal(t, []string{"VBoxManage"}, perr.Missing)
	assert.Contains(t, getErrs(), "VBoxManage")

	state, _ = testState(t)
	step.LookPath = lookPathOnly("qemu-img", "VBoxManage")
	assert.Equal(t, multistep.ActionContinue, step.Run(context.Background(), state))
}

func TestStepPrepareOutput(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	d := NewDeliverables(dir, "jeos", CentOS6, "in.raw")

	state, _ := testState(t)
	state.Put("deliverables", d)
	step := &StepPrepareOutput{OutputDir: dir}
	require.Equal(t, multistep.ActionContinue, step.Run(context.Background(), state))
	assert.DirExists(t, dir)

	require.NoError(t, os.WriteFile(d.VHD, []byte("old"), 0644))

	state.Remove("error")
	assert.Equal(t, multistep.ActionHalt, step.Run(context.Background(), state))
	assert.Contains(t, state.Get("error").(error).Error(), "already exists")
	assert.FileExists(t, d.VHD)

	state.Remove("error")
	step.Force = true
	assert.Equal(t, multistep.ActionContinue, step.Run(context.Background(), state))
	assert.NoFileExists(t, d.VHD)
}

func TestStepPrepareOutput_SourceInsideOutput(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name     string
		platform Platform
		source   func(d *Deliverables) string
	}{
		{"vhd", UbuntuPrecise, func(d *Deliverables) string { return d.VHD }},
		{"raw disk", CentOS5, func(d *Deliverables) string { return d.Disk }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDeliverables(dir, "jeos", tt.platform, "")
			d.Previous = filepath.Join(dir, ".", filepath.Base(tt.source(d)))
			require.NoError(t, os.WriteFile(d.Previous, []byte("source"), 0644))

			state, _ := testState(t)
			state.Put("deliverables", d)
			step := &StepPrepareOutput{OutputDir: dir, Force: true}
			assert.Equal(t, multistep.ActionHalt, step.Run(context.Background(), state))
			assert.Contains(t, state.Get("error").(error).Error(), "would be overwritten")
			assert.FileExists(t, d.Previous)
		})
	}
}

func TestStepCreateDisk(t *testing.T) {
	dir := t.TempDir()
	d := NewDeliverables(dir, "jeos", Fedora14, filepath.Join(dir, "in.raw"))
	runner := &writingRunner{}

	state, _ := testState(t)
	state.Put("deliverables", d)
	state.Put("converter", &vhd.Converter{Runner: runner})

	step := &StepCreateDisk{}
	require.Equal(t, multistep.ActionContinue, step.Run(context.Background(), state))
	assert.Equal(t, [][]string{{"qemu-img", "convert", "-O", "raw", d.Previous, d.Disk}}, runner.calls)
	assert.FileExists(t, d.Disk)
	assert.Equal(t, []string{d.Disk}, d.Produced())
}

func TestStepConvertVHD(t *testing.T) {
	dir := t.TempDir()
	previous := filepath.Join(dir, "in.raw")
	require.NoError(t, os.WriteFile(previous, nil, 0644))
	d := NewDeliverables(dir, "jeos", UbuntuPrecise, previous)

	state, _ := testState(t)
	state.Put("deliverables", d)
	state.Put("converter", &vhd.Converter{Runner: &writingRunner{}})

	step := &StepConvertVHD{}
	require.Equal(t, multistep.ActionContinue, step.Run(context.Background(), state))
	assert.FileExists(t, d.VHD)
	assert.NoFileExists(t, vhd.Intermediate(d.VHD))
	assert.Equal(t, []string{d.VHD}, d.Produced())
}

func TestStepConvertVHD_Failure(t *testing.T) {
	dir := t.TempDir()
	d := NewDeliverables(dir, "jeos", UbuntuPrecise, filepath.Join(dir, "in.raw"))

	state, getErrs := testState(t)
	state.Put("deliverables", d)
	state.Put("converter", &vhd.Converter{Runner: &writingRunner{fail: vhd.DefaultVBoxManage}})

	step := &StepConvertVHD{}
	require.Equal(t, multistep.ActionHalt, step.Run(context.Background(), state))

	var terr *vhd.ToolError
	assert.True(t, errors.As(state.Get("error").(error), &terr))
	assert.NotEmpty(t, getErrs())
	assert.Empty(t, d.Produced())
	// kept for inspection
	assert.FileExists(t, vhd.Intermediate(d.VHD))
}

func TestPartitionDevice(t *testing.T) {
	assert.Equal(t, "/dev/loop0p1", partitionDevice("/dev/loop0", "1"))
	assert.Equal(t, "/dev/sdb2", partitionDevice("/dev/sdb", "2"))
	assert.Equal(t, "/dev/loop3", partitionDevice("/dev/loop3", ""))
}

// skipUnlessShell skips tests that run host commands through /bin/sh.
func skipUnlessShell(t *testing.T) {
	t.Helper()
	switch runtime.GOOS {
	case "linux", "freebsd", "darwin":
		break
	default:
		t.Skip("Unsupported operating system")
	}
}

func TestStepMountDevice(t *testing.T) {
	skipUnlessShell(t)
	mountPath := t.TempDir()
	step := &StepMountDevice{
		MountOptions:   []string{"foo"},
		MountPartition: "1",
		MountPath:      mountPath,
	}

	var gotCommands []string
	var wrapper common.CommandWrapper = func(ran string) (string, error) {
		gotCommands = append(gotCommands, ran)
		return "", nil
	}

	state, _ := testState(t)
	state.Put("wrappedCommand", wrapper)
	state.Put("device", "/dev/loop0")

	require.Equal(t, multistep.ActionContinue, step.Run(context.Background(), state))
	assert.Equal(t, mountPath, state.Get("mount_path"))
	assert.Equal(t, "/dev/loop0p1", state.Get("deviceMount"))
	assert.Same(t, step, state.Get("mount_device_cleanup"))

	require.NoError(t, step.CleanupFunc(state))
	// unmounted only once
	require.NoError(t, step.CleanupFunc(state))

	assert.Equal(t, []string{
		"mount -o foo /dev/loop0p1 " + mountPath,
		"umount -R " + mountPath,
	}, gotCommands)
}

type fakeLoopAttacher struct {
	attached, detached []string
	err                error
}

func (f *fakeLoopAttacher) Attach(ctx context.Context, image string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.attached = append(f.attached, image)
	return "/dev/loop4", nil
}

func (f *fakeLoopAttacher) Detach(ctx context.Context, device string) error {
	f.detached = append(f.detached, device)
	return nil
}

func useLoopAttacher(t *testing.T, la LoopAttacher) {
	t.Helper()
	orig := NewLoopAttacher
	NewLoopAttacher = func(common.CommandWrapper) LoopAttacher { return la }
	t.Cleanup(func() { NewLoopAttacher = orig })
}

func TestStepAttachImage(t *testing.T) {
	la := &fakeLoopAttacher{}
	useLoopAttacher(t, la)

	d := NewDeliverables("out", "jeos", CentOS6, "in.raw")
	state, _ := testState(t)
	state.Put("deliverables", d)
	state.Put("wrappedCommand", common.CommandWrapper(func(s string) (string, error) { return s, nil }))

	step := &StepAttachImage{}
	require.Equal(t, multistep.ActionContinue, step.Run(context.Background(), state))
	assert.Equal(t, "/dev/loop4", state.Get("device"))
	assert.Equal(t, []string{d.Disk}, la.attached)

	step.Cleanup(state)
	step.Cleanup(state)
	assert.Equal(t, []string{"/dev/loop4"}, la.detached)
}

func TestStepAttachImage_Failure(t *testing.T) {
	useLoopAttacher(t, &fakeLoopAttacher{err: errors.New("no free loop devices")})

	state, _ := testState(t)
	state.Put("deliverables", NewDeliverables("out", "jeos", CentOS6, "in.raw"))
	state.Put("wrappedCommand", common.CommandWrapper(func(s string) (string, error) { return s, nil }))

	step := &StepAttachImage{}
	require.Equal(t, multistep.ActionHalt, step.Run(context.Background(), state))
	_, ok := state.GetOk("device")
	assert.False(t, ok)
	step.Cleanup(state)
}

func TestLoopAttacher(t *testing.T) {
	skipUnlessShell(t)
	var got []string
	la := NewLoopAttacher(func(command string) (string, error) {
		got = append(got, command)
		return "echo /dev/loop7", nil
	})

	device, err := la.Attach(context.Background(), "/out/jeos.raw")
	require.NoError(t, err)
	assert.Equal(t, "/dev/loop7", device)
	require.NoError(t, la.Detach(context.Background(), device))

	assert.Equal(t, []string{
		"losetup --find --show --partscan /out/jeos.raw",
		"losetup -d /dev/loop7",
	}, got)
}

func TestLoopAttacher_NoDevice(t *testing.T) {
	skipUnlessShell(t)
	la := NewLoopAttacher(func(string) (string, error) { return "true", nil })
	_, err := la.Attach(context.Background(), "/out/jeos.raw")
	assert.ErrorIs(t, err, ErrNoLoopDevice)
}

type recordingCleanup struct {
	name  string
	order *[]string
	err   error
}

func (c *recordingCleanup) CleanupFunc(multistep.StateBag) error {
	*c.order = append(*c.order, c.name)
	return c.err
}

func TestStepEarlyCleanup(t *testing.T) {
	var order []string
	state, _ := testState(t)
	state.Put("attach_cleanup", &recordingCleanup{name: "attach", order: &order})
	state.Put("mount_device_cleanup", &recordingCleanup{name: "mount", order: &order})
	state.Put("mount_extra_cleanup", &recordingCleanup{name: "extra", order: &order})

	require.Equal(t, multistep.ActionContinue, (&StepEarlyCleanup{}).Run(context.Background(), state))
	assert.Equal(t, []string{"extra", "mount", "attach"}, order)
}

func TestStepEarlyCleanup_Failure(t *testing.T) {
	var order []string
	state, _ := testState(t)
	state.Put("attach_cleanup", &recordingCleanup{name: "attach", order: &order})
	state.Put("mount_device_cleanup", &recordingCleanup{name: "mount", order: &order, err: errors.New("busy")})

	require.Equal(t, multistep.ActionHalt, (&StepEarlyCleanup{}).Run(context.Background(), state))
	assert.Equal(t, []string{"mount"}, order)
	assert.Contains(t, state.Get("error").(error).Error(), "mount_device_cleanup")
}

func TestStepCustomizeGuest(t *testing.T) {
	g := guesttest.New(map[string]string{
		"/lib/modules/2.6.32-220.el6.x86_64/modules.dep": "",
	})

	var gotMountPath string
	step := &StepCustomizeGuest{
		Renderer:       &template.Renderer{},
		Appliance:      Appliance{Name: "jeos", Arch: "x86_64"},
		Platform:       CentOS6,
		HostResolvConf: hostResolvConf(t),
		NewGuest: func(mountPath string, _ common.CommandWrapper, _ packersdk.Ui) guest.Guest {
			gotMountPath = mountPath
			return g
		},
	}

	state, _ := testState(t)
	state.Put("mount_path", "/mnt/packer-xenserver-images/loop0")
	state.Put("wrappedCommand", common.CommandWrapper(func(s string) (string, error) { return s, nil }))

	require.Equal(t, multistep.ActionContinue, step.Run(context.Background(), state))
	assert.Equal(t, "/mnt/packer-xenserver-images/loop0", gotMountPath)
	assert.Contains(t, g.Files, "/boot/grub/menu.lst")

	g.FailOn = "/etc/fstab"
	assert.Equal(t, multistep.ActionHalt, step.Run(context.Background(), state))
	assert.Error(t, state.Get("error").(error))
}
