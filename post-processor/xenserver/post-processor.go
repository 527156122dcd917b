// Copyright IBM Corp. 2013, 2025
// SPDX-License-Identifier: MPL-2.0

//go:generate packer-sdc struct-markdown
//go:generate packer-sdc mapstructure-to-hcl2 -type Config

// Package xenserver converts the disk image of a Linux appliance into a VHD
// that boots on XenServer. RPM based images are first attached, mounted and
// customized in a chroot: paravirtualized kernel, fstab, networking and boot
// loader menu. Other images are converted as they are.
package xenserver

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/hashicorp/hcl/v2/hcldec"
	"github.com/hashicorp/packer-plugin-sdk/chroot"
	"github.com/hashicorp/packer-plugin-sdk/common"
	"github.com/hashicorp/packer-plugin-sdk/multistep"
	"github.com/hashicorp/packer-plugin-sdk/multistep/commonsteps"
	packersdk "github.com/hashicorp/packer-plugin-sdk/packer"
	"github.com/hashicorp/packer-plugin-sdk/template/config"
	"github.com/hashicorp/packer-plugin-sdk/template/interpolate"
	"github.com/mitchellh/go-homedir"
	"github.com/mitchellh/mapstructure"

	xscommon "github.com/hashicorp/packer-plugin-xenserver/post-processor/xenserver/common"
	"github.com/hashicorp/packer-plugin-xenserver/post-processor/xenserver/common/guest"
	"github.com/hashicorp/packer-plugin-xenserver/post-processor/xenserver/common/template"
	"github.com/hashicorp/packer-plugin-xenserver/post-processor/xenserver/common/vhd"
)

// PluginType is the name the post-processor is configured with.
const PluginType = "xenserver-vhd"

// Config is the configuration that is chained through the steps and settable
// from the template.
type Config struct {
	common.PackerConfig `mapstructure:",squash"`

	xscommon.Config `mapstructure:",squash"`

	// Path to an appliance definition (YAML) describing the image. Values set
	// directly on the post-processor take precedence over the file.
	ApplianceFile string `mapstructure:"appliance_file"`
	// Name of the appliance, used for the output file names and the boot
	// menu title. Defaults to the Packer build name.
	ApplianceName string `mapstructure:"appliance_name"`
	// Operating system of the image: `fedora`, `rhel`, `centos`, `sl` or `ubuntu`.
	OSName string `mapstructure:"os_name"`
	// Operating system release, e.g. `14`, `5` or `precise`.
	OSVersion string `mapstructure:"os_version"`
	// Architecture of the guest: `i386`, `i686` or `x86_64`. Defaults to the
	// architecture of the host.
	Arch string `mapstructure:"arch"`
	// File system of the `/` partition written to the guest fstab.
	// Defaults to `ext3`.
	RootFilesystemType string `mapstructure:"root_filesystem_type"`
	// Commands run inside the guest, in order, once it has been customized.
	// Replaces the `post.xenserver` section of the appliance file.
	PostCommands []string `mapstructure:"post_commands"`

	// Disk image to convert. Defaults to the first raw image of the input
	// artifact.
	SourceImage string `mapstructure:"source_image"`
	// Directory the raw and VHD images are written to. Defaults to
	// `output-xenserver`.
	OutputDir string `mapstructure:"output_directory"`
	// Directory holding replacements for all of the built-in templates.
	TemplateDir string `mapstructure:"template_directory"`
	// Leave template markers without a value in place instead of failing.
	AllowUnresolvedPlaceholders bool `mapstructure:"allow_unresolved_placeholders"`
	// Resolver configuration copied into the guest. Defaults to
	// `/etc/resolv.conf`.
	HostResolvConf string `mapstructure:"host_resolv_conf"`

	// Path to qemu-img. Defaults to `qemu-img`.
	QemuImgPath string `mapstructure:"qemu_img_path"`
	// Path to VBoxManage. Defaults to `VBoxManage`.
	VBoxManagePath string `mapstructure:"vboxmanage_path"`

	// How to run host commands. This is a configuration template where the
	// `.Command` variable is replaced with the command to be run. Defaults to
	// `{{.Command}}`.
	CommandWrapper string `mapstructure:"command_wrapper"`
	// The path where the image will be mounted. This is a configuration
	// template where the `.Device` variable is replaced with the name of the
	// loop device. Defaults to `/mnt/packer-xenserver-images/{{.Device}}`.
	MountPath string `mapstructure:"mount_path"`
	// The partition number containing the / partition. Defaults to `1`.
	MountPartition string `mapstructure:"mount_partition"`
	// Options to supply the `mount` command when mounting the image.
	MountOptions []string `mapstructure:"mount_options"`
	// Devices to mount into the chroot environment, as
	// `[type, device, path]` triples.
	ChrootMounts [][]string `mapstructure:"chroot_mounts"`

	appliance Appliance
	platform  Platform
	ctx       interpolate.Context
}

// GetContext implements ContextProvider to allow steps to use the config context
// for template interpolation
func (c *Config) GetContext() interpolate.Context {
	return c.ctx
}

type PostProcessor struct {
	config Config
	runner multistep.Runner

	// overridable in tests
	lookPath   func(string) (string, error)
	toolRunner vhd.Runner
	newGuest   func(mountPath string, wrapper common.CommandWrapper, ui packersdk.Ui) guest.Guest
}

// verify interface implementation
var _ packersdk.PostProcessor = &PostProcessor{}

func (p *PostProcessor) ConfigSpec() hcldec.ObjectSpec { return p.config.FlatMapstructure().HCL2Spec() }

func (p *PostProcessor) Configure(raws ...interface{}) error {
	md := &mapstructure.Metadata{}
	err := config.Decode(&p.config, &config.DecodeOpts{
		PluginType:         PluginType,
		Interpolate:        true,
		InterpolateContext: &p.config.ctx,
		InterpolateFilter: &interpolate.RenderFilter{
			Exclude: []string{
				// these fields are interpolated in the steps,
				// when more information is available
				"command_wrapper",
				"mount_path",
			},
		},
		Metadata: md,
	}, raws...)
	if err != nil {
		return err
	}

	var errs *packersdk.MultiError

	var appliance Appliance
	if p.config.ApplianceFile != "" {
		appliance, err = LoadApplianceFile(p.config.ApplianceFile)
		if err != nil {
			errs = packersdk.MultiErrorAppend(errs, fmt.Errorf("appliance_file: %w", err))
		}
	}
	p.config.appliance = p.config.mergeAppliance(appliance, slices.Contains(md.Keys, "post_commands"))

	// Defaults
	if p.config.appliance.Name == "" {
		p.config.appliance.Name = p.config.PackerBuildName
	}
	if p.config.appliance.Arch == "" {
		p.config.appliance.Arch = HostArch()
	}
	if p.config.OutputDir == "" {
		p.config.OutputDir = "output-xenserver"
	}
	if p.config.HostResolvConf == "" {
		p.config.HostResolvConf = "/etc/resolv.conf"
	}
	if p.config.CommandWrapper == "" {
		p.config.CommandWrapper = "{{.Command}}"
	}
	if p.config.MountPath == "" {
		p.config.MountPath = "/mnt/packer-xenserver-images/{{.Device}}"
	}
	if p.config.MountPartition == "" {
		p.config.MountPartition = "1"
	}
	if len(p.config.ChrootMounts) == 0 {
		p.config.ChrootMounts = [][]string{
			{"proc", "proc", "/proc"},
			{"sysfs", "sysfs", "/sys"},
			{"bind", "/dev", "/dev"},
			{"devpts", "devpts", "/dev/pts"},
		}
	}

	for _, path := range []*string{&p.config.OutputDir, &p.config.TemplateDir, &p.config.SourceImage, &p.config.HostResolvConf} {
		if *path == "" {
			continue
		}
		expanded, err := homedir.Expand(*path)
		if err != nil {
			errs = packersdk.MultiErrorAppend(errs, err)
			continue
		}
		*path = expanded
	}

	// checks, accumulate any errors

	if p.config.appliance.Name == "" {
		errs = packersdk.MultiErrorAppend(errs, errors.New("appliance_name is required"))
	} else if strings.ContainsRune(p.config.appliance.Name, filepath.Separator) {
		errs = packersdk.MultiErrorAppend(errs, fmt.Errorf("appliance_name: %q must not contain %q", p.config.appliance.Name, filepath.Separator))
	}

	if p.config.appliance.OS.Name == "" || p.config.appliance.OS.Version == "" {
		errs = packersdk.MultiErrorAppend(errs, errors.New("os_name and os_version are required"))
	} else if p.config.platform, err = ParsePlatform(p.config.appliance.OS.Name, p.config.appliance.OS.Version); err != nil {
		errs = packersdk.MultiErrorAppend(errs, err)
	}

	if !validArchs[p.config.appliance.Arch] {
		errs = packersdk.MultiErrorAppend(errs, fmt.Errorf("arch: %q is not one of i386, i686, x86_64", p.config.appliance.Arch))
	}

	if p.config.SkipVHDConversion && !p.config.platform.IsRPM() && p.config.platform != PlatformUnsupported {
		errs = packersdk.MultiErrorAppend(errs, fmt.Errorf("skip_vhd_conversion: %s images are only converted, nothing would be produced", p.config.platform))
	}

	for i, m := range p.config.ChrootMounts {
		if len(m) != 3 {
			errs = packersdk.MultiErrorAppend(errs, fmt.Errorf("chroot_mounts[%d]: expected [type, device, path], got %q", i, m))
		}
	}

	if errs != nil {
		return errs
	}

	return nil
}

// mergeAppliance overlays the values set on the post-processor onto the
// appliance definition read from a file.
func (c *Config) mergeAppliance(a Appliance, postCommandsSet bool) Appliance {
	if c.ApplianceName != "" {
		a.Name = c.ApplianceName
	}
	if c.OSName != "" {
		a.OS.Name = c.OSName
	}
	if c.OSVersion != "" {
		a.OS.Version = c.OSVersion
	}
	if c.Arch != "" {
		a.Arch = c.Arch
	}
	if c.RootFilesystemType != "" {
		partitions := map[string]Partition{}
		for k, v := range a.Partitions {
			partitions[k] = v
		}
		root := partitions["/"]
		root.Type = c.RootFilesystemType
		partitions["/"] = root
		a.Partitions = partitions
	}
	if postCommandsSet {
		post := map[string][]string{}
		for k, v := range a.Post {
			post[k] = v
		}
		post[PostCommandsKey] = c.PostCommands
		a.Post = post
	}
	return a
}

// sourceImage picks the disk image of the input artifact.
func sourceImage(configured string, artifact packersdk.Artifact) (string, error) {
	if configured != "" {
		return configured, nil
	}

	files := artifact.Files()
	for _, f := range files {
		switch strings.ToLower(filepath.Ext(f)) {
		case ".raw", ".img":
			return f, nil
		}
	}
	if len(files) > 0 {
		return files[0], nil
	}
	return "", fmt.Errorf("artifact %q (%s) has no files to convert, set source_image", artifact.Id(), artifact.BuilderId())
}

func (p *PostProcessor) PostProcess(ctx context.Context, ui packersdk.Ui, source packersdk.Artifact) (packersdk.Artifact, bool, bool, error) {
	platform := p.config.platform
	if platform.IsRPM() {
		switch runtime.GOOS {
		case "linux":
			break
		default:
			return nil, false, false, fmt.Errorf("customizing %s images only works on Linux", platform)
		}
	}

	previous, err := sourceImage(p.config.SourceImage, source)
	if err != nil {
		return nil, false, false, err
	}

	deliverables := NewDeliverables(p.config.OutputDir, p.config.appliance.Name, platform, previous)

	wrappedCommand := func(command string) (string, error) {
		ictx := p.config.ctx
		ictx.Data = &struct{ Command string }{Command: command}
		return interpolate.Render(p.config.CommandWrapper, &ictx)
	}

	toolRunner := p.toolRunner
	if toolRunner == nil {
		toolRunner = &vhd.UIRunner{UI: ui}
	}
	converter := &vhd.Converter{
		QemuImg:    p.config.QemuImgPath,
		VBoxManage: p.config.VBoxManagePath,
		Runner:     toolRunner,
		Say:        ui.Say,
	}

	// Setup the state bag and initial state for the steps
	state := new(multistep.BasicStateBag)
	state.Put("config", &p.config)
	state.Put("ui", ui)
	state.Put("wrappedCommand", common.CommandWrapper(wrappedCommand))
	state.Put("deliverables", deliverables)
	state.Put("converter", converter)

	ui.Say(fmt.Sprintf("Converting %s appliance image to XenServer format...", p.config.appliance.Name))

	steps := p.buildsteps(ui.Say)

	// Run!
	p.runner = commonsteps.NewRunner(steps, p.config.PackerConfig, ui)
	p.runner.Run(ctx, state)

	// If there was an error, return that
	if rawErr, ok := state.GetOk("error"); ok {
		return nil, false, false, rawErr.(error)
	}
	if _, ok := state.GetOk(multistep.StateCancelled); ok {
		return nil, false, false, errors.New("post-processing cancelled")
	}
	if _, ok := state.GetOk(multistep.StateHalted); ok {
		return nil, false, false, errors.New("post-processing halted")
	}

	ui.Say("Image converted to XenServer format.")

	stateData := map[string]interface{}{
		"source_image": previous,
	}
	if skipped, ok := state.GetOk(xscommon.StateSkipped); ok {
		stateData[xscommon.StateSkipped] = skipped
	}

	artifact := NewArtifact(p.config.OutputDir, deliverables.Produced(), platform, stateData)
	return artifact, false, false, nil
}

func (p *PostProcessor) buildsteps(say func(string)) []multistep.Step {
	var steps []multistep.Step
	addSteps := func(s ...multistep.Step) { // convenience function
		steps = append(steps, s...)
	}

	addSteps(&StepPreflight{
		Tools:    RequiredTools(&p.config),
		LookPath: p.lookPath,
	})
	addSteps(&StepPrepareOutput{
		OutputDir: p.config.OutputDir,
		Force:     p.config.PackerForce,
	})

	if p.config.platform.IsRPM() {
		newGuest := p.newGuest
		if newGuest == nil {
			newGuest = func(mountPath string, wrapper common.CommandWrapper, ui packersdk.Ui) guest.Guest {
				return guest.NewChroot(mountPath, wrapper, ui)
			}
		}

		addSteps(
			&StepCreateDisk{},
			&StepAttachImage{}, // sets 'device' in stateBag
			&StepMountDevice{
				MountOptions:   p.config.MountOptions,
				MountPartition: p.config.MountPartition,
				MountPath:      p.config.MountPath,
			},
			&chroot.StepMountExtra{
				ChrootMounts: p.config.ChrootMounts,
			},
			&StepCustomizeGuest{
				Renderer: &template.Renderer{
					Dir:     p.config.TemplateDir,
					Lenient: p.config.AllowUnresolvedPlaceholders,
				},
				Appliance:      p.config.appliance,
				Platform:       p.config.platform,
				HostResolvConf: p.config.HostResolvConf,
				NewGuest:       newGuest,
			},
			// the image has to be released before it is converted
			&StepEarlyCleanup{},
		)
	}

	addSteps(p.config.ConvertSteps(say, &StepConvertVHD{})...)

	return steps
}
