// Copyright IBM Corp. 2013, 2025
// SPDX-License-Identifier: MPL-2.0

package xenserver

import (
	"fmt"
	"strings"
)

// Family is an operating system family.
type Family int

const (
	FamilyUnknown Family = iota
	FamilyFedora
	FamilyRHEL
	FamilyCentOS
	FamilyScientificLinux
	FamilyUbuntu
)

func (f Family) String() string {
	switch f {
	case FamilyFedora:
		return "fedora"
	case FamilyRHEL:
		return "rhel"
	case FamilyCentOS:
		return "centos"
	case FamilyScientificLinux:
		return "sl"
	case FamilyUbuntu:
		return "ubuntu"
	case FamilyUnknown:
		return "unknown"
	}
	panic(fmt.Sprintf("unhandled family %d", int(f)))
}

// Platform is one supported operating system release.
type Platform int

const (
	PlatformUnsupported Platform = iota
	Fedora13
	Fedora14
	Fedora15
	Fedora16
	CentOS5
	CentOS6
	ScientificLinux5
	ScientificLinux6
	RHEL5
	RHEL6
	UbuntuLucid
	UbuntuMaverick
	UbuntuOneiric
	UbuntuPrecise
)

var platformVersions = map[Platform]string{
	Fedora13:         "13",
	Fedora14:         "14",
	Fedora15:         "15",
	Fedora16:         "16",
	CentOS5:          "5",
	CentOS6:          "6",
	ScientificLinux5: "5",
	ScientificLinux6: "6",
	RHEL5:            "5",
	RHEL6:            "6",
	UbuntuLucid:      "lucid",
	UbuntuMaverick:   "maverick",
	UbuntuOneiric:    "oneiric",
	UbuntuPrecise:    "precise",
}

// Platforms lists every supported platform.
func Platforms() []Platform {
	return []Platform{
		Fedora13, Fedora14, Fedora15, Fedora16,
		CentOS5, CentOS6,
		ScientificLinux5, ScientificLinux6,
		RHEL5, RHEL6,
		UbuntuLucid, UbuntuMaverick, UbuntuOneiric, UbuntuPrecise,
	}
}

var familyNames = map[string]Family{
	"fedora": FamilyFedora,
	"rhel":   FamilyRHEL,
	"centos": FamilyCentOS,
	"sl":     FamilyScientificLinux,
	"ubuntu": FamilyUbuntu,
}

// ParsePlatform maps an OS name and version from an appliance definition to a
// Platform. Point releases of RPM based systems (`5.8`) resolve to their major
// version.
func ParsePlatform(name, version string) (Platform, error) {
	family, ok := familyNames[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return PlatformUnsupported, fmt.Errorf("operating system %q is not supported, supported platforms: %s",
			name, supportedPlatforms())
	}

	v := strings.ToLower(strings.TrimSpace(version))
	if family == FamilyUbuntu {
		// registered with this spelling by older appliance definitions
		if v == "maveric" {
			v = "maverick"
		}
	} else if major, _, found := strings.Cut(v, "."); found {
		v = major
	}

	for _, p := range Platforms() {
		if p.Family() == family && platformVersions[p] == v {
			return p, nil
		}
	}
	return PlatformUnsupported, fmt.Errorf("%s version %q is not supported, supported platforms: %s",
		family, version, supportedPlatforms())
}

func supportedPlatforms() string {
	var s []string
	for _, p := range Platforms() {
		s = append(s, p.String())
	}
	return strings.Join(s, ", ")
}

func (p Platform) String() string {
	if p == PlatformUnsupported {
		return "unsupported"
	}
	return p.Family().String() + " " + platformVersions[p]
}

// Version returns the release as written in appliance definitions.
func (p Platform) Version() string {
	return platformVersions[p]
}

func (p Platform) Family() Family {
	switch p {
	case Fedora13, Fedora14, Fedora15, Fedora16:
		return FamilyFedora
	case CentOS5, CentOS6:
		return FamilyCentOS
	case ScientificLinux5, ScientificLinux6:
		return FamilyScientificLinux
	case RHEL5, RHEL6:
		return FamilyRHEL
	case UbuntuLucid, UbuntuMaverick, UbuntuOneiric, UbuntuPrecise:
		return FamilyUbuntu
	case PlatformUnsupported:
		return FamilyUnknown
	}
	panic(fmt.Sprintf("unhandled platform %d", int(p)))
}

// IsRPM reports whether the image is customized before conversion. Other
// platforms, Scientific Linux included, are converted as they are.
func (p Platform) IsRPM() bool {
	switch p.Family() {
	case FamilyFedora, FamilyRHEL, FamilyCentOS:
		return true
	case FamilyScientificLinux, FamilyUbuntu, FamilyUnknown:
		return false
	}
	panic(fmt.Sprintf("unhandled platform %d", int(p)))
}

// NeedsXenKernel reports whether the stock kernel lacks the paravirtualized
// block and network drivers and has to be replaced by kernel-xen.
func (p Platform) NeedsXenKernel() bool {
	switch p {
	case RHEL5, CentOS5:
		return true
	case Fedora13, Fedora14, Fedora15, Fedora16,
		CentOS6, ScientificLinux5, ScientificLinux6, RHEL6,
		UbuntuLucid, UbuntuMaverick, UbuntuOneiric, UbuntuPrecise,
		PlatformUnsupported:
		return false
	}
	panic(fmt.Sprintf("unhandled platform %d", int(p)))
}

// DiskDevicePrefix is the prefix of the root disk device name inside the
// guest: kernel-xen names it `sda`, pvops kernels `xvda`.
func (p Platform) DiskDevicePrefix() string {
	switch p {
	case RHEL5, CentOS5:
		return "s"
	case Fedora13, Fedora14, Fedora15, Fedora16,
		CentOS6, ScientificLinux5, ScientificLinux6, RHEL6,
		UbuntuLucid, UbuntuMaverick, UbuntuOneiric, UbuntuPrecise,
		PlatformUnsupported:
		return "xv"
	}
	panic(fmt.Sprintf("unhandled platform %d", int(p)))
}

// UsesSystemdRcLocal reports whether rc.local only runs through the systemd
// compatibility unit.
func (p Platform) UsesSystemdRcLocal() bool {
	switch p {
	case Fedora16:
		return true
	case Fedora13, Fedora14, Fedora15,
		CentOS5, CentOS6, ScientificLinux5, ScientificLinux6, RHEL5, RHEL6,
		UbuntuLucid, UbuntuMaverick, UbuntuOneiric, UbuntuPrecise,
		PlatformUnsupported:
		return false
	}
	panic(fmt.Sprintf("unhandled platform %d", int(p)))
}

// NeedsNosegneg reports whether glibc has to be told to avoid segment
// negative offsets, see https://bugzilla.redhat.com/show_bug.cgi?id=651861.
func (p Platform) NeedsNosegneg() bool {
	return p.Family() == FamilyFedora
}

// Console is the name of the paravirtualized console device: kernel-xen
// calls it `xvc0`, pvops kernels `hvc0`.
func (p Platform) Console() string {
	if p.NeedsXenKernel() {
		return "xvc0"
	}
	return "hvc0"
}
