// Copyright IBM Corp. 2013, 2025
// SPDX-License-Identifier: MPL-2.0

package xenserver

import (
	"os"
	"path/filepath"
	"testing"

	packersdk "github.com/hashicorp/packer-plugin-sdk/packer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArtifact_Impl(t *testing.T) {
	var _ packersdk.Artifact = &Artifact{}
}

func TestArtifact(t *testing.T) {
	dir := t.TempDir()
	raw := filepath.Join(dir, "jeos.raw")
	vhd := filepath.Join(dir, "jeos.vhd")
	for _, f := range []string{raw, vhd} {
		require.NoError(t, os.WriteFile(f, nil, 0644))
	}

	a := NewArtifact(dir, []string{raw, vhd}, CentOS6, map[string]interface{}{"source_image": "in.raw"})

	assert.Equal(t, BuilderId, a.BuilderId())
	assert.Equal(t, vhd, a.Id())
	assert.Equal(t, "in.raw", a.State("source_image"))
	assert.Nil(t, a.State("missing"))
	assert.Contains(t, a.String(), "centos 6")
	assert.Contains(t, a.String(), vhd)

	require.NoError(t, a.Destroy())
	assert.NoFileExists(t, raw)
	assert.NoFileExists(t, vhd)
	// already gone
	assert.NoError(t, a.Destroy())
}

func TestArtifact_IdWithoutVHD(t *testing.T) {
	assert.Equal(t, "out/jeos.raw", NewArtifact("out", []string{"out/jeos.raw"}, Fedora14, nil).Id())
	assert.Equal(t, "UNKNOWN ID", NewArtifact("out", nil, Fedora14, nil).Id())
}
