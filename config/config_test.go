package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSaveThenLoadRoundTrip(t *testing.T) {
	p := Default()
	p.Protocol = "nand"
	p.SkipBadPage = true
	p.ChipName = "GD5F1GQ4UAYIG"

	path := filepath.Join(t.TempDir(), "ch341prog.yaml")
	require.NoError(t, Save(path, p))

	got, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, p, got)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestBadBlockPolicyTranslation(t *testing.T) {
	p := Default()
	p.SkipBadPage = true
	p.IgnoreECC = false
	policy := p.BadBlockPolicy()
	require.True(t, policy.SkipBadPage)
	require.False(t, policy.IgnoreECC)
}
