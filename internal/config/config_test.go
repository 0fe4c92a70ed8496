package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/h5shard/fileset"
)

func load(t *testing.T, args ...string) (Config, error) {
	t.Helper()
	c := Default()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	c.Flags(fs)
	require.NoError(t, fs.Parse(args))
	err := Load(viper.New(), fs)
	return c, err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaults(t *testing.T) {
	c, err := load(t)
	require.NoError(t, err)
	assert.Empty(t, c.Files)
	c.Files = nil
	assert.Equal(t, Default(), c)
}

func TestFlags(t *testing.T) {
	c, err := load(t, "--path", "out_%02d.h5", "-n", "4", "--parallel=false", "-w", "3", "--log-level", "debug")
	require.NoError(t, err)
	assert.Equal(t, "out_%02d.h5", c.Path)
	assert.Equal(t, 4, c.Count)
	assert.False(t, c.Parallel)
	assert.Equal(t, 3, c.Workers)
	assert.Equal(t, "debug", c.LogLevel)
}

func TestEnvironment(t *testing.T) {
	t.Setenv("H5SHARD_LOG_LEVEL", "trace")
	t.Setenv("H5SHARD_WORKERS", "7")
	t.Setenv("H5SHARD_FILES", "a.h5,b.h5")

	c, err := load(t, "--workers", "2")
	require.NoError(t, err)
	assert.Equal(t, "trace", c.LogLevel)
	assert.Equal(t, 2, c.Workers, "flags take precedence over the environment")
	assert.Equal(t, []string{"a.h5", "b.h5"}, c.Files)
}

func TestConfigFile(t *testing.T) {
	path := writeFile(t, "h5shard.toml", `
path = "run/part_%d.h5"
count = 3
progress = false
files = ["x.h5", "y.h5"]
log-format = "json"
`)
	t.Setenv("H5SHARD_COUNT", "5")

	c, err := load(t, "--config", path)
	require.NoError(t, err)
	assert.Equal(t, "run/part_%d.h5", c.Path)
	assert.Equal(t, 5, c.Count, "the environment takes precedence over the file")
	assert.False(t, c.Progress)
	assert.Equal(t, []string{"x.h5", "y.h5"}, c.Files)
	assert.Equal(t, "json", c.LogFormat)
}

func TestConfigFileYAML(t *testing.T) {
	path := writeFile(t, "h5shard.yaml", "path: single.h5\nworkers: 2\n")
	c, err := load(t, "-c", path)
	require.NoError(t, err)
	assert.Equal(t, "single.h5", c.Path)
	assert.Equal(t, 2, c.Workers)
}

func TestConfigFileUnknownKey(t *testing.T) {
	path := writeFile(t, "h5shard.toml", "colour = \"blue\"\n")
	_, err := load(t, "--config", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "colour")
}

func TestConfigFileMissing(t *testing.T) {
	_, err := load(t, "--config", filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestSpec(t *testing.T) {
	c := Default()
	c.Path = "out_%d.h5"
	c.Count = 2
	set, err := fileset.Resolve(c.Spec())
	require.NoError(t, err)
	assert.Equal(t, []string{"out_0.h5", "out_1.h5"}, set.Files())

	c.Files = []string{"b.h5", "a.h5"}
	set, err = fileset.Resolve(c.Spec())
	require.NoError(t, err)
	assert.Equal(t, []string{"b.h5", "a.h5"}, set.Files())

	c = Default()
	c.Path = "whole.h5"
	set, err = fileset.Resolve(c.Spec())
	require.NoError(t, err)
	assert.Equal(t, []string{"whole.h5"}, set.Files())
}

func TestValidate(t *testing.T) {
	c := Default()
	assert.True(t, errors.Is(c.Validate(), fileset.ErrInvalidSpec))

	c.Path = "x.h5"
	assert.NoError(t, c.Validate())

	c.LogFormat = "xml"
	assert.Error(t, c.Validate())
}
