package config_test

import (
	"bytes"
	"testing"

	"github.com/inbucket/email2md/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessDefaults(t *testing.T) {
	c, err := config.Process()
	require.NoError(t, err)
	assert.Equal(t, "warn", c.LogLevel)
	assert.False(t, c.LogJSON)
	assert.Empty(t, c.OutputDir)
	assert.False(t, c.Sanitize)
}

func TestProcessEnvironment(t *testing.T) {
	t.Setenv("EMAIL2MD_LOGLEVEL", "debug")
	t.Setenv("EMAIL2MD_LOGJSON", "true")
	t.Setenv("EMAIL2MD_OUTPUTDIR", "/tmp/attachments")
	t.Setenv("EMAIL2MD_SANITIZE", "true")

	c, err := config.Process()
	require.NoError(t, err)
	assert.Equal(t, "debug", c.LogLevel)
	assert.True(t, c.LogJSON)
	assert.Equal(t, "/tmp/attachments", c.OutputDir)
	assert.True(t, c.Sanitize)
}

func TestProcessInvalid(t *testing.T) {
	t.Setenv("EMAIL2MD_SANITIZE", "maybe")
	_, err := config.Process()
	assert.Error(t, err)
}

func TestUsage(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, config.Usage(buf))
	got := buf.String()
	for _, key := range []string{"EMAIL2MD_LOGLEVEL", "EMAIL2MD_LOGJSON", "EMAIL2MD_OUTPUTDIR",
		"EMAIL2MD_SANITIZE"} {
		assert.Contains(t, got, key)
	}
	assert.Contains(t, got, "warn")
}
