package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/smallbiznis/paybridge/internal/platform/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlatformsTable(t *testing.T) {
	var out bytes.Buffer
	cmd := platformsCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, len(catalog.IDs())+1)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Contains(t, out.String(), "doppus")
}

func TestPlatformsJSON(t *testing.T) {
	var out bytes.Buffer
	cmd := platformsCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--json"})
	require.NoError(t, cmd.Execute())

	var platforms []catalog.Platform
	require.NoError(t, json.Unmarshal(out.Bytes(), &platforms))
	assert.Len(t, platforms, len(catalog.IDs()))
}

func TestSyncRequiresFlags(t *testing.T) {
	cmd := syncCmd()
	cmd.SetArgs([]string{"--user", "user_1"})
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--platform")
}
