package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtding233/offwork-lock/internal/config"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), config.FileName)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestSchemaCmd(t *testing.T) {
	out, err := run(t, "schema")
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, config.SchemaID, doc["$id"])
}

func TestValidateCmd(t *testing.T) {
	path := writeConfig(t, "version: 1.2.0\nroll_cost: 10\n")
	out, err := run(t, "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "ok (version 1.2.0, 3 rewards, 3 locked zones)")

	bad := writeConfig(t, "version: 2.0.0\n")
	_, err = run(t, "validate", bad)
	require.Error(t, err)
}

func TestValidateCmdUsesConfigDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.FileName), []byte("roll_cost: 1\n"), 0o644))
	out, err := run(t, "validate", "--config-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, ": ok")
}

func TestSimulateCmdJSON(t *testing.T) {
	path := writeConfig(t, `roll_cost: 10
rewards:
  - id: WIN
    weight: 1
    effects: ["unlock_exit"]
  - id: LOSE
    weight: 3
    effects: ["message:nope"]
`)
	out, err := run(t, "simulate", "--file", path, "--seed", "7", "--trials", "2000", "--draws", "4000", "--json")
	require.NoError(t, err)

	var rep simulateReport
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	require.NotNil(t, rep.UntilUnlock)
	assert.Equal(t, 2000, rep.UntilUnlock.Trials)
	// geometric with p = 0.25 has mean 4
	assert.InDelta(t, 4.0, rep.UntilUnlock.Mean, 0.5)
	assert.InDelta(t, rep.UntilUnlock.Mean*10, rep.PointsToUnlock, 1e-9)

	require.Len(t, rep.Rewards, 2)
	assert.True(t, rep.Rewards[0].UnlocksExit)
	assert.InDelta(t, 0.25, rep.Rewards[0].Expected, 1e-9)
	assert.InDelta(t, 0.25, rep.Rewards[0].Observed, 0.05)
	assert.Equal(t, 4000, rep.Rewards[0].Count+rep.Rewards[1].Count)
}

func TestSimulateCmdWithoutUnlockReward(t *testing.T) {
	path := writeConfig(t, `rewards:
  - id: ONLY
    effects: ["add_points:1"]
`)
	out, err := run(t, "simulate", "--file", path, "--seed", "1", "--trials", "10", "--draws", "10")
	require.NoError(t, err)
	assert.Contains(t, out, "no reward unlocks exit")
	assert.Contains(t, out, "ONLY")
}

func TestSimulateCmdEmptyTable(t *testing.T) {
	path := writeConfig(t, "rewards: []\n")
	_, err := run(t, "simulate", "--file", path)
	require.Error(t, err)
}

func TestServeRejectsInvalidSettings(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, "serve", "--config-dir", dir, "--data-dir", dir, "--store", "redis")
	require.Error(t, err)
}
