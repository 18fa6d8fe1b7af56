package main

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findSubcommand(cmd *cobra.Command, name string) *cobra.Command {
	for _, c := range cmd.Commands() {
		if c.Name() == name {
			return c
		}
	}
	return nil
}

func TestRootCommand_HasSubcommands(t *testing.T) {
	cmd := getRootCmd()
	require.NotNil(t, cmd, "Root command should exist")

	for _, name := range []string{
		"create", "acquire", "merge", "replay",
		"resolve", "flag", "schedule",
	} {
		assert.NotNil(t, findSubcommand(cmd, name),
			"%s subcommand should exist", name)
	}
}

func TestRootCommand_ConfigFlag(t *testing.T) {
	cmd := getRootCmd()

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag, "--config flag should exist")
	assert.Equal(t, "string", configFlag.Value.Type(),
		"--config should be string type")
}

func TestRootCommand_Help(t *testing.T) {
	cmd := getRootCmd()

	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--help"})
	err := cmd.Execute()
	require.NoError(t, err)

	helpText := buf.String()
	assert.Contains(t, helpText, "scholdb", "Help should mention scholdb")
	assert.Contains(t, helpText, "merge", "Help should mention merge")
	assert.Contains(t, helpText, "Available Commands",
		"Help should list commands")
}

func TestRootCommand_VersionFlag(t *testing.T) {
	cmd := getRootCmd()
	cmd.Version = "test-version"

	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--version"})
	err := cmd.Execute()
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "test-version",
		"Version output should contain version string")
}

func TestMergeCommand_Flags(t *testing.T) {
	cmd := getRootCmd()

	mergeCmd := findSubcommand(cmd, "merge")
	require.NotNil(t, mergeCmd, "merge subcommand should exist")

	kindFlag := mergeCmd.Flags().Lookup("kind")
	require.NotNil(t, kindFlag, "--kind flag should exist on merge command")
	assert.Equal(t, "paper", kindFlag.DefValue,
		"merge kind should default to paper")

	idsFlag := mergeCmd.Flags().Lookup("ids")
	assert.NotNil(t, idsFlag, "--ids flag should exist on merge command")
}

func TestReplayCommand_AfterFlag(t *testing.T) {
	cmd := getRootCmd()

	replayCmd := findSubcommand(cmd, "replay")
	require.NotNil(t, replayCmd, "replay subcommand should exist")

	afterFlag := replayCmd.Flags().Lookup("after")
	require.NotNil(t, afterFlag, "--after flag should exist on replay command")
	assert.Equal(t, "string", afterFlag.Value.Type())
}

func TestFlagCommand_RemoveFlag(t *testing.T) {
	cmd := getRootCmd()

	flagCmd := findSubcommand(cmd, "flag")
	require.NotNil(t, flagCmd, "flag subcommand should exist")

	removeFlag := flagCmd.Flags().Lookup("remove")
	require.NotNil(t, removeFlag, "--remove flag should exist on flag command")
	assert.Equal(t, "bool", removeFlag.Value.Type())
}

func TestRootCommand_PersistentFlags(t *testing.T) {
	cmd := getRootCmd()

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag, "Persistent --config flag should exist")

	createCmd := findSubcommand(cmd, "create")
	require.NotNil(t, createCmd)

	inherited := createCmd.InheritedFlags().Lookup("config")
	assert.NotNil(t, inherited, "create should inherit --config flag")
}

func TestParseIDs(t *testing.T) {
	_, err := parseIDs([]string{"8a6e2b4c-1234-5678-9abc-def012345678"})
	assert.Error(t, err, "a single id is not a mergeable group")

	ids, err := parseIDs([]string{
		"8a6e2b4c-1234-5678-9abc-def012345678",
		"0a6e2b4c-1234-5678-9abc-def012345678",
	})
	require.NoError(t, err)
	assert.Len(t, ids, 2)
	assert.NotEqual(t, ids[0], ids[1])

	_, err = parseIDs([]string{"not-a-uuid", "also-not"})
	assert.Error(t, err, "invalid uuids should be rejected")
}
