package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	cmds := rootCmd.Commands()

	// Collect subcommand names.
	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	// Verify expected subcommands are registered.
	expected := []string{"area", "polygon", "bbox", "state", "states"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "nsi", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestAreaCommand_Flags(t *testing.T) {
	flag := areaCmd.Flags().Lookup("output")
	require.NotNil(t, flag, "area command should have --output flag")
	assert.Equal(t, "o", flag.Shorthand)
}

func TestBBoxCommand_Flags(t *testing.T) {
	for _, name := range []string{"west", "east", "south", "north"} {
		flag := bboxCmd.Flags().Lookup(name)
		require.NotNil(t, flag, "bbox command should have --%s flag", name)
		assert.Equal(t, []string{"true"}, flag.Annotations["cobra_annotation_bash_completion_one_required_flag"])
	}

	flag := bboxCmd.Flags().Lookup("stats")
	require.NotNil(t, flag)
	assert.Equal(t, "false", flag.DefValue)
}

func TestStateCommand_Flags(t *testing.T) {
	for _, name := range []string{"output", "dir", "extract", "concurrency"} {
		assert.NotNil(t, stateCmd.Flags().Lookup(name), "state command should have --%s flag", name)
	}
	assert.Equal(t, "0", stateCmd.Flags().Lookup("concurrency").DefValue)
}
