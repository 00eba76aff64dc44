package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/hookbind/internal/cli"
	"github.com/vk/hookbind/internal/testutil"
)

func TestRun_Help(t *testing.T) {
	out := &bytes.Buffer{}

	err := run(context.Background(), out, out, []string{"--help"})

	require.NoError(t, err, "run() should return a nil error for help")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
}

func TestRun_ParseError(t *testing.T) {
	out := &bytes.Buffer{}

	err := run(context.Background(), out, out, []string{"--this-is-not-a-valid-flag"})

	require.Error(t, err, "run() should return an error when argument parsing fails")
	var exitErr *cli.ExitError
	require.True(t, errors.As(err, &exitErr))
	require.Equal(t, 2, exitErr.Code)
	require.Contains(t, err.Error(), "unknown flag: --this-is-not-a-valid-flag")
}

func TestRun_InvalidMetadata(t *testing.T) {
	root := testutil.WriteFiles(t, map[string]string{"main.hcl": `
type "acme.Plugin" {
  field "AppJS" {
`})
	out := &bytes.Buffer{}

	err := run(context.Background(), out, out, []string{"lint", root})

	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to parse HCL file")
}
