package execx

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecRunnerCapturesStdout(t *testing.T) {
	out, err := ExecRunner{}.Run(context.Background(), "sh", "-c", "printf hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
}

func TestExecRunnerReportsStderrAndExitCode(t *testing.T) {
	_, err := ExecRunner{}.Run(context.Background(), "sh", "-c", "echo boom >&2; exit 3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Contains(t, err.Error(), "exit code 3")
	assert.Contains(t, err.Error(), "sh -c")
}

func TestExecRunnerMissingBinary(t *testing.T) {
	_, err := ExecRunner{}.Run(context.Background(), "definitely-not-a-binary-xyz")
	require.Error(t, err)
}

func TestDryRunnerDescribesWithoutExecuting(t *testing.T) {
	var buf bytes.Buffer
	out, err := DryRunner{Out: &buf}.Run(context.Background(), "btrfs", "subvolume", "delete", "/snap/x")
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Equal(t, "btrfs subvolume delete /snap/x\n", buf.String())
}
