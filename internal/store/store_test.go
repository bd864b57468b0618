package store

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/volumetools/snaprotate/internal/execx"
)

type fakeRunner struct {
	calls [][]string
	err   error
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) (string, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	return "", f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCreateInvokesBtrfs(t *testing.T) {
	runner := &fakeRunner{}
	s := New(runner, testLogger())

	require.NoError(t, s.Create(context.Background(), "/mnt/pool/home", "/mnt/pool/snapshots/home/2026-08-01_12-00-00"))
	require.Len(t, runner.calls, 1)
	assert.Equal(t,
		[]string{"btrfs", "subvolume", "snapshot", "-r", "/mnt/pool/home", "/mnt/pool/snapshots/home/2026-08-01_12-00-00"},
		runner.calls[0])
}

func TestDeleteInvokesBtrfs(t *testing.T) {
	runner := &fakeRunner{}
	s := New(runner, testLogger())

	require.NoError(t, s.Delete(context.Background(), "/mnt/pool/snapshots/home/2026-07-01_12-00-00"))
	require.Len(t, runner.calls, 1)
	assert.Equal(t,
		[]string{"btrfs", "subvolume", "delete", "/mnt/pool/snapshots/home/2026-07-01_12-00-00"},
		runner.calls[0])
}

func TestErrorsCarryIdentifier(t *testing.T) {
	runner := &fakeRunner{err: errors.New("no such subvolume")}
	s := New(runner, testLogger())

	err := s.Delete(context.Background(), "/snap/gone")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/snap/gone")
	assert.Contains(t, err.Error(), "no such subvolume")
}

func TestDryRunDescribesOperations(t *testing.T) {
	var buf bytes.Buffer
	s := New(execx.DryRunner{Out: &buf}, testLogger())

	require.NoError(t, s.Create(context.Background(), "/mnt/pool/home", "/snap/new"))
	require.NoError(t, s.Delete(context.Background(), "/snap/old"))

	assert.Equal(t,
		"btrfs subvolume snapshot -r /mnt/pool/home /snap/new\nbtrfs subvolume delete /snap/old\n",
		buf.String())
}
