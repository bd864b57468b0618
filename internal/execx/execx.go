// Package execx runs the external commands the tool depends on (mount,
// umount, btrfs) behind an interface, so mutating commands can be described
// instead of executed during dry runs and faked in tests.
package execx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

type Runner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// ExecRunner invokes commands through os/exec. Stdout is returned; stderr
// is captured and folded into the error on failure.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		cmdline := commandLine(name, args)
		msg := strings.TrimSpace(stderr.String())
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			if msg == "" {
				msg = "no stderr output"
			}
			return "", fmt.Errorf("command %q failed with exit code %d: %s",
				cmdline, exitErr.ExitCode(), msg)
		}
		return "", fmt.Errorf("running %q: %w", cmdline, err)
	}
	return stdout.String(), nil
}

// DryRunner prints each command instead of executing it.
type DryRunner struct {
	Out io.Writer
}

func (d DryRunner) Run(_ context.Context, name string, args ...string) (string, error) {
	fmt.Fprintln(d.Out, commandLine(name, args))
	return "", nil
}

func commandLine(name string, args []string) string {
	return strings.Join(append([]string{name}, args...), " ")
}
