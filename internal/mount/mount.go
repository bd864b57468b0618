// Package mount makes sure backing volumes are mounted before their
// snapshot directories are touched, and remembers which mount points this
// run mounted itself so only those are released at the end.
package mount

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"slices"

	"github.com/volumetools/snaprotate/internal/execx"
)

// mount(8) lists active mounts as "<dev> on <dir> type <fstype> ...".
var mountedRe = regexp.MustCompile(`(?m)^.+? on (.+?) type`)

type Mounter struct {
	runner execx.Runner
	log    *slog.Logger
	owned  []string
}

// New returns a Mounter. Mount operations always execute for real, even in
// dry runs; without them the snapshot directories could not be listed.
func New(runner execx.Runner, log *slog.Logger) *Mounter {
	return &Mounter{runner: runner, log: log}
}

// EnsureMounted mounts mountPoint unless it is already mounted. Idempotent:
// a point mounted earlier in this run, or mounted externally before the run
// started, is left alone. Only mounts performed here are recorded as owned
// and undone by ReleaseAll.
func (m *Mounter) EnsureMounted(ctx context.Context, mountPoint string) error {
	if slices.Contains(m.owned, mountPoint) {
		return nil
	}

	out, err := m.runner.Run(ctx, "mount")
	if err != nil {
		return fmt.Errorf("checking mounts: %w", err)
	}
	for _, match := range mountedRe.FindAllStringSubmatch(out, -1) {
		if match[1] == mountPoint {
			m.log.Debug("already mounted", "mountPoint", mountPoint)
			return nil
		}
	}

	m.log.Debug("mounting", "mountPoint", mountPoint)
	if _, err := m.runner.Run(ctx, "mount", mountPoint); err != nil {
		return fmt.Errorf("mounting %s: %w", mountPoint, err)
	}
	m.owned = append(m.owned, mountPoint)
	return nil
}

// ReleaseAll unmounts every mount point this run owns. Best effort: every
// point is attempted even when some fail, and the owned list is cleared
// regardless, so a second call is a no-op.
func (m *Mounter) ReleaseAll(ctx context.Context) error {
	var errs []error
	for _, mp := range m.owned {
		m.log.Debug("unmounting", "mountPoint", mp)
		if _, err := m.runner.Run(ctx, "umount", mp); err != nil {
			errs = append(errs, fmt.Errorf("unmounting %s: %w", mp, err))
		}
	}
	m.owned = nil
	return errors.Join(errs...)
}
