// Package rotator drives one full run: for every selected target it mounts
// the backing volume, optionally takes a fresh snapshot, and thins the
// existing ones against the target's retention table. Targets are processed
// strictly one after another; mounts owned by the run are released once at
// the very end, so a mount point shared by several targets is mounted and
// unmounted at most once.
package rotator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"time"

	"github.com/volumetools/snaprotate/internal/catalog"
	"github.com/volumetools/snaprotate/internal/config"
	"github.com/volumetools/snaprotate/internal/mount"
	"github.com/volumetools/snaprotate/internal/retention"
	"github.com/volumetools/snaprotate/internal/store"
)

// Options selects which phases and targets a run covers. Zero Targets means
// all configured targets.
type Options struct {
	Take    bool
	Rotate  bool
	Targets []string
}

type Rotator struct {
	cfg     *config.Config
	mounter *mount.Mounter
	store   *store.Store
	catalog *catalog.Catalog
	log     *slog.Logger
	now     func() time.Time
}

func New(cfg *config.Config, mounter *mount.Mounter, st *store.Store, cat *catalog.Catalog, log *slog.Logger) *Rotator {
	return &Rotator{
		cfg:     cfg,
		mounter: mounter,
		store:   st,
		catalog: cat,
		log:     log,
		now:     time.Now,
	}
}

// Run processes every selected target and then releases all owned mounts.
// Per-target failures are collected and do not stop the remaining targets;
// the joined error reports everything that went wrong.
func (r *Rotator) Run(ctx context.Context, opts Options) error {
	targets, err := r.selectTargets(opts.Targets)
	if err != nil {
		return err
	}

	var errs []error
	for _, name := range targets {
		target := r.cfg.Targets[name]
		log := r.log.With("target", name)

		if err := r.mounter.EnsureMounted(ctx, target.MountPoint); err != nil {
			log.Error("skipping target, mount failed", "error", err)
			errs = append(errs, fmt.Errorf("target %s: %w", name, err))
			continue
		}

		if opts.Take {
			if err := r.take(ctx, target); err != nil {
				log.Error("taking snapshot failed", "error", err)
				errs = append(errs, fmt.Errorf("target %s: %w", name, err))
			}
		}
		if opts.Rotate {
			if err := r.rotate(ctx, target, log); err != nil {
				log.Error("rotating snapshots failed", "error", err)
				errs = append(errs, fmt.Errorf("target %s: %w", name, err))
			}
		}
	}

	// Best-effort cleanup; its error never masks the ones above.
	if err := r.mounter.ReleaseAll(ctx); err != nil {
		r.log.Error("releasing mounts failed", "error", err)
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func (r *Rotator) selectTargets(requested []string) ([]string, error) {
	all := r.cfg.TargetNames()
	if len(requested) == 0 {
		return all, nil
	}
	for _, name := range requested {
		if !slices.Contains(all, name) {
			return nil, fmt.Errorf("unknown target %q", name)
		}
	}
	selected := make([]string, 0, len(requested))
	for _, name := range all {
		if slices.Contains(requested, name) {
			selected = append(selected, name)
		}
	}
	return selected, nil
}

// take creates a new snapshot named by formatting the current time with the
// target's layout. The time is truncated to whole seconds so the name
// round-trips through the same layout when the catalog parses it back.
func (r *Rotator) take(ctx context.Context, target config.TargetConfig) error {
	now := r.now().Truncate(time.Second)
	dest := filepath.Join(target.SnapshotDir, now.Format(target.Format))
	return r.store.Create(ctx, target.Subvolume, dest)
}

// rotate lists the target's snapshots, plans deletions against its tier
// table, and deletes the marked ones. A failed delete is recorded and the
// loop moves on; deletion is idempotent enough that the next run cleans up.
func (r *Rotator) rotate(ctx context.Context, target config.TargetConfig, log *slog.Logger) error {
	now := r.now().Truncate(time.Second)
	table := retention.NewTable(target.SpacingRules())

	entries, err := r.catalog.List(target.SnapshotDir, target.Format, now)
	if err != nil {
		return err
	}

	engine := retention.NewEngine(table, log)
	doomed := engine.Plan(entries)

	var errs []error
	for _, entry := range entries {
		if _, ok := doomed[entry.ID]; !ok {
			continue
		}
		if err := r.store.Delete(ctx, entry.ID); err != nil {
			log.Error("dropping snapshot failed", "path", entry.ID, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
