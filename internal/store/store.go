// Package store adapts the btrfs command line into the snapshot create and
// delete operations a rotation run needs.
package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/volumetools/snaprotate/internal/execx"
)

type Store struct {
	runner execx.Runner
	log    *slog.Logger
}

// New returns a Store. Pass an execx.DryRunner to describe the btrfs
// operations instead of performing them.
func New(runner execx.Runner, log *slog.Logger) *Store {
	return &Store{runner: runner, log: log}
}

// Create takes a read-only snapshot of subvolume at dest.
func (s *Store) Create(ctx context.Context, subvolume, dest string) error {
	s.log.Info("taking snapshot", "subvolume", subvolume, "path", dest)
	if _, err := s.runner.Run(ctx, "btrfs", "subvolume", "snapshot", "-r", subvolume, dest); err != nil {
		return fmt.Errorf("taking snapshot %s: %w", dest, err)
	}
	return nil
}

// Delete removes the snapshot identified by id.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.log.Info("dropping snapshot", "path", id)
	if _, err := s.runner.Run(ctx, "btrfs", "subvolume", "delete", id); err != nil {
		return fmt.Errorf("deleting snapshot %s: %w", id, err)
	}
	return nil
}
