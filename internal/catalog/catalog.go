// Package catalog lists the existing snapshots of a target by parsing the
// timestamp embedded in each directory entry's name.
package catalog

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/volumetools/snaprotate/internal/retention"
)

type Catalog struct {
	log *slog.Logger
}

func New(log *slog.Logger) *Catalog {
	return &Catalog{log: log}
}

// List scans dir and returns one entry per name that parses against the
// given time layout. Names that do not parse are skipped with a warning:
// stray files and legacy snapshots must not abort a run, and skipped names
// are never deleted. Ages are computed against the single now passed in.
// The listing is recomputed from the filesystem on every call.
func (c *Catalog) List(dir, layout string, now time.Time) ([]retention.Entry, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot dir %s: %w", dir, err)
	}

	var entries []retention.Entry
	for _, ent := range dirEntries {
		name := ent.Name()
		ts, err := time.ParseInLocation(layout, name, time.Local)
		if err != nil {
			c.log.Warn("ignoring snapshot, name does not match format",
				"name", name, "format", layout)
			continue
		}
		entries = append(entries, retention.Entry{
			Timestamp: ts,
			ID:        filepath.Join(dir, name),
			Age:       now.Sub(ts),
			Tier:      retention.NoTier, // assigned by the engine
		})
	}
	return entries, nil
}
