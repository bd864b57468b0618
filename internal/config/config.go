package config

import (
	"fmt"
	"sort"
	"time"
)

type Config struct {
	Defaults TargetConfig            `yaml:"defaults"`
	Targets  map[string]TargetConfig `yaml:"targets"`
	Logging  LoggingConfig           `yaml:"logging"`
}

// TargetConfig describes one snapshotted subvolume. Every field is optional
// at the target level and falls back to the defaults section; after merging,
// all fields except Spacings must be set.
type TargetConfig struct {
	MountPoint  string                `yaml:"mountPoint"`
	Format      string                `yaml:"format"` // Go time layout for snapshot names
	Subvolume   string                `yaml:"subvolume"`
	SnapshotDir string                `yaml:"snapshotDir"`
	Spacings    map[Duration]Duration `yaml:"spacings"` // minimum age -> minimum spacing
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "text", "json"
}

// FieldError reports a target left without a required setting after the
// defaults were merged in.
type FieldError struct {
	Target string
	Field  string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("target %q has no %q config", e.Target, e.Field)
}

// TargetNames returns the configured target names in sorted order.
func (c *Config) TargetNames() []string {
	names := make([]string, 0, len(c.Targets))
	for name := range c.Targets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SpacingRules converts the configured spacings into plain durations.
func (t TargetConfig) SpacingRules() map[time.Duration]time.Duration {
	rules := make(map[time.Duration]time.Duration, len(t.Spacings))
	for age, spacing := range t.Spacings {
		rules[time.Duration(age)] = time.Duration(spacing)
	}
	return rules
}

func (t TargetConfig) withDefaults(d TargetConfig) TargetConfig {
	if t.MountPoint == "" {
		t.MountPoint = d.MountPoint
	}
	if t.Format == "" {
		t.Format = d.Format
	}
	if t.Subvolume == "" {
		t.Subvolume = d.Subvolume
	}
	if t.SnapshotDir == "" {
		t.SnapshotDir = d.SnapshotDir
	}
	if len(t.Spacings) == 0 {
		t.Spacings = d.Spacings
	}
	return t
}

// mergeAndValidate folds the defaults into every target and checks that the
// result is complete. A target may end up with no spacings; rotation then
// deletes nothing for it.
func (c *Config) mergeAndValidate() error {
	for _, name := range c.TargetNames() {
		merged := c.Targets[name].withDefaults(c.Defaults)
		switch {
		case merged.MountPoint == "":
			return &FieldError{Target: name, Field: "mountPoint"}
		case merged.Format == "":
			return &FieldError{Target: name, Field: "format"}
		case merged.Subvolume == "":
			return &FieldError{Target: name, Field: "subvolume"}
		case merged.SnapshotDir == "":
			return &FieldError{Target: name, Field: "snapshotDir"}
		}
		c.Targets[name] = merged
	}
	return nil
}
