// Copyright 2026 The Flight Recorder Authors
// SPDX-License-Identifier: Apache-2.0

package flightconfig

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aerologic/flightrecorder/lib/frontend"
	"github.com/aerologic/flightrecorder/lib/recorder"
)

// File is the on-disk shape of a Recorder's YAML configuration (spec
// §6.3). ToRecorderConfig converts it to a recorder.Config; fields with
// no YAML representation (PropertySource, LogIdx, SpaceChecker, Clock,
// Logger) are left for the caller to wire in after loading, since they
// name collaborating objects rather than plain data.
type File struct {
	OutputDir  string `yaml:"output_dir"`
	Encrypted  bool   `yaml:"encrypted"`
	PubKeyPath string `yaml:"pub_key_path,omitempty"`

	MaxLogCount  int   `yaml:"max_log_count"`
	MinFreeSpace int64 `yaml:"min_free_space"`
	MaxUsedSpace int64 `yaml:"max_used_space"`
	MaxLogSize   int64 `yaml:"max_log_size"`
	MinLogSize   int64 `yaml:"min_log_size"`

	EnableMD5  bool        `yaml:"enable_md5"`
	ExtraProps []ExtraProp `yaml:"extra_props,omitempty"`

	FlushThresholdBytes int    `yaml:"flush_threshold_bytes"`
	MinScratchBytes     int    `yaml:"min_scratch_bytes"`
	FlushPeriod         string `yaml:"flush_period"`
	BootUUID            string `yaml:"boot_uuid,omitempty"`
}

// ExtraProp is the YAML shape of one operator-configured header field
// (spec §4.4, §6.3), mirroring frontend.ExtraProp.
type ExtraProp struct {
	Key          string `yaml:"key"`
	ReservedSize int    `yaml:"reserved_size"`
	InitialValue string `yaml:"initial_value,omitempty"`
	ReadOnly     bool   `yaml:"read_only"`
}

// Default returns the baseline configuration, used as the starting
// point before loading the config file. It exists to give every field
// a sensible zero value, not as a substitute for the config file.
func Default() *File {
	return &File{
		OutputDir:           "${FLIGHTRECORDER_ROOT}/logs",
		MaxLogCount:         20,
		MinFreeSpace:        100 << 20,
		MaxUsedSpace:        10 << 30,
		MaxLogSize:          512 << 20,
		MinLogSize:          1 << 20,
		EnableMD5:           true,
		FlushThresholdBytes: 64 << 10,
		MinScratchBytes:     4 << 10,
		FlushPeriod:         "1s",
	}
}

// Load loads configuration from the FLIGHTRECORDER_CONFIG environment
// variable. There is no fallback: if the variable is unset, this fails
// rather than silently using defaults or scanning well-known paths.
func Load() (*File, error) {
	path := os.Getenv("FLIGHTRECORDER_CONFIG")
	if path == "" {
		return nil, fmt.Errorf("flightconfig: FLIGHTRECORDER_CONFIG is not set; " +
			"point it at a flightrecorder.yaml file, or call LoadFile directly")
	}
	return LoadFile(path)
}

// LoadFile loads configuration from a specific file path, starting
// from Default and expanding ${VAR} references in path-shaped fields.
func LoadFile(path string) (*File, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("flightconfig: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("flightconfig: parsing %s: %w", path, err)
	}

	cfg.expandVariables()
	return cfg, nil
}

func (f *File) expandVariables() {
	vars := map[string]string{"HOME": os.Getenv("HOME")}
	f.OutputDir = expandVars(f.OutputDir, vars)
	f.PubKeyPath = expandVars(f.PubKeyPath, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default} references, preferring
// vars over the process environment.
func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		name, defaultValue := parts[1], ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors a human would want
// surfaced before the Recorder ever attempts to open a file.
func (f *File) Validate() error {
	var errs []error

	if f.OutputDir == "" {
		errs = append(errs, fmt.Errorf("output_dir is required"))
	}
	if f.Encrypted && f.PubKeyPath == "" {
		errs = append(errs, fmt.Errorf("pub_key_path is required when encrypted is true"))
	}
	if f.FlushThresholdBytes <= 0 {
		errs = append(errs, fmt.Errorf("flush_threshold_bytes must be positive"))
	}
	if _, err := time.ParseDuration(f.FlushPeriod); err != nil {
		errs = append(errs, fmt.Errorf("flush_period: %w", err))
	}
	for _, extra := range f.ExtraProps {
		if extra.Key == "" {
			errs = append(errs, fmt.Errorf("extra_props: key must not be empty"))
		}
		if extra.ReservedSize < len(extra.InitialValue) {
			errs = append(errs, fmt.Errorf("extra_props[%s]: reserved_size %d smaller than initial_value", extra.Key, extra.ReservedSize))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// ToRecorderConfig converts the loaded file into a recorder.Config.
// The caller is expected to set Frontend.PropertySource,
// Frontend.LogIdx, Frontend.SpaceChecker, Clock, and Logger afterward —
// those name live collaborators, not data this file format carries.
func (f *File) ToRecorderConfig() (recorder.Config, error) {
	flushPeriod, err := time.ParseDuration(f.FlushPeriod)
	if err != nil {
		return recorder.Config{}, fmt.Errorf("flightconfig: flush_period: %w", err)
	}

	extras := make([]frontend.ExtraProp, len(f.ExtraProps))
	for i, extra := range f.ExtraProps {
		extras[i] = frontend.ExtraProp{
			Key:          extra.Key,
			ReservedSize: extra.ReservedSize,
			InitialValue: extra.InitialValue,
			ReadOnly:     extra.ReadOnly,
		}
	}

	return recorder.Config{
		Frontend: frontend.Config{
			OutputDir:    f.OutputDir,
			Encrypted:    f.Encrypted,
			PubKeyPath:   f.PubKeyPath,
			MaxLogCount:  f.MaxLogCount,
			MinFreeSpace: f.MinFreeSpace,
			MaxUsedSpace: f.MaxUsedSpace,
			MaxLogSize:   f.MaxLogSize,
			MinLogSize:   f.MinLogSize,
			ExtraProps:   extras,
			EnableMD5:    f.EnableMD5,
		},
		FlushThreshold:  f.FlushThresholdBytes,
		MinScratchSpace: f.MinScratchBytes,
		FlushPeriod:     flushPeriod,
		BootUUID:        f.BootUUID,
	}, nil
}
