// Copyright (C) 2025 TraceWorks AI (oss@traceworks.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package config

import "time"

const (
	// DefaultPort is the HTTP port the labeler serves on when nothing
	// else is configured.
	DefaultPort = 5001

	// DefaultCacheTTLSeconds is how long a corpus snapshot is trusted
	// before the next read triggers a reconcile.
	DefaultCacheTTLSeconds = 300

	// DefaultLogLevel is the minimum log level when the config leaves
	// it blank.
	DefaultLogLevel = "info"
)

type TraceLabelConfig struct {
	// Corpus: where the reasoning traces live and how they are indexed
	Corpus CorpusConfig `yaml:"corpus"`

	// Server: HTTP settings for the serve command
	Server ServerConfig `yaml:"server"`

	// Logging: level and optional log directory
	Logging LoggingConfig `yaml:"logging"`
}

type CorpusConfig struct {
	// Dir is the corpus root. Empty means the --corpus flag is required.
	Dir string `yaml:"dir"`

	// Patterns are trace filename globs. Empty uses the built-in set.
	Patterns []string `yaml:"patterns"`

	// CacheTTLSeconds is the snapshot freshness window.
	CacheTTLSeconds int `yaml:"cache_ttl_seconds"`

	// LabelsFile overrides the label store path. Empty uses
	// <dir>/labels/.reasoning_labels.json.
	LabelsFile string `yaml:"labels_file"`
}

type ServerConfig struct {
	Port  int  `yaml:"port"`  // e.g. 5001
	Watch bool `yaml:"watch"` // rescan on filesystem changes
}

type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	Dir   string `yaml:"dir"`   // empty disables file logging
	JSON  bool   `yaml:"json"`  // JSON lines on stderr
}

// GetTTL returns the snapshot freshness window, falling back to the
// default when unset or nonsensical.
func (c CorpusConfig) GetTTL() time.Duration {
	if c.CacheTTLSeconds <= 0 {
		return DefaultCacheTTLSeconds * time.Second
	}
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// GetPort returns the configured port or the default when the value is
// missing or out of range.
func (s ServerConfig) GetPort() int {
	if s.Port <= 0 || s.Port > 65535 {
		return DefaultPort
	}
	return s.Port
}

// GetLevel returns the configured log level or the default when blank.
func (l LoggingConfig) GetLevel() string {
	if l.Level == "" {
		return DefaultLogLevel
	}
	return l.Level
}

func DefaultConfig() TraceLabelConfig {
	return TraceLabelConfig{
		Corpus: CorpusConfig{
			Dir:             "",
			Patterns:        []string{},
			CacheTTLSeconds: DefaultCacheTTLSeconds,
			LabelsFile:      "",
		},
		Server: ServerConfig{
			Port:  DefaultPort,
			Watch: true,
		},
		Logging: LoggingConfig{
			Level: DefaultLogLevel,
			Dir:   "",
			JSON:  false,
		},
	}
}
