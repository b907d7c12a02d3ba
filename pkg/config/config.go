// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"github.com/walteh/sortrc/pkg/category"
	"gitlab.com/tozd/go/errors"
)

// 🔌 Parser is the interface for config parsers
type Parser interface {
	// 📝 Parse parses the config from bytes
	Parse(ctx context.Context, data []byte) (*Config, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// 📚 Config represents the complete configuration
type Config struct {
	// Workers caps how many subdirectories are sorted at once (0 = one per CPU)
	Workers int `json:"workers,omitempty" yaml:"workers,omitempty" toml:"workers,omitempty"`
	// Categories maps a category directory name to the extensions it owns
	Categories map[string][]string `json:"categories,omitempty" yaml:"categories,omitempty" toml:"categories,omitempty"`
	// Ignore holds doublestar patterns, relative to the sorted root, of files to leave alone
	Ignore []string `json:"ignore,omitempty" yaml:"ignore,omitempty" toml:"ignore,omitempty"`
	// SkipExtract disables unpacking of zip archives after sorting
	SkipExtract bool `json:"skip_extract,omitempty" yaml:"skip_extract,omitempty" toml:"skip_extract,omitempty"`
	// KeepEmptyDirs disables removal of directories left empty after sorting
	KeepEmptyDirs bool `json:"keep_empty_dirs,omitempty" yaml:"keep_empty_dirs,omitempty" toml:"keep_empty_dirs,omitempty"`
}

// 🏗️ Default returns the configuration used when no file is given
func Default() *Config {
	cfg := &Config{}
	// defaults are always valid
	_ = cfg.Validate()
	return cfg
}

// 🎯 Load loads the configuration from a file
func Load(ctx context.Context, path string) (*Config, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading configuration")

	// Read config file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	// Get parser
	p := GetParser(filepath.Base(path))
	if p == nil {
		return nil, errors.Errorf("no parser found for file: %s", path)
	}

	// Parse config
	cfg, err := p.Parse(ctx, data)
	if err != nil {
		return nil, errors.Errorf("parsing config: %w", err)
	}

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// 🔍 Validate checks the configuration, normalizes extensions, and fills in defaults
func (cfg *Config) Validate() error {
	if cfg.Workers < 0 {
		return errors.Errorf("workers must not be negative, got %d", cfg.Workers)
	}
	if cfg.Workers == 0 {
		cfg.Workers = runtime.NumCPU()
	}

	if len(cfg.Categories) == 0 {
		cfg.Categories = category.Defaults()
	}

	names := make([]string, 0, len(cfg.Categories))
	for name := range cfg.Categories {
		names = append(names, name)
	}
	sort.Strings(names)

	owner := map[string]string{}
	for _, name := range names {
		if strings.TrimSpace(name) == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
			return errors.Errorf("invalid category name %q", name)
		}
		exts := cfg.Categories[name]
		if name == category.Unknown.String() && len(exts) > 0 {
			return errors.Errorf("category %s cannot own extensions", name)
		}

		clean := make([]string, 0, len(exts))
		for _, ext := range exts {
			ext = strings.ToLower(strings.TrimSpace(ext))
			if len(ext) < 2 || ext[0] != '.' || strings.ContainsAny(ext[1:], `./\`) {
				return errors.Errorf("category %s: invalid extension %q", name, ext)
			}
			if prev, ok := owner[ext]; ok && prev != name {
				return errors.Errorf("extension %q listed under both %s and %s", ext, prev, name)
			}
			if _, ok := owner[ext]; !ok {
				clean = append(clean, ext)
			}
			owner[ext] = name
		}
		cfg.Categories[name] = clean
	}

	for _, p := range cfg.Ignore {
		if !doublestar.ValidatePattern(p) {
			return errors.Errorf("invalid ignore pattern %q", p)
		}
	}

	return nil
}

// 🏷️ Resolver builds a category resolver from the configured table
func (cfg *Config) Resolver() *category.Resolver {
	return category.NewResolver(cfg.Categories)
}

// 📝 String returns a string representation of the config
func (cfg *Config) String() string {
	return fmt.Sprintf("workers=%d categories=%d ignore=%d extract=%t prune=%t",
		cfg.Workers, len(cfg.Categories), len(cfg.Ignore), !cfg.SkipExtract, !cfg.KeepEmptyDirs)
}
