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
	"strings"

	"gitlab.com/tozd/go/errors"
	"gopkg.in/ini.v1"
)

func init() {
	Register(&INIParser{})
}

// 🔧 INIParser implements the Parser interface for INI files
//
//	[sort]
//	workers = 4
//	ignore = **/.git, **/*.tmp
//	skip_extract = false
//	keep_empty_dirs = false
//
//	[categories]
//	Images = .jpg, .png
type INIParser struct{}

const (
	iniSortSection       = "sort"
	iniCategoriesSection = "categories"
)

// 🔍 CanParse checks if this parser can handle the given file
func (p *INIParser) CanParse(filename string) bool {
	name := strings.ToLower(strings.TrimSpace(filename))
	return strings.HasSuffix(name, ".ini") || strings.HasSuffix(name, ".cfg")
}

// 📝 Parse parses the config from INI bytes
func (p *INIParser) Parse(ctx context.Context, data []byte) (*Config, error) {
	file, err := ini.LoadSources(ini.LoadOptions{
		// category names like "Images" must keep their case
		Insensitive: false,
	}, data)
	if err != nil {
		return nil, errors.Errorf("parsing INI: %w", err)
	}

	cfg := &Config{}

	for _, section := range file.Sections() {
		switch section.Name() {
		case ini.DefaultSection:
			if len(section.Keys()) > 0 {
				return nil, errors.Errorf("parsing INI: key %q outside of a section", section.Keys()[0].Name())
			}
		case iniSortSection:
			if err := p.parseSort(section, cfg); err != nil {
				return nil, err
			}
		case iniCategoriesSection:
			cfg.Categories = make(map[string][]string, len(section.Keys()))
			for _, key := range section.Keys() {
				cfg.Categories[key.Name()] = key.Strings(",")
			}
		default:
			return nil, errors.Errorf("parsing INI: unknown section [%s]", section.Name())
		}
	}

	return cfg, nil
}

func (p *INIParser) parseSort(section *ini.Section, cfg *Config) error {
	for _, key := range section.Keys() {
		var err error
		switch key.Name() {
		case "workers":
			cfg.Workers, err = key.Int()
		case "ignore":
			cfg.Ignore = key.Strings(",")
		case "skip_extract":
			cfg.SkipExtract, err = key.Bool()
		case "keep_empty_dirs":
			cfg.KeepEmptyDirs, err = key.Bool()
		default:
			return errors.Errorf("parsing INI: unknown key %q in [%s]", key.Name(), iniSortSection)
		}
		if err != nil {
			return errors.Errorf("parsing INI: [%s] %s: %w", iniSortSection, key.Name(), err)
		}
	}
	return nil
}
