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

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
)

func init() {
	Register(&HCLParser{})
}

// 🔧 HCLParser implements the Parser interface for HCL files
type HCLParser struct{}

// 🔍 CanParse checks if this parser can handle the given file
func (p *HCLParser) CanParse(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".hcl")
}

// 📝 Parse parses the config from HCL
//
//	workers         = 4
//	ignore          = ["**/.git"]
//	skip_extract    = false
//	keep_empty_dirs = false
//
//	category "Images" {
//	  extensions = [".jpg", ".png"]
//	}
func (p *HCLParser) Parse(ctx context.Context, data []byte) (*Config, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, "config.hcl")
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	// Create evaluation context, default_workers means one worker per CPU
	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"default_workers": cty.NumberIntVal(0),
		},
	}

	// Define HCL schema
	type hclConfig struct {
		Workers    *int     `hcl:"workers,optional"`
		Ignore     []string `hcl:"ignore,optional"`
		Categories []struct {
			Name       string   `hcl:"name,label"`
			Extensions []string `hcl:"extensions,optional"`
		} `hcl:"category,block"`
		SkipExtract   bool `hcl:"skip_extract,optional"`
		KeepEmptyDirs bool `hcl:"keep_empty_dirs,optional"`
	}

	// Decode HCL
	var hclCfg hclConfig
	diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &hclCfg)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}

	// Convert to model
	cfg := &Config{
		Ignore:        hclCfg.Ignore,
		SkipExtract:   hclCfg.SkipExtract,
		KeepEmptyDirs: hclCfg.KeepEmptyDirs,
	}
	if hclCfg.Workers != nil {
		cfg.Workers = *hclCfg.Workers
	}

	if len(hclCfg.Categories) > 0 {
		cfg.Categories = make(map[string][]string, len(hclCfg.Categories))
		for _, c := range hclCfg.Categories {
			if _, dup := cfg.Categories[c.Name]; dup {
				return nil, errors.Errorf("decoding HCL: category %q declared twice", c.Name)
			}
			cfg.Categories[c.Name] = c.Extensions
		}
	}

	return cfg, nil
}
