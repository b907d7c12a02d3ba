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

package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pterm/pterm"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// 🎨 Format selects how a report is rendered
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a user supplied format name
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatText, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", errors.Errorf("unknown output format %q (want text, json or yaml)", s)
	}
}

// 🖨️ Render writes r to w in the given format
func Render(w io.Writer, r *Report, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(r); err != nil {
			return errors.Errorf("encoding JSON report: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return errors.Errorf("encoding YAML report: %w", err)
		}
		if err := enc.Close(); err != nil {
			return errors.Errorf("encoding YAML report: %w", err)
		}
		return nil
	case FormatText, "":
		return renderText(w, r)
	default:
		return errors.Errorf("unknown output format %q", format)
	}
}

func renderText(w io.Writer, r *Report) error {
	data := pterm.TableData{{"Category", "Files", "Names"}}
	for _, name := range r.CategoryNames() {
		files := r.Categories[name]
		data = append(data, []string{name, strconv.Itoa(len(files)), strings.Join(files, ", ")})
	}

	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return errors.Errorf("rendering report table: %w", err)
	}

	if _, err := fmt.Fprintln(w, table); err != nil {
		return errors.WithStack(err)
	}

	exts := "(none)"
	if len(r.Extensions) > 0 {
		exts = strings.Join(r.Extensions, " ")
	}
	if _, err := fmt.Fprintf(w, "\nExtensions: %s\n", exts); err != nil {
		return errors.WithStack(err)
	}
	return nil
}
