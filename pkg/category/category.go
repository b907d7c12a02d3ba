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

// Package category maps file extensions to the destination buckets files are sorted into.
package category

import (
	"sort"
	"strings"
)

// 🏷️ Category is the name of a top-level destination directory
type Category string

const (
	Images    Category = "Images"
	Video     Category = "Video"
	Documents Category = "Documents"
	Music     Category = "Music"
	Archives  Category = "Archives"
	Unknown   Category = "Unknown"
)

// String returns the directory name of the category
func (c Category) String() string {
	return string(c)
}

// 📚 Defaults returns a fresh copy of the built-in extension table
func Defaults() map[string][]string {
	return map[string][]string{
		Images.String():    {".jpeg", ".png", ".jpg", ".svg"},
		Video.String():     {".avi", ".mp4", ".mov", ".mkv", ".wmv"},
		Documents.String(): {".doc", ".docx", ".txt", ".pdf", ".xlsx", ".pptx"},
		Music.String():     {".mp3", ".ogg", ".wav", ".amr"},
		Archives.String():  {".zip", ".gz", ".tar"},
	}
}

// 🔍 Resolver answers which category an extension belongs to
type Resolver struct {
	byExt map[string]Category
	names []Category
}

// 🏭 NewResolver builds a resolver from a category -> extensions table.
// Extensions are matched case-insensitively. Unknown is always present.
func NewResolver(table map[string][]string) *Resolver {
	r := &Resolver{
		byExt: make(map[string]Category),
	}

	seen := map[Category]bool{Unknown: true}
	for name, exts := range table {
		cat := Category(name)
		if !seen[cat] {
			seen[cat] = true
			r.names = append(r.names, cat)
		}
		for _, ext := range exts {
			r.byExt[strings.ToLower(ext)] = cat
		}
	}

	sort.Slice(r.names, func(i, j int) bool { return r.names[i] < r.names[j] })
	r.names = append(r.names, Unknown)

	return r
}

// 🏗️ NewDefaultResolver builds a resolver over the built-in table
func NewDefaultResolver() *Resolver {
	return NewResolver(Defaults())
}

// 🎯 Resolve returns the category for ext (leading dot included).
// Empty or unmatched extensions resolve to Unknown.
func (r *Resolver) Resolve(ext string) Category {
	if ext == "" {
		return Unknown
	}
	if cat, ok := r.byExt[strings.ToLower(ext)]; ok {
		return cat
	}
	return Unknown
}

// Categories lists every category the resolver can return, Unknown last
func (r *Resolver) Categories() []Category {
	out := make([]Category, len(r.names))
	copy(out, r.names)
	return out
}

// IsCategory reports whether name is one of the resolver's destination directories
func (r *Resolver) IsCategory(name string) bool {
	for _, c := range r.names {
		if string(c) == name {
			return true
		}
	}
	return false
}
