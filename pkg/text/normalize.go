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

// Package text turns arbitrary file names into portable ASCII names.
package text

import (
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

const cyrillic = "абвгдеёжзийклмнопрстуфхцчшщъыьэюяєіїґ"

var latin = [...]string{
	"a", "b", "v", "g", "d", "e", "e", "j", "z", "i", "j", "k", "l", "m", "n", "o", "p", "r", "s",
	"t", "u", "f", "h", "ts", "ch", "sh", "sch", "", "y", "", "e", "yu", "ya", "je", "i", "ji", "g",
}

// transliteration holds both cases of every letter; read-only after init.
var transliteration = buildTable()

func buildTable() map[rune]string {
	table := make(map[rune]string, 2*len(latin))
	i := 0
	for _, r := range cyrillic {
		table[r] = latin[i]
		table[unicode.ToUpper(r)] = strings.ToUpper(latin[i])
		i++
	}
	return table
}

// 🔤 transliterator rewrites table letters to their latin spelling and passes
// everything else through untouched. Invalid UTF-8 bytes become '_'.
type transliterator struct{ transform.NopResetter }

func (transliterator) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	for nSrc < len(src) {
		r, size := utf8.DecodeRune(src[nSrc:])
		if r == utf8.RuneError && size <= 1 && !atEOF && !utf8.FullRune(src[nSrc:]) {
			return nDst, nSrc, transform.ErrShortSrc
		}

		var out string
		switch repl, ok := transliteration[r]; {
		case ok:
			out = repl
		case r == utf8.RuneError && size == 1:
			out = "_"
		default:
			out = string(src[nSrc : nSrc+size])
		}

		if nDst+len(out) > len(dst) {
			return nDst, nSrc, transform.ErrShortDst
		}
		nDst += copy(dst[nDst:], out)
		nSrc += size
	}
	return nDst, nSrc, nil
}

// safeRune keeps [0-9A-Za-z] and turns everything else into '_'
func safeRune(r rune) rune {
	switch {
	case r >= '0' && r <= '9', r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z':
		return r
	}
	return '_'
}

// 🧹 Normalize transliterates Cyrillic letters to latin and replaces every
// remaining character outside [0-9A-Za-z] with '_'.
//
// Scripts without a table entry are not transliterated; each of their
// characters collapses to a single '_'. Normalize is idempotent.
func Normalize(stem string) string {
	if stem == "" {
		return ""
	}

	// transform.Chain keeps per-call buffers, so it is built fresh each time
	t := transform.Chain(transliterator{}, runes.Map(safeRune))
	out, _, err := transform.String(t, stem)
	if err != nil {
		return strings.Map(safeRune, stem)
	}
	return out
}

// ✂️ SplitExt splits a base name into stem and extension. A leading dot does
// not start an extension (".bashrc" has no extension) and neither does a
// trailing one ("notes." has no extension).
func SplitExt(name string) (stem, ext string) {
	ext = filepath.Ext(name)
	if ext == name || ext == "." {
		return name, ""
	}
	return strings.TrimSuffix(name, ext), ext
}
