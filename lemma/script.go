// Copyright 2025 Tomas Machalek <tomas.machalek@gmail.com>
// Copyright 2025 Institute of the Czech National Corpus,
//                Faculty of Arts, Charles University
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package lemma

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	casingLower     = "↓"
	casingUpper     = "↑"
	casingSeparator = "¦"
	ruleSeparator   = ";"
	absoluteRule    = "a"
	escapeChar      = "\\"
)

var scriptTextEscaper = strings.NewReplacer(
	escapeChar, escapeChar+escapeChar,
	ruleSeparator, escapeChar+ruleSeparator,
)

// escapeScriptText makes lemma text inserted into a script unambiguous
// with respect to the rule separator
func escapeScriptText(s []rune) string {
	return scriptTextEscaper.Replace(string(s))
}

// ScriptGenerator reduces a (form, lemma) pair to a string label
// describing how to obtain the lemma from the form. Implementations
// must be deterministic as the labels define a class space.
type ScriptGenerator interface {
	Script(form, lemma string) string
}

// ScriptGeneratorFunc adapts an ordinary function to ScriptGenerator
type ScriptGeneratorFunc func(form, lemma string) string

func (f ScriptGeneratorFunc) Script(form, lemma string) string {
	return f(form, lemma)
}

// ---------------------

// EditScriptGenerator produces scripts consisting of a casing part
// and an edit part. The casing part lists positions in the lemma where
// the letter case changes (e.g. ↑0¦↓1 for a capitalized lemma).
// The edit part works on lowercased strings and describes how many
// characters to strip from the beginning and the end of the form around
// the longest common substring and what to put there instead
// (e.g. "d0+;d1+" for dogs -> dog). If form and lemma have nothing
// in common, an absolute rule "a<lemma>" is used. Inserted lemma text
// has backslashes and rule separators escaped with a backslash.
type EditScriptGenerator struct {
	Lang language.Tag
}

func (g EditScriptGenerator) Script(form, lemma string) string {
	caser := cases.Lower(g.Lang)
	lcForm := []rune(caser.String(form))
	lcLemma := []rune(caser.String(lemma))
	return casingScript(lemma) + ruleSeparator + editScript(lcForm, lcLemma)
}

func casingScript(lemma string) string {
	parts := make([]string, 0, 3)
	var upper bool
	var i int
	for _, r := range lemma {
		isUpper := unicode.IsUpper(r)
		if i == 0 || isUpper != upper {
			if isUpper {
				parts = append(parts, fmt.Sprintf("%s%d", casingUpper, i))

			} else {
				parts = append(parts, fmt.Sprintf("%s%d", casingLower, i))
			}
			upper = isUpper
		}
		i++
	}
	if len(parts) == 0 {
		return casingLower + "0"
	}
	return strings.Join(parts, casingSeparator)
}

func editScript(form, lemma []rune) string {
	fStart, lStart, size := longestCommonSubstring(form, lemma)
	if size == 0 {
		return absoluteRule + escapeScriptText(lemma)
	}
	return fmt.Sprintf(
		"d%d+%s%sd%d+%s",
		fStart,
		escapeScriptText(lemma[:lStart]),
		ruleSeparator,
		len(form)-(fStart+size),
		escapeScriptText(lemma[lStart+size:]),
	)
}

// longestCommonSubstring returns start positions in a and b and the length
// of the first (leftmost in a, then in b) longest common substring
func longestCommonSubstring(a, b []rune) (int, int, int) {
	if len(a) == 0 || len(b) == 0 {
		return 0, 0, 0
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	var bestA, bestB, bestLen int
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
				if curr[j] > bestLen {
					bestLen = curr[j]
					bestA = i - bestLen
					bestB = j - bestLen
				}

			} else {
				curr[j] = 0
			}
		}
		prev, curr = curr, prev
	}
	return bestA, bestB, bestLen
}
