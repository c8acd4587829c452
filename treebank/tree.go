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

package treebank

import (
	"fmt"
	"slices"
	"strings"
)

const (
	// NumFields is the number of tab-separated columns of a token row
	NumFields = 10

	// NoTags is the value of the morphological field for a token
	// without any features
	NoTags = "_"

	tagSeparator = ";"

	colIndex = 0
	colForm  = 1
	colLemma = 2
	colFeats = 5
)

// TagSet is a sorted set of morphological tags (e.g. Case=Nom)
type TagSet []string

func (ts TagSet) Contains(tag string) bool {
	_, ok := slices.BinarySearch(ts, tag)
	return ok
}

func (ts TagSet) String() string {
	if len(ts) == 0 {
		return NoTags
	}
	return strings.Join(ts, tagSeparator)
}

// ParseTagSet splits a semicolon-joined feature field. The literal
// NoTags value produces an empty set.
func ParseTagSet(field string) TagSet {
	if field == NoTags || field == "" {
		return TagSet{}
	}
	items := strings.Split(field, tagSeparator)
	ans := make(TagSet, 0, len(items))
	for _, v := range items {
		if v != "" && v != NoTags {
			ans = append(ans, v)
		}
	}
	slices.Sort(ans)
	return slices.Compact(ans)
}

// ------------------

// Row is a single token of a tree
type Row struct {
	Form      string `json:"form"`
	Lemma     string `json:"lemma"`
	MorphTags TagSet `json:"morphTags"`
}

// Tree holds token rows of a single sentence in the treebank order.
// Forms, lemmas and tag sets always have the same length.
type Tree struct {
	forms     []string
	lemmas    []string
	morphTags []TagSet
}

// Add appends a token row. The row must have exactly NumFields columns.
func (t *Tree) Add(fields []string) error {
	if len(fields) != NumFields {
		return fmt.Errorf("expected %d fields, got %d", NumFields, len(fields))
	}
	t.forms = append(t.forms, fields[colForm])
	t.lemmas = append(t.lemmas, fields[colLemma])
	t.morphTags = append(t.morphTags, ParseTagSet(fields[colFeats]))
	return nil
}

func (t *Tree) Len() int {
	return len(t.forms)
}

func (t *Tree) Row(i int) Row {
	return Row{Form: t.forms[i], Lemma: t.lemmas[i], MorphTags: t.morphTags[i]}
}

// Rows returns all the rows as (form, lemma, tags) records
func (t *Tree) Rows() []Row {
	ans := make([]Row, t.Len())
	for i := range ans {
		ans[i] = t.Row(i)
	}
	return ans
}

func (t *Tree) Forms() []string {
	return t.forms
}

func (t *Tree) Lemmas() []string {
	return t.lemmas
}

func (t *Tree) MorphTags() []TagSet {
	return t.morphTags
}

func (t *Tree) String() string {
	var sb strings.Builder
	sb.WriteString("Tree(")
	for i := range t.forms {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "(%s, %s, %s)", t.forms[i], t.lemmas[i], t.morphTags[i])
	}
	sb.WriteString(")")
	return sb.String()
}
