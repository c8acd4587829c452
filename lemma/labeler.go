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
	"slices"
	"sort"

	"tbprep/treebank"

	"github.com/rs/zerolog/log"
)

const (
	// MaxExamples is the max. number of form→lemma examples
	// stored for each script
	MaxExamples = 3

	exampleArrow = "→"
)

// ScriptStats is the first stage of lemma labeling. It holds the script
// of each token of each document along with corpus-wide script frequencies.
// Scripts are kept in the order they were first encountered which is later
// used to rank scripts with the same frequency.
type ScriptStats struct {
	counts     map[string]int
	order      []string
	examples   map[string][]string
	docScripts [][]string
	total      int
}

func (s *ScriptStats) add(form, lemma, script string) {
	if _, ok := s.counts[script]; !ok {
		s.order = append(s.order, script)
	}
	s.counts[script]++
	s.total++
	ex := s.examples[script]
	if len(ex) < MaxExamples {
		item := form + exampleArrow + lemma
		if !slices.Contains(ex, item) {
			s.examples[script] = append(ex, item)
		}
	}
}

// Count returns frequency of a script
func (s *ScriptStats) Count(script string) int {
	return s.counts[script]
}

// Counts returns a copy of script frequencies
func (s *ScriptStats) Counts() map[string]int {
	ans := make(map[string]int, len(s.counts))
	for k, v := range s.counts {
		ans[k] = v
	}
	return ans
}

// Scripts returns distinct scripts in order of their first occurrence
func (s *ScriptStats) Scripts() []string {
	return slices.Clone(s.order)
}

func (s *ScriptStats) Examples(script string) []string {
	return slices.Clone(s.examples[script])
}

// Total returns number of processed tokens
func (s *ScriptStats) Total() int {
	return s.total
}

// DocScripts returns scripts of i-th document's tokens
func (s *ScriptStats) DocScripts(i int) []string {
	return s.docScripts[i]
}

// CollectStats runs the script generator on all (form, lemma) pairs
// of the documents in document and token order.
func CollectStats(docs []*treebank.Document, gen ScriptGenerator) *ScriptStats {
	stats := &ScriptStats{
		counts:     make(map[string]int),
		order:      make([]string, 0, 100),
		examples:   make(map[string][]string),
		docScripts: make([][]string, len(docs)),
	}
	for i, d := range docs {
		lemmas := d.Lemmas()
		scripts := make([]string, d.Len())
		for j, form := range d.Tokens() {
			scripts[j] = gen.Script(form, lemmas[j])
			stats.add(form, lemmas[j], scripts[j])
		}
		stats.docScripts[i] = scripts
	}
	return stats
}

// --------------------------

// Ranking is the second stage of lemma labeling. It assigns dense
// class ids to scripts, more frequent scripts first. It can be
// created only out of finished ScriptStats.
type Ranking struct {
	scriptToID map[string]int
	idToScript []string
	counts     []int
}

// NewRanking sorts scripts by descending frequency, scripts
// with the same frequency keep the order of their first occurrence.
func NewRanking(stats *ScriptStats) *Ranking {
	ranked := stats.Scripts()
	sort.SliceStable(ranked, func(i, j int) bool {
		return stats.counts[ranked[i]] > stats.counts[ranked[j]]
	})
	ans := &Ranking{
		scriptToID: make(map[string]int, len(ranked)),
		idToScript: ranked,
		counts:     make([]int, len(ranked)),
	}
	for i, script := range ranked {
		ans.scriptToID[script] = i
		ans.counts[i] = stats.counts[script]
	}
	return ans
}

// ClassOf returns class id of a script
func (r *Ranking) ClassOf(script string) (int, bool) {
	id, ok := r.scriptToID[script]
	return id, ok
}

// Script returns a script for a class id
func (r *Ranking) Script(id int) (string, error) {
	if id < 0 || id >= len(r.idToScript) {
		return "", fmt.Errorf("lemma script class %d out of range", id)
	}
	return r.idToScript[id], nil
}

func (r *Ranking) NumClasses() int {
	return len(r.idToScript)
}

func (r *Ranking) IDToScript() []string {
	return slices.Clone(r.idToScript)
}

func (r *Ranking) ScriptToID() map[string]int {
	ans := make(map[string]int, len(r.scriptToID))
	for k, v := range r.scriptToID {
		ans[k] = v
	}
	return ans
}

// CountOf returns frequency of a class
func (r *Ranking) CountOf(id int) int {
	return r.counts[id]
}

// --------------------------

// AssignLemmaTags is the final stage of lemma labeling. It stores
// class ids of the tokens' scripts in the respective documents.
// The documents must be the same (and in the same order) as the ones
// the stats were collected from.
func AssignLemmaTags(docs []*treebank.Document, stats *ScriptStats, ranking *Ranking) error {
	if len(docs) != len(stats.docScripts) {
		return fmt.Errorf(
			"cannot assign lemma tags - stats collected for %d documents, got %d",
			len(stats.docScripts), len(docs))
	}
	for i, d := range docs {
		scripts := stats.docScripts[i]
		if len(scripts) != d.Len() {
			return fmt.Errorf("cannot assign lemma tags - document %d changed after stats collection", i)
		}
		tags := make([]int, len(scripts))
		for j, script := range scripts {
			id, ok := ranking.ClassOf(script)
			if !ok {
				return fmt.Errorf("lemma script %s not ranked", script)
			}
			tags[j] = id
		}
		d.SetLemmaTags(tags)
	}
	return nil
}

// --------------------------

// Labeling is a result of the whole lemma labeling pipeline
type Labeling struct {
	Stats   *ScriptStats
	Ranking *Ranking
}

// Label runs all the lemma labeling stages over the documents
// (stats collection, ranking, assignment).
func Label(docs []*treebank.Document, gen ScriptGenerator) (*Labeling, error) {
	stats := CollectStats(docs, gen)
	ranking := NewRanking(stats)
	if err := AssignLemmaTags(docs, stats, ranking); err != nil {
		return nil, err
	}
	log.Info().
		Int("numDocs", len(docs)).
		Int("numTokens", stats.Total()).
		Int("numScripts", ranking.NumClasses()).
		Msg("lemma scripts assigned")
	return &Labeling{Stats: stats, Ranking: ranking}, nil
}
