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

package vocab

import (
	"errors"
	"fmt"
	"slices"
	"sort"
)

const (
	// UnknownIndex is the index returned for any string
	// not present in a vocabulary
	UnknownIndex = 0

	// PaddingIndex is reserved for sequence padding
	PaddingIndex = 1

	DefaultUnkToken = "<UNK>"
	DefaultPadToken = "<PAD>"
)

var (
	ErrorUnbuiltVocabulary = errors.New("vocabularies have not been built yet")
	ErrorSameSpecialTokens = errors.New("unknown and padding tokens must differ")
)

// Vocab is a closed bidirectional mapping between strings and
// small integers. The first two entries are always the unknown
// and the padding symbol.
type Vocab struct {
	itos []string
	stoi map[string]int
}

// Lookup returns index of s or UnknownIndex in case s is not
// part of the vocabulary.
func (v *Vocab) Lookup(s string) int {
	if idx, ok := v.stoi[s]; ok {
		return idx
	}
	return UnknownIndex
}

func (v *Vocab) LookupIndices(items []string) []int {
	ans := make([]int, len(items))
	for i, s := range items {
		ans[i] = v.Lookup(s)
	}
	return ans
}

func (v *Vocab) Contains(s string) bool {
	_, ok := v.stoi[s]
	return ok
}

func (v *Vocab) Token(idx int) (string, error) {
	if idx < 0 || idx >= len(v.itos) {
		return "", fmt.Errorf("vocabulary index %d out of range", idx)
	}
	return v.itos[idx], nil
}

// Tokens returns all the entries ordered by their indices
func (v *Vocab) Tokens() []string {
	return slices.Clone(v.itos)
}

func (v *Vocab) Len() int {
	return len(v.itos)
}

func (v *Vocab) UnkToken() string {
	return v.itos[UnknownIndex]
}

func (v *Vocab) PadToken() string {
	return v.itos[PaddingIndex]
}

// NewVocab creates a vocabulary out of string frequencies. Entries are
// ordered by descending frequency, entries with the same frequency
// are ordered lexicographically. Specials are placed first regardless
// of their possible occurrence in the data.
func NewVocab(freqs map[string]int, unkToken, padToken string) (*Vocab, error) {
	if unkToken == padToken {
		return nil, fmt.Errorf("%w: %q", ErrorSameSpecialTokens, unkToken)
	}
	v := &Vocab{
		itos: make([]string, 0, len(freqs)+2),
		stoi: make(map[string]int, len(freqs)+2),
	}
	v.add(unkToken)
	v.add(padToken)
	items := make([]string, 0, len(freqs))
	for k := range freqs {
		items = append(items, k)
	}
	sort.Slice(items, func(i, j int) bool {
		if freqs[items[i]] != freqs[items[j]] {
			return freqs[items[i]] > freqs[items[j]]
		}
		return items[i] < items[j]
	})
	for _, item := range items {
		v.add(item)
	}
	return v, nil
}

func (v *Vocab) add(s string) {
	if _, ok := v.stoi[s]; ok {
		return
	}
	v.stoi[s] = len(v.itos)
	v.itos = append(v.itos, s)
}

// ---------------------

// TagVocab maps morphological tags to dense column indices. Unlike
// Vocab, there is no unknown entry so the caller has to decide
// what to do with a missing tag.
type TagVocab struct {
	tags  []string
	index map[string]int
}

func (tv *TagVocab) Lookup(tag string) (int, bool) {
	idx, ok := tv.index[tag]
	return idx, ok
}

func (tv *TagVocab) Len() int {
	return len(tv.tags)
}

func (tv *TagVocab) Tags() []string {
	return slices.Clone(tv.tags)
}

// AsMap exports the vocabulary as tag => index mapping
func (tv *TagVocab) AsMap() map[string]int {
	ans := make(map[string]int, len(tv.index))
	for k, v := range tv.index {
		ans[k] = v
	}
	return ans
}

// NewTagVocab assigns indices to tags in lexicographical order
func NewTagVocab(tags map[string]struct{}) *TagVocab {
	tv := &TagVocab{
		tags:  make([]string, 0, len(tags)),
		index: make(map[string]int, len(tags)),
	}
	for t := range tags {
		tv.tags = append(tv.tags, t)
	}
	slices.Sort(tv.tags)
	for i, t := range tv.tags {
		tv.index[t] = i
	}
	return tv
}
