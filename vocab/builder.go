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
	"fmt"

	"tbprep/treebank"

	"github.com/rs/zerolog/log"
)

// Vocabularies is a set of closed vocabularies derived from a corpus
type Vocabularies struct {
	Tokens    *Vocab
	Chars     *Vocab
	MorphTags *TagVocab
}

// Build scans all the documents once and creates token, character and
// morphological tag vocabularies. The result reflects exactly the documents
// passed, later changes of the document set are not reflected.
func Build(docs []*treebank.Document, unkToken, padToken string) (*Vocabularies, error) {
	tokenFreqs := make(map[string]int)
	charFreqs := make(map[string]int)
	tags := make(map[string]struct{})
	for _, d := range docs {
		for _, tok := range d.Tokens() {
			tokenFreqs[tok]++
			for _, c := range tok {
				charFreqs[string(c)]++
			}
		}
		for _, tagset := range d.MorphTags() {
			for _, tag := range tagset {
				tags[tag] = struct{}{}
			}
		}
	}
	tokens, err := NewVocab(tokenFreqs, unkToken, padToken)
	if err != nil {
		return nil, fmt.Errorf("failed to build token vocabulary: %w", err)
	}
	chars, err := NewVocab(charFreqs, unkToken, padToken)
	if err != nil {
		return nil, fmt.Errorf("failed to build character vocabulary: %w", err)
	}
	ans := &Vocabularies{
		Tokens:    tokens,
		Chars:     chars,
		MorphTags: NewTagVocab(tags),
	}
	log.Debug().
		Int("numDocs", len(docs)).
		Int("tokenVocabSize", ans.Tokens.Len()).
		Int("charVocabSize", ans.Chars.Len()).
		Int("morphTagVocabSize", ans.MorphTags.Len()).
		Msg("built corpus vocabularies")
	return ans, nil
}
