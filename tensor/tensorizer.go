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

package tensor

import (
	"context"
	"fmt"

	"tbprep/treebank"
	"tbprep/vocab"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Tensorize encodes a single document using already built vocabularies:
// per-token character indices, token indices and a multi-hot matrix
// of morphological tags (tokens x tag vocabulary size).
// The function reads only the vocabularies and the document itself so it
// is safe to call concurrently for different documents.
func Tensorize(doc *treebank.Document, v *vocab.Vocabularies) error {
	if v == nil || v.Tokens == nil || v.Chars == nil || v.MorphTags == nil {
		return vocab.ErrorUnbuiltVocabulary
	}
	tokens := doc.Tokens()
	chars := make([][]int, len(tokens))
	for i, tok := range tokens {
		runes := []rune(tok)
		chars[i] = make([]int, len(runes))
		for j, c := range runes {
			chars[i][j] = v.Chars.Lookup(string(c))
		}
	}
	morphTags := make(treebank.Matrix, len(tokens))
	for i, tagset := range doc.MorphTags() {
		morphTags[i] = make([]float32, v.MorphTags.Len())
		for _, tag := range tagset {
			if col, ok := lookupTag(v.MorphTags, tag); ok {
				morphTags[i][col] = 1
			}
		}
	}
	doc.SetTensors(chars, v.Tokens.LookupIndices(tokens), morphTags)
	return nil
}

// lookupTag maps a tag missing in the vocabulary to the "no tags"
// value which never has its own column.
func lookupTag(tv *vocab.TagVocab, tag string) (int, bool) {
	if _, ok := tv.Lookup(tag); !ok {
		tag = treebank.NoTags
	}
	return tv.Lookup(tag)
}

// TensorizeAll tensorizes all the documents using numWorkers goroutines.
// The result does not depend on the number of workers.
func TensorizeAll(
	ctx context.Context,
	docs []*treebank.Document,
	v *vocab.Vocabularies,
	numWorkers int,
) error {
	if v == nil {
		return vocab.ErrorUnbuiltVocabulary
	}
	if numWorkers < 1 {
		numWorkers = 1
	}
	grp, gctx := errgroup.WithContext(ctx)
	grp.SetLimit(numWorkers)
	for i, d := range docs {
		if err := gctx.Err(); err != nil {
			break
		}
		grp.Go(func() error {
			if err := Tensorize(d, v); err != nil {
				return fmt.Errorf("failed to tensorize document %d: %w", i, err)
			}
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	log.Debug().
		Int("numDocs", len(docs)).
		Int("numWorkers", numWorkers).
		Msg("documents tensorized")
	return nil
}
