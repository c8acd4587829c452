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

package corpus

import (
	"context"
	"errors"
	"fmt"
	"io"

	"tbprep/align"
	"tbprep/embed"
	"tbprep/lemma"
	"tbprep/tensor"
	"tbprep/treebank"
	"tbprep/vocab"

	"github.com/rs/zerolog/log"
)

var (
	ErrorDocumentNotFound = errors.New("document not found")
	ErrorNotLabeled       = errors.New("lemma scripts not assigned")
	ErrorUnknownMorphTag  = errors.New("unknown morphological tag")
)

// DocumentCorpus owns parsed documents along with all the corpus-wide
// derived data (vocabularies, lemma script ranking).
// The derived data always reflect the document set at the time
// the respective pass ran. Appending documents does not update them.
type DocumentCorpus struct {
	docs       []*treebank.Document
	unkToken   string
	padToken   string
	numWorkers int
	vocabs     *vocab.Vocabularies
	labeling   *lemma.Labeling
}

func (c *DocumentCorpus) Len() int {
	return len(c.docs)
}

func (c *DocumentCorpus) At(idx int) (*treebank.Document, error) {
	if idx < 0 || idx >= len(c.docs) {
		return nil, fmt.Errorf("%w: index %d, corpus size %d", ErrorDocumentNotFound, idx, len(c.docs))
	}
	return c.docs[idx], nil
}

func (c *DocumentCorpus) Docs() []*treebank.Document {
	return c.docs
}

// NumTokens returns the total number of tokens in all the documents
func (c *DocumentCorpus) NumTokens() int {
	var ans int
	for _, d := range c.docs {
		ans += d.Len()
	}
	return ans
}

func (c *DocumentCorpus) Append(doc *treebank.Document) {
	c.docs = append(c.docs, doc)
}

// Clear removes all the documents and the derived data
func (c *DocumentCorpus) Clear() {
	c.docs = []*treebank.Document{}
	c.vocabs = nil
	c.labeling = nil
}

// Vocabs returns corpus vocabularies or nil if not built yet
func (c *DocumentCorpus) Vocabs() *vocab.Vocabularies {
	return c.vocabs
}

// Labeling returns lemma script stats and ranking or nil if
// lemma tags have not been assigned yet
func (c *DocumentCorpus) Labeling() *lemma.Labeling {
	return c.labeling
}

// LookupToken returns the index of a token in the token vocabulary
// (or vocab.UnknownIndex for unknown tokens)
func (c *DocumentCorpus) LookupToken(tok string) (int, error) {
	if c.vocabs == nil {
		return 0, vocab.ErrorUnbuiltVocabulary
	}
	return c.vocabs.Tokens.Lookup(tok), nil
}

func (c *DocumentCorpus) LookupChar(ch string) (int, error) {
	if c.vocabs == nil {
		return 0, vocab.ErrorUnbuiltVocabulary
	}
	return c.vocabs.Chars.Lookup(ch), nil
}

// LookupMorphTag returns the column of a morphological tag. As the tag
// vocabulary has no unknown entry, a missing tag is an error.
func (c *DocumentCorpus) LookupMorphTag(tag string) (int, error) {
	if c.vocabs == nil {
		return 0, vocab.ErrorUnbuiltVocabulary
	}
	idx, ok := c.vocabs.MorphTags.Lookup(tag)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrorUnknownMorphTag, tag)
	}
	return idx, nil
}

// ParseTreeFile appends all the documents from a treebank file
// and then rebuilds the vocabularies and tensorizes all the documents
// (including the ones parsed before). In case the file cannot be parsed,
// the corpus is left untouched.
func (c *DocumentCorpus) ParseTreeFile(ctx context.Context, path string) error {
	parsed := make([]*treebank.Document, 0, 100)
	err := treebank.ParseFile(path, func(doc *treebank.Document) {
		parsed = append(parsed, doc)
	})
	if err != nil {
		return err
	}
	return c.addParsed(ctx, parsed, path)
}

// ParseReader works the same way as ParseTreeFile, just with
// a generic reader. The name is used in error reporting.
func (c *DocumentCorpus) ParseReader(ctx context.Context, r io.Reader, name string) error {
	parsed := make([]*treebank.Document, 0, 100)
	err := treebank.ParseReader(r, name, func(doc *treebank.Document) {
		parsed = append(parsed, doc)
	})
	if err != nil {
		return err
	}
	return c.addParsed(ctx, parsed, name)
}

func (c *DocumentCorpus) addParsed(ctx context.Context, parsed []*treebank.Document, src string) error {
	numPrev := len(c.docs)
	c.docs = append(c.docs, parsed...)
	if err := c.BuildVocabs(); err != nil {
		c.docs = c.docs[:numPrev]
		return fmt.Errorf("failed to build vocabularies after parsing %s: %w", src, err)
	}
	if err := c.Tensorize(ctx); err != nil {
		return fmt.Errorf("failed to tensorize documents after parsing %s: %w", src, err)
	}
	log.Info().
		Str("source", src).
		Int("numDocs", c.Len()).
		Msg("treebank data added to the corpus")
	return nil
}

// BuildVocabs (re)creates the vocabularies from the current documents
func (c *DocumentCorpus) BuildVocabs() error {
	vs, err := vocab.Build(c.docs, c.unkToken, c.padToken)
	if err != nil {
		return err
	}
	c.vocabs = vs
	return nil
}

func (c *DocumentCorpus) Tensorize(ctx context.Context) error {
	return tensor.TensorizeAll(ctx, c.docs, c.vocabs, c.numWorkers)
}

// SetLemmaTags runs the lemma labeling over all the documents
func (c *DocumentCorpus) SetLemmaTags(gen lemma.ScriptGenerator) error {
	lab, err := lemma.Label(c.docs, gen)
	if err != nil {
		return err
	}
	c.labeling = lab
	return nil
}

// LemmaTagsOverview returns n most frequent lemma scripts with examples
func (c *DocumentCorpus) LemmaTagsOverview(n int) ([]lemma.OverviewRow, error) {
	if c.labeling == nil {
		return nil, ErrorNotLabeled
	}
	return c.labeling.Overview(n), nil
}

func (c *DocumentCorpus) AddWordEmbs(provider embed.Provider, lowerCaseBackup bool) {
	embed.Attach(c.docs, provider, lowerCaseBackup)
}

// AddContextEmbs attaches contextual embeddings to all the documents.
// The onDocDone callback (if not nil) is called after each processed
// document. The first failing document stops the processing.
func (c *DocumentCorpus) AddContextEmbs(
	ctx context.Context,
	tokenizer align.Tokenizer,
	encoder align.ContextEncoder,
	onDocDone func(idx int),
) error {
	aligner := &align.Aligner{
		Tokenizer: tokenizer,
		Encoder:   encoder,
		NumLayers: align.DefaultNumLayers,
	}
	for i, doc := range c.docs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := aligner.Align(ctx, doc); err != nil {
			return fmt.Errorf("failed to add context embeddings to document %d: %w", i, err)
		}
		if onDocDone != nil {
			onDocDone(i)
		}
	}
	log.Info().
		Str("encoder", encoder.Name()).
		Int("numDocs", c.Len()).
		Msg("context embeddings attached")
	return nil
}

func (c *DocumentCorpus) String() string {
	return fmt.Sprintf("DocumentCorpus(%d documents)", len(c.docs))
}

// New creates an empty corpus. Empty unkToken/padToken values
// are replaced by the defaults.
func New(unkToken, padToken string, numWorkers int) *DocumentCorpus {
	if unkToken == "" {
		unkToken = vocab.DefaultUnkToken
	}
	if padToken == "" {
		padToken = vocab.DefaultPadToken
	}
	if numWorkers < 1 {
		numWorkers = 1
	}
	return &DocumentCorpus{
		docs:       []*treebank.Document{},
		unkToken:   unkToken,
		padToken:   padToken,
		numWorkers: numWorkers,
	}
}
