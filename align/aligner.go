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

package align

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"tbprep/treebank"
)

const (
	// DefaultNumLayers is the number of last encoder layers
	// averaged into a sub-word vector
	DefaultNumLayers = 4
)

// Span is a character (not byte) range [Start, End) within a text
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Encoding is a result of sub-word tokenization of a whole text.
// The first and the last item are structural tokens (e.g. [CLS], [SEP]).
type Encoding struct {
	Tokens  []string
	IDs     []int
	Offsets []Span
}

func (enc *Encoding) Len() int {
	return len(enc.Offsets)
}

// Tokenizer splits a raw text into sub-word tokens with character offsets
type Tokenizer interface {
	Encode(text string) (*Encoding, error)
}

// ContextEncoder provides hidden states (layers x sub-words x dim)
// for a tokenized text
type ContextEncoder interface {
	Name() string
	HiddenStates(ctx context.Context, enc *Encoding) ([][][]float32, error)
}

// AlignmentError reports a document whose tokens cannot be mapped
// to its raw text or to the sub-word tokens of the text. No partial
// alignment is ever produced.
type AlignmentError struct {
	SentID     string
	TokenIdx   int
	Token      string
	SearchFrom int
	Reason     string
}

func (err *AlignmentError) Error() string {
	return fmt.Sprintf(
		"failed to align document %s at token %d (%q, searching from char %d): %s",
		err.SentID, err.TokenIdx, err.Token, err.SearchFrom, err.Reason,
	)
}

// TokenSpans locates tokens in text. Each token is searched literally
// starting right after the previous token's match so repeated tokens
// are handled as long as the tokens follow the text order.
func TokenSpans(text string, tokens []string) ([]Span, error) {
	ans := make([]Span, len(tokens))
	var bytePos, runePos int
	for i, tok := range tokens {
		found := strings.Index(text[bytePos:], tok)
		if found < 0 {
			return nil, &AlignmentError{
				TokenIdx:   i,
				Token:      tok,
				SearchFrom: runePos,
				Reason:     "token not found in the raw text",
			}
		}
		start := runePos + utf8.RuneCountInString(text[bytePos:bytePos+found])
		ans[i] = Span{Start: start, End: start + utf8.RuneCountInString(tok)}
		bytePos += found + len(tok)
		runePos = ans[i].End
	}
	return ans, nil
}

// Correspondence maps each corpus token to the indices of the sub-word
// tokens realizing it. Structural first and last sub-words are not assigned
// but they still count in the indexing (i.e. the first real sub-word has index 1).
// A token bucket is closed once a sub-word ends exactly where the token ends.
func Correspondence(tokenSpans []Span, subwords []Span) ([][]int, error) {
	if len(subwords) < 2 {
		return nil, &AlignmentError{
			Reason: "sub-word tokenization without structural tokens",
		}
	}
	ans := make([][]int, len(tokenSpans))
	var idx int
	for i, sw := range subwords[1 : len(subwords)-1] {
		if idx >= len(tokenSpans) {
			return nil, &AlignmentError{
				TokenIdx:   idx,
				SearchFrom: sw.Start,
				Reason:     fmt.Sprintf("sub-word token %d is beyond the last corpus token", i+1),
			}
		}
		ans[idx] = append(ans[idx], i+1)
		if sw.End == tokenSpans[idx].End {
			idx++
		}
	}
	if idx < len(tokenSpans) {
		return nil, &AlignmentError{
			TokenIdx:   idx,
			SearchFrom: tokenSpans[idx].Start,
			Reason:     "sub-words exhausted before reaching the end of the token",
		}
	}
	return ans, nil
}

// AverageLayers averages the last numLayers layers of hidden states
// element-wise producing one vector per sub-word. If there are fewer
// layers, all of them are used.
func AverageLayers(hidden [][][]float32, numLayers int) ([][]float32, error) {
	if len(hidden) == 0 {
		return nil, fmt.Errorf("no hidden states")
	}
	numLayers = min(numLayers, len(hidden))
	layers := hidden[len(hidden)-numLayers:]
	numSubwords := len(layers[0])
	ans := make([][]float32, numSubwords)
	for i := range ans {
		dim := len(layers[0][i])
		ans[i] = make([]float32, dim)
		for _, layer := range layers {
			if len(layer) != numSubwords || len(layer[i]) != dim {
				return nil, fmt.Errorf("inconsistent shape of hidden states")
			}
			for j, v := range layer[i] {
				ans[i][j] += v
			}
		}
		for j := range ans[i] {
			ans[i][j] /= float32(numLayers)
		}
	}
	return ans, nil
}

// MeanPool creates a token-level matrix by averaging vectors of
// each token's sub-words
func MeanPool(vectors [][]float32, corr [][]int) treebank.Matrix {
	ans := make(treebank.Matrix, len(corr))
	for i, bucket := range corr {
		if len(bucket) == 0 {
			continue
		}
		row := make([]float32, len(vectors[bucket[0]]))
		for _, swIdx := range bucket {
			for j, v := range vectors[swIdx] {
				row[j] += v
			}
		}
		for j := range row {
			row[j] /= float32(len(bucket))
		}
		ans[i] = row
	}
	return ans
}

// ------------------------

// Alignment describes how tokens of a document map to its text
// and to the sub-word tokens
type Alignment struct {
	TokenSpans     []Span
	Correspondence [][]int
}

// Aligner attaches word-level contextual embeddings to documents.
// For each document, the tokenizer and the encoder are invoked exactly
// once over the whole raw text.
type Aligner struct {
	Tokenizer Tokenizer
	Encoder   ContextEncoder
	NumLayers int
}

// Align computes the alignment of a document and sets its context embeddings.
// Errors of the tokenizer and the encoder are returned as they are.
func (a *Aligner) Align(ctx context.Context, doc *treebank.Document) (*Alignment, error) {
	sentID, _ := doc.SentID()
	text, ok := doc.Text()
	if !ok {
		return nil, &AlignmentError{SentID: sentID, Reason: "document has no raw text"}
	}
	spans, err := TokenSpans(text, doc.Tokens())
	if err != nil {
		return nil, withSentID(err, sentID)
	}
	enc, err := a.Tokenizer.Encode(text)
	if err != nil {
		return nil, err
	}
	corr, err := Correspondence(spans, enc.Offsets)
	if err != nil {
		return nil, withSentID(err, sentID)
	}
	hidden, err := a.Encoder.HiddenStates(ctx, enc)
	if err != nil {
		return nil, err
	}
	numLayers := a.NumLayers
	if numLayers <= 0 {
		numLayers = DefaultNumLayers
	}
	vectors, err := AverageLayers(hidden, numLayers)
	if err != nil {
		return nil, fmt.Errorf("failed to process hidden states of %s: %w", a.Encoder.Name(), err)
	}
	if len(vectors) != enc.Len() {
		return nil, fmt.Errorf(
			"encoder %s returned %d vectors for %d sub-words",
			a.Encoder.Name(), len(vectors), enc.Len())
	}
	doc.SetContextEmbeddings(MeanPool(vectors, corr), a.Encoder.Name())
	return &Alignment{TokenSpans: spans, Correspondence: corr}, nil
}

func withSentID(err error, sentID string) error {
	if tErr, ok := err.(*AlignmentError); ok {
		tErr.SentID = sentID
	}
	return err
}
