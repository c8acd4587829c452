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

import "fmt"

// Matrix is a dense row-major matrix, one row per token
type Matrix [][]float32

// Shape returns number of rows and columns. For an empty
// matrix, the number of columns is zero.
func (m Matrix) Shape() (int, int) {
	if len(m) == 0 {
		return 0, 0
	}
	return len(m), len(m[0])
}

// Document is a single annotated sentence along with data
// derived from it by enrichment passes. The enrichment methods
// (Set*) only add derived fields, symbolic data are never modified
// once the parser is done with the document.
type Document struct {
	sentID *string
	text   *string
	tree   Tree

	charsTensor     [][]int
	tokensTensor    []int
	morphTagsTensor Matrix

	lemmaTags []int

	wordEmb     Matrix
	wordEmbType string

	contextEmb   Matrix
	contextModel string
}

func (d *Document) SentID() (string, bool) {
	if d.sentID == nil {
		return "", false
	}
	return *d.sentID, true
}

func (d *Document) SetSentID(v string) {
	d.sentID = &v
}

func (d *Document) Text() (string, bool) {
	if d.text == nil {
		return "", false
	}
	return *d.text, true
}

func (d *Document) SetText(v string) {
	d.text = &v
}

func (d *Document) Tree() *Tree {
	return &d.tree
}

// Len returns number of tokens
func (d *Document) Len() int {
	return d.tree.Len()
}

func (d *Document) Tokens() []string {
	return d.tree.Forms()
}

func (d *Document) Lemmas() []string {
	return d.tree.Lemmas()
}

func (d *Document) MorphTags() []TagSet {
	return d.tree.MorphTags()
}

// isEmpty tells whether the document received anything
// from the parser yet
func (d *Document) isEmpty() bool {
	return d.sentID == nil && d.text == nil && d.tree.Len() == 0
}

// SetTensors attaches vocabulary based encodings of the document
func (d *Document) SetTensors(chars [][]int, tokens []int, morphTags Matrix) {
	d.charsTensor = chars
	d.tokensTensor = tokens
	d.morphTagsTensor = morphTags
}

// CharsTensor returns per-token character indices (nil if not tensorized yet)
func (d *Document) CharsTensor() [][]int {
	return d.charsTensor
}

func (d *Document) TokensTensor() []int {
	return d.tokensTensor
}

func (d *Document) MorphTagsTensor() Matrix {
	return d.morphTagsTensor
}

func (d *Document) IsTensorized() bool {
	return d.tokensTensor != nil
}

// SetLemmaTags attaches lemma script class ids, one per token
func (d *Document) SetLemmaTags(ids []int) {
	d.lemmaTags = ids
}

func (d *Document) LemmaTags() []int {
	return d.lemmaTags
}

// SetWordEmbeddings attaches pretrained word vectors. The source
// describes where the vectors come from.
func (d *Document) SetWordEmbeddings(m Matrix, source string) {
	d.wordEmb = m
	d.wordEmbType = source
}

func (d *Document) WordEmbeddings() (Matrix, string) {
	return d.wordEmb, d.wordEmbType
}

// SetContextEmbeddings attaches word-level contextual vectors produced
// by the named model.
func (d *Document) SetContextEmbeddings(m Matrix, model string) {
	d.contextEmb = m
	d.contextModel = model
}

func (d *Document) ContextEmbeddings() (Matrix, string) {
	return d.contextEmb, d.contextModel
}

func (d *Document) String() string {
	if d.sentID == nil {
		return "Doc(sent_id=None)"
	}
	return fmt.Sprintf("Doc(sent_id=%s)", *d.sentID)
}
