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

package api

import (
	"errors"
	"net/http"
	"strconv"

	"tbprep/corpus"
	"tbprep/lemma"
	"tbprep/treebank"

	"github.com/czcorpus/cnc-gokit/unireq"
	"github.com/czcorpus/cnc-gokit/uniresp"
	"github.com/gin-gonic/gin"
	"golang.org/x/text/language"
)

type corpusInfo struct {
	NumDocuments      int `json:"numDocuments"`
	NumTokens         int `json:"numTokens"`
	TokenVocabSize    int `json:"tokenVocabSize"`
	CharVocabSize     int `json:"charVocabSize"`
	MorphTagVocabSize int `json:"morphTagVocabSize"`
	NumLemmaClasses   int `json:"numLemmaClasses"`
}

type embeddingsInfo struct {
	Source string `json:"source"`
	Rows   int    `json:"rows"`
	Dim    int    `json:"dim"`
}

func newEmbeddingsInfo(m treebank.Matrix, source string) *embeddingsInfo {
	if m == nil {
		return nil
	}
	rows, dim := m.Shape()
	return &embeddingsInfo{Source: source, Rows: rows, Dim: dim}
}

type documentResponse struct {
	Index             int             `json:"index"`
	SentID            *string         `json:"sentId"`
	Text              *string         `json:"text"`
	Tokens            []string        `json:"tokens"`
	Lemmas            []string        `json:"lemmas"`
	MorphTags         [][]string      `json:"morphTags"`
	TokenIndices      []int           `json:"tokenIndices,omitempty"`
	CharIndices       [][]int         `json:"charIndices,omitempty"`
	MorphTagsTensor   treebank.Matrix `json:"morphTagsTensor,omitempty"`
	LemmaTags         []int           `json:"lemmaTags,omitempty"`
	LemmaScripts      []string        `json:"lemmaScripts,omitempty"`
	WordEmbeddings    *embeddingsInfo `json:"wordEmbeddings"`
	ContextEmbeddings *embeddingsInfo `json:"contextEmbeddings"`
}

func optional(v string, ok bool) *string {
	if !ok {
		return nil
	}
	return &v
}

// Actions provide read-only access to a prepared corpus
type Actions struct {
	corp         *corpus.DocumentCorpus
	overviewSize int
	lang         language.Tag
}

// CorpusInfo godoc
// @Summary      Basic information about the prepared corpus
// @Produce      json
// @Success      200 {object} any
// @Router       /corpus [get]
func (a *Actions) CorpusInfo(ctx *gin.Context) {
	ans := corpusInfo{
		NumDocuments: a.corp.Len(),
		NumTokens:    a.corp.NumTokens(),
	}
	if v := a.corp.Vocabs(); v != nil {
		ans.TokenVocabSize = v.Tokens.Len()
		ans.CharVocabSize = v.Chars.Len()
		ans.MorphTagVocabSize = v.MorphTags.Len()
	}
	if lab := a.corp.Labeling(); lab != nil {
		ans.NumLemmaClasses = lab.Ranking.NumClasses()
	}
	uniresp.WriteJSONResponse(ctx.Writer, ans)
}

// Document godoc
// @Summary      Symbolic and derived data of a single document
// @Produce      json
// @Param        idx path int true "Document index"
// @Success      200 {object} any
// @Router       /corpus/docs/{idx} [get]
func (a *Actions) Document(ctx *gin.Context) {
	idx, err := strconv.Atoi(ctx.Param("idx"))
	if err != nil {
		uniresp.WriteJSONErrorResponse(
			ctx.Writer,
			uniresp.NewActionError("invalid document index: %s", ctx.Param("idx")),
			http.StatusBadRequest,
		)
		return
	}
	doc, err := a.corp.At(idx)
	if err != nil {
		uniresp.WriteJSONErrorResponse(
			ctx.Writer, uniresp.NewActionError("%w", err), http.StatusNotFound)
		return
	}
	ans := documentResponse{
		Index:           idx,
		SentID:          optional(doc.SentID()),
		Text:            optional(doc.Text()),
		Tokens:          doc.Tokens(),
		Lemmas:          doc.Lemmas(),
		MorphTags:       make([][]string, doc.Len()),
		TokenIndices:    doc.TokensTensor(),
		CharIndices:     doc.CharsTensor(),
		MorphTagsTensor: doc.MorphTagsTensor(),
		LemmaTags:       doc.LemmaTags(),
	}
	for i, ts := range doc.MorphTags() {
		ans.MorphTags[i] = ts
	}
	if lab := a.corp.Labeling(); lab != nil && ans.LemmaTags != nil {
		ans.LemmaScripts = make([]string, len(ans.LemmaTags))
		for i, id := range ans.LemmaTags {
			ans.LemmaScripts[i], err = lab.Ranking.Script(id)
			if err != nil {
				uniresp.WriteJSONErrorResponse(
					ctx.Writer, uniresp.NewActionError("%w", err), http.StatusInternalServerError)
				return
			}
		}
	}
	ans.WordEmbeddings = newEmbeddingsInfo(doc.WordEmbeddings())
	ans.ContextEmbeddings = newEmbeddingsInfo(doc.ContextEmbeddings())
	uniresp.WriteJSONResponse(ctx.Writer, ans)
}

// LemmaScripts godoc
// @Summary      The most frequent lemma scripts with examples
// @Produce      json
// @Param        n query int false "Number of scripts" default(11)
// @Success      200 {object} any
// @Router       /corpus/lemmaScripts [get]
func (a *Actions) LemmaScripts(ctx *gin.Context) {
	n, ok := unireq.GetURLIntArgOrFail(ctx, "n", a.overviewSize)
	if !ok {
		return
	}
	rows, err := a.corp.LemmaTagsOverview(n)
	if errors.Is(err, corpus.ErrorNotLabeled) {
		uniresp.WriteJSONErrorResponse(
			ctx.Writer, uniresp.NewActionError("%w", err), http.StatusNotFound)
		return

	} else if err != nil {
		uniresp.WriteJSONErrorResponse(
			ctx.Writer, uniresp.NewActionError("%w", err), http.StatusInternalServerError)
		return
	}
	uniresp.WriteJSONResponse(ctx.Writer, struct {
		Scripts []lemma.OverviewRow `json:"scripts"`
	}{Scripts: rows})
}

func NewActions(corp *corpus.DocumentCorpus, overviewSize int, lang language.Tag) *Actions {
	if overviewSize <= 0 {
		overviewSize = lemma.DefaultOverviewSize
	}
	return &Actions{corp: corp, overviewSize: overviewSize, lang: defaultLang(lang)}
}
