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
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"tbprep/corpus"
	"tbprep/lemma"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

const testData = `# sent_id = s1
# text = Dogs bark
1	Dogs	dog	_	_	Number=Plur	_	_	_	_
2	bark	bark	_	_	Number=Plur;Person=3	_	_	_	_

1	dog	dog	_	_	_	_	_	_	_
`

func newTestEngine(t *testing.T, labeled bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	c := corpus.New("", "", 1)
	require.NoError(t, c.ParseReader(context.Background(), strings.NewReader(testData), "test"))
	if labeled {
		require.NoError(t, c.SetLemmaTags(lemma.EditScriptGenerator{Lang: language.English}))
	}
	actions := NewActions(c, 0, language.Und)
	engine := gin.New()
	engine.GET("/corpus", actions.CorpusInfo)
	engine.GET("/corpus/docs/:idx", actions.Document)
	engine.GET("/corpus/lemmaScripts", actions.LemmaScripts)
	engine.GET("/corpus/lemmaScripts/page", actions.LemmaScriptsPage)
	return engine
}

func doGet(engine *gin.Engine, url string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	engine.ServeHTTP(w, req)
	return w
}

func TestCorpusInfo(t *testing.T) {
	w := doGet(newTestEngine(t, true), "/corpus")
	require.Equal(t, http.StatusOK, w.Code)
	var ans corpusInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ans))
	assert.Equal(t, 2, ans.NumDocuments)
	assert.Equal(t, 3, ans.NumTokens)
	assert.Equal(t, 5, ans.TokenVocabSize)
	assert.Equal(t, 2, ans.MorphTagVocabSize)
	assert.Equal(t, 2, ans.NumLemmaClasses)
}

func TestDocument(t *testing.T) {
	w := doGet(newTestEngine(t, true), "/corpus/docs/0")
	require.Equal(t, http.StatusOK, w.Code)
	var ans documentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ans))
	require.NotNil(t, ans.SentID)
	assert.Equal(t, "s1", *ans.SentID)
	assert.Equal(t, []string{"Dogs", "bark"}, ans.Tokens)
	assert.Equal(t, [][]string{{"Number=Plur"}, {"Number=Plur", "Person=3"}}, ans.MorphTags)
	assert.Len(t, ans.LemmaScripts, 2)
	assert.Len(t, ans.CharIndices, 2)
	assert.Nil(t, ans.WordEmbeddings)
}

func TestDocumentWithoutMetadata(t *testing.T) {
	w := doGet(newTestEngine(t, false), "/corpus/docs/1")
	require.Equal(t, http.StatusOK, w.Code)
	var ans documentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ans))
	assert.Nil(t, ans.SentID)
	assert.Nil(t, ans.Text)
	assert.Nil(t, ans.LemmaScripts)
}

func TestDocumentNotFound(t *testing.T) {
	engine := newTestEngine(t, true)
	assert.Equal(t, http.StatusNotFound, doGet(engine, "/corpus/docs/2").Code)
	assert.Equal(t, http.StatusBadRequest, doGet(engine, "/corpus/docs/foo").Code)
}

func TestLemmaScripts(t *testing.T) {
	w := doGet(newTestEngine(t, true), "/corpus/lemmaScripts?n=1")
	require.Equal(t, http.StatusOK, w.Code)
	var ans struct {
		Scripts []lemma.OverviewRow `json:"scripts"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ans))
	require.Len(t, ans.Scripts, 1)
	assert.Equal(t, 2, ans.Scripts[0].Count)
}

func TestLemmaScriptsNotLabeled(t *testing.T) {
	w := doGet(newTestEngine(t, false), "/corpus/lemmaScripts")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLemmaScriptsPage(t *testing.T) {
	w := doGet(newTestEngine(t, true), "/corpus/lemmaScripts/page")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "Dogs")
}
