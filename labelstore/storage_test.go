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

package labelstore

import (
	"context"
	"strings"
	"testing"

	"tbprep/corpus"
	"tbprep/lemma"
	"tbprep/vocab"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

const testData = "1\tdog\tdog\t_\t_\t_\t_\t_\t_\t_\n\n1\tdogs\tdog\t_\t_\tNumber=Plur\t_\t_\t_\t_\n"

func prepareCorpus(t *testing.T) *corpus.DocumentCorpus {
	c := corpus.New("", "", 1)
	require.NoError(t, c.ParseReader(context.Background(), strings.NewReader(testData), "test"))
	return c
}

func TestVocabEntries(t *testing.T) {
	c := prepareCorpus(t)
	entries := vocabEntries(c.Vocabs())
	numTokens := c.Vocabs().Tokens.Len()
	numChars := c.Vocabs().Chars.Len()
	require.Len(t, entries, numTokens+numChars+1)
	assert.Equal(t, vocabEntry{Vocab: VocabTokens, Idx: vocab.UnknownIndex, Value: vocab.DefaultUnkToken}, entries[0])
	assert.Equal(t, vocabEntry{Vocab: VocabTokens, Idx: vocab.PaddingIndex, Value: vocab.DefaultPadToken}, entries[1])
	assert.Equal(t, VocabChars, entries[numTokens].Vocab)
	assert.Equal(t, 0, entries[numTokens].Idx)
	assert.Equal(t, vocabEntry{Vocab: VocabMorphTags, Idx: 0, Value: "Number=Plur"}, entries[len(entries)-1])
}

func TestScriptEntries(t *testing.T) {
	c := prepareCorpus(t)
	require.NoError(t, c.SetLemmaTags(lemma.EditScriptGenerator{Lang: language.English}))
	entries := scriptEntries(c)
	require.Len(t, entries, 2)
	for i, e := range entries {
		assert.Equal(t, i, e.ID)
		assert.Equal(t, 1, e.Count)
	}
	assert.NotEqual(t, entries[0].Script, entries[1].Script)
}

func TestStoreRequiresDerivedData(t *testing.T) {
	c := corpus.New("", "", 1)
	_, err := StoreLabelSpace(context.Background(), nil, "test", c)
	assert.Equal(t, vocab.ErrorUnbuiltVocabulary, err)
	c = prepareCorpus(t)
	_, err = StoreLabelSpace(context.Background(), nil, "test", c)
	assert.Equal(t, corpus.ErrorNotLabeled, err)
}

func TestLatestRunOrdering(t *testing.T) {
	runTable := Schema[0]
	assert.Contains(t, runTable, "created DATETIME(6) NOT NULL")
	assert.Contains(t, runTable, "seq BIGINT NOT NULL AUTO_INCREMENT")
	assert.Contains(t, runTable, "UNIQUE KEY (seq)")
	assert.Contains(t, latestScriptsQuery, "ORDER BY r.created DESC, r.seq DESC")
	assert.Less(
		t,
		strings.Index(latestScriptsQuery, "r.seq DESC"),
		strings.Index(latestScriptsQuery, "LIMIT 1"),
	)
}
