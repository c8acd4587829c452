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
	"strings"
	"testing"
	"unicode/utf8"

	"tbprep/align"
	"tbprep/lemma"
	"tbprep/treebank"
	"tbprep/vocab"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

const twoSentences = "1\tdog\tdog\t_\t_\t_\t_\t_\t_\t_\n\n1\tdogs\tdog\t_\t_\tNumber=Plur\t_\t_\t_\t_\n"

const withText = `# sent_id = s1
# text = the dog barks
1	the	the	_	_	_	_	_	_	_
2	dog	dog	_	_	Number=Sing	_	_	_	_
3	barks	bark	_	_	Number=Sing;Person=3	_	_	_	_

# sent_id = s2
# text = dogs bark
1	dogs	dog	_	_	Number=Plur	_	_	_	_
2	bark	bark	_	_	Number=Plur	_	_	_	_
`

// spaceTokenizer treats each whitespace separated word as a single sub-word
type spaceTokenizer struct {
	numCalls int
}

func (st *spaceTokenizer) Encode(text string) (*align.Encoding, error) {
	st.numCalls++
	ans := &align.Encoding{
		Tokens:  []string{"<s>"},
		IDs:     []int{0},
		Offsets: []align.Span{{}},
	}
	var pos int
	for _, w := range strings.Fields(text) {
		idx := strings.Index(text[pos:], w) + pos
		start := utf8.RuneCountInString(text[:idx])
		ans.Tokens = append(ans.Tokens, w)
		ans.IDs = append(ans.IDs, len(ans.IDs))
		ans.Offsets = append(ans.Offsets, align.Span{Start: start, End: start + utf8.RuneCountInString(w)})
		pos = idx + len(w)
	}
	ans.Tokens = append(ans.Tokens, "</s>")
	ans.IDs = append(ans.IDs, 2)
	ans.Offsets = append(ans.Offsets, align.Span{})
	return ans, nil
}

// positionEncoder returns a single layer where each vector holds
// the position of its sub-word
type positionEncoder struct {
	numCalls int
}

func (pe *positionEncoder) Name() string {
	return "position"
}

func (pe *positionEncoder) HiddenStates(ctx context.Context, enc *align.Encoding) ([][][]float32, error) {
	pe.numCalls++
	layer := make([][]float32, enc.Len())
	for i := range layer {
		layer[i] = []float32{float32(i)}
	}
	return [][][]float32{layer}, nil
}

type fixedProvider struct{}

func (fp fixedProvider) Vector(token string, lowerCaseBackup bool) []float32 {
	return []float32{float32(len(token)), 0}
}

func (fp fixedProvider) Dim() int {
	return 2
}

func (fp fixedProvider) Name() string {
	return "fixed"
}

func parseCorpus(t *testing.T, data string) *DocumentCorpus {
	c := New("", "", 2)
	require.NoError(t, c.ParseReader(context.Background(), strings.NewReader(data), "test"))
	return c
}

func TestExampleScenario(t *testing.T) {
	c := parseCorpus(t, twoSentences)
	require.Equal(t, 2, c.Len())
	d0, err := c.At(0)
	require.NoError(t, err)
	d1, err := c.At(1)
	require.NoError(t, err)
	assert.Equal(t, []string{"dog"}, d0.Tokens())
	assert.Equal(t, []string{"dogs"}, d1.Tokens())
	assert.Equal(t, map[string]int{"Number=Plur": 0}, c.Vocabs().MorphTags.AsMap())
	assert.Equal(t, treebank.Matrix{{0}}, d0.MorphTagsTensor())
	assert.Equal(t, treebank.Matrix{{1}}, d1.MorphTagsTensor())

	require.NoError(t, c.SetLemmaTags(lemma.EditScriptGenerator{Lang: language.English}))
	ranking := c.Labeling().Ranking
	assert.Equal(t, 2, ranking.NumClasses())
	assert.Equal(t, []int{0}, d0.LemmaTags())
	assert.Equal(t, []int{1}, d1.LemmaTags())
}

func TestFrequencyInvariant(t *testing.T) {
	c := parseCorpus(t, withText)
	require.NoError(t, c.SetLemmaTags(lemma.EditScriptGenerator{Lang: language.English}))
	var sum int
	for _, cnt := range c.Labeling().Stats.Counts() {
		sum += cnt
	}
	assert.Equal(t, c.NumTokens(), sum)
	assert.Equal(t, 5, sum)
}

func TestDeterministicRanking(t *testing.T) {
	gen := lemma.EditScriptGenerator{Lang: language.English}
	c1 := parseCorpus(t, withText)
	c2 := parseCorpus(t, withText)
	require.NoError(t, c1.SetLemmaTags(gen))
	require.NoError(t, c2.SetLemmaTags(gen))
	assert.Equal(t, c1.Labeling().Ranking.ScriptToID(), c2.Labeling().Ranking.ScriptToID())
	for i := range c1.Docs() {
		assert.Equal(t, c1.Docs()[i].LemmaTags(), c2.Docs()[i].LemmaTags())
	}
}

func TestVocabularyClosure(t *testing.T) {
	c := parseCorpus(t, withText)
	v := c.Vocabs()
	for _, d := range c.Docs() {
		for _, tok := range d.Tokens() {
			assert.True(t, v.Tokens.Contains(tok))
			for _, ch := range tok {
				assert.True(t, v.Chars.Contains(string(ch)))
			}
		}
	}
	assert.Equal(t, vocab.UnknownIndex, v.Tokens.Lookup("cat"))
}

func TestParseAppendsAndRebuilds(t *testing.T) {
	c := parseCorpus(t, twoSentences)
	assert.False(t, c.Vocabs().Tokens.Contains("barks"))
	require.NoError(t, c.ParseReader(context.Background(), strings.NewReader(withText), "test2"))
	assert.Equal(t, 4, c.Len())
	assert.True(t, c.Vocabs().Tokens.Contains("barks"))
	for _, d := range c.Docs() {
		assert.True(t, d.IsTensorized())
	}
}

func TestDerivedDataNotUpdatedOnAppend(t *testing.T) {
	c := parseCorpus(t, twoSentences)
	require.NoError(t, c.SetLemmaTags(lemma.EditScriptGenerator{Lang: language.English}))
	vocabSize := c.Vocabs().Tokens.Len()
	var extra []*treebank.Document
	require.NoError(t, treebank.ParseReader(strings.NewReader(withText), "extra", func(d *treebank.Document) {
		extra = append(extra, d)
	}))
	for _, d := range extra {
		c.Append(d)
	}
	assert.Equal(t, vocabSize, c.Vocabs().Tokens.Len())
	assert.Equal(t, 2, c.Labeling().Stats.Total())
	assert.False(t, extra[0].IsTensorized())
}

func TestAtOutOfRange(t *testing.T) {
	c := parseCorpus(t, twoSentences)
	_, err := c.At(2)
	assert.True(t, errors.Is(err, ErrorDocumentNotFound))
	_, err = c.At(-1)
	assert.Error(t, err)
}

func TestClear(t *testing.T) {
	c := parseCorpus(t, twoSentences)
	c.Clear()
	assert.Equal(t, 0, c.Len())
	assert.Nil(t, c.Vocabs())
	assert.Nil(t, c.Labeling())
	assert.True(t, errors.Is(c.Tensorize(context.Background()), vocab.ErrorUnbuiltVocabulary))
}

func TestFailedParseKeepsCorpus(t *testing.T) {
	c := parseCorpus(t, twoSentences)
	vocabSize := c.Vocabs().Tokens.Len()
	broken := "1\tcat\tcat\t_\t_\t_\t_\t_\t_\t_\n\n1\tx\tx\t_\n"
	err := c.ParseReader(context.Background(), strings.NewReader(broken), "broken")
	var formatErr *treebank.FormatError
	require.True(t, errors.As(err, &formatErr))
	assert.Equal(t, 3, formatErr.Line)
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, vocabSize, c.Vocabs().Tokens.Len())
	assert.False(t, c.Vocabs().Tokens.Contains("cat"))
}

func TestLookupsBeforeVocabs(t *testing.T) {
	c := New("", "", 1)
	_, err := c.LookupToken("dog")
	assert.True(t, errors.Is(err, vocab.ErrorUnbuiltVocabulary))
	_, err = c.LookupChar("d")
	assert.True(t, errors.Is(err, vocab.ErrorUnbuiltVocabulary))
	_, err = c.LookupMorphTag("Number=Plur")
	assert.True(t, errors.Is(err, vocab.ErrorUnbuiltVocabulary))

	c = parseCorpus(t, twoSentences)
	idx, err := c.LookupToken("dogs")
	require.NoError(t, err)
	assert.Equal(t, c.Vocabs().Tokens.Lookup("dogs"), idx)
	idx, err = c.LookupToken("cat")
	require.NoError(t, err)
	assert.Equal(t, vocab.UnknownIndex, idx)
	idx, err = c.LookupChar("s")
	require.NoError(t, err)
	assert.NotEqual(t, vocab.UnknownIndex, idx)
	idx, err = c.LookupMorphTag("Number=Plur")
	require.NoError(t, err)
	assert.Equal(t, 0, idx)
	_, err = c.LookupMorphTag("Number=Sing")
	assert.True(t, errors.Is(err, ErrorUnknownMorphTag))

	c.Clear()
	_, err = c.LookupToken("dogs")
	assert.True(t, errors.Is(err, vocab.ErrorUnbuiltVocabulary))
}

func TestSameSpecialTokens(t *testing.T) {
	c := New("<X>", "<X>", 1)
	err := c.ParseReader(context.Background(), strings.NewReader(twoSentences), "test")
	assert.True(t, errors.Is(err, vocab.ErrorSameSpecialTokens))
	assert.Nil(t, c.Vocabs())
	assert.Equal(t, 0, c.Len())
}

func TestOverviewBeforeLabeling(t *testing.T) {
	c := parseCorpus(t, twoSentences)
	_, err := c.LemmaTagsOverview(lemma.DefaultOverviewSize)
	assert.Equal(t, ErrorNotLabeled, err)
	require.NoError(t, c.SetLemmaTags(lemma.EditScriptGenerator{Lang: language.English}))
	rows, err := c.LemmaTagsOverview(lemma.DefaultOverviewSize)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestAddWordEmbs(t *testing.T) {
	c := parseCorpus(t, twoSentences)
	c.AddWordEmbs(fixedProvider{}, false)
	m, src := c.Docs()[1].WordEmbeddings()
	assert.Equal(t, "fixed", src)
	assert.Equal(t, treebank.Matrix{{4, 0}}, m)
}

func TestAddContextEmbs(t *testing.T) {
	c := parseCorpus(t, withText)
	tok := &spaceTokenizer{}
	enc := &positionEncoder{}
	var done []int
	err := c.AddContextEmbs(context.Background(), tok, enc, func(idx int) {
		done = append(done, idx)
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, done)
	assert.Equal(t, 2, tok.numCalls)
	assert.Equal(t, 2, enc.numCalls)
	m, model := c.Docs()[0].ContextEmbeddings()
	assert.Equal(t, "position", model)
	assert.Equal(t, treebank.Matrix{{1}, {2}, {3}}, m)
}

func TestAddContextEmbsMissingText(t *testing.T) {
	c := parseCorpus(t, twoSentences)
	err := c.AddContextEmbs(context.Background(), &spaceTokenizer{}, &positionEncoder{}, nil)
	var alignErr *align.AlignmentError
	assert.True(t, errors.As(err, &alignErr))
}
