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

package embed

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"tbprep/treebank"

	"github.com/rs/zerolog/log"
	"github.com/ynqa/wego/pkg/embedding"
)

var ErrorEmptyVectors = errors.New("no word vectors loaded")

// Conf configures the static word vectors pass
type Conf struct {
	Path            string `json:"path"`
	LowerCaseBackup bool   `json:"lowerCaseBackup"`
	Name            string `json:"name"`
}

// Provider maps tokens to static word vectors
type Provider interface {
	Vector(token string, lowerCaseBackup bool) []float32
	Dim() int
	Name() string
}

// TextVecProvider serves vectors loaded from a textual (.vec)
// word2vec/fastText file. Unknown tokens are mapped to a zero vector.
type TextVecProvider struct {
	name    string
	dim     int
	vectors map[string][]float32
}

func (p *TextVecProvider) Dim() int {
	return p.dim
}

func (p *TextVecProvider) Name() string {
	return p.name
}

func (p *TextVecProvider) Len() int {
	return len(p.vectors)
}

func (p *TextVecProvider) Contains(token string) bool {
	_, ok := p.vectors[token]
	return ok
}

func (p *TextVecProvider) Vector(token string, lowerCaseBackup bool) []float32 {
	if v, ok := p.vectors[token]; ok {
		return v
	}
	if lowerCaseBackup {
		if v, ok := p.vectors[strings.ToLower(token)]; ok {
			return v
		}
	}
	return make([]float32, p.dim)
}

// isHeader tells whether the line is the "<num words> <dim>" line
// fastText writes at the beginning of its .vec files
func isHeader(line string) bool {
	items := strings.Fields(line)
	if len(items) != 2 {
		return false
	}
	for _, item := range items {
		if _, err := strconv.Atoi(item); err != nil {
			return false
		}
	}
	return true
}

func NewTextVecProvider(r io.Reader, name string) (*TextVecProvider, error) {
	br := bufio.NewReader(r)
	first, err := br.ReadString('\n')
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read word vectors: %w", err)
	}
	var src io.Reader = br
	if !isHeader(first) {
		src = io.MultiReader(strings.NewReader(first), br)
	}
	embs, err := embedding.Load(src)
	if err != nil {
		return nil, fmt.Errorf("failed to load word vectors: %w", err)
	}
	if len(embs) == 0 {
		return nil, ErrorEmptyVectors
	}
	ans := &TextVecProvider{
		name:    name,
		dim:     len(embs[0].Vector),
		vectors: make(map[string][]float32, len(embs)),
	}
	for _, emb := range embs {
		if len(emb.Vector) != ans.dim {
			return nil, fmt.Errorf(
				"inconsistent vector dimension for %s: %d, expected %d", emb.Word, len(emb.Vector), ans.dim)
		}
		vec := make([]float32, ans.dim)
		for i, v := range emb.Vector {
			vec[i] = float32(v)
		}
		ans.vectors[emb.Word] = vec
	}
	return ans, nil
}

// LoadTextVec loads vectors from a file. With empty name,
// the file path is used as the name of the provider.
func LoadTextVec(path, name string) (*TextVecProvider, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open word vectors file %s: %w", path, err)
	}
	defer f.Close()
	if name == "" {
		name = path
	}
	ans, err := NewTextVecProvider(f, name)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	log.Info().
		Str("file", path).
		Int("numWords", ans.Len()).
		Int("dim", ans.Dim()).
		Msg("loaded word vectors")
	return ans, nil
}

// Attach stores a [num tokens x dim] matrix of static vectors
// in each of the documents
func Attach(docs []*treebank.Document, provider Provider, lowerCaseBackup bool) {
	for _, doc := range docs {
		m := make(treebank.Matrix, doc.Len())
		for i, tok := range doc.Tokens() {
			m[i] = provider.Vector(tok, lowerCaseBackup)
		}
		doc.SetWordEmbeddings(m, provider.Name())
	}
}
