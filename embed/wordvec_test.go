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
	"strings"
	"testing"

	"tbprep/treebank"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testVectors = `3 2
praha 0.5 1.0
je 0.25 0.25
hlavní -1.0 2.0
`

func TestHeaderDetection(t *testing.T) {
	assert.True(t, isHeader("3 2\n"))
	assert.False(t, isHeader("praha 0.5 1.0\n"))
	assert.False(t, isHeader("2 0.5\n"))
}

func TestLoadWithHeader(t *testing.T) {
	p, err := NewTextVecProvider(strings.NewReader(testVectors), "test")
	require.NoError(t, err)
	assert.Equal(t, 3, p.Len())
	assert.Equal(t, 2, p.Dim())
	assert.Equal(t, "test", p.Name())
	assert.Equal(t, []float32{0.5, 1.0}, p.Vector("praha", false))
	assert.False(t, p.Contains("3"))
}

func TestLoadWithoutHeader(t *testing.T) {
	p, err := NewTextVecProvider(strings.NewReader("praha 0.5 1.0\nje 0.25 0.25\n"), "test")
	require.NoError(t, err)
	assert.Equal(t, 2, p.Len())
	assert.True(t, p.Contains("praha"))
}

func TestVectorLowerCaseBackup(t *testing.T) {
	p, err := NewTextVecProvider(strings.NewReader(testVectors), "test")
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 0}, p.Vector("Praha", false))
	assert.Equal(t, []float32{0.5, 1.0}, p.Vector("Praha", true))
	assert.Equal(t, []float32{0, 0}, p.Vector("Brno", true))
}

func TestAttach(t *testing.T) {
	p, err := NewTextVecProvider(strings.NewReader(testVectors), "test")
	require.NoError(t, err)
	var docs []*treebank.Document
	err = treebank.ParseReader(
		strings.NewReader("1\tPraha\tPraha\t_\t_\t_\t_\t_\t_\t_\n2\tje\tbýt\t_\t_\t_\t_\t_\t_\t_\n"),
		"test",
		func(doc *treebank.Document) { docs = append(docs, doc) },
	)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	Attach(docs, p, true)
	m, src := docs[0].WordEmbeddings()
	assert.Equal(t, "test", src)
	assert.Equal(t, treebank.Matrix{{0.5, 1.0}, {0.25, 0.25}}, m)
}
