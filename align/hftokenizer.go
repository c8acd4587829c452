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
	"fmt"
	"unicode/utf8"

	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
)

// HFTokenizer wraps a HuggingFace tokenizer (tokenizer.json)
type HFTokenizer struct {
	tk *tokenizer.Tokenizer
}

// Encode tokenizes text with special tokens added. The wrapped
// tokenizer reports byte offsets so they are converted to
// character offsets here.
func (h *HFTokenizer) Encode(text string) (*Encoding, error) {
	en, err := h.tk.EncodeSingle(text, true)
	if err != nil {
		return nil, fmt.Errorf("failed to tokenize text: %w", err)
	}
	byteOffsets := en.GetOffsets()
	runeIdx := byteToRuneIndex(text)
	ans := &Encoding{
		Tokens:  en.GetTokens(),
		IDs:     en.GetIds(),
		Offsets: make([]Span, len(byteOffsets)),
	}
	for i, off := range byteOffsets {
		if len(off) != 2 {
			return nil, fmt.Errorf("invalid offset of sub-word token %d", i)
		}
		ans.Offsets[i] = Span{
			Start: runeIdx[min(max(off[0], 0), len(text))],
			End:   runeIdx[min(max(off[1], 0), len(text))],
		}
	}
	return ans, nil
}

// byteToRuneIndex maps each byte position (including len(text))
// to the index of the character it belongs to
func byteToRuneIndex(text string) []int {
	ans := make([]int, len(text)+1)
	var ri int
	for bi := 0; bi < len(text); {
		_, size := utf8.DecodeRuneInString(text[bi:])
		for k := 0; k < size; k++ {
			ans[bi+k] = ri
		}
		bi += size
		ri++
	}
	ans[len(text)] = ri
	return ans
}

// LoadHFTokenizer loads a tokenizer from a tokenizer.json file
func LoadHFTokenizer(path string) (*HFTokenizer, error) {
	tk, err := pretrained.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load tokenizer from %s: %w", path, err)
	}
	return &HFTokenizer{tk: tk}, nil
}
