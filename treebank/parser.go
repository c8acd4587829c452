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

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
)

const (
	sentIDMarker    = "# sent_id = "
	textMarker      = "# text = "
	commentPrefix   = "#"
	fieldSeparator  = "\t"
	subTokenMarker  = "."
	maxLineBufSize  = 1024 * 1024
	initLineBufSize = 64 * 1024
)

// FormatError reports a token row with an unexpected
// number of columns.
type FormatError struct {
	Path      string
	Line      int
	NumFields int
}

func (err *FormatError) Error() string {
	return fmt.Sprintf(
		"invalid token row at %s:%d - expected %d fields, found %d",
		err.Path, err.Line, NumFields, err.NumFields,
	)
}

// ----------------------

type parserState int

const (
	stateCollecting parserState = iota
	stateEmitAndReset
)

// Parser reads tab-separated treebank data (one token per line,
// sentences separated by empty lines) and emits a Document for each
// sentence. It keeps a single document being built and moves it out
// once a sentence terminator or the end of input is reached.
// A document with neither metadata nor token rows is never emitted,
// so repeated blank lines do not produce empty sentences.
type Parser struct {
	path     string
	lineNum  int
	numDocs  int
	state    parserState
	currDoc  *Document
	emitFunc func(doc *Document)
}

func (p *Parser) emit() {
	if !p.currDoc.isEmpty() {
		p.emitFunc(p.currDoc)
		p.numDocs++
	}
	p.currDoc = &Document{}
	p.state = stateCollecting
}

// ProcLine handles a single line (without the line terminator)
func (p *Parser) ProcLine(line string) error {
	p.lineNum++
	line = strings.TrimSuffix(line, "\r")
	if line == "" {
		p.state = stateEmitAndReset
		p.emit()
		return nil
	}
	switch {
	case strings.HasPrefix(line, sentIDMarker):
		p.currDoc.SetSentID(line[len(sentIDMarker):])
	case strings.HasPrefix(line, textMarker):
		p.currDoc.SetText(line[len(textMarker):])
	case strings.HasPrefix(line, commentPrefix):
		// other metadata (newdoc, newpar etc.) are not used
	default:
		fields := strings.Split(line, fieldSeparator)
		if len(fields) <= 1 {
			return nil
		}
		if len(fields) != NumFields {
			return &FormatError{Path: p.path, Line: p.lineNum, NumFields: len(fields)}
		}
		if strings.Contains(fields[colIndex], subTokenMarker) {
			return nil
		}
		if err := p.currDoc.tree.Add(fields); err != nil {
			return fmt.Errorf("failed to add row at %s:%d: %w", p.path, p.lineNum, err)
		}
	}
	return nil
}

// Finish flushes the document currently being built. The document
// is emitted even if the input did not end with an empty line.
func (p *Parser) Finish() {
	p.emit()
	log.Debug().
		Str("source", p.path).
		Int("numLines", p.lineNum).
		Int("numDocs", p.numDocs).
		Msg("finished parsing treebank data")
}

// NumDocs returns number of documents emitted so far
func (p *Parser) NumDocs() int {
	return p.numDocs
}

// Parse reads all the lines from r. The name is used
// just for error reporting.
func (p *Parser) Parse(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, initLineBufSize), maxLineBufSize)
	for scanner.Scan() {
		if err := p.ProcLine(scanner.Text()); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read %s: %w", p.path, err)
	}
	p.Finish()
	return nil
}

// NewParser creates a parser passing each finished document
// to the emitFunc.
func NewParser(name string, emitFunc func(doc *Document)) *Parser {
	return &Parser{
		path:     name,
		currDoc:  &Document{},
		emitFunc: emitFunc,
	}
}

// ParseFile parses a treebank file and passes all its documents
// to emitFunc in the order of appearance.
func ParseFile(path string, emitFunc func(doc *Document)) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open treebank file: %w", err)
	}
	defer f.Close()
	return NewParser(path, emitFunc).Parse(f)
}

// ParseReader is a variant of ParseFile for any reader
func ParseReader(r io.Reader, name string, emitFunc func(doc *Document)) error {
	return NewParser(name, emitFunc).Parse(r)
}
