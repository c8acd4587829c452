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

package cnf

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"tbprep/embed"
	"tbprep/encoder"
	"tbprep/lemma"
	"tbprep/vocab"

	"github.com/czcorpus/cnc-gokit/fs"
	"github.com/czcorpus/cnc-gokit/logging"
	"github.com/czcorpus/vert-tagextract/v3/db"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
)

const (
	dfltServerWriteTimeoutSecs = 10
	dfltLanguage               = "en"
	dfltMaxNumWorkers          = 4
	dfltListenAddress          = "localhost"
	dfltListenPort             = 8090
)

var ErrorNoTreebankFiles = errors.New("no treebank files configured")

// Conf is a global configuration of the app
type Conf struct {
	ListenAddress          string              `json:"listenAddress"`
	ListenPort             int                 `json:"listenPort"`
	ServerReadTimeoutSecs  int                 `json:"serverReadTimeoutSecs"`
	ServerWriteTimeoutSecs int                 `json:"serverWriteTimeoutSecs"`
	Logging                logging.LoggingConf `json:"logging"`

	// TreebankFiles are parsed in the specified order
	TreebankFiles []string `json:"treebankFiles"`

	UnkToken     string `json:"unkToken"`
	PadToken     string `json:"padToken"`
	OverviewSize int    `json:"overviewSize"`

	// NumWorkers specifies how many documents can be tensorized
	// in parallel
	NumWorkers int `json:"numWorkers"`

	// Language is used for lowercasing in lemma scripts and
	// for number formatting in reports
	Language string `json:"language"`

	WordVectors    *embed.Conf   `json:"wordVectors"`
	ContextEncoder *encoder.Conf `json:"contextEncoder"`
	LabelStore     *db.Conf      `json:"labelStore"`
	DatasetID      string        `json:"datasetId"`

	srcPath string
}

// GetSourcePath returns an absolute path of a file
// the config was loaded from.
func (conf *Conf) GetSourcePath() string {
	if filepath.IsAbs(conf.srcPath) {
		return conf.srcPath
	}
	var cwd string
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "[failed to get working dir]"
	}
	return filepath.Join(cwd, conf.srcPath)
}

// LanguageTag returns a parsed Language value. Invalid
// values produce language.Und.
func (conf *Conf) LanguageTag() language.Tag {
	tag, err := language.Parse(conf.Language)
	if err != nil {
		return language.Und
	}
	return tag
}

func specialOrDefault(tok, dflt string) string {
	if tok == "" {
		return dflt
	}
	return tok
}

// Validate checks values ApplyDefaults cannot fix
func (conf *Conf) Validate() error {
	if len(conf.TreebankFiles) == 0 {
		return ErrorNoTreebankFiles
	}
	for _, f := range conf.TreebankFiles {
		isFile, err := fs.IsFile(f)
		if err != nil {
			return fmt.Errorf("failed to validate treebank file %s: %w", f, err)
		}
		if !isFile {
			return fmt.Errorf("treebank file %s not found", f)
		}
	}
	if specialOrDefault(conf.UnkToken, vocab.DefaultUnkToken) ==
		specialOrDefault(conf.PadToken, vocab.DefaultPadToken) {
		return fmt.Errorf("invalid unkToken and padToken: %w", vocab.ErrorSameSpecialTokens)
	}
	if conf.WordVectors != nil && conf.WordVectors.Path == "" {
		return errors.New("wordVectors.path not specified")
	}
	if conf.ContextEncoder != nil {
		if conf.ContextEncoder.TokenizerFile == "" {
			return errors.New("contextEncoder.tokenizerFile not specified")
		}
		if conf.ContextEncoder.TritonURL == "" || conf.ContextEncoder.Model == "" {
			return errors.New("contextEncoder requires both tritonUrl and model")
		}
	}
	if conf.LabelStore != nil && conf.DatasetID == "" {
		return errors.New("labelStore configured but datasetId not specified")
	}
	return nil
}

func LoadConfig(path string) *Conf {
	if path == "" {
		log.Fatal().Msg("Cannot load config - path not specified")
	}
	rawData, err := os.ReadFile(path)
	if err != nil {
		log.Fatal().Err(err).Msg("Cannot load config")
	}
	var conf Conf
	conf.srcPath = path
	err = json.Unmarshal(rawData, &conf)
	if err != nil {
		log.Fatal().Err(err).Msg("Cannot load config")
	}
	return &conf
}

func ApplyDefaults(conf *Conf) {
	if conf.ListenAddress == "" {
		conf.ListenAddress = dfltListenAddress
		log.Warn().Msgf("listenAddress not specified, using default: %s", dfltListenAddress)
	}
	if conf.ListenPort == 0 {
		conf.ListenPort = dfltListenPort
		log.Warn().Msgf("listenPort not specified, using default: %d", dfltListenPort)
	}
	if conf.ServerWriteTimeoutSecs == 0 {
		conf.ServerWriteTimeoutSecs = dfltServerWriteTimeoutSecs
		log.Warn().Msgf(
			"serverWriteTimeoutSecs not specified, using default: %d",
			dfltServerWriteTimeoutSecs,
		)
	}
	if conf.UnkToken == "" {
		conf.UnkToken = vocab.DefaultUnkToken
		log.Warn().Msgf("unkToken not specified, using default: %s", conf.UnkToken)
	}
	if conf.PadToken == "" {
		conf.PadToken = vocab.DefaultPadToken
		log.Warn().Msgf("padToken not specified, using default: %s", conf.PadToken)
	}
	if conf.OverviewSize == 0 {
		conf.OverviewSize = lemma.DefaultOverviewSize
		log.Warn().Msgf("overviewSize not specified, using default: %d", conf.OverviewSize)
	}
	if conf.Language == "" {
		conf.Language = dfltLanguage
		log.Warn().Msgf("language not specified, using default: %s", conf.Language)
	}
	if conf.NumWorkers == 0 {
		v := dfltMaxNumWorkers
		if v >= runtime.NumCPU() {
			v = runtime.NumCPU()
		}
		conf.NumWorkers = v
		log.Warn().Msgf("numWorkers not specified, using default %d", v)
	}
}
