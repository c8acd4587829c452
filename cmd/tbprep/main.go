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

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/czcorpus/cnc-gokit/logging"
	"github.com/davecgh/go-spew/spew"
	"github.com/rs/zerolog/log"

	"tbprep/cnf"
	"tbprep/general"
)

var (
	version   string
	buildDate string
	gitCommit string
)

// @title           TBPREP - treebank data preparation
// @description     Read-only inspection of a treebank corpus prepared for morphological tagging (vocabularies, tensors, lemma scripts, embeddings).

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost
// @BasePath  /

// @externalDocs.description  OpenAPI
// @externalDocs.url          https://swagger.io/resources/open-api/
func main() {
	version := general.VersionInfo{
		Version:   version,
		BuildDate: buildDate,
		GitCommit: gitCommit,
	}

	prepareCmd := flag.NewFlagSet("prepare the corpus data", flag.ExitOnError)
	prepareNoEmbs := prepareCmd.Bool("no-embeddings", false, "skip word vectors and context embeddings")
	prepareNoStore := prepareCmd.Bool("no-store", false, "do not store label spaces even if labelStore is configured")
	overviewCmd := flag.NewFlagSet("show the most frequent lemma scripts", flag.ExitOnError)
	overviewSize := overviewCmd.Int("n", 0, "number of lemma scripts to show (0 = configured value)")
	inspectCmd := flag.NewFlagSet("dump a prepared document", flag.ExitOnError)
	inspectNoEmbs := inspectCmd.Bool("no-embeddings", false, "skip word vectors and context embeddings")
	serveCmd := flag.NewFlagSet("run the inspection HTTP API", flag.ExitOnError)
	serveNoEmbs := serveCmd.Bool("no-embeddings", false, "skip word vectors and context embeddings")
	versionCmd := flag.NewFlagSet("show version", flag.ExitOnError)

	prepareCmd.Usage = func() {
		fmt.Fprintf(os.Stderr, "\n\t%s prepare [options] [config.json]\n\n", filepath.Base(os.Args[0]))
		prepareCmd.PrintDefaults()
	}
	overviewCmd.Usage = func() {
		fmt.Fprintf(os.Stderr, "\n\t%s overview [options] [config.json]\n\n", filepath.Base(os.Args[0]))
		overviewCmd.PrintDefaults()
	}
	inspectCmd.Usage = func() {
		fmt.Fprintf(os.Stderr, "\n\t%s inspect [options] [config.json] [document idx]\n\n", filepath.Base(os.Args[0]))
		inspectCmd.PrintDefaults()
	}
	serveCmd.Usage = func() {
		fmt.Fprintf(os.Stderr, "\n\t%s serve [options] [config.json]\n\n", filepath.Base(os.Args[0]))
		serveCmd.PrintDefaults()
	}
	versionCmd.Usage = func() {
		fmt.Fprintf(os.Stderr, "\n\t%s version\n", filepath.Base(os.Args[0]))
		versionCmd.PrintDefaults()
	}

	generalUsage := func() {
		fmt.Fprintf(os.Stderr, "tbprep - prepare treebank data for morphological tagging\n\n")
		fmt.Fprintf(os.Stderr, "Usage:\t%s prepare [options] [config.json]\n", filepath.Base(os.Args[0]))
		fmt.Fprintf(os.Stderr, "\t%s overview [options] [config.json]\n", filepath.Base(os.Args[0]))
		fmt.Fprintf(os.Stderr, "\t%s inspect [options] [config.json] [document idx]\n", filepath.Base(os.Args[0]))
		fmt.Fprintf(os.Stderr, "\t%s serve [options] [config.json]\n", filepath.Base(os.Args[0]))
		fmt.Fprintf(os.Stderr, "\t%s help [command]\n", filepath.Base(os.Args[0]))
		fmt.Fprintf(os.Stderr, "\t%s version\n", filepath.Base(os.Args[0]))
	}

	var action string
	if len(os.Args) > 1 {
		action = os.Args[1]
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch action {
	case "prepare":
		prepareCmd.Parse(os.Args[2:])
		conf := setup(prepareCmd.Arg(0))
		corp, err := prepareCorpus(ctx, conf, !*prepareNoEmbs)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to prepare corpus")
		}
		if err := printOverview(os.Stdout, corp, conf.OverviewSize, conf.LanguageTag()); err != nil {
			log.Fatal().Err(err).Msg("failed to write lemma scripts overview")
		}
		if conf.LabelStore != nil && !*prepareNoStore {
			if err := storeLabelSpace(ctx, conf, corp); err != nil {
				log.Fatal().Err(err).Msg("failed to store label space")
			}
		}
		log.Info().Msg("Preparation done!")
	case "overview":
		overviewCmd.Parse(os.Args[2:])
		conf := setup(overviewCmd.Arg(0))
		corp, err := prepareCorpus(ctx, conf, false)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to prepare corpus")
		}
		n := conf.OverviewSize
		if *overviewSize > 0 {
			n = *overviewSize
		}
		if err := printOverview(os.Stdout, corp, n, conf.LanguageTag()); err != nil {
			log.Fatal().Err(err).Msg("failed to write lemma scripts overview")
		}
	case "inspect":
		inspectCmd.Parse(os.Args[2:])
		conf := setup(inspectCmd.Arg(0))
		idx, err := strconv.Atoi(inspectCmd.Arg(1))
		if err != nil {
			log.Fatal().Err(err).Msg("invalid document index")
		}
		corp, err := prepareCorpus(ctx, conf, !*inspectNoEmbs)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to prepare corpus")
		}
		doc, err := corp.At(idx)
		if err != nil {
			log.Fatal().Err(err).Send()
		}
		spew.Dump(doc)
	case "serve":
		serveCmd.Parse(os.Args[2:])
		conf := setup(serveCmd.Arg(0))
		corp, err := prepareCorpus(ctx, conf, !*serveNoEmbs)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to prepare corpus")
		}
		serve(ctx, conf, corp, version)
	case "version":
		fmt.Printf("tbprep %s\nbuild date: %s\nlast commit: %s\n", version.Version, version.BuildDate, version.GitCommit)
	case "help":
		if len(os.Args) > 2 {
			helpCmd := os.Args[2]
			switch helpCmd {
			case "prepare":
				prepareCmd.Usage()
			case "overview":
				overviewCmd.Usage()
			case "inspect":
				inspectCmd.Usage()
			case "serve":
				serveCmd.Usage()
			case "version":
				versionCmd.Usage()
			default:
				fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", helpCmd)
				generalUsage()
			}
		} else {
			generalUsage()
		}
	default:
		generalUsage()
	}
}

func setup(confPath string) *cnf.Conf {
	conf := cnf.LoadConfig(confPath)
	logging.SetupLogging(conf.Logging)
	cnf.ApplyDefaults(conf)
	if err := conf.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	return conf
}
