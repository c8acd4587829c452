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
	"fmt"
	"io"
	"net/http"
	"slices"
	"time"

	"github.com/czcorpus/cnc-gokit/logging"
	"github.com/czcorpus/cnc-gokit/uniresp"
	"github.com/gin-gonic/gin"
	"github.com/gosuri/uiprogress"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"tbprep/align"
	"tbprep/api"
	"tbprep/cnf"
	"tbprep/corpus"
	"tbprep/db/mysql"
	"tbprep/docs"
	"tbprep/embed"
	"tbprep/encoder"
	"tbprep/general"
	"tbprep/labelstore"
	"tbprep/lemma"
	"tbprep/root"
)

// prepareCorpus runs all the configured passes in the required order:
// parsing (with vocabularies and tensors), lemma labeling and then
// (optionally) the embeddings.
func prepareCorpus(ctx context.Context, conf *cnf.Conf, withEmbeddings bool) (*corpus.DocumentCorpus, error) {
	corp := corpus.New(conf.UnkToken, conf.PadToken, conf.NumWorkers)
	t0 := time.Now()
	for _, path := range conf.TreebankFiles {
		if err := corp.ParseTreeFile(ctx, path); err != nil {
			return nil, err
		}
	}
	if err := corp.SetLemmaTags(lemma.EditScriptGenerator{Lang: conf.LanguageTag()}); err != nil {
		return nil, err
	}
	log.Info().
		Int("numDocs", corp.Len()).
		Int("numTokens", corp.NumTokens()).
		Dur("procTime", time.Since(t0)).
		Msg("corpus parsed and labeled")
	if !withEmbeddings {
		return corp, nil
	}
	if conf.WordVectors != nil {
		provider, err := embed.LoadTextVec(conf.WordVectors.Path, conf.WordVectors.Name)
		if err != nil {
			return nil, err
		}
		corp.AddWordEmbs(provider, conf.WordVectors.LowerCaseBackup)
	}
	if conf.ContextEncoder != nil {
		tokenizer, err := align.LoadHFTokenizer(conf.ContextEncoder.TokenizerFile)
		if err != nil {
			return nil, err
		}
		enc := encoder.NewTritonEncoder(*conf.ContextEncoder)
		uiprogress.Start()
		bar := uiprogress.AddBar(corp.Len())
		bar.AppendCompleted()
		bar.PrependElapsed()
		err = corp.AddContextEmbs(ctx, tokenizer, enc, func(idx int) {
			bar.Incr()
		})
		uiprogress.Stop()
		if err != nil {
			return nil, err
		}
	}
	return corp, nil
}

func printOverview(w io.Writer, corp *corpus.DocumentCorpus, n int, lang language.Tag) error {
	rows, err := corp.LemmaTagsOverview(n)
	if err != nil {
		return err
	}
	return lemma.WriteOverview(w, rows, lang)
}

// storeLabelSpace stores the label spaces and reads the ranking back
// to make sure the stored data match the corpus
func storeLabelSpace(ctx context.Context, conf *cnf.Conf, corp *corpus.DocumentCorpus) error {
	adapter, err := mysql.OpenDB(*conf.LabelStore)
	if err != nil {
		return err
	}
	defer adapter.Close()
	if err := adapter.EnsureTables(ctx, labelstore.Schema); err != nil {
		return err
	}
	runID, err := labelstore.StoreLabelSpace(ctx, adapter.DB(), conf.DatasetID, corp)
	if err != nil {
		return err
	}
	stored, err := labelstore.LoadScriptRanking(ctx, adapter.DB(), conf.DatasetID)
	if err != nil {
		return err
	}
	if !slices.Equal(stored, corp.Labeling().Ranking.IDToScript()) {
		return fmt.Errorf("stored script ranking of run %s does not match the corpus", runID)
	}
	log.Info().
		Str("runId", runID).
		Str("database", adapter.DBName()).
		Msg("label space stored and verified")
	return nil
}

func serve(ctx context.Context, conf *cnf.Conf, corp *corpus.DocumentCorpus, version general.VersionInfo) {
	docs.SwaggerInfo.Version = version.Version
	docs.SwaggerInfo.Host = fmt.Sprintf("%s:%d", conf.ListenAddress, conf.ListenPort)

	if !conf.Logging.Level.IsDebugMode() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(logging.GinMiddleware())
	engine.Use(uniresp.AlwaysJSONContentType())
	engine.NoMethod(uniresp.NoMethodHandler)
	engine.NoRoute(uniresp.NotFoundHandler)

	rootActions := root.Actions{Version: version, Conf: conf, Corpus: corp}
	engine.GET("/", rootActions.RootAction)

	corpusActions := api.NewActions(corp, conf.OverviewSize, conf.LanguageTag())
	engine.GET("/corpus", corpusActions.CorpusInfo)
	engine.GET("/corpus/docs/:idx", corpusActions.Document)
	engine.GET("/corpus/lemmaScripts", corpusActions.LemmaScripts)
	engine.GET("/corpus/lemmaScripts/page", corpusActions.LemmaScriptsPage)

	engine.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	log.Info().Msgf("starting to listen at %s:%d", conf.ListenAddress, conf.ListenPort)
	srv := &http.Server{
		Handler:      engine,
		Addr:         fmt.Sprintf("%s:%d", conf.ListenAddress, conf.ListenPort),
		WriteTimeout: time.Duration(conf.ServerWriteTimeoutSecs) * time.Second,
		ReadTimeout:  time.Duration(conf.ServerReadTimeoutSecs) * time.Second,
	}

	go func() {
		err := srv.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Send()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutdown request received")

	ctxShutDown, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutDown); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}
}
