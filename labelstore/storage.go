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
	"database/sql"
	"errors"
	"fmt"
	"time"

	"tbprep/corpus"
	"tbprep/vocab"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	VocabTokens    = "tokens"
	VocabChars     = "chars"
	VocabMorphTags = "morphTags"
)

var ErrorNoStoredRun = errors.New("no stored label space found")

// latestScriptsQuery selects scripts of the most recent run of a dataset.
// Runs created within the same microsecond are ordered by their
// insertion sequence.
const latestScriptsQuery = "SELECT s.id, s.script " +
	"FROM tbprep_lemma_script AS s " +
	"WHERE s.run_id = ( " +
	"  SELECT r.run_id " +
	"  FROM tbprep_run AS r " +
	"  WHERE r.dataset_id = ? " +
	"  ORDER BY r.created DESC, r.seq DESC " +
	"  LIMIT 1 " +
	") " +
	"ORDER BY s.id"

// Schema contains statements creating the tables used by the store
var Schema = []string{
	"CREATE TABLE IF NOT EXISTS tbprep_run ( " +
		"run_id CHAR(36) NOT NULL, " +
		"dataset_id VARCHAR(100) NOT NULL, " +
		"seq BIGINT NOT NULL AUTO_INCREMENT, " +
		"created DATETIME(6) NOT NULL, " +
		"num_docs INT NOT NULL, " +
		"num_tokens INT NOT NULL, " +
		"PRIMARY KEY (run_id), " +
		"UNIQUE KEY (seq), " +
		"KEY (dataset_id, created, seq) " +
		")",
	"CREATE TABLE IF NOT EXISTS tbprep_vocab_entry ( " +
		"run_id CHAR(36) NOT NULL, " +
		"vocab VARCHAR(20) NOT NULL, " +
		"idx INT NOT NULL, " +
		"value VARCHAR(255) NOT NULL, " +
		"PRIMARY KEY (run_id, vocab, idx), " +
		"FOREIGN KEY (run_id) REFERENCES tbprep_run(run_id) ON DELETE CASCADE " +
		")",
	"CREATE TABLE IF NOT EXISTS tbprep_lemma_script ( " +
		"run_id CHAR(36) NOT NULL, " +
		"id INT NOT NULL, " +
		"script VARCHAR(255) NOT NULL, " +
		"count INT NOT NULL, " +
		"PRIMARY KEY (run_id, id), " +
		"FOREIGN KEY (run_id) REFERENCES tbprep_run(run_id) ON DELETE CASCADE " +
		")",
}

type vocabEntry struct {
	Vocab string
	Idx   int
	Value string
}

type scriptEntry struct {
	ID     int
	Script string
	Count  int
}

func vocabEntries(v *vocab.Vocabularies) []vocabEntry {
	ans := make([]vocabEntry, 0, v.Tokens.Len()+v.Chars.Len()+v.MorphTags.Len())
	for i, tok := range v.Tokens.Tokens() {
		ans = append(ans, vocabEntry{Vocab: VocabTokens, Idx: i, Value: tok})
	}
	for i, ch := range v.Chars.Tokens() {
		ans = append(ans, vocabEntry{Vocab: VocabChars, Idx: i, Value: ch})
	}
	for i, tag := range v.MorphTags.Tags() {
		ans = append(ans, vocabEntry{Vocab: VocabMorphTags, Idx: i, Value: tag})
	}
	return ans
}

func scriptEntries(corp *corpus.DocumentCorpus) []scriptEntry {
	ranking := corp.Labeling().Ranking
	ans := make([]scriptEntry, ranking.NumClasses())
	for i, script := range ranking.IDToScript() {
		ans[i] = scriptEntry{ID: i, Script: script, Count: ranking.CountOf(i)}
	}
	return ans
}

// StoreLabelSpace stores corpus vocabularies and the lemma script
// ranking in a single transaction. The data are stored under a new
// run ID which is returned.
func StoreLabelSpace(
	ctx context.Context,
	db *sql.DB,
	datasetID string,
	corp *corpus.DocumentCorpus,
) (string, error) {
	if corp.Vocabs() == nil {
		return "", vocab.ErrorUnbuiltVocabulary
	}
	if corp.Labeling() == nil {
		return "", corpus.ErrorNotLabeled
	}
	runID, err := uuid.NewUUID()
	if err != nil {
		return "", fmt.Errorf("failed to store label space: %w", err)
	}
	tx, err := db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to store label space: %w", err)
	}
	rollback := func(err error) (string, error) {
		if err := tx.Rollback(); err != nil {
			log.Error().Err(err).Msg("StoreLabelSpace - failed to rollback a transaction")
		}
		return "", fmt.Errorf("failed to store label space: %w", err)
	}
	_, err = tx.ExecContext(
		ctx,
		"INSERT INTO tbprep_run (run_id, dataset_id, created, num_docs, num_tokens) "+
			"VALUES (?, ?, ?, ?, ?)",
		runID.String(), datasetID, time.Now(), corp.Len(), corp.NumTokens(),
	)
	if err != nil {
		return rollback(err)
	}
	for _, entry := range vocabEntries(corp.Vocabs()) {
		_, err = tx.ExecContext(
			ctx,
			"INSERT INTO tbprep_vocab_entry (run_id, vocab, idx, value) VALUES (?, ?, ?, ?)",
			runID.String(), entry.Vocab, entry.Idx, entry.Value,
		)
		if err != nil {
			return rollback(err)
		}
	}
	for _, entry := range scriptEntries(corp) {
		_, err = tx.ExecContext(
			ctx,
			"INSERT INTO tbprep_lemma_script (run_id, id, script, count) VALUES (?, ?, ?, ?)",
			runID.String(), entry.ID, entry.Script, entry.Count,
		)
		if err != nil {
			return rollback(err)
		}
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to store label space: %w", err)
	}
	log.Info().
		Str("runId", runID.String()).
		Str("datasetId", datasetID).
		Msg("label space stored")
	return runID.String(), nil
}

// LoadScriptRanking returns the "id to script" mapping of
// the most recent run of the dataset
func LoadScriptRanking(ctx context.Context, db *sql.DB, datasetID string) ([]string, error) {
	rows, err := db.QueryContext(ctx, latestScriptsQuery, datasetID)
	if err != nil {
		return []string{}, fmt.Errorf("failed to load script ranking: %w", err)
	}
	defer rows.Close()
	ans := make([]string, 0, 100)
	for rows.Next() {
		var id int
		var script string
		if err := rows.Scan(&id, &script); err != nil {
			return []string{}, fmt.Errorf("failed to load script ranking: %w", err)
		}
		if id != len(ans) {
			return []string{}, fmt.Errorf("failed to load script ranking: non-contiguous id %d", id)
		}
		ans = append(ans, script)
	}
	if err := rows.Err(); err != nil {
		return []string{}, fmt.Errorf("failed to load script ranking: %w", err)
	}
	if len(ans) == 0 {
		return []string{}, ErrorNoStoredRun
	}
	return ans, nil
}
