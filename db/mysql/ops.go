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

package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	db "github.com/czcorpus/vert-tagextract/v3/db"
	"github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
)

const dfltPingTimeout = 10 * time.Second

type Adapter struct {
	db     *sql.DB
	conf   db.Conf
	dbName string
}

func (a *Adapter) DB() *sql.DB {
	return a.db
}

func (a *Adapter) DBName() string {
	return a.dbName
}

func (a *Adapter) Conf() db.Conf {
	return a.conf
}

func (a *Adapter) Close() error {
	return a.db.Close()
}

// EnsureTables runs the provided CREATE TABLE IF NOT EXISTS
// statements in the provided order
func (a *Adapter) EnsureTables(ctx context.Context, stmts []string) error {
	for _, stmt := range stmts {
		if _, err := a.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to prepare tables in %s: %w", a.dbName, err)
		}
	}
	return nil
}

// OpenDB creates a connection pool and checks the database
// is reachable.
func OpenDB(conf db.Conf) (*Adapter, error) {
	mconf := mysql.NewConfig()
	mconf.Net = "tcp"
	mconf.Addr = conf.Host
	mconf.User = conf.User
	mconf.Passwd = conf.Password
	mconf.DBName = conf.Name
	mconf.ParseTime = true
	mconf.Loc = time.Local
	mconf.Params = map[string]string{"autocommit": "true"}
	sdb, err := sql.Open("mysql", mconf.FormatDSN())
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), dfltPingTimeout)
	defer cancel()
	if err := sdb.PingContext(ctx); err != nil {
		sdb.Close()
		return nil, fmt.Errorf("failed to connect to %s@%s: %w", conf.Name, conf.Host, err)
	}
	log.Info().Msgf("connected to label store database %s@%s", conf.Name, conf.Host)
	return &Adapter{db: sdb, dbName: mconf.DBName, conf: conf}, nil
}
