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

package api

import (
	"html/template"
	"net/http"
	"sync"

	"tbprep/lemma"

	"github.com/czcorpus/cnc-gokit/unireq"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type OverviewPage struct {
	NumDocuments string
	NumTokens    string
	Rows         []lemma.OverviewRow
	Error        error
}

const (
	overviewPage = `
<!DOCTYPE html>
<html>
	<head>
		<meta charset="UTF-8">
		<title>Lemma scripts overview</title>
		<style type="text/css">
		body {
			font-size: 1.1em;
			width: 50em;
			margin: 0 auto;
			font-family: sans-serif;
		}
		h1 {
			font-size: 1.5em;
		}
		td, th {
			padding: 0.2em 0.7em;
			text-align: left;
		}
		</style>
	</head>
	<body>
		<h1>Lemma scripts</h1>
		{{ if .Error }}
		<p><strong class="err">ERROR:</strong> {{ .Error }}</p>
		{{ else }}
		<p>documents: {{ .NumDocuments }}, tokens: {{ .NumTokens }}</p>
		<table>
			<tr><th>rule</th><th>count</th><th>examples</th></tr>
			{{ range .Rows }}
			<tr>
				<td>{{ .Rule }}</td>
				<td>{{ .Count }}</td>
				<td>{{ range $i, $e := .Examples }}{{ if $i }}, {{ end }}{{ $e }}{{ end }}</td>
			</tr>
			{{ end }}
		</table>
		{{ end }}
	</body>
</html>`
)

var (
	initOnce sync.Once
	tpl      *template.Template
)

func compileOverviewPage() {
	initOnce.Do(func() {
		var err error
		tpl, err = template.New("overview").Parse(overviewPage)
		if err != nil {
			log.Fatal().Msg("Failed to parse the template")
		}
	})
}

// WriteHTMLResponse writes the overview page to an HTTP response
func WriteHTMLResponse(w http.ResponseWriter, data *OverviewPage) error {
	compileOverviewPage()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if data.Error != nil {
		w.WriteHeader(http.StatusNotFound)
	}
	err := tpl.Execute(w, data)
	if err != nil {
		return err
	}
	return nil
}

// LemmaScriptsPage godoc
// @Summary      The most frequent lemma scripts as an HTML page
// @Produce      html
// @Param        n query int false "Number of scripts" default(11)
// @Success      200 {string} string
// @Router       /corpus/lemmaScripts/page [get]
func (a *Actions) LemmaScriptsPage(ctx *gin.Context) {
	n, ok := unireq.GetURLIntArgOrFail(ctx, "n", a.overviewSize)
	if !ok {
		return
	}
	printer := message.NewPrinter(a.lang)
	page := &OverviewPage{
		NumDocuments: printer.Sprintf("%d", a.corp.Len()),
		NumTokens:    printer.Sprintf("%d", a.corp.NumTokens()),
	}
	page.Rows, page.Error = a.corp.LemmaTagsOverview(n)
	if err := WriteHTMLResponse(ctx.Writer, page); err != nil {
		log.Error().Err(err).Msg("failed to write lemma scripts page")
	}
}

func defaultLang(lang language.Tag) language.Tag {
	if lang == language.Und {
		return language.English
	}
	return lang
}
