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

package lemma

import (
	"io"
	"strings"
	"text/tabwriter"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const DefaultOverviewSize = 11

// OverviewRow describes a single lemma script for diagnostic purposes
type OverviewRow struct {
	Rule     string   `json:"rule"`
	Count    int      `json:"count"`
	Examples []string `json:"examples"`
}

// Overview returns n most common scripts along with some examples
func (lb *Labeling) Overview(n int) []OverviewRow {
	n = min(n, lb.Ranking.NumClasses())
	if n < 0 {
		n = 0
	}
	ans := make([]OverviewRow, n)
	for i := 0; i < n; i++ {
		ans[i] = OverviewRow{
			Rule:     lb.Ranking.idToScript[i],
			Count:    lb.Ranking.counts[i],
			Examples: lb.Stats.Examples(lb.Ranking.idToScript[i]),
		}
	}
	return ans
}

// WriteOverview renders overview rows as a text table
func WriteOverview(w io.Writer, rows []OverviewRow, lang language.Tag) error {
	printer := message.NewPrinter(lang)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	printer.Fprintf(tw, "\tRule\tCount\tExamples\n")
	for i, row := range rows {
		printer.Fprintf(tw, "%d\t%s\t%d\t%s\n", i, row.Rule, row.Count, strings.Join(row.Examples, ", "))
	}
	return tw.Flush()
}
