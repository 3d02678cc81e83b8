package app

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/hitoshi/dataregistry/internal/catalog"
	"github.com/hitoshi/dataregistry/internal/source"
)

// filterOptions はfilterサブコマンドのフラグ値。
type filterOptions struct {
	file        string
	country     string
	frequencies []string
	regions     []string
	facets      []string
	date        string
	from        string
	to          string
	lang        string
	now         string
	json        bool
}

// criteria はフラグ値をAPIのクエリと同じ規則で検索条件に変換する。
func (o filterOptions) criteria() catalog.Criteria {
	q := url.Values{}
	q.Set("country", o.country)
	q["frequency"] = o.frequencies
	q["region"] = o.regions
	q["facet"] = o.facets
	q.Set("date", o.date)
	q.Set("from", o.from)
	q.Set("to", o.to)
	return catalog.CriteriaFromQuery(q)
}

// referenceTime は相対日付モードの基準日を返す。
func (o filterOptions) referenceTime() (time.Time, error) {
	if o.now == "" {
		return time.Now(), nil
	}
	t := catalog.ParseDate(o.now)
	if t.IsZero() {
		return time.Time{}, fmt.Errorf("invalid --now date %q (want YYYY-MM-DD)", o.now)
	}
	return t, nil
}

// filterResult は--json出力の1件分。
type filterResult struct {
	ID              int64  `json:"id"`
	Title           string `json:"title"`
	Country         string `json:"country"`
	Region          string `json:"region"`
	UpdateFrequency string `json:"update_frequency"`
	DateFrom        string `json:"date_from,omitempty"`
	DateTo          string `json:"date_to,omitempty"`
	OverlapAlert    bool   `json:"overlap_alert"`
	OverlapFrom     string `json:"overlap_from,omitempty"`
	OverlapTo       string `json:"overlap_to,omitempty"`
}

// runFilter はJSONファイルのレコードに検索条件を適用し、結果をwに出力する。
// fileが "-" の場合はstdinから読み込む。
func runFilter(stdin io.Reader, w io.Writer, opts filterOptions) error {
	r := stdin
	if opts.file != "-" {
		f, err := os.Open(opts.file)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", opts.file, err)
		}
		defer f.Close()
		r = f
	}

	records, err := source.DecodeCollections(r)
	if err != nil {
		return err
	}

	now, err := opts.referenceTime()
	if err != nil {
		return err
	}

	// 指定言語の国名がない場合は英語名を使う
	locales := catalog.NewLocaleSelector("en", opts.lang)
	country := locales.CountryFunc(opts.lang)
	results := catalog.Apply(records, opts.criteria(), country, now)

	out := make([]filterResult, len(results))
	for i, res := range results {
		c := res.Collection
		rng := catalog.RecordRange(c)
		out[i] = filterResult{
			ID:              c.ID,
			Title:           c.Title,
			Country:         country(c),
			Region:          string(c.Region),
			UpdateFrequency: string(c.UpdateFrequency),
			DateFrom:        catalog.FormatDate(rng.From),
			DateTo:          catalog.FormatDate(rng.To),
			OverlapAlert:    res.Overlap.Alert,
		}
		if res.Overlap.Alert {
			out[i].OverlapFrom = catalog.FormatDate(res.Overlap.From)
			out[i].OverlapTo = catalog.FormatDate(res.Overlap.To)
		}
	}

	if opts.json {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	return writeFilterTable(w, out, len(records))
}

func writeFilterTable(w io.Writer, results []filterResult, total int) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCOUNTRY\tTITLE\tFREQUENCY\tFROM\tTO\tOVERLAP")
	for _, r := range results {
		overlap := "-"
		if r.OverlapAlert {
			overlap = r.OverlapFrom + ".." + r.OverlapTo
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, orDash(r.Country), r.Title, r.UpdateFrequency,
			orDash(r.DateFrom), orDash(r.DateTo), overlap)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}
	_, err := fmt.Fprintf(w, "%d of %d collections\n", len(results), total)
	return err
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
