// Package report renders composite scores and rankings for the terminal.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/spigell/hh-matcher/internal/engine"
	"github.com/spigell/hh-matcher/internal/match"
)

type Format string

const (
	FormatJSON  Format = "json"
	FormatTable Format = "table"
)

// ParseFormat accepts json and table, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatTable:
		return f, nil
	case "":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported output format %q: must be json or table", s)
	}
}

var (
	excellentColor  = color.New(color.FgGreen, color.Bold)
	goodColor       = color.New(color.FgGreen)
	acceptableColor = color.New(color.FgYellow)
	poorColor       = color.New(color.FgRed)
	warnColor       = color.New(color.FgYellow, color.Bold)
)

// QualityLabel colors a quality level for table output.
func QualityLabel(q match.QualityLevel) string {
	switch q {
	case match.QualityExcellent:
		return excellentColor.Sprint(q)
	case match.QualityGood:
		return goodColor.Sprint(q)
	case match.QualityAcceptable:
		return acceptableColor.Sprint(q)
	default:
		return poorColor.Sprint(q)
	}
}

func score(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

// JSON writes v indented.
func JSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Match writes one composite score.
func Match(w io.Writer, format Format, s *match.CompositeScore) error {
	if format == FormatJSON {
		return JSON(w, s)
	}

	fmt.Fprintf(w, "%s / %s: %s %s\n", s.CandidateID, s.JobID, score(s.FinalScore), QualityLabel(s.QualityLevel))
	if err := Breakdown(w, s); err != nil {
		return err
	}
	fmt.Fprintf(w, "bonus %s, data quality %s, %.1fms\n",
		score(s.BonusAdjustment), score(s.Performance.DataQuality), s.Performance.CalculationMs)
	for _, warning := range s.Warnings {
		fmt.Fprintln(w, warnColor.Sprint("warning: ")+warning)
	}
	return nil
}

// Breakdown writes the per-criterion table.
func Breakdown(w io.Writer, s *match.CompositeScore) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Criterion", "Score", "Weight", "Contribution", "Confidence", "Cache", "Sub-scores"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, r := range s.Breakdown {
		cached := ""
		if r.CacheTier > 0 {
			cached = "tier " + strconv.Itoa(r.CacheTier)
		}
		data = append(data, []string{
			string(r.Criterion),
			score(r.Score),
			strconv.FormatFloat(r.Weight, 'f', 2, 64),
			score(r.Contribution),
			string(r.Confidence),
			cached,
			subScores(r.SubScores),
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// subScores lists sub-scores sorted by name.
func subScores(subs map[string]float64) string {
	names := make([]string, 0, len(subs))
	for name := range subs {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s=%.2f", name, subs[name])
	}
	return strings.Join(parts, " ")
}

// Insights writes the textual explanation of a score.
func Insights(w io.Writer, ins match.Insights) {
	section := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		fmt.Fprintln(w, color.New(color.Bold).Sprint(title))
		for _, item := range items {
			fmt.Fprintf(w, "  - %s\n", item)
		}
	}

	section("Strengths", ins.Strengths)
	section("Weaknesses", ins.Weaknesses)
	section("Recommendations", ins.Recommendations)
	section("Next steps", ins.NextSteps)
}

// Ranking writes ranked jobs.
func Ranking(w io.Writer, format Format, r *engine.Ranking) error {
	if format == FormatJSON {
		return JSON(w, r)
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Rank", "Job", "Score", "Quality", "Low confidence"})

	var data [][]string
	for i, s := range r.Results {
		low := ""
		if s.LowConfidence {
			low = warnColor.Sprint("yes")
		}
		data = append(data, []string{strconv.Itoa(i + 1), s.JobID, score(s.FinalScore), QualityLabel(s.QualityLevel), low})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	for _, sk := range r.Skipped {
		fmt.Fprintf(w, "%s %s: %s\n", warnColor.Sprint("skipped"), sk.JobID, sk.Reason)
	}
	return nil
}

// DumpToTmpFile writes v as JSON to a new temporary file and returns its name.
func DumpToTmpFile(v any) (string, error) {
	f, err := os.CreateTemp("", "hh-matcher-*.json")
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := JSON(f, v); err != nil {
		return "", err
	}
	return f.Name(), nil
}
