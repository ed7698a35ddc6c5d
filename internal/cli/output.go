// Package cli renders search, recommendation and status output for the
// foundermatch command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/foundermatch/internal/models"
	"github.com/hyperjump/foundermatch/internal/recommend"
	"github.com/hyperjump/foundermatch/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputCompact prints one line per result.
	OutputCompact OutputFormat = "compact"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

const rule = "─────────────────────────────────────────────────────────"

// ParseOutputFormat returns the format named s. The empty string means text.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return OutputText, nil
	case OutputText, OutputCompact, OutputJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, compact or json)", s)
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteSearchResults writes search results to w in the given format.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, response)
	case OutputCompact:
		writeCompact(w, response.Results)
		return nil
	default:
		fmt.Fprintf(w, "\nFound %d startups for %q in %dms\n", response.Total, response.Query, response.QueryTime)
		if response.Industry != "" {
			fmt.Fprintf(w, "Industry: %s\n", response.Industry)
		}
		if response.CorrectedQuery != "" {
			label := "Searched for"
			if response.AutoFuzzy {
				label = "No exact matches, searched for"
			}
			fmt.Fprintf(w, "%s: %q\n", label, response.CorrectedQuery)
		}
		fmt.Fprintln(w)
		for _, r := range response.Results {
			writeScored(w, r)
		}
		return nil
	}
}

// maxTermWords caps the profile terms echoed in text output.
const maxTermWords = 12

// WriteRecommendations writes recommendations to w in the given format.
func WriteRecommendations(w io.Writer, response *models.RecommendResponse, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, response)
	case OutputCompact:
		writeCompact(w, response.Results)
		return nil
	default:
		fmt.Fprintf(w, "\n%d recommendations in %dms (basis: %s)\n", response.Total, response.QueryTime, response.Basis)
		if response.Terms != "" {
			fmt.Fprintf(w, "Profile terms: %s\n", utils.TruncateWords(response.Terms, maxTermWords))
		}
		fmt.Fprintln(w)
		for _, r := range response.Results {
			writeScored(w, r)
		}
		return nil
	}
}

// WriteKeywordResults writes BM25 keyword results to w in the given format.
func WriteKeywordResults(w io.Writer, response *models.KeywordResponse, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, response)
	case OutputCompact:
		for _, r := range response.Results {
			fmt.Fprintf(w, "%d\t%.4f\t%s\t%s\n", r.Rank, r.Score, r.Startup.ID, r.Startup.Title)
		}
		return nil
	default:
		fmt.Fprintf(w, "\nFound %d keyword matches for %q in %dms\n\n", response.Total, response.Query, response.QueryTime)
		for _, r := range response.Results {
			writeStartup(w, r.Rank, r.Score, r.Startup)
		}
		return nil
	}
}

// WriteHybridResults writes fused keyword and semantic results to w.
func WriteHybridResults(w io.Writer, response *models.HybridResponse, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, response)
	case OutputCompact:
		for _, r := range response.Results {
			fmt.Fprintf(w, "%d\t%.4f\t%.4f\t%.4f\t%s\t%s\n",
				r.Rank, r.Score, r.KeywordScore, r.SemanticScore, r.Startup.ID, r.Startup.Title)
		}
		return nil
	default:
		fmt.Fprintf(w, "\nFound %d hybrid results for %q in %dms (keyword %.2f, semantic %.2f)\n\n",
			response.Total, response.Query, response.QueryTime, response.KeywordWeight, response.SemanticWeight)
		for _, r := range response.Results {
			writeStartup(w, r.Rank, r.Score, r.Startup)
		}
		return nil
	}
}

// StatusReport is what the status command prints.
type StatusReport struct {
	Engine         *recommend.Status `json:"engine"`
	DatabasePath   string            `json:"database_path,omitempty"`
	DiskUsageBytes int64             `json:"disk_usage_bytes,omitempty"`
}

// WriteStatus writes a status report to w in the given format.
func WriteStatus(w io.Writer, report *StatusReport, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, report)
	}
	st := report.Engine
	if format == OutputCompact {
		fmt.Fprintf(w, "initialized=%t startups=%d vocabulary=%d stored=%d queries=%d fallback=%t\n",
			st.Initialized, st.Startups, st.VocabularySize, st.StoredStartups, st.SearchQueries, st.UsingFallback)
		return nil
	}
	fmt.Fprintf(w, "Engine initialized: %t\n", st.Initialized)
	fmt.Fprintf(w, "Startups:           %d", st.Startups)
	if st.UsingFallback {
		fmt.Fprint(w, " (built-in dataset)")
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Vocabulary size:    %d\n", st.VocabularySize)
	fmt.Fprintf(w, "Stored startups:    %d\n", st.StoredStartups)
	fmt.Fprintf(w, "Recorded searches:  %d\n", st.SearchQueries)
	fmt.Fprintf(w, "Keyword documents:  %d\n", st.KeywordDocs)
	if !st.FittedAt.IsZero() {
		fmt.Fprintf(w, "Fitted at:          %s\n", st.FittedAt.Format("2006-01-02 15:04:05"))
	}
	if report.DatabasePath != "" {
		fmt.Fprintf(w, "Database:           %s\n", report.DatabasePath)
	}
	if report.DiskUsageBytes > 0 {
		fmt.Fprintf(w, "Disk usage:         %s\n", FormatBytes(report.DiskUsageBytes))
	}
	return nil
}

// FormatBytes renders n with a binary unit suffix.
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func writeCompact(w io.Writer, results []*models.ScoredStartup) {
	for _, r := range results {
		fmt.Fprintf(w, "%d\t%.4f\t%s\t%s\t%s\n", r.Rank, r.Score, r.Startup.ID, r.Startup.Title, r.Startup.Industry)
	}
}

func writeScored(w io.Writer, r *models.ScoredStartup) {
	writeStartup(w, r.Rank, r.Score, r.Startup)
}

func writeStartup(w io.Writer, rank int, score float64, st *models.Startup) {
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Rank: %d | Score: %.4f\n", rank, score)
	fmt.Fprintf(w, "ID: %s\n", st.ID)
	if st.Title != "" {
		fmt.Fprintf(w, "Title: %s\n", st.Title)
	}
	fmt.Fprintf(w, "Industry: %s", st.Industry)
	if st.FundingStage != "" {
		fmt.Fprintf(w, " | Stage: %s", st.FundingStage)
	}
	if st.Location != "" {
		fmt.Fprintf(w, " | %s", st.Location)
	}
	fmt.Fprintln(w)
	if len(st.Tags) > 0 {
		fmt.Fprintf(w, "Tags: %s\n", strings.Join(st.Tags, ", "))
	}
	fmt.Fprintf(w, "\n%s\n\n", utils.Truncate(st.Description, 200))
}
