// package formatter renders sync run reports as console text, Markdown, and JSON files
package formatter

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/desertthunder/tsync/internal/shared"
	"github.com/desertthunder/tsync/internal/tasks"
	"github.com/desertthunder/tsync/internal/trakt"
)

// SummaryText renders a run report as plain text for the terminal.
func SummaryText(report *tasks.RunReport) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Sync run: %s (%s)\n",
		report.StartedAt.Format(time.RFC3339), report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond)))
	if report.DryRun {
		buf.WriteString("Mode: dry run (nothing was sent)\n")
	}

	for _, user := range report.Users {
		buf.WriteString(fmt.Sprintf("\nUser: %s\n", user.User))
		if user.Error != "" {
			buf.WriteString(fmt.Sprintf("  error: %s\n", user.Error))
			continue
		}

		if user.Movies != nil {
			buf.WriteString(fmt.Sprintf("  movies: collect %d, uncollect %d, watch %d, unwatch %d\n",
				len(user.Movies.Collect), len(user.Movies.Uncollect),
				len(user.Movies.MarkWatched), len(user.Movies.MarkUnwatched)))
		}
		if user.Episodes != nil {
			buf.WriteString(fmt.Sprintf("  shows:  collect %d, uncollect %d, watch %d, unwatch %d\n",
				len(user.Episodes.Collect), len(user.Episodes.Uncollect),
				len(user.Episodes.MarkWatched), len(user.Episodes.MarkUnwatched)))
		}
		if user.LocalResets > 0 {
			buf.WriteString(fmt.Sprintf("  local watch-state resets: %d\n", user.LocalResets))
		}

		for _, result := range user.Results {
			buf.WriteString(fmt.Sprintf("  %s: %s\n", result.Op, opLine(result)))
		}
	}

	return buf.Bytes()
}

// opLine condenses one operation result to a single line.
func opLine(result tasks.OpResult) string {
	if result.Skipped {
		if result.Movies == 0 && result.Shows == 0 {
			return "skipped (empty)"
		}
		return fmt.Sprintf("skipped (%d movies, %d shows)", result.Movies, result.Shows)
	}
	if result.Err != nil {
		return fmt.Sprintf("FAILED: %v", result.Err)
	}

	notFound := len(result.NotFound.Movies) + len(result.NotFound.Shows) +
		len(result.NotFound.Seasons) + len(result.NotFound.Episodes)
	line := fmt.Sprintf("added %d, existing %d, deleted %d",
		countTotal(result.Added), countTotal(result.Existing), countTotal(result.Deleted))
	if notFound > 0 {
		line += fmt.Sprintf(", NOT FOUND %d", notFound)
	}
	return line
}

func countTotal(c trakt.SyncCounts) int {
	return c.Movies + c.Shows + c.Seasons + c.Episodes
}

// ToMarkdown renders a run report as a Markdown document.
func ToMarkdown(report *tasks.RunReport) []byte {
	var buf bytes.Buffer

	buf.WriteString("# Sync Report\n\n")
	buf.WriteString(fmt.Sprintf("**Started**: %s\n", report.StartedAt.Format(time.RFC3339)))
	buf.WriteString(fmt.Sprintf("**Finished**: %s\n", report.FinishedAt.Format(time.RFC3339)))
	if report.DryRun {
		buf.WriteString("**Mode**: dry run\n")
	}
	buf.WriteString("\n")

	for _, user := range report.Users {
		buf.WriteString(fmt.Sprintf("## %s\n\n", user.User))
		if user.Error != "" {
			buf.WriteString(fmt.Sprintf("Sync failed: `%s`\n\n", user.Error))
			continue
		}

		buf.WriteString("| Operation | Movies | Shows | Added | Existing | Deleted | Not Found | Status |\n")
		buf.WriteString("|---|---|---|---|---|---|---|---|\n")
		for _, result := range user.Results {
			status := "ok"
			if result.Err != nil {
				status = "failed"
			} else if result.Skipped {
				status = "skipped"
			}
			notFound := len(result.NotFound.Movies) + len(result.NotFound.Shows) +
				len(result.NotFound.Seasons) + len(result.NotFound.Episodes)
			buf.WriteString(fmt.Sprintf("| %s | %d | %d | %d | %d | %d | %d | %s |\n",
				result.Op, result.Movies, result.Shows,
				countTotal(result.Added), countTotal(result.Existing), countTotal(result.Deleted),
				notFound, status))
		}
		if user.LocalResets > 0 {
			buf.WriteString(fmt.Sprintf("\nLocal watch-state resets: %d\n", user.LocalResets))
		}
		buf.WriteString("\n")
	}

	return buf.Bytes()
}

// ToJSON renders a run report as indented JSON.
func ToJSON(report *tasks.RunReport) ([]byte, error) {
	return shared.MarshalJSON(report, true)
}

// WriteResult contains the paths of files created by WriteReport.
type WriteResult struct {
	JSONFile     string
	MarkdownFile string
}

// WriteReport writes {base}.json and {base}.md report files for a run.
// The base defaults to a timestamped name.
func WriteReport(report *tasks.RunReport, base string) (*WriteResult, error) {
	if base == "" {
		base = "tsync_report_" + report.StartedAt.Format("20060102_150405")
	}

	jsonData, err := ToJSON(report)
	if err != nil {
		return nil, fmt.Errorf("failed to generate JSON report: %w", err)
	}

	result := &WriteResult{JSONFile: base + ".json", MarkdownFile: base + ".md"}
	if err := os.WriteFile(result.JSONFile, jsonData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write JSON report: %w", err)
	}
	if err := os.WriteFile(result.MarkdownFile, ToMarkdown(report), 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown report: %w", err)
	}

	return result, nil
}
