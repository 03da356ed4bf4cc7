package app

import (
	"fmt"
	"strings"
	"time"

	"horse.fit/dealsweep/internal/dedup"
)

func parseWindowFlags(strategy string, days int, date string) (dedup.Window, error) {
	if days <= 0 {
		return dedup.Window{}, fmt.Errorf("--days must be > 0")
	}

	switch strings.TrimSpace(strings.ToLower(strategy)) {
	case "", string(dedup.WindowRecency):
		return dedup.Window{Strategy: dedup.WindowRecency, Days: days}, nil
	case string(dedup.WindowPublicationDate):
		day, err := parseUTCDate(date)
		if err != nil {
			return dedup.Window{}, fmt.Errorf("invalid --date: %w", err)
		}
		return dedup.Window{Strategy: dedup.WindowPublicationDate, Days: days, Date: day}, nil
	default:
		return dedup.Window{}, fmt.Errorf("--strategy must be recency or publication-date")
	}
}

func printRunReport(report dedup.RunReport, format string) error {
	if format == outputFormatJSON {
		return printJSON(runReportJSON(report))
	}

	fmt.Printf("Run %s (%s) finished in state %s\n", report.RunID, report.Mode, report.State)
	fmt.Printf("  analyzed:        %d\n", report.Analyzed)
	fmt.Printf("  pairs scored:    %d\n", report.PairsScored)
	if report.Escalated > 0 {
		fmt.Printf("  escalated:       %d (%d overridden)\n", report.Escalated, report.SemanticOverrides)
	}
	fmt.Printf("  groups found:    %d\n", report.GroupsFound)
	fmt.Printf("  redundant:       %d\n", report.RedundantCount)
	if report.Mode == dedup.ModeApply {
		fmt.Printf("  deleted:         %d\n", report.Deleted)
		if report.FailedDeletions > 0 {
			fmt.Printf("  failed deletes:  %d\n", report.FailedDeletions)
		}
		if report.UpdatedLinks > 0 || report.FailedUpdates > 0 {
			fmt.Printf("  updated links:   %d (%d failed)\n", report.UpdatedLinks, report.FailedUpdates)
		}
		if report.PartiallyApplied {
			fmt.Println("  partially applied: yes")
		}
	}

	for _, reason := range report.RejectedReasons {
		fmt.Printf("  rejected: %s\n", reason)
	}
	for _, skipped := range report.Skipped {
		fmt.Printf("  skipped article %d: %s\n", skipped.ArticleID, skipped.Reason)
	}
	for _, rationale := range report.GroupRationales {
		fmt.Printf("  group: %s\n", rationale)
	}
	return nil
}

// runReportJSON shapes the report for CLI JSON output.
func runReportJSON(report dedup.RunReport) map[string]any {
	out := map[string]any{
		"run_id":            report.RunID,
		"mode":              string(report.Mode),
		"state":             string(report.State),
		"started_at":        report.StartedAt.Format(time.RFC3339),
		"analyzed":          report.Analyzed,
		"pairs_scored":      report.PairsScored,
		"escalated":         report.Escalated,
		"groups_found":      report.GroupsFound,
		"redundant_count":   report.RedundantCount,
		"deleted":           report.Deleted,
		"failed_deletions":  report.FailedDeletions,
		"updated_links":     report.UpdatedLinks,
		"partially_applied": report.PartiallyApplied,
		"group_rationales":  report.GroupRationales,
	}
	if !report.FinishedAt.IsZero() {
		out["finished_at"] = report.FinishedAt.Format(time.RFC3339)
	}
	if len(report.RejectedReasons) > 0 {
		out["rejected_reasons"] = report.RejectedReasons
	}
	if len(report.Skipped) > 0 {
		skipped := make([]map[string]any, 0, len(report.Skipped))
		for _, item := range report.Skipped {
			skipped = append(skipped, map[string]any{
				"article_id": item.ArticleID,
				"reason":     item.Reason,
			})
		}
		out["skipped"] = skipped
	}
	return out
}
