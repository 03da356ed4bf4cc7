package app

import (
	"testing"
	"time"

	"horse.fit/dealsweep/internal/dedup"
)

func TestParseWindowFlags(t *testing.T) {
	t.Parallel()

	w, err := parseWindowFlags("", 7, "")
	if err != nil || w.Strategy != dedup.WindowRecency || w.Days != 7 {
		t.Fatalf("default strategy: %+v, err %v", w, err)
	}

	w, err = parseWindowFlags("Recency", 30, "")
	if err != nil || w.Strategy != dedup.WindowRecency || w.Days != 30 {
		t.Fatalf("recency strategy: %+v, err %v", w, err)
	}

	w, err = parseWindowFlags("publication-date", 1, "2026-02-20")
	if err != nil || w.Strategy != dedup.WindowPublicationDate {
		t.Fatalf("publication-date strategy: %+v, err %v", w, err)
	}
	want := time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC)
	if !w.Date.Equal(want) {
		t.Fatalf("date = %v, want %v", w.Date, want)
	}

	if _, err = parseWindowFlags("publication-date", 1, "20/02/2026"); err == nil {
		t.Fatal("malformed date must fail")
	}
	if _, err = parseWindowFlags("recency", 0, ""); err == nil {
		t.Fatal("non-positive days must fail")
	}
	if _, err = parseWindowFlags("bogus", 7, ""); err == nil {
		t.Fatal("unknown strategy must fail")
	}
}

func TestParseOutputFormat(t *testing.T) {
	t.Parallel()

	format, err := parseOutputFormat("", outputFormatTable)
	if err != nil || format != outputFormatTable {
		t.Fatalf("default format: %q, err %v", format, err)
	}
	format, err = parseOutputFormat("JSON", outputFormatTable)
	if err != nil || format != outputFormatJSON {
		t.Fatalf("json format: %q, err %v", format, err)
	}
	if _, err = parseOutputFormat("xml", outputFormatTable); err == nil {
		t.Fatal("unknown format must fail")
	}
}

func TestTruncateForTable(t *testing.T) {
	t.Parallel()

	if got := truncateForTable("short", 10); got != "short" {
		t.Fatalf("short value = %q", got)
	}
	got := truncateForTable("a very long headline about a deal", 10)
	if len([]rune(got)) > 10 {
		t.Fatalf("truncated value too long: %q", got)
	}
}

func TestRunReportJSONShape(t *testing.T) {
	t.Parallel()

	report := dedup.RunReport{
		RunID:           "run-9",
		Mode:            dedup.ModeApply,
		State:           dedup.StateReported,
		StartedAt:       time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		FinishedAt:      time.Date(2026, 3, 1, 12, 0, 5, 0, time.UTC),
		Deleted:         2,
		RejectedReasons: []string{"reason"},
		Skipped:         []dedup.SkippedDeletion{{ArticleID: 4, Reason: "limit-exceeded"}},
	}

	out := runReportJSON(report)
	if out["run_id"] != "run-9" || out["mode"] != "apply" || out["deleted"] != 2 {
		t.Fatalf("unexpected shape: %v", out)
	}
	if _, ok := out["finished_at"]; !ok {
		t.Fatal("finished_at missing")
	}
	skipped, ok := out["skipped"].([]map[string]any)
	if !ok || len(skipped) != 1 || skipped[0]["reason"] != "limit-exceeded" {
		t.Fatalf("unexpected skipped shape: %v", out["skipped"])
	}

	// Pending runs omit optional fields.
	out = runReportJSON(dedup.RunReport{RunID: "run-10", Mode: dedup.ModePreview})
	if _, ok := out["finished_at"]; ok {
		t.Fatal("zero FinishedAt should be omitted")
	}
	if _, ok := out["rejected_reasons"]; ok {
		t.Fatal("empty rejected_reasons should be omitted")
	}
}
