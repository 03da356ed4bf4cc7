package dedup

import (
	"strings"
	"testing"
)

func gateGroup(canonicalID int64, score float64, redundantIDs ...int64) DuplicateGroup {
	g := DuplicateGroup{Canonical: Article{ID: canonicalID}}
	for _, id := range redundantIDs {
		g.Redundant = append(g.Redundant, RedundantArticle{
			Article:  Article{ID: id},
			Judgment: judgment(canonicalID, id, score),
		})
	}
	return g
}

func TestApplyGateNoTokenConfigured(t *testing.T) {
	t.Parallel()

	plan := []DuplicateGroup{gateGroup(1, 0.95, 2)}
	decision := ApplyGate(plan, "", GateConfig{MaxDeletions: 10, MinTier: TierMedium})
	if len(decision.Allowed) != 0 {
		t.Fatal("no configured token must reject the whole plan")
	}
	if len(decision.RejectedReasons) != 1 ||
		!strings.Contains(decision.RejectedReasons[0], "live execution is disabled") {
		t.Fatalf("unexpected reasons: %v", decision.RejectedReasons)
	}
}

func TestApplyGateTokenMismatch(t *testing.T) {
	t.Parallel()

	plan := []DuplicateGroup{gateGroup(1, 0.95, 2)}
	cfg := GateConfig{ConfirmationToken: "expected", MaxDeletions: 10, MinTier: TierMedium}
	decision := ApplyGate(plan, "wrong", cfg)
	if len(decision.Allowed) != 0 {
		t.Fatal("mismatched token must reject the whole plan")
	}
	if len(decision.RejectedReasons) != 1 ||
		!strings.Contains(decision.RejectedReasons[0], "confirmation token mismatch") {
		t.Fatalf("unexpected reasons: %v", decision.RejectedReasons)
	}
}

func TestApplyGatePassesMatchingToken(t *testing.T) {
	t.Parallel()

	plan := []DuplicateGroup{gateGroup(1, 0.95, 2, 3)}
	cfg := GateConfig{ConfirmationToken: "expected", MaxDeletions: 10, MinTier: TierMedium}
	decision := ApplyGate(plan, "expected", cfg)
	if len(decision.Allowed) != 1 || len(decision.Allowed[0].Redundant) != 2 {
		t.Fatalf("full plan should pass: %+v", decision)
	}
	if len(decision.RejectedReasons) != 0 || len(decision.Skipped) != 0 {
		t.Fatalf("no policy hits expected: %+v", decision)
	}
}

func TestApplyGateFiltersWeakTiers(t *testing.T) {
	t.Parallel()

	plan := []DuplicateGroup{
		gateGroup(1, 0.95, 2), // high
		gateGroup(3, 0.75, 4), // medium, below minimum
	}
	cfg := GateConfig{ConfirmationToken: "tok", MaxDeletions: 10, MinTier: TierMediumHigh}
	decision := ApplyGate(plan, "tok", cfg)

	if len(decision.Allowed) != 1 || decision.Allowed[0].Canonical.ID != 1 {
		t.Fatalf("only the high-tier group should pass: %+v", decision.Allowed)
	}
	if len(decision.Skipped) != 1 || decision.Skipped[0].ArticleID != 4 ||
		decision.Skipped[0].Reason != "confidence-below-threshold" {
		t.Fatalf("weak group member should be skipped: %+v", decision.Skipped)
	}
	if len(decision.RejectedReasons) != 1 ||
		!strings.Contains(decision.RejectedReasons[0], "founding tier medium below minimum medium-high") {
		t.Fatalf("unexpected reasons: %v", decision.RejectedReasons)
	}
}

func TestApplyGateDeletionBudget(t *testing.T) {
	t.Parallel()

	// 12 redundant articles across three groups, budget of 5.
	plan := []DuplicateGroup{
		gateGroup(1, 0.95, 2, 3, 4, 5),
		gateGroup(10, 0.95, 11, 12, 13, 14),
		gateGroup(20, 0.95, 21, 22, 23, 24),
	}
	cfg := GateConfig{ConfirmationToken: "tok", MaxDeletions: 5, MinTier: TierMedium}
	decision := ApplyGate(plan, "tok", cfg)

	allowed := 0
	for _, g := range decision.Allowed {
		allowed += len(g.Redundant)
	}
	if allowed != 5 {
		t.Fatalf("allowed deletions = %d, want 5", allowed)
	}

	if len(decision.Skipped) != 7 {
		t.Fatalf("skipped = %d, want 7", len(decision.Skipped))
	}
	for _, s := range decision.Skipped {
		if s.Reason != "limit-exceeded" {
			t.Fatalf("unexpected skip reason %q", s.Reason)
		}
	}
	if len(decision.RejectedReasons) != 1 ||
		!strings.Contains(decision.RejectedReasons[0], "plan truncated to 5 deletion(s) per run: 7 skipped") {
		t.Fatalf("unexpected reasons: %v", decision.RejectedReasons)
	}
}

func TestApplyGateDropsFullyTruncatedGroups(t *testing.T) {
	t.Parallel()

	plan := []DuplicateGroup{
		gateGroup(1, 0.95, 2),
		gateGroup(3, 0.95, 4),
	}
	cfg := GateConfig{ConfirmationToken: "tok", MaxDeletions: 1, MinTier: TierMedium}
	decision := ApplyGate(plan, "tok", cfg)

	if len(decision.Allowed) != 1 {
		t.Fatalf("second group has no budget left and must be dropped: %+v", decision.Allowed)
	}
	if decision.Allowed[0].Canonical.ID != 1 {
		t.Fatalf("first group in plan order should consume the budget, got canonical %d",
			decision.Allowed[0].Canonical.ID)
	}
}

func TestApplyGateEmptyPlan(t *testing.T) {
	t.Parallel()

	cfg := GateConfig{ConfirmationToken: "tok", MaxDeletions: 5, MinTier: TierMedium}
	decision := ApplyGate(nil, "tok", cfg)
	if len(decision.Allowed) != 0 || len(decision.RejectedReasons) != 0 || len(decision.Skipped) != 0 {
		t.Fatalf("empty plan must produce an empty decision: %+v", decision)
	}
}
