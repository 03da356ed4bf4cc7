package dedup

import (
	"crypto/subtle"
	"fmt"
)

// GateConfig is the safety policy consulted before any destructive apply.
type GateConfig struct {
	// ConfirmationToken is the expected value a caller must present for
	// live execution. Empty means live execution is disabled entirely.
	ConfirmationToken string
	// MaxDeletions caps redundant-article deletions per run.
	MaxDeletions int
	// MinTier is the weakest founding-judgment tier allowed to trigger an
	// automatic deletion. Weaker groups stay preview-only.
	MinTier Tier
}

// SkippedDeletion records one redundant article the gate kept alive.
type SkippedDeletion struct {
	ArticleID int64
	Reason    string
}

// GateDecision is the filtered plan plus the audit trail of what was cut.
type GateDecision struct {
	Allowed         []DuplicateGroup
	RejectedReasons []string
	Skipped         []SkippedDeletion
}

// ApplyGate filters a resolution plan for live execution. Pure function of
// the plan and configuration; it never touches the store. Policy hits are
// returned as reasons, not errors.
func ApplyGate(plan []DuplicateGroup, presentedToken string, cfg GateConfig) GateDecision {
	var decision GateDecision

	if cfg.ConfirmationToken == "" {
		decision.RejectedReasons = append(decision.RejectedReasons,
			"live execution is disabled: no confirmation token configured")
		return decision
	}
	if subtle.ConstantTimeCompare([]byte(presentedToken), []byte(cfg.ConfirmationToken)) != 1 {
		decision.RejectedReasons = append(decision.RejectedReasons,
			"confirmation token mismatch: apply rejected")
		return decision
	}

	budget := cfg.MaxDeletions
	for _, group := range plan {
		if tierRank(group.FoundingTier()) < tierRank(cfg.MinTier) {
			decision.RejectedReasons = append(decision.RejectedReasons,
				fmt.Sprintf("group keeping article %d dropped: founding tier %s below minimum %s",
					group.Canonical.ID, group.FoundingTier(), cfg.MinTier))
			for _, r := range group.Redundant {
				decision.Skipped = append(decision.Skipped, SkippedDeletion{
					ArticleID: r.Article.ID,
					Reason:    "confidence-below-threshold",
				})
			}
			continue
		}

		allowed := group
		allowed.Redundant = nil
		for _, r := range group.Redundant {
			if budget <= 0 {
				decision.Skipped = append(decision.Skipped, SkippedDeletion{
					ArticleID: r.Article.ID,
					Reason:    "limit-exceeded",
				})
				continue
			}
			allowed.Redundant = append(allowed.Redundant, r)
			budget--
		}
		if len(allowed.Redundant) > 0 {
			decision.Allowed = append(decision.Allowed, allowed)
		}
	}

	limitSkips := 0
	for _, s := range decision.Skipped {
		if s.Reason == "limit-exceeded" {
			limitSkips++
		}
	}
	if limitSkips > 0 {
		decision.RejectedReasons = append(decision.RejectedReasons,
			fmt.Sprintf("plan truncated to %d deletion(s) per run: %d skipped", cfg.MaxDeletions, limitSkips))
	}

	return decision
}
