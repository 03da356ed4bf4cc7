package dedup

import (
	"fmt"
	"sort"
)

// RedundantArticle is a non-canonical group member, candidate for deletion.
// It retains the judgment that connected it into the group even though
// membership itself is transitive.
type RedundantArticle struct {
	Article      Article
	Judgment     PairJudgment
	QualityDelta float64
}

// DuplicateGroup is one connected component of duplicate judgments with a
// single canonical (keep) article. Built fresh per run, never persisted.
type DuplicateGroup struct {
	Canonical        Article
	CanonicalQuality float64
	Redundant        []RedundantArticle
}

// FoundingTier is the weakest founding-judgment tier in the group; the
// safety gate compares it against the configured minimum.
func (g DuplicateGroup) FoundingTier() Tier {
	weakest := TierHigh
	for _, r := range g.Redundant {
		if tierRank(r.Judgment.Tier) < tierRank(weakest) {
			weakest = r.Judgment.Tier
		}
	}
	if len(g.Redundant) == 0 {
		return TierNone
	}
	return weakest
}

// Rationale renders the per-group audit string for run reports.
func (g DuplicateGroup) Rationale() string {
	s := fmt.Sprintf("keep article %d (quality %.2f);", g.Canonical.ID, g.CanonicalQuality)
	for _, r := range g.Redundant {
		s += fmt.Sprintf(" drop %d (quality delta %.2f, %s: %s);",
			r.Article.ID, r.QualityDelta, r.Judgment.Tier, r.Judgment.Reason)
	}
	return s
}

// Resolve clusters duplicate judgments into groups using connected
// components: if A~B and B~C are duplicates, A, B, C land in one group even
// when A~C was never compared or scored below threshold. Within a component
// the canonical article is the one with the highest quality score; equal
// scores prefer the more recently created article.
func Resolve(articles []Article, judgments []PairJudgment) []DuplicateGroup {
	byID := make(map[int64]Article, len(articles))
	for _, a := range articles {
		byID[a.ID] = a
	}

	uf := newUnionFind()
	for _, j := range judgments {
		if !j.IsDuplicate() {
			continue
		}
		if _, ok := byID[j.LeftID]; !ok {
			continue
		}
		if _, ok := byID[j.RightID]; !ok {
			continue
		}
		uf.union(j.LeftID, j.RightID)
	}

	components := map[int64][]int64{}
	for id := range uf.parent {
		root := uf.find(id)
		components[root] = append(components[root], id)
	}

	var groups []DuplicateGroup
	for _, members := range components {
		if len(members) < 2 {
			continue
		}
		sort.Slice(members, func(i, j int) bool { return members[i] < members[j] })
		groups = append(groups, buildGroup(members, byID, judgments))
	}

	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Canonical.ID < groups[j].Canonical.ID
	})
	return groups
}

func buildGroup(members []int64, byID map[int64]Article, judgments []PairJudgment) DuplicateGroup {
	scores := make(map[int64]float64, len(members))
	for _, id := range members {
		scores[id] = QualityScore(byID[id])
	}

	canonicalID := members[0]
	for _, id := range members[1:] {
		switch {
		case scores[id] > scores[canonicalID]:
			canonicalID = id
		case scores[id] == scores[canonicalID] &&
			byID[id].CreatedAt.After(byID[canonicalID].CreatedAt):
			canonicalID = id
		}
	}

	group := DuplicateGroup{
		Canonical:        byID[canonicalID],
		CanonicalQuality: scores[canonicalID],
	}
	for _, id := range members {
		if id == canonicalID {
			continue
		}
		group.Redundant = append(group.Redundant, RedundantArticle{
			Article:      byID[id],
			Judgment:     foundingJudgment(id, judgments),
			QualityDelta: scores[canonicalID] - scores[id],
		})
	}
	return group
}

// foundingJudgment picks the strongest duplicate judgment involving the
// article; ties break to the lower partner ID for determinism.
func foundingJudgment(id int64, judgments []PairJudgment) PairJudgment {
	var best PairJudgment
	found := false
	for _, j := range judgments {
		if !j.IsDuplicate() || (j.LeftID != id && j.RightID != id) {
			continue
		}
		if !found || j.Score > best.Score ||
			(j.Score == best.Score && partnerID(j, id) < partnerID(best, id)) {
			best = j
			found = true
		}
	}
	return best
}

func partnerID(j PairJudgment, id int64) int64 {
	if j.LeftID == id {
		return j.RightID
	}
	return j.LeftID
}

type unionFind struct {
	parent map[int64]int64
	rank   map[int64]int
}

func newUnionFind() *unionFind {
	return &unionFind{
		parent: map[int64]int64{},
		rank:   map[int64]int{},
	}
}

func (u *unionFind) find(id int64) int64 {
	if _, ok := u.parent[id]; !ok {
		u.parent[id] = id
	}
	for u.parent[id] != id {
		u.parent[id] = u.parent[u.parent[id]]
		id = u.parent[id]
	}
	return id
}

func (u *unionFind) union(a, b int64) {
	rootA, rootB := u.find(a), u.find(b)
	if rootA == rootB {
		return
	}
	if u.rank[rootA] < u.rank[rootB] {
		rootA, rootB = rootB, rootA
	}
	u.parent[rootB] = rootA
	if u.rank[rootA] == u.rank[rootB] {
		u.rank[rootA]++
	}
}
