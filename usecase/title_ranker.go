package usecase

import (
	"slices"
	"sort"
	"strings"

	"syllabus-crawler/domain/dto"
	"syllabus-crawler/domain/model"
)

// Score weighs a title against accept and reject keywords. A keyword equal to
// a whole token earns its weight, a keyword found only inside the title earns
// half. Any reject substring zeroes the score.
func Score(title string, accept map[string]float64, reject []string) float64 {
	lower := strings.ToLower(title)
	for _, r := range reject {
		r = strings.ToLower(r)
		if r != "" && strings.Contains(lower, r) {
			return 0
		}
	}

	tokens := make(map[string]struct{})
	for _, tok := range strings.Fields(lower) {
		tokens[tok] = struct{}{}
	}

	// fixed order keeps float sums identical across calls
	keys := make([]string, 0, len(accept))
	for k := range accept {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var weight float64
	for _, k := range keys {
		kw := strings.ToLower(k)
		if kw == "" {
			continue
		}
		if _, exact := tokens[kw]; exact {
			weight += accept[k]
		} else if strings.Contains(lower, kw) {
			weight += accept[k] / 2
		}
	}
	return weight
}

// Rank scores candidates and returns the best ones by descending weight along
// with their titles. With a dedup cache, titles already selected for the
// active key are skipped and the returned titles are recorded.
func Rank(items []model.Candidate, cfg dto.RankConfig, dedup *SelectionCache) ([]model.RankedItem, []string) {
	seen := make(map[string]struct{}, len(items))
	ranked := make([]model.RankedItem, 0)
	for _, item := range items {
		if _, dup := seen[item.Title]; dup {
			continue
		}
		seen[item.Title] = struct{}{}
		if dedup != nil && dedup.Contains(item.Title) {
			continue
		}
		weight := Score(item.Title, cfg.AcceptWeights, cfg.RejectKeywords)
		if weight <= 0 {
			continue
		}
		ranked = append(ranked, model.RankedItem{Title: item.Title, Payload: item.Payload, Weight: weight})
	}

	slices.SortStableFunc(ranked, func(a, b model.RankedItem) int {
		switch {
		case a.Weight > b.Weight:
			return -1
		case a.Weight < b.Weight:
			return 1
		}
		return 0
	})
	if limit := cfg.Limit(); len(ranked) > limit {
		ranked = ranked[:limit]
	}

	titles := make([]string, 0, len(ranked))
	for _, r := range ranked {
		titles = append(titles, r.Title)
		if dedup != nil {
			dedup.Record(r.Title)
		}
	}
	return ranked, titles
}
