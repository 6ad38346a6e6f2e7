package services

import (
	"strings"

	"github.com/ochairo/binsync/internal/domain/entities"
)

// SelectBest scores every asset by how many keywords occur in its name and
// returns the highest scoring one.
//
// Matching is case-insensitive substring containment, so "arm" also matches
// "webarmour.tar.gz". Only a strictly greater score replaces the current best,
// which means the earliest asset wins a tie and a zero score never matches.
// A name matching more keywords always wins, even against a shorter, more
// exact name; configurations rely on this.
func SelectBest(assets []entities.Asset, keywords []string) entities.MatchResult {
	needles := normalizeKeywords(keywords)

	result := entities.MatchResult{}
	for i := range assets {
		score := Score(assets[i].Name, needles)
		if score > result.Score {
			result.Asset = &assets[i]
			result.Score = score
		}
	}
	return result
}

// Score counts the keywords contained in name. Keywords must already be lowercase.
func Score(name string, keywords []string) int {
	lower := strings.ToLower(name)
	score := 0
	for _, k := range keywords {
		if strings.Contains(lower, k) {
			score++
		}
	}
	return score
}

// normalizeKeywords lowercases and trims keywords, dropping empty ones
// (an empty keyword is a substring of every name).
func normalizeKeywords(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			out = append(out, k)
		}
	}
	return out
}
