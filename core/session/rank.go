package session

import "cloud-architect-sim/internal/config"

// Rank is the architect rank earned by a score
type Rank string

const (
	RankBronze Rank = "Bronze"
	RankSilver Rank = "Silver"
	RankGold   Rank = "Gold"
)

// RankFor buckets a score against the configured thresholds
func RankFor(score int, ranks config.RankConfig) Rank {
	switch {
	case score >= ranks.Gold:
		return RankGold
	case score >= ranks.Silver:
		return RankSilver
	default:
		return RankBronze
	}
}

// ParseRank returns the rank named s, or Bronze
func ParseRank(s string) Rank {
	switch Rank(s) {
	case RankGold, RankSilver:
		return Rank(s)
	default:
		return RankBronze
	}
}
