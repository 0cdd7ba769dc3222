package session

import (
	"sort"

	"cloud-architect-sim/core/level"
	"cloud-architect-sim/internal/config"
)

// DefaultPlayer is the profile name used when none is configured
const DefaultPlayer = "Architect"

// Progress is a player's campaign state
type Progress struct {
	Player string `json:"player"`

	// Unlocked is the set of playable level ids
	Unlocked map[int]bool `json:"unlocked"`

	// Completed maps a level id to the best score achieved on it
	Completed map[int]int `json:"completed"`

	TotalScore  int  `json:"total_score"`
	HighestRank Rank `json:"highest_rank"`
}

// NewProgress returns a fresh profile with the first level unlocked
func NewProgress(player string) *Progress {
	if player == "" {
		player = DefaultPlayer
	}
	return &Progress{
		Player:      player,
		Unlocked:    map[int]bool{level.FallbackID: true},
		Completed:   make(map[int]int),
		HighestRank: RankBronze,
	}
}

// IsUnlocked reports whether a level can be played
func (p *Progress) IsUnlocked(levelID int) bool {
	return p.Unlocked[levelID]
}

// UnlockAll opens levels 1..maxLevel
func (p *Progress) UnlockAll(maxLevel int) {
	for id := 1; id <= maxLevel; id++ {
		p.Unlocked[id] = true
	}
}

// UnlockedLevels returns the unlocked ids, sorted
func (p *Progress) UnlockedLevels() []int {
	ids := make([]int, 0, len(p.Unlocked))
	for id, ok := range p.Unlocked {
		if ok {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	return ids
}

// CompletedLevels returns the completed ids, sorted
func (p *Progress) CompletedLevels() []int {
	ids := make([]int, 0, len(p.Completed))
	for id := range p.Completed {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Best returns the best score recorded for a level
func (p *Progress) Best(levelID int) (int, bool) {
	score, ok := p.Completed[levelID]
	return score, ok
}

// Complete records a completed level. The best score per level is kept,
// the next level is unlocked up to maxLevel, and the highest rank only
// ever moves up. It returns the rank of score.
func (p *Progress) Complete(levelID, score int, ranks config.RankConfig, maxLevel int) Rank {
	if best, ok := p.Completed[levelID]; !ok || score > best {
		p.Completed[levelID] = score
	}
	if levelID < maxLevel {
		p.Unlocked[levelID+1] = true
	}

	p.TotalScore = 0
	for _, s := range p.Completed {
		p.TotalScore += s
	}

	rank := RankFor(score, ranks)
	if rank == RankGold || (rank == RankSilver && p.HighestRank == RankBronze) {
		p.HighestRank = rank
	}
	return rank
}

// Clone returns a deep copy
func (p *Progress) Clone() *Progress {
	c := *p
	c.Unlocked = make(map[int]bool, len(p.Unlocked))
	for id, ok := range p.Unlocked {
		c.Unlocked[id] = ok
	}
	c.Completed = make(map[int]int, len(p.Completed))
	for id, s := range p.Completed {
		c.Completed[id] = s
	}
	return &c
}
