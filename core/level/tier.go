package level

import "cloud-architect-sim/core/types"

// Tier groups levels that share a security rule set and early pricing
type Tier string

const (
	// TierIntro is the first level: only the compute permission check
	TierIntro Tier = "intro"

	// TierFoundation is the second level: only the public storage check
	TierFoundation Tier = "foundation"

	// TierStandard covers every later level and evaluations without a level
	TierStandard Tier = "standard"
)

// tiers maps level ids to their tier; anything absent is standard
var tiers = map[int]Tier{
	1: TierIntro,
	2: TierFoundation,
}

// TierFor returns the tier of a level id. types.NoLevel maps to the
// strict standard tier.
func TierFor(levelID int) Tier {
	if levelID == types.NoLevel {
		return TierStandard
	}
	if t, ok := tiers[levelID]; ok {
		return t
	}
	return TierStandard
}

// Tiers returns every tier in escalation order
func Tiers() []Tier {
	return []Tier{TierIntro, TierFoundation, TierStandard}
}
