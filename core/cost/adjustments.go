package cost

import (
	"github.com/shopspring/decimal"

	"cloud-architect-sim/core/topology"
)

// HoursPerMonth is the billing month: 30 days of 24 hours
const HoursPerMonth = 720

// EarlyLevelMax is the last level that receives early-level pricing
const EarlyLevelMax = 2

// adjustment scales the cost of every instance of a service type.
// Adjustments compose multiplicatively.
type adjustment struct {
	service    string
	multiplier decimal.Decimal
	reason     string

	// earlyOnly restricts the adjustment to levels 1..EarlyLevelMax
	earlyOnly bool

	// when gates the adjustment on the architecture; zero value always holds
	when topology.Condition
}

var adjustments = []adjustment{
	{
		service:    "lambda",
		multiplier: decimal.RequireFromString("0.5"),
		reason:     "not invoked through API Gateway",
		when:       topology.NotLinked("api_gateway", "lambda"),
	},
	{
		service:    "lambda",
		multiplier: decimal.RequireFromString("0.7"),
		reason:     "early level pricing",
		earlyOnly:  true,
	},
	{
		service:    "s3",
		multiplier: decimal.RequireFromString("0.7"),
		reason:     "lifecycle policy",
		when:       topology.Placed("s3_lifecycle"),
	},
	{
		service:    "s3",
		multiplier: decimal.RequireFromString("0.6"),
		reason:     "early level pricing",
		earlyOnly:  true,
	},
	{
		service:    "dynamodb",
		multiplier: decimal.RequireFromString("0.8"),
		reason:     "capacity auto scaling",
		when:       topology.Placed("dynamodb_autoscaling"),
	},
	{
		service:    "dynamodb",
		multiplier: decimal.RequireFromString("0.7"),
		reason:     "early level pricing",
		earlyOnly:  true,
	},
	{
		service:    "api_gateway",
		multiplier: decimal.RequireFromString("0.5"),
		reason:     "early level pricing",
		earlyOnly:  true,
	},
	{
		service:    "ec2",
		multiplier: decimal.RequireFromString("0.8"),
		reason:     "auto scaling",
		when:       topology.Placed("auto_scaling"),
	},
	{
		service:    "ec2",
		multiplier: decimal.RequireFromString("0.6"),
		reason:     "reserved instances",
		when:       topology.Placed("reserved_instances"),
	},
}

func (a adjustment) applies(serviceID string, levelID int, facts *topology.Facts) bool {
	if a.service != serviceID {
		return false
	}
	if a.earlyOnly && !isEarly(levelID) {
		return false
	}
	return a.when.Holds(facts)
}

// freePair is a connection that incurs no transfer charge
type freePair struct {
	source, target string
	earlyOnly      bool
}

var freePairs = []freePair{
	{source: "cloudfront", target: "s3"},
	{source: "lambda", target: "dynamodb"},
	{source: "lambda", target: "s3", earlyOnly: true},
}

func isFree(source, target string, levelID int) bool {
	for _, p := range freePairs {
		if p.source != source || p.target != target {
			continue
		}
		if p.earlyOnly && !isEarly(levelID) {
			continue
		}
		return true
	}
	return false
}

func isEarly(levelID int) bool {
	return levelID >= 1 && levelID <= EarlyLevelMax
}

// LevelDiscount returns the universal multiplier for a level.
// Unset (0) and levels past 5 pay full price.
func LevelDiscount(levelID int) decimal.Decimal {
	switch {
	case levelID == 1:
		return decimal.RequireFromString("0.5")
	case levelID == 2:
		return decimal.RequireFromString("0.6")
	case levelID == 3:
		return decimal.RequireFromString("0.7")
	case levelID == 4 || levelID == 5:
		return decimal.RequireFromString("0.8")
	default:
		return decimal.NewFromInt(1)
	}
}

// TransferRate returns the flat charge per billable connection
func TransferRate(levelID int) decimal.Decimal {
	switch levelID {
	case 1:
		return decimal.NewFromInt(2)
	case 2:
		return decimal.NewFromInt(3)
	default:
		return decimal.NewFromInt(5)
	}
}
