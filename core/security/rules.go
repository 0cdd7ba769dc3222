package security

import (
	"cloud-architect-sim/core/level"
	"cloud-architect-sim/core/topology"
)

// Rule is one declarative security check
type Rule struct {
	ID      string
	Message string

	// Tiers the rule runs in
	Tiers []level.Tier

	// When is the violation condition
	When topology.Condition
}

// AppliesTo reports whether the rule runs in tier
func (r Rule) AppliesTo(tier level.Tier) bool {
	for _, t := range r.Tiers {
		if t == tier {
			return true
		}
	}
	return false
}

// Issue messages
const (
	MsgLambdaWithoutIAM = "Lambda function without IAM role"
	MsgS3Public         = "S3 bucket is publicly accessible without CloudFront"
	MsgS3NotEncrypted   = "S3 bucket is not encrypted with KMS"
	MsgRDSNotEncrypted  = "RDS database is not encrypted"
	MsgRDSWithoutVPC    = "RDS database is not in a VPC"
	MsgAPIGatewayNoWAF  = "API Gateway without WAF protection"
	MsgMissingAuth      = "Architecture lacks authentication mechanism"
)

var (
	// highRiskBackends put an API Gateway in scope for WAF
	highRiskBackends = []string{"rds", "dynamodb", "lambda", "ec2"}

	// sensitiveServices require an authentication provider
	sensitiveServices = []string{"rds", "dynamodb", "lambda", "ec2", "s3"}

	// authProviders satisfy the authentication requirement
	authProviders = []string{"cognito", "iam"}
)

var standard = []level.Tier{level.TierStandard}

// DefaultRules is the rule table. Order is report order within a tier.
var DefaultRules = []Rule{
	{
		ID:      "s3-not-encrypted",
		Message: MsgS3NotEncrypted,
		Tiers:   standard,
		When: topology.All(
			topology.Placed("s3"),
			topology.Placed("kms"),
			topology.NotLinked("kms", "s3"),
		),
	},
	{
		ID:      "s3-public-via-api-gateway",
		Message: MsgS3Public,
		Tiers:   []level.Tier{level.TierFoundation},
		When: topology.All(
			topology.Placed("s3"),
			topology.Absent("cloudfront"),
			topology.Linked("api_gateway", "s3"),
		),
	},
	{
		ID:      "s3-public-without-cloudfront",
		Message: MsgS3Public,
		Tiers:   standard,
		When: topology.All(
			topology.Placed("s3"),
			topology.Absent("cloudfront"),
			topology.Any(
				topology.Linked("api_gateway", "s3"),
				topology.Linked("internet_gateway", "s3"),
			),
		),
	},
	{
		ID:      "lambda-without-iam",
		Message: MsgLambdaWithoutIAM,
		Tiers:   []level.Tier{level.TierIntro, level.TierStandard},
		When: topology.All(
			topology.Placed("lambda"),
			topology.Absent("iam"),
		),
	},
	{
		ID:      "rds-not-encrypted",
		Message: MsgRDSNotEncrypted,
		Tiers:   standard,
		When: topology.All(
			topology.Placed("rds"),
			topology.Placed("kms"),
			topology.NotLinked("kms", "rds"),
		),
	},
	{
		ID:      "rds-without-vpc",
		Message: MsgRDSWithoutVPC,
		Tiers:   standard,
		When: topology.All(
			topology.Placed("rds"),
			topology.Absent("vpc"),
		),
	},
	{
		// fires only when WAF is placed but not wired in front of the gateway
		ID:      "api-gateway-without-waf",
		Message: MsgAPIGatewayNoWAF,
		Tiers:   standard,
		When: topology.All(
			topology.Placed("api_gateway"),
			topology.Placed("waf"),
			topology.AnyPlaced(highRiskBackends...),
			topology.NotLinked("waf", "api_gateway"),
		),
	},
	{
		ID:      "missing-authentication",
		Message: MsgMissingAuth,
		Tiers:   standard,
		When: topology.All(
			topology.AnyPlaced(sensitiveServices...),
			topology.NonePlaced(authProviders...),
		),
	},
}
