// Package security audits a placed architecture against a tiered rule table.
// Every rule that holds contributes exactly one issue; rules are independent.
package security

import (
	"go.uber.org/zap"

	"cloud-architect-sim/core/level"
	"cloud-architect-sim/core/topology"
	"cloud-architect-sim/core/types"
	"cloud-architect-sim/internal/logging"
)

// Finding is a fired rule
type Finding struct {
	RuleID  string `json:"rule_id"`
	Message string `json:"message"`
}

// Auditor evaluates a rule table
type Auditor struct {
	rules []Rule
}

// NewAuditor creates an auditor over DefaultRules
func NewAuditor() *Auditor {
	return NewAuditorWithRules(DefaultRules)
}

// NewAuditorWithRules creates an auditor over a custom rule table
func NewAuditorWithRules(rules []Rule) *Auditor {
	return &Auditor{rules: append([]Rule(nil), rules...)}
}

// Findings returns the fired rules for the level's tier, in table order
func (a *Auditor) Findings(services []string, connections []types.Connection, levelID int) []Finding {
	tier := level.TierFor(levelID)
	facts := topology.NewFacts(services, connections)

	var findings []Finding
	for _, rule := range a.rules {
		if !rule.AppliesTo(tier) {
			continue
		}
		if rule.When.Holds(facts) {
			findings = append(findings, Finding{RuleID: rule.ID, Message: rule.Message})
		}
	}

	logging.Debug("security audit",
		zap.Int("level", levelID),
		zap.String("tier", string(tier)),
		zap.Int("issues", len(findings)))

	return findings
}

// Audit returns the issue messages in rule order
func (a *Auditor) Audit(services []string, connections []types.Connection, levelID int) []string {
	findings := a.Findings(services, connections, levelID)
	if len(findings) == 0 {
		return nil
	}
	issues := make([]string, len(findings))
	for i, f := range findings {
		issues[i] = f.Message
	}
	return issues
}

// AuditPlacement audits a placement
func (a *Auditor) AuditPlacement(p types.Placement, levelID int) []string {
	return a.Audit(p.ServiceList(), p.ConnectionList(), levelID)
}

// Rules returns the rules that run in tier
func (a *Auditor) Rules(tier level.Tier) []Rule {
	var result []Rule
	for _, rule := range a.rules {
		if rule.AppliesTo(tier) {
			result = append(result, rule)
		}
	}
	return result
}
