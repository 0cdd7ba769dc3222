package level

import (
	"go.uber.org/zap"

	"cloud-architect-sim/core/topology"
	"cloud-architect-sim/internal/logging"
)

func (r WiringRule) conditions() (when, anyOf topology.Condition, err error) {
	if when, err = allOf(r.When); err != nil {
		return
	}
	anyOf, err = topology.ParsePatterns(r.AnyOf)
	return
}

// Unmet reports whether the rule applies and is not satisfied
func (r WiringRule) Unmet(facts *topology.Facts) bool {
	when, anyOf, err := r.conditions()
	if err != nil {
		logging.Debug("skipping malformed wiring rule", zap.String("message", r.Message), zap.Error(err))
		return false
	}
	return when.Holds(facts) && !anyOf.Holds(facts)
}

// Review returns the messages of unmet wiring rules in declaration order
func Review(s Spec, facts *topology.Facts) []string {
	var hints []string
	for _, rule := range s.Wiring {
		if rule.Unmet(facts) {
			hints = append(hints, rule.Message)
		}
	}
	return hints
}

// Complete reports whether the step's patterns all hold
func (st Step) Complete(facts *topology.Facts) bool {
	if len(st.CompleteWhen) == 0 {
		return false
	}
	cond, err := allOf(st.CompleteWhen)
	if err != nil {
		return false
	}
	return cond.Holds(facts)
}

// Progress advances the tutorial from current over every consecutive
// completed step and returns the new step index. The result never moves
// backwards and never exceeds len(s.Tutorial).
func Progress(s Spec, facts *topology.Facts, current int) int {
	if current < 0 {
		current = 0
	}
	for current < len(s.Tutorial) && s.Tutorial[current].Complete(facts) {
		current++
	}
	return current
}

// CurrentStep returns the text of the tutorial step at index, or "" past the end
func CurrentStep(s Spec, index int) string {
	if index < 0 || index >= len(s.Tutorial) {
		return ""
	}
	return s.Tutorial[index].Text
}

// stepsFromText turns plain tutorial strings into steps. Step i completes
// when the i-th required service (in declaration order) is placed; later
// steps are left for the player to read.
func stepsFromText(texts []string, required []string) []Step {
	steps := make([]Step, len(texts))
	for i, text := range texts {
		steps[i] = Step{Text: text}
		if i < len(required) && i < len(texts)-1 {
			steps[i].CompleteWhen = []string{required[i]}
		}
	}
	return steps
}
