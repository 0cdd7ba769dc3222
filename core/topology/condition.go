package topology

import (
	"fmt"
	"strings"
)

// Wildcard matches any service in a link pattern
const Wildcard = "*"

// Condition is a named predicate over Facts
type Condition struct {
	desc string
	eval func(*Facts) bool
}

// Holds evaluates the condition
func (c Condition) Holds(f *Facts) bool {
	if c.eval == nil {
		return true
	}
	return c.eval(f)
}

// String describes the condition
func (c Condition) String() string {
	if c.desc == "" {
		return "always"
	}
	return c.desc
}

// Always holds for every architecture
func Always() Condition {
	return Condition{desc: "always", eval: func(*Facts) bool { return true }}
}

// Placed holds when id is placed
func Placed(id string) Condition {
	return Condition{
		desc: "placed(" + id + ")",
		eval: func(f *Facts) bool { return f.Placed(id) },
	}
}

// Absent holds when id is not placed
func Absent(id string) Condition {
	return Condition{
		desc: "absent(" + id + ")",
		eval: func(f *Facts) bool { return !f.Placed(id) },
	}
}

// AnyPlaced holds when at least one of ids is placed
func AnyPlaced(ids ...string) Condition {
	return Condition{
		desc: "any_placed(" + strings.Join(ids, ",") + ")",
		eval: func(f *Facts) bool {
			for _, id := range ids {
				if f.Placed(id) {
					return true
				}
			}
			return false
		},
	}
}

// NonePlaced holds when none of ids is placed
func NonePlaced(ids ...string) Condition {
	anyOf := AnyPlaced(ids...)
	return Condition{
		desc: "none_placed(" + strings.Join(ids, ",") + ")",
		eval: func(f *Facts) bool { return !anyOf.Holds(f) },
	}
}

// Linked holds when a source->target connection exists.
// Either side may be Wildcard; both may not.
func Linked(source, target string) Condition {
	desc := "linked(" + source + "->" + target + ")"
	switch {
	case source == Wildcard:
		return Condition{desc: desc, eval: func(f *Facts) bool { return f.HasIncoming(target) }}
	case target == Wildcard:
		return Condition{desc: desc, eval: func(f *Facts) bool { return f.HasOutgoing(source) }}
	default:
		return Condition{desc: desc, eval: func(f *Facts) bool { return f.Linked(source, target) }}
	}
}

// NotLinked holds when no source->target connection exists
func NotLinked(source, target string) Condition {
	linked := Linked(source, target)
	return Condition{
		desc: "not_linked(" + source + "->" + target + ")",
		eval: func(f *Facts) bool { return !linked.Holds(f) },
	}
}

// All holds when every condition holds
func All(conds ...Condition) Condition {
	return Condition{
		desc: join("all", conds),
		eval: func(f *Facts) bool {
			for _, c := range conds {
				if !c.Holds(f) {
					return false
				}
			}
			return true
		},
	}
}

// Any holds when at least one condition holds
func Any(conds ...Condition) Condition {
	return Condition{
		desc: join("any", conds),
		eval: func(f *Facts) bool {
			for _, c := range conds {
				if c.Holds(f) {
					return true
				}
			}
			return false
		},
	}
}

// Not negates a condition
func Not(c Condition) Condition {
	return Condition{
		desc: "not(" + c.String() + ")",
		eval: func(f *Facts) bool { return !c.Holds(f) },
	}
}

func join(op string, conds []Condition) string {
	parts := make([]string, len(conds))
	for i, c := range conds {
		parts[i] = c.String()
	}
	return op + "(" + strings.Join(parts, ", ") + ")"
}

// ParsePattern turns a level-file token into a condition:
//
//	"lambda"          lambda is placed
//	"api_gateway->s3" the connection exists
//	"cloudtrail->*"   cloudtrail has an outgoing connection
//	"*->lambda"       lambda has an incoming connection
func ParsePattern(token string) (Condition, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Condition{}, fmt.Errorf("empty pattern")
	}

	source, target, isLink := strings.Cut(token, "->")
	if !isLink {
		if token == Wildcard {
			return Condition{}, fmt.Errorf("pattern %q: wildcard needs a link", token)
		}
		return Placed(token), nil
	}

	source = strings.TrimSpace(source)
	target = strings.TrimSpace(target)
	if source == "" || target == "" {
		return Condition{}, fmt.Errorf("pattern %q: link needs both ends", token)
	}
	if source == Wildcard && target == Wildcard {
		return Condition{}, fmt.Errorf("pattern %q: at most one end may be a wildcard", token)
	}
	return Linked(source, target), nil
}

// ParsePatterns parses tokens into an Any condition.
// An empty list yields Always.
func ParsePatterns(tokens []string) (Condition, error) {
	if len(tokens) == 0 {
		return Always(), nil
	}
	conds := make([]Condition, 0, len(tokens))
	for _, tok := range tokens {
		c, err := ParsePattern(tok)
		if err != nil {
			return Condition{}, err
		}
		conds = append(conds, c)
	}
	if len(conds) == 1 {
		return conds[0], nil
	}
	return Any(conds...), nil
}
