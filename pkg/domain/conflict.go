package domain

import (
	"fmt"
	"strings"
)

// Side tells which arrow component of two rules is in conflict.
type Side string

const (
	// SideLeft is a left-arrow conflict: two <= (or <= and /<=) components
	// demand incompatible realizations of one lexical symbol in overlapping contexts.
	SideLeft Side = "left"
	// SideRight is a right-arrow conflict: two => components restrict the same
	// pair to different contexts, leaving only their intersection.
	SideRight Side = "right"
)

// Conflict is a transient analysis artifact produced while compiling a grammar.
type Conflict struct {
	Side       Side   `json:"side"`
	RuleA      string `json:"rule_a"`
	RuleB      string `json:"rule_b"`
	Pairs      []Pair `json:"pairs"`
	Resolved   bool   `json:"resolved"`
	Resolution string `json:"resolution,omitempty"`
}

func (c Conflict) String() string {
	pairs := make([]string, len(c.Pairs))
	for i, p := range c.Pairs {
		pairs[i] = p.String()
	}
	return fmt.Sprintf("%s-arrow conflict between %q and %q on %s", c.Side, c.RuleA, c.RuleB, strings.Join(pairs, ", "))
}
