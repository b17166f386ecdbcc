package domain

import (
	"fmt"
	"strings"
)

// Operator is the class of a two-level rule.
type Operator string

const (
	// OpRestrict (=>): the center may occur only in one of the contexts.
	OpRestrict Operator = "=>"
	// OpCoerce (<=): in the contexts, the lexical side must be realized as the center.
	OpCoerce Operator = "<="
	// OpBiconditional (<=>): both OpRestrict and OpCoerce.
	OpBiconditional Operator = "<=>"
	// OpExclude (/<=): the center never occurs in the contexts.
	OpExclude Operator = "/<="
)

// ParseOperator converts the source form of an operator.
func ParseOperator(s string) (Operator, error) {
	switch op := Operator(s); op {
	case OpRestrict, OpCoerce, OpBiconditional, OpExclude:
		return op, nil
	}
	return "", fmt.Errorf("unknown rule operator %q", s)
}

// Restricts reports whether the operator has a right-arrow component.
func (o Operator) Restricts() bool {
	return o == OpRestrict || o == OpBiconditional
}

// Coerces reports whether the operator has a left-arrow component.
func (o Operator) Coerces() bool {
	return o == OpCoerce || o == OpBiconditional
}

// Excludes reports whether the operator forbids the center in context.
func (o Operator) Excludes() bool {
	return o == OpExclude
}

// Position locates a token in a grammar source.
type Position struct {
	Source string `json:"source,omitempty"`
	Line   int    `json:"line,omitempty"`
	Col    int    `json:"col,omitempty"`
}

// IsZero reports whether no position information is available.
func (p Position) IsZero() bool {
	return p.Line == 0 && p.Col == 0
}

func (p Position) String() string {
	if p.IsZero() {
		return p.Source
	}
	if p.Source == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Col)
	}
	return fmt.Sprintf("%s:%d:%d", p.Source, p.Line, p.Col)
}

// Context is one left/right environment of a rule, kept in source form for reporting.
type Context struct {
	Left          string `json:"left,omitempty"`
	Right         string `json:"right,omitempty"`
	LeftAnchored  bool   `json:"left_anchored,omitempty"`
	RightAnchored bool   `json:"right_anchored,omitempty"`
}

func (c Context) String() string {
	var sb strings.Builder
	if c.LeftAnchored {
		sb.WriteString(string(Boundary) + " ")
	}
	if c.Left != "" {
		sb.WriteString(c.Left + " ")
	}
	sb.WriteString("_")
	if c.Right != "" {
		sb.WriteString(" " + c.Right)
	}
	if c.RightAnchored {
		sb.WriteString(" " + string(Boundary))
	}
	return sb.String()
}

// Rule is a parsed two-level rule. It is immutable once parsed.
type Rule struct {
	Name     string    `json:"name"`
	Center   []Pair    `json:"center"`
	Op       Operator  `json:"op"`
	Contexts []Context `json:"contexts"`
	Pos      Position  `json:"pos"`
}

// LexicalSymbols returns the distinct lexical sides of the center, in order.
func (r *Rule) LexicalSymbols() []Symbol {
	seen := make(map[Symbol]bool)
	var out []Symbol
	for _, p := range r.Center {
		if !seen[p.Lex] {
			seen[p.Lex] = true
			out = append(out, p.Lex)
		}
	}
	return out
}

// HasCenter reports whether p is one of the center pairs.
func (r *Rule) HasCenter(p Pair) bool {
	for _, c := range r.Center {
		if c == p {
			return true
		}
	}
	return false
}

func (r *Rule) String() string {
	centers := make([]string, len(r.Center))
	for i, p := range r.Center {
		centers[i] = p.String()
	}
	center := centers[0]
	if len(centers) > 1 {
		center = "[ " + strings.Join(centers, " | ") + " ]"
	}
	ctx := make([]string, len(r.Contexts))
	for i, c := range r.Contexts {
		ctx[i] = c.String() + " ;"
	}
	return fmt.Sprintf("%q %s %s %s", r.Name, center, r.Op, strings.Join(ctx, " "))
}
