package domain

import "fmt"

// Variant selects how symbols outside the alphabet are represented in rule automata.
type Variant string

const (
	// VariantOther adds a dedicated identity label for every symbol outside the alphabet.
	VariantOther Variant = "other"
	// VariantClosed builds automata over the declared pairs only.
	VariantClosed Variant = "closed"
)

// ParseVariant converts a variant name. The empty string selects VariantOther.
func ParseVariant(s string) (Variant, error) {
	switch v := Variant(s); v {
	case "":
		return VariantOther, nil
	case VariantOther, VariantClosed:
		return v, nil
	}
	return "", fmt.Errorf("unknown automaton variant %q (want %q or %q)", s, VariantOther, VariantClosed)
}

// Config holds the options observable by the compiler core.
type Config struct {
	// Silent suppresses progress and info diagnostics.
	Silent bool `json:"silent" yaml:"silent" mapstructure:"silent"`
	// Verbose enables per-rule diagnostics.
	Verbose bool `json:"verbose" yaml:"verbose" mapstructure:"verbose"`
	// ResolveLeftConflicts narrows overlapping left-arrow contexts instead of failing.
	ResolveLeftConflicts bool `json:"resolve_left_conflicts" yaml:"resolve_left_conflicts" mapstructure:"resolve_left_conflicts"`
	// ResolveRightConflicts merges right-arrow contexts instead of failing.
	ResolveRightConflicts bool `json:"resolve_right_conflicts" yaml:"resolve_right_conflicts" mapstructure:"resolve_right_conflicts"`
	// Variant selects the "other symbol" representation.
	Variant Variant `json:"variant" yaml:"variant" mapstructure:"variant"`
}

// Normalize fills defaults and validates the variant.
func (c Config) Normalize() (Config, error) {
	v, err := ParseVariant(string(c.Variant))
	if err != nil {
		return c, err
	}
	c.Variant = v
	return c, nil
}
