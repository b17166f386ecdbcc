/*
Package fst is the automaton algebra used by the rule compiler.

An Automaton is a complete deterministic automaton over a fixed number of
integer labels. Every exported operation returns a minimal automaton with
canonically numbered states (breadth-first from the start state, labels in
ascending order), so two equivalent automata built in different ways are
structurally identical and serialize to the same bytes.

A Transducer binds an Automaton to a table of symbol pairs, one per label:
reading a string of pairs as a lexical:surface correspondence is what makes
the automaton a two-level transducer. Transducers are written and read in the
AT&T text format or as JSON.

Operations panic with *InvariantError when called with automata over
different label counts or with labels out of range. These are programming
errors in the caller; the compiler recovers them at its stage boundary.
*/
package fst
