/*
Package domain contains the core data model of the two-level rule compiler.

It defines the entities shared by the three compilation stages and by the
adapters that persist or serve their results. This package is kept pure and
free of I/O, following the same hexagonal layout as the rest of the module.

# Key Entities

  - Symbol and Pair: the atoms of the grammar. A Pair is a lexical:surface
    correspondence and the elementary arc label of every rule automaton.
  - Alphabet: the resolved total alphabet (pairs) and the non-alphabet symbols.
  - Rule: a parsed two-level rule (center, operator, contexts).
  - Conflict: two rules constraining the same symbols in overlapping contexts.
  - Config: the options observable by the core compiler.
  - GrammarError, ConflictError, InternalError: the failure taxonomy.
*/
package domain
