package fst

import (
	"fmt"

	"github.com/aretw0/twolc/pkg/domain"
)

// Transducer is a named automaton whose labels are symbol pairs.
type Transducer struct {
	Name   string
	Labels []domain.Pair
	a      *Automaton
}

// NewTransducer binds a to a label table. The table length must match a.Labels().
func NewTransducer(name string, labels []domain.Pair, a *Automaton) *Transducer {
	if len(labels) != a.labels {
		invariant("transducer", "%d pair labels for an automaton over %d labels", len(labels), a.labels)
	}
	return &Transducer{Name: name, Labels: append([]domain.Pair(nil), labels...), a: a}
}

// Identity returns the transducer accepting every string over labels.
func Identity(name string, labels []domain.Pair) *Transducer {
	return NewTransducer(name, labels, Universal(len(labels)))
}

// Automaton returns the underlying automaton.
func (t *Transducer) Automaton() *Automaton { return t.a }

// Rename returns a copy of t with a new name.
func (t *Transducer) Rename(name string) *Transducer {
	return &Transducer{Name: name, Labels: t.Labels, a: t.a}
}

// Label returns the label of p. A pair outside the table maps to the
// Other identity label when p is an identity pair and the table has one.
func (t *Transducer) Label(p domain.Pair) (int, bool) {
	other := -1
	for i, q := range t.Labels {
		if q == p {
			return i, true
		}
		if q == domain.Identity(domain.Other) {
			other = i
		}
	}
	if other >= 0 && p.IsIdentity() && !t.known(p.Lex) {
		return other, true
	}
	return 0, false
}

func (t *Transducer) known(s domain.Symbol) bool {
	for _, q := range t.Labels {
		if q.Lex == s || q.Surf == s {
			return true
		}
	}
	return false
}

// Accepts reports whether the pair string is a valid correspondence.
func (t *Transducer) Accepts(pairs []domain.Pair) bool {
	ls := make([]int, len(pairs))
	for i, p := range pairs {
		l, ok := t.Label(p)
		if !ok {
			return false
		}
		ls[i] = l
	}
	return t.a.Accepts(ls)
}

// IsEmpty reports whether t accepts no pair string.
func (t *Transducer) IsEmpty() bool { return t.a.IsEmpty() }

// Intersect returns the intersection of ts under a new name. All transducers
// must share the same label table.
func Intersect(name string, ts ...*Transducer) *Transducer {
	if len(ts) == 0 {
		invariant("intersect", "no transducers")
	}
	a := ts[0].a
	for _, t := range ts[1:] {
		if !sameTable(ts[0].Labels, t.Labels) {
			invariant("intersect", "label table of %q differs from %q", t.Name, ts[0].Name)
		}
		a = a.Intersect(t.a)
	}
	return NewTransducer(name, ts[0].Labels, a)
}

// Equivalent reports whether a and b share a label table and accept the same strings.
func Equivalent(a, b *Transducer) bool {
	return sameTable(a.Labels, b.Labels) && a.a.Equivalent(b.a)
}

func sameTable(a, b []domain.Pair) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Arc is a transition between live states.
type Arc struct {
	From int
	To   int
	Pair domain.Pair
}

// View is the trimmed form of a transducer: the dead state is dropped and
// live states are numbered 0..States-1 with the start state first.
type View struct {
	States int
	Finals []int
	Arcs   []Arc
}

// Trim computes the View of t. An empty transducer has zero states.
func (t *Transducer) Trim() View {
	a := t.a
	live := coreachable(a)
	var v View
	if !live[a.start] {
		return v
	}
	ids := make([]int, len(a.final))
	for s := range ids {
		ids[s] = -1
		if live[s] {
			ids[s] = v.States
			v.States++
		}
	}
	for s := range a.final {
		if !live[s] {
			continue
		}
		for l, to := range a.next[s] {
			if live[to] {
				v.Arcs = append(v.Arcs, Arc{From: ids[s], To: ids[to], Pair: t.Labels[l]})
			}
		}
		if a.final[s] {
			v.Finals = append(v.Finals, ids[s])
		}
	}
	return v
}

func coreachable(a *Automaton) []bool {
	rev := make([][]int, len(a.final))
	for s, row := range a.next {
		for _, to := range row {
			rev[to] = append(rev[to], s)
		}
	}
	live := make([]bool, len(a.final))
	var stack []int
	for s, f := range a.final {
		if f {
			live[s] = true
			stack = append(stack, s)
		}
	}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, p := range rev[s] {
			if !live[p] {
				live[p] = true
				stack = append(stack, p)
			}
		}
	}
	return live
}

func (t *Transducer) String() string {
	v := t.Trim()
	return fmt.Sprintf("%s (%d states, %d arcs, %d labels)", t.Name, v.States, len(v.Arcs), len(t.Labels))
}
