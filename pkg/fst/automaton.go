package fst

// Automaton is a complete, minimal DFA over labels 0..Labels()-1.
// Values are immutable; every operation returns a new automaton.
type Automaton struct {
	labels int
	start  int
	final  []bool
	next   [][]int
}

// Empty accepts no string.
func Empty(labels int) *Automaton {
	return single(labels, false)
}

// Universal accepts every string over the labels.
func Universal(labels int) *Automaton {
	return single(labels, true)
}

func single(labels int, final bool) *Automaton {
	if labels < 0 {
		invariant("new", "negative label count %d", labels)
	}
	return &Automaton{labels: labels, final: []bool{final}, next: [][]int{make([]int, labels)}}
}

// EmptyString accepts only the empty string.
func EmptyString(labels int) *Automaton {
	n := &nfa{labels: labels}
	n.start = n.state(true)
	return n.determinize()
}

// Set accepts every one-label string whose label is in ls.
func Set(labels int, ls ...int) *Automaton {
	n := &nfa{labels: labels}
	n.start = n.state(false)
	end := n.state(true)
	for _, l := range ls {
		if l < 0 || l >= labels {
			invariant("set", "label %d out of range [0,%d)", l, labels)
		}
		n.arc(n.start, l, end)
	}
	return n.determinize()
}

// Labels returns the size of the label alphabet.
func (a *Automaton) Labels() int { return a.labels }

// NumStates returns the number of states, including the dead state if any.
func (a *Automaton) NumStates() int { return len(a.final) }

// Start returns the start state.
func (a *Automaton) Start() int { return a.start }

// IsFinal reports whether state s is accepting.
func (a *Automaton) IsFinal(s int) bool { return a.final[s] }

// Next returns the target of state s on label l.
func (a *Automaton) Next(s, l int) int { return a.next[s][l] }

// Accepts runs the automaton on a label string.
func (a *Automaton) Accepts(ls []int) bool {
	s := a.start
	for _, l := range ls {
		if l < 0 || l >= a.labels {
			return false
		}
		s = a.next[s][l]
	}
	return a.final[s]
}

// Concat accepts xy for every x accepted by a and y accepted by b.
func (a *Automaton) Concat(b *Automaton) *Automaton {
	sameLabels("concat", a, b)
	n := &nfa{labels: a.labels}
	offA := n.embed(a)
	offB := n.embed(b)
	n.start = offA + a.start
	for s := range a.final {
		if a.final[s] {
			n.epsilon(offA+s, offB+b.start)
		}
	}
	for s := range a.final {
		n.final[offA+s] = false
	}
	return n.determinize()
}

// Star accepts zero or more repetitions of a.
func (a *Automaton) Star() *Automaton {
	n := &nfa{labels: a.labels}
	off := n.embed(a)
	n.start = n.state(true)
	n.epsilon(n.start, off+a.start)
	for s := range a.final {
		if a.final[s] {
			n.epsilon(off+s, n.start)
		}
	}
	return n.determinize()
}

// Plus accepts one or more repetitions of a.
func (a *Automaton) Plus() *Automaton {
	return a.Concat(a.Star())
}

// Optional accepts a or the empty string.
func (a *Automaton) Optional() *Automaton {
	return a.Union(EmptyString(a.labels))
}

// Union accepts strings accepted by a or b.
func (a *Automaton) Union(b *Automaton) *Automaton {
	return product("union", a, b, func(x, y bool) bool { return x || y })
}

// Intersect accepts strings accepted by both a and b.
func (a *Automaton) Intersect(b *Automaton) *Automaton {
	return product("intersect", a, b, func(x, y bool) bool { return x && y })
}

// Minus accepts strings accepted by a but not by b.
func (a *Automaton) Minus(b *Automaton) *Automaton {
	return product("minus", a, b, func(x, y bool) bool { return x && !y })
}

// Complement accepts every string over the labels that a rejects.
func (a *Automaton) Complement() *Automaton {
	c := a.clone()
	for s := range c.final {
		c.final[s] = !c.final[s]
	}
	return c.minimize()
}

// IsEmpty reports whether a accepts no string.
func (a *Automaton) IsEmpty() bool {
	seen := make([]bool, len(a.final))
	queue := []int{a.start}
	seen[a.start] = true
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		if a.final[s] {
			return false
		}
		for _, t := range a.next[s] {
			if !seen[t] {
				seen[t] = true
				queue = append(queue, t)
			}
		}
	}
	return true
}

// SubsetOf reports whether every string accepted by a is accepted by b.
func (a *Automaton) SubsetOf(b *Automaton) bool {
	return a.Minus(b).IsEmpty()
}

// Equivalent reports whether a and b accept the same language.
func (a *Automaton) Equivalent(b *Automaton) bool {
	if a.labels != b.labels {
		return false
	}
	return product("equivalent", a, b, func(x, y bool) bool { return x != y }).IsEmpty()
}

// Substitute replaces every transition on marker by transitions on each label in with.
// Strings containing the marker are no longer accepted.
func (a *Automaton) Substitute(marker int, with []int) *Automaton {
	if marker < 0 || marker >= a.labels {
		invariant("substitute", "marker %d out of range [0,%d)", marker, a.labels)
	}
	n := &nfa{labels: a.labels}
	for s := range a.final {
		n.state(a.final[s])
	}
	n.start = a.start
	for s, row := range a.next {
		for l, t := range row {
			if l != marker {
				n.arc(s, l, t)
				continue
			}
			for _, w := range with {
				if w < 0 || w >= a.labels || w == marker {
					invariant("substitute", "replacement label %d invalid", w)
				}
				n.arc(s, w, t)
			}
		}
	}
	return n.determinize()
}

// Restrict drops every label >= labels, keeping only strings over the remaining ones.
func (a *Automaton) Restrict(labels int) *Automaton {
	if labels < 0 || labels > a.labels {
		invariant("restrict", "cannot restrict %d labels to %d", a.labels, labels)
	}
	r := &Automaton{labels: labels, start: a.start, final: append([]bool(nil), a.final...)}
	r.next = make([][]int, len(a.next))
	for s, row := range a.next {
		r.next[s] = append([]int(nil), row[:labels]...)
	}
	return r.minimize()
}

// Extend adds unused labels so that a ranges over labels labels. New labels lead to rejection.
func (a *Automaton) Extend(labels int) *Automaton {
	if labels < a.labels {
		invariant("extend", "cannot extend %d labels to %d", a.labels, labels)
	}
	r := &Automaton{labels: labels, start: a.start, final: append(append([]bool(nil), a.final...), false)}
	dead := len(a.final)
	r.next = make([][]int, dead+1)
	for s := 0; s <= dead; s++ {
		row := make([]int, labels)
		for l := range row {
			row[l] = dead
			if s < dead && l < a.labels {
				row[l] = a.next[s][l]
			}
		}
		r.next[s] = row
	}
	return r.minimize()
}

func (a *Automaton) clone() *Automaton {
	c := &Automaton{labels: a.labels, start: a.start, final: append([]bool(nil), a.final...)}
	c.next = make([][]int, len(a.next))
	for s, row := range a.next {
		c.next[s] = append([]int(nil), row...)
	}
	return c
}

func sameLabels(op string, a, b *Automaton) {
	if a.labels != b.labels {
		invariant(op, "label count mismatch: %d vs %d", a.labels, b.labels)
	}
}

func product(op string, a, b *Automaton, accept func(bool, bool) bool) *Automaton {
	sameLabels(op, a, b)
	type key struct{ x, y int }
	ids := map[key]int{{a.start, b.start}: 0}
	queue := []key{{a.start, b.start}}
	r := &Automaton{labels: a.labels}
	for i := 0; i < len(queue); i++ {
		k := queue[i]
		r.final = append(r.final, accept(a.final[k.x], b.final[k.y]))
		row := make([]int, a.labels)
		for l := range row {
			t := key{a.next[k.x][l], b.next[k.y][l]}
			id, ok := ids[t]
			if !ok {
				id = len(queue)
				ids[t] = id
				queue = append(queue, t)
			}
			row[l] = id
		}
		r.next = append(r.next, row)
	}
	return r.minimize()
}
