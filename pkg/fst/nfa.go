package fst

import (
	"slices"
	"strconv"
	"strings"
)

type arc struct {
	label int
	to    int
}

// nfa is the intermediate form used by the operations that are not closed
// over products of DFAs. It is determinized by subset construction.
type nfa struct {
	labels int
	start  int
	final  []bool
	eps    [][]int
	arcs   [][]arc
}

func (n *nfa) state(final bool) int {
	n.final = append(n.final, final)
	n.eps = append(n.eps, nil)
	n.arcs = append(n.arcs, nil)
	return len(n.final) - 1
}

func (n *nfa) arc(from, label, to int) {
	n.arcs[from] = append(n.arcs[from], arc{label: label, to: to})
}

func (n *nfa) epsilon(from, to int) {
	n.eps[from] = append(n.eps[from], to)
}

// embed copies a into n and returns the offset of its states.
func (n *nfa) embed(a *Automaton) int {
	if a.labels != n.labels {
		invariant("embed", "label count mismatch: %d vs %d", n.labels, a.labels)
	}
	off := len(n.final)
	for s := range a.final {
		n.state(a.final[s])
	}
	for s, row := range a.next {
		for l, t := range row {
			n.arc(off+s, l, off+t)
		}
	}
	return off
}

func (n *nfa) closure(set []int) []int {
	seen := make(map[int]bool, len(set))
	stack := append([]int(nil), set...)
	for _, s := range set {
		seen[s] = true
	}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, t := range n.eps[s] {
			if !seen[t] {
				seen[t] = true
				stack = append(stack, t)
			}
		}
	}
	out := make([]int, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	slices.Sort(out)
	return out
}

func setKey(set []int) string {
	var sb strings.Builder
	for i, s := range set {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(s))
	}
	return sb.String()
}

// determinize runs the subset construction. The empty subset becomes the
// dead state, which keeps the result complete.
func (n *nfa) determinize() *Automaton {
	first := n.closure([]int{n.start})
	ids := map[string]int{setKey(first): 0}
	queue := [][]int{first}
	a := &Automaton{labels: n.labels}
	for i := 0; i < len(queue); i++ {
		set := queue[i]
		final := false
		targets := make([][]int, n.labels)
		for _, s := range set {
			final = final || n.final[s]
			for _, e := range n.arcs[s] {
				targets[e.label] = append(targets[e.label], e.to)
			}
		}
		a.final = append(a.final, final)
		row := make([]int, n.labels)
		for l, ts := range targets {
			next := n.closure(ts)
			k := setKey(next)
			id, ok := ids[k]
			if !ok {
				id = len(queue)
				ids[k] = id
				queue = append(queue, next)
			}
			row[l] = id
		}
		a.next = append(a.next, row)
	}
	return a.minimize()
}
