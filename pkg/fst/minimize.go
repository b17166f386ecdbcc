package fst

import (
	"strconv"
	"strings"
)

// minimize merges equivalent states by partition refinement and renumbers
// the reachable states canonically.
func (a *Automaton) minimize() *Automaton {
	n := len(a.final)
	class := make([]int, n)
	for s := range class {
		if a.final[s] {
			class[s] = 1
		}
	}
	count := countClasses(class)
	for {
		ids := make(map[string]int)
		refined := make([]int, n)
		for s := 0; s < n; s++ {
			var sb strings.Builder
			sb.WriteString(strconv.Itoa(class[s]))
			for _, t := range a.next[s] {
				sb.WriteByte(' ')
				sb.WriteString(strconv.Itoa(class[t]))
			}
			k := sb.String()
			id, ok := ids[k]
			if !ok {
				id = len(ids)
				ids[k] = id
			}
			refined[s] = id
		}
		class = refined
		if len(ids) == count {
			break
		}
		count = len(ids)
	}
	return a.quotient(class)
}

func countClasses(class []int) int {
	seen := make(map[int]bool)
	for _, c := range class {
		seen[c] = true
	}
	return len(seen)
}

// quotient builds the automaton over state classes, numbering classes
// breadth-first from the start class with labels in ascending order.
func (a *Automaton) quotient(class []int) *Automaton {
	rep := make(map[int]int)
	for s := len(class) - 1; s >= 0; s-- {
		rep[class[s]] = s
	}
	order := map[int]int{class[a.start]: 0}
	queue := []int{class[a.start]}
	for i := 0; i < len(queue); i++ {
		s := rep[queue[i]]
		for _, t := range a.next[s] {
			c := class[t]
			if _, ok := order[c]; !ok {
				order[c] = len(queue)
				queue = append(queue, c)
			}
		}
	}
	r := &Automaton{labels: a.labels, final: make([]bool, len(queue)), next: make([][]int, len(queue))}
	for i, c := range queue {
		s := rep[c]
		r.final[i] = a.final[s]
		row := make([]int, a.labels)
		for l, t := range a.next[s] {
			row[l] = order[class[t]]
		}
		r.next[i] = row
	}
	return r
}
