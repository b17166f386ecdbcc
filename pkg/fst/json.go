package fst

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/twolc/pkg/domain"
)

type jsonTransducer struct {
	Name   string        `json:"name"`
	Labels []domain.Pair `json:"labels"`
	Start  int           `json:"start"`
	Final  []int         `json:"final"`
	Next   [][]int       `json:"next"`
}

// MarshalJSON encodes the full automaton, including unused labels.
func (t *Transducer) MarshalJSON() ([]byte, error) {
	jt := jsonTransducer{
		Name:   t.Name,
		Labels: t.Labels,
		Start:  t.a.start,
		Final:  []int{},
		Next:   t.a.next,
	}
	for s, f := range t.a.final {
		if f {
			jt.Final = append(jt.Final, s)
		}
	}
	return json.Marshal(jt)
}

// UnmarshalJSON decodes and validates a transducer. The automaton is minimized.
func (t *Transducer) UnmarshalJSON(data []byte) error {
	var jt jsonTransducer
	if err := json.Unmarshal(data, &jt); err != nil {
		return err
	}
	n := len(jt.Next)
	if n == 0 {
		return fmt.Errorf("transducer %q has no states", jt.Name)
	}
	if jt.Start < 0 || jt.Start >= n {
		return fmt.Errorf("transducer %q: start state %d out of range", jt.Name, jt.Start)
	}
	a := &Automaton{labels: len(jt.Labels), start: jt.Start, final: make([]bool, n), next: make([][]int, n)}
	for s, row := range jt.Next {
		if len(row) != a.labels {
			return fmt.Errorf("transducer %q: state %d has %d transitions, want %d", jt.Name, s, len(row), a.labels)
		}
		for _, to := range row {
			if to < 0 || to >= n {
				return fmt.Errorf("transducer %q: state %d has target %d out of range", jt.Name, s, to)
			}
		}
		a.next[s] = append([]int(nil), row...)
	}
	for _, s := range jt.Final {
		if s < 0 || s >= n {
			return fmt.Errorf("transducer %q: final state %d out of range", jt.Name, s)
		}
		a.final[s] = true
	}
	*t = Transducer{Name: jt.Name, Labels: jt.Labels, a: a.minimize()}
	return nil
}
