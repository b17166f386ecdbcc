package fst

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/aretw0/twolc/pkg/domain"
)

var attEscapes = strings.NewReplacer(" ", "@_SPACE_@", "\t", "@_TAB_@")
var attUnescapes = strings.NewReplacer("@_SPACE_@", " ", "@_TAB_@", "\t")

func attSymbol(s domain.Symbol) string {
	if s == domain.Epsilon {
		return "@0@"
	}
	return attEscapes.Replace(string(s))
}

func parseATTSymbol(s string) domain.Symbol {
	if s == "@0@" || s == "@_EPSILON_SYMBOL_@" {
		return domain.Epsilon
	}
	return domain.Symbol(attUnescapes.Replace(s))
}

// WriteATT writes t in the AT&T tabular format: one "src dst in out" line
// per arc and one line per final state. The start state is 0.
func (t *Transducer) WriteATT(w io.Writer) error {
	bw := bufio.NewWriter(w)
	v := t.Trim()
	arcs := v.Arcs
	finals := v.Finals
	for s := 0; s < v.States; s++ {
		for len(arcs) > 0 && arcs[0].From == s {
			a := arcs[0]
			arcs = arcs[1:]
			if _, err := fmt.Fprintf(bw, "%d\t%d\t%s\t%s\n", a.From, a.To, attSymbol(a.Pair.Lex), attSymbol(a.Pair.Surf)); err != nil {
				return err
			}
		}
		if len(finals) > 0 && finals[0] == s {
			finals = finals[1:]
			if _, err := fmt.Fprintf(bw, "%d\n", s); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// ReadATT parses an AT&T tabular transducer. Labels are numbered in order of
// first appearance; weights are ignored.
func ReadATT(r io.Reader, name string) (*Transducer, error) {
	type line struct {
		from, to int
		label    int
	}
	var (
		labels []domain.Pair
		index  = map[domain.Pair]int{}
		arcs   []line
		finals []int
		states = 1
	)
	state := func(field string, n int) (int, error) {
		s, err := strconv.Atoi(field)
		if err != nil || s < 0 {
			return 0, fmt.Errorf("line %d: invalid state %q", n, field)
		}
		if s+1 > states {
			states = s + 1
		}
		return s, nil
	}
	sc := bufio.NewScanner(r)
	for n := 1; sc.Scan(); n++ {
		text := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}
		fields := strings.Split(text, "\t")
		switch len(fields) {
		case 1, 2:
			s, err := state(fields[0], n)
			if err != nil {
				return nil, err
			}
			finals = append(finals, s)
		case 4, 5:
			from, err := state(fields[0], n)
			if err != nil {
				return nil, err
			}
			to, err := state(fields[1], n)
			if err != nil {
				return nil, err
			}
			p := domain.Pair{Lex: parseATTSymbol(fields[2]), Surf: parseATTSymbol(fields[3])}
			l, ok := index[p]
			if !ok {
				l = len(labels)
				index[p] = l
				labels = append(labels, p)
			}
			arcs = append(arcs, line{from: from, to: to, label: l})
		default:
			return nil, fmt.Errorf("line %d: expected 1, 2, 4 or 5 fields, got %d", n, len(fields))
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read att: %w", err)
	}

	nd := &nfa{labels: len(labels)}
	for s := 0; s < states; s++ {
		nd.state(false)
	}
	for _, s := range finals {
		nd.final[s] = true
	}
	for _, a := range arcs {
		nd.arc(a.from, a.label, a.to)
	}
	return NewTransducer(name, labels, nd.determinize()), nil
}
