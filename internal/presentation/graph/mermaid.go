package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/twolc/pkg/domain"
	"github.com/aretw0/twolc/pkg/fst"
)

// maxArcLabels caps the pairs printed on one edge; the rest are counted.
const maxArcLabels = 6

// GraphOverlay contains a pair string whose path is highlighted on the graph.
type GraphOverlay struct {
	Path []domain.Pair
}

// GenerateMermaid produces a Mermaid flowchart of the trimmed transducer.
// It applies semantic styling:
// - Start: ((Circle))
// - Final: (((Double circle)))
// - Default: (Rounded)
// Parallel arcs are merged into one edge labeled with their pairs. The
// overlay styles the states visited while reading its path, if provided.
func GenerateMermaid(t *fst.Transducer, overlay *GraphOverlay) string {
	v := t.Trim()

	var sb strings.Builder
	sb.WriteString("graph LR\n")
	fmt.Fprintf(&sb, "    %%%% %s\n", t.String())
	if v.States == 0 {
		sb.WriteString("    empty[\"(empty)\"]\n")
		return sb.String()
	}

	final := make(map[int]bool, len(v.Finals))
	for _, s := range v.Finals {
		final[s] = true
	}
	for s := 0; s < v.States; s++ {
		opener, closer := "(", ")"
		switch {
		case final[s]:
			opener, closer = "(((", ")))"
		case s == 0:
			opener, closer = "((", "))"
		}
		fmt.Fprintf(&sb, "    %s%s\"%d\"%s\n", stateID(s), opener, s, closer)
	}

	type edge struct{ from, to int }
	var order []edge
	labels := make(map[edge][]string)
	for _, a := range v.Arcs {
		e := edge{a.From, a.To}
		if _, ok := labels[e]; !ok {
			order = append(order, e)
		}
		labels[e] = append(labels[e], a.Pair.String())
	}
	for _, e := range order {
		fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n", stateID(e.from), edgeLabel(labels[e]), stateID(e.to))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visited := walk(v, overlay.Path)
		for _, s := range visited[:len(visited)-1] {
			fmt.Fprintf(&sb, "    class %s visited;\n", stateID(s))
		}
		fmt.Fprintf(&sb, "    class %s current;\n", stateID(visited[len(visited)-1]))
	}

	return sb.String()
}

// walk follows path from the start state and returns the distinct states
// visited, ending with the state reached. It stops at the first pair with
// no arc.
func walk(v fst.View, path []domain.Pair) []int {
	seen := map[int]bool{0: true}
	visited := []int{0}
	cur := 0
	for _, p := range path {
		next := -1
		for _, a := range v.Arcs {
			if a.From == cur && a.Pair == p {
				next = a.To
				break
			}
		}
		if next < 0 {
			break
		}
		cur = next
		if seen[cur] {
			// move it to the end so it is styled as current
			for i, s := range visited {
				if s == cur {
					visited = append(visited[:i], visited[i+1:]...)
					break
				}
			}
		}
		seen[cur] = true
		visited = append(visited, cur)
	}
	return visited
}

func edgeLabel(pairs []string) string {
	if len(pairs) > maxArcLabels {
		rest := len(pairs) - maxArcLabels
		pairs = append(pairs[:maxArcLabels:maxArcLabels], fmt.Sprintf("+%d", rest))
	}
	return strings.ReplaceAll(strings.Join(pairs, " "), "\"", "'")
}

func stateID(s int) string {
	return fmt.Sprintf("s%d", s)
}
