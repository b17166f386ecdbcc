package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/twolc/pkg/domain"
	"github.com/aretw0/twolc/pkg/fst"
)

// ReportMarkdown renders a compile report as markdown. ts are the compiled
// transducers, if any; their sizes are listed after the rules.
func ReportMarkdown(r *domain.Report, ts []*fst.Transducer) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", r.Grammar)
	fmt.Fprintf(&sb, "**State:** `%s`\n\n", r.State)

	sb.WriteString("## Alphabet\n\n")
	if len(r.Alphabet.Total) == 0 {
		sb.WriteString("_no feasible pairs_\n\n")
	} else {
		pairs := make([]string, len(r.Alphabet.Total))
		for i, p := range r.Alphabet.Total {
			pairs[i] = "`" + p.String() + "`"
		}
		sb.WriteString(strings.Join(pairs, " ") + "\n\n")
	}
	if len(r.Alphabet.NonAlphabet) > 0 {
		syms := make([]string, len(r.Alphabet.NonAlphabet))
		for i, s := range r.Alphabet.NonAlphabet {
			syms[i] = "`" + string(s) + "`"
		}
		fmt.Fprintf(&sb, "**Non-alphabet:** %s\n\n", strings.Join(syms, " "))
	}

	sb.WriteString("## Rules\n\n")
	if len(r.Rules) == 0 {
		sb.WriteString("_no rules_\n\n")
	} else {
		sb.WriteString("| Rule | Center | Op | Contexts | Line |\n|---|---|---|---|---|\n")
		for _, rule := range r.Rules {
			center := make([]string, len(rule.Center))
			for i, p := range rule.Center {
				center[i] = p.String()
			}
			ctxs := make([]string, len(rule.Contexts))
			for i, c := range rule.Contexts {
				ctxs[i] = c.String()
			}
			fmt.Fprintf(&sb, "| %s | %s | %s | %s | %d |\n",
				cell(rule.Name), cell(strings.Join(center, " ")), cell(string(rule.Op)), cell(strings.Join(ctxs, " ; ")), rule.Pos.Line)
		}
		sb.WriteString("\n")
	}

	if len(r.Conflicts) > 0 {
		sb.WriteString("## Conflicts\n\n")
		for _, c := range r.Conflicts {
			status := "unresolved"
			if c.Resolved {
				status = "resolved: " + c.Resolution
			}
			fmt.Fprintf(&sb, "- %s (%s)\n", c, status)
		}
		sb.WriteString("\n")
	}

	if len(ts) > 0 {
		sb.WriteString("## Transducers\n\n")
		for _, t := range ts {
			fmt.Fprintf(&sb, "- %s\n", t)
		}
	}
	return sb.String()
}

func cell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
