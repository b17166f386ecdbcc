package tui_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aretw0/twolc/internal/presentation/tui"
	"github.com/aretw0/twolc/pkg/domain"
	"github.com/aretw0/twolc/pkg/fst"
)

func TestReportMarkdown(t *testing.T) {
	ab := domain.Pair{Lex: "a", Surf: "b"}
	r := &domain.Report{
		Grammar: "harmony",
		State:   domain.StateComposed,
		Alphabet: domain.Alphabet{
			Total:       []domain.Pair{ab, domain.Identity("a")},
			NonAlphabet: []domain.Symbol{"x"},
		},
		Rules: []domain.Rule{{
			Name:     "r1",
			Center:   []domain.Pair{ab},
			Op:       domain.OpRestrict,
			Contexts: []domain.Context{{Left: "x | y"}},
			Pos:      domain.Position{Line: 3, Col: 1},
		}},
		Conflicts: []domain.Conflict{{Side: domain.SideRight, RuleA: "r1", RuleB: "r2", Pairs: []domain.Pair{ab}, Resolved: true, Resolution: "contexts merged"}},
	}
	tr := fst.Identity("harmony", r.Alphabet.Total)

	md := tui.ReportMarkdown(r, []*fst.Transducer{tr})
	assert.Contains(t, md, "# harmony")
	assert.Contains(t, md, "`a:b` `a:a`")
	assert.Contains(t, md, "**Non-alphabet:** `x`")
	assert.Contains(t, md, `| r1 | a:b | => | x \| y _ | 3 |`)
	assert.Contains(t, md, "resolved: contexts merged")
	assert.Contains(t, md, "harmony (1 states")
}

func TestReportMarkdown_Empty(t *testing.T) {
	md := tui.ReportMarkdown(&domain.Report{Grammar: "e", State: domain.StateStorableSet}, nil)
	assert.Contains(t, md, "_no feasible pairs_")
	assert.Contains(t, md, "_no rules_")
	assert.NotContains(t, md, "## Conflicts")
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	tui.PrintBanner(&buf)
	assert.Contains(t, buf.String(), "|_|")
}

func TestNewRenderer_PlainWhenNotTerminal(t *testing.T) {
	// go test does not attach stdout to a terminal
	render := tui.NewRenderer()
	out, err := render("# title")
	assert.NoError(t, err)
	assert.Contains(t, out, "title")
}
