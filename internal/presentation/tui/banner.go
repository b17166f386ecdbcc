package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner outputs the twolc ASCII banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	lines := []struct{ text, color string }{
		{" _                 _", "#818cf8"},
		{"| |___      _____ | | ___", "#a78bfa"},
		{"| __\\ \\ /\\ / / _ \\| |/ __|", "#c084fc"},
		{"| |_ \\ V  V / (_) | | (__", "#e879f9"},
		{" \\__| \\_/\\_/ \\___/|_|\\___|", "#f472b6"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
