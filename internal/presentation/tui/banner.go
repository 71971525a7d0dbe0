package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the Ascendia ASCII banner with a gradient color
// scheme.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{`    _                        _ _       `, "#818cf8"},
		{`   / \   ___  ___ ___ _ __  __| (_) __ _ `, "#a78bfa"},
		{`  / _ \ / __|/ __/ _ \ '_ \/ _` + "`" + ` | |/ _` + "`" + ` |`, "#c084fc"},
		{` / ___ \\__ \ (_|  __/ | | | (_| | | (_| |`, "#e879f9"},
		{`/_/   \_\___/\___\___|_| |_|\__,_|_|\__,_|`, "#f472b6"},
	}

	fmt.Fprintln(w)
	for _, line := range lines {
		fmt.Fprintln(w, termenv.String(line.text).Foreground(p.Color(line.color)))
	}
	fmt.Fprintln(w)
}
