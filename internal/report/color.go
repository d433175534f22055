package report

import (
	"io"
	"os"

	"golang.org/x/term"
)

const (
	ansiReset = "\x1b[0m"
	ansiBold  = "\x1b[1m"
	ansiDim   = "\x1b[2m"
	ansiRed   = "\x1b[31m"
	ansiGreen = "\x1b[32m"
	ansiCyan  = "\x1b[36m"
)

type style int

const (
	styleOK style = iota
	styleError
	styleCyan
	styleDim
)

// ColorEnabled reports whether w should receive ANSI colors.
func ColorEnabled(w io.Writer) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

func paint(enabled bool, s style, text string) string {
	if !enabled {
		return text
	}
	switch s {
	case styleOK:
		return ansiBold + ansiGreen + text + ansiReset
	case styleError:
		return ansiBold + ansiRed + text + ansiReset
	case styleCyan:
		return ansiCyan + text + ansiReset
	case styleDim:
		return ansiDim + text + ansiReset
	default:
		return text
	}
}
