package ui

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// Color functions for terminal output
var (
	Cyan    = colorize("\033[36m%s\033[0m")
	Yellow  = colorize("\033[33m%s\033[0m")
	Red     = colorize("\033[31m%s\033[0m")
	Green   = colorize("\033[32m%s\033[0m")
	Magenta = colorize("\033[35m%s\033[0m")
	Dim     = colorize("\033[2m%s\033[0m")
)

// colorize returns a function that wraps text with ANSI color codes
func colorize(colorString string) func(string) string {
	return func(text string) string {
		return fmt.Sprintf(colorString, text)
	}
}

func plain(text string) string { return text }

// IsTerminal reports whether w is an interactive terminal
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// PrintError prints an error message in red to stderr
func PrintError(msg string, args ...interface{}) {
	paint := plain
	if IsTerminal(os.Stderr) {
		paint = Red
	}
	if len(args) > 0 {
		fmt.Fprintln(os.Stderr, paint(msg+": "+fmt.Sprintf("%v", args[0])))
	} else {
		fmt.Fprintln(os.Stderr, paint(msg))
	}
}

// PrintSuccess prints a success message in green
func PrintSuccess(msg string) {
	paint := plain
	if IsTerminal(os.Stdout) {
		paint = Green
	}
	fmt.Println(paint(msg))
}

// PrintInfo prints a label and value
func PrintInfo(label string, value string) {
	if IsTerminal(os.Stdout) {
		fmt.Printf("%s: %s\n", Cyan(label), Yellow(value))
		return
	}
	fmt.Printf("%s: %s\n", label, value)
}
