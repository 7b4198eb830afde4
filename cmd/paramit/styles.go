package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
)

// Diagnostic styling. Warnings go to stdout like normal chatter; errors
// go to stderr.
var (
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11")) // yellow
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))  // red
	keyStyle   = lipgloss.NewStyle().Bold(true)
)

func warnf(format string, args ...interface{}) {
	fmt.Println(warnStyle.Render(fmt.Sprintf(format, args...)))
}

func errorf(format string, args ...interface{}) {
	fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+fmt.Sprintf(format, args...)))
}
