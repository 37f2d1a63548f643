package ui

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/charmbracelet/lipgloss"
)

// Logo is the banner printed by interactive commands
const Logo = `
 ╦ ╦╔═╗╔╗   ╔═╗╔═╗╦═╗╔═╗╔═╗╔═╗╦═╗
 ║║║║╣ ╠╩╗  ╚═╗║  ╠╦╝╠═╣╠═╝║╣ ╠╦╝
 ╚╩╝╚═╝╚═╝  ╚═╝╚═╝╩╚═╩ ╩╩  ╚═╝╩╚═  cloud API client
`

var (
	cyanStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#00D7FF"))
	yellowStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD700"))
	redStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F5F")).Bold(true)
	greenStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#5FFF87"))
	magentaStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5FD7"))
	dimStyle     = lipgloss.NewStyle().Faint(true)
	boldStyle    = lipgloss.NewStyle().Bold(true)
)

// Color helpers
var (
	Cyan    = cyanStyle.Render
	Yellow  = yellowStyle.Render
	Red     = redStyle.Render
	Green   = greenStyle.Render
	Magenta = magentaStyle.Render
	Dim     = dimStyle.Render
	Bold    = boldStyle.Render
)

var (
	quiet  atomic.Bool
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// SetQuietMode suppresses everything but errors
func SetQuietMode(q bool) {
	quiet.Store(q)
}

// IsQuietMode reports whether quiet mode is on
func IsQuietMode() bool {
	return quiet.Load()
}

// SetOutput redirects standard and error output, for tests
func SetOutput(out, errOut io.Writer) {
	stdout = out
	stderr = errOut
}

// PrintLogo prints the banner
func PrintLogo() {
	if IsQuietMode() {
		return
	}
	fmt.Fprint(stdout, Cyan(Logo))
}

// PrintError prints an error message, optionally followed by a cause
func PrintError(msg string, args ...interface{}) {
	if len(args) > 0 {
		msg = msg + ": " + fmt.Sprintf("%v", args[0])
	}
	fmt.Fprintln(stderr, Red(msg))
}

// PrintSuccess prints a success message
func PrintSuccess(msg string) {
	if IsQuietMode() {
		return
	}
	fmt.Fprintln(stdout, Green(msg))
}

// PrintInfo prints a label/value pair
func PrintInfo(label string, value string) {
	if IsQuietMode() {
		return
	}
	fmt.Fprintf(stdout, "%s: %s\n", Cyan(label), Yellow(value))
}

// PrintWarning prints a warning, optionally followed by a cause
func PrintWarning(msg string, args ...interface{}) {
	if IsQuietMode() {
		return
	}
	if len(args) > 0 {
		msg = msg + ": " + fmt.Sprintf("%v", args[0])
	}
	fmt.Fprintln(stdout, Yellow(msg))
}

// PrintHighlight prints a highlighted message
func PrintHighlight(msg string) {
	if IsQuietMode() {
		return
	}
	fmt.Fprintln(stdout, Magenta(msg))
}
