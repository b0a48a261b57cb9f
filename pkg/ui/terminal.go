package ui

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Banner is printed at the start of interactive runs
const Banner = "VK → Yandex.Disk profile photo backup"

var (
	outMu sync.Mutex
	out   io.Writer = os.Stdout
	quiet bool
)

// SetOutput redirects all terminal output; used by tests
func SetOutput(w io.Writer) {
	outMu.Lock()
	defer outMu.Unlock()
	out = w
}

// Output returns the current terminal writer
func Output() io.Writer {
	outMu.Lock()
	defer outMu.Unlock()
	return out
}

// SetQuietMode suppresses informational output. Errors are still printed.
func SetQuietMode(q bool) {
	outMu.Lock()
	defer outMu.Unlock()
	quiet = q
}

// IsQuietMode reports whether informational output is suppressed
func IsQuietMode() bool {
	outMu.Lock()
	defer outMu.Unlock()
	return quiet
}

func emit(always bool, s string) {
	if !always && IsQuietMode() {
		return
	}
	fmt.Fprintln(Output(), s)
}

// PrintBanner prints the application title
func PrintBanner() {
	emit(false, titleStyle.Render(Banner))
}

// PrintError prints an error message in red
func PrintError(msg string, args ...interface{}) {
	if len(args) > 0 {
		msg = msg + ": " + fmt.Sprintf("%v", args[0])
	}
	emit(true, Red("✗ "+msg))
}

// PrintSuccess prints a success message in green
func PrintSuccess(msg string) {
	emit(false, Green("✓ "+msg))
}

// PrintInfo prints a label and value pair
func PrintInfo(label string, value string) {
	emit(false, fmt.Sprintf("%s: %s", Cyan(label), Yellow(value)))
}

// PrintWarning prints a warning message in yellow
func PrintWarning(msg string, args ...interface{}) {
	if len(args) > 0 {
		msg = msg + ": " + fmt.Sprintf("%v", args[0])
	}
	emit(false, warningStyle.Render("⚠ "+msg))
}

// PrintHighlight prints a highlighted message
func PrintHighlight(msg string) {
	emit(false, Magenta(msg))
}

// PrintHint prints dimmed help text
func PrintHint(msg string) {
	emit(false, Dim(msg))
}
