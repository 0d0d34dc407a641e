// Package cli holds the output helpers shared by the semsql commands.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

var (
	successColor = []color.Attribute{color.FgGreen, color.Bold}
	warnColor    = []color.Attribute{color.FgYellow, color.Bold}
	errorColor   = []color.Attribute{color.FgRed, color.Bold}
)

// Output writes command results to Stdout and diagnostics to Stderr.
// Prefixes are colored only when Color is set.
type Output struct {
	Stdout io.Writer
	Stderr io.Writer
	Color  bool
}

// Std returns an Output bound to the process streams. Color follows the
// terminal and NO_COLOR detection in fatih/color.
func Std() *Output {
	return &Output{Stdout: os.Stdout, Stderr: os.Stderr, Color: !color.NoColor}
}

func (o *Output) paint(attrs []color.Attribute, s string) string {
	if !o.Color {
		return s
	}
	c := color.New(attrs...)
	c.EnableColor()
	return c.Sprint(s)
}

// Info prints an informational message to stdout.
func (o *Output) Info(msg string) {
	fmt.Fprintln(o.Stdout, msg)
}

// Infof prints a formatted informational message to stdout.
func (o *Output) Infof(format string, args ...any) {
	fmt.Fprintf(o.Stdout, format+"\n", args...)
}

// Success prints a success message to stdout.
func (o *Output) Success(msg string) {
	fmt.Fprintln(o.Stdout, o.paint(successColor, "✓"), msg)
}

// Successf prints a formatted success message to stdout.
func (o *Output) Successf(format string, args ...any) {
	fmt.Fprintf(o.Stdout, o.paint(successColor, "✓")+" "+format+"\n", args...)
}

// Warn prints a warning message to stderr.
func (o *Output) Warn(msg string) {
	fmt.Fprintln(o.Stderr, o.paint(warnColor, "warning:"), msg)
}

// Warnf prints a formatted warning message to stderr.
func (o *Output) Warnf(format string, args ...any) {
	fmt.Fprintf(o.Stderr, o.paint(warnColor, "warning:")+" "+format+"\n", args...)
}

// Error prints msg to stderr and returns the exit code 1.
func (o *Output) Error(msg string) int {
	fmt.Fprintln(o.Stderr, o.paint(errorColor, "error:"), msg)
	return 1
}

// Errorf prints a formatted error to stderr and returns the exit code 1.
func (o *Output) Errorf(format string, args ...any) int {
	fmt.Fprintf(o.Stderr, o.paint(errorColor, "error:")+" "+format+"\n", args...)
	return 1
}

// ErrorErr prints an error with details to stderr and returns the exit code 1.
func (o *Output) ErrorErr(msg string, err error) int {
	fmt.Fprintf(o.Stderr, "%s %s: %v\n", o.paint(errorColor, "error:"), msg, err)
	return 1
}

// JSON writes v to stdout as indented JSON.
func (o *Output) JSON(v any) error {
	enc := json.NewEncoder(o.Stdout)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Fatal prints a message to stderr and exits with code 1.
func Fatal(msg string) {
	os.Exit(Std().Error(msg))
}

// FatalErr prints an error message with details to stderr and exits with code 1.
func FatalErr(msg string, err error) {
	os.Exit(Std().ErrorErr(msg, err))
}
