package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

type ConsoleStyle int

const (
	StyleNormal ConsoleStyle = iota
	StyleError
	StyleWarning
	StyleSuccess
	StyleInfo
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorGreen  = "\033[32m"
	colorBlue   = "\033[34m"
	colorBold   = "\033[1m"
)

// Icon prefixes a progress line.
type Icon string

const (
	IconInfo    Icon = "🔵"
	IconSuccess Icon = "✅"
	IconError   Icon = "❌"
	IconWarning Icon = "⚠️"
	IconRocket  Icon = "🚀"
	IconGear    Icon = "🔧"
	IconDocker  Icon = "🐳"
	IconClean   Icon = "🧹"
	IconBuild   Icon = "🏗️"
	IconHealth  Icon = "🏥"
	IconPlain   Icon = "📋"
)

type Console struct {
	out       io.Writer
	errOut    io.Writer
	outColors bool
	errColors bool
	now       func() time.Time
}

func NewConsole() *Console {
	return newConsoleFor(os.Stdout, os.Stderr)
}

// newConsoleFor colours each stream only when that stream is a terminal.
func newConsoleFor(stdout, stderr *os.File) *Console {
	return &Console{
		out:       stdout,
		errOut:    stderr,
		outColors: isTerminal(stdout),
		errColors: isTerminal(stderr),
		now:       time.Now,
	}
}

// NewConsoleWithWriters builds a console over arbitrary writers, mainly for
// tests and for capturing output.
func NewConsoleWithWriters(out, errOut io.Writer, useColors bool) *Console {
	return &Console{
		out:       out,
		errOut:    errOut,
		outColors: useColors,
		errColors: useColors,
		now:       time.Now,
	}
}

func isTerminal(f *os.File) bool {
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// Out is the writer used for regular output.
func (c *Console) Out() io.Writer {
	return c.out
}

func (c *Console) write(w io.Writer, colors bool, style ConsoleStyle, message string) {
	if colors {
		message = colorize(style, message)
	}
	fmt.Fprintln(w, message)
}

func colorize(style ConsoleStyle, message string) string {
	var color string
	switch style {
	case StyleError:
		color = colorRed + colorBold
	case StyleWarning:
		color = colorYellow
	case StyleSuccess:
		color = colorGreen
	case StyleInfo:
		color = colorBlue
	default:
		return message
	}

	return color + message + colorReset
}

func styleFor(icon Icon) ConsoleStyle {
	switch icon {
	case IconError:
		return StyleError
	case IconWarning:
		return StyleWarning
	case IconSuccess:
		return StyleSuccess
	case IconInfo:
		return StyleInfo
	default:
		return StyleNormal
	}
}

// Event prints a timestamped progress line and returns it without colour
// codes so callers can keep a transcript.
func (c *Console) Event(icon Icon, message string) string {
	if icon == "" {
		icon = IconPlain
	}
	line := fmt.Sprintf("%s [%s] %s", icon, c.now().Format("15:04:05"), message)

	if icon == IconError {
		c.write(c.errOut, c.errColors, StyleError, line)
	} else {
		c.write(c.out, c.outColors, styleFor(icon), line)
	}
	return line
}

// Println writes a raw block to regular output.
func (c *Console) Println(text string) {
	fmt.Fprintln(c.out, text)
}

func (c *Console) PrintError(message string) {
	c.write(c.errOut, c.errColors, StyleError, "Error: "+message)
}

func (c *Console) PrintWarning(message string) {
	c.write(c.errOut, c.errColors, StyleWarning, "Warning: "+message)
}

func (c *Console) PrintSuccess(message string) {
	c.write(c.out, c.outColors, StyleSuccess, message)
}

func (c *Console) PrintInfo(message string) {
	c.write(c.out, c.outColors, StyleInfo, message)
}

func (c *Console) FormatErrorMessage(context, cause, suggestion string) string {
	var parts []string

	if context != "" {
		parts = append(parts, context)
	}

	if cause != "" {
		parts = append(parts, fmt.Sprintf("Cause: %s", cause))
	}

	if suggestion != "" {
		parts = append(parts, fmt.Sprintf("Suggestion: %s", suggestion))
	}

	return strings.Join(parts, "\n")
}
