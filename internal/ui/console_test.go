package ui

import (
	"bytes"
	"os"
	"strings"
	"testing"
	"time"
)

func TestNewConsole(t *testing.T) {
	console := NewConsole()
	if console == nil {
		t.Fatal("NewConsole() returned nil")
	}
}

func TestColorize(t *testing.T) {
	tests := []struct {
		style    ConsoleStyle
		message  string
		expected bool // true if the result should contain color codes
	}{
		{StyleNormal, "test message", false},
		{StyleError, "error message", true},
		{StyleWarning, "warning message", true},
		{StyleSuccess, "success message", true},
		{StyleInfo, "info message", true},
	}

	for _, test := range tests {
		result := colorize(test.style, test.message)

		if test.expected {
			// Should contain color codes and reset code
			if !strings.Contains(result, test.message) {
				t.Errorf("colorize(%v, %q) should contain original message", test.style, test.message)
			}
			if !strings.Contains(result, colorReset) {
				t.Errorf("colorize(%v, %q) should contain reset code", test.style, test.message)
			}
		} else {
			// Should return original message unchanged
			if result != test.message {
				t.Errorf("colorize(%v, %q) = %q, want %q", test.style, test.message, result, test.message)
			}
		}
	}
}

func TestConsole_NoColors(t *testing.T) {
	var out bytes.Buffer
	console := NewConsoleWithWriters(&out, &out, false)

	console.PrintError("test message")
	if out.String() != "Error: test message\n" {
		t.Errorf("PrintError without colours should write the plain message, got %q", out.String())
	}
}

func TestConsole_ColorsFollowEachStream(t *testing.T) {
	var out, errOut bytes.Buffer
	console := &Console{out: &out, errOut: &errOut, errColors: true, now: time.Now}

	console.PrintSuccess("done")
	console.Event(IconInfo, "building")
	console.PrintError("failed")

	if strings.Contains(out.String(), "\033[") {
		t.Errorf("stdout is not a terminal and should carry no colour codes, got %q", out.String())
	}
	if !strings.HasPrefix(errOut.String(), colorRed) {
		t.Errorf("stderr is a terminal and should be coloured, got %q", errOut.String())
	}
}

func TestNewConsoleFor_RedirectedStdout(t *testing.T) {
	stdout, err := os.CreateTemp(t.TempDir(), "stdout")
	if err != nil {
		t.Fatal(err)
	}
	defer stdout.Close()

	console := newConsoleFor(stdout, stdout)
	if console.outColors || console.errColors {
		t.Error("a regular file is not a terminal")
	}

	console.PrintInfo("Application is responding")
	data, err := os.ReadFile(stdout.Name())
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "Application is responding\n" {
		t.Errorf("redirected output should be plain, got %q", string(data))
	}
}

func TestConsole_FormatErrorMessage(t *testing.T) {
	console := NewConsoleWithWriters(&bytes.Buffer{}, &bytes.Buffer{}, false)

	tests := []struct {
		context    string
		cause      string
		suggestion string
		expected   []string // parts that should be present
	}{
		{
			context:    "Test context",
			cause:      "Test cause",
			suggestion: "Test suggestion",
			expected:   []string{"Test context", "Cause: Test cause", "Suggestion: Test suggestion"},
		},
		{
			context:    "Only context",
			cause:      "",
			suggestion: "",
			expected:   []string{"Only context"},
		},
		{
			context:    "",
			cause:      "Only cause",
			suggestion: "",
			expected:   []string{"Cause: Only cause"},
		},
		{
			context:    "",
			cause:      "",
			suggestion: "Only suggestion",
			expected:   []string{"Suggestion: Only suggestion"},
		},
		{
			context:    "Context",
			cause:      "",
			suggestion: "Suggestion",
			expected:   []string{"Context", "Suggestion: Suggestion"},
		},
	}

	for _, test := range tests {
		result := console.FormatErrorMessage(test.context, test.cause, test.suggestion)

		for _, expected := range test.expected {
			if !strings.Contains(result, expected) {
				t.Errorf("FormatErrorMessage(%q, %q, %q) = %q, should contain %q",
					test.context, test.cause, test.suggestion, result, expected)
			}
		}

		// Verify the number of lines matches expected parts
		lines := strings.Split(result, "\n")
		if len(lines) != len(test.expected) {
			t.Errorf("FormatErrorMessage(%q, %q, %q) returned %d lines, want %d",
				test.context, test.cause, test.suggestion, len(lines), len(test.expected))
		}
	}
}

func TestConsole_FormatErrorMessage_Empty(t *testing.T) {
	console := NewConsoleWithWriters(&bytes.Buffer{}, &bytes.Buffer{}, false)

	result := console.FormatErrorMessage("", "", "")
	if result != "" {
		t.Errorf("FormatErrorMessage with all empty strings should return empty string, got %q", result)
	}
}

func TestStyleConstants(t *testing.T) {
	// Ensure style constants are properly defined
	styles := []ConsoleStyle{StyleNormal, StyleError, StyleWarning, StyleSuccess, StyleInfo}

	// Check that all styles have unique values
	styleMap := make(map[ConsoleStyle]bool)
	for _, style := range styles {
		if styleMap[style] {
			t.Errorf("Duplicate style value found: %d", style)
		}
		styleMap[style] = true
	}
}

func TestColorConstants(t *testing.T) {
	// Ensure color constants are not empty
	colors := map[string]string{
		"colorReset":  colorReset,
		"colorRed":    colorRed,
		"colorYellow": colorYellow,
		"colorGreen":  colorGreen,
		"colorBlue":   colorBlue,
		"colorBold":   colorBold,
	}

	for name, color := range colors {
		if color == "" {
			t.Errorf("Color constant %s is empty", name)
		}
		if !strings.HasPrefix(color, "\033[") {
			t.Errorf("Color constant %s (%q) does not start with ANSI escape sequence", name, color)
		}
	}
}

func TestConsole_Event(t *testing.T) {
	var out, errOut bytes.Buffer
	console := NewConsoleWithWriters(&out, &errOut, false)
	console.now = func() time.Time { return time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC) }

	line := console.Event(IconDocker, "Starting application containers...")
	if line != "🐳 [15:04:05] Starting application containers..." {
		t.Errorf("Event() returned %q", line)
	}
	if out.String() != line+"\n" {
		t.Errorf("Event() wrote %q to stdout", out.String())
	}

	console.Event(IconError, "Setup failed")
	if !strings.Contains(errOut.String(), "Setup failed") {
		t.Errorf("error events should go to the error writer, got %q", errOut.String())
	}

	if got := console.Event("", "no icon"); !strings.HasPrefix(got, string(IconPlain)) {
		t.Errorf("empty icon should fall back to %s, got %q", IconPlain, got)
	}
}

func TestConsole_EventColorsByIcon(t *testing.T) {
	var out bytes.Buffer
	console := NewConsoleWithWriters(&out, &out, true)

	console.Event(IconSuccess, "done")
	if !strings.HasPrefix(out.String(), colorGreen) {
		t.Errorf("success events should be green, got %q", out.String())
	}

	out.Reset()
	line := console.Event(IconWarning, "careful")
	if strings.Contains(line, colorYellow) {
		t.Errorf("returned transcript line should not contain colour codes: %q", line)
	}
}
