package terminal

import (
	"regexp"
	"unicode/utf8"
)

// Output limits applied to every command's output.
const (
	MaxLineLength    = 2000 // runes per line before truncation
	MaxOutputLines   = 400  // lines kept per command
	MaxDisplayLines  = 600  // lines kept in the live display buffer
	TruncationMarker = "…"
)

// controlCharRegex matches ASCII control characters, including DEL.
var controlCharRegex = regexp.MustCompile(`[\x00-\x1F\x7F]`)

// StripControl removes ASCII control characters from line.
func StripControl(line string) string {
	return controlCharRegex.ReplaceAllString(line, "")
}

// TruncateLine caps line at MaxLineLength runes, appending TruncationMarker
// when anything was cut.
func TruncateLine(line string) string {
	if utf8.RuneCountInString(line) <= MaxLineLength {
		return line
	}
	runes := []rune(line)
	return string(runes[:MaxLineLength]) + TruncationMarker
}

// Sanitize applies the output contract: control characters stripped, each
// line length-capped, at most MaxOutputLines lines. Excess lines are dropped
// silently. The result is never nil.
func Sanitize(lines []string) []string {
	n := len(lines)
	if n > MaxOutputLines {
		n = MaxOutputLines
	}
	out := make([]string, 0, n)
	for _, l := range lines[:n] {
		out = append(out, TruncateLine(StripControl(l)))
	}
	return out
}
