package envfile

import (
	"strings"
)

// Parse reads .env-style text into an ordered entry sequence.
//
// A line is skipped when, after leading whitespace, it is empty or starts
// with '#'. A line containing '=' and not ending with a backslash is a
// complete logical line on its own. Any other line starts a fold: subsequent
// physical lines are appended unconditionally, joined with '\n', until a
// folded-in line no longer ends with a backslash. The backslash test is a
// literal suffix check on the byte '\\' (a '\r' before it defeats it), and
// continuation backslashes stay in the value verbatim. The logical line is
// then split at its first '='; with no '=' the whole text becomes the key
// and the value is empty.
//
// Parse is total: any input yields some entry sequence and never an error.
func Parse(text string) []Entry {
	entries, _ := ParseWithDiagnostics(text)
	return entries
}

// ParseWithDiagnostics is Parse plus a warning for every logical line that
// had no '=' separator. The entries are identical to Parse's.
func ParseWithDiagnostics(text string) ([]Entry, []Diagnostic) {
	lines := splitLines(text)

	var entries []Entry
	var diags []Diagnostic

	i := 0
	for i < len(lines) {
		line := lines[i]
		start := i + 1

		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			i++
			continue
		}

		logical := line
		i++

		if !isHead(line) {
			// Comment and blank checks never apply inside a fold.
			last := line
			for strings.HasSuffix(last, `\`) && i < len(lines) {
				last = lines[i]
				logical += "\n" + last
				i++
			}
		}

		key, value, found := splitLogical(logical)
		if !found {
			diags = append(diags, Diagnostic{
				Line:    start,
				Message: "no '=' separator; whole logical line treated as key",
			})
		}
		entries = append(entries, Entry{Key: key, Value: value, Line: start})
	}

	return entries, diags
}

// isHead reports whether a physical line is a complete logical line by
// itself: it has an '=' and does not end with a continuation backslash.
func isHead(line string) bool {
	return strings.Contains(line, "=") && !strings.HasSuffix(line, `\`)
}

// splitLogical splits at the first '='. Key is not trimmed; value keeps any
// embedded newlines from folding.
func splitLogical(logical string) (key, value string, found bool) {
	idx := strings.Index(logical, "=")
	if idx < 0 {
		return logical, "", false
	}
	return logical[:idx], logical[idx+1:], true
}

// splitLines breaks text into physical lines with newlines stripped. The
// final line counts even without a trailing newline; empty input has no
// lines at all.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
