package envfile

import "strings"

// Entry is one parsed key/value pair. Entries keep input order and duplicate
// keys are preserved; Line is the 1-based physical line where the entry's
// logical line starts.
type Entry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
	Line  int    `json:"line"`
}

// Diagnostic is a non-fatal warning produced while parsing. The parser never
// fails; diagnostics flag input that parsed in a degenerate way.
type Diagnostic struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

// ToMap builds a last-wins mapping from an ordered entry sequence. The
// override policy for duplicate keys belongs to the consumer, not the parser.
func ToMap(entries []Entry) map[string]string {
	m := make(map[string]string, len(entries))
	for _, e := range entries {
		m[e.Key] = e.Value
	}
	return m
}

// Keys returns the entry keys in input order, duplicates included.
func Keys(entries []Entry) []string {
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		keys = append(keys, e.Key)
	}
	return keys
}

// Format renders entries back to .env text, one key=value line per entry.
// Values keep their embedded newlines and continuation backslashes, so
// formatting parsed entries reproduces the original logical lines and
// Parse(Format(entries)) yields the same key/value sequence.
func Format(entries []Entry) string {
	var b strings.Builder
	for _, e := range entries {
		b.WriteString(e.Key)
		b.WriteByte('=')
		b.WriteString(e.Value)
		b.WriteByte('\n')
	}
	return b.String()
}
