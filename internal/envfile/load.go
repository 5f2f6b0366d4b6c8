package envfile

import (
	"fmt"
	"os"
)

// Load reads and parses an env file. I/O is the only failure mode; the
// parse itself cannot fail.
func Load(path string) ([]Entry, error) {
	entries, _, err := LoadWithDiagnostics(path)
	return entries, err
}

// LoadWithDiagnostics is Load with parser warnings included.
func LoadWithDiagnostics(path string) ([]Entry, []Diagnostic, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read env file: %w", err)
	}
	entries, diags := ParseWithDiagnostics(string(data))
	return entries, diags, nil
}
