package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/envfold/envfold/internal/audit"
	"github.com/envfold/envfold/internal/envfile"
)

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Print POSIX export lines for a .env file",
	Long: `Print one 'export KEY=value' line per entry, single-quoted for the shell,
so the output can be eval'd or sourced. Duplicate keys export in order, so
the shell applies last-wins naturally. Embedded newlines from folded values
stay inside the quotes.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	path := ".env"
	if len(args) == 1 {
		path = args[0]
	}

	entries, err := envfile.Load(path)
	if err != nil {
		return err
	}

	var b strings.Builder
	for _, e := range entries {
		b.WriteString("export ")
		b.WriteString(e.Key)
		b.WriteString("=")
		b.WriteString(shellQuote(e.Value))
		b.WriteByte('\n')
	}
	fmt.Print(b.String())

	_ = audit.Log("", audit.OpExport, audit.WithFiles([]string{path}))
	return nil
}

// shellQuote single-quotes a value for POSIX shells; embedded single quotes
// become '\'' and all other bytes (newlines included) pass through literally.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
