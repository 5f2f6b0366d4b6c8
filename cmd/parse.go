package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/envfold/envfold/internal/envfile"
	"github.com/envfold/envfold/internal/tui"
)

var parseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "Parse a .env file and show its entries",
	Long: `Parse a .env file and print the resulting key/value entries in order.
Lines ending in a backslash are folded into the value with an embedded
newline. Duplicate keys are shown as separate entries. Parsing never fails;
degenerate lines (no '=') are reported as warnings on stderr.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runParse,
}

var (
	parseJSON bool
	parseKeys bool
)

func init() {
	parseCmd.Flags().BoolVar(&parseJSON, "json", false, "Output entries as JSON")
	parseCmd.Flags().BoolVar(&parseKeys, "keys", false, "Output key names only")
	rootCmd.AddCommand(parseCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	path := ".env"
	if len(args) == 1 {
		path = args[0]
	}

	entries, diags, err := envfile.LoadWithDiagnostics(path)
	if err != nil {
		return err
	}

	for _, d := range diags {
		fmt.Fprintf(os.Stderr, "%s %s:%d: %s\n", tui.Warning("warning:"), path, d.Line, d.Message)
	}

	switch {
	case parseJSON:
		b, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal entries: %w", err)
		}
		fmt.Println(string(b))
	case parseKeys:
		for _, k := range envfile.Keys(entries) {
			fmt.Println(k)
		}
	default:
		if len(entries) == 0 {
			fmt.Println(tui.Muted("no entries"))
			return nil
		}
		for _, e := range entries {
			value := e.Value
			if strings.Contains(value, "\n") {
				value = strings.ReplaceAll(value, "\n", tui.Muted("\\n"))
			}
			fmt.Printf("%s%s%s  %s\n", tui.Key(e.Key), tui.Muted("="), value, tui.Muted(fmt.Sprintf("(line %d)", e.Line)))
		}
	}
	return nil
}
