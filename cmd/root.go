package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "envfold",
	Short:         "Parse .env files with folded multi-line values and run commands with them",
	SilenceUsage:  true,
	SilenceErrors: true,
	Long: `envfold parses .env files where a trailing backslash folds the next line
into the value, applies the result to a child process environment, and
cleans interpreter cache directories before launch.

EXAMPLES:

  envfold parse                      # show entries of ./.env
  envfold export -f .env.local       # print POSIX export lines
  envfold run -- python main.py      # launch with .env applied
  envfold run --prune --watch -- python main.py
  envfold clean --dry-run            # preview cache purge

Config (optional) lives in .envfold.yaml next to where you run envfold.`,
}

func init() {
	rootCmd.SetVersionTemplate("envfold version {{.Version}}\n")
}

// SetVersion sets the version string shown by --version (e.g. from ldflags).
func SetVersion(v string) { rootCmd.Version = v }

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
