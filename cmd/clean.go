package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/envfold/envfold/internal/audit"
	"github.com/envfold/envfold/internal/config"
	"github.com/envfold/envfold/internal/prune"
	"github.com/envfold/envfold/internal/tui"
)

var cleanCmd = &cobra.Command{
	Use:   "clean [directory]",
	Short: "Delete cache directories matching glob patterns",
	Long: `Walk the directory tree and delete directories matching the prune
patterns (default: Python bytecode and tool caches, or the patterns from
.envfold.yaml). Asks for confirmation before deleting unless --yes is set.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runClean,
}

var (
	cleanDryRun   bool
	cleanYes      bool
	cleanPatterns []string
)

func init() {
	cleanCmd.Flags().BoolVar(&cleanDryRun, "dry-run", false, "List what would be removed without deleting")
	cleanCmd.Flags().BoolVarP(&cleanYes, "yes", "y", false, "Skip the confirmation prompt")
	cleanCmd.Flags().StringSliceVarP(&cleanPatterns, "pattern", "p", nil, "Glob pattern to prune (can be repeated; overrides config)")
	rootCmd.AddCommand(cleanCmd)
}

func runClean(cmd *cobra.Command, args []string) error {
	root := "."
	if len(args) == 1 {
		root = args[0]
	}

	patterns := cleanPatterns
	if len(patterns) == 0 {
		cfg, err := config.Load(root)
		if err != nil {
			return err
		}
		patterns = cfg.Prune.Patterns
	}

	targets, err := prune.FindTargets(root, patterns)
	if err != nil {
		return err
	}

	if len(targets) == 0 {
		fmt.Println(tui.Muted("nothing to clean"))
		return nil
	}

	var files int
	var bytes int64
	for _, t := range targets {
		fmt.Printf("%s %s %s\n", tui.Key(t.Rel), tui.Muted(fmt.Sprintf("%d files", t.Files)), tui.Muted(formatBytes(t.Bytes)))
		files += t.Files
		bytes += t.Bytes
	}

	if cleanDryRun {
		fmt.Printf("%s would remove %d directories (%d files, %s)\n", tui.Label("dry-run:"), len(targets), files, formatBytes(bytes))
		return nil
	}

	if !cleanYes {
		ok, err := tui.Confirm(fmt.Sprintf("Remove %d directories (%d files, %s)?", len(targets), files, formatBytes(bytes)))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println(tui.Muted("aborted"))
			return nil
		}
	}

	result, err := prune.Prune(root, patterns, false)
	if err != nil {
		return err
	}

	relTargets := make([]string, 0, len(result.Targets))
	for _, t := range result.Targets {
		relTargets = append(relTargets, t.Rel)
	}
	_ = audit.Log(root, audit.OpClean, audit.WithTargets(relTargets))

	fmt.Printf("%s removed %d directories (%d files, %s)\n", tui.Success("✓"), len(result.Targets), result.Files, formatBytes(result.Bytes))
	return nil
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
