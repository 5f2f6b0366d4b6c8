package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/envfold/envfold/internal/audit"
	"github.com/envfold/envfold/internal/config"
	"github.com/envfold/envfold/internal/prune"
	"github.com/envfold/envfold/internal/runenv"
	"github.com/envfold/envfold/internal/tui"
	"github.com/envfold/envfold/internal/watch"
)

var runCmd = &cobra.Command{
	Use:   "run -- [command]",
	Short: "Run a command with .env variables applied",
	Long: `Parse the configured .env files and run the specified command with the
entries added to its environment.
Use -f multiple times to compose files (later overrides with --overload).
Use --env KEY=value to add or override.
Use --prune to purge cache directories before launching.
Use --watch to restart the command when a .env file changes.`,
	RunE: runRun,
}

var (
	runFiles    []string
	runOverload bool
	runEnv      []string
	runStrict   bool
	runQuiet    bool
	runPrune    bool
	runWatch    bool
)

func init() {
	runCmd.Flags().StringSliceVarP(&runFiles, "file", "f", nil, "Path(s) to .env file (can be repeated; default from .envfold.yaml or .env)")
	runCmd.Flags().BoolVar(&runOverload, "overload", false, "Let later files and --env override earlier values")
	runCmd.Flags().StringSliceVarP(&runEnv, "env", "e", nil, "Environment override KEY=value (can be repeated)")
	runCmd.Flags().BoolVar(&runStrict, "strict", false, "Fail if any env file is missing or unreadable")
	runCmd.Flags().BoolVarP(&runQuiet, "quiet", "q", false, "Suppress non-error output")
	runCmd.Flags().BoolVar(&runPrune, "prune", false, "Purge cache directories before launching")
	runCmd.Flags().BoolVar(&runWatch, "watch", false, "Restart the command when a .env file changes")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("no command specified. Use: envfold run -- your-command")
	}

	cfg, err := config.Load(".")
	if err != nil {
		return err
	}

	files := runFiles
	if len(files) == 0 {
		files = cfg.Files
	}
	overload := runOverload || cfg.Overload

	if runPrune {
		result, err := prune.Prune(".", cfg.Prune.Patterns, false)
		if err != nil {
			return fmt.Errorf("prune caches: %w", err)
		}
		if !runQuiet && len(result.Targets) > 0 {
			fmt.Fprintf(os.Stderr, "%s removed %d cache dirs (%d files)\n", tui.Success("✓"), len(result.Targets), result.Files)
		}
	}

	merged, err := loadRunEnv(files, cfg, overload)
	if err != nil {
		return err
	}

	command := args[0]
	var cmdArgs []string
	if len(args) > 1 {
		cmdArgs = args[1:]
	}

	if !runWatch {
		return runOnce(merged, files, command, cmdArgs)
	}
	return runWithWatch(merged, files, cfg, overload, command, cmdArgs)
}

func loadRunEnv(files []string, cfg *config.Config, overload bool) (map[string]string, error) {
	merged, err := runenv.LoadEnvFromFiles(files, overload, runStrict)
	if err != nil {
		return nil, err
	}
	if err := runenv.MergeOverlayEnv(merged, cfg.Env, overload); err != nil {
		return nil, fmt.Errorf("config env: %w", err)
	}
	if err := runenv.MergeOverlayEnv(merged, runEnv, overload); err != nil {
		return nil, err
	}
	return merged, nil
}

func runOnce(envMap map[string]string, files []string, command string, args []string) error {
	exitCode, err := runenv.RunWithEnvFromMap(envMap, "", command, args)
	_ = audit.Log("", audit.OpRun,
		audit.WithCommand(strings.Join(append([]string{command}, args...), " ")),
		audit.WithExitCode(exitCode),
		audit.WithFiles(files))
	if err != nil {
		if exitCode >= 0 {
			os.Exit(exitCode)
		}
		return err
	}
	return nil
}

func runWithWatch(envMap map[string]string, files []string, cfg *config.Config, overload bool, command string, args []string) error {
	w, err := watch.New()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer w.Close()

	for _, f := range files {
		absPath, err := filepath.Abs(f)
		if err != nil {
			continue
		}
		if err := w.Add(absPath); err != nil {
			fmt.Fprintf(os.Stderr, "%s could not watch %s: %v\n", tui.Warning("warning:"), f, err)
		}
	}

	changes := w.Start()

	runner := &runenv.ProcessRunner{
		Command: command,
		Args:    args,
		Env:     envMap,
	}
	if err := runner.Start(); err != nil {
		return fmt.Errorf("start command: %w", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	for {
		select {
		case sig := <-sigCh:
			if runner.Running() {
				_ = runner.Stop()
			}
			if sig == syscall.SIGTERM {
				os.Exit(143)
			}
			os.Exit(130) // typical exit for SIGINT (Ctrl+C)

		case <-changes:
			if !runQuiet {
				fmt.Fprintf(os.Stderr, "%s .env changed, restarting...\n", tui.Label("↻"))
			}

			if runner.Running() {
				if err := runner.Stop(); err != nil {
					fmt.Fprintf(os.Stderr, "%s stop error: %v\n", tui.Warning("warning:"), err)
				}
			}

			newEnv, err := loadRunEnv(files, cfg, overload)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s reloading env: %v\n", tui.Error("error:"), err)
				continue
			}

			runner.Env = newEnv
			if err := runner.Start(); err != nil {
				return fmt.Errorf("restart command: %w", err)
			}

		case err := <-waitProcess(runner):
			_ = audit.Log("", audit.OpRun,
				audit.WithCommand(strings.Join(append([]string{command}, args...), " ")),
				audit.WithExitCode(runner.ExitCode()),
				audit.WithFiles(files))
			if err != nil {
				if runner.ExitCode() >= 0 {
					os.Exit(runner.ExitCode())
				}
				return err
			}
			return nil
		}
	}
}

func waitProcess(runner *runenv.ProcessRunner) <-chan error {
	ch := make(chan error, 1)
	go func() {
		ch <- runner.Wait()
	}()
	return ch
}
