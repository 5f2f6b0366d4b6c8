package runenv

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/envfold/envfold/internal/envfile"
)

// LoadEnvFromFiles parses each env file and merges the results. Earlier
// files win unless overload is set. Without strict, unreadable files are
// skipped; with strict they are fatal.
func LoadEnvFromFiles(paths []string, overload, strict bool) (map[string]string, error) {
	merged := make(map[string]string)
	for _, p := range paths {
		absPath, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("resolve path %q: %w", p, err)
		}

		entries, err := envfile.Load(absPath)
		if err != nil {
			if strict {
				return nil, fmt.Errorf("env file %s: %w", absPath, err)
			}
			continue
		}

		for k, v := range envfile.ToMap(entries) {
			if overload || merged[k] == "" {
				merged[k] = v
			}
		}
	}
	return merged, nil
}

// MergeOverlayEnv applies --env KEY=value overrides on top of env.
func MergeOverlayEnv(env map[string]string, overlay []string, overload bool) error {
	for _, s := range overlay {
		idx := strings.Index(s, "=")
		if idx <= 0 {
			return fmt.Errorf("invalid --env %q: expected KEY=value", s)
		}
		key := s[:idx]
		value := s[idx+1:]
		if overload || env[key] == "" {
			env[key] = value
		}
	}
	return nil
}

func buildCmdEnv(envMap map[string]string) []string {
	cmdEnv := os.Environ()
	for k, v := range envMap {
		cmdEnv = append(cmdEnv, fmt.Sprintf("%s=%s", k, v))
	}
	return cmdEnv
}

func setupCommand(command string, args []string, envMap map[string]string, workdir string) *exec.Cmd {
	cmd := exec.Command(command, args...)
	cmd.Env = buildCmdEnv(envMap)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if workdir != "" {
		cmd.Dir = workdir
	}
	// Do not set Setpgid: child stays in our process group so Ctrl+C kills it too.
	return cmd
}

func exitCodeFromError(runErr error) (int, error) {
	if runErr == nil {
		return 0, nil
	}
	if exitErr, ok := runErr.(*exec.ExitError); ok {
		return exitErr.ExitCode(), runErr
	}
	return -1, fmt.Errorf("failed to run command: %w", runErr)
}

// RunWithEnvFromMap runs command with the parent environment plus envMap
// appended, inheriting stdio. Returns the child's exit code.
func RunWithEnvFromMap(envMap map[string]string, workdir, command string, args []string) (int, error) {
	cmd := setupCommand(command, args, envMap, workdir)
	return exitCodeFromError(cmd.Run())
}

// RunResult is the captured outcome of a child process.
type RunResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// RunWithEnvCaptured runs command with envMap applied and captures its
// output instead of inheriting stdio.
func RunWithEnvCaptured(envMap map[string]string, workdir, command string, args []string) (*RunResult, error) {
	cmd := exec.Command(command, args...)
	cmd.Env = buildCmdEnv(envMap)
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if workdir != "" {
		cmd.Dir = workdir
	}

	runErr := cmd.Run()
	result := &RunResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	result.ExitCode, _ = exitCodeFromError(runErr)
	if runErr != nil && result.ExitCode == -1 {
		return result, runErr
	}
	return result, runErr
}
