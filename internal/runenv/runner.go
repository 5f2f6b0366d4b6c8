package runenv

import (
	"fmt"
	"os/exec"
	"sync"
	"syscall"
	"time"
)

// StopGracePeriod is how long Stop waits after SIGTERM before SIGKILL.
const StopGracePeriod = 5 * time.Second

// ProcessRunner manages a restartable child process for watch mode.
type ProcessRunner struct {
	Command string
	Args    []string
	Env     map[string]string
	Workdir string

	mu       sync.Mutex
	cmd      *exec.Cmd
	waitDone chan struct{}
	waitErr  error
	exitCode int
}

// Start launches the child. A previously started child must have been
// stopped or waited first.
func (r *ProcessRunner) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cmd != nil && r.cmd.ProcessState == nil {
		return fmt.Errorf("process already running")
	}

	cmd := setupCommand(r.Command, r.Args, r.Env, r.Workdir)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", r.Command, err)
	}

	r.cmd = cmd
	r.exitCode = -1
	r.waitDone = make(chan struct{})
	done := r.waitDone

	go func() {
		err := cmd.Wait()
		r.mu.Lock()
		r.exitCode, r.waitErr = exitCodeFromError(err)
		r.mu.Unlock()
		close(done)
	}()

	return nil
}

// Running reports whether the child is still alive.
func (r *ProcessRunner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cmd == nil || r.waitDone == nil {
		return false
	}
	select {
	case <-r.waitDone:
		return false
	default:
		return true
	}
}

// Stop terminates the child: SIGTERM first, SIGKILL after the grace period.
func (r *ProcessRunner) Stop() error {
	r.mu.Lock()
	cmd := r.cmd
	done := r.waitDone
	r.mu.Unlock()

	if cmd == nil || cmd.Process == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	default:
	}

	if err := cmd.Process.Signal(syscall.SIGTERM); err != nil {
		return cmd.Process.Kill()
	}

	select {
	case <-done:
		return nil
	case <-time.After(StopGracePeriod):
		if err := cmd.Process.Kill(); err != nil {
			return fmt.Errorf("kill process: %w", err)
		}
		<-done
		return nil
	}
}

// Wait blocks until the child exits and returns its wait error.
func (r *ProcessRunner) Wait() error {
	r.mu.Lock()
	done := r.waitDone
	r.mu.Unlock()
	if done == nil {
		return fmt.Errorf("process not started")
	}
	<-done
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.waitErr
}

// ExitCode returns the child's exit code, or -1 if it has not exited.
func (r *ProcessRunner) ExitCode() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.exitCode
}
