package exec

import (
	"errors"
	osexec "os/exec"
	"sync"
	"syscall"
)

// Process wraps a started command as a ports.ProcessHandle. The command is
// placed in its own process group so Kill reaches every worker it spawned.
type Process struct {
	cmd  *osexec.Cmd
	done chan struct{}

	mu     sync.Mutex
	code   int
	exited bool
	killed bool
}

// StartProcess starts cmd in a new process group and reaps it in the
// background.
func StartProcess(cmd *osexec.Cmd) (*Process, error) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setpgid = true

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	p := &Process{cmd: cmd, done: make(chan struct{})}
	go p.reap()
	return p, nil
}

func (p *Process) reap() {
	err := p.cmd.Wait()

	p.mu.Lock()
	p.exited = true
	switch e := err.(type) {
	case nil:
		p.code = 0
	case *osexec.ExitError:
		p.code = e.ExitCode()
	default:
		p.code = -1
	}
	p.mu.Unlock()

	close(p.done)
}

// Running reports whether the process has not yet been reaped.
func (p *Process) Running() bool {
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

// Kill sends SIGKILL to the whole process group. Calling Kill on an
// already-finished process is a no-op.
func (p *Process) Kill() error {
	p.mu.Lock()
	if p.exited || p.killed {
		p.mu.Unlock()
		return nil
	}
	p.killed = true
	pid := p.cmd.Process.Pid
	p.mu.Unlock()

	// Negative pid targets the process group.
	if err := syscall.Kill(-pid, syscall.SIGKILL); err != nil && !errors.Is(err, syscall.ESRCH) {
		return err
	}
	return nil
}

// ExitCode returns the exit code and true once the process has exited.
func (p *Process) ExitCode() (int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.code, p.exited
}

// Done returns a channel closed once the process has been reaped.
func (p *Process) Done() <-chan struct{} {
	return p.done
}
