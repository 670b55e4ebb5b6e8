package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync"
)

// Runner runs a batch process to completion and returns its combined
// stdout and stderr.
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) ([]byte, error)
}

// OSRunner runs real processes.
type OSRunner struct{}

func (OSRunner) Run(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	return cmd.CombinedOutput()
}

// Process is a started process fed through its standard input.
type Process interface {
	// Stdin is the process's standard input. Closing it signals end of stream.
	Stdin() io.WriteCloser

	// Wait blocks until the process exits.
	Wait() error

	// Output returns the combined stdout and stderr captured so far.
	Output() string

	// Kill terminates the process.
	Kill() error
}

// Spawner starts long-lived processes.
type Spawner interface {
	Start(dir, name string, args ...string) (Process, error)
}

// OSSpawner starts real processes. They are not bound to any request
// context: a recording outlives the request that started it.
type OSSpawner struct{}

func (OSSpawner) Start(dir, name string, args ...string) (Process, error) {
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	out := &syncBuffer{}
	cmd.Stdout = out
	cmd.Stderr = out
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", name, err)
	}
	return &osProcess{cmd: cmd, stdin: stdin, out: out}, nil
}

type osProcess struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser
	out   *syncBuffer
}

func (p *osProcess) Stdin() io.WriteCloser { return p.stdin }
func (p *osProcess) Wait() error           { return p.cmd.Wait() }
func (p *osProcess) Output() string        { return p.out.String() }

func (p *osProcess) Kill() error {
	if p.cmd.Process == nil {
		return nil
	}
	return p.cmd.Process.Kill()
}

// syncBuffer collects process output written from exec's copy goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
