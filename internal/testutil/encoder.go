package testutil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/jdemeulenaere/compose-driver/internal/media"
)

// FakeMediaContent is written to the output file of successful fake encodes.
const FakeMediaContent = "fake-encoded-media"

// RunCall records one batch encoder invocation.
type RunCall struct {
	Dir    string
	Name   string
	Args   []string
	Frames int // frame_*.png files present when the encoder ran
}

// FakeRunner stands in for a batch ffmpeg run. On success it writes
// FakeMediaContent to the last argument (the output path).
//
// Thread-safety: safe for concurrent use.
type FakeRunner struct {
	mu    sync.Mutex
	calls []RunCall

	// ExitErr, when set, makes every run fail with Output as process output.
	ExitErr error
	Output  string
}

func (r *FakeRunner) Run(_ context.Context, dir, name string, args ...string) ([]byte, error) {
	frames, _ := filepath.Glob(filepath.Join(dir, "frame_*.png"))

	r.mu.Lock()
	r.calls = append(r.calls, RunCall{Dir: dir, Name: name, Args: args, Frames: len(frames)})
	exitErr, output := r.ExitErr, r.Output
	r.mu.Unlock()

	if exitErr != nil {
		return []byte(output), exitErr
	}
	if len(args) == 0 {
		return nil, errors.New("fake runner: no output argument")
	}
	if err := os.WriteFile(args[len(args)-1], []byte(FakeMediaContent), 0o644); err != nil {
		return nil, err
	}
	return []byte(output), nil
}

// Calls returns the recorded invocations.
func (r *FakeRunner) Calls() []RunCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]RunCall, len(r.calls))
	copy(out, r.calls)
	return out
}

// FakeSpawner starts FakeProcesses instead of real encoders.
type FakeSpawner struct {
	mu    sync.Mutex
	procs []*FakeProcess

	// StartErr makes Start fail.
	StartErr error
	// ExitErr makes started processes exit unsuccessfully with Output.
	ExitErr error
	Output  string
}

func (s *FakeSpawner) Start(dir, name string, args ...string) (media.Process, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.StartErr != nil {
		return nil, s.StartErr
	}
	p := &FakeProcess{
		Dir:     dir,
		Name:    name,
		Args:    args,
		exitErr: s.ExitErr,
		output:  s.Output,
	}
	s.procs = append(s.procs, p)
	return p, nil
}

// Processes returns the processes started so far.
func (s *FakeSpawner) Processes() []*FakeProcess {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*FakeProcess, len(s.procs))
	copy(out, s.procs)
	return out
}

// Last returns the most recently started process, or nil.
func (s *FakeSpawner) Last() *FakeProcess {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.procs) == 0 {
		return nil
	}
	return s.procs[len(s.procs)-1]
}

// FakeProcess records every write to its standard input.
type FakeProcess struct {
	Dir  string
	Name string
	Args []string

	mu      sync.Mutex
	writes  []int
	closed  bool
	killed  bool
	waited  bool
	exitErr error
	output  string
}

func (p *FakeProcess) Stdin() io.WriteCloser { return fakeStdin{p} }

// Wait fails for killed processes and for a configured exit error;
// otherwise it writes FakeMediaContent to the output path (last argument).
func (p *FakeProcess) Wait() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.waited = true
	if p.killed {
		return errors.New("signal: killed")
	}
	if p.exitErr != nil {
		return p.exitErr
	}
	if !p.closed {
		return errors.New("fake process: waited with open stdin")
	}
	return os.WriteFile(p.Args[len(p.Args)-1], []byte(FakeMediaContent), 0o644)
}

func (p *FakeProcess) Output() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.output
}

func (p *FakeProcess) Kill() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.killed = true
	return nil
}

// Writes returns the size of every write to stdin, in order.
func (p *FakeProcess) Writes() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]int, len(p.writes))
	copy(out, p.writes)
	return out
}

// Closed reports whether stdin was closed.
func (p *FakeProcess) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Killed reports whether the process was killed.
func (p *FakeProcess) Killed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.killed
}

// Arg returns the value following flag in the argument list, or "".
func (p *FakeProcess) Arg(flag string) string {
	for i := 0; i+1 < len(p.Args); i++ {
		if p.Args[i] == flag {
			return p.Args[i+1]
		}
	}
	return ""
}

type fakeStdin struct{ p *FakeProcess }

func (s fakeStdin) Write(b []byte) (int, error) {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	if s.p.closed {
		return 0, fmt.Errorf("write |1: %w", io.ErrClosedPipe)
	}
	s.p.writes = append(s.p.writes, len(b))
	return len(b), nil
}

func (s fakeStdin) Close() error {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	s.p.closed = true
	return nil
}

// NewFakeEncoder returns an encoder wired to fresh fakes, with temporary
// directories created under tempRoot.
func NewFakeEncoder(tempRoot string) (*media.Encoder, *FakeRunner, *FakeSpawner) {
	runner := &FakeRunner{}
	spawner := &FakeSpawner{}
	enc := media.NewEncoder("ffmpeg", tempRoot)
	enc.Runner = runner
	enc.Spawner = spawner
	enc.Logger = DiscardLogger()
	return enc, runner, spawner
}
