package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/teamcutter/unarc/internal/domain"
)

const (
	maxLineSize = 1 << 20
	waitDelay   = time.Second
)

// UpdaterState is the lifecycle state of an extraction process.
type UpdaterState int

const (
	Running UpdaterState = iota
	Exited
)

func (s UpdaterState) String() string {
	switch s {
	case Running:
		return "running"
	case Exited:
		return "exited"
	default:
		return fmt.Sprintf("UpdaterState(%d)", int(s))
	}
}

type UpdaterOption func(*Updater)

// WithCleanup registers fn to run once the process has been reaped.
func WithCleanup(fn func()) UpdaterOption {
	return func(u *Updater) {
		if fn != nil {
			u.cleanup = append(u.cleanup, fn)
		}
	}
}

func WithUpdaterLogger(logger *zap.Logger) UpdaterOption {
	return func(u *Updater) {
		if logger != nil {
			u.logger = logger
		}
	}
}

// Updater owns a running extraction process and turns each line it prints
// into confirmed bytes. Every stdout line is taken as one finished path.
//
// Progress is non-blocking: it only consumes lines that have already arrived.
// An Updater must not be polled from more than one goroutine at a time.
type Updater struct {
	cmd    *exec.Cmd
	name   string
	lookup LookupFunc
	total  int64
	done   int64

	mu      sync.Mutex
	pending []string

	exited  chan struct{}
	err     error
	cleanup []func()
	logger  *zap.Logger
}

// StartUpdater starts cmd and returns as soon as the process is running.
// total is fixed for the lifetime of the Updater. cmd.Stdout must be unset.
func StartUpdater(cmd *exec.Cmd, total int64, lookup LookupFunc, opts ...UpdaterOption) (*Updater, error) {
	u := &Updater{
		cmd:    cmd,
		name:   filepath.Base(cmd.Path),
		lookup: lookup,
		total:  total,
		exited: make(chan struct{}),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(u)
	}

	if cmd.Stdout != nil {
		u.runCleanup()
		return nil, fmt.Errorf("%s: stdout already set", u.name)
	}
	out := &lineWriter{emit: u.queue}
	cmd.Stdout = out

	stderr := &bytes.Buffer{}
	if cmd.Stderr == nil {
		cmd.Stderr = stderr
	}

	// A backend that forks children can leave stdout open after it dies;
	// WaitDelay stops Wait from hanging on them.
	if cmd.WaitDelay == 0 {
		cmd.WaitDelay = waitDelay
	}

	if err := cmd.Start(); err != nil {
		u.runCleanup()
		return nil, fmt.Errorf("%s: failed to start: %w", u.name, err)
	}

	u.logger.Debug("extraction started",
		zap.String("backend", u.name),
		zap.Int("pid", cmd.Process.Pid),
		zap.Int64("total", total))

	go u.wait(out, stderr, time.Now())

	return u, nil
}

func (u *Updater) queue(line string) {
	u.mu.Lock()
	u.pending = append(u.pending, line)
	u.mu.Unlock()
}

func (u *Updater) wait(out *lineWriter, stderr *bytes.Buffer, started time.Time) {
	err := u.cmd.Wait()
	out.flush()

	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			err = fmt.Errorf("%s: extraction failed: %w: %s", u.name, err, msg)
		} else {
			err = fmt.Errorf("%s: extraction failed: %w", u.name, err)
		}
	}
	u.err = err

	u.logger.Debug("extraction exited",
		zap.String("backend", u.name),
		zap.Duration("duration", time.Since(started)),
		zap.Error(err))

	u.runCleanup()
	close(u.exited)
}

func (u *Updater) runCleanup() {
	for _, fn := range u.cleanup {
		fn()
	}
	u.cleanup = nil
}

// Progress consumes every line received since the last call and returns the
// updated counters. Paths missing from the lookup add nothing.
func (u *Updater) Progress() domain.Progress {
	u.mu.Lock()
	lines := u.pending
	u.pending = nil
	u.mu.Unlock()

	for _, line := range lines {
		if size, ok := u.lookup(line); ok {
			u.done += size
		}
	}

	return domain.Progress{Done: u.done, Total: u.total}
}

// IsFinished reports whether the process has exited and all of its output has
// been consumed by Progress.
func (u *Updater) IsFinished() bool {
	if u.State() != Exited {
		return false
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.pending) == 0
}

func (u *Updater) State() UpdaterState {
	select {
	case <-u.exited:
		return Exited
	default:
		return Running
	}
}

// Done is closed when the process has exited.
func (u *Updater) Done() <-chan struct{} {
	return u.exited
}

// Wait blocks until the process exits and returns its error. It does not
// consume output; call Progress afterwards for the final counters.
func (u *Updater) Wait(ctx context.Context) error {
	select {
	case <-u.exited:
		return u.err
	default:
	}

	select {
	case <-u.exited:
		return u.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close kills the process if it is still running and waits for it to be
// reaped. It is safe to call more than once.
func (u *Updater) Close() error {
	if u.State() == Exited {
		return nil
	}

	if err := u.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("%s: %w", u.name, err)
	}
	<-u.exited
	return nil
}

var _ domain.Updater = (*Updater)(nil)

// lineWriter splits the process output into lines. exec feeds it from a
// single goroutine.
type lineWriter struct {
	emit    func(string)
	partial []byte
	skip    bool
}

func (w *lineWriter) Write(p []byte) (int, error) {
	n := len(p)
	for len(p) > 0 {
		i := bytes.IndexByte(p, '\n')
		if i < 0 {
			w.buffer(p)
			break
		}
		w.buffer(p[:i])
		w.flush()
		p = p[i+1:]
	}
	return n, nil
}

func (w *lineWriter) buffer(p []byte) {
	if w.skip {
		return
	}
	if len(w.partial)+len(p) > maxLineSize {
		w.partial = w.partial[:0]
		w.skip = true
		return
	}
	w.partial = append(w.partial, p...)
}

// flush emits the buffered line, if any. Overlong lines are dropped.
func (w *lineWriter) flush() {
	line := strings.TrimRight(string(w.partial), "\r")
	w.partial = w.partial[:0]
	if w.skip {
		w.skip = false
		return
	}
	if line != "" {
		w.emit(line)
	}
}
