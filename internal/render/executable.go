package render

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/mkantor/operator/internal/content"
)

// stderr is diagnostic-only; keep enough to debug, not enough to let a noisy
// program exhaust memory.
const maxStderrBytes = 64 * 1024

// DefaultExecutableTimeout bounds child processes that never exit.
const DefaultExecutableTimeout = 10 * time.Second

// ExecutableRenderer runs a content source as a child process. The
// serialized render context is the only request-specific environment the
// child sees; standard output becomes the body, standard error is captured
// for diagnostics, and a nonzero exit is a failure even if output was
// produced.
type ExecutableRenderer struct {
	// WorkingDirectory for every child process; the content directory.
	WorkingDirectory string
	// Timeout after which the child is killed. Zero means
	// DefaultExecutableTimeout.
	Timeout time.Duration
}

func (r ExecutableRenderer) Render(ctx context.Context, source *content.Source, renderContext Context, _ Recursion) (*Result, error) {
	serialized, err := renderContext.Serialize()
	if err != nil {
		return nil, &ExecutableError{Path: source.Path, ExitCode: -1, Err: err}
	}

	timeout := r.Timeout
	if timeout == 0 {
		timeout = DefaultExecutableTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var stdout bytes.Buffer
	var stderr limitedBuffer

	cmd := exec.CommandContext(ctx, source.Path)
	cmd.Dir = r.WorkingDirectory
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.Env = append(os.Environ(), EnvironmentVariable+"="+serialized)
	// Don't wait forever on inherited pipes if the child leaves a
	// grandchild behind after being killed.
	cmd.WaitDelay = time.Second

	if err := cmd.Run(); err != nil {
		executableErr := &ExecutableError{
			Path:     source.Path,
			ExitCode: -1,
			Stderr:   stderr.String(),
			Err:      err,
		}

		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			executableErr.ExitCode = exitErr.ExitCode()
		}
		if ctx.Err() != nil {
			executableErr.Err = ctx.Err()
		}
		return nil, executableErr
	}

	return &Result{Body: stdout.Bytes(), MediaType: source.MediaType}, nil
}

// limitedBuffer keeps the first maxStderrBytes and discards the rest.
type limitedBuffer struct {
	buf bytes.Buffer
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	if remaining := maxStderrBytes - b.buf.Len(); remaining > 0 {
		if len(p) > remaining {
			b.buf.Write(p[:remaining])
		} else {
			b.buf.Write(p)
		}
	}
	return len(p), nil
}

func (b *limitedBuffer) String() string {
	return strings.TrimSpace(b.buf.String())
}
