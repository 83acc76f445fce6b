package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// CommandError reports a failed external encode. It carries the invoked
// command line and the captured standard output and standard error so the
// failure can be surfaced in a job report without re-running anything.
type CommandError struct {
	Command  string
	Stdout   string
	Stderr   string
	TimedOut bool
	Err      error
}

func (e *CommandError) Error() string {
	if e.TimedOut {
		return fmt.Sprintf("ffmpeg timed out: %s", e.Command)
	}
	return fmt.Sprintf("ffmpeg failed: %v\ncmd: %s\nstderr: %s", e.Err, e.Command, e.Stderr)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// Runner executes FFmpeg commands
type Runner struct {
	ffmpegPath string
	timeout    time.Duration
}

// NewRunner creates a new runner
func NewRunner(ffmpegPath string, timeout time.Duration) *Runner {
	return &Runner{
		ffmpegPath: ffmpegPath,
		timeout:    timeout,
	}
}

// Run executes one FFmpeg invocation, bounded by the runner's timeout. On a
// nonzero exit or timeout it returns a *CommandError; the output directory is
// not guaranteed to be clean and a subsequent run must fully overwrite it.
func (r *Runner) Run(ctx context.Context, args []string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.ffmpegPath, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		return &CommandError{
			Command:  r.ffmpegPath + " " + strings.Join(args, " "),
			Stdout:   stdout.String(),
			Stderr:   stderr.String(),
			TimedOut: ctx.Err() == context.DeadlineExceeded,
			Err:      err,
		}
	}

	return nil
}
