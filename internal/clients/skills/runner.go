// Package skills runs the external data scripts that back the pipeline's collaborators.
//
// Each skill lives in <dir>/<skill>/scripts/<script>.py and prints JSON on stdout.
package skills

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ErrScriptNotFound is returned when a skill script is missing on disk
var ErrScriptNotFound = errors.New("skill script not found")

// Executor runs a command and returns its captured output
type Executor interface {
	Run(ctx context.Context, name string, args []string) (stdout, stderr []byte, err error)
}

// ExecExecutor runs commands with os/exec
type ExecExecutor struct{}

// Run executes the command and captures stdout and stderr
func (ExecExecutor) Run(ctx context.Context, name string, args []string) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// Error describes a failed script invocation
type Error struct {
	Skill  string
	Script string
	Stderr string
	Err    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("skill %s/%s failed: %v", e.Skill, e.Script, e.Err)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Runner invokes skill scripts through an interpreter
type Runner struct {
	dir         string
	interpreter string
	timeout     time.Duration
	exec        Executor
	log         zerolog.Logger
}

// Config configures a Runner
type Config struct {
	Dir         string
	Interpreter string
	Timeout     time.Duration // Zero disables the per-call timeout
}

// NewRunner creates a runner. A nil executor uses os/exec.
func NewRunner(cfg Config, executor Executor, log zerolog.Logger) *Runner {
	if executor == nil {
		executor = ExecExecutor{}
	}
	interpreter := cfg.Interpreter
	if interpreter == "" {
		interpreter = "python3"
	}
	return &Runner{
		dir:         cfg.Dir,
		interpreter: interpreter,
		timeout:     cfg.Timeout,
		exec:        executor,
		log:         log.With().Str("client", "skills").Logger(),
	}
}

// ScriptPath returns where a skill script is expected to live
func (r *Runner) ScriptPath(skill, script string) string {
	return filepath.Join(r.dir, skill, "scripts", script+".py")
}

// RunJSON runs a script and decodes its stdout into out. Empty output leaves out untouched.
func (r *Runner) RunJSON(ctx context.Context, skill, script string, args []string, out any) error {
	path := r.ScriptPath(skill, script)
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("%w: %s", ErrScriptNotFound, path)
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := time.Now()
	stdout, stderr, err := r.exec.Run(ctx, r.interpreter, append([]string{path}, args...))
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			err = fmt.Errorf("timed out after %s: %w", r.timeout, err)
		}
		return &Error{Skill: skill, Script: script, Stderr: strings.TrimSpace(string(stderr)), Err: err}
	}

	r.log.Debug().
		Str("skill", skill).
		Str("script", script).
		Dur("elapsed", time.Since(start)).
		Int("bytes", len(stdout)).
		Msg("Skill script finished")

	body := bytes.TrimSpace(stdout)
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("skill %s/%s returned malformed JSON: %w", skill, script, err)
	}
	return nil
}
