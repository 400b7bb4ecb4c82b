// Package runner implements C9: invoking an external LISO-compatible
// reference binary, collecting its output, and handing it to pkg/liso's
// ParseOutput for cross-validation against this module's own analyses.
//
// New relative to the teacher (toy-spice has no external-binary
// integration). Grounded on the generic os/exec + context.Context idiom for
// subprocess lifecycle and cancellation — no ecosystem library in the
// retrieved pack wraps this more directly than the standard library, so
// this package is deliberately stdlib-only (see DESIGN.md).
package runner

import (
	"bytes"
	"context"
	"os/exec"
	"syscall"
	"time"

	"github.com/edp1096/circuitcore/pkg/circuiterr"
	"github.com/edp1096/circuitcore/pkg/config"
	"github.com/edp1096/circuitcore/pkg/liso"
	"github.com/edp1096/circuitcore/pkg/solution"
)

// gracePeriod is how long Run waits after SIGTERM before escalating to
// SIGKILL, per spec.md §5.
const gracePeriod = 5 * time.Second

// Run invokes cfg.Liso.Path with inputPath as its sole argument, waits for
// it to finish (subject to timeout, or never if timeout <= 0), and parses
// its stdout as LISO reference output via pkg/liso.ParseOutput.
//
// Standard streams are fully captured into memory before Wait is called
// (via cmd.Stdout/cmd.Stderr rather than explicit pipes), avoiding the
// classic pipe-deadlock where a child blocks writing to a full pipe no one
// is draining, per spec.md §5.
func Run(ctx context.Context, cfg config.LisoConfig, inputPath string, timeout time.Duration) (*solution.Solution, error) {
	if cfg.Path == "" {
		return nil, &circuiterr.RunnerError{Reason: "no reference binary configured (liso.path unset)"}
	}

	stdout, stderr, err := exec1(ctx, cfg.Path, []string{inputPath}, timeout)
	if err != nil {
		return nil, &circuiterr.RunnerError{Reason: "reference binary failed: " + stderr.String(), Err: err}
	}

	sol, err := liso.ParseOutput(stdout.String())
	if err != nil {
		return nil, &circuiterr.RunnerError{Reason: "parsing reference binary output", Err: err}
	}
	return sol, nil
}

// exec1 runs one subprocess to completion (or until ctx/timeout fires),
// returning its captured stdout/stderr. On cancellation, the process is
// sent SIGTERM, then SIGKILL after gracePeriod if it has not yet exited.
func exec1(ctx context.Context, path string, args []string, timeout time.Duration) (stdout, stderr *bytes.Buffer, err error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.Command(path, args...)
	stdout = &bytes.Buffer{}
	stderr = &bytes.Buffer{}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		return stdout, stderr, err
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case err := <-done:
		return stdout, stderr, err
	case <-ctx.Done():
		_ = cmd.Process.Signal(syscall.SIGTERM)
		select {
		case err := <-done:
			return stdout, stderr, err
		case <-time.After(gracePeriod):
			_ = cmd.Process.Kill()
			<-done
			return stdout, stderr, ctx.Err()
		}
	}
}
