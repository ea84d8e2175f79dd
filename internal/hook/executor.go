package hook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Executor runs one hook per call, bounded by a timeout.
type Executor struct {
	timeout time.Duration
}

// NewExecutor creates an Executor whose runs are cancelled after timeoutMs.
func NewExecutor(timeoutMs int) *Executor {
	return &Executor{timeout: time.Duration(timeoutMs) * time.Millisecond}
}

// Execute runs hook with req as JSON on stdin and decodes its stdout as a
// Response. The manifest config is forwarded when req carries none. The
// event and session are also exported as VIGIL_EVENT and VIGIL_SESSION_ID
// for hooks that do not parse JSON.
func (e *Executor) Execute(ctx context.Context, hook *Hook, req *Request) (*Response, error) {
	if req.Config == nil {
		req.Config = hook.Manifest.Config
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, hook.Executable)
	cmd.Dir = hook.Path
	cmd.Env = append(os.Environ(),
		"VIGIL_EVENT="+req.Event,
		"VIGIL_SESSION_ID="+req.SessionID,
	)
	cmd.Stdin = bytes.NewReader(payload)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// Children that inherit stdout must not keep Run waiting past the timeout.
	cmd.WaitDelay = time.Second

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("hook %s timed out after %v", hook.Manifest.Name, e.timeout)
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("hook %s failed: %w, stderr: %s", hook.Manifest.Name, err, msg)
		}
		return nil, fmt.Errorf("hook %s failed: %w", hook.Manifest.Name, err)
	}

	var resp Response
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		return nil, fmt.Errorf("failed to parse hook response: %w, stdout: %s", err, stdout.String())
	}
	return &resp, nil
}
