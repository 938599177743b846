package dictation

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
)

// ExecRecorder runs an external capture program (arecord, sox, ffmpeg) that
// writes to the file path appended as its last argument. Stop interrupts it.
type ExecRecorder struct {
	Command []string

	mu     sync.Mutex
	cmd    *exec.Cmd
	out    string
	stderr bytes.Buffer
	done   chan error
}

func NewExecRecorder(command []string) *ExecRecorder {
	return &ExecRecorder{Command: append([]string(nil), command...)}
}

// Start launches the capture program. A missing program or a permission
// failure is reported as *PermissionError.
func (r *ExecRecorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cmd != nil {
		return errors.New("recorder already running")
	}
	if len(r.Command) == 0 || strings.TrimSpace(r.Command[0]) == "" {
		return errors.New("dictation command is empty")
	}

	dir, err := os.MkdirTemp("", "noteassist-rec-")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	out := filepath.Join(dir, "recording.wav")

	args := append(append([]string(nil), r.Command[1:]...), out)
	// 录音进程的生命周期由 Stop 控制，而不是调用方的 ctx
	cmd := exec.Command(r.Command[0], args...)
	r.stderr.Reset()
	cmd.Stderr = &r.stderr
	if err := cmd.Start(); err != nil {
		_ = os.RemoveAll(dir)
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) || errors.Is(err, os.ErrPermission) {
			return &PermissionError{Err: err}
		}
		return err
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	// 设备被占用或拒绝访问时录音程序会立即退出
	// Capture programs exit at once when the device is busy or access is denied.
	select {
	case err := <-done:
		_ = os.RemoveAll(dir)
		msg := strings.TrimSpace(r.stderr.String())
		if msg == "" && err != nil {
			msg = err.Error()
		}
		if msg == "" {
			msg = "capture program exited immediately"
		}
		return &PermissionError{Err: errors.New(msg)}
	case <-time.After(150 * time.Millisecond):
	case <-ctx.Done():
		_ = cmd.Process.Kill()
		<-done
		_ = os.RemoveAll(dir)
		return ctx.Err()
	}

	r.cmd = cmd
	r.out = out
	r.done = done
	return nil
}

// Stop interrupts the capture program and returns the recorded bytes.
func (r *ExecRecorder) Stop(ctx context.Context) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cmd == nil {
		return nil, errors.New("recorder is not running")
	}
	cmd, out, done := r.cmd, r.out, r.done
	r.cmd, r.out, r.done = nil, "", nil
	defer os.RemoveAll(filepath.Dir(out))

	_ = cmd.Process.Signal(os.Interrupt)
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		_ = cmd.Process.Kill()
		<-done
	case <-ctx.Done():
		_ = cmd.Process.Kill()
		<-done
		return nil, ctx.Err()
	}

	data, err := os.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("read recording: %w", err)
	}
	if len(data) == 0 {
		return nil, errors.New("recording is empty")
	}
	return data, nil
}

// FileRecorder replays a pre-recorded clip; Start checks it is readable.
type FileRecorder struct {
	Path string
}

func (r FileRecorder) Start(context.Context) error {
	f, err := os.Open(r.Path)
	if err != nil {
		if errors.Is(err, os.ErrPermission) {
			return &PermissionError{Err: err}
		}
		return err
	}
	return f.Close()
}

func (r FileRecorder) Stop(context.Context) ([]byte, error) {
	return os.ReadFile(r.Path)
}
