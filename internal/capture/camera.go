package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"cdfinder/internal/logging"
	"cdfinder/internal/services/llm"
)

// ErrDeviceAccess reports that the camera could not be opened or produced no frame.
var ErrDeviceAccess = errors.New("camera access failed")

// Camera opens a device stream.
type Camera interface {
	Open(ctx context.Context) (Stream, error)
}

// Stream is an open device stream holding a single frame.
type Stream interface {
	io.Closer
	Frame() (llm.Image, error)
}

// CommandCamera runs an external program that writes one still to the path
// appended as its last argument.
type CommandCamera struct {
	Command []string
	Timeout time.Duration
	Logger  *slog.Logger
}

// NewCommandCamera builds a camera around command.
func NewCommandCamera(command []string, timeout time.Duration, logger *slog.Logger) *CommandCamera {
	return &CommandCamera{
		Command: command,
		Timeout: timeout,
		Logger:  logging.NewComponentLogger(logger, "camera"),
	}
}

// Open runs the capture command. The returned stream owns a temporary
// directory that Close removes.
func (c *CommandCamera) Open(ctx context.Context) (Stream, error) {
	if c == nil || len(c.Command) == 0 || strings.TrimSpace(c.Command[0]) == "" {
		return nil, fmt.Errorf("%w: no capture command configured", ErrDeviceAccess)
	}
	logger := c.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	dir, err := os.MkdirTemp("", "cdfinder-capture-")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeviceAccess, err)
	}
	stream := &fileStream{dir: dir, path: filepath.Join(dir, "frame")}

	runCtx := ctx
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}
	args := append(append([]string(nil), c.Command[1:]...), stream.path)
	cmd := exec.CommandContext(runCtx, c.Command[0], args...)
	started := time.Now()
	output, err := cmd.CombinedOutput()
	if err != nil {
		_ = stream.Close()
		logging.WarnWithContext(logger, "capture command failed", "capture_failed",
			logging.String("command", c.Command[0]),
			logging.Error(err),
			logging.String("output", strings.TrimSpace(string(output))),
			logging.String(logging.FieldErrorHint, "check [capture] command and camera permissions"),
			logging.String(logging.FieldImpact, "no image captured"))
		return nil, fmt.Errorf("%w: %s: %v", ErrDeviceAccess, c.Command[0], err)
	}
	logger.Debug("capture command finished",
		logging.String("command", c.Command[0]),
		logging.Duration("elapsed", time.Since(started)))
	return stream, nil
}

type fileStream struct {
	dir    string
	path   string
	closed bool
}

func (s *fileStream) Frame() (llm.Image, error) {
	if s.closed {
		return llm.Image{}, fmt.Errorf("%w: stream closed", ErrDeviceAccess)
	}
	img, err := FromFile(s.path)
	if err != nil {
		return llm.Image{}, fmt.Errorf("%w: %v", ErrDeviceAccess, err)
	}
	return img, nil
}

func (s *fileStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return os.RemoveAll(s.dir)
}
