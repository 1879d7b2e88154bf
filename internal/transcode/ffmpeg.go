package transcode

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"montage/internal/fileutil"
	"montage/internal/logging"
)

var commandContext = exec.CommandContext

// Option configures the ffmpeg engine.
type Option func(*FFmpeg)

// WithBinary overrides the default binary name.
func WithBinary(binary string) Option {
	return func(e *FFmpeg) {
		if binary != "" {
			e.binary = binary
		}
	}
}

// WithLogger attaches a logger to the engine.
func WithLogger(logger *logging.Logger) Option {
	return func(e *FFmpeg) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// FFmpeg drives the ffmpeg command-line encoder. Pause and resume map to
// stopping and continuing the process, which keeps partial output intact.
type FFmpeg struct {
	binary string
	logger *logging.Logger
}

// NewFFmpeg constructs an engine using defaults.
func NewFFmpeg(opts ...Option) *FFmpeg {
	engine := &FFmpeg{binary: "ffmpeg", logger: logging.NewNop()}
	for _, opt := range opts {
		opt(engine)
	}
	return engine
}

// Start launches an encode of sourceID into outputID using the profile. Both
// identifiers must be file-backed.
func (e *FFmpeg) Start(ctx context.Context, sourceID, outputID string, profile Profile) (Handle, error) {
	if !profile.Valid() {
		return nil, errors.New("profile missing name or video codec")
	}
	input, err := fileutil.PathFromURI(sourceID)
	if err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}
	output, err := fileutil.PathFromURI(outputID)
	if err != nil {
		return nil, fmt.Errorf("output: %w", err)
	}

	duration, err := e.probeDuration(ctx, input)
	if err != nil {
		e.logger.Warn("could not probe source duration, progress will be coarse",
			logging.String("input", input), logging.Error(err))
	}

	args := buildArgs(input, output, profile)
	cmd := commandContext(ctx, e.binary, args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start ffmpeg: %w", err)
	}

	h := &ffmpegHandle{
		cmd:      cmd,
		events:   make(chan Event, 16),
		duration: duration,
	}
	go h.pump(bufio.NewScanner(stdout))
	return h, nil
}

// probeDuration asks ffprobe for the source duration in seconds.
func (e *FFmpeg) probeDuration(ctx context.Context, input string) (time.Duration, error) {
	probe := "ffprobe"
	if strings.HasSuffix(e.binary, "ffmpeg") {
		probe = strings.TrimSuffix(e.binary, "ffmpeg") + "ffprobe"
	}
	cmd := commandContext(ctx, probe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		input,
	) //nolint:gosec
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("run ffprobe: %w", err)
	}
	seconds, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", strings.TrimSpace(string(out)), err)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

func buildArgs(input, output string, profile Profile) []string {
	args := []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-i", input,
		"-c:v", profile.VideoCodec,
	}
	if profile.CRF > 0 {
		args = append(args, "-crf", strconv.Itoa(profile.CRF))
	}
	if profile.ScaleWidth > 0 {
		args = append(args, "-vf", fmt.Sprintf("scale=%d:-2", profile.ScaleWidth))
	}
	if profile.AudioCodec != "" {
		args = append(args, "-c:a", profile.AudioCodec)
	}
	if profile.Container != "" {
		args = append(args, "-f", profile.Container)
	}
	args = append(args, profile.ExtraArgs...)
	args = append(args, "-progress", "pipe:1", output)
	return args
}

type ffmpegHandle struct {
	cmd      *exec.Cmd
	events   chan Event
	duration time.Duration

	mu     sync.Mutex
	closed bool
}

func (h *ffmpegHandle) Events() <-chan Event { return h.events }

// pump reads ffmpeg's key=value progress stream and forwards events. ffmpeg
// writes blocks terminated by a "progress=continue|end" line.
func (h *ffmpegHandle) pump(scanner *bufio.Scanner) {
	defer close(h.events)

	var outTime time.Duration
	ended := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		switch key {
		case "out_time_us", "out_time_ms":
			if us, err := strconv.ParseInt(value, 10, 64); err == nil {
				outTime = time.Duration(us) * time.Microsecond
			}
		case "progress":
			if value == "end" {
				ended = true
				continue
			}
			h.events <- Event{Type: EventProgress, Percent: h.percent(outTime)}
		}
	}

	err := h.cmd.Wait()
	if scanErr := scanner.Err(); err == nil && scanErr != nil {
		err = fmt.Errorf("read ffmpeg progress: %w", scanErr)
	}
	switch {
	case err != nil:
		h.events <- Event{Type: EventError, Err: fmt.Errorf("ffmpeg encode failed: %w", err)}
	case !ended:
		h.events <- Event{Type: EventError, Err: errors.New("ffmpeg exited without completing")}
	default:
		h.events <- Event{Type: EventEOS, Percent: 100}
	}
}

func (h *ffmpegHandle) percent(outTime time.Duration) float64 {
	if h.duration <= 0 {
		return 0
	}
	pct := float64(outTime) / float64(h.duration) * 100
	if pct > 100 {
		pct = 100
	}
	return pct
}

// Pause stops the ffmpeg process without terminating it.
func (h *ffmpegHandle) Pause() error { return h.signal(unix.SIGSTOP) }

// Resume continues a stopped ffmpeg process.
func (h *ffmpegHandle) Resume() error { return h.signal(unix.SIGCONT) }

func (h *ffmpegHandle) signal(sig unix.Signal) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed || h.cmd.Process == nil {
		return errors.New("encode is not running")
	}
	if err := h.cmd.Process.Signal(sig); err != nil {
		return fmt.Errorf("signal ffmpeg: %w", err)
	}
	return nil
}

// Close kills the encode if it is still running.
func (h *ffmpegHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	if h.cmd.Process != nil && h.cmd.ProcessState == nil {
		// A stopped process ignores SIGKILL until continued.
		_ = h.cmd.Process.Signal(unix.SIGCONT)
		return h.cmd.Process.Kill()
	}
	return nil
}

var _ Engine = (*FFmpeg)(nil)
