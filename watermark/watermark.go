// Package watermark stamps a text label onto media before publication.
package watermark

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"feedbackbot/model"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// Mode selects how media is published.
type Mode int

const (
	ModeNone Mode = iota
	ModeWatermark
)

func (m Mode) String() string {
	if m == ModeWatermark {
		return "watermark"
	}
	return "original"
}

// ParseMode maps the names used in controls back to a Mode.
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "original":
		return ModeNone, true
	case "watermark":
		return ModeWatermark, true
	}
	return ModeNone, false
}

var (
	ErrUnsupportedKind = errors.New("watermark: media kind cannot be transformed")
	ErrDecode          = errors.New("watermark: cannot decode media")
	ErrTimeout         = errors.New("watermark: transform timed out")
)

// Runner executes an external command. It matches exec.CommandContext(...).Run.
type Runner func(ctx context.Context, name string, args ...string) error

// Pipeline transforms media payloads. Photos run unbounded, videos one at
// a time.
type Pipeline struct {
	cfg   model.Watermark
	video *semaphore.Weighted
	run   Runner
	log   *zap.SugaredLogger
}

func NewPipeline(cfg model.Watermark, log *zap.SugaredLogger) *Pipeline {
	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = "ffmpeg"
	}
	if cfg.PhotoTimeout <= 0 {
		cfg.PhotoTimeout = 15 * time.Second
	}
	if cfg.VideoTimeout <= 0 {
		cfg.VideoTimeout = 2 * time.Minute
	}
	return &Pipeline{
		cfg:   cfg,
		video: semaphore.NewWeighted(1),
		run:   runCommand,
		log:   log,
	}
}

// Transform returns a transformed copy of data. data itself is never
// modified, and on error no partial payload is returned.
func (p *Pipeline) Transform(ctx context.Context, data []byte, kind model.MediaKind, mode Mode) ([]byte, error) {
	if mode == ModeNone {
		return bytes.Clone(data), nil
	}

	switch kind {
	case model.MediaPhoto:
		ctx, cancel := context.WithTimeout(ctx, p.cfg.PhotoTimeout)
		defer cancel()
		return p.photo(ctx, data)
	case model.MediaVideo:
		ctx, cancel := context.WithTimeout(ctx, p.cfg.VideoTimeout)
		defer cancel()
		return p.videoTransform(ctx, data)
	case model.MediaDocument:
		return nil, ErrUnsupportedKind
	}
	return nil, fmt.Errorf("%w: %v", ErrUnsupportedKind, kind)
}

func (p *Pipeline) photo(ctx context.Context, data []byte) ([]byte, error) {
	type result struct {
		b   []byte
		err error
	}
	done := make(chan result, 1)
	go func() {
		b, err := stampPhoto(data, p.cfg.Text)
		done <- result{b, err}
	}()

	select {
	case r := <-done:
		return r.b, r.err
	case <-ctx.Done():
		return nil, timeoutErr(ctx)
	}
}

func timeoutErr(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrTimeout
	}
	return ctx.Err()
}

func runCommand(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, lastLine(out))
	}
	return nil
}

func lastLine(out []byte) string {
	out = bytes.TrimSpace(out)
	if i := bytes.LastIndexByte(out, '\n'); i >= 0 {
		out = out[i+1:]
	}
	return string(out)
}
