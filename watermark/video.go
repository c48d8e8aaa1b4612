package watermark

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (p *Pipeline) videoTransform(ctx context.Context, data []byte) ([]byte, error) {
	if err := p.video.Acquire(ctx, 1); err != nil {
		return nil, timeoutErr(ctx)
	}
	defer p.video.Release(1)

	dir, err := os.MkdirTemp("", "feedbackbot-video-")
	if err != nil {
		return nil, fmt.Errorf("watermark: temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "in")
	out := filepath.Join(dir, "out.mp4")
	textFile := filepath.Join(dir, "label.txt")
	if err := os.WriteFile(in, data, 0o600); err != nil {
		return nil, fmt.Errorf("watermark: write input: %w", err)
	}
	if err := os.WriteFile(textFile, []byte(p.cfg.Text), 0o600); err != nil {
		return nil, fmt.Errorf("watermark: write label: %w", err)
	}

	args := []string{
		"-y", "-loglevel", "error",
		"-i", in,
		"-vf", drawTextFilter(textFile, p.cfg.FontFile),
		"-codec:a", "copy",
		out,
	}
	p.log.Debugw("running ffmpeg", "args", args)
	if err := p.run(ctx, p.cfg.FFmpegPath, args...); err != nil {
		if ctx.Err() != nil {
			return nil, timeoutErr(ctx)
		}
		return nil, fmt.Errorf("watermark: ffmpeg: %w", err)
	}

	b, err := os.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("watermark: read output: %w", err)
	}
	if len(b) == 0 {
		return nil, fmt.Errorf("%w: ffmpeg produced no output", ErrDecode)
	}
	return b, nil
}

// drawTextFilter builds the ffmpeg drawtext filter. The label is read from
// a file so its text needs no filtergraph escaping.
func drawTextFilter(textFile, fontFile string) string {
	opts := []string{
		"textfile=" + escapeFilterValue(textFile),
		"fontcolor=white@0.8",
		"fontsize=h/20",
		"x=w-tw-20",
		"y=h-th-20",
		"shadowcolor=black@0.6",
		"shadowx=2",
		"shadowy=2",
	}
	if fontFile != "" {
		opts = append(opts, "fontfile="+escapeFilterValue(fontFile))
	}
	return "drawtext=" + strings.Join(opts, ":")
}

var filterEscaper = strings.NewReplacer(`\`, `\\`, `:`, `\:`, `'`, `\'`, `,`, `\,`)

func escapeFilterValue(s string) string {
	return filterEscaper.Replace(s)
}
