// Package ffmpeg wraps the ffmpeg and ffprobe binaries: media probing and
// progress-parsed encoding of local files.
package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"time"
)

// ProbeResult contains the complete ffprobe output.
type ProbeResult struct {
	Format  ProbeFormat   `json:"format"`
	Streams []ProbeStream `json:"streams"`
}

// ProbeFormat contains container format information.
type ProbeFormat struct {
	Filename   string            `json:"filename"`
	NumStreams int               `json:"nb_streams"`
	FormatName string            `json:"format_name"`
	Duration   string            `json:"duration"`
	Size       string            `json:"size"`
	BitRate    string            `json:"bit_rate"`
	Tags       map[string]string `json:"tags"`
}

// ProbeStream contains stream information.
type ProbeStream struct {
	Index         int               `json:"index"`
	CodecName     string            `json:"codec_name"`
	CodecLongName string            `json:"codec_long_name"`
	CodecType     string            `json:"codec_type"` // video, audio, subtitle, data
	Width         int               `json:"width,omitempty"`
	Height        int               `json:"height,omitempty"`
	PixFmt        string            `json:"pix_fmt,omitempty"`
	SampleRate    string            `json:"sample_rate,omitempty"`
	Channels      int               `json:"channels,omitempty"`
	ChannelLayout string            `json:"channel_layout,omitempty"`
	Duration      string            `json:"duration,omitempty"`
	BitRate       string            `json:"bit_rate,omitempty"`
	Disposition   ProbeDisposition  `json:"disposition,omitempty"`
	Tags          map[string]string `json:"tags,omitempty"`
}

// ProbeDisposition contains stream disposition flags.
type ProbeDisposition struct {
	Default     int `json:"default"`
	Forced      int `json:"forced"`
	AttachedPic int `json:"attached_pic"`
}

// Language returns the stream's language tag, or "und" when absent.
func (s *ProbeStream) Language() string {
	if lang, ok := s.Tags["language"]; ok && lang != "" {
		return lang
	}
	return "und"
}

// IsForced reports whether the stream carries the forced disposition flag.
func (s *ProbeStream) IsForced() bool {
	return s.Disposition.Forced == 1
}

// DurationSeconds returns the stream duration in seconds, 0 when unknown.
func (s *ProbeStream) DurationSeconds() float64 {
	if s.Duration == "" {
		return 0
	}
	dur, err := strconv.ParseFloat(s.Duration, 64)
	if err != nil {
		return 0
	}
	return dur
}

// DurationSeconds returns the container duration in seconds, 0 when unknown.
func (r *ProbeResult) DurationSeconds() float64 {
	if r.Format.Duration == "" {
		return 0
	}
	dur, err := strconv.ParseFloat(r.Format.Duration, 64)
	if err != nil {
		return 0
	}
	return dur
}

// Prober handles ffprobe operations on local files.
type Prober struct {
	ffprobePath string
	timeout     time.Duration
}

// NewProber creates a new media prober. An empty path falls back to $PATH
// lookup of "ffprobe".
func NewProber(ffprobePath string) *Prober {
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Prober{
		ffprobePath: ffprobePath,
		timeout:     30 * time.Second,
	}
}

// WithTimeout sets the probe timeout.
func (p *Prober) WithTimeout(timeout time.Duration) *Prober {
	p.timeout = timeout
	return p
}

// Probe probes a local media file and returns detailed information.
func (p *Prober) Probe(ctx context.Context, path string) (*ProbeResult, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	}

	cmd := exec.CommandContext(ctx, p.ffprobePath, args...)
	output, err := cmd.Output()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("probe timeout after %v", p.timeout)
		}
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}

	return parseProbeOutput(output)
}

// parseProbeOutput unmarshals raw ffprobe JSON.
func parseProbeOutput(output []byte) (*ProbeResult, error) {
	var result ProbeResult
	if err := json.Unmarshal(output, &result); err != nil {
		return nil, fmt.Errorf("parsing ffprobe output: %w", err)
	}
	return &result, nil
}
