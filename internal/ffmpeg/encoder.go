package ffmpeg

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

// Encoder runs the ffmpeg binary against local files.
type Encoder struct {
	ffmpegPath string
}

// NewEncoder creates a new encoder. An empty path falls back to $PATH lookup
// of "ffmpeg".
func NewEncoder(ffmpegPath string) *Encoder {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &Encoder{ffmpegPath: ffmpegPath}
}

// ProgressFunc receives the percent-complete value of one ffmpeg invocation,
// in the range [0,100].
type ProgressFunc func(percent float64)

// timeRe matches the time= field of ffmpeg's stats line.
var timeRe = regexp.MustCompile(`time=(\d+):(\d+):(\d+)\.(\d+)`)

// parseTimeSeconds extracts the encoded position in seconds from one stats
// line. The fractional part is centiseconds.
func parseTimeSeconds(line string) (float64, bool) {
	matches := timeRe.FindStringSubmatch(line)
	if len(matches) < 5 {
		return 0, false
	}
	hours, _ := strconv.Atoi(matches[1])
	mins, _ := strconv.Atoi(matches[2])
	secs, _ := strconv.Atoi(matches[3])
	centis, _ := strconv.Atoi(matches[4])
	return float64(hours)*3600 + float64(mins)*60 + float64(secs) + float64(centis)/100, true
}

// scanStatsLines is a bufio.SplitFunc that treats both \n and \r as line
// terminators; ffmpeg rewrites its stats line with carriage returns.
func scanStatsLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// Encode runs ffmpeg with the given output arguments, reporting per-invocation
// progress computed against durationSeconds. The full command line is
// `ffmpeg -i input <args> output`. Stderr is retained (tail) for error context.
func (e *Encoder) Encode(ctx context.Context, inputPath, outputPath string, args []string, durationSeconds float64, onProgress ProgressFunc) error {
	cmdArgs := make([]string, 0, len(args)+6)
	cmdArgs = append(cmdArgs, "-hide_banner", "-y", "-i", inputPath)
	cmdArgs = append(cmdArgs, args...)
	cmdArgs = append(cmdArgs, outputPath)

	cmd := exec.CommandContext(ctx, e.ffmpegPath, cmdArgs...)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("getting stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting ffmpeg: %w", err)
	}

	var (
		wg   sync.WaitGroup
		tail []string
	)
	wg.Add(1)
	go func() {
		defer wg.Done()

		scanner := bufio.NewScanner(stderr)
		scanner.Split(scanStatsLines)
		for scanner.Scan() {
			line := scanner.Text()
			if line == "" {
				continue
			}

			tail = append(tail, line)
			if len(tail) > 20 {
				tail = tail[1:]
			}

			if onProgress == nil || durationSeconds <= 0 {
				continue
			}
			if seconds, ok := parseTimeSeconds(line); ok {
				pct := seconds / durationSeconds * 100
				if pct > 100 {
					pct = 100
				}
				onProgress(pct)
			}
		}
	}()

	// Wait must not run until the stderr reader is done: it closes the pipe,
	// which would truncate the tail kept for the error message.
	wg.Wait()
	waitErr := cmd.Wait()

	if waitErr != nil {
		return fmt.Errorf("ffmpeg failed: %w (stderr: %s)", waitErr, strings.Join(tail, " | "))
	}

	if onProgress != nil {
		onProgress(100)
	}
	return nil
}

// Run runs ffmpeg without progress reporting. Used for short conversions such
// as subtitle extraction where a percent value adds nothing.
func (e *Encoder) Run(ctx context.Context, inputPath, outputPath string, args []string) error {
	return e.Encode(ctx, inputPath, outputPath, args, 0, nil)
}
